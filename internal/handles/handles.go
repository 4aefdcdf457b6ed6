// Package handles generates friendly player handles like "clever-otter".
package handles

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var adjectives = []string{
	"happy", "sunny", "brave", "bright", "swift", "clever", "jolly", "mighty",
	"lucky", "bouncy", "daring", "eager", "gentle", "jazzy", "lively", "merry",
	"noble", "perky", "quick", "snappy", "zippy", "bold", "cosmic", "groovy",
	"curious", "witty", "nimble", "sly", "plucky", "dizzy", "sleepy", "fuzzy",
}

var nouns = []string{
	"otter", "badger", "falcon", "walrus", "panda", "lynx", "heron", "moose",
	"fox", "hawk", "puffin", "gecko", "narwhal", "raven", "beaver", "koala",
	"llama", "marmot", "newt", "ocelot", "pelican", "quokka", "salmon", "toucan",
	"vole", "wombat", "yak", "zebra", "bison", "crane", "dingo", "ferret",
}

// Generate returns a random handle in the form "adjective-noun"
func Generate() (string, error) {
	adjective, err := randomElement(adjectives)
	if err != nil {
		return "", err
	}
	noun, err := randomElement(nouns)
	if err != nil {
		return "", err
	}
	return adjective + "-" + noun, nil
}

// GenerateWithSuffix appends a two digit number, used once plain handles collide
func GenerateWithSuffix() (string, error) {
	base, err := Generate()
	if err != nil {
		return "", err
	}
	n, err := rand.Int(rand.Reader, big.NewInt(100))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%02d", base, n.Int64()), nil
}

func randomElement(slice []string) (string, error) {
	if len(slice) == 0 {
		return "", nil
	}
	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}
	return slice[num.Int64()], nil
}
