// Package scoring computes phrase difficulty. Client and server must produce
// identical scores, so every constant lives in the embedded tables.json
// artifact and is published together with its version and hash.
package scoring

import (
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/blake2b"

	"anagramgame/internal/models"
	"anagramgame/internal/utils"
)

//go:embed tables.json
var defaultArtifact []byte

// ErrUnsupportedLanguage is returned for languages without a frequency table
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Weights are the scoring constants shared by every implementation
type Weights struct {
	WordCountExponent   float64 `json:"word_count_exponent"`
	WordCountWeight     float64 `json:"word_count_weight"`
	LetterCountExponent float64 `json:"letter_count_exponent"`
	LetterCountWeight   float64 `json:"letter_count_weight"`
	CommonalityWeight   float64 `json:"commonality_weight"`
	ShortPhraseLetters  int     `json:"short_phrase_letters"`
	RepetitionWeight    float64 `json:"repetition_weight"`
	MinScore            int     `json:"min_score"`
	MaxScore            int     `json:"max_score"`
}

// Artifact is the versioned data file behind the scorer
type Artifact struct {
	Version   string                                 `json:"version"`
	Weights   Weights                                `json:"weights"`
	Languages map[models.Language]map[string]float64 `json:"languages"`

	// Hash is the hex BLAKE2b-256 digest of the raw artifact bytes
	Hash string `json:"-"`
}

// ArtifactInfo is what clients compare to detect a table mismatch
type ArtifactInfo struct {
	Version string `json:"version"`
	Hash    string `json:"hash"`
}

// ParseArtifact decodes and validates an artifact
func ParseArtifact(raw []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("failed to decode difficulty artifact: %w", err)
	}
	if a.Version == "" {
		return nil, errors.New("difficulty artifact has no version")
	}
	if a.Weights.MinScore < 1 || a.Weights.MaxScore < a.Weights.MinScore {
		return nil, fmt.Errorf("invalid score bounds %d..%d", a.Weights.MinScore, a.Weights.MaxScore)
	}
	if len(a.Languages) == 0 {
		return nil, errors.New("difficulty artifact has no languages")
	}
	for lang, table := range a.Languages {
		if len(table) == 0 {
			return nil, fmt.Errorf("empty frequency table for %s", lang)
		}
		for letter, freq := range table {
			if utf8.RuneCountInString(letter) != 1 {
				return nil, fmt.Errorf("table %s: key %q is not a single letter", lang, letter)
			}
			if freq <= 0 {
				return nil, fmt.Errorf("table %s: letter %q has non-positive frequency", lang, letter)
			}
		}
	}

	sum := blake2b.Sum256(raw)
	a.Hash = hex.EncodeToString(sum[:])
	return &a, nil
}

// Info returns the version and hash pair
func (a *Artifact) Info() ArtifactInfo {
	return ArtifactInfo{Version: a.Version, Hash: a.Hash}
}

// ParseLanguage validates a language code
func ParseLanguage(code string) (models.Language, error) {
	switch models.Language(code) {
	case models.LanguageEnglish, models.LanguageSwedish:
		return models.Language(code), nil
	}
	return "", utils.ValidationError{Field: "language", Message: fmt.Sprintf("%v: %q", ErrUnsupportedLanguage, code)}
}
