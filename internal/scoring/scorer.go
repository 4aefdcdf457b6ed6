package scoring

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"anagramgame/internal/models"
	"anagramgame/internal/utils"
)

type letterTable struct {
	freq map[rune]float64
	max  float64
}

// Scorer turns a phrase into a 1..100 difficulty. It holds no mutable state
// and is safe for concurrent use.
type Scorer struct {
	artifact *Artifact
	tables   map[models.Language]letterTable
}

// Breakdown exposes the individual factors of a score
type Breakdown struct {
	Words        int     `json:"words"`
	Letters      int     `json:"letters"`
	Unique       int     `json:"unique"`
	WordFactor   float64 `json:"wordFactor"`
	LengthFactor float64 `json:"lengthFactor"`
	Commonality  float64 `json:"commonality"`
	Repetition   float64 `json:"repetition"`
	Raw          float64 `json:"raw"`
	Score        int     `json:"score"`
}

var defaultScorer = sync.OnceValue(func() *Scorer {
	a, err := ParseArtifact(defaultArtifact)
	if err != nil {
		panic(fmt.Sprintf("embedded difficulty artifact is invalid: %v", err))
	}
	return New(a)
})

// Default returns the scorer built from the embedded artifact
func Default() *Scorer {
	return defaultScorer()
}

// New builds a scorer from a parsed artifact
func New(a *Artifact) *Scorer {
	s := &Scorer{artifact: a, tables: make(map[models.Language]letterTable, len(a.Languages))}
	for lang, table := range a.Languages {
		lt := letterTable{freq: make(map[rune]float64, len(table))}
		for letter, freq := range table {
			r := []rune(letter)[0]
			lt.freq[r] = freq
			if freq > lt.max {
				lt.max = freq
			}
		}
		s.tables[lang] = lt
	}
	return s
}

// Artifact returns the constants behind this scorer
func (s *Scorer) Artifact() *Artifact {
	return s.artifact
}

// Supports reports whether a frequency table exists for lang
func (s *Scorer) Supports(lang models.Language) bool {
	_, ok := s.tables[lang]
	return ok
}

// Score returns the difficulty of phrase. Degenerate input (no letters of
// the language, or an unknown language) yields the minimum score.
func (s *Scorer) Score(phrase string, lang models.Language) int {
	return s.Analyze(phrase, lang).Score
}

// Analyze computes the score together with its factors
func (s *Scorer) Analyze(phrase string, lang models.Language) Breakdown {
	w := s.artifact.Weights
	table, ok := s.tables[lang]
	if !ok {
		return Breakdown{Score: w.MinScore}
	}

	words := s.words(phrase, table)
	b := Breakdown{Words: len(words)}

	seen := make(map[rune]struct{})
	var freqSum float64
	for _, word := range words {
		for _, r := range word {
			b.Letters++
			freqSum += table.freq[r]
			seen[r] = struct{}{}
		}
	}
	b.Unique = len(seen)
	if b.Letters == 0 {
		b.Score = w.MinScore
		return b
	}

	letters := float64(b.Letters)
	b.WordFactor = math.Pow(float64(max(0, b.Words-1)), w.WordCountExponent) * w.WordCountWeight
	b.LengthFactor = math.Pow(letters, w.LetterCountExponent) * w.LetterCountWeight

	b.Commonality = (1 - (freqSum/letters)/table.max) * w.CommonalityWeight
	if b.Letters <= w.ShortPhraseLetters {
		b.Commonality /= 2
	}

	b.Repetition = float64(b.Letters-b.Unique) / letters * w.RepetitionWeight

	b.Raw = b.WordFactor + b.LengthFactor + b.Commonality - b.Repetition
	score := int(math.Round(b.Raw))
	b.Score = min(max(score, w.MinScore), w.MaxScore)
	return b
}

// CheckAlphabet rejects phrase text containing anything besides letters of
// the language and whitespace.
func (s *Scorer) CheckAlphabet(phrase string, lang models.Language) error {
	table, ok := s.tables[lang]
	if !ok {
		return utils.ValidationError{Field: "language", Message: fmt.Sprintf("%v: %q", ErrUnsupportedLanguage, lang)}
	}
	for _, r := range normalize(phrase) {
		if unicode.IsSpace(r) {
			continue
		}
		if _, ok := table.freq[r]; !ok {
			return utils.ValidationError{Field: "content", Message: fmt.Sprintf("character %q is not allowed for language %s", r, lang)}
		}
	}
	return nil
}

// Normalize lower-cases phrase and strips everything outside the letter set
// of lang, keeping single spaces between words.
func (s *Scorer) Normalize(phrase string, lang models.Language) string {
	table, ok := s.tables[lang]
	if !ok {
		return ""
	}
	return strings.Join(s.words(phrase, table), " ")
}

func (s *Scorer) words(phrase string, table letterTable) []string {
	var (
		words []string
		cur   strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range normalize(phrase) {
		if _, ok := table.freq[r]; ok {
			cur.WriteRune(r)
			continue
		}
		if unicode.IsSpace(r) {
			flush()
		}
	}
	flush()
	return words
}

// normalize composes combining marks so "a"+U+030A and "å" are the same letter
func normalize(phrase string) string {
	return strings.ToLower(norm.NFC.String(phrase))
}
