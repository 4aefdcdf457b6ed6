// Package hints derives progressive hint text and the score decay that
// comes with revealing it.
package hints

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"anagramgame/internal/models"
)

// MaxLevel is the terminal hint level
const MaxLevel = 3

var multipliers = [MaxLevel + 1]float64{1.0, 0.90, 0.70, 0.50}

// Multiplier returns the score multiplier for level, clamping out-of-range
// levels to the nearest valid one.
func Multiplier(level int) float64 {
	return multipliers[ClampLevel(level)]
}

// ClampLevel forces level into 0..MaxLevel
func ClampLevel(level int) int {
	return min(max(level, 0), MaxLevel)
}

// ScoreAt is the score a phrase of difficulty base is worth once level
// hints have been revealed.
func ScoreAt(base, level int) int {
	return int(math.Round(float64(base) * Multiplier(level)))
}

// Text returns the hint revealed at level. Level 0 has no hint.
func Text(p *models.Phrase, level int) string {
	words := strings.Fields(p.Content)
	switch level {
	case 1:
		if len(words) == 1 {
			return "This phrase has 1 word"
		}
		return fmt.Sprintf("This phrase has %d words", len(words))
	case 2:
		return p.Hint
	case 3:
		initials := make([]string, 0, len(words))
		for _, w := range words {
			r, size := utf8.DecodeRuneInString(w)
			if r == utf8.RuneError {
				initials = append(initials, w[:size])
				continue
			}
			initials = append(initials, string(r))
		}
		return strings.Join(initials, " ")
	}
	return ""
}

// Result builds the response for a revealed level
func Result(p *models.Phrase, level int, alreadyUsed bool) models.HintResult {
	return models.HintResult{
		Level:         level,
		Text:          Text(p, level),
		ScoreIfSolved: ScoreAt(p.DifficultyLevel, level),
		AlreadyUsed:   alreadyUsed,
	}
}
