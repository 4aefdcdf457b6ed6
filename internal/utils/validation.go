package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)
)

const (
	MaxPhraseRunes   = 60
	MaxPhraseWords   = 12
	MaxHintRunes     = 120
	MaxUsernameRunes = 32
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateUsername checks if a player handle is valid
func ValidateUsername(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "username", Message: "username is required"}
	}
	if utf8.RuneCountInString(name) < 3 {
		return ValidationError{Field: "username", Message: "username must be at least 3 characters"}
	}
	if utf8.RuneCountInString(name) > MaxUsernameRunes {
		return ValidationError{Field: "username", Message: fmt.Sprintf("username must be at most %d characters", MaxUsernameRunes)}
	}
	if !usernameRegex.MatchString(name) {
		return ValidationError{Field: "username", Message: "username may only contain letters, digits, '-' and '_'"}
	}
	return nil
}

// ValidatePhraseShape checks length and word count of phrase text.
// Letter-set checks depend on the language and happen in the scoring package.
func ValidatePhraseShape(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ValidationError{Field: "content", Message: "phrase is required"}
	}
	if utf8.RuneCountInString(content) > MaxPhraseRunes {
		return ValidationError{Field: "content", Message: fmt.Sprintf("phrase must be at most %d characters", MaxPhraseRunes)}
	}
	if words := len(strings.Fields(content)); words > MaxPhraseWords {
		return ValidationError{Field: "content", Message: fmt.Sprintf("phrase must have at most %d words", MaxPhraseWords)}
	}
	return nil
}

// ValidateHint checks the authored hint string
func ValidateHint(hint string) error {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return ValidationError{Field: "hint", Message: "hint is required"}
	}
	if utf8.RuneCountInString(hint) > MaxHintRunes {
		return ValidationError{Field: "hint", Message: fmt.Sprintf("hint must be at most %d characters", MaxHintRunes)}
	}
	return nil
}
