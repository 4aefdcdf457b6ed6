package models

import "errors"

var (
	// ErrNotFound means no phrase qualifies right now. It is a normal outcome.
	ErrNotFound = errors.New("no eligible phrase")

	ErrUnknownPhrase  = errors.New("unknown phrase")
	ErrUnknownPlayer  = errors.New("unknown player")
	ErrOutOfOrderHint = errors.New("hint levels must be used in order")
	ErrInvalidLink    = errors.New("contribution link is invalid or expired")
	ErrAlreadySkipped = errors.New("phrase was already skipped")
)
