package models

import "time"

// Player is a game account that receives phrases
type Player struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email,omitempty"`
	PhrasesCompleted int       `json:"phrasesCompleted"`
	TotalScore       int       `json:"totalScore"`
	CreatedAt        time.Time `json:"createdAt"`
}

// CompletionRecord is written exactly once per (player, phrase)
type CompletionRecord struct {
	PlayerID         int64     `json:"playerId"`
	PhraseID         int64     `json:"phraseId"`
	Score            int       `json:"score"`
	CompletionTimeMs int       `json:"completionTimeMs"`
	HintsUsed        int       `json:"hintsUsed"`
	CompletedAt      time.Time `json:"completedAt"`
}

// CompletionAttempt is a client's claim that a phrase was solved. The
// score is derived from stored state when the attempt is recorded.
type CompletionAttempt struct {
	PlayerID         int64
	PhraseID         int64
	HintsUsed        int
	CompletionTimeMs int
}

// SkipRecord marks a phrase the player gave up on
type SkipRecord struct {
	PlayerID  int64     `json:"playerId"`
	PhraseID  int64     `json:"phraseId"`
	SkippedAt time.Time `json:"skippedAt"`
}

// HintUsageRecord is one revealed hint level
type HintUsageRecord struct {
	PlayerID  int64     `json:"playerId"`
	PhraseID  int64     `json:"phraseId"`
	HintLevel int       `json:"hintLevel"`
	UsedAt    time.Time `json:"usedAt"`
}

// HintResult is returned for every successful or replayed hint request
type HintResult struct {
	Level         int    `json:"level"`
	Text          string `json:"text"`
	ScoreIfSolved int    `json:"scoreIfSolved"`
	AlreadyUsed   bool   `json:"alreadyUsed"`
}

// FinalScore is the outcome of completing a phrase
type FinalScore struct {
	Score            int  `json:"score"`
	HintLevel        int  `json:"hintLevel"`
	BaseDifficulty   int  `json:"baseDifficulty"`
	AlreadyCompleted bool `json:"alreadyCompleted"`
}

// Ack acknowledges a skip. AlreadyCompleted means the phrase was solved
// before the skip arrived and nothing was recorded.
type Ack struct {
	AlreadySkipped   bool `json:"alreadySkipped"`
	AlreadyCompleted bool `json:"alreadyCompleted,omitempty"`
}
