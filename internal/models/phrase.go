package models

import "time"

// Language identifies the letter set a phrase is written in
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSwedish Language = "sv"
)

// Phrase is a scrambled-phrase puzzle. Content, hint and difficulty are
// immutable once approved; only UsageCount changes afterwards.
type Phrase struct {
	ID                 int64     `json:"id"`
	Content            string    `json:"content"`
	Hint               string    `json:"hint"`
	DifficultyLevel    int       `json:"difficultyLevel"`
	Language           Language  `json:"language"`
	IsGlobal           bool      `json:"isGlobal"`
	IsApproved         bool      `json:"isApproved"`
	CreatedBy          *int64    `json:"createdBy,omitempty"`
	ContributionLinkID *string   `json:"contributionLinkId,omitempty"`
	UsageCount         int       `json:"usageCount"`
	CreatedAt          time.Time `json:"createdAt"`
}

// PhraseAssignment earmarks a phrase for one recipient
type PhraseAssignment struct {
	ID             int64      `json:"id"`
	PhraseID       int64      `json:"phraseId"`
	TargetPlayerID int64      `json:"targetPlayerId"`
	Priority       int        `json:"priority"`
	AssignedAt     time.Time  `json:"assignedAt"`
	IsDelivered    bool       `json:"isDelivered"`
	DeliveredAt    *time.Time `json:"deliveredAt,omitempty"`
}

// DeliveryType tells the client where a phrase came from on the server side
type DeliveryType string

const (
	DeliveryTargeted DeliveryType = "targeted"
	DeliveryGlobal   DeliveryType = "global"
)

// Selection is the result of an eligibility lookup
type Selection struct {
	PhraseID int64
	Type     DeliveryType
}

// Delivery is a phrase handed to a player
type Delivery struct {
	Phrase Phrase       `json:"phrase"`
	Type   DeliveryType `json:"type"`
}

// DifficultyRange bounds phrase difficulty, both ends inclusive
type DifficultyRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether level falls inside the range. A nil range matches everything.
func (r *DifficultyRange) Contains(level int) bool {
	if r == nil {
		return true
	}
	return level >= r.Min && level <= r.Max
}

// ContributionLink lets someone outside the app send phrases to its owner
type ContributionLink struct {
	ID            string    `json:"id"`
	OwnerPlayerID int64     `json:"ownerPlayerId"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
	IsActive      bool      `json:"isActive"`
}

// PhraseBatch is the body of a cache refill response
type PhraseBatch struct {
	Phrases []Delivery `json:"phrases"`
}

// PhraseStatusRequest lists phrase ids a client holds locally
type PhraseStatusRequest struct {
	PhraseIDs []int64 `json:"phraseIds"`
}

// PhraseStatusResponse names the ids the server has recorded as completed or skipped
type PhraseStatusResponse struct {
	Resolved []int64 `json:"resolved"`
}
