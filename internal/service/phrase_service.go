package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"anagramgame/internal/models"
	"anagramgame/internal/repository"
	"anagramgame/internal/scoring"
	"anagramgame/internal/utils"
)

// BlockedWordFinder reports which words of a text are not allowed
type BlockedWordFinder interface {
	FindBlockedWords(ctx context.Context, text string) ([]string, error)
}

// AssignmentNotifier tells a player a phrase was sent to them
type AssignmentNotifier interface {
	NotifyAssignment(ctx context.Context, recipient *models.Player, phrase *models.Phrase) error
}

// Submission is a phrase proposed by a player, a contribution link or an import
type Submission struct {
	Content            string
	Hint               string
	Language           string
	IsGlobal           bool
	CreatedBy          *int64
	TargetPlayerID     *int64
	Priority           int
	ContributionLinkID *string
}

// PhraseService validates, scores and stores phrases
type PhraseService struct {
	store    *repository.PhraseStore
	players  *repository.PlayerRepository
	scorer   *scoring.Scorer
	blocked  BlockedWordFinder
	settings *SettingsCache
	notifier AssignmentNotifier
}

// NewPhraseService creates a new phrase service. notifier may be nil.
func NewPhraseService(
	store *repository.PhraseStore,
	players *repository.PlayerRepository,
	scorer *scoring.Scorer,
	blocked BlockedWordFinder,
	settings *SettingsCache,
	notifier AssignmentNotifier,
) *PhraseService {
	return &PhraseService{
		store:    store,
		players:  players,
		scorer:   scorer,
		blocked:  blocked,
		settings: settings,
		notifier: notifier,
	}
}

// Submit validates and stores a phrase, creating the targeted assignment in
// the same transaction when a target is given.
func (s *PhraseService) Submit(ctx context.Context, sub Submission) (*models.Phrase, *models.PhraseAssignment, error) {
	if !sub.IsGlobal && sub.TargetPlayerID == nil {
		return nil, nil, utils.ValidationError{Field: "targetPlayerId", Message: "a phrase must be global or sent to a player"}
	}
	if sub.TargetPlayerID != nil && sub.CreatedBy != nil && *sub.TargetPlayerID == *sub.CreatedBy {
		return nil, nil, utils.ValidationError{Field: "targetPlayerId", Message: "cannot send a phrase to yourself"}
	}

	phrase, err := s.prepare(ctx, sub)
	if err != nil {
		return nil, nil, err
	}
	phrase.IsApproved = !phrase.IsGlobal || s.settings.Bool(ctx, repository.SettingAutoApprove, false)

	var assignment *models.PhraseAssignment
	if sub.TargetPlayerID != nil {
		assignment = &models.PhraseAssignment{TargetPlayerID: *sub.TargetPlayerID, Priority: sub.Priority}
	}
	if err := s.store.CreatePhrase(ctx, phrase, assignment); err != nil {
		return nil, nil, err
	}

	log.Info().Int64("phrase_id", phrase.ID).Int("difficulty", phrase.DifficultyLevel).
		Str("language", string(phrase.Language)).Bool("global", phrase.IsGlobal).Msg("phrase created")

	if assignment != nil {
		s.notify(ctx, assignment.TargetPlayerID, phrase)
	}
	return phrase, assignment, nil
}

// Assign sends an existing phrase to a player
func (s *PhraseService) Assign(ctx context.Context, phraseID, playerID int64, priority int) (*models.PhraseAssignment, error) {
	assignment, err := s.store.Assign(ctx, phraseID, playerID, priority)
	if err != nil {
		return nil, err
	}
	if phrase, err := s.store.GetPhrase(ctx, phraseID); err == nil {
		s.notify(ctx, playerID, phrase)
	}
	return assignment, nil
}

// Score rates text without storing it
func (s *PhraseService) Score(content, language string) (scoring.Breakdown, error) {
	lang, err := scoring.ParseLanguage(language)
	if err != nil {
		return scoring.Breakdown{}, err
	}
	return s.scorer.Analyze(content, lang), nil
}

// prepare validates a submission and builds the phrase with its difficulty
func (s *PhraseService) prepare(ctx context.Context, sub Submission) (*models.Phrase, error) {
	lang, err := scoring.ParseLanguage(sub.Language)
	if err != nil {
		return nil, err
	}

	content := strings.Join(strings.Fields(sub.Content), " ")
	hint := strings.TrimSpace(sub.Hint)
	if err := utils.ValidatePhraseShape(content); err != nil {
		return nil, err
	}
	if err := utils.ValidateHint(hint); err != nil {
		return nil, err
	}
	if err := s.scorer.CheckAlphabet(content, lang); err != nil {
		return nil, err
	}

	if s.blocked != nil {
		for _, f := range []struct{ field, text string }{{"content", content}, {"hint", hint}} {
			found, err := s.blocked.FindBlockedWords(ctx, f.text)
			if err != nil {
				return nil, fmt.Errorf("failed to check blocked words: %w", err)
			}
			if len(found) > 0 {
				return nil, utils.ValidationError{Field: f.field, Message: "contains words that are not allowed"}
			}
		}
	}

	return &models.Phrase{
		Content:            content,
		Hint:               hint,
		DifficultyLevel:    s.scorer.Score(content, lang),
		Language:           lang,
		IsGlobal:           sub.IsGlobal,
		CreatedBy:          sub.CreatedBy,
		ContributionLinkID: sub.ContributionLinkID,
	}, nil
}

func (s *PhraseService) notify(ctx context.Context, playerID int64, phrase *models.Phrase) {
	if s.notifier == nil {
		return
	}
	recipient, err := s.players.GetPlayer(ctx, playerID)
	if err != nil {
		log.Error().Err(err).Int64("player_id", playerID).Msg("failed to load assignment recipient")
		return
	}
	if recipient.Email == "" {
		return
	}
	if err := s.notifier.NotifyAssignment(ctx, recipient, phrase); err != nil {
		log.Error().Err(err).Int64("player_id", playerID).Int64("phrase_id", phrase.ID).Msg("failed to send assignment notice")
	}
}
