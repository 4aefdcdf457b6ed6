package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"anagramgame/internal/hints"
	"anagramgame/internal/models"
	"anagramgame/internal/repository"
)

// HintService runs the per (player, phrase) hint state machine and turns
// hint usage into final scores.
type HintService struct {
	store *repository.PhraseStore
}

// NewHintService creates a new hint service
func NewHintService(store *repository.PhraseStore) *HintService {
	return &HintService{store: store}
}

// UseHint reveals hint level for the pair. Levels already reached are
// replayed with AlreadyUsed set; skipping ahead fails with
// models.ErrOutOfOrderHint.
func (s *HintService) UseHint(ctx context.Context, playerID, phraseID int64, level int) (*models.HintResult, error) {
	phrase, err := s.store.GetPhrase(ctx, phraseID)
	if err != nil {
		return nil, err
	}

	recorded, err := s.store.UseHint(ctx, playerID, phraseID, level)
	if err != nil {
		return nil, err
	}

	result := hints.Result(phrase, level, !recorded)
	log.Debug().Int64("player_id", playerID).Int64("phrase_id", phraseID).Int("level", level).
		Bool("replay", result.AlreadyUsed).Msg("hint used")
	return &result, nil
}

// CompletePhrase records a solved phrase. The store reads the recorded
// hint level and computes the score in the same transaction as the insert,
// so a hint taken concurrently is never lost. A retry returns the score
// recorded the first time.
func (s *HintService) CompletePhrase(ctx context.Context, playerID, phraseID int64, hintsUsed, completionTimeMs int) (*models.FinalScore, error) {
	phrase, err := s.store.GetPhrase(ctx, phraseID)
	if err != nil {
		return nil, err
	}

	rec, created, err := s.store.Complete(ctx, models.CompletionAttempt{
		PlayerID:         playerID,
		PhraseID:         phraseID,
		HintsUsed:        hintsUsed,
		CompletionTimeMs: completionTimeMs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete phrase: %w", err)
	}

	if created {
		log.Info().Int64("player_id", playerID).Int64("phrase_id", phraseID).Int("score", rec.Score).
			Int("hints", rec.HintsUsed).Msg("phrase completed")
	}

	return &models.FinalScore{
		Score:            rec.Score,
		HintLevel:        rec.HintsUsed,
		BaseDifficulty:   phrase.DifficultyLevel,
		AlreadyCompleted: !created,
	}, nil
}

// SkipPhrase records that the player gave up on a phrase. Skipping a phrase
// the player already solved records nothing.
func (s *HintService) SkipPhrase(ctx context.Context, playerID, phraseID int64) (*models.Ack, error) {
	ack, err := s.store.Skip(ctx, playerID, phraseID)
	if err != nil {
		return nil, err
	}
	return &ack, nil
}
