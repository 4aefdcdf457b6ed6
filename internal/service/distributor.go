package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"anagramgame/internal/models"
	"anagramgame/internal/repository"
)

const (
	// MaxBatch caps how many phrases one refill request may return
	MaxBatch = 50

	// selectionAttempts bounds retries when a selection is excluded between
	// the read and the delivery write
	selectionAttempts = 3
)

// Distributor hands phrases to players: targeted assignments first, then
// the shared global pool.
type Distributor struct {
	store *repository.PhraseStore
}

// NewDistributor creates a new distributor
func NewDistributor(store *repository.PhraseStore) *Distributor {
	return &Distributor{store: store}
}

// Next delivers one phrase or returns models.ErrNotFound when the player has
// exhausted everything eligible.
func (d *Distributor) Next(ctx context.Context, playerID int64, rng *models.DifficultyRange) (*models.Delivery, error) {
	for attempt := 0; attempt < selectionAttempts; attempt++ {
		sel, err := d.store.NextEligible(ctx, playerID, rng)
		if err != nil {
			return nil, err
		}
		delivery, err := d.deliver(ctx, playerID, *sel, true)
		if err != nil {
			return nil, err
		}
		if delivery != nil {
			return delivery, nil
		}
		log.Debug().Int64("player_id", playerID).Int64("phrase_id", sel.PhraseID).
			Msg("selection excluded before delivery, retrying")
	}
	return nil, models.ErrNotFound
}

// NextBatch delivers up to limit distinct phrases for a client cache refill.
// An empty result is not an error. A batch only reaches a local pool, so
// targeted assignments stay pending and are flipped to delivered when the
// player completes or skips them; until then later refills may return
// them again.
func (d *Distributor) NextBatch(ctx context.Context, playerID int64, rng *models.DifficultyRange, limit int) ([]models.Delivery, error) {
	limit = min(max(limit, 1), MaxBatch)

	selections, err := d.store.NextEligibleBatch(ctx, playerID, rng, limit)
	if err != nil {
		return nil, err
	}

	deliveries := make([]models.Delivery, 0, len(selections))
	for _, sel := range selections {
		delivery, err := d.deliver(ctx, playerID, sel, false)
		if err != nil {
			return nil, err
		}
		if delivery != nil {
			deliveries = append(deliveries, *delivery)
		}
	}
	return deliveries, nil
}

// deliver loads a selection's phrase, marking a targeted assignment
// delivered when markDelivered is set. It returns nil when the player
// completed or skipped the phrase since it was selected.
func (d *Distributor) deliver(ctx context.Context, playerID int64, sel models.Selection, markDelivered bool) (*models.Delivery, error) {
	check := d.store.Eligible
	if markDelivered {
		check = d.store.MarkDelivered
	}
	ok, err := check(ctx, playerID, sel.PhraseID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark phrase %d delivered: %w", sel.PhraseID, err)
	}
	if !ok {
		return nil, nil
	}

	phrase, err := d.store.GetPhrase(ctx, sel.PhraseID)
	if errors.Is(err, models.ErrUnknownPhrase) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.Delivery{Phrase: *phrase, Type: sel.Type}, nil
}

// Resolved returns which of ids the player has completed or skipped, so a
// client can prune its local pool.
func (d *Distributor) Resolved(ctx context.Context, playerID int64, ids []int64) ([]int64, error) {
	return d.store.CompletedOrSkipped(ctx, playerID, ids)
}
