package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"anagramgame/internal/database"
	"anagramgame/internal/models"
)

// ContributionLinkRepository stores links that let outsiders send phrases
type ContributionLinkRepository struct {
	db *database.DB
}

func NewContributionLinkRepository(db *database.DB) *ContributionLinkRepository {
	return &ContributionLinkRepository{db: db}
}

// CreateLink stores a new active link
func (r *ContributionLinkRepository) CreateLink(ctx context.Context, link *models.ContributionLink) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := playerExists(ctx, tx, link.OwnerPlayerID); err != nil {
			return err
		}
		link.IsActive = true
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contribution_links (id, owner_player_id, created_at, expires_at, is_active)
			VALUES (?, ?, ?, ?, ?)
		`, link.ID, link.OwnerPlayerID, link.CreatedAt, link.ExpiresAt, true)
		if err != nil {
			return fmt.Errorf("failed to create contribution link: %w", err)
		}
		return nil
	})
}

// GetLink retrieves a link by ID, returning models.ErrInvalidLink when missing
func (r *ContributionLinkRepository) GetLink(ctx context.Context, id string) (*models.ContributionLink, error) {
	link := &models.ContributionLink{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_player_id, created_at, expires_at, is_active
		FROM contribution_links WHERE id = ?
	`, id).Scan(&link.ID, &link.OwnerPlayerID, &link.CreatedAt, &link.ExpiresAt, &link.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrInvalidLink
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contribution link: %w", err)
	}
	return link, nil
}

// DeactivateLink stops a link from accepting further phrases
func (r *ContributionLinkRepository) DeactivateLink(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE contribution_links SET is_active = ? WHERE id = ?", false, id); err != nil {
		return fmt.Errorf("failed to deactivate contribution link: %w", err)
	}
	return nil
}
