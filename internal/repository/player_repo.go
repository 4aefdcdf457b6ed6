package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"anagramgame/internal/database"
	"anagramgame/internal/models"
	"anagramgame/internal/utils"
)

// PlayerRepository handles database operations for players
type PlayerRepository struct {
	db *database.DB
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *database.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// CreatePlayer inserts a new player. A taken username is reported as a
// validation error on the username field.
func (r *PlayerRepository) CreatePlayer(ctx context.Context, username, email string) (*models.Player, error) {
	p := &models.Player{Username: username, Email: email, CreatedAt: now()}

	var emailArg any
	if email != "" {
		emailArg = email
	}
	query := "INSERT INTO players (username, email, phrases_completed, total_score, created_at) VALUES (?, ?, 0, 0, ?)"
	id, err := r.db.ExecReturningID(ctx, query, username, emailArg, p.CreatedAt)
	if err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return nil, utils.ValidationError{Field: "username", Message: "username is already taken"}
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	p.ID = id
	return p, nil
}

// GetPlayer retrieves a player by ID
func (r *PlayerRepository) GetPlayer(ctx context.Context, id int64) (*models.Player, error) {
	return r.getPlayer(ctx, "id = ?", id)
}

// GetPlayerByUsername retrieves a player by handle
func (r *PlayerRepository) GetPlayerByUsername(ctx context.Context, username string) (*models.Player, error) {
	return r.getPlayer(ctx, "username = ?", username)
}

func (r *PlayerRepository) getPlayer(ctx context.Context, where string, arg any) (*models.Player, error) {
	query := `
		SELECT id, username, COALESCE(email, ''), phrases_completed, total_score, created_at
		FROM players
		WHERE ` + where
	p := &models.Player{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID,
		&p.Username,
		&p.Email,
		&p.PhrasesCompleted,
		&p.TotalScore,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUnknownPlayer
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

// UsernameExists checks whether a handle is taken
func (r *PlayerRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM players WHERE username = ?", username).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}
