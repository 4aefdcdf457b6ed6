package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"anagramgame/internal/handles"
	"anagramgame/internal/models"
	"anagramgame/internal/repository"
	"anagramgame/internal/utils"
)

const handleAttempts = 5

// PlayerService registers players
type PlayerService struct {
	players *repository.PlayerRepository
}

// NewPlayerService creates a new player service
func NewPlayerService(players *repository.PlayerRepository) *PlayerService {
	return &PlayerService{players: players}
}

// Register creates a player. An empty username gets a generated handle.
func (s *PlayerService) Register(ctx context.Context, username, email string) (*models.Player, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if email != "" {
		if err := utils.ValidateEmail(email); err != nil {
			return nil, err
		}
	}

	if username == "" {
		generated, err := s.freeHandle(ctx)
		if err != nil {
			return nil, err
		}
		username = generated
	}
	if err := utils.ValidateUsername(username); err != nil {
		return nil, err
	}

	player, err := s.players.CreatePlayer(ctx, username, email)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("player_id", player.ID).Str("username", player.Username).Msg("player registered")
	return player, nil
}

// GetPlayer returns a player or models.ErrUnknownPlayer
func (s *PlayerService) GetPlayer(ctx context.Context, id int64) (*models.Player, error) {
	return s.players.GetPlayer(ctx, id)
}

func (s *PlayerService) freeHandle(ctx context.Context) (string, error) {
	for i := 0; i < handleAttempts; i++ {
		generate := handles.Generate
		if i > 1 {
			generate = handles.GenerateWithSuffix
		}
		handle, err := generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate handle: %w", err)
		}
		taken, err := s.players.UsernameExists(ctx, handle)
		if err != nil {
			return "", err
		}
		if !taken {
			return handle, nil
		}
	}
	return "", fmt.Errorf("no free handle after %d attempts", handleAttempts)
}
