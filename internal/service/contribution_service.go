package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"anagramgame/internal/models"
	"anagramgame/internal/repository"
)

const linkIssuer = "anagramgame"

// ContributionService mints signed links that let anyone send a phrase to
// the link owner, and accepts phrases submitted through them.
type ContributionService struct {
	links   *repository.ContributionLinkRepository
	phrases *PhraseService
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewContributionService creates a contribution service. With an empty
// secret a random one is generated, so links stop working on restart.
func NewContributionService(links *repository.ContributionLinkRepository, phrases *PhraseService, secret string, ttl time.Duration) (*ContributionService, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate link secret: %w", err)
		}
		log.Warn().Msg("CONTRIBUTION_SECRET not set, contribution links will not survive a restart")
	}
	return &ContributionService{links: links, phrases: phrases, secret: key, ttl: ttl, now: time.Now}, nil
}

// CreateLink stores a new link for owner and returns it with its token
func (s *ContributionService) CreateLink(ctx context.Context, ownerID int64) (*models.ContributionLink, string, error) {
	issued := s.now().UTC()
	link := &models.ContributionLink{
		ID:            uuid.NewString(),
		OwnerPlayerID: ownerID,
		CreatedAt:     issued,
		ExpiresAt:     issued.Add(s.ttl),
	}
	if err := s.links.CreateLink(ctx, link); err != nil {
		return nil, "", err
	}

	claims := jwt.RegisteredClaims{
		ID:        link.ID,
		Issuer:    linkIssuer,
		Subject:   fmt.Sprintf("%d", ownerID),
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(link.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign contribution link: %w", err)
	}

	log.Info().Str("link_id", link.ID).Int64("owner_id", ownerID).Time("expires_at", link.ExpiresAt).Msg("contribution link created")
	return link, token, nil
}

// Resolve validates token and returns the active link it names
func (s *ContributionService) Resolve(ctx context.Context, token string) (*models.ContributionLink, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(linkIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		log.Debug().Err(err).Msg("rejected contribution token")
		return nil, models.ErrInvalidLink
	}

	if _, err := uuid.Parse(claims.ID); err != nil {
		return nil, models.ErrInvalidLink
	}
	link, err := s.links.GetLink(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !link.IsActive || !s.now().Before(link.ExpiresAt) {
		return nil, models.ErrInvalidLink
	}
	return link, nil
}

// Submit stores a phrase sent through a link as a targeted assignment for
// the link owner.
func (s *ContributionService) Submit(ctx context.Context, token string, sub Submission) (*models.Phrase, error) {
	link, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	sub.IsGlobal = false
	sub.CreatedBy = nil
	sub.TargetPlayerID = &link.OwnerPlayerID
	sub.ContributionLinkID = &link.ID

	phrase, _, err := s.phrases.Submit(ctx, sub)
	if errors.Is(err, models.ErrUnknownPlayer) {
		return nil, models.ErrInvalidLink
	}
	return phrase, err
}

// Revoke deactivates a link
func (s *ContributionService) Revoke(ctx context.Context, token string) error {
	link, err := s.Resolve(ctx, token)
	if err != nil {
		return err
	}
	return s.links.DeactivateLink(ctx, link.ID)
}
