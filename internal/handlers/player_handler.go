package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"anagramgame/internal/metrics"
	"anagramgame/internal/models"
	"anagramgame/internal/security"
	"anagramgame/internal/service"
)

// PlayerHandler serves player registration and contribution links
type PlayerHandler struct {
	players       *service.PlayerService
	contributions *service.ContributionService
	appBaseURL    string
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(players *service.PlayerService, contributions *service.ContributionService, appBaseURL string) *PlayerHandler {
	return &PlayerHandler{players: players, contributions: contributions, appBaseURL: appBaseURL}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Register handles POST /api/players
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	player, err := h.players.Register(r.Context(), req.Username, req.Email)
	if err != nil {
		respondWithServiceError(w, "Failed to register player", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, player)
}

// Get handles GET /api/players/{playerId}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathID(r, "playerId")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}
	player, err := h.players.GetPlayer(r.Context(), playerID)
	if err != nil {
		respondWithServiceError(w, "Failed to load player", err)
		return
	}
	respondWithJSON(w, http.StatusOK, player)
}

type contributionLinkResponse struct {
	Link  *models.ContributionLink `json:"link"`
	Token string                   `json:"token"`
	URL   string                   `json:"url"`
}

// CreateContributionLink handles POST /api/players/{playerId}/contribution-links
func (h *PlayerHandler) CreateContributionLink(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathID(r, "playerId")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	link, token, err := h.contributions.CreateLink(r.Context(), playerID)
	if err != nil {
		respondWithServiceError(w, "Failed to create contribution link", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, contributionLinkResponse{
		Link:  link,
		Token: token,
		URL:   security.BaseURL(r, h.appBaseURL) + "/contribute/" + url.PathEscape(token),
	})
}

type linkStatusResponse struct {
	Active    bool      `json:"active"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ResolveContributionLink handles GET /api/contributions/{token} so a
// contribution page can check a link before showing its form.
func (h *PlayerHandler) ResolveContributionLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.contributions.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondWithServiceError(w, "Failed to resolve contribution link", err)
		return
	}
	respondWithJSON(w, http.StatusOK, linkStatusResponse{Active: link.IsActive, ExpiresAt: link.ExpiresAt})
}

type contributeRequest struct {
	Content  string `json:"content"`
	Hint     string `json:"hint"`
	Language string `json:"language"`
	Priority int    `json:"priority"`
}

// Contribute handles POST /api/contributions/{token}
func (h *PlayerHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	var req contributeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	phrase, err := h.contributions.Submit(r.Context(), chi.URLParam(r, "token"), service.Submission{
		Content:  req.Content,
		Hint:     req.Hint,
		Language: req.Language,
		Priority: req.Priority,
	})
	if err != nil {
		respondWithServiceError(w, "Failed to accept contribution", err)
		return
	}
	metrics.PhrasesSubmitted.WithLabelValues("link").Inc()
	respondWithJSON(w, http.StatusCreated, map[string]int64{"phraseId": phrase.ID})
}

// RevokeContributionLink handles DELETE /api/contributions/{token}
func (h *PlayerHandler) RevokeContributionLink(w http.ResponseWriter, r *http.Request) {
	if err := h.contributions.Revoke(r.Context(), chi.URLParam(r, "token")); err != nil {
		respondWithServiceError(w, "Failed to revoke contribution link", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
