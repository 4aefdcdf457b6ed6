package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"anagramgame/internal/metrics"
	"anagramgame/internal/models"
	"anagramgame/internal/service"
	"anagramgame/internal/utils"
)

const maxStatusIDs = 200

// PhraseHandler serves phrase submission, delivery and play events
type PhraseHandler struct {
	players     *service.PlayerService
	phrases     *service.PhraseService
	distributor *service.Distributor
	hints       *service.HintService
}

// NewPhraseHandler creates a new phrase handler
func NewPhraseHandler(players *service.PlayerService, phrases *service.PhraseService, distributor *service.Distributor, hints *service.HintService) *PhraseHandler {
	return &PhraseHandler{players: players, phrases: phrases, distributor: distributor, hints: hints}
}

type submitPhraseRequest struct {
	Content        string `json:"content"`
	Hint           string `json:"hint"`
	Language       string `json:"language"`
	IsGlobal       bool   `json:"isGlobal"`
	CreatedBy      *int64 `json:"createdBy"`
	TargetPlayerID *int64 `json:"targetPlayerId"`
	Priority       int    `json:"priority"`
}

type submitPhraseResponse struct {
	Phrase     *models.Phrase           `json:"phrase"`
	Assignment *models.PhraseAssignment `json:"assignment,omitempty"`
}

// Submit handles POST /api/phrases
func (h *PhraseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitPhraseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	phrase, assignment, err := h.phrases.Submit(r.Context(), service.Submission{
		Content:        req.Content,
		Hint:           req.Hint,
		Language:       req.Language,
		IsGlobal:       req.IsGlobal,
		CreatedBy:      req.CreatedBy,
		TargetPlayerID: req.TargetPlayerID,
		Priority:       req.Priority,
	})
	if err != nil {
		respondWithServiceError(w, "Failed to submit phrase", err)
		return
	}
	metrics.PhrasesSubmitted.WithLabelValues("api").Inc()
	respondWithJSON(w, http.StatusCreated, submitPhraseResponse{Phrase: phrase, Assignment: assignment})
}

type assignRequest struct {
	PlayerID int64 `json:"playerId"`
	Priority int   `json:"priority"`
}

// Assign handles POST /api/phrases/{phraseId}/assignments
func (h *PhraseHandler) Assign(w http.ResponseWriter, r *http.Request) {
	phraseID, err := pathID(r, "phraseId")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}
	var req assignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, "", err)
		return
	}
	if req.PlayerID <= 0 {
		respondWithServiceError(w, "", utils.ValidationError{Field: "playerId", Message: "playerId is required"})
		return
	}

	assignment, err := h.phrases.Assign(r.Context(), phraseID, req.PlayerID, req.Priority)
	if err != nil {
		respondWithServiceError(w, "Failed to assign phrase", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, assignment)
}

type nextPhraseResponse struct {
	Status string              `json:"status"`
	Phrase *models.Phrase      `json:"phrase,omitempty"`
	Type   models.DeliveryType `json:"type,omitempty"`
}

// Next handles GET /api/players/{playerId}/phrases/next. Running out of
// phrases is reported as data; so is a store failure, which is only logged.
func (h *PhraseHandler) Next(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.requirePlayer(w, r, nextPhraseResponse{Status: statusNotFound})
	if !ok {
		return
	}
	rng, err := difficultyRange(r)
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	delivery, err := h.distributor.Next(r.Context(), playerID, rng)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.Error().Err(err).Int64("player_id", playerID).Msg("failed to select next phrase")
		}
		metrics.PhrasesExhausted.Inc()
		respondWithJSON(w, http.StatusOK, nextPhraseResponse{Status: statusNotFound})
		return
	}
	metrics.PhrasesDelivered.WithLabelValues(string(delivery.Type)).Inc()
	respondWithJSON(w, http.StatusOK, nextPhraseResponse{Status: statusOK, Phrase: &delivery.Phrase, Type: delivery.Type})
}

// Batch handles GET /api/players/{playerId}/phrases, the cache refill
// endpoint. Failures degrade to an empty batch.
func (h *PhraseHandler) Batch(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.requirePlayer(w, r, models.PhraseBatch{Phrases: []models.Delivery{}})
	if !ok {
		return
	}
	rng, err := difficultyRange(r)
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}
	limit, err := queryInt(r, "limit", service.MaxBatch)
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	deliveries, err := h.distributor.NextBatch(r.Context(), playerID, rng, limit)
	if err != nil {
		log.Error().Err(err).Int64("player_id", playerID).Msg("failed to select phrase batch")
		deliveries = nil
	}
	if deliveries == nil {
		deliveries = []models.Delivery{}
	}
	for _, d := range deliveries {
		metrics.PhrasesDelivered.WithLabelValues(string(d.Type)).Inc()
	}
	respondWithJSON(w, http.StatusOK, models.PhraseBatch{Phrases: deliveries})
}

// Status handles POST /api/players/{playerId}/phrases/status
func (h *PhraseHandler) Status(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.requirePlayer(w, r, nil)
	if !ok {
		return
	}
	var req models.PhraseStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, "", err)
		return
	}
	if len(req.PhraseIDs) > maxStatusIDs {
		respondWithServiceError(w, "", utils.ValidationError{Field: "phraseIds", Message: "too many phrase ids"})
		return
	}

	resolved, err := h.distributor.Resolved(r.Context(), playerID, req.PhraseIDs)
	if err != nil {
		respondWithServiceError(w, "Failed to check phrase status", err)
		return
	}
	if resolved == nil {
		resolved = []int64{}
	}
	respondWithJSON(w, http.StatusOK, models.PhraseStatusResponse{Resolved: resolved})
}

type hintRequest struct {
	Level int `json:"level"`
}

// UseHint handles POST /api/players/{playerId}/phrases/{phraseId}/hints
func (h *PhraseHandler) UseHint(w http.ResponseWriter, r *http.Request) {
	playerID, phraseID, ok := pairIDs(w, r)
	if !ok {
		return
	}
	var req hintRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	result, err := h.hints.UseHint(r.Context(), playerID, phraseID, req.Level)
	if err != nil {
		respondWithServiceError(w, "Failed to use hint", err)
		return
	}
	if !result.AlreadyUsed {
		metrics.HintsUsed.WithLabelValues(metrics.HintLevel(result.Level)).Inc()
	}
	respondWithJSON(w, http.StatusOK, result)
}

type completeRequest struct {
	HintsUsed        int `json:"hintsUsed"`
	CompletionTimeMs int `json:"completionTimeMs"`
}

// Complete handles POST /api/players/{playerId}/phrases/{phraseId}/complete
func (h *PhraseHandler) Complete(w http.ResponseWriter, r *http.Request) {
	playerID, phraseID, ok := pairIDs(w, r)
	if !ok {
		return
	}
	var req completeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	score, err := h.hints.CompletePhrase(r.Context(), playerID, phraseID, req.HintsUsed, req.CompletionTimeMs)
	if err != nil {
		respondWithServiceError(w, "Failed to complete phrase", err)
		return
	}
	if !score.AlreadyCompleted {
		metrics.Completions.Inc()
	}
	respondWithJSON(w, http.StatusOK, score)
}

// Skip handles POST /api/players/{playerId}/phrases/{phraseId}/skip
func (h *PhraseHandler) Skip(w http.ResponseWriter, r *http.Request) {
	playerID, phraseID, ok := pairIDs(w, r)
	if !ok {
		return
	}
	ack, err := h.hints.SkipPhrase(r.Context(), playerID, phraseID)
	if err != nil {
		respondWithServiceError(w, "Failed to skip phrase", err)
		return
	}
	if !ack.AlreadySkipped && !ack.AlreadyCompleted {
		metrics.Skips.Inc()
	}
	respondWithJSON(w, http.StatusOK, ack)
}

// requirePlayer resolves the path player. An unknown player is a 404. Any
// other lookup failure is answered with fallback as a 200 when fallback is
// set, so delivery endpoints degrade the same way as a failed selection.
func (h *PhraseHandler) requirePlayer(w http.ResponseWriter, r *http.Request, fallback any) (int64, bool) {
	playerID, err := pathID(r, "playerId")
	if err != nil {
		respondWithServiceError(w, "", err)
		return 0, false
	}
	if _, err := h.players.GetPlayer(r.Context(), playerID); err != nil {
		if fallback == nil || errors.Is(err, models.ErrUnknownPlayer) {
			respondWithServiceError(w, "Failed to load player", err)
			return 0, false
		}
		log.Error().Err(err).Int64("player_id", playerID).Msg("failed to load player")
		respondWithJSON(w, http.StatusOK, fallback)
		return 0, false
	}
	return playerID, true
}

func pairIDs(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	playerID, err := pathID(r, "playerId")
	if err != nil {
		respondWithServiceError(w, "", err)
		return 0, 0, false
	}
	phraseID, err := pathID(r, "phraseId")
	if err != nil {
		respondWithServiceError(w, "", err)
		return 0, 0, false
	}
	return playerID, phraseID, true
}
