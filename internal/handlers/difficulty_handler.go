package handlers

import (
	"net/http"

	"anagramgame/internal/scoring"
	"anagramgame/internal/service"
)

// DifficultyHandler publishes the scoring tables and scores text on request
type DifficultyHandler struct {
	scorer  *scoring.Scorer
	phrases *service.PhraseService
}

// NewDifficultyHandler creates a new difficulty handler
func NewDifficultyHandler(scorer *scoring.Scorer, phrases *service.PhraseService) *DifficultyHandler {
	return &DifficultyHandler{scorer: scorer, phrases: phrases}
}

// Artifact handles GET /api/difficulty
func (h *DifficultyHandler) Artifact(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.scorer.Artifact().Info())
}

type scoreRequest struct {
	Content  string `json:"content"`
	Language string `json:"language"`
}

// Score handles POST /api/difficulty/score
func (h *DifficultyHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, "", err)
		return
	}
	breakdown, err := h.phrases.Score(req.Content, req.Language)
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}
	respondWithJSON(w, http.StatusOK, breakdown)
}
