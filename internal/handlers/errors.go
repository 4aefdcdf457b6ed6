package handlers

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"anagramgame/internal/models"
	"anagramgame/internal/utils"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Error().Err(err).Int("status", status).Msg(logMsg)
	}
	respondWithJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps domain errors onto status codes. Anything
// unrecognised is logged and reported as a 500.
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	var verr utils.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, models.ErrOutOfOrderHint), errors.Is(err, models.ErrAlreadySkipped):
		respondWithJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrUnknownPhrase), errors.Is(err, models.ErrUnknownPlayer):
		respondWithJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrInvalidLink):
		respondWithJSON(w, http.StatusGone, errorResponse{Error: err.Error()})
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}
