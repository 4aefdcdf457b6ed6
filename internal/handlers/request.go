package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"anagramgame/internal/models"
	"anagramgame/internal/utils"
)

// decodeJSON reads a bounded JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return utils.ValidationError{Field: "body", Message: ErrInvalidJSON}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, utils.ValidationError{Field: name, Message: ErrInvalidID}
	}
	return id, nil
}

// difficultyRange reads the optional min and max query parameters. A
// missing bound defaults to the edge of the score scale.
func difficultyRange(r *http.Request) (*models.DifficultyRange, error) {
	q := r.URL.Query()
	minRaw, maxRaw := q.Get("min"), q.Get("max")
	if minRaw == "" && maxRaw == "" {
		return nil, nil
	}

	rng := &models.DifficultyRange{Min: 1, Max: 100}
	for _, b := range []struct {
		raw string
		dst *int
	}{{minRaw, &rng.Min}, {maxRaw, &rng.Max}} {
		if b.raw == "" {
			continue
		}
		n, err := strconv.Atoi(b.raw)
		if err != nil {
			return nil, utils.ValidationError{Field: "range", Message: fmt.Sprintf("%q is not a number", b.raw)}
		}
		*b.dst = n
	}
	if rng.Min < 1 || rng.Max > 100 || rng.Min > rng.Max {
		return nil, utils.ValidationError{Field: "range", Message: "range must satisfy 1 <= min <= max <= 100"}
	}
	return rng, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, utils.ValidationError{Field: name, Message: fmt.Sprintf("%q is not a number", raw)}
	}
	return n, nil
}
