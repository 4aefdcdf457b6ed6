// Package client talks to the phrase server on behalf of the offline cache.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"anagramgame/internal/models"
	"anagramgame/internal/scoring"
)

// PhraseClient calls the phrase HTTP API
type PhraseClient struct {
	baseURL string
	http    *http.Client
}

// NewPhraseClient creates a client for the server at baseURL. A nil
// httpClient gets one with a 10 second timeout.
func NewPhraseClient(baseURL string, httpClient *http.Client) *PhraseClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &PhraseClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// FetchPhrases requests up to limit phrases for a cache refill
func (c *PhraseClient) FetchPhrases(ctx context.Context, playerID int64, rng *models.DifficultyRange, limit int) ([]models.Delivery, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if rng != nil {
		q.Set("min", strconv.Itoa(rng.Min))
		q.Set("max", strconv.Itoa(rng.Max))
	}

	var batch models.PhraseBatch
	path := fmt.Sprintf("/api/players/%d/phrases?%s", playerID, q.Encode())
	if err := c.do(ctx, http.MethodGet, path, nil, &batch); err != nil {
		return nil, err
	}
	return batch.Phrases, nil
}

// statusChunk matches the most ids the status endpoint accepts per request
const statusChunk = 200

// ResolvedPhrases asks which of ids the server has recorded as completed or
// skipped. It satisfies offline.Resolver.
func (c *PhraseClient) ResolvedPhrases(ctx context.Context, playerID int64, ids []int64) ([]int64, error) {
	var resolved []int64
	path := fmt.Sprintf("/api/players/%d/phrases/status", playerID)
	for chunk := range slices.Chunk(ids, statusChunk) {
		var resp models.PhraseStatusResponse
		if err := c.do(ctx, http.MethodPost, path, models.PhraseStatusRequest{PhraseIDs: chunk}, &resp); err != nil {
			return nil, err
		}
		resolved = append(resolved, resp.Resolved...)
	}
	return resolved, nil
}

// ArtifactInfo returns the difficulty tables the server scores with
func (c *PhraseClient) ArtifactInfo(ctx context.Context) (scoring.ArtifactInfo, error) {
	var info scoring.ArtifactInfo
	err := c.do(ctx, http.MethodGet, "/api/difficulty", nil, &info)
	return info, err
}

// CheckArtifact compares local with the server's tables and logs a warning
// when they differ. Locally computed scores are wrong until the client is
// updated, but play can continue.
func (c *PhraseClient) CheckArtifact(ctx context.Context, local scoring.ArtifactInfo) (bool, error) {
	remote, err := c.ArtifactInfo(ctx)
	if err != nil {
		return false, err
	}
	if remote.Hash != local.Hash {
		log.Warn().
			Str("local_version", local.Version).
			Str("server_version", remote.Version).
			Msg("difficulty tables differ from the server")
		return false, nil
	}
	return true, nil
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

func (c *PhraseClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&apiErr)
		return &StatusError{Code: resp.StatusCode, Message: apiErr.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
