package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"anagramgame/internal/repository"
)

// SettingsCache keeps the settings table in memory for ttl. Writes through
// Set invalidate it immediately; Invalidate forces a reload from elsewhere.
type SettingsCache struct {
	repo *repository.SettingsRepository
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	values   map[string]string
	loadedAt time.Time
}

// NewSettingsCache creates a settings cache
func NewSettingsCache(repo *repository.SettingsRepository, ttl time.Duration) *SettingsCache {
	return &SettingsCache{repo: repo, ttl: ttl, now: time.Now}
}

// Get returns the value for key, reloading the table when the cache is stale
func (c *SettingsCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.values == nil || c.now().Sub(c.loadedAt) >= c.ttl {
		values, err := c.repo.AllSettings(ctx)
		if err != nil {
			return "", err
		}
		c.values = values
		c.loadedAt = c.now()
	}

	value, ok := c.values[key]
	if !ok {
		return "", repository.ErrSettingNotFound
	}
	return value, nil
}

// Bool reads a boolean setting, falling back to def when it is missing or
// unreadable.
func (c *SettingsCache) Bool(ctx context.Context, key string, def bool) bool {
	value, err := c.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrSettingNotFound) {
			log.Error().Err(err).Str("key", key).Msg("failed to read setting")
		}
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return b
}

// Set writes a setting and drops the cached copy
func (c *SettingsCache) Set(ctx context.Context, key, value string) error {
	if err := c.repo.SetSetting(ctx, key, value); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// Invalidate forces the next read to hit the database
func (c *SettingsCache) Invalidate() {
	c.mu.Lock()
	c.values = nil
	c.mu.Unlock()
}
