// Package offline keeps a local pool of unplayed phrases so a game session
// can keep going without the server. The pool is refilled in the background
// whenever it runs low and the device is online.
package offline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"anagramgame/internal/models"
)

// Source tells the caller where a phrase came from
type Source string

const (
	SourceCached      Source = "cached"
	SourceNetwork     Source = "network"
	SourceUnavailable Source = "unavailable"
)

// Fetcher asks the server for phrases. An error and an empty batch both
// mean nothing is available right now.
type Fetcher interface {
	FetchPhrases(ctx context.Context, playerID int64, rng *models.DifficultyRange, limit int) ([]models.Delivery, error)
}

// Resolver reports which of ids the server has recorded as completed or
// skipped, so plays made on another device leave the local pool.
type Resolver interface {
	ResolvedPhrases(ctx context.Context, playerID int64, ids []int64) ([]int64, error)
}

// Reachability reports whether the server can be reached
type Reachability interface {
	IsOnline(ctx context.Context) bool
}

// Options tune refill behaviour. Zero values take the defaults.
type Options struct {
	LowWaterMark int
	RefillBatch  int
	FetchTimeout time.Duration
}

const (
	DefaultLowWaterMark = 10
	DefaultRefillBatch  = 30
	DefaultFetchTimeout = 5 * time.Second
)

func (o Options) withDefaults() Options {
	if o.LowWaterMark <= 0 {
		o.LowWaterMark = DefaultLowWaterMark
	}
	if o.RefillBatch <= 0 {
		o.RefillBatch = DefaultRefillBatch
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	return o
}

// Entry is one unplayed phrase held locally
type Entry struct {
	Phrase models.Phrase       `json:"phrase"`
	Type   models.DeliveryType `json:"type"`
}

// Delivery is the answer to GetNextPhrase. Phrase is nil when Source is
// SourceUnavailable.
type Delivery struct {
	Phrase *models.Phrase      `json:"phrase,omitempty"`
	Type   models.DeliveryType `json:"type,omitempty"`
	Source Source              `json:"source"`
}

// Cache is the local phrase pool of one player. All methods are safe for
// concurrent use; pool mutations are serialized by an internal mutex.
type Cache struct {
	playerID int64
	fetcher  Fetcher
	resolver Resolver
	reach    Reachability
	opts     Options

	group  singleflight.Group
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	pool   []Entry
	played map[int64]bool
	closed bool
}

// New creates an empty cache for playerID. When fetcher also implements
// Resolver, background refills and Restore prune pooled phrases the server
// already has as completed or skipped.
func New(playerID int64, fetcher Fetcher, reach Reachability, opts Options) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	resolver, _ := fetcher.(Resolver)
	return &Cache{
		playerID: playerID,
		fetcher:  fetcher,
		resolver: resolver,
		reach:    reach,
		opts:     opts.withDefaults(),
		ctx:      ctx,
		cancel:   cancel,
		played:   make(map[int64]bool),
	}
}

// GetNextPhrase returns a pooled phrase matching rng, or fetches from the
// server when the pool has none and the device is online. Any phrase it
// returns is marked played before the call returns. Transport failures are
// never returned; they end in SourceUnavailable.
func (c *Cache) GetNextPhrase(ctx context.Context, rng *models.DifficultyRange) Delivery {
	if d, ok := c.pop(rng); ok {
		c.MaybeRefill()
		return d.withSource(SourceCached)
	}

	if c.isClosed() || !c.reach.IsOnline(ctx) {
		return Delivery{Source: SourceUnavailable}
	}

	if _, err := c.fetch(ctx, rng, c.opts.RefillBatch); err != nil {
		log.Debug().Err(err).Int64("player_id", c.playerID).Msg("phrase fetch failed, treating as offline")
	}
	if d, ok := c.pop(rng); ok {
		c.MaybeRefill()
		return d.withSource(SourceNetwork)
	}
	return Delivery{Source: SourceUnavailable}
}

// MaybeRefill starts a background refill when the pool is below the low
// water mark. It never blocks, and at most one refill runs at a time. The
// refill first drops pooled phrases the server reports as resolved.
func (c *Cache) MaybeRefill() {
	c.mu.Lock()
	if c.closed || len(c.pool) >= c.opts.LowWaterMark {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		if !c.reach.IsOnline(c.ctx) {
			return
		}
		if err := c.resync(c.ctx); err != nil {
			log.Debug().Err(err).Int64("player_id", c.playerID).Msg("pool reconcile failed")
		}
		added, err := c.fetch(c.ctx, nil, c.opts.RefillBatch)
		if err != nil {
			log.Debug().Err(err).Int64("player_id", c.playerID).Msg("background refill failed")
			return
		}
		if added > 0 {
			log.Debug().Int64("player_id", c.playerID).Int("added", added).Msg("phrase pool refilled")
		}
	}()
}

// fetch runs one request per range at a time; concurrent callers share its
// result. The batch is merged whole or not at all.
func (c *Cache) fetch(ctx context.Context, rng *models.DifficultyRange, limit int) (int, error) {
	ch := c.group.DoChan(rangeKey(rng), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(c.ctx, c.opts.FetchTimeout)
		defer cancel()

		batch, err := c.fetcher.FetchPhrases(fetchCtx, c.playerID, rng, limit)
		if err != nil {
			return 0, err
		}
		return c.merge(batch), nil
	})

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int), nil
	}
}

// resync asks the resolver about every pooled phrase and reconciles the
// answer. Concurrent callers share one request.
func (c *Cache) resync(ctx context.Context) error {
	if c.resolver == nil {
		return nil
	}
	ch := c.group.DoChan("resync", func() (any, error) {
		ids := c.PooledIDs()
		if len(ids) == 0 {
			return 0, nil
		}
		resolveCtx, cancel := context.WithTimeout(c.ctx, c.opts.FetchTimeout)
		defer cancel()

		resolved, err := c.resolver.ResolvedPhrases(resolveCtx, c.playerID, ids)
		if err != nil {
			return 0, err
		}
		dropped := c.Reconcile(resolved)
		if dropped > 0 {
			log.Debug().Int64("player_id", c.playerID).Int("dropped", dropped).Msg("dropped phrases resolved elsewhere")
		}
		return dropped, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

// resyncInBackground runs resync once the server is reachable
func (c *Cache) resyncInBackground() {
	if c.resolver == nil {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		if !c.reach.IsOnline(c.ctx) {
			return
		}
		if err := c.resync(c.ctx); err != nil {
			log.Debug().Err(err).Int64("player_id", c.playerID).Msg("pool reconcile failed")
		}
	}()
}

func rangeKey(rng *models.DifficultyRange) string {
	if rng == nil {
		return "all"
	}
	return fmt.Sprintf("%d-%d", rng.Min, rng.Max)
}

// merge adds a fetched batch under one lock. Played, pooled and repeated
// phrases are skipped, and nothing is added once the cache is closed.
func (c *Cache) merge(batch []models.Delivery) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0
	}

	pooled := make(map[int64]bool, len(c.pool))
	for _, e := range c.pool {
		pooled[e.Phrase.ID] = true
	}

	added := 0
	for _, d := range batch {
		id := d.Phrase.ID
		if c.played[id] || pooled[id] {
			continue
		}
		pooled[id] = true
		c.pool = append(c.pool, Entry{Phrase: d.Phrase, Type: d.Type})
		added++
	}
	return added
}

// pop removes the first entry matching rng and marks it played. Targeted
// phrases match every range.
func (c *Cache) pop(rng *models.DifficultyRange) (Delivery, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.pool {
		if e.Type != models.DeliveryTargeted && !rng.Contains(e.Phrase.DifficultyLevel) {
			continue
		}
		c.pool = append(c.pool[:i], c.pool[i+1:]...)
		c.played[e.Phrase.ID] = true
		phrase := e.Phrase
		return Delivery{Phrase: &phrase, Type: e.Type}, true
	}
	return Delivery{}, false
}

func (d Delivery) withSource(s Source) Delivery {
	d.Source = s
	return d
}

// MarkPlayed drops phraseID from the pool and keeps it from coming back
func (c *Cache) MarkPlayed(phraseID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markPlayed(phraseID)
}

func (c *Cache) markPlayed(phraseID int64) {
	c.played[phraseID] = true
	for i, e := range c.pool {
		if e.Phrase.ID == phraseID {
			c.pool = append(c.pool[:i], c.pool[i+1:]...)
			return
		}
	}
}

// Reconcile drops every phrase the server reports as completed or skipped
func (c *Cache) Reconcile(resolved []int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	before := len(c.pool)
	for _, id := range resolved {
		c.markPlayed(id)
	}
	return before - len(c.pool)
}

// PooledIDs returns the ids currently in the pool, in serving order
func (c *Cache) PooledIDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]int64, len(c.pool))
	for i, e := range c.pool {
		ids[i] = e.Phrase.ID
	}
	return ids
}

// Len returns the number of unplayed phrases in the pool
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pool)
}

// Close abandons pending refills. Batches arriving afterwards are discarded.
func (c *Cache) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

func (c *Cache) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
