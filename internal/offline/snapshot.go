package offline

import (
	"fmt"
	"slices"
	"time"

	"github.com/goccy/go-json"
)

const snapshotVersion = 1

type snapshot struct {
	Version  int       `json:"version"`
	PlayerID int64     `json:"player_id"`
	SavedAt  time.Time `json:"saved_at"`
	Entries  []Entry   `json:"entries"`
	Played   []int64   `json:"played"`
}

// Snapshot serializes the pool and the played set so the next app launch
// can start from them.
func (c *Cache) Snapshot() ([]byte, error) {
	c.mu.Lock()
	snap := snapshot{
		Version:  snapshotVersion,
		PlayerID: c.playerID,
		SavedAt:  time.Now().UTC(),
		Entries:  slices.Clone(c.pool),
		Played:   make([]int64, 0, len(c.played)),
	}
	for id := range c.played {
		snap.Played = append(snap.Played, id)
	}
	c.mu.Unlock()

	slices.Sort(snap.Played)
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode phrase cache: %w", err)
	}
	return data, nil
}

// Restore loads a snapshot written by Snapshot into the cache. Entries
// already played in this session stay out of the pool. Once the server is
// reachable the restored pool is checked against plays made elsewhere.
func (c *Cache) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode phrase cache: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported phrase cache version %d", snap.Version)
	}
	if snap.PlayerID != c.playerID {
		return fmt.Errorf("phrase cache belongs to player %d, not %d", snap.PlayerID, c.playerID)
	}

	if c.load(snap) {
		c.resyncInBackground()
	}
	return nil
}

func (c *Cache) load(snap snapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	for _, id := range snap.Played {
		c.played[id] = true
	}

	pooled := make(map[int64]bool, len(c.pool))
	for _, e := range c.pool {
		pooled[e.Phrase.ID] = true
	}
	for _, e := range snap.Entries {
		if c.played[e.Phrase.ID] || pooled[e.Phrase.ID] {
			continue
		}
		pooled[e.Phrase.ID] = true
		c.pool = append(c.pool, e)
	}
	return true
}
