package database

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// DefaultBlockedWordsURL is the public word list used when no override is configured
const DefaultBlockedWordsURL = "https://raw.githubusercontent.com/LDNOOBW/List-of-Dirty-Naughty-Obscene-and-Otherwise-Bad-Words/refs/heads/master/en"

const maxWordListBytes = 4 << 20

// SeedBlockedWords downloads the word list at url into blocked_words unless
// the table already has rows.
func (db *DB) SeedBlockedWords(ctx context.Context, url string) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM blocked_words").Scan(&count); err != nil {
		return fmt.Errorf("failed to check blocked words count: %w", err)
	}
	if count > 0 {
		log.Info().Int("count", count).Msg("blocked words filter already populated")
		return nil
	}

	log.Info().Str("url", url).Msg("downloading blocked words list")

	var body []byte
	download := func() error {
		b, err := fetchWordList(ctx, url)
		if err != nil {
			log.Warn().Err(err).Msg("blocked words download failed")
			return err
		}
		body = b
		return nil
	}
	if err := backoff.Retry(download, backoff.WithContext(seedBackOff(), ctx)); err != nil {
		return err
	}

	added, err := db.AddBlockedWords(ctx, bytes.NewReader(body))
	if err != nil {
		return err
	}
	log.Info().Int("count", added).Msg("blocked words filter populated")
	return nil
}

// seedBackOff is the retry policy for the word list download
var seedBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 10 * time.Second
	return backoff.WithMaxRetries(b, 4)
}

// fetchWordList downloads url. Client errors are permanent; network
// failures and server errors are retried.
func fetchWordList(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to build blocked words request: %w", err))
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download blocked words list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("bad status code from blocked words URL: %d", resp.StatusCode)
		if resp.StatusCode < http.StatusInternalServerError {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWordListBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read blocked words list: %w", err)
	}
	return body, nil
}

// AddBlockedWords inserts one word per line from r, ignoring duplicates
func (db *DB) AddBlockedWords(ctx context.Context, r io.Reader) (int, error) {
	added := 0
	err := db.WithTx(ctx, func(tx *Tx) error {
		stmt, err := tx.PrepareContext(ctx, db.Dialect.RewriteQuery(db.Dialect.InsertIgnore("blocked_words", "word")))
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			word := strings.TrimSpace(strings.ToLower(scanner.Text()))
			if word == "" {
				continue
			}
			result, err := stmt.ExecContext(ctx, word)
			if err != nil {
				return fmt.Errorf("failed to insert blocked word: %w", err)
			}
			if n, _ := result.RowsAffected(); n > 0 {
				added++
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("error reading blocked words: %w", err)
		}
		return nil
	})
	return added, err
}

// FindBlockedWords returns the words of text that are on the blocked list.
// Multi-word entries match when they appear as a contiguous run of words.
func (db *DB) FindBlockedWords(ctx context.Context, text string) ([]string, error) {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return nil, nil
	}

	candidates := make([]any, 0, len(words)*2)
	seen := make(map[string]bool)
	for i := range words {
		for j := i + 1; j <= len(words) && j <= i+3; j++ {
			c := strings.Join(words[i:j], " ")
			if !seen[c] {
				seen[c] = true
				candidates = append(candidates, c)
			}
		}
	}

	query := "SELECT word FROM blocked_words WHERE word IN (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(candidates)), ", ") + ") ORDER BY word"
	rows, err := db.QueryContext(ctx, query, candidates...)
	if err != nil {
		return nil, fmt.Errorf("failed to check blocked words: %w", err)
	}
	defer rows.Close()

	var found []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("failed to scan blocked word: %w", err)
		}
		found = append(found, w)
	}
	if len(found) > 0 {
		log.Warn().Strs("words", found).Msg("blocked words detected")
	}
	return found, rows.Err()
}
