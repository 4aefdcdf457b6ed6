package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"anagramgame/internal/database"
	"anagramgame/internal/hints"
	"anagramgame/internal/models"
)

// PhraseStore owns phrases, assignments, completions, skips and hint usage.
//
// Every mutation runs in one transaction. Eligibility reads run outside a
// transaction; MarkDelivered re-checks the exclusion sets before writing.
// Global phrases are never reserved on read, so two concurrent requests can
// both be offered the same global phrase. Only a completion or skip makes
// the exclusion durable (at-least-once delivery for the shared pool).
type PhraseStore struct {
	db *database.DB
}

// NewPhraseStore creates a new phrase store
func NewPhraseStore(db *database.DB) *PhraseStore {
	return &PhraseStore{db: db}
}

// PhraseFilter narrows ListPhrases
type PhraseFilter struct {
	GlobalOnly   bool
	ApprovedOnly *bool
	Language     models.Language
}

const phraseColumns = `p.id, p.content, p.hint, p.difficulty_level, p.language, p.is_global, p.is_approved,
	p.created_by, p.contribution_link_id, p.usage_count, p.created_at`

// exclusionClause keeps phrases the player already completed or skipped out
// of a query over phrases aliased as p. It takes the player id twice.
const exclusionClause = `
	NOT EXISTS (SELECT 1 FROM completions c WHERE c.player_id = ? AND c.phrase_id = p.id)
	AND NOT EXISTS (SELECT 1 FROM skips s WHERE s.player_id = ? AND s.phrase_id = p.id)`

func now() time.Time {
	return time.Now().UTC()
}

func scanPhrase(row interface{ Scan(...any) error }) (*models.Phrase, error) {
	var (
		p         models.Phrase
		lang      string
		createdBy sql.NullInt64
		linkID    sql.NullString
	)
	err := row.Scan(&p.ID, &p.Content, &p.Hint, &p.DifficultyLevel, &lang, &p.IsGlobal, &p.IsApproved,
		&createdBy, &linkID, &p.UsageCount, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Language = models.Language(lang)
	if createdBy.Valid {
		p.CreatedBy = &createdBy.Int64
	}
	if linkID.Valid {
		p.ContributionLinkID = &linkID.String
	}
	return &p, nil
}

// CreatePhrase inserts p and, when assignment is not nil, a targeted
// assignment of the new phrase in the same transaction. IDs are written
// back into p and assignment.
func (s *PhraseStore) CreatePhrase(ctx context.Context, p *models.Phrase, assignment *models.PhraseAssignment) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		if p.CreatedBy != nil {
			if err := playerExists(ctx, tx, *p.CreatedBy); err != nil {
				return err
			}
		}
		if err := insertPhrase(ctx, tx, p); err != nil {
			return err
		}
		if assignment == nil {
			return nil
		}
		if err := playerExists(ctx, tx, assignment.TargetPlayerID); err != nil {
			return err
		}
		assignment.PhraseID = p.ID
		return insertAssignment(ctx, tx, assignment)
	})
}

func insertPhrase(ctx context.Context, q database.DBTX, p *models.Phrase) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}
	query := `
		INSERT INTO phrases (content, hint, difficulty_level, language, is_global, is_approved,
			created_by, contribution_link_id, usage_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := q.ExecReturningID(ctx, query, p.Content, p.Hint, p.DifficultyLevel, string(p.Language),
		p.IsGlobal, p.IsApproved, p.CreatedBy, p.ContributionLinkID, p.UsageCount, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create phrase: %w", err)
	}
	p.ID = id
	return nil
}

// ImportPhrases inserts phrases in one transaction, skipping any whose
// content and language already exist. It returns how many were added.
func (s *PhraseStore) ImportPhrases(ctx context.Context, phrases []models.Phrase) (int, error) {
	added := 0
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		for i := range phrases {
			var count int
			err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM phrases WHERE content = ? AND language = ?",
				phrases[i].Content, string(phrases[i].Language)).Scan(&count)
			if err != nil {
				return fmt.Errorf("failed to check phrase: %w", err)
			}
			if count > 0 {
				continue
			}
			if err := insertPhrase(ctx, tx, &phrases[i]); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	return added, err
}

// GetPhrase retrieves a phrase by ID
func (s *PhraseStore) GetPhrase(ctx context.Context, id int64) (*models.Phrase, error) {
	return getPhrase(ctx, s.db, id)
}

func getPhrase(ctx context.Context, q database.DBTX, id int64) (*models.Phrase, error) {
	row := q.QueryRowContext(ctx, "SELECT "+phraseColumns+" FROM phrases p WHERE p.id = ?", id)
	p, err := scanPhrase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUnknownPhrase
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get phrase: %w", err)
	}
	return p, nil
}

// ListPhrases returns phrases matching filter ordered by id
func (s *PhraseStore) ListPhrases(ctx context.Context, filter PhraseFilter) ([]models.Phrase, error) {
	var (
		conds []string
		args  []any
	)
	if filter.GlobalOnly {
		conds = append(conds, "p.is_global = ?")
		args = append(args, true)
	}
	if filter.ApprovedOnly != nil {
		conds = append(conds, "p.is_approved = ?")
		args = append(args, *filter.ApprovedOnly)
	}
	if filter.Language != "" {
		conds = append(conds, "p.language = ?")
		args = append(args, string(filter.Language))
	}

	query := "SELECT " + phraseColumns + " FROM phrases p"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY p.id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query phrases: %w", err)
	}
	defer rows.Close()

	var phrases []models.Phrase
	for rows.Next() {
		p, err := scanPhrase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan phrase: %w", err)
		}
		phrases = append(phrases, *p)
	}
	return phrases, rows.Err()
}

// SetApproved changes the approval flag of a phrase
func (s *PhraseStore) SetApproved(ctx context.Context, id int64, approved bool) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := phraseExists(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE phrases SET is_approved = ? WHERE id = ?", approved, id); err != nil {
			return fmt.Errorf("failed to update phrase: %w", err)
		}
		return nil
	})
}

// Assign earmarks a phrase for a player
func (s *PhraseStore) Assign(ctx context.Context, phraseID, targetPlayerID int64, priority int) (*models.PhraseAssignment, error) {
	a := &models.PhraseAssignment{PhraseID: phraseID, TargetPlayerID: targetPlayerID, Priority: priority}
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := phraseExists(ctx, tx, phraseID); err != nil {
			return err
		}
		if err := playerExists(ctx, tx, targetPlayerID); err != nil {
			return err
		}
		return insertAssignment(ctx, tx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func insertAssignment(ctx context.Context, q database.DBTX, a *models.PhraseAssignment) error {
	a.AssignedAt = now()
	a.IsDelivered = false
	a.DeliveredAt = nil
	query := `
		INSERT INTO phrase_assignments (phrase_id, target_player_id, priority, assigned_at, is_delivered)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := q.ExecReturningID(ctx, query, a.PhraseID, a.TargetPlayerID, a.Priority, a.AssignedAt, false)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	a.ID = id
	return nil
}

// ListAssignments returns every assignment targeted at a player, oldest first
func (s *PhraseStore) ListAssignments(ctx context.Context, playerID int64) ([]models.PhraseAssignment, error) {
	query := `
		SELECT id, phrase_id, target_player_id, priority, assigned_at, is_delivered, delivered_at
		FROM phrase_assignments
		WHERE target_player_id = ?
		ORDER BY priority ASC, assigned_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []models.PhraseAssignment
	for rows.Next() {
		var (
			a           models.PhraseAssignment
			deliveredAt sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.PhraseID, &a.TargetPlayerID, &a.Priority, &a.AssignedAt, &a.IsDelivered, &deliveredAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		if deliveredAt.Valid {
			a.DeliveredAt = &deliveredAt.Time
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// NextEligible picks the next phrase for a player: the oldest highest
// priority undelivered targeted assignment, else a uniformly random global
// phrase inside rng. Targeted phrases are not filtered by rng. It returns
// models.ErrNotFound when nothing qualifies.
func (s *PhraseStore) NextEligible(ctx context.Context, playerID int64, rng *models.DifficultyRange) (*models.Selection, error) {
	targeted, err := s.targetedCandidates(ctx, playerID, 1)
	if err != nil {
		return nil, err
	}
	if len(targeted) > 0 {
		return &models.Selection{PhraseID: targeted[0], Type: models.DeliveryTargeted}, nil
	}

	global, err := s.randomGlobal(ctx, playerID, rng, 1, nil)
	if err != nil {
		return nil, err
	}
	if len(global) == 0 {
		return nil, models.ErrNotFound
	}
	return &models.Selection{PhraseID: global[0], Type: models.DeliveryGlobal}, nil
}

// NextEligibleBatch returns up to limit distinct selections, targeted ones
// first in delivery order followed by random global picks.
func (s *PhraseStore) NextEligibleBatch(ctx context.Context, playerID int64, rng *models.DifficultyRange, limit int) ([]models.Selection, error) {
	if limit <= 0 {
		return nil, nil
	}

	targeted, err := s.targetedCandidates(ctx, playerID, limit)
	if err != nil {
		return nil, err
	}

	selections := make([]models.Selection, 0, limit)
	taken := make(map[int64]bool, limit)
	for _, id := range targeted {
		selections = append(selections, models.Selection{PhraseID: id, Type: models.DeliveryTargeted})
		taken[id] = true
	}

	if remaining := limit - len(selections); remaining > 0 {
		global, err := s.randomGlobal(ctx, playerID, rng, remaining, taken)
		if err != nil {
			return nil, err
		}
		for _, id := range global {
			selections = append(selections, models.Selection{PhraseID: id, Type: models.DeliveryGlobal})
		}
	}
	return selections, nil
}

func (s *PhraseStore) targetedCandidates(ctx context.Context, playerID int64, limit int) ([]int64, error) {
	query := `
		SELECT a.phrase_id
		FROM phrase_assignments a
		JOIN phrases p ON p.id = a.phrase_id
		WHERE a.target_player_id = ? AND a.is_delivered = ? AND` + exclusionClause + `
		ORDER BY a.priority ASC, a.assigned_at ASC, a.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, playerID, false, playerID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query targeted phrases: %w", err)
	}
	defer rows.Close()

	var ids []int64
	seen := make(map[int64]bool)
	for rows.Next() && len(ids) < limit {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan targeted phrase: %w", err)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

// globalPoolWhere filters approved global phrases the player may receive
func globalPoolWhere(playerID int64, rng *models.DifficultyRange) (string, []any) {
	where := `p.is_global = ? AND p.is_approved = ?
		AND (p.created_by IS NULL OR p.created_by <> ?)
		AND` + exclusionClause
	args := []any{true, true, playerID, playerID, playerID}
	if rng != nil {
		where += " AND p.difficulty_level BETWEEN ? AND ?"
		args = append(args, rng.Min, rng.Max)
	}
	return where, args
}

// randomGlobal draws up to n distinct phrase ids uniformly from the global
// pool, skipping ids in exclude. Offsets come from math/rand/v2, which is
// seeded by the runtime and never by player input.
func (s *PhraseStore) randomGlobal(ctx context.Context, playerID int64, rng *models.DifficultyRange, n int, exclude map[int64]bool) ([]int64, error) {
	where, args := globalPoolWhere(playerID, rng)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM phrases p WHERE "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count global phrases: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	offsets := sampleOffsets(total, n+len(exclude))

	query := "SELECT p.id FROM phrases p WHERE " + where + " ORDER BY p.id ASC LIMIT 1 OFFSET ?"
	var ids []int64
	for _, offset := range offsets {
		if len(ids) == n {
			break
		}
		var id int64
		err := s.db.QueryRowContext(ctx, query, append(args, offset)...).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			// pool shrank between the count and this read
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to select global phrase: %w", err)
		}
		if exclude[id] {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// MarkDelivered records that phraseID was handed to playerID. Inside the
// write transaction it re-checks that the player has not completed or
// skipped the phrase meanwhile and reports false if they have. Matching
// undelivered assignments are flipped to delivered.
func (s *PhraseStore) MarkDelivered(ctx context.Context, playerID, phraseID int64) (bool, error) {
	eligible := false
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		excluded, err := isExcluded(ctx, tx, playerID, phraseID)
		if err != nil {
			return err
		}
		if excluded {
			return nil
		}
		eligible = true
		return flipAssignment(ctx, tx, playerID, phraseID, now())
	})
	return eligible, err
}

// Eligible reports whether the player has neither completed nor skipped
// phraseID. Unlike MarkDelivered it leaves assignments pending; batch
// hand-outs use it so a targeted phrase stays undelivered until the player
// completes or skips it.
func (s *PhraseStore) Eligible(ctx context.Context, playerID, phraseID int64) (bool, error) {
	excluded, err := isExcluded(ctx, s.db, playerID, phraseID)
	if err != nil {
		return false, err
	}
	return !excluded, nil
}

// sampleOffsets returns k distinct offsets in [0, total) in random order
func sampleOffsets(total, k int) []int {
	if k >= total {
		return rand.Perm(total)
	}
	picked := make(map[int]bool, k)
	offsets := make([]int, 0, k)
	for len(offsets) < k {
		o := rand.IntN(total)
		if !picked[o] {
			picked[o] = true
			offsets = append(offsets, o)
		}
	}
	return offsets
}

func flipAssignment(ctx context.Context, q database.DBTX, playerID, phraseID int64, ts time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE phrase_assignments SET is_delivered = ?, delivered_at = ?
		WHERE target_player_id = ? AND phrase_id = ? AND is_delivered = ?
	`, true, ts, playerID, phraseID, false)
	if err != nil {
		return fmt.Errorf("failed to mark assignment delivered: %w", err)
	}
	return nil
}

func isExcluded(ctx context.Context, q database.DBTX, playerID, phraseID int64) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM completions WHERE player_id = ? AND phrase_id = ?) +
			(SELECT COUNT(*) FROM skips WHERE player_id = ? AND phrase_id = ?)
	`, playerID, phraseID, playerID, phraseID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check exclusions: %w", err)
	}
	return count > 0, nil
}

// Complete records a completion once per (player, phrase). The hint level
// applied is the higher of the recorded level and the client's clamped
// count, both read in the same transaction as the insert, and its
// multiplier is applied to the phrase's stored difficulty. The first call
// also bumps the phrase usage counter and the player's totals and flips
// matching assignments to delivered. Later calls change nothing and return
// the stored record with created=false. A skipped pair cannot be completed
// and fails with models.ErrAlreadySkipped.
func (s *PhraseStore) Complete(ctx context.Context, attempt models.CompletionAttempt) (models.CompletionRecord, bool, error) {
	var (
		stored  models.CompletionRecord
		created bool
	)
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		base, err := phraseDifficulty(ctx, tx, attempt.PhraseID)
		if err != nil {
			return err
		}
		if err := playerExists(ctx, tx, attempt.PlayerID); err != nil {
			return err
		}

		stored, err = getCompletion(ctx, tx, attempt.PlayerID, attempt.PhraseID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}
		skipped, err := isSkipped(ctx, tx, attempt.PlayerID, attempt.PhraseID)
		if err != nil {
			return err
		}
		if skipped {
			return models.ErrAlreadySkipped
		}

		recorded, err := hintLevel(ctx, tx, attempt.PlayerID, attempt.PhraseID)
		if err != nil {
			return err
		}
		level := max(recorded, hints.ClampLevel(attempt.HintsUsed))
		score := hints.ScoreAt(base, level)

		ts := now()
		insert := tx.GetDialect().InsertIgnore("completions",
			"player_id", "phrase_id", "score", "completion_time_ms", "hints_used", "completed_at")
		result, err := tx.ExecContext(ctx, insert, attempt.PlayerID, attempt.PhraseID, score,
			max(attempt.CompletionTimeMs, 0), level, ts)
		if err != nil {
			return fmt.Errorf("failed to record completion: %w", err)
		}
		n, err := database.RowsAffected(result)
		if err != nil {
			return err
		}
		created = n == 1

		if created {
			if _, err := tx.ExecContext(ctx, "UPDATE phrases SET usage_count = usage_count + 1 WHERE id = ?", attempt.PhraseID); err != nil {
				return fmt.Errorf("failed to update usage count: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE players SET phrases_completed = phrases_completed + 1, total_score = total_score + ?
				WHERE id = ?
			`, score, attempt.PlayerID); err != nil {
				return fmt.Errorf("failed to update player totals: %w", err)
			}
			if err := flipAssignment(ctx, tx, attempt.PlayerID, attempt.PhraseID, ts); err != nil {
				return err
			}
		}

		stored, err = getCompletion(ctx, tx, attempt.PlayerID, attempt.PhraseID)
		return err
	})
	if err != nil {
		return models.CompletionRecord{}, false, err
	}
	return stored, created, nil
}

// GetCompletion returns the completion for a pair or models.ErrNotFound
func (s *PhraseStore) GetCompletion(ctx context.Context, playerID, phraseID int64) (models.CompletionRecord, error) {
	return getCompletion(ctx, s.db, playerID, phraseID)
}

func getCompletion(ctx context.Context, q database.DBTX, playerID, phraseID int64) (models.CompletionRecord, error) {
	rec := models.CompletionRecord{PlayerID: playerID, PhraseID: phraseID}
	err := q.QueryRowContext(ctx, `
		SELECT score, completion_time_ms, hints_used, completed_at
		FROM completions WHERE player_id = ? AND phrase_id = ?
	`, playerID, phraseID).Scan(&rec.Score, &rec.CompletionTimeMs, &rec.HintsUsed, &rec.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, models.ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("failed to get completion: %w", err)
	}
	return rec, nil
}

// Skip records that the player gave up on a phrase. AlreadySkipped is set
// when the skip was recorded before; a completed pair is left untouched and
// reported with AlreadyCompleted.
func (s *PhraseStore) Skip(ctx context.Context, playerID, phraseID int64) (models.Ack, error) {
	var ack models.Ack
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := phraseExists(ctx, tx, phraseID); err != nil {
			return err
		}
		if err := playerExists(ctx, tx, playerID); err != nil {
			return err
		}

		_, err := getCompletion(ctx, tx, playerID, phraseID)
		if err == nil {
			ack.AlreadyCompleted = true
			return nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}

		ts := now()
		insert := tx.GetDialect().InsertIgnore("skips", "player_id", "phrase_id", "skipped_at")
		result, err := tx.ExecContext(ctx, insert, playerID, phraseID, ts)
		if err != nil {
			return fmt.Errorf("failed to record skip: %w", err)
		}
		n, err := database.RowsAffected(result)
		if err != nil {
			return err
		}
		ack.AlreadySkipped = n == 0
		if ack.AlreadySkipped {
			return nil
		}
		return flipAssignment(ctx, tx, playerID, phraseID, ts)
	})
	return ack, err
}

// UseHint advances the hint level of a pair. A level the pair already
// reached is a replay and returns recorded=false. Only current+1 may be
// recorded; anything else fails with models.ErrOutOfOrderHint. When two
// requests race for the same level, the unique constraint lets exactly one
// insert through and the other reports recorded=false.
func (s *PhraseStore) UseHint(ctx context.Context, playerID, phraseID int64, level int) (bool, error) {
	if level < 1 || level > hints.MaxLevel {
		return false, models.ErrOutOfOrderHint
	}
	recorded := false
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := phraseExists(ctx, tx, phraseID); err != nil {
			return err
		}
		if err := playerExists(ctx, tx, playerID); err != nil {
			return err
		}

		current, err := hintLevel(ctx, tx, playerID, phraseID)
		if err != nil {
			return err
		}
		if level <= current {
			return nil
		}
		if level != current+1 {
			return models.ErrOutOfOrderHint
		}

		insert := tx.GetDialect().InsertIgnore("hint_usages", "player_id", "phrase_id", "hint_level", "used_at")
		result, err := tx.ExecContext(ctx, insert, playerID, phraseID, level, now())
		if err != nil {
			return fmt.Errorf("failed to record hint: %w", err)
		}
		n, err := database.RowsAffected(result)
		recorded = n == 1
		return err
	})
	return recorded, err
}

// hintLevel returns the highest hint level reached for a pair, 0 if none
func hintLevel(ctx context.Context, q database.DBTX, playerID, phraseID int64) (int, error) {
	var level int
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(hint_level), 0) FROM hint_usages WHERE player_id = ? AND phrase_id = ?
	`, playerID, phraseID).Scan(&level)
	if err != nil {
		return 0, fmt.Errorf("failed to read hint level: %w", err)
	}
	return level, nil
}

// CompletedOrSkipped returns the subset of ids the player has completed or skipped
func (s *PhraseStore) CompletedOrSkipped(ctx context.Context, playerID int64, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := `
		SELECT phrase_id FROM completions WHERE player_id = ? AND phrase_id IN (` + in + `)
		UNION
		SELECT phrase_id FROM skips WHERE player_id = ? AND phrase_id IN (` + in + `)
		ORDER BY phrase_id
	`
	args := make([]any, 0, 2*len(ids)+2)
	args = append(args, playerID)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, playerID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query played phrases: %w", err)
	}
	defer rows.Close()

	var played []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan played phrase: %w", err)
		}
		played = append(played, id)
	}
	return played, rows.Err()
}

func phraseDifficulty(ctx context.Context, q database.DBTX, id int64) (int, error) {
	var level int
	err := q.QueryRowContext(ctx, "SELECT difficulty_level FROM phrases WHERE id = ?", id).Scan(&level)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrUnknownPhrase
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read phrase difficulty: %w", err)
	}
	return level, nil
}

func isSkipped(ctx context.Context, q database.DBTX, playerID, phraseID int64) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM skips WHERE player_id = ? AND phrase_id = ?", playerID, phraseID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check skip: %w", err)
	}
	return count > 0, nil
}

func phraseExists(ctx context.Context, q database.DBTX, id int64) error {
	var count int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM phrases WHERE id = ?", id).Scan(&count); err != nil {
		return fmt.Errorf("failed to check phrase: %w", err)
	}
	if count == 0 {
		return models.ErrUnknownPhrase
	}
	return nil
}

func playerExists(ctx context.Context, q database.DBTX, id int64) error {
	var count int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM players WHERE id = ?", id).Scan(&count); err != nil {
		return fmt.Errorf("failed to check player: %w", err)
	}
	if count == 0 {
		return models.ErrUnknownPlayer
	}
	return nil
}
