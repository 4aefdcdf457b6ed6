package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"anagramgame/internal/models"
)

func TestNextEligiblePrefersTargeted(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	ctx := context.Background()

	player := mustPlayer(t, db, "receiver")
	mustPhrase(t, store, global)
	targeted := mustPhrase(t, store)

	if _, err := store.Assign(ctx, targeted.ID, player.ID, 1); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		sel, err := store.NextEligible(ctx, player.ID, nil)
		if err != nil {
			t.Fatalf("NextEligible() error = %v", err)
		}
		if sel.PhraseID != targeted.ID || sel.Type != models.DeliveryTargeted {
			t.Fatalf("NextEligible() = %+v, want targeted %d", sel, targeted.ID)
		}
	}
}

func TestNextEligibleTargetedOrder(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	ctx := context.Background()

	player := mustPlayer(t, db, "receiver")
	lowPriority := mustPhrase(t, store)
	firstHigh := mustPhrase(t, store)
	secondHigh := mustPhrase(t, store)

	for _, a := range []struct {
		id       int64
		priority int
	}{{lowPriority.ID, 5}, {firstHigh.ID, 1}, {secondHigh.ID, 1}} {
		if _, err := store.Assign(ctx, a.id, player.ID, a.priority); err != nil {
			t.Fatal(err)
		}
	}

	want := []int64{firstHigh.ID, secondHigh.ID, lowPriority.ID}
	for _, id := range want {
		sel, err := store.NextEligible(ctx, player.ID, nil)
		if err != nil {
			t.Fatalf("NextEligible() error = %v", err)
		}
		if sel.PhraseID != id {
			t.Fatalf("NextEligible() = %d, want %d", sel.PhraseID, id)
		}
		ok, err := store.MarkDelivered(ctx, player.ID, id)
		if err != nil || !ok {
			t.Fatalf("MarkDelivered() = %v, %v", ok, err)
		}
	}

	if _, err := store.NextEligible(ctx, player.ID, nil); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound once assignments are delivered, got %v", err)
	}
}

func TestNextEligibleGlobalFilters(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	ctx := context.Background()

	player := mustPlayer(t, db, "player")
	mustPhrase(t, store, global, authoredBy(player.ID))
	mustPhrase(t, store, pending)
	mustPhrase(t, store, global, difficulty(90))
	easy := mustPhrase(t, store, global, difficulty(10))

	rng := &models.DifficultyRange{Min: 1, Max: 20}
	for i := 0; i < 10; i++ {
		sel, err := store.NextEligible(ctx, player.ID, rng)
		if err != nil {
			t.Fatalf("NextEligible() error = %v", err)
		}
		if sel.PhraseID != easy.ID || sel.Type != models.DeliveryGlobal {
			t.Fatalf("NextEligible() = %+v, want global %d", sel, easy.ID)
		}
	}

	if _, err := store.NextEligible(ctx, player.ID, &models.DifficultyRange{Min: 95, Max: 100}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty range, got %v", err)
	}
}

func TestNextEligibleNeverRepeats(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	ctx := context.Background()

	player := mustPlayer(t, db, "player")
	ids := make(map[int64]bool)
	for i := 0; i < 6; i++ {
		ids[mustPhrase(t, store, global).ID] = true
	}

	played := make(map[int64]bool)
	for i := 0; i < 6; i++ {
		sel, err := store.NextEligible(ctx, player.ID, nil)
		if err != nil {
			t.Fatalf("round %d: NextEligible() error = %v", i, err)
		}
		if played[sel.PhraseID] {
			t.Fatalf("phrase %d returned again after being played", sel.PhraseID)
		}
		played[sel.PhraseID] = true
		if i%2 == 0 {
			_, _, err = store.Complete(ctx, models.CompletionAttempt{PlayerID: player.ID, PhraseID: sel.PhraseID})
		} else {
			_, err = store.Skip(ctx, player.ID, sel.PhraseID)
		}
		if err != nil {
			t.Fatal(err)
		}
	}

	if _, err := store.NextEligible(ctx, player.ID, nil); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected exhaustion, got %v", err)
	}
}

func TestNextEligibleBatch(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	ctx := context.Background()

	player := mustPlayer(t, db, "player")
	targeted := mustPhrase(t, store)
	if _, err := store.Assign(ctx, targeted.ID, player.ID, 0); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		mustPhrase(t, store, global)
	}

	batch, err := store.NextEligibleBatch(ctx, player.ID, nil, 4)
	if err != nil {
		t.Fatalf("NextEligibleBatch() error = %v", err)
	}
	if len(batch) != 4 {
		t.Fatalf("len(batch) = %d, want 4", len(batch))
	}
	if batch[0].PhraseID != targeted.ID || batch[0].Type != models.DeliveryTargeted {
		t.Errorf("batch[0] = %+v, want targeted first", batch[0])
	}
	seen := make(map[int64]bool)
	for _, sel := range batch {
		if seen[sel.PhraseID] {
			t.Errorf("duplicate phrase %d in batch", sel.PhraseID)
		}
		seen[sel.PhraseID] = true
	}

	all, err := store.NextEligibleBatch(ctx, player.ID, nil, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 6 {
		t.Errorf("len(all) = %d, want 6", len(all))
	}
}

func TestAssignUnknownReferents(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	ctx := context.Background()

	player := mustPlayer(t, db, "player")
	phrase := mustPhrase(t, store)

	if _, err := store.Assign(ctx, 9999, player.ID, 0); !errors.Is(err, models.ErrUnknownPhrase) {
		t.Errorf("expected ErrUnknownPhrase, got %v", err)
	}
	if _, err := store.Assign(ctx, phrase.ID, 9999, 0); !errors.Is(err, models.ErrUnknownPlayer) {
		t.Errorf("expected ErrUnknownPlayer, got %v", err)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	players := NewPlayerRepository(db)
	ctx := context.Background()

	player := mustPlayer(t, db, "player")
	phrase := mustPhrase(t, store, difficulty(40))
	if _, err := store.Assign(ctx, phrase.ID, player.ID, 0); err != nil {
		t.Fatal(err)
	}

	attempt := models.CompletionAttempt{PlayerID: player.ID, PhraseID: phrase.ID, CompletionTimeMs: 1200}
	first, created, err := store.Complete(ctx, attempt)
	if err != nil || !created {
		t.Fatalf("first Complete() = %v, %v", created, err)
	}

	retry := attempt
	retry.HintsUsed = 3
	second, created, err := store.Complete(ctx, retry)
	if err != nil {
		t.Fatalf("second Complete() error = %v", err)
	}
	if created {
		t.Error("second Complete() reported a new record")
	}
	if second.Score != first.Score || second.Score != 40 {
		t.Errorf("second Complete() returned score %d, want original 40", second.Score)
	}

	stored, err := store.GetPhrase(ctx, phrase.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.UsageCount != 1 {
		t.Errorf("UsageCount = %d, want 1", stored.UsageCount)
	}

	p, err := players.GetPlayer(ctx, player.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.PhrasesCompleted != 1 || p.TotalScore != 40 {
		t.Errorf("player totals = %d/%d, want 1/40", p.PhrasesCompleted, p.TotalScore)
	}

	assignments, err := store.ListAssignments(ctx, player.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(assignments) != 1 || !assignments[0].IsDelivered || assignments[0].DeliveredAt == nil {
		t.Errorf("assignment not flipped to delivered: %+v", assignments)
	}
}

func TestCompleteConcurrentRetries(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	ctx := context.Background()

	player := mustPlayer(t, db, "player")
	phrase := mustPhrase(t, store, global)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := store.Complete(ctx, models.CompletionAttempt{PlayerID: player.ID, PhraseID: phrase.ID})
			if err != nil {
				t.Errorf("Complete() error = %v", err)
				return
			}
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("created = %d, want exactly 1", created)
	}
	stored, err := store.GetPhrase(ctx, phrase.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.UsageCount != 1 {
		t.Errorf("UsageCount = %d, want 1", stored.UsageCount)
	}
}

func TestSkipIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	ctx := context.Background()

	player := mustPlayer(t, db, "player")
	phrase := mustPhrase(t, store, global)

	for i, want := range []bool{false, true} {
		ack, err := store.Skip(ctx, player.ID, phrase.ID)
		if err != nil {
			t.Fatalf("Skip() #%d error = %v", i, err)
		}
		if ack.AlreadySkipped != want {
			t.Errorf("Skip() #%d AlreadySkipped = %v, want %v", i, ack.AlreadySkipped, want)
		}
	}
	if _, err := store.Skip(ctx, player.ID, 4242); !errors.Is(err, models.ErrUnknownPhrase) {
		t.Errorf("expected ErrUnknownPhrase, got %v", err)
	}
}

func TestCompleteAndSkipAreExclusive(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	players := NewPlayerRepository(db)
	ctx := context.Background()

	player := mustPlayer(t, db, "player")
	skipped := mustPhrase(t, store, global)
	solved := mustPhrase(t, store, global)

	if _, err := store.Skip(ctx, player.ID, skipped.ID); err != nil {
		t.Fatal(err)
	}
	_, created, err := store.Complete(ctx, models.CompletionAttempt{PlayerID: player.ID, PhraseID: skipped.ID})
	if !errors.Is(err, models.ErrAlreadySkipped) {
		t.Fatalf("Complete() after skip error = %v, want ErrAlreadySkipped", err)
	}
	if created {
		t.Error("Complete() after skip reported a new record")
	}
	stored, err := store.GetPhrase(ctx, skipped.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.UsageCount != 0 {
		t.Errorf("UsageCount = %d, want 0", stored.UsageCount)
	}

	if _, _, err := store.Complete(ctx, models.CompletionAttempt{PlayerID: player.ID, PhraseID: solved.ID}); err != nil {
		t.Fatal(err)
	}
	ack, err := store.Skip(ctx, player.ID, solved.ID)
	if err != nil {
		t.Fatalf("Skip() after complete error = %v", err)
	}
	if !ack.AlreadyCompleted || ack.AlreadySkipped {
		t.Errorf("Skip() after complete = %+v, want AlreadyCompleted only", ack)
	}

	for _, q := range []struct {
		table string
		id    int64
	}{
		{table: "completions", id: skipped.ID},
		{table: "skips", id: solved.ID},
	} {
		var rows int
		query := "SELECT COUNT(*) FROM " + q.table + " WHERE player_id = ? AND phrase_id = ?"
		if err := db.QueryRowContext(ctx, query, player.ID, q.id).Scan(&rows); err != nil {
			t.Fatal(err)
		}
		if rows != 0 {
			t.Errorf("%s rows for phrase %d = %d, want 0", q.table, q.id, rows)
		}
	}

	p, err := players.GetPlayer(ctx, player.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.PhrasesCompleted != 1 {
		t.Errorf("PhrasesCompleted = %d, want 1", p.PhrasesCompleted)
	}
}

func TestCompleteScoresFromStoredState(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	ctx := context.Background()

	player := mustPlayer(t, db, "player")

	tests := []struct {
		name      string
		taken     int
		client    int
		wantLevel int
		wantScore int
	}{
		{name: "no hints", taken: 0, client: 0, wantLevel: 0, wantScore: 48},
		{name: "recorded level wins", taken: 2, client: 0, wantLevel: 2, wantScore: 34},
		{name: "client level wins", taken: 1, client: 3, wantLevel: 3, wantScore: 24},
		{name: "client count clamped", taken: 0, client: 9, wantLevel: 3, wantScore: 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phrase := mustPhrase(t, store, global, difficulty(48))
			for level := 1; level <= tt.taken; level++ {
				if _, err := store.UseHint(ctx, player.ID, phrase.ID, level); err != nil {
					t.Fatal(err)
				}
			}
			rec, _, err := store.Complete(ctx, models.CompletionAttempt{
				PlayerID:  player.ID,
				PhraseID:  phrase.ID,
				HintsUsed: tt.client,
			})
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			if rec.HintsUsed != tt.wantLevel || rec.Score != tt.wantScore {
				t.Errorf("Complete() = level %d score %d, want level %d score %d",
					rec.HintsUsed, rec.Score, tt.wantLevel, tt.wantScore)
			}
		})
	}

	if _, _, err := store.Complete(ctx, models.CompletionAttempt{PlayerID: player.ID, PhraseID: 4242}); !errors.Is(err, models.ErrUnknownPhrase) {
		t.Errorf("expected ErrUnknownPhrase, got %v", err)
	}
}

func TestMarkDeliveredRechecksExclusions(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	ctx := context.Background()

	player := mustPlayer(t, db, "player")
	phrase := mustPhrase(t, store, global)

	sel, err := store.NextEligible(ctx, player.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The player skips on another device between the read and the write.
	if _, err := store.Skip(ctx, player.ID, phrase.ID); err != nil {
		t.Fatal(err)
	}
	ok, err := store.MarkDelivered(ctx, player.ID, sel.PhraseID)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("MarkDelivered() accepted a skipped phrase")
	}
}

func TestUseHintOrdering(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	ctx := context.Background()

	player := mustPlayer(t, db, "player")
	phrase := mustPhrase(t, store, global)

	steps := []struct {
		level    int
		recorded bool
		err      error
	}{
		{level: 2, err: models.ErrOutOfOrderHint},
		{level: 0, err: models.ErrOutOfOrderHint},
		{level: 1, recorded: true},
		{level: 1, recorded: false},
		{level: 3, err: models.ErrOutOfOrderHint},
		{level: 2, recorded: true},
		{level: 3, recorded: true},
		{level: 4, err: models.ErrOutOfOrderHint},
		{level: 2, recorded: false},
	}
	for i, step := range steps {
		recorded, err := store.UseHint(ctx, player.ID, phrase.ID, step.level)
		if !errors.Is(err, step.err) {
			t.Fatalf("step %d: UseHint(%d) error = %v, want %v", i, step.level, err, step.err)
		}
		if recorded != step.recorded {
			t.Errorf("step %d: UseHint(%d) recorded = %v, want %v", i, step.level, recorded, step.recorded)
		}
	}

	level, err := hintLevel(ctx, db, player.ID, phrase.ID)
	if err != nil {
		t.Fatal(err)
	}
	if level != 3 {
		t.Errorf("hintLevel() = %d, want 3", level)
	}
}

func TestUseHintConcurrentSameLevel(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	ctx := context.Background()

	player := mustPlayer(t, db, "player")
	phrase := mustPhrase(t, store, global)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		recorded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.UseHint(ctx, player.ID, phrase.ID, 1)
			if err != nil {
				t.Errorf("UseHint() error = %v", err)
				return
			}
			if ok {
				mu.Lock()
				recorded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if recorded != 1 {
		t.Errorf("recorded = %d, want exactly 1", recorded)
	}
	var rows int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hint_usages WHERE player_id = ? AND phrase_id = ?", player.ID, phrase.ID).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Errorf("hint_usages rows = %d, want 1", rows)
	}
}

func TestCompletedOrSkipped(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	ctx := context.Background()

	player := mustPlayer(t, db, "player")
	done := mustPhrase(t, store, global)
	skipped := mustPhrase(t, store, global)
	open := mustPhrase(t, store, global)

	if _, _, err := store.Complete(ctx, models.CompletionAttempt{PlayerID: player.ID, PhraseID: done.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Skip(ctx, player.ID, skipped.ID); err != nil {
		t.Fatal(err)
	}

	played, err := store.CompletedOrSkipped(ctx, player.ID, []int64{done.ID, skipped.ID, open.ID})
	if err != nil {
		t.Fatalf("CompletedOrSkipped() error = %v", err)
	}
	if len(played) != 2 || played[0] != done.ID || played[1] != skipped.ID {
		t.Errorf("CompletedOrSkipped() = %v, want [%d %d]", played, done.ID, skipped.ID)
	}
}

func TestCreatePhraseWithAssignmentIsAtomic(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	ctx := context.Background()

	sender := mustPlayer(t, db, "sender")
	p := &models.Phrase{Content: "secret words", Hint: "shh", DifficultyLevel: 30, Language: models.LanguageEnglish, CreatedBy: &sender.ID}
	err := store.CreatePhrase(ctx, p, &models.PhraseAssignment{TargetPlayerID: 777})
	if !errors.Is(err, models.ErrUnknownPlayer) {
		t.Fatalf("expected ErrUnknownPlayer, got %v", err)
	}

	phrases, err := store.ListPhrases(ctx, PhraseFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(phrases) != 0 {
		t.Errorf("phrase was kept after failed assignment: %+v", phrases)
	}
}

func TestImportPhrasesSkipsDuplicates(t *testing.T) {
	db := newTestDB(t)
	store := NewPhraseStore(db)
	ctx := context.Background()

	batch := []models.Phrase{
		{Content: "quick brown fox", Hint: "animal", DifficultyLevel: 82, Language: models.LanguageEnglish, IsGlobal: true, IsApproved: true},
		{Content: "hej då", Hint: "farväl", DifficultyLevel: 39, Language: models.LanguageSwedish, IsGlobal: true, IsApproved: true},
	}
	added, err := store.ImportPhrases(ctx, batch)
	if err != nil || added != 2 {
		t.Fatalf("ImportPhrases() = %d, %v", added, err)
	}

	again := []models.Phrase{batch[0], {Content: "new one", Hint: "fresh", DifficultyLevel: 20, Language: models.LanguageEnglish, IsGlobal: true}}
	again[0].ID = 0
	added, err = store.ImportPhrases(ctx, again)
	if err != nil || added != 1 {
		t.Fatalf("second ImportPhrases() = %d, %v", added, err)
	}

	approved := true
	list, err := store.ListPhrases(ctx, PhraseFilter{GlobalOnly: true, ApprovedOnly: &approved})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("approved global phrases = %d, want 2", len(list))
	}

	if err := store.SetApproved(ctx, again[1].ID, true); err != nil {
		t.Fatal(err)
	}
	if err := store.SetApproved(ctx, 12345, true); !errors.Is(err, models.ErrUnknownPhrase) {
		t.Errorf("expected ErrUnknownPhrase, got %v", err)
	}
}
