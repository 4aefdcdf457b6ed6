package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"anagramgame/internal/database"
	"anagramgame/internal/models"
	"anagramgame/internal/repository"
	"anagramgame/internal/scoring"
)

type recordingNotifier struct {
	mu      sync.Mutex
	notices []int64
}

func (n *recordingNotifier) NotifyAssignment(_ context.Context, recipient *models.Player, _ *models.Phrase) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, recipient.ID)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

type testEnv struct {
	db          *database.DB
	store       *repository.PhraseStore
	players     *repository.PlayerRepository
	settings    *SettingsCache
	notifier    *recordingNotifier
	phrases     *PhraseService
	distributor *Distributor
	hints       *HintService
	accounts    *PlayerService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:       db,
		store:    repository.NewPhraseStore(db),
		players:  repository.NewPlayerRepository(db),
		settings: NewSettingsCache(repository.NewSettingsRepository(db), time.Minute),
		notifier: &recordingNotifier{},
	}
	env.phrases = NewPhraseService(env.store, env.players, scoring.Default(), db, env.settings, env.notifier)
	env.distributor = NewDistributor(env.store)
	env.hints = NewHintService(env.store)
	env.accounts = NewPlayerService(env.players)
	return env
}

func (e *testEnv) player(t *testing.T, name, email string) *models.Player {
	t.Helper()
	p, err := e.accounts.Register(context.Background(), name, email)
	if err != nil {
		t.Fatalf("Register(%s) error = %v", name, err)
	}
	return p
}

// globalPhrase stores an approved global phrase with a fixed difficulty
func (e *testEnv) globalPhrase(t *testing.T, content string, level int) *models.Phrase {
	t.Helper()
	p := &models.Phrase{
		Content:         content,
		Hint:            "a test phrase",
		DifficultyLevel: level,
		Language:        models.LanguageEnglish,
		IsGlobal:        true,
		IsApproved:      true,
	}
	if err := e.store.CreatePhrase(context.Background(), p, nil); err != nil {
		t.Fatalf("CreatePhrase() error = %v", err)
	}
	return p
}

func ptr[T any](v T) *T {
	return &v
}
