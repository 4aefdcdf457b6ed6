package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"anagramgame/internal/database"
	"anagramgame/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustPlayer(t *testing.T, db *database.DB, name string) *models.Player {
	t.Helper()
	p, err := NewPlayerRepository(db).CreatePlayer(context.Background(), name, "")
	if err != nil {
		t.Fatalf("CreatePlayer(%s) error = %v", name, err)
	}
	return p
}

type phraseOpt func(*models.Phrase)

func global(p *models.Phrase) {
	p.IsGlobal = true
	p.IsApproved = true
}

func pending(p *models.Phrase) {
	p.IsGlobal = true
	p.IsApproved = false
}

func difficulty(level int) phraseOpt {
	return func(p *models.Phrase) { p.DifficultyLevel = level }
}

func authoredBy(id int64) phraseOpt {
	return func(p *models.Phrase) { p.CreatedBy = &id }
}

var phraseCounter int

func mustPhrase(t *testing.T, store *PhraseStore, opts ...phraseOpt) *models.Phrase {
	t.Helper()
	phraseCounter++
	p := &models.Phrase{
		Content:         fmt.Sprintf("phrase number %d", phraseCounter),
		Hint:            "a test phrase",
		DifficultyLevel: 50,
		Language:        models.LanguageEnglish,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := store.CreatePhrase(context.Background(), p, nil); err != nil {
		t.Fatalf("CreatePhrase() error = %v", err)
	}
	return p
}
