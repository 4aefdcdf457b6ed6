package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"anagramgame/internal/models"
	"anagramgame/internal/repository"
	"anagramgame/internal/scoring"
	"anagramgame/internal/utils"
)

const archiveVersion = "1"

// PhraseArchive is the file format moved by the import and export tools
type PhraseArchive struct {
	Version    string               `json:"version"`
	ExportedAt time.Time            `json:"exported_at"`
	Artifact   scoring.ArtifactInfo `json:"artifact"`
	Phrases    []ArchivedPhrase     `json:"phrases"`
}

// ArchivedPhrase is one global phrase in an archive. Difficulty is
// informational; imports always rescore.
type ArchivedPhrase struct {
	Content    string `json:"content"`
	Hint       string `json:"hint"`
	Language   string `json:"language"`
	Difficulty int    `json:"difficulty,omitempty"`
	UsageCount int    `json:"usage_count,omitempty"`
}

// RejectedPhrase explains why an archived phrase was not imported
type RejectedPhrase struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
	Reason  string `json:"reason"`
}

// ImportResult summarises an import
type ImportResult struct {
	Added      int              `json:"added"`
	Duplicates int              `json:"duplicates"`
	Rejected   []RejectedPhrase `json:"rejected,omitempty"`
}

// ArchiveService handles bulk import and export of global phrases
type ArchiveService struct {
	store   *repository.PhraseStore
	phrases *PhraseService
	scorer  *scoring.Scorer
}

// NewArchiveService creates a new archive service
func NewArchiveService(store *repository.PhraseStore, phrases *PhraseService, scorer *scoring.Scorer) *ArchiveService {
	return &ArchiveService{store: store, phrases: phrases, scorer: scorer}
}

// Export writes every approved global phrase to outputPath
func (s *ArchiveService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}
	log.Info().Str("path", outputPath).Msg("phrases exported")
	return nil
}

// ExportToWriter writes the archive as indented JSON
func (s *ArchiveService) ExportToWriter(ctx context.Context, w io.Writer) error {
	approved := true
	phrases, err := s.store.ListPhrases(ctx, repository.PhraseFilter{GlobalOnly: true, ApprovedOnly: &approved})
	if err != nil {
		return fmt.Errorf("failed to export phrases: %w", err)
	}

	archive := PhraseArchive{
		Version:    archiveVersion,
		ExportedAt: time.Now().UTC(),
		Artifact:   s.scorer.Artifact().Info(),
		Phrases:    make([]ArchivedPhrase, 0, len(phrases)),
	}
	for _, p := range phrases {
		archive.Phrases = append(archive.Phrases, ArchivedPhrase{
			Content:    p.Content,
			Hint:       p.Hint,
			Language:   string(p.Language),
			Difficulty: p.DifficultyLevel,
			UsageCount: p.UsageCount,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(archive); err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	return nil
}

// Import reads an archive file and stores its phrases as approved global phrases
func (s *ArchiveService) Import(ctx context.Context, inputPath string) (*ImportResult, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()
	return s.ImportFromReader(ctx, file)
}

// ImportFromReader validates and rescores every phrase of an archive.
// Invalid phrases are reported and skipped; valid ones are stored in one
// transaction.
func (s *ArchiveService) ImportFromReader(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var archive PhraseArchive
	if err := json.NewDecoder(r).Decode(&archive); err != nil {
		return nil, fmt.Errorf("failed to decode archive: %w", err)
	}

	log.Info().Str("version", archive.Version).Time("exported_at", archive.ExportedAt).
		Int("phrases", len(archive.Phrases)).Msg("importing phrase archive")

	if info := s.scorer.Artifact().Info(); archive.Artifact.Hash != "" && archive.Artifact.Hash != info.Hash {
		log.Warn().Str("archive_tables", archive.Artifact.Version).Str("local_tables", info.Version).
			Msg("archive was scored with different difficulty tables, rescoring")
	}

	result := &ImportResult{}
	valid := make([]models.Phrase, 0, len(archive.Phrases))
	for i, ap := range archive.Phrases {
		p, err := s.phrases.prepare(ctx, Submission{Content: ap.Content, Hint: ap.Hint, Language: ap.Language, IsGlobal: true})
		if err != nil {
			var verr utils.ValidationError
			if !errors.As(err, &verr) {
				return nil, err
			}
			result.Rejected = append(result.Rejected, RejectedPhrase{Index: i, Content: ap.Content, Reason: verr.Error()})
			continue
		}
		p.IsApproved = true
		valid = append(valid, *p)
	}

	added, err := s.store.ImportPhrases(ctx, valid)
	if err != nil {
		return nil, fmt.Errorf("failed to import phrases: %w", err)
	}
	result.Added = added
	result.Duplicates = len(valid) - added

	log.Info().Int("added", result.Added).Int("duplicates", result.Duplicates).
		Int("rejected", len(result.Rejected)).Msg("phrase import completed")
	return result, nil
}
