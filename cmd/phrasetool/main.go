package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"anagramgame/internal/config"
	"anagramgame/internal/database"
	"anagramgame/internal/logging"
	"anagramgame/internal/repository"
	"anagramgame/internal/scoring"
	"anagramgame/internal/service"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	approveCmd := flag.NewFlagSet("approve", flag.ExitOnError)
	autoApproveCmd := flag.NewFlagSet("auto-approve", flag.ExitOnError)
	blockCmd := flag.NewFlagSet("block", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: phrases_YYYYMMDD_HHMMSS.json)")
	importInput := importCmd.String("input", "", "Input file path (required)")
	approveID := approveCmd.Int64("id", 0, "Phrase id (required)")
	approveRevoke := approveCmd.Bool("revoke", false, "Withdraw approval instead of granting it")
	autoApproveEnable := autoApproveCmd.Bool("enable", true, "Auto-approve new global phrases")
	blockInput := blockCmd.String("input", "", "Word list file, one word per line (required)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	if _, err := logging.Setup(logging.Config{Level: cfg.LogLevel, Format: "console"}); err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}
	ctx := context.Background()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	store := repository.NewPhraseStore(db)
	settings := service.NewSettingsCache(repository.NewSettingsRepository(db), cfg.SettingsTTL)
	scorer := scoring.Default()
	phrases := service.NewPhraseService(store, repository.NewPlayerRepository(db), scorer, db, settings, nil)
	archive := service.NewArchiveService(store, phrases, scorer)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(ctx, archive, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(ctx, archive, *importInput)

	case "approve":
		approveCmd.Parse(os.Args[2:])
		if *approveID <= 0 {
			fmt.Println("Error: -id flag is required")
			approveCmd.PrintDefaults()
			os.Exit(1)
		}
		if err := store.SetApproved(ctx, *approveID, !*approveRevoke); err != nil {
			log.Fatal().Err(err).Int64("phrase_id", *approveID).Msg("failed to update approval")
		}
		log.Info().Int64("phrase_id", *approveID).Bool("approved", !*approveRevoke).Msg("approval updated")

	case "auto-approve":
		autoApproveCmd.Parse(os.Args[2:])
		value := strconv.FormatBool(*autoApproveEnable)
		if err := settings.Set(ctx, repository.SettingAutoApprove, value); err != nil {
			log.Fatal().Err(err).Msg("failed to update setting")
		}
		log.Info().Str("key", repository.SettingAutoApprove).Str("value", value).Msg("setting updated")

	case "block":
		blockCmd.Parse(os.Args[2:])
		if *blockInput == "" {
			fmt.Println("Error: -input flag is required")
			blockCmd.PrintDefaults()
			os.Exit(1)
		}
		handleBlock(ctx, db, *blockInput)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, archive *service.ArchiveService, outputPath string) {
	if outputPath == "" {
		outputPath = fmt.Sprintf("phrases_%s.json", time.Now().Format("20060102_150405"))
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal().Err(err).Msg("failed to create output directory")
		}
	}

	log.Info().Str("path", outputPath).Msg("exporting phrases")
	if err := archive.Export(ctx, outputPath); err != nil {
		log.Fatal().Err(err).Msg("export failed")
	}

	fileInfo, err := os.Stat(outputPath)
	if err == nil {
		log.Info().Int64("bytes", fileInfo.Size()).Msg("export complete")
	}
}

func handleImport(ctx context.Context, archive *service.ArchiveService, inputPath string) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		log.Fatal().Str("path", inputPath).Msg("input file does not exist")
	}

	log.Info().Str("path", inputPath).Msg("importing phrases")
	result, err := archive.Import(ctx, inputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}

	for _, r := range result.Rejected {
		log.Warn().Int("index", r.Index).Str("content", r.Content).Str("reason", r.Reason).Msg("phrase rejected")
	}
	log.Info().
		Int("added", result.Added).
		Int("duplicates", result.Duplicates).
		Int("rejected", len(result.Rejected)).
		Msg("import complete")
}

func handleBlock(ctx context.Context, db *database.DB, inputPath string) {
	f, err := os.Open(inputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open word list")
	}
	defer f.Close()

	added, err := db.AddBlockedWords(ctx, f)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to add blocked words")
	}
	log.Info().Int("added", added).Msg("blocked words updated")
}

func printUsage() {
	fmt.Println("Anagram Game Phrase Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  phrasetool export [options]          Export approved global phrases to JSON")
	fmt.Println("  phrasetool import [options]          Import phrases from JSON")
	fmt.Println("  phrasetool approve [options]         Approve or withdraw a global phrase")
	fmt.Println("  phrasetool auto-approve [options]    Toggle auto-approval of global submissions")
	fmt.Println("  phrasetool block [options]           Add words to the blocked word list")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  export -output <file>        Output file path (default: phrases_YYYYMMDD_HHMMSS.json)")
	fmt.Println("  import -input <file>         Input file path (required)")
	fmt.Println("  approve -id <n> [-revoke]    Phrase id (required)")
	fmt.Println("  auto-approve -enable=<bool>  New value (default: true)")
	fmt.Println("  block -input <file>          One word or phrase per line (required)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./anagramgame.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
