package scoring

import (
	"errors"
	"testing"

	"anagramgame/internal/models"
	"anagramgame/internal/utils"
)

func TestScoreGoldenVectors(t *testing.T) {
	s := Default()
	tests := []struct {
		name   string
		phrase string
		lang   models.Language
		want   int
	}{
		{name: "hello", phrase: "hello", lang: models.LanguageEnglish, want: 23},
		{name: "banana", phrase: "banana", lang: models.LanguageEnglish, want: 25},
		{name: "three words", phrase: "quick brown fox", lang: models.LanguageEnglish, want: 82},
		{name: "single common letter", phrase: "a", lang: models.LanguageEnglish, want: 7},
		{name: "short word halves commonality", phrase: "the", lang: models.LanguageEnglish, want: 10},
		{name: "punctuation stripped", phrase: "Hello, World!", lang: models.LanguageEnglish, want: 48},
		{name: "swedish diacritics", phrase: "hej då", lang: models.LanguageSwedish, want: 39},
		{name: "swedish compound", phrase: "smörgåsbord", lang: models.LanguageSwedish, want: 42},
		{name: "upper clamp", phrase: "the quick brown fox jumps over the lazy dog", lang: models.LanguageEnglish, want: 100},
		{name: "empty", phrase: "", lang: models.LanguageEnglish, want: 1},
		{name: "no letters", phrase: "!!! 123", lang: models.LanguageEnglish, want: 1},
		{name: "unknown language", phrase: "hello", lang: models.Language("de"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Score(tt.phrase, tt.lang); got != tt.want {
				t.Errorf("Score(%q, %s) = %d, want %d", tt.phrase, tt.lang, got, tt.want)
			}
		})
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	s := Default()
	phrases := []string{"hello", "quick brown fox", "smörgåsbord", "Hello, World!"}
	for _, p := range phrases {
		first := s.Score(p, models.LanguageEnglish)
		for i := 0; i < 50; i++ {
			if got := s.Score(p, models.LanguageEnglish); got != first {
				t.Fatalf("Score(%q) changed between calls: %d then %d", p, first, got)
			}
		}
	}
}

func TestScoreOrdering(t *testing.T) {
	s := Default()
	hello := s.Score("hello", models.LanguageEnglish)
	if banana := s.Score("banana", models.LanguageEnglish); hello >= banana {
		t.Errorf("expected hello (%d) < banana (%d)", hello, banana)
	}
	if fox := s.Score("quick brown fox", models.LanguageEnglish); hello >= fox {
		t.Errorf("expected hello (%d) < quick brown fox (%d)", hello, fox)
	}
}

func TestRepetitionLowersScore(t *testing.T) {
	s := Default()
	b := s.Analyze("banana", models.LanguageEnglish)
	if b.Unique != 3 || b.Letters != 6 {
		t.Fatalf("unexpected counts: letters=%d unique=%d", b.Letters, b.Unique)
	}
	if b.Repetition <= 0 {
		t.Errorf("expected positive repetition penalty, got %f", b.Repetition)
	}
	if b.Raw >= b.WordFactor+b.LengthFactor+b.Commonality {
		t.Error("repetition penalty was not subtracted")
	}
}

func TestDecomposedDiacriticsMatchComposed(t *testing.T) {
	s := Default()
	composed := s.Score("hej då", models.LanguageSwedish)
	decomposed := s.Score("hej da\u030a", models.LanguageSwedish)
	if composed != decomposed {
		t.Errorf("composed=%d decomposed=%d", composed, decomposed)
	}
}

func TestNormalize(t *testing.T) {
	s := Default()
	if got := s.Normalize("  Don't   STOP-me ", models.LanguageEnglish); got != "dont stopme" {
		t.Errorf("Normalize() = %q", got)
	}
	if got := s.Normalize("Hej Då", models.LanguageEnglish); got != "hej d" {
		t.Errorf("english table should strip å, got %q", got)
	}
}

func TestCheckAlphabet(t *testing.T) {
	s := Default()
	tests := []struct {
		name    string
		phrase  string
		lang    models.Language
		wantErr bool
	}{
		{name: "plain english", phrase: "quick brown fox", lang: models.LanguageEnglish},
		{name: "swedish letters in swedish", phrase: "hej då", lang: models.LanguageSwedish},
		{name: "swedish letters in english", phrase: "hej då", lang: models.LanguageEnglish, wantErr: true},
		{name: "digits", phrase: "route 66", lang: models.LanguageEnglish, wantErr: true},
		{name: "unsupported language", phrase: "hallo", lang: models.Language("de"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CheckAlphabet(tt.phrase, tt.lang)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckAlphabet() error = %v, wantErr %v", err, tt.wantErr)
			}
			var verr utils.ValidationError
			if err != nil && !errors.As(err, &verr) {
				t.Errorf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestArtifactInfo(t *testing.T) {
	info := Default().Artifact().Info()
	if info.Version == "" {
		t.Error("expected artifact version")
	}
	if len(info.Hash) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(info.Hash))
	}

	again, err := ParseArtifact(defaultArtifact)
	if err != nil {
		t.Fatalf("ParseArtifact() error = %v", err)
	}
	if again.Hash != info.Hash {
		t.Error("hash is not stable for identical bytes")
	}
}

func TestParseArtifactRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "{"},
		{name: "no version", raw: `{"weights":{"min_score":1,"max_score":100},"languages":{"en":{"a":1}}}`},
		{name: "bad bounds", raw: `{"version":"x","weights":{"min_score":0,"max_score":100},"languages":{"en":{"a":1}}}`},
		{name: "multi letter key", raw: `{"version":"x","weights":{"min_score":1,"max_score":100},"languages":{"en":{"ab":1}}}`},
		{name: "no languages", raw: `{"version":"x","weights":{"min_score":1,"max_score":100}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseArtifact([]byte(tt.raw)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseLanguage(t *testing.T) {
	if lang, err := ParseLanguage("sv"); err != nil || lang != models.LanguageSwedish {
		t.Errorf("ParseLanguage(sv) = %v, %v", lang, err)
	}
	if _, err := ParseLanguage("fr"); err == nil {
		t.Error("expected error for fr")
	}
}
