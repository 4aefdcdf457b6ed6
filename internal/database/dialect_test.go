package database

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestDialectBasics(t *testing.T) {
	tests := []struct {
		name          string
		dialect       Dialect
		driver        string
		lastInsertID  bool
		migrationsDir string
	}{
		{name: "sqlite", dialect: NewSQLiteDialect(), driver: "sqlite3", lastInsertID: true, migrationsDir: "sqlite"},
		{name: "postgres", dialect: NewPostgresDialect(), driver: "postgres", lastInsertID: false, migrationsDir: "postgres"},
		{name: "mysql", dialect: NewMySQLDialect(), driver: "mysql", lastInsertID: true, migrationsDir: "mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %v, want %v", got, tt.driver)
			}
			if got := tt.dialect.SupportsLastInsertId(); got != tt.lastInsertID {
				t.Errorf("SupportsLastInsertId() = %v, want %v", got, tt.lastInsertID)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.migrationsDir {
				t.Errorf("MigrationsSubdir() = %v, want %v", got, tt.migrationsDir)
			}
		})
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM phrases WHERE id = ?",
			expected: "SELECT * FROM phrases WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM phrases WHERE id = ?",
			expected: "SELECT * FROM phrases WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO skips (player_id, phrase_id) VALUES (?, ?)",
			expected: "INSERT INTO skips (player_id, phrase_id) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE players SET total_score = ? WHERE id = ?",
			expected: "UPDATE players SET total_score = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestInsertIgnore(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		expected string
	}{
		{
			name:     "sqlite",
			dialect:  NewSQLiteDialect(),
			expected: "INSERT OR IGNORE INTO skips (player_id, phrase_id) VALUES (?, ?)",
		},
		{
			name:     "postgres",
			dialect:  NewPostgresDialect(),
			expected: "INSERT INTO skips (player_id, phrase_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		},
		{
			name:     "mysql",
			dialect:  NewMySQLDialect(),
			expected: "INSERT IGNORE INTO skips (player_id, phrase_id) VALUES (?, ?)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.InsertIgnore("skips", "player_id", "phrase_id"); got != tt.expected {
				t.Errorf("InsertIgnore() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	dsn := NewSQLiteDialect().DSN(DialectConfig{Path: "/tmp/game.db"})
	for _, want := range []string{"file:/tmp/game.db?", "_txlock=immediate", "_foreign_keys=on", "_busy_timeout=5000"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q missing %q", dsn, want)
		}
	}
}

func TestMySQLDSNForcesParseTime(t *testing.T) {
	dsn := NewMySQLDialect().DSN(DialectConfig{URL: "game:secret@tcp(localhost:3306)/anagrams"})
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("DSN %q does not enable parseTime", dsn)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		err     error
		want    bool
	}{
		{name: "sqlite unique", dialect: NewSQLiteDialect(), err: sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, want: true},
		{name: "sqlite foreign key", dialect: NewSQLiteDialect(), err: sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}, want: false},
		{name: "postgres unique", dialect: NewPostgresDialect(), err: &pq.Error{Code: "23505"}, want: true},
		{name: "postgres other", dialect: NewPostgresDialect(), err: &pq.Error{Code: "23503"}, want: false},
		{name: "mysql duplicate", dialect: NewMySQLDialect(), err: &mysql.MySQLError{Number: 1062}, want: true},
		{name: "plain error", dialect: NewMySQLDialect(), err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	content := `
-- players
CREATE TABLE a (id INTEGER);

CREATE TABLE b (id INTEGER);
`
	stmts := splitStatements(content)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if strings.Contains(stmts[0], "--") {
		t.Errorf("comment was not stripped: %q", stmts[0])
	}
}
