package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// tempDBPath returns a path to a temp database file.
func tempDBPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "test.db")
}

// setupTestDB creates a new temporary database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(tempDBPath(t))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestOpen(t *testing.T) {
	path := tempDBPath(t)
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("database file does not exist at %s", path)
	}
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c", "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Dir(path)); os.IsNotExist(err) {
		t.Errorf("parent directories were not created")
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/proc/invalid/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestMigrate(t *testing.T) {
	db := setupTestDB(t)

	tables := []string{"schema_version", "workflows", "progress_events"}
	for _, table := range tables {
		var name string
		row := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table)
		if err := row.Scan(&name); err != nil {
			t.Errorf("table %q not created: %v", table, err)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	for i := 0; i < 3; i++ {
		if err := db.Migrate(); err != nil {
			t.Fatalf("Migrate run %d failed: %v", i+1, err)
		}
	}

	var version int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&version); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if version != 2 {
		t.Errorf("schema version = %d, want 2", version)
	}

	var count int
	row = db.QueryRow("SELECT COUNT(*) FROM schema_version")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count schema versions: %v", err)
	}
	if count != 2 {
		t.Errorf("schema_version rows = %d, want 2", count)
	}
}

func TestExec(t *testing.T) {
	db := setupTestDB(t)

	result, err := db.Exec(`
		INSERT INTO workflows (id, kind, subject, source, success, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, "wf1", "news", "go releases", "live", true, formatTime(time.Now()))
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		t.Fatalf("RowsAffected failed: %v", err)
	}
	if affected != 1 {
		t.Errorf("rows affected = %d, want 1", affected)
	}
}

func TestTransaction_Success(t *testing.T) {
	db := setupTestDB(t)

	err := db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO workflows (id, kind, subject, source, success, started_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, "wf-tx", "repo", "add healthcheck", "live", true, formatTime(time.Now()))
		return err
	})
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}

	var count int
	row := db.QueryRow("SELECT COUNT(*) FROM workflows WHERE id = ?", "wf-tx")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count workflows: %v", err)
	}
	if count != 1 {
		t.Errorf("workflow count = %d, want 1", count)
	}
}

func TestTransaction_Rollback(t *testing.T) {
	db := setupTestDB(t)

	wantErr := os.ErrInvalid
	err := db.Transaction(func(tx *sql.Tx) error {
		_, execErr := tx.Exec(`
			INSERT INTO workflows (id, kind, subject, source, success, started_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, "wf-rb", "repo", "doomed", "live", false, formatTime(time.Now()))
		if execErr != nil {
			return execErr
		}
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("Transaction error = %v, want %v", err, wantErr)
	}

	var count int
	row := db.QueryRow("SELECT COUNT(*) FROM workflows WHERE id = ?", "wf-rb")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count workflows: %v", err)
	}
	if count != 0 {
		t.Errorf("workflow count after rollback = %d, want 0", count)
	}
}

func TestDefaultPath(t *testing.T) {
	orig := os.Getenv("XDG_DATA_HOME")
	defer os.Setenv("XDG_DATA_HOME", orig)

	os.Setenv("XDG_DATA_HOME", "/tmp/xdg-test")
	got := DefaultPath()
	want := filepath.Join("/tmp/xdg-test", "troupe", "troupe.db")
	if got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}

	os.Setenv("XDG_DATA_HOME", "")
	got = DefaultPath()
	if !strings.HasSuffix(got, filepath.Join("troupe", "troupe.db")) {
		t.Errorf("DefaultPath() without XDG_DATA_HOME = %q, want .../troupe/troupe.db", got)
	}
}

func TestFormatAndParseTime(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	formatted := formatTime(now)

	parsed, err := parseTime(formatted)
	if err != nil {
		t.Fatalf("parseTime failed: %v", err)
	}
	if !parsed.Equal(now) {
		t.Errorf("round trip = %v, want %v", parsed, now)
	}
}

func TestParseNullableTime(t *testing.T) {
	if got := parseNullableTime(sql.NullString{}); got != nil {
		t.Errorf("parseNullableTime(null) = %v, want nil", got)
	}

	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	got := parseNullableTime(sql.NullString{String: formatTime(now), Valid: true})
	if got == nil || !got.Equal(now) {
		t.Errorf("parseNullableTime(valid) = %v, want %v", got, now)
	}

	if got := parseNullableTime(sql.NullString{String: "garbage", Valid: true}); got != nil {
		t.Errorf("parseNullableTime(garbage) = %v, want nil", got)
	}
}
