package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func TestMigrateRoundTripCompatibility(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate-roundtrip.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("first migrate up failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Fatalf("repeated migrate up failed: %v", err)
	}
	if err := MigrateDown(db); err != nil {
		t.Fatalf("migrate down failed: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no applied migrations after down, got %d", count)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("second migrate up failed: %v", err)
	}

	sink, err := NewSQLiteSink(db, "")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	rec, err := Encode("task-rt-1", map[string]string{"id": "task-rt-1", "title": "Roundtrip task"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := sink.UpsertOne(t.Context(), CollectionTasks, rec); err != nil {
		t.Fatalf("insert after roundtrip failed: %v", err)
	}
	got, err := sink.Load(t.Context(), CollectionTasks)
	if err != nil {
		t.Fatalf("load after roundtrip failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "task-rt-1" {
		t.Fatalf("unexpected records after roundtrip: %+v", got)
	}
}
