package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

type testDoc struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (d testDoc) Validate() error {
	if d.ID == "" {
		return errors.New("id is required")
	}
	return nil
}

func setupSink(t *testing.T) (*SQLiteSink, *sql.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nexus-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	sink, err := NewSQLiteSink(db, "test")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	return sink, db
}

func mustEncode(t *testing.T, doc testDoc) Record {
	t.Helper()
	rec, err := Encode(doc.ID, doc)
	if err != nil {
		t.Fatalf("encode %s: %v", doc.ID, err)
	}
	return rec
}

func loadIDs(t *testing.T, sink Sink, collection string) []string {
	t.Helper()
	recs, err := sink.Load(context.Background(), collection)
	if err != nil {
		t.Fatalf("load %s: %v", collection, err)
	}
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSQLiteSinkLoadEmptyCollection(t *testing.T) {
	sink, _ := setupSink(t)
	if ids := loadIDs(t, sink, CollectionTasks); len(ids) != 0 {
		t.Fatalf("expected empty collection, got %v", ids)
	}
}

func TestSQLiteSinkSaveKeepsOrder(t *testing.T) {
	sink, _ := setupSink(t)
	ctx := context.Background()
	recs := []Record{
		mustEncode(t, testDoc{ID: "c", Title: "third"}),
		mustEncode(t, testDoc{ID: "a", Title: "first"}),
		mustEncode(t, testDoc{ID: "b", Title: "second"}),
	}
	if err := sink.Save(ctx, CollectionTasks, recs); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := loadIDs(t, sink, CollectionTasks); !equalIDs(got, []string{"c", "a", "b"}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestSQLiteSinkUpsertReplacesInPlace(t *testing.T) {
	sink, _ := setupSink(t)
	ctx := context.Background()
	for _, doc := range []testDoc{{ID: "a", Title: "one"}, {ID: "b", Title: "two"}} {
		if err := sink.UpsertOne(ctx, CollectionTasks, mustEncode(t, doc)); err != nil {
			t.Fatalf("upsert %s: %v", doc.ID, err)
		}
	}
	if err := sink.UpsertOne(ctx, CollectionTasks, mustEncode(t, testDoc{ID: "a", Title: "uno"})); err != nil {
		t.Fatalf("upsert replace: %v", err)
	}

	recs, err := sink.Load(ctx, CollectionTasks)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "a" || recs[1].ID != "b" {
		t.Fatalf("unexpected records: %+v", recs)
	}
	doc, err := Decode[testDoc](recs[0].Payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Title != "uno" {
		t.Fatalf("expected replaced title, got %q", doc.Title)
	}
}

func TestSQLiteSinkDeleteOne(t *testing.T) {
	sink, _ := setupSink(t)
	ctx := context.Background()
	if err := sink.Save(ctx, CollectionGoals, []Record{
		mustEncode(t, testDoc{ID: "g1"}),
		mustEncode(t, testDoc{ID: "g2"}),
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := sink.DeleteOne(ctx, CollectionGoals, "g1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := loadIDs(t, sink, CollectionGoals); !equalIDs(got, []string{"g2"}) {
		t.Fatalf("unexpected ids after delete: %v", got)
	}
	if err := sink.DeleteOne(ctx, CollectionGoals, "g1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteSinkNamespacesAreIsolated(t *testing.T) {
	sink, db := setupSink(t)
	other, err := NewSQLiteSink(db, "other")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	ctx := context.Background()
	if err := sink.UpsertOne(ctx, CollectionHabits, mustEncode(t, testDoc{ID: "h1"})); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if ids := loadIDs(t, other, CollectionHabits); len(ids) != 0 {
		t.Fatalf("expected other namespace to be empty, got %v", ids)
	}
}

func TestSQLiteSinkRejectsCorruptBlob(t *testing.T) {
	sink, db := setupSink(t)
	if _, err := db.Exec(`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)`,
		"test:tasks", "{not json", "2026-02-09T12:00:00Z"); err != nil {
		t.Fatalf("seed corrupt blob: %v", err)
	}
	if _, err := sink.Load(context.Background(), CollectionTasks); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestDecodeRejectsInvalidPayload(t *testing.T) {
	if _, err := Decode[testDoc]([]byte(`{"title":"no id"}`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for invalid doc, got %v", err)
	}
	if _, err := Decode[testDoc]([]byte(`[`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for bad json, got %v", err)
	}
}

func TestPersistErrorMatchesSentinel(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&PersistError{Op: "upsert", Collection: CollectionTasks, ID: "t1", Err: cause})
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("expected ErrPersist match")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause match")
	}
	var pe *PersistError
	if !errors.As(err, &pe) || pe.ID != "t1" {
		t.Fatalf("expected PersistError with id, got %v", err)
	}
}

func TestMemorySinkMatchesSinkContract(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()
	if err := sink.UpsertOne(ctx, CollectionTasks, mustEncode(t, testDoc{ID: "a"})); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := sink.UpsertOne(ctx, CollectionTasks, mustEncode(t, testDoc{ID: "b"})); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := sink.DeleteOne(ctx, CollectionTasks, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := sink.DeleteOne(ctx, CollectionTasks, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := loadIDs(t, sink, CollectionTasks); !equalIDs(got, []string{"b"}) {
		t.Fatalf("unexpected ids: %v", got)
	}
}
