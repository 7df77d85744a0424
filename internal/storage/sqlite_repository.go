package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteTimeLayout = time.RFC3339Nano
	LocalNamespace   = "local"
)

// SQLiteSink keeps each collection as one JSON array blob under a fixed key,
// the same shape a browser key/value store holds.
type SQLiteSink struct {
	db        *sql.DB
	namespace string
	now       func() time.Time
}

func NewSQLiteSink(db *sql.DB, namespace string) (*SQLiteSink, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if namespace == "" {
		namespace = LocalNamespace
	}
	return &SQLiteSink{db: db, namespace: namespace, now: time.Now}, nil
}

// OpenSQLite opens the database at path, creating parent directories and
// applying migrations.
func OpenSQLite(path string, namespace string) (*SQLiteSink, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	sink, err := NewSQLiteSink(db, namespace)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return sink, nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func (s *SQLiteSink) key(collection string) string {
	return s.namespace + ":" + collection
}

func (s *SQLiteSink) Load(ctx context.Context, collection string) ([]Record, error) {
	items, err := readBlob(ctx, s.db, s.key(collection))
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(items))
	for _, raw := range items {
		out = append(out, Record{ID: recordID(raw), Payload: raw})
	}
	return out, nil
}

func (s *SQLiteSink) Save(ctx context.Context, collection string, records []Record) error {
	items := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		items = append(items, rec.Payload)
	}
	return writeBlob(ctx, s.db, s.key(collection), items, s.now())
}

func (s *SQLiteSink) UpsertOne(ctx context.Context, collection string, rec Record) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		items, err := readBlob(ctx, tx, s.key(collection))
		if err != nil {
			return err
		}
		replaced := false
		for i, raw := range items {
			if recordID(raw) == rec.ID {
				items[i] = rec.Payload
				replaced = true
				break
			}
		}
		if !replaced {
			items = append(items, rec.Payload)
		}
		return writeBlob(ctx, tx, s.key(collection), items, s.now())
	})
}

func (s *SQLiteSink) DeleteOne(ctx context.Context, collection string, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		items, err := readBlob(ctx, tx, s.key(collection))
		if err != nil {
			return err
		}
		kept := items[:0]
		found := false
		for _, raw := range items {
			if recordID(raw) == id {
				found = true
				continue
			}
			kept = append(kept, raw)
		}
		if !found {
			return ErrNotFound
		}
		return writeBlob(ctx, tx, s.key(collection), kept, s.now())
	})
}

func (s *SQLiteSink) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func readBlob(ctx context.Context, q queryer, key string) ([]json.RawMessage, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return items, nil
}

func writeBlob(ctx context.Context, q queryer, key string, items []json.RawMessage, now time.Time) error {
	if items == nil {
		items = []json.RawMessage{}
	}
	value, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), now.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
