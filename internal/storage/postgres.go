package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS nexus_records (
	owner      TEXT        NOT NULL,
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	position   BIGINT      NOT NULL,
	payload    JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (owner, collection, id)
)`

// PostgresSink stores one row per record, scoped to the signed-in owner.
type PostgresSink struct {
	db    *sql.DB
	owner string
	now   func() time.Time
}

func NewPostgresSink(db *sql.DB, owner string) (*PostgresSink, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if owner == "" {
		return nil, errors.New("storage: owner is required")
	}
	return &PostgresSink{db: db, owner: owner, now: time.Now}, nil
}

// OpenPostgres connects to dsn and ensures the records table exists.
func OpenPostgres(ctx context.Context, dsn string, owner string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure postgres schema: %w", err)
	}
	sink, err := NewPostgresSink(db, owner)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return sink, nil
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}

func (s *PostgresSink) Load(ctx context.Context, collection string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload FROM nexus_records
		WHERE owner = $1 AND collection = $2
		ORDER BY position ASC, id ASC`, s.owner, collection)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		out = append(out, Record{ID: id, Payload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", collection, err)
	}
	return out, nil
}

func (s *PostgresSink) Save(ctx context.Context, collection string, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nexus_records WHERE owner = $1 AND collection = $2`, s.owner, collection); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear %s: %w", collection, err)
	}
	now := s.now().UTC()
	for i, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO nexus_records (owner, collection, id, position, payload, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			s.owner, collection, rec.ID, i, []byte(rec.Payload), now,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert %s/%s: %w", collection, rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresSink) UpsertOne(ctx context.Context, collection string, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nexus_records (owner, collection, id, position, payload, updated_at)
		VALUES ($1, $2, $3,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM nexus_records WHERE owner = $1 AND collection = $2),
			$4, $5)
		ON CONFLICT (owner, collection, id)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		s.owner, collection, rec.ID, []byte(rec.Payload), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, rec.ID, err)
	}
	return nil
}

func (s *PostgresSink) DeleteOne(ctx context.Context, collection string, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM nexus_records WHERE owner = $1 AND collection = $2 AND id = $3`,
		s.owner, collection, id,
	)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
