package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("storage: not found")
	ErrPersist   = errors.New("storage: persist failed")
	ErrMalformed = errors.New("storage: malformed data")
)

// Sink is the durable store behind every collection. Implementations keep
// record order stable across Load/Save.
type Sink interface {
	Load(ctx context.Context, collection string) ([]Record, error)
	Save(ctx context.Context, collection string, records []Record) error
	UpsertOne(ctx context.Context, collection string, rec Record) error
	DeleteOne(ctx context.Context, collection string, id string) error
	Close() error
}

// PersistError reports a durable write that failed after the in-memory
// state had already changed.
type PersistError struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *PersistError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("storage: %s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
}

func (e *PersistError) Unwrap() []error {
	return []error{ErrPersist, e.Err}
}
