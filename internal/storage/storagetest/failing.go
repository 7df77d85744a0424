// Package storagetest holds sink doubles shared by store tests.
package storagetest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/storage"
)

var ErrUnavailable = errors.New("storagetest: sink unavailable")

// FlakySink wraps a MemorySink and fails writes while Fail is set.
type FlakySink struct {
	*storage.MemorySink

	mu     sync.Mutex
	fail   bool
	writes int
}

func NewFlakySink() *FlakySink {
	return &FlakySink{MemorySink: storage.NewMemorySink()}
}

func (s *FlakySink) SetFail(v bool) {
	s.mu.Lock()
	s.fail = v
	s.mu.Unlock()
}

// Writes counts write attempts, failed or not.
func (s *FlakySink) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *FlakySink) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.fail {
		return ErrUnavailable
	}
	return nil
}

func (s *FlakySink) Save(ctx context.Context, collection string, records []storage.Record) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.MemorySink.Save(ctx, collection, records)
}

func (s *FlakySink) UpsertOne(ctx context.Context, collection string, rec storage.Record) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.MemorySink.UpsertOne(ctx, collection, rec)
}

func (s *FlakySink) DeleteOne(ctx context.Context, collection string, id string) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.MemorySink.DeleteOne(ctx, collection, id)
}

// Seed writes raw JSON payloads straight into a collection, bypassing
// validation. Payloads without a readable id are keyed by position.
func Seed(ctx context.Context, sink storage.Sink, collection string, payloads ...string) error {
	recs := make([]storage.Record, 0, len(payloads))
	for i, p := range payloads {
		var head struct {
			ID string `json:"id"`
		}
		id := fmt.Sprintf("seed-%d", i)
		if err := json.Unmarshal([]byte(p), &head); err == nil && head.ID != "" {
			id = head.ID
		}
		recs = append(recs, storage.Record{ID: id, Payload: []byte(p)})
	}
	return sink.Save(ctx, collection, recs)
}
