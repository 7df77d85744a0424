package storage

import (
	"context"
	"encoding/json"
	"sync"
)

// MemorySink keeps collections in process memory. It backs degraded sessions
// where no durable store could be opened.
type MemorySink struct {
	mu   sync.Mutex
	data map[string][]Record
}

func NewMemorySink() *MemorySink {
	return &MemorySink{data: make(map[string][]Record)}
}

func (m *MemorySink) Load(_ context.Context, collection string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.data[collection]
	out := make([]Record, 0, len(src))
	for _, rec := range src {
		out = append(out, copyRecord(rec))
	}
	return out, nil
}

func (m *MemorySink) Save(_ context.Context, collection string, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		out = append(out, copyRecord(rec))
	}
	m.data[collection] = out
	return nil
}

func (m *MemorySink) UpsertOne(_ context.Context, collection string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.data[collection]
	for i := range items {
		if items[i].ID == rec.ID {
			items[i] = copyRecord(rec)
			return nil
		}
	}
	m.data[collection] = append(items, copyRecord(rec))
	return nil
}

func (m *MemorySink) DeleteOne(_ context.Context, collection string, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.data[collection]
	for i := range items {
		if items[i].ID == id {
			m.data[collection] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemorySink) Close() error { return nil }

func copyRecord(rec Record) Record {
	return Record{ID: rec.ID, Payload: append(json.RawMessage(nil), rec.Payload...)}
}
