package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	CollectionTasks  = "tasks"
	CollectionHabits = "habits"
	CollectionGoals  = "goals"
	CollectionMeta   = "meta"
)

// Record is one persisted JSON object keyed by its id.
type Record struct {
	ID      string
	Payload json.RawMessage
}

type Validator interface {
	Validate() error
}

// Encode marshals v into a record keyed by id.
func Encode(id string, v any) (Record, error) {
	if strings.TrimSpace(id) == "" {
		return Record{}, errors.New("storage: record id is required")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s: %w", id, err)
	}
	return Record{ID: id, Payload: raw}, nil
}

// Decode unmarshals a payload and rejects values that fail validation.
func Decode[T Validator](payload []byte) (T, error) {
	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := out.Validate(); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return out, nil
}

func recordID(payload json.RawMessage) string {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return ""
	}
	return head.ID
}
