package tasks

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/storage"
)

// Older clients wrote these status spellings.
var statusAliases = map[string]model.TaskStatus{
	"todo":        model.TaskStatusInbox,
	"in-progress": model.TaskStatusActive,
	"in_progress": model.TaskStatusActive,
	"today":       model.TaskStatusActive,
	"waiting":     model.TaskStatusWaitingFor,
	"waiting-for": model.TaskStatusWaitingFor,
	"done":        model.TaskStatusCompleted,
	"trash":       model.TaskStatusDeleted,
}

var typeAliases = map[string]model.TaskType{
	"":         model.TaskTypeAction,
	"task":     model.TaskTypeAction,
	"not-todo": model.TaskTypeNotTodo,
	"nottodo":  model.TaskTypeNotTodo,
}

// decodeTask parses one stored task, migrating legacy spellings before
// validating it.
func decodeTask(payload []byte) (model.Task, error) {
	var t model.Task
	if err := json.Unmarshal(payload, &t); err != nil {
		return model.Task{}, fmt.Errorf("%w: %v", storage.ErrMalformed, err)
	}
	status := strings.ToLower(strings.TrimSpace(string(t.Status)))
	if alias, ok := statusAliases[status]; ok {
		t.Status = alias
	} else {
		t.Status = model.TaskStatus(status)
	}
	kind := strings.ToLower(strings.TrimSpace(string(t.Type)))
	if alias, ok := typeAliases[kind]; ok {
		t.Type = alias
	} else {
		t.Type = model.TaskType(kind)
	}
	t.Priority = model.Priority(strings.ToLower(strings.TrimSpace(string(t.Priority))))
	if t.Priority == "" {
		if t.Clarified {
			t.Priority = model.Classify(t.Flags())
		} else {
			t.Priority = model.PriorityMedium
		}
	}
	if err := t.Validate(); err != nil {
		return model.Task{}, fmt.Errorf("%w: %v", storage.ErrMalformed, err)
	}
	return t, nil
}

func encodeTask(t model.Task) (storage.Record, error) {
	return storage.Encode(t.ID, t)
}
