package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
)

type View string

const (
	ViewAll       View = "all"
	ViewInbox     View = "inbox"
	ViewActive    View = "active"
	ViewToday     View = "today"
	ViewWaiting   View = "waiting"
	ViewSomeday   View = "someday"
	ViewCompleted View = "completed"
	ViewTrash     View = "trash"
	ViewDo        View = "do"
	ViewSchedule  View = "schedule"
	ViewDelegate  View = "delegate"
	ViewEliminate View = "eliminate"
)

// Views lists every view in display order.
var Views = []View{
	ViewAll, ViewInbox, ViewActive, ViewToday, ViewWaiting, ViewSomeday,
	ViewCompleted, ViewTrash, ViewDo, ViewSchedule, ViewDelegate, ViewEliminate,
}

func ParseView(v string) (View, error) {
	want := View(strings.ToLower(strings.TrimSpace(v)))
	if want == "" {
		return ViewAll, nil
	}
	for _, view := range Views {
		if view == want {
			return view, nil
		}
	}
	return "", fmt.Errorf("tasks: unknown view %q", v)
}

// Matches reports whether t belongs in view v on the day containing now.
// Every view except trash excludes deleted tasks.
func (v View) Matches(t model.Task, now time.Time) bool {
	if t.Status == model.TaskStatusDeleted {
		return v == ViewTrash
	}
	switch v {
	case ViewAll:
		return true
	case ViewInbox:
		return t.Status == model.TaskStatusInbox
	case ViewActive:
		return t.Status == model.TaskStatusActive
	case ViewToday:
		if t.Status != model.TaskStatusActive && t.Status != model.TaskStatusWaitingFor {
			return false
		}
		return onDay(t.ScheduledDate, now) || onDay(t.DueDate, now)
	case ViewWaiting:
		return t.Status == model.TaskStatusWaitingFor
	case ViewSomeday:
		return t.Status == model.TaskStatusSomeday
	case ViewCompleted:
		return t.Status == model.TaskStatusCompleted
	case ViewDo, ViewSchedule, ViewDelegate, ViewEliminate:
		if t.Status == model.TaskStatusCompleted {
			return false
		}
		q, ok := model.QuadrantOf(t)
		return ok && string(q) == string(v)
	default:
		return false
	}
}

func onDay(ts *time.Time, now time.Time) bool {
	if ts == nil {
		return false
	}
	return model.SameDay(*ts, now, now.Location())
}
