package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
)

type Type string

const (
	TypeAdd      Type = "add"
	TypeClarify  Type = "clarify"
	TypeDone     Type = "done"
	TypeToggle   Type = "toggle"
	TypeDelete   Type = "rm"
	TypeRestore  Type = "restore"
	TypePurge    Type = "purge"
	TypeMove     Type = "move"
	TypeSchedule Type = "schedule"
	TypeView     Type = "view"
	TypeFind     Type = "find"
	TypeHabit    Type = "habit"
	TypeJournal  Type = "journal"
)

// Types lists the palette commands in help order.
var Types = []Type{
	TypeAdd, TypeClarify, TypeDone, TypeToggle, TypeDelete, TypeRestore, TypePurge,
	TypeMove, TypeSchedule, TypeView, TypeFind, TypeHabit, TypeJournal,
}

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalidArg(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

type AddArgs struct {
	Title  string
	Tags   []string
	GoalID string
	Due    *time.Time
}

// TargetArgs names one task or habit by list position or id prefix.
type TargetArgs struct {
	Target string
}

type ClarifyArgs struct {
	Target   string
	Quadrant model.Quadrant
}

// MoveArgs carries either a GTD list or an Eisenhower quadrant.
type MoveArgs struct {
	Target   string
	Status   model.TaskStatus
	Quadrant model.Quadrant
}

type ScheduleArgs struct {
	Target string
	Day    time.Time
	Start  string
	End    string
}

type ViewArgs struct {
	Name string
}

type FindArgs struct {
	Query string
}

type Command struct {
	Type     Type
	Raw      string
	Add      *AddArgs
	Target   *TargetArgs
	Clarify  *ClarifyArgs
	Move     *MoveArgs
	Schedule *ScheduleArgs
	View     *ViewArgs
	Find     *FindArgs
}

// Parse reads one palette line. Relative days resolve against now.
func Parse(input string, now time.Time) (Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args, now)
	case TypeClarify:
		return parseClarify(input, args)
	case TypeDone, TypeToggle, TypeDelete, TypeRestore, TypePurge, TypeHabit:
		if len(args) != 1 {
			return Command{}, invalidArg("%s requires exactly one target", head)
		}
		return Command{Type: Type(head), Raw: input, Target: &TargetArgs{Target: args[0]}}, nil
	case TypeMove:
		return parseMove(input, args)
	case TypeSchedule:
		return parseSchedule(input, args, now)
	case TypeView:
		name := "all"
		if len(args) > 0 {
			name = strings.ToLower(args[0])
		}
		return Command{Type: TypeView, Raw: input, View: &ViewArgs{Name: name}}, nil
	case TypeFind:
		if len(args) == 0 {
			return Command{}, invalidArg("find requires a query")
		}
		return Command{Type: TypeFind, Raw: input, Find: &FindArgs{Query: strings.Join(args, " ")}}, nil
	case TypeJournal:
		return Command{Type: TypeJournal, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string, now time.Time) (Command, error) {
	out := AddArgs{}
	words := make([]string, 0, len(args))
	for _, arg := range args {
		lower := strings.ToLower(arg)
		switch {
		case strings.HasPrefix(lower, "tag:"):
			if tag := strings.TrimSpace(arg[len("tag:"):]); tag != "" {
				out.Tags = append(out.Tags, tag)
			}
		case strings.HasPrefix(lower, "goal:"):
			out.GoalID = strings.TrimSpace(arg[len("goal:"):])
		case strings.HasPrefix(lower, "due:"):
			day, err := ParseDay(arg[len("due:"):], now)
			if err != nil {
				return Command{}, invalidArg("%v", err)
			}
			out.Due = &day
		default:
			words = append(words, arg)
		}
	}
	out.Title = strings.TrimSpace(strings.Join(words, " "))
	if out.Title == "" {
		return Command{}, invalidArg("add requires a title")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseClarify(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalidArg("clarify requires target and quadrant")
	}
	q := model.Quadrant(strings.ToLower(args[1]))
	if !q.IsValid() {
		return Command{}, invalidArg("unknown quadrant %q (want do, schedule, delegate or eliminate)", args[1])
	}
	return Command{Type: TypeClarify, Raw: raw, Clarify: &ClarifyArgs{Target: args[0], Quadrant: q}}, nil
}

var moveStatuses = map[string]model.TaskStatus{
	"active":      model.TaskStatusActive,
	"waiting":     model.TaskStatusWaitingFor,
	"waiting_for": model.TaskStatusWaitingFor,
	"someday":     model.TaskStatusSomeday,
}

func parseMove(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalidArg("move requires target and destination")
	}
	dest := strings.ToLower(args[1])
	out := MoveArgs{Target: args[0]}
	if status, ok := moveStatuses[dest]; ok {
		out.Status = status
	} else if q := model.Quadrant(dest); q.IsValid() {
		out.Quadrant = q
	} else {
		return Command{}, invalidArg("unknown destination %q", args[1])
	}
	return Command{Type: TypeMove, Raw: raw, Move: &out}, nil
}

func parseSchedule(raw string, args []string, now time.Time) (Command, error) {
	if len(args) < 2 || len(args) > 3 {
		return Command{}, invalidArg("schedule requires target, day and optional HH:MM-HH:MM")
	}
	day, err := ParseDay(args[1], now)
	if err != nil {
		return Command{}, invalidArg("%v", err)
	}
	out := ScheduleArgs{Target: args[0], Day: day}
	if len(args) == 3 {
		start, end, _ := strings.Cut(args[2], "-")
		for _, clock := range []string{start, end} {
			if clock == "" {
				continue
			}
			if _, err := model.ParseClock(clock); err != nil {
				return Command{}, invalidArg("%v", err)
			}
		}
		out.Start, out.End = start, end
	}
	return Command{Type: TypeSchedule, Raw: raw, Schedule: &out}, nil
}

// ParseDay accepts today, tomorrow, +N (days from now) or YYYY-MM-DD.
func ParseDay(v string, now time.Time) (time.Time, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	base := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case v == "today":
		return base, nil
	case v == "tomorrow":
		return base.AddDate(0, 0, 1), nil
	case strings.HasPrefix(v, "+"):
		var n int
		if _, err := fmt.Sscanf(v, "+%d", &n); err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("invalid day offset %q", v)
		}
		return base.AddDate(0, 0, n), nil
	}
	d, err := time.ParseInLocation(model.DayLayout, v, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q", v)
	}
	return d, nil
}
