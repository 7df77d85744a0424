package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add      func(AddArgs) (Result, error)
	Clarify  func(ClarifyArgs) (Result, error)
	Done     func(TargetArgs) (Result, error)
	Toggle   func(TargetArgs) (Result, error)
	Delete   func(TargetArgs) (Result, error)
	Restore  func(TargetArgs) (Result, error)
	Purge    func(TargetArgs) (Result, error)
	Move     func(MoveArgs) (Result, error)
	Schedule func(ScheduleArgs) (Result, error)
	View     func(ViewArgs) (Result, error)
	Find     func(FindArgs) (Result, error)
	Habit    func(TargetArgs) (Result, error)
	Journal  func() (Result, error)
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}

func Execute(cmd Command, h Handlers) (Result, error) {
	target := func(fn func(TargetArgs) (Result, error)) (Result, error) {
		if fn == nil {
			return Result{}, missing(cmd.Type)
		}
		return fn(*cmd.Target)
	}

	switch cmd.Type {
	case TypeAdd:
		if h.Add == nil {
			return Result{}, missing(cmd.Type)
		}
		return h.Add(*cmd.Add)
	case TypeClarify:
		if h.Clarify == nil {
			return Result{}, missing(cmd.Type)
		}
		return h.Clarify(*cmd.Clarify)
	case TypeDone:
		return target(h.Done)
	case TypeToggle:
		return target(h.Toggle)
	case TypeDelete:
		return target(h.Delete)
	case TypeRestore:
		return target(h.Restore)
	case TypePurge:
		return target(h.Purge)
	case TypeHabit:
		return target(h.Habit)
	case TypeMove:
		if h.Move == nil {
			return Result{}, missing(cmd.Type)
		}
		return h.Move(*cmd.Move)
	case TypeSchedule:
		if h.Schedule == nil {
			return Result{}, missing(cmd.Type)
		}
		return h.Schedule(*cmd.Schedule)
	case TypeView:
		if h.View == nil {
			return Result{}, missing(cmd.Type)
		}
		return h.View(*cmd.View)
	case TypeFind:
		if h.Find == nil {
			return Result{}, missing(cmd.Type)
		}
		return h.Find(*cmd.Find)
	case TypeJournal:
		if h.Journal == nil {
			return Result{}, missing(cmd.Type)
		}
		return h.Journal()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
