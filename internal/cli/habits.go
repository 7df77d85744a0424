package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/commands"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/habits"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/storage"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/tasks"
)

func newHabitCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habit",
		Short: "Track daily habits",
	}
	cmd.AddCommand(newHabitAddCmd(opts), newHabitDoneCmd(opts), newHabitListCmd(opts), newHabitRemoveCmd(opts))
	return cmd
}

func newHabitAddCmd(opts *options) *cobra.Command {
	var (
		category string
		target   int
		daily    int
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Start tracking a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			h, err := a.Habits.Create(commandContext(cmd), habits.NewHabit{Title: args[0], Category: category, Target: target, DailyTarget: daily})
			if err != nil && !errors.Is(err, storage.ErrPersist) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tracking %s %q, %d per day\n", shortID(h.ID), h.Title, h.DailyTarget)
			return commands.Unsaved(err)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().IntVar(&target, "target", 1, "overall target")
	cmd.Flags().IntVar(&daily, "daily", 1, "completions needed per day")
	return cmd
}

func newHabitDoneCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "done <habit>",
		Short: "Record one completion for today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLine(cmd, opts, string(tasks.ViewAll), "habit "+args[0])
		},
	}
}

func newHabitListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List habits with today's progress",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			list := a.Habits.List()
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "(no habits)")
				return nil
			}
			for i, h := range list {
				fmt.Fprintf(out, "%3d. [%s] %s %d/%d today  streak %d  %s\n", i+1, habitMark(h.Status), shortID(h.ID), h.TodayCompletions, h.DailyTarget, h.Streak, h.Title)
			}
			return nil
		},
	}
}

func newHabitRemoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <habit>",
		Short: "Stop tracking a habit and drop its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			h, err := a.ResolveHabit(args[0])
			if err != nil {
				return err
			}
			if _, err := a.Habits.Delete(commandContext(cmd), h.ID); err != nil {
				return commands.Unsaved(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed habit %q\n", h.Title)
			return nil
		},
	}
}

func habitMark(s model.HabitStatus) string {
	switch s {
	case model.HabitStatusCompleted:
		return "x"
	case model.HabitStatusPartial:
		return "~"
	case model.HabitStatusMissed:
		return "!"
	default:
		return " "
	}
}
