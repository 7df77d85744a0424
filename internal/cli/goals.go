package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/commands"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/storage"
)

func newGoalCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage goals and their milestones",
	}
	cmd.AddCommand(newGoalAddCmd(opts), newGoalListCmd(opts), newGoalMilestoneCmd(opts), newGoalSyncCmd(opts))
	return cmd
}

func newGoalAddCmd(opts *options) *cobra.Command {
	var milestones []string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a goal; link tasks to it with `nexus add --goal <id>`",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := a.Goals.Create(commandContext(cmd), args[0], milestones)
			if err != nil && !errors.Is(err, storage.ErrPersist) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "goal %s %q created with %d milestone(s)\n", g.ID, g.Title, len(g.Milestones))
			return commands.Unsaved(err)
		},
	}
	cmd.Flags().StringArrayVarP(&milestones, "milestone", "m", nil, "milestone title (repeatable)")
	return cmd
}

func newGoalListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List goals with progress and milestones",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.Goals.List(commandContext(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "(no goals)")
				return nil
			}
			for i, g := range list {
				fmt.Fprintf(out, "%3d. %s %3d%% %-11s %s\n", i+1, shortID(g.ID), g.Progress, g.Status, g.Title)
				for j, m := range g.Milestones {
					mark := " "
					if m.Completed {
						mark = "x"
					}
					fmt.Fprintf(out, "       %d. [%s] %s\n", j+1, mark, m.Title)
				}
			}
			return nil
		},
	}
}

func newGoalMilestoneCmd(opts *options) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "milestone <goal> <n>",
		Short: "Mark milestone n of a goal done (or open again with --undo)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("milestone number must be a positive integer, got %q", args[1])
			}
			a, err := opts.open(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := commandContext(cmd)
			g, err := a.ResolveGoal(ctx, args[0])
			if err != nil {
				return err
			}
			g, _, err = a.Goals.SetMilestone(ctx, g.ID, n-1, !undo)
			if err != nil && !errors.Is(err, storage.ErrPersist) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%q: milestone %d of %d updated, goal %s\n", g.Title, n, len(g.Milestones), g.Status)
			return commands.Unsaved(err)
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark the milestone open again")
	return cmd
}

func newGoalSyncCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Recompute goal progress from linked tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			updates, err := a.Reconciler.Reconcile(commandContext(cmd))
			for _, u := range updates {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d%% -> %d%%\n", u.GoalID, u.From, u.To)
			}
			if len(updates) == 0 && err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "goals already up to date")
			}
			return err
		},
	}
}
