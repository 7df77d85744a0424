package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/app"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/views"
)

func newStatusCmd(opts *options) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show level, XP, streaks, habits and goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			md := views.SummaryMarkdown(a.Summary(commandContext(cmd)))
			if raw {
				fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), views.RenderMarkdown(md, views.DefaultWidth))
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "markdown", false, "print the summary as plain markdown")
	return cmd
}

func newTickCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run the daily checks once: habit reset and login bonus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			printTick(cmd, a.OpenReport)
			return nil
		},
	}
}

func printTick(cmd *cobra.Command, r app.TickReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tick at %s\n", r.At.Format(time.RFC3339))
	if r.HabitsReset {
		fmt.Fprintln(out, "- new day: habits reset")
	}
	if r.LoginBonus != nil {
		fmt.Fprintf(out, "- daily login: +%d xp (level %d)\n", r.LoginBonus.Amount, r.LoginBonus.Level)
	}
	if !r.HabitsReset && r.LoginBonus == nil {
		fmt.Fprintln(out, "- nothing due")
	}
}
