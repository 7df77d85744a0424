package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/config"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/scheduler"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/update"
)

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Stay running and apply the daily checks hourly and at midnight",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			host := scheduler.NewHost(func(ctx context.Context, now time.Time) {
				r := a.Tick(ctx, now)
				a.Logger.Info("daily check", "habits_reset", r.HabitsReset, "login_bonus", r.LoginBonus != nil)
			}, scheduler.HostOptions{
				Interval: a.Config.TickInterval,
				Location: a.Location,
				Buffer:   a.Config.SchedulerBuffer,
				Logger:   a.Logger,
				Now:      a.Now,
			})
			a.Logger.Info("scheduler running", "interval", a.Config.TickInterval, "store", a.Sink.Backend)
			if err := host.Run(commandContext(cmd)); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func newBoardCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Open the interactive dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logPath := filepath.Join(config.NexusDir(), "nexus.log")
			if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
				return fmt.Errorf("create log dir: %w", err)
			}
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer logFile.Close()

			a, err := opts.open(cmd, logFile)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := commandContext(cmd)
			program := tea.NewProgram(update.NewModel(ctx, a), tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("dashboard failed: %w", err)
			}
			return nil
		},
	}
}
