package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/app"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/config"
)

type options struct {
	configPath string
	logLevel   string
}

func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "nexus",
		Short:         "NEXUS - tasks, habits, goals and XP in one place",
		Long:          "NEXUS keeps a GTD task list with an Eisenhower matrix, daily habits, goals that track their linked tasks, and an XP ledger that rewards all of it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ~/.nexus/config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level (debug|info|warn|error)")

	root.AddCommand(
		newAddCmd(opts),
		newEditCmd(opts),
		newLineCmd(opts, "clarify <task> <do|schedule|delegate|eliminate>", "Record the Eisenhower flags of a task", 2, "all"),
		newLineCmd(opts, "done <task>", "Complete a task", 1, "all"),
		newLineCmd(opts, "toggle <task>", "Complete a task, or reopen a completed one", 1, "all"),
		newLineCmd(opts, "rm <task>", "Move a task to the trash", 1, "all"),
		newLineCmd(opts, "restore <task>", "Return a trashed task to the inbox", 1, "trash"),
		newLineCmd(opts, "purge <task>", "Delete a task permanently", 1, "trash"),
		newLineCmd(opts, "move <task> <active|waiting|someday|do|schedule|delegate|eliminate>", "Move a task to a list or quadrant", 2, "all"),
		newScheduleCmd(opts),
		newListCmd(opts),
		newFindCmd(opts),
		newJournalCmd(opts),
		newHabitCmd(opts),
		newGoalCmd(opts),
		newStatusCmd(opts),
		newTickCmd(opts),
		newRunCmd(opts),
		newBoardCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// Execute runs the command tree until it finishes or the process is
// interrupted.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.Version = version
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// open starts a session whose logs go to logOut.
func (o *options) open(cmd *cobra.Command, logOut io.Writer) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Log.NewLogger(logOut)
	if err != nil {
		return nil, err
	}
	a, err := app.Open(commandContext(cmd), app.Options{Config: cfg, Logger: logger})
	if err != nil {
		return nil, err
	}
	if a.Sink.Degraded {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: no durable store available, changes last for this run only")
	}
	return a, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
