package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/app"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/commands"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/storage"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/tasks"
)

func newAddCmd(opts *options) *cobra.Command {
	var (
		desc      string
		tags      []string
		goalID    string
		due       string
		taskType  string
		estimate  int
		urgent    bool
		important bool
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Capture a task (into the inbox unless both --urgent and --important are set)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			in := tasks.NewTask{
				Title:        strings.Join(args, " "),
				Description:  desc,
				Type:         model.TaskType(taskType),
				Tags:         tags,
				GoalID:       goalID,
				TimeEstimate: estimate,
			}
			if due != "" {
				d, err := commands.ParseDay(due, a.Now().In(a.Location))
				if err != nil {
					return err
				}
				in.DueDate = &d
			}
			if cmd.Flags().Changed("urgent") || cmd.Flags().Changed("important") {
				in.Urgent = model.Bool(urgent)
				in.Important = model.Bool(important)
			}
			t, err := a.Tasks.Create(commandContext(cmd), in)
			if err != nil && !errors.Is(err, storage.ErrPersist) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %q to %s\n", shortID(t.ID), t.Title, t.Status)
			return commands.Unsaved(err)
		},
	}
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "description")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag (repeatable)")
	cmd.Flags().StringVarP(&goalID, "goal", "g", "", "linked goal id")
	cmd.Flags().StringVar(&due, "due", "", "due day (today|tomorrow|+N|YYYY-MM-DD)")
	cmd.Flags().StringVar(&taskType, "type", string(model.TaskTypeAction), "action|project|not_todo|reference|someday")
	cmd.Flags().IntVar(&estimate, "estimate", 0, "time estimate in minutes")
	cmd.Flags().BoolVarP(&urgent, "urgent", "u", false, "mark urgent")
	cmd.Flags().BoolVarP(&important, "important", "i", false, "mark important")
	return cmd
}

func newEditCmd(opts *options) *cobra.Command {
	var (
		title    string
		desc     string
		tags     []string
		goalID   string
		due      string
		clearDue bool
		category string
		gtdCtx   string
		estimate int
		in       string
	)
	cmd := &cobra.Command{
		Use:   "edit <task>",
		Short: "Change task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := resolveIn(a, args[0], in)
			if err != nil {
				return err
			}
			var p tasks.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				p.Title = &title
			}
			if flags.Changed("desc") {
				p.Description = &desc
			}
			if flags.Changed("tag") {
				p.Tags, p.SetTags = tags, true
			}
			if flags.Changed("goal") {
				p.GoalID = &goalID
			}
			if flags.Changed("category") {
				p.Category = &category
			}
			if flags.Changed("context") {
				p.Context = &gtdCtx
			}
			if flags.Changed("estimate") {
				p.TimeEstimate = &estimate
			}
			if due != "" {
				d, err := commands.ParseDay(due, a.Now().In(a.Location))
				if err != nil {
					return err
				}
				p.DueDate = &d
			}
			p.ClearDueDate = clearDue

			out, changed, err := a.Tasks.Edit(commandContext(cmd), t.ID, p)
			msg, err := commands.TaskOutcome("updated", out, changed, err)
			if msg != "" {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "description")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "replace tags")
	cmd.Flags().StringVarP(&goalID, "goal", "g", "", "linked goal id (empty unlinks)")
	cmd.Flags().StringVar(&due, "due", "", "due day (today|tomorrow|+N|YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&gtdCtx, "context", "", "GTD context, e.g. @home")
	cmd.Flags().IntVar(&estimate, "estimate", 0, "time estimate in minutes")
	cmd.Flags().StringVar(&in, "in", string(tasks.ViewAll), "view that numeric references count in")
	return cmd
}

// newLineCmd builds a command that runs the matching palette command, so the
// CLI and the dashboard share one implementation.
func newLineCmd(opts *options, use, short string, nargs int, defaultView string) *cobra.Command {
	var in string
	name := strings.Fields(use)[0]
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLine(cmd, opts, in, name+" "+strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&in, "in", defaultView, "view that numeric references count in")
	return cmd
}

func newScheduleCmd(opts *options) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "schedule <task> <day> [HH:MM-HH:MM]",
		Short: "Put a task on the calendar",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLine(cmd, opts, in, "schedule "+strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&in, "in", string(tasks.ViewAll), "view that numeric references count in")
	return cmd
}

func newFindCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "find <query>",
		Short: "Fuzzy search task titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLine(cmd, opts, string(tasks.ViewAll), "find "+strings.Join(args, " "))
		},
	}
}

func newJournalCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "journal",
		Short: "Record that a journal entry was written",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLine(cmd, opts, string(tasks.ViewAll), "journal")
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "ls [view]",
		Aliases: []string{"list"},
		Short:   "List tasks in a view (all, inbox, active, today, waiting, someday, completed, trash, do, schedule, delegate, eliminate)",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			v, err := tasks.ParseView(name)
			if err != nil {
				return err
			}
			a, err := opts.open(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			printTasks(cmd.OutOrStdout(), a.Tasks.List(v))
			return nil
		},
	}
}

func runLine(cmd *cobra.Command, opts *options, in, line string) error {
	v, err := tasks.ParseView(in)
	if err != nil {
		return err
	}
	a, err := opts.open(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	parsed, err := commands.Parse(line, a.Now().In(a.Location))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	res, err := commands.Execute(parsed, commands.Bind(commandContext(cmd), commands.Session{
		App:  a,
		Rows: a.Tasks.List(v),
		ShowMatches: func(_ string, matches []model.Task) (commands.Result, error) {
			printTasks(out, matches)
			return commands.Result{}, nil
		},
	}))
	if res.Message != "" {
		fmt.Fprintln(out, res.Message)
	}
	return err
}

func resolveIn(a *app.App, ref, in string) (model.Task, error) {
	v, err := tasks.ParseView(in)
	if err != nil {
		return model.Task{}, err
	}
	return a.ResolveTask(ref, a.Tasks.List(v))
}

func printTasks(w io.Writer, rows []model.Task) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no tasks)")
		return
	}
	for i, t := range rows {
		fmt.Fprintf(w, "%3d. %s %-11s %-6s %s", i+1, shortID(t.ID), t.Status, t.Priority, t.Title)
		if q, ok := model.QuadrantOf(t); ok {
			fmt.Fprintf(w, " [%s]", q)
		}
		if t.DueDate != nil {
			fmt.Fprintf(w, " due:%s", model.Day(*t.DueDate))
		}
		if len(t.Tags) > 0 {
			fmt.Fprintf(w, " #%s", strings.Join(t.Tags, " #"))
		}
		fmt.Fprintln(w)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
