package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tomato/pkg/model"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Manage tasks",
	}
	cmd.AddCommand(
		newTaskAddCmd(a),
		newTaskListCmd(a),
		newTaskUpdateCmd(a),
		newTaskDoneCmd(a),
		newTaskRmCmd(a),
	)
	return cmd
}

type taskFlags struct {
	description string
	priority    string
	due         string
	tags        []string
	estimate    int
	status      string
}

func (f *taskFlags) register(cmd *cobra.Command, withStatus bool) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "longer description")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "low, medium, high or urgent")
	cmd.Flags().StringVar(&f.due, "due", "", `due date (2006-01-02, "2006-01-02 15:04" or RFC 3339; "none" clears)`)
	cmd.Flags().StringSliceVarP(&f.tags, "tag", "t", nil, "tag (repeatable)")
	cmd.Flags().IntVarP(&f.estimate, "estimate", "e", 0, "estimated pomodoros")
	if withStatus {
		cmd.Flags().StringVarP(&f.status, "status", "s", "", "pending, in_progress, completed or cancelled")
	}
}

func newTaskAddCmd(a *app) *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add <title>...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := model.Task{
				Title:              strings.Join(args, " "),
				Description:        f.description,
				Tags:               f.tags,
				EstimatedPomodoros: 1,
			}
			if f.priority != "" {
				p, err := model.ParseTaskPriority(f.priority)
				if err != nil {
					return err
				}
				t.Priority = p
			}
			if f.due != "" {
				d, err := parseDate(f.due)
				if err != nil {
					return err
				}
				t.DueDate = d
			}
			if f.estimate > 0 {
				t.EstimatedPomodoros = f.estimate
			}

			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			created, err := st.CreateTask(cmd.Context(), t)
			if err != nil {
				return err
			}
			a.log.Info("task created", "task_id", created.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", created.ID)
			return nil
		},
	}
	f.register(cmd, false)
	return cmd
}

func newTaskListCmd(a *app) *cobra.Command {
	var (
		asJSON bool
		status string
		all    bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks (active ones unless --all or --status)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			tasks, err := st.ListTasks(cmd.Context())
			if err != nil {
				return err
			}

			var want model.TaskStatus
			if status != "" {
				if want, err = model.ParseTaskStatus(status); err != nil {
					return err
				}
			}
			shown := make([]model.Task, 0, len(tasks))
			for _, t := range tasks {
				switch {
				case want != "" && t.Status != want:
				case want == "" && !all && !t.IsActive():
				default:
					shown = append(shown, t)
				}
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), shown)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tPOMODOROS\tDUE\tTITLE")
			for _, t := range shown {
				due := "-"
				if t.DueDate != nil {
					due = t.DueDate.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
					t.ID, t.Status, t.Priority, t.CompletedPomodoros, t.EstimatedPomodoros, due, t.Title)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().StringVarP(&status, "status", "s", "", "only tasks with this status")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include completed and cancelled tasks")
	return cmd
}

func newTaskUpdateCmd(a *app) *cobra.Command {
	var (
		f     taskFlags
		title string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u model.TaskUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				u.Title = &title
			}
			if flags.Changed("description") {
				u.Description = &f.description
			}
			if flags.Changed("priority") {
				p, err := model.ParseTaskPriority(f.priority)
				if err != nil {
					return err
				}
				u.Priority = &p
			}
			if flags.Changed("status") {
				s, err := model.ParseTaskStatus(f.status)
				if err != nil {
					return err
				}
				u.Status = &s
			}
			if flags.Changed("due") {
				if strings.EqualFold(f.due, "none") {
					u.ClearDueDate = true
				} else {
					d, err := parseDate(f.due)
					if err != nil {
						return err
					}
					u.DueDate = d
				}
			}
			if flags.Changed("tag") {
				u.Tags = append([]string{}, f.tags...)
			}
			if flags.Changed("estimate") {
				u.EstimatedPomodoros = &f.estimate
			}

			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := st.UpdateTask(cmd.Context(), args[0], u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", args[0])
			return nil
		},
	}
	f.register(cmd, true)
	cmd.Flags().StringVar(&title, "title", "", "new title")
	return cmd
}

func newTaskDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>...",
		Short: "Mark tasks completed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			done := model.StatusCompleted
			for _, id := range args {
				if _, err := st.UpdateTask(cmd.Context(), id, model.TaskUpdate{Status: &done}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed task %s\n", id)
			}
			return nil
		},
	}
}

func newTaskRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete tasks locally",
		Long: `Delete tasks from the local store.

Deletion is not propagated by sync: the next sync downloads the task again
if the remote still has it. Use "task update --status cancelled" to retire
a task everywhere.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range args {
				if err := st.DeleteTask(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", id)
			}
			return nil
		},
	}
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

// parseDate accepts RFC 3339 or a local date with optional time.
func parseDate(s string) (*time.Time, error) {
	for _, layout := range dateLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("cannot parse date %q", s)
}
