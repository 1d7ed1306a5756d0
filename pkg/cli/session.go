package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tomato/pkg/model"
	"github.com/harrisonrobin/tomato/pkg/store"
)

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Run and record pomodoro sessions",
	}
	cmd.AddCommand(
		newSessionStartCmd(a),
		newSessionTransitionCmd(a, "pause", "Pause a running session", model.Session.Pause),
		newSessionTransitionCmd(a, "resume", "Resume a paused session", model.Session.Resume),
		newSessionCompleteCmd(a),
		newSessionListCmd(a),
	)
	return cmd
}

func newSessionStartCmd(a *app) *cobra.Command {
	var taskID, kind string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			typ, err := model.ParseSessionType(kind)
			if err != nil {
				return err
			}
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			settings, err := st.GetSettings(ctx)
			if err != nil {
				return err
			}

			var task *model.Task
			if taskID != "" {
				t, err := st.GetTask(ctx, taskID)
				if err != nil {
					return err
				}
				task = &t
			}

			sess, err := st.CreateSession(ctx, model.Session{
				TaskID:          taskID,
				SessionType:     typ,
				DurationMinutes: settings.DurationFor(typ),
			})
			if err != nil {
				return err
			}
			u, err := sess.Start(time.Now().UTC())
			if err != nil {
				return err
			}
			if sess, err = st.UpdateSession(ctx, sess.ID, u); err != nil {
				return err
			}

			if task != nil && typ == model.SessionWork && task.Status == model.StatusPending {
				inProgress := model.StatusInProgress
				if _, err := st.UpdateTask(ctx, task.ID, model.TaskUpdate{Status: &inProgress}); err != nil {
					return err
				}
			}
			a.log.Info("session started", "session_id", sess.ID, "type", string(typ))
			fmt.Fprintf(cmd.OutOrStdout(), "Started %s session %s (%d min)\n", typ, sess.ID, sess.DurationMinutes)
			return nil
		},
	}
	cmd.Flags().StringVar(&taskID, "task", "", "attach the session to this task")
	cmd.Flags().StringVar(&kind, "type", string(model.SessionWork), "work, short_break or long_break")
	return cmd
}

func newSessionTransitionCmd(a *app, name, short string, transition func(model.Session, time.Time) (model.SessionUpdate, error)) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			sess, err := st.GetSession(ctx, args[0])
			if err != nil {
				return err
			}
			u, err := transition(sess, time.Now().UTC())
			if err != nil {
				return err
			}
			sess, err = st.UpdateSession(ctx, sess.ID, u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s is %s (%s left)\n",
				sess.ID, sess.State, time.Duration(sess.RemainingSeconds)*time.Second)
			return nil
		},
	}
}

func newSessionCompleteCmd(a *app) *cobra.Command {
	var (
		rating int
		notes  string
	)
	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Finish a session",
		Long: `Finish a session. Completing a work session counts one pomodoro
towards its task.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			sess, err := st.GetSession(ctx, args[0])
			if err != nil {
				return err
			}
			var r *int
			if cmd.Flags().Changed("rating") {
				r = &rating
			}
			u, err := sess.Complete(time.Now().UTC(), r, notes)
			if err != nil {
				return err
			}
			if sess, err = st.UpdateSession(ctx, sess.ID, u); err != nil {
				return err
			}
			if err := countPomodoro(cmd, st, sess); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed session %s\n", sess.ID)
			return nil
		},
	}
	cmd.Flags().IntVarP(&rating, "rating", "r", 0, "focus rating from 1 to 5")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "notes about the session")
	return cmd
}

func countPomodoro(cmd *cobra.Command, st *store.Store, sess model.Session) error {
	if sess.SessionType != model.SessionWork || sess.TaskID == "" {
		return nil
	}
	t, err := st.GetTask(cmd.Context(), sess.TaskID)
	if err != nil {
		return err
	}
	n := t.CompletedPomodoros + 1
	_, err = st.UpdateTask(cmd.Context(), t.ID, model.TaskUpdate{CompletedPomodoros: &n})
	return err
}

func newSessionListCmd(a *app) *cobra.Command {
	var (
		asJSON bool
		taskID string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List sessions, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			sessions, err := st.ListSessions(cmd.Context(), model.SessionFilter{TaskID: taskID})
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), sessions)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tSTATE\tMINUTES\tTASK\tCREATED")
			for _, s := range sessions {
				task := s.TaskID
				if task == "" {
					task = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					s.ID, s.SessionType, s.State, s.DurationMinutes, task, s.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().StringVar(&taskID, "task", "", "only sessions of this task")
	return cmd
}
