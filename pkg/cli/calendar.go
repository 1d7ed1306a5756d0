package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tomato/pkg/auth"
	"github.com/harrisonrobin/tomato/pkg/colors"
	"github.com/harrisonrobin/tomato/pkg/config"
	"github.com/harrisonrobin/tomato/pkg/google"
	"github.com/harrisonrobin/tomato/pkg/index"
	"github.com/harrisonrobin/tomato/pkg/model"
	"github.com/harrisonrobin/tomato/pkg/overdue"
)

func newCalendarCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Mirror tasks into Google Calendar",
		Long: `Mirror tasks into the Google Calendar named by calendar.name.

Run "tomato auth google" once before the first push.`,
	}

	var asJSON bool
	push := &cobra.Command{
		Use:   "push",
		Short: "Create or update one event per dated task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			tasks, err := st.ListTasks(ctx)
			if err != nil {
				return err
			}
			sessions, err := st.ListSessions(ctx, model.SessionFilter{})
			if err != nil {
				return err
			}
			settings, err := st.GetSettings(ctx)
			if err != nil {
				return err
			}

			m, err := a.mirror(ctx)
			if err != nil {
				return err
			}
			stats, err := m.Push(ctx, tasks, sessions, settings)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), stats)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mirrored %d, removed %d, skipped %d, failed %d\n",
				stats.Mirrored, stats.Removed, stats.Skipped, stats.Failed)
			if stats.Failed > 0 {
				return fmt.Errorf("%d task(s) could not be mirrored", stats.Failed)
			}
			return nil
		},
	}
	push.Flags().BoolVar(&asJSON, "json", false, "print the counts as JSON")

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Mark events of tasks that are now overdue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mirror(cmd.Context())
			if err != nil {
				return err
			}
			n, err := m.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d overdue event(s)\n", n)
			if next, ok := m.NextDue(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Next due: %s at %s\n", next.Summary, next.Due.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	var window time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete events whose task no longer exists locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			tasks, err := st.ListTasks(ctx)
			if err != nil {
				return err
			}
			m, err := a.mirror(ctx)
			if err != nil {
				return err
			}
			n, err := m.Prune(ctx, tasks, time.Now().Add(-window))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d orphaned event(s)\n", n)
			return nil
		},
	}
	prune.Flags().DurationVar(&window, "since", 30*24*time.Hour, "only look at events starting within this long ago or later")

	cmd.AddCommand(push, sweep, prune)
	return cmd
}

// mirror wires the calendar service to the on-disk caches.
func (a *app) mirror(ctx context.Context) (*google.Mirror, error) {
	dir := config.Dir()
	srv, err := auth.CalendarService(ctx, a.cfg.Calendar.CredentialsFile,
		auth.NewTokenStore(dir, auth.AccountGoogle), a.log)
	if err != nil {
		return nil, err
	}
	idx, err := index.Open(dir)
	if err != nil {
		return nil, err
	}
	cal, err := google.NewClient(ctx, srv, a.cfg.Calendar.Name, idx)
	if err != nil {
		return nil, err
	}
	cc, err := colors.NewColorCache(dir)
	if err != nil {
		return nil, err
	}
	due, err := overdue.Open(dir)
	if err != nil {
		return nil, err
	}
	return google.NewMirror(cal, cc, due, idx, a.log), nil
}
