package cli

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tomato/pkg/importer"
	"github.com/harrisonrobin/tomato/pkg/orgmode"
	"github.com/harrisonrobin/tomato/pkg/taskwarrior"
)

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import tasks from other tools",
	}

	var binary string
	tw := &cobra.Command{
		Use:   "taskwarrior [filter...]",
		Short: "Import tasks from Taskwarrior",
		Long: `Import tasks from "task export". The filter is passed to Taskwarrior
unchanged, so "tomato import taskwarrior project:work status:pending"
imports what "task project:work status:pending export" prints.

Taskwarrior uuids become task ids: importing again updates tasks that
changed in Taskwarrior and leaves the others alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := taskwarrior.NewClient()
			if binary != "" {
				client.Binary = binary
			}
			tasks, err := client.GetTasks(ctx, args)
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
			stats, err := taskwarrior.Import(ctx, st, tasks, settings.WorkDurationMinutes)
			if err != nil {
				return err
			}
			a.log.Info("taskwarrior import finished",
				"created", stats.Created, "updated", stats.Updated,
				"unchanged", stats.Unchanged, "skipped", stats.Skipped)
			printImportStats(cmd, len(tasks), stats)
			return nil
		},
	}
	tw.Flags().StringVar(&binary, "task-binary", "", `Taskwarrior executable (default "task")`)

	cmd.AddCommand(tw, newTaskwarriorHookCmd(a), newOrgImportCmd(a))
	return cmd
}

func newTaskwarriorHookCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "taskwarrior-hook",
		Short: "Taskwarrior on-add/on-modify hook",
		Long: `Run from a Taskwarrior on-add or on-modify hook script.

The task JSON arrives on stdin (on-modify sends the old and the new copy)
and the last one is echoed back unchanged, as Taskwarrior requires. Import
failures are logged and never block Taskwarrior.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			input, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			tasks, err := taskwarrior.NewClient().ParseTasks(bytes.NewReader(input))
			if err != nil {
				return fmt.Errorf("error parsing tasks from stdin: %w", err)
			}
			if len(tasks) == 0 {
				return nil
			}
			// echo the raw line so attributes tomato does not model survive
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n", lastLine(input)); err != nil {
				return err
			}
			last := tasks[len(tasks)-1]

			log := a.log.With("task_id", last.UUID)
			st, err := a.openStore(ctx)
			if err != nil {
				log.Warn("hook: could not open store", "error", err)
				return nil
			}
			settings, err := st.GetSettings(ctx)
			if err != nil {
				log.Warn("hook: could not read settings", "error", err)
				return nil
			}
			stats, err := taskwarrior.Import(ctx, st, []taskwarrior.Task{last}, settings.WorkDurationMinutes)
			if err != nil {
				log.Warn("hook: import failed", "error", err)
				return nil
			}
			log.Debug("hook import", "created", stats.Created, "updated", stats.Updated)
			return nil
		},
	}
}

func lastLine(b []byte) []byte {
	lines := bytes.Split(bytes.TrimSpace(b), []byte("\n"))
	return bytes.TrimSpace(lines[len(lines)-1])
}

func newOrgImportCmd(a *app) *cobra.Command {
	var tag string
	cmd := &cobra.Command{
		Use:   "org <file>...",
		Short: "Import TODO headings from Org files",
		Long: `Import TODO, NEXT, STARTED, DONE and CANCELLED headings that carry an
:ID: property. DEADLINE (or SCHEDULED) becomes the due date and [#A]/[#C]
map to high/low priority.

Org keeps no per-heading modification time, so a file's mtime is used: an
edited file updates every task it holds.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := orgmode.ParseFiles(args)
			if err != nil {
				return err
			}
			if tag != "" {
				tasks = orgmode.FilterTasks(tasks, tag)
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := importer.Merge(cmd.Context(), st, tasks)
			if err != nil {
				return err
			}
			a.log.Info("org import finished", "files", len(args),
				"created", stats.Created, "updated", stats.Updated, "unchanged", stats.Unchanged)
			printImportStats(cmd, len(tasks), stats)
			return nil
		},
	}
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "only import headings with this tag")
	return cmd
}

func printImportStats(cmd *cobra.Command, read int, stats importer.Stats) {
	fmt.Fprintf(cmd.OutOrStdout(), "Read %d task(s): %d created, %d updated, %d unchanged, %d skipped\n",
		read, stats.Created, stats.Updated, stats.Unchanged, stats.Skipped)
}
