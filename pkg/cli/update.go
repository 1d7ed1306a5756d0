package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUpdateCheckCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "update-check",
		Short: "Ask the sync service whether a newer release exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.remoteAPI()
			if err != nil {
				return err
			}
			info, err := api.CheckForUpdates(cmd.Context(), Version)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, map[string]any{"update_available": info != nil, "update": info})
			}
			if info == nil {
				fmt.Fprintf(out, "tomato %s is up to date\n", Version)
				return nil
			}
			fmt.Fprintf(out, "tomato %s is available (running %s)\n", info.Version, Version)
			if info.IsCritical {
				fmt.Fprintln(out, "This is a critical update.")
			}
			if info.DownloadURL != "" {
				fmt.Fprintf(out, "Download: %s\n", info.DownloadURL)
			}
			if info.ReleaseNotes != "" {
				fmt.Fprintf(out, "\n%s\n", info.ReleaseNotes)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
