package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tomato/pkg/remote"
)

func newCrashReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "crash-report <file|->",
		Short: "Upload a crash log to the sync service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read crash log: %w", err)
			}
			info := strings.TrimSpace(string(data))
			if info == "" {
				return fmt.Errorf("crash log is empty")
			}

			api, err := a.remoteAPI()
			if err != nil {
				return err
			}
			err = api.UploadCrashReport(cmd.Context(), remote.CrashReport{
				CrashInfo:  info,
				AppVersion: Version,
				OSInfo:     runtime.GOOS + "/" + runtime.GOARCH,
			})
			if err != nil {
				return err
			}
			a.log.Info("crash report uploaded", "bytes", len(info))
			fmt.Fprintln(cmd.OutOrStdout(), "Crash report uploaded")
			return nil
		},
	}
}
