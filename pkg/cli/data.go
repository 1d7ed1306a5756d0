package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tomato/pkg/store"
)

func newDataCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Back up and restore local data",
	}

	var format, output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write all tasks, sessions and settings to a file or stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := dumpFormat(format, output)
			if err != nil {
				return err
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			d, err := st.Export(cmd.Context())
			if err != nil {
				return err
			}

			if output == "" {
				return d.Encode(cmd.OutOrStdout(), f)
			}
			file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			if err := d.Encode(file, f); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d task(s) and %d session(s) to %s\n",
				len(d.Tasks), len(d.Sessions), output)
			return nil
		},
	}
	export.Flags().StringVarP(&format, "format", "f", "", "json or yaml (default from the file extension, else json)")
	export.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")

	var inFormat string
	imp := &cobra.Command{
		Use:   "import <file|->",
		Short: "Load an export, replacing rows with the same id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := dumpFormat(inFormat, path)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if path != "-" {
				file, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open import file: %w", err)
				}
				defer file.Close()
				r = file
			}
			d, err := store.DecodeDump(r, f)
			if err != nil {
				return err
			}

			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := st.Import(cmd.Context(), d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d task(s) and %d session(s)\n", len(d.Tasks), len(d.Sessions))
			return nil
		},
	}
	imp.Flags().StringVarP(&inFormat, "format", "f", "", "json or yaml (default from the file extension, else json)")

	cmd.AddCommand(export, imp)
	return cmd
}

// dumpFormat resolves an explicit format, or guesses one from path.
func dumpFormat(explicit, path string) (store.Format, error) {
	if explicit != "" {
		return store.ParseFormat(strings.ToLower(explicit))
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return store.FormatYAML, nil
	default:
		return store.FormatJSON, nil
	}
}
