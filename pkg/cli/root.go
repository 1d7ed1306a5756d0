// Package cli is the tomato command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/harrisonrobin/tomato/pkg/config"
	"github.com/harrisonrobin/tomato/pkg/errors"
	"github.com/harrisonrobin/tomato/pkg/logging"
	"github.com/harrisonrobin/tomato/pkg/store"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// app holds what every command needs. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *logging.Logger
	store   *store.Store
}

// Execute runs the root command. The store and the log are closed even
// when the command fails.
func Execute() error {
	a := &app{v: viper.New()}
	err := newRootCmd(a).Execute()
	return errors.Join(err, a.close())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tomato",
		Short: "Pomodoro tasks and focus sessions with remote sync",
		Long: `tomato keeps tasks and focus sessions in a local database and
reconciles them with a remote sync service on demand.

Configuration is read from $XDG_CONFIG_HOME/tomato/config.yaml and
TOMATO_* environment variables (TOMATO_API_BASE_URL for api.base_url).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/tomato/config.yaml)")

	root.AddCommand(
		newSyncCmd(a),
		newTaskCmd(a),
		newSessionCmd(a),
		newSettingsCmd(a),
		newAuthCmd(a),
		newCalendarCmd(a),
		newImportCmd(a),
		newDataCmd(a),
		newUpdateCheckCmd(a),
		newCrashReportCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) init() error {
	config.SetDefaults(a.v)
	if err := config.Read(a.v, a.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if !logging.ValidLevel(cfg.Logging.Level) {
		return fmt.Errorf("invalid logging.level %q", cfg.Logging.Level)
	}
	log, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

// openStore opens the database on first use.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(ctx, a.cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

func (a *app) close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.log != nil {
		errs = append(errs, a.log.Close())
		a.log = nil
	}
	return errors.Join(errs...)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Main runs the CLI and exits with a non-zero status on error.
func Main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
