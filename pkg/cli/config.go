package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/tomato/pkg/config"
	"github.com/harrisonrobin/tomato/pkg/logging"
)

// configSetters validate a value for a key before it is written.
var configSetters = map[string]func(c *config.Config, value string) error{
	"api.base_url": func(c *config.Config, v string) error {
		c.API.BaseURL = v
		return nil
	},
	"api.timeout": func(c *config.Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("api.timeout: %w", err)
		}
		c.API.Timeout = d
		return nil
	},
	"storage.path": func(c *config.Config, v string) error {
		c.Storage.Path = v
		return nil
	},
	"logging.level": func(c *config.Config, v string) error {
		if !logging.ValidLevel(v) {
			return fmt.Errorf("logging.level must be DEBUG, INFO, WARN or ERROR, got %q", v)
		}
		c.Logging.Level = v
		return nil
	},
	"logging.dir": func(c *config.Config, v string) error {
		c.Logging.Dir = v
		return nil
	},
	"calendar.name": func(c *config.Config, v string) error {
		c.Calendar.Name = v
		return nil
	},
	"calendar.credentials_file": func(c *config.Config, v string) error {
		c.Calendar.CredentialsFile = v
		return nil
	},
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if used := a.v.ConfigFileUsed(); used != "" {
				fmt.Fprintf(out, "# %s\n", used)
			}
			enc := yaml.NewEncoder(out)
			defer enc.Close()
			return enc.Encode(a.v.AllSettings())
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write one key to the configuration file",
		Long:  "Write one key to the configuration file.\n\nKeys: " + strings.Join(configKeys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			setter, ok := configSetters[key]
			if !ok {
				return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(configKeys(), ", "))
			}
			next := *a.cfg
			if err := setter(&next, value); err != nil {
				return err
			}
			if err := next.Validate(); err != nil {
				return err
			}
			if err := config.Save(a.v, a.cfgFile, key, value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}
