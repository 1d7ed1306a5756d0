package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/harrisonrobin/tomato/pkg/auth"
	"github.com/harrisonrobin/tomato/pkg/config"
)

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage credentials for the sync service and Google Calendar",
	}

	var token string
	login := &cobra.Command{
		Use:   "login",
		Short: "Store the sync service bearer token",
		Long: `Store the sync service bearer token in the system keyring, or in
a private file under the config directory when no keyring is available.

The token may also be given in TOMATO_API_TOKEN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("TOMATO_API_TOKEN")
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("no token given (use --token or TOMATO_API_TOKEN)")
			}
			tok := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
			if err := auth.NewTokenStore(config.Dir(), auth.AccountAPI).Save(tok); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token saved.")
			return nil
		},
	}
	login.Flags().StringVar(&token, "token", "", "bearer token issued by the sync service")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget all stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, account := range []string{auth.AccountAPI, auth.AccountGoogle} {
				if err := auth.NewTokenStore(config.Dir(), account).Delete(); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}

	google := &cobra.Command{
		Use:   "google",
		Short: "Authorize access to Google Calendar",
		Long: `Run the OAuth2 consent flow for Google Calendar.

The client credentials are read from calendar.credentials_file. A local
listener on port ` + auth.LocalhostAuthPort + ` receives the redirect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := auth.GoogleConfig(a.cfg.Calendar.CredentialsFile, a.log, auth.CalendarScopes...)
			if err != nil {
				return err
			}
			ts := auth.NewTokenStore(config.Dir(), auth.AccountGoogle)
			if err := auth.Authorize(cmd.Context(), cfg, ts, cmd.OutOrStdout(), a.log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Google Calendar authorized.")
			return nil
		},
	}

	cmd.AddCommand(login, logout, google)
	return cmd
}
