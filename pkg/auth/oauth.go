package auth

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/tomato/pkg/logging"
)

const (
	// LocalhostAuthPort is where the local server listens for the OAuth
	// redirect. It must match the redirect URI registered in the Google
	// Cloud console.
	LocalhostAuthPort = "6789"

	oobRedirect  = "urn:ietf:wg:oauth:2.0:oob"
	authTimeout  = 5 * time.Minute
	exchangeWait = 30 * time.Second
)

// CalendarScopes are the scopes the calendar mirror needs.
var CalendarScopes = []string{
	calendar.CalendarEventsScope,
	calendar.CalendarReadonlyScope,
}

// GoogleConfig reads the client secrets file and returns an OAuth config
// whose redirect points at the local callback server.
func GoogleConfig(credentialsFile string, log *logging.Logger, scopes ...string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", credentialsFile, err)
	}
	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	cfg.RedirectURL = normalizeRedirect(cfg.RedirectURL, log)
	return cfg, nil
}

// normalizeRedirect forces localhost and out-of-band redirects onto
// LocalhostAuthPort. Other redirects are kept with a warning.
func normalizeRedirect(redirect string, log *logging.Logger) string {
	if redirect == oobRedirect || redirect == "" {
		return fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
	}
	u, err := url.Parse(redirect)
	if err != nil {
		log.Warn("could not parse redirect URL, using it as is", "redirect", redirect, "error", err)
		return redirect
	}
	if u.Hostname() != "localhost" && u.Hostname() != "127.0.0.1" {
		log.Warn("redirect URL is not a localhost callback", "redirect", redirect)
		return redirect
	}
	if port := u.Port(); port != LocalhostAuthPort {
		if port != "" {
			log.Warn("overriding redirect port", "configured", port, "expected", LocalhostAuthPort)
		}
		u.Host = net.JoinHostPort(u.Hostname(), LocalhostAuthPort)
	}
	return u.String()
}

// Authorize runs the browser consent flow and stores the resulting token.
// The consent URL is written to out.
func Authorize(ctx context.Context, cfg *oauth2.Config, store *TokenStore, out io.Writer, log *logging.Logger) error {
	listener, err := net.Listen("tcp", ":"+LocalhostAuthPort)
	if err != nil {
		return fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	tok, err := authorizeOn(ctx, cfg, listener, out, log)
	if err != nil {
		return err
	}
	return store.Save(tok)
}

func authorizeOn(ctx context.Context, cfg *oauth2.Config, listener net.Listener, out io.Writer, log *logging.Logger) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	server := &http.Server{
		Handler:      callbackHandler(codeCh, errCh),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	go func() {
		log.Debug("waiting for OAuth redirect", "redirect", cfg.RedirectURL)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case errCh <- fmt.Errorf("HTTP server error: %w", err):
			default:
			}
		}
	}()
	defer server.Shutdown(context.Background())

	// AccessTypeOffline is what makes Google return a refresh token.
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Fprintf(out, "Open the following URL in your browser to authorize tomato:\n%s\n", authURL)

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	select {
	case code := <-codeCh:
		exCtx, exCancel := context.WithTimeout(ctx, exchangeWait)
		defer exCancel()
		tok, err := cfg.Exchange(exCtx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization timed out: %w", ctx.Err())
	}
}

func callbackHandler(codeCh chan<- string, errCh chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Authorization code not found", http.StatusBadRequest)
			select {
			case errCh <- fmt.Errorf("authorization code not found in redirect URL"):
			default:
			}
			return
		}
		fmt.Fprint(w, "Authentication successful! You can close this window.")
		select {
		case codeCh <- code:
		default:
		}
	})
}

// persistingSource saves the token whenever the wrapped source refreshes it.
type persistingSource struct {
	mu    sync.Mutex
	src   oauth2.TokenSource
	store *TokenStore
	last  *oauth2.Token
	log   *logging.Logger
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil || tok.AccessToken != p.last.AccessToken || tok.RefreshToken != p.last.RefreshToken {
		if err := p.store.Save(tok); err != nil {
			p.log.Warn("could not save refreshed token", "error", err)
		} else {
			p.log.Debug("saved refreshed token")
		}
		p.last = tok
	}
	return tok, nil
}

// GoogleClient returns an HTTP client authorized with the stored Google
// token. It fails if Authorize has never been run.
func GoogleClient(ctx context.Context, cfg *oauth2.Config, store *TokenStore, log *logging.Logger) (*http.Client, error) {
	tok, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load google token (run `tomato auth google`): %w", err)
	}
	src := &persistingSource{
		src:   cfg.TokenSource(ctx, tok),
		store: store,
		last:  tok,
		log:   log,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// CalendarService builds a Calendar API service from the credentials file
// and the stored Google token.
func CalendarService(ctx context.Context, credentialsFile string, store *TokenStore, log *logging.Logger) (*calendar.Service, error) {
	cfg, err := GoogleConfig(credentialsFile, log, CalendarScopes...)
	if err != nil {
		return nil, err
	}
	client, err := GoogleClient(ctx, cfg, store, log)
	if err != nil {
		return nil, err
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google Calendar service: %w", err)
	}
	return srv, nil
}
