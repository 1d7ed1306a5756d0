package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"

	"github.com/harrisonrobin/tomato/pkg/logging"
)

// fakeKeyring swaps the keyring functions for an in-memory map. When
// broken is true every call fails as on a host without a keyring service.
func fakeKeyring(t *testing.T, broken bool) map[string]string {
	t.Helper()
	origSet, origGet, origDelete := keyringSet, keyringGet, keyringDelete
	t.Cleanup(func() {
		keyringSet, keyringGet, keyringDelete = origSet, origGet, origDelete
	})

	data := map[string]string{}
	unavailable := errors.New("org.freedesktop.secrets was not provided by any .service files")
	keyringSet = func(service, user, password string) error {
		if broken {
			return unavailable
		}
		data[service+"/"+user] = password
		return nil
	}
	keyringGet = func(service, user string) (string, error) {
		if broken {
			return "", unavailable
		}
		v, ok := data[service+"/"+user]
		if !ok {
			return "", keyring.ErrNotFound
		}
		return v, nil
	}
	keyringDelete = func(service, user string) error {
		if broken {
			return unavailable
		}
		if _, ok := data[service+"/"+user]; !ok {
			return keyring.ErrNotFound
		}
		delete(data, service+"/"+user)
		return nil
	}
	return data
}

func TestTokenStoreKeyring(t *testing.T) {
	data := fakeKeyring(t, false)
	dir := t.TempDir()
	store := NewTokenStore(dir, AccountAPI)

	_, err := store.Load()
	require.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "abc"}))
	assert.Contains(t, data, "tomato/api")
	_, err = os.Stat(filepath.Join(dir, "api_token.json"))
	assert.True(t, os.IsNotExist(err), "keyring hit must not write the fallback file")

	tok, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)

	require.NoError(t, store.Delete())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestTokenStoreFileFallback(t *testing.T) {
	fakeKeyring(t, true)
	dir := filepath.Join(t.TempDir(), "cfg")
	store := NewTokenStore(dir, AccountGoogle)

	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "g", RefreshToken: "r"}))

	info, err := os.Stat(filepath.Join(dir, "google_token.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(tokenFileMode), info.Mode().Perm())

	tok, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "r", tok.RefreshToken)

	require.NoError(t, store.Delete())
	require.NoError(t, store.Delete(), "deleting twice is fine")
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestTokenStoreCorruptFile(t *testing.T) {
	fakeKeyring(t, true)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "api_token.json"), []byte("{"), 0o600))

	_, err := NewTokenStore(dir, AccountAPI).Load()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoToken)
}

func TestTokenSource(t *testing.T) {
	fakeKeyring(t, false)
	store := NewTokenStore(t.TempDir(), AccountAPI)

	ts, err := store.TokenSource()
	require.NoError(t, err)
	assert.Nil(t, ts, "no token, no source")

	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "bearer-1"}))
	ts, err = store.TokenSource()
	require.NoError(t, err)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "bearer-1", tok.AccessToken)
}

func TestNormalizeRedirect(t *testing.T) {
	log := logging.NopLogger()
	tests := []struct {
		in, want string
	}{
		{"urn:ietf:wg:oauth:2.0:oob", "http://localhost:6789/oauth2callback"},
		{"", "http://localhost:6789/oauth2callback"},
		{"http://localhost", "http://localhost:6789"},
		{"http://localhost:8080/cb", "http://localhost:6789/cb"},
		{"http://127.0.0.1:6789/cb", "http://127.0.0.1:6789/cb"},
		{"https://example.com/cb", "https://example.com/cb"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeRedirect(tt.in, log), tt.in)
	}
}

func TestAuthorizeExchangesCode(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenSrv.Close()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	cfg := &oauth2.Config{
		ClientID:    "id",
		Endpoint:    oauth2.Endpoint{AuthURL: "https://accounts.invalid/auth", TokenURL: tokenSrv.URL},
		RedirectURL: "http://" + listener.Addr().String(),
	}

	go func() {
		resp, err := http.Get(fmt.Sprintf("http://%s/?code=the-code", listener.Addr()))
		if err == nil {
			resp.Body.Close()
		}
	}()

	var out bytes.Buffer
	tok, err := authorizeOn(context.Background(), cfg, listener, &out, logging.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
	assert.Contains(t, out.String(), "access_type=offline")
}

func TestCallbackWithoutCode(t *testing.T) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	rec := httptest.NewRecorder()

	callbackHandler(codeCh, errCh).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?error=access_denied", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Error(t, <-errCh)
	assert.Empty(t, codeCh)
}

func TestPersistingSourceSavesRefreshedToken(t *testing.T) {
	fakeKeyring(t, false)
	store := NewTokenStore(t.TempDir(), AccountGoogle)
	old := &oauth2.Token{AccessToken: "old", RefreshToken: "rt"}
	src := &persistingSource{
		src:   oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "new", RefreshToken: "rt"}),
		store: store,
		last:  old,
		log:   logging.NopLogger(),
	}

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "new", tok.AccessToken)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "new", saved.AccessToken)
}
