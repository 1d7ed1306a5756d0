// Package auth stores credentials and runs the Google OAuth flow.
//
// Tokens live in the OS keyring. When no keyring service is available
// (headless Linux, containers) they fall back to a 0600 JSON file in the
// config directory.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"

	"github.com/harrisonrobin/tomato/pkg/errors"
)

const (
	keyringService = "tomato"
	tokenFileMode  = 0o600
)

// Accounts under which tokens are stored.
const (
	AccountAPI    = "api"
	AccountGoogle = "google"
)

// ErrNoToken is returned by Load when nothing is stored for the account.
var ErrNoToken = errors.New("no stored token")

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete

	fileReadFile = os.ReadFile
	fileRemove   = os.Remove
	fileRename   = os.Rename
	fileMkdirAll = os.MkdirAll
	fileTempFile = os.CreateTemp
)

// TokenStore persists one OAuth token for one account.
type TokenStore struct {
	account string
	dir     string
}

// NewTokenStore returns a store for account whose file fallback lives in dir.
func NewTokenStore(dir, account string) *TokenStore {
	return &TokenStore{account: account, dir: dir}
}

func (s *TokenStore) path() string {
	return filepath.Join(s.dir, s.account+"_token.json")
}

// Save stores tok, preferring the keyring.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	if err := keyringSet(keyringService, s.account, string(data)); err == nil {
		// drop a stale fallback copy so Load cannot pick it up
		if err := fileRemove(s.path()); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return s.writeFile(data)
}

// Load returns the stored token or ErrNoToken.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	if v, err := keyringGet(keyringService, s.account); err == nil {
		return decodeToken([]byte(v))
	}
	data, err := fileReadFile(s.path())
	if os.IsNotExist(err) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	return decodeToken(data)
}

// Delete removes the token from both the keyring and the fallback file.
// Deleting a missing token is not an error.
func (s *TokenStore) Delete() error {
	// the keyring may be unavailable, in which case the file is the only copy
	_ = keyringDelete(keyringService, s.account)
	if err := fileRemove(s.path()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// TokenSource returns a source yielding the stored token, or nil when the
// account has none.
func (s *TokenStore) TokenSource() (oauth2.TokenSource, error) {
	tok, err := s.Load()
	if errors.Is(err, ErrNoToken) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return oauth2.StaticTokenSource(tok), nil
}

func (s *TokenStore) writeFile(data []byte) error {
	if err := fileMkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := fileTempFile(s.dir, "."+s.account+"_token.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fileRemove(tmpPath)
		return fmt.Errorf("write token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		fileRemove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, tokenFileMode); err != nil {
		fileRemove(tmpPath)
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := fileRename(tmpPath, s.path()); err != nil {
		fileRemove(tmpPath)
		return fmt.Errorf("rename token file: %w", err)
	}
	return nil
}

func decodeToken(data []byte) (*oauth2.Token, error) {
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, errors.NewSerializationError("token", err)
	}
	return tok, nil
}
