package remote

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/harrisonrobin/tomato/pkg/errors"
	"github.com/harrisonrobin/tomato/pkg/model"
)

const (
	pathSyncTasks    = "/sync/tasks"
	pathTasks        = "/tasks"
	pathSyncSessions = "/sync/pomodoro-sessions"
	pathSessions     = "/pomodoro/sessions"
	pathSyncSettings = "/sync/settings"
	pathUpdateCheck  = "/updates/check"
	pathCrashes      = "/crashes"
)

// API is the typed view of the sync service used by the engine.
type API struct {
	c *Client
}

// NewAPI wraps c.
func NewAPI(c *Client) *API {
	return &API{c: c}
}

// ListTasks fetches the remote task snapshot. A response without a "tasks"
// key is an empty snapshot.
func (a *API) ListTasks(ctx context.Context) ([]model.Task, error) {
	raw, err := a.c.Get(ctx, pathSyncTasks)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Tasks []model.Task `json:"tasks"`
	}
	if err := decode(raw, "tasks", &payload); err != nil {
		return nil, err
	}
	return payload.Tasks, nil
}

// CreateTask uploads a task the service has not seen.
func (a *API) CreateTask(ctx context.Context, t model.Task) error {
	_, err := a.c.Post(ctx, pathTasks, t.Canonical())
	return err
}

// UpdateTask replaces the remote copy of t.
func (a *API) UpdateTask(ctx context.Context, t model.Task) error {
	_, err := a.c.Put(ctx, pathTasks+"/"+url.PathEscape(t.ID), t.Canonical())
	return err
}

// ListSessions fetches the remote session snapshot.
func (a *API) ListSessions(ctx context.Context) ([]model.Session, error) {
	raw, err := a.c.Get(ctx, pathSyncSessions)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Sessions []model.Session `json:"sessions"`
	}
	if err := decode(raw, "sessions", &payload); err != nil {
		return nil, err
	}
	return payload.Sessions, nil
}

func (a *API) CreateSession(ctx context.Context, s model.Session) error {
	_, err := a.c.Post(ctx, pathSessions, s.Canonical())
	return err
}

func (a *API) UpdateSession(ctx context.Context, s model.Session) error {
	_, err := a.c.Put(ctx, pathSessions+"/"+url.PathEscape(s.ID), s.Canonical())
	return err
}

// GetSettings returns the remote settings, or nil if the service has none.
func (a *API) GetSettings(ctx context.Context) (*model.Settings, error) {
	raw, err := a.c.Get(ctx, pathSyncSettings)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Settings *model.Settings `json:"settings"`
	}
	if err := decode(raw, "settings", &payload); err != nil {
		return nil, err
	}
	return payload.Settings, nil
}

// PutSettings uploads s as the remote settings.
func (a *API) PutSettings(ctx context.Context, s model.Settings) error {
	_, err := a.c.Post(ctx, pathSyncSettings, s)
	return err
}

// UpdateInfo describes a newer client release.
type UpdateInfo struct {
	Version      string `json:"version"`
	DownloadURL  string `json:"download_url"`
	ReleaseNotes string `json:"release_notes"`
	IsCritical   bool   `json:"is_critical"`
}

// CheckForUpdates asks the service whether a release newer than version
// exists. It returns nil when the client is current.
func (a *API) CheckForUpdates(ctx context.Context, version string) (*UpdateInfo, error) {
	q := url.Values{}
	q.Set("version", version)
	q.Set("platform", "desktop")
	raw, err := a.c.Get(ctx, pathUpdateCheck+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var payload struct {
		UpdateAvailable bool `json:"update_available"`
		UpdateInfo
	}
	if err := decode(raw, "update check", &payload); err != nil {
		return nil, err
	}
	if !payload.UpdateAvailable {
		return nil, nil
	}
	info := payload.UpdateInfo
	return &info, nil
}

// CrashReport is what the client uploads after an unexpected failure.
type CrashReport struct {
	CrashInfo  string    `json:"crash_info"`
	AppVersion string    `json:"app_version"`
	OSInfo     string    `json:"os_info"`
	Timestamp  time.Time `json:"timestamp"`
	Platform   string    `json:"platform"`
}

// UploadCrashReport posts r to the service. A zero timestamp is stamped with
// the current time and an empty platform defaults to "desktop".
func (a *API) UploadCrashReport(ctx context.Context, r CrashReport) error {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	r.Timestamp = r.Timestamp.UTC()
	if r.Platform == "" {
		r.Platform = "desktop"
	}
	_, err := a.c.Post(ctx, pathCrashes, r)
	return err
}

// decode unmarshals raw into v. An empty body leaves v untouched.
func decode(raw json.RawMessage, what string, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.NewSerializationError(what, err)
	}
	return nil
}
