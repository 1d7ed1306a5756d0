package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/harrisonrobin/tomato/pkg/errors"
	"github.com/harrisonrobin/tomato/pkg/model"
)

// Settings live as one row per field, the value JSON-encoded. Unknown keys
// are ignored on read and missing keys fall back to defaults. A stored value
// that does not decode is a StorageError naming the key.

// GetSettings returns the stored settings.
func (s *Store) GetSettings(ctx context.Context) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return model.Settings{}, errors.NewStorageError("get settings", err)
	}
	defer rows.Close()

	fields := make(map[string]json.RawMessage)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return model.Settings{}, errors.NewStorageError("get settings", err)
		}
		fields[key] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return model.Settings{}, errors.NewStorageError("get settings", err)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	settings := model.DefaultSettings()
	for _, key := range keys {
		one, err := json.Marshal(map[string]json.RawMessage{key: fields[key]})
		if err == nil {
			err = json.Unmarshal(one, &settings)
		}
		if err != nil {
			return model.Settings{}, errors.NewStorageError("get settings", fmt.Errorf("setting %q: %w", key, err))
		}
	}
	return settings, nil
}

// UpdateSettings replaces every stored setting with settings.
func (s *Store) UpdateSettings(ctx context.Context, settings model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeSettings(ctx, settings, true); err != nil {
		return errors.NewStorageError("update settings", err)
	}
	return nil
}

func (s *Store) seedSettings(ctx context.Context) error {
	if err := s.writeSettings(ctx, model.DefaultSettings(), false); err != nil {
		return errors.NewStorageError("seed settings", err)
	}
	return nil
}

func (s *Store) writeSettings(ctx context.Context, settings model.Settings, replace bool) error {
	fields, err := settingsFields(settings)
	if err != nil {
		return err
	}
	stmt := `INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`
	if replace {
		stmt = `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, stmt, k, string(fields[k])); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func settingsFields(settings model.Settings) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
