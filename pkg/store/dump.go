package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/tomato/pkg/errors"
	"github.com/harrisonrobin/tomato/pkg/model"
)

// DumpVersion is written into every export.
const DumpVersion = "1.0"

// Format selects the encoding of an export.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
}

// Dump is a full copy of the local data.
type Dump struct {
	Version    string          `json:"version" yaml:"version"`
	ExportedAt time.Time       `json:"exported_at" yaml:"exported_at"`
	Tasks      []model.Task    `json:"tasks" yaml:"tasks"`
	Sessions   []model.Session `json:"sessions" yaml:"sessions"`
	Settings   *model.Settings `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Export reads everything into a Dump.
func (s *Store) Export(ctx context.Context) (*Dump, error) {
	tasks, err := s.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := s.ListSessions(ctx, model.SessionFilter{})
	if err != nil {
		return nil, err
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	return &Dump{
		Version:    DumpVersion,
		ExportedAt: s.now(),
		Tasks:      tasks,
		Sessions:   sessions,
		Settings:   &settings,
	}, nil
}

// Import writes every entity in d, replacing rows with the same id. Ids and
// timestamps are kept as exported.
func (s *Store) Import(ctx context.Context, d *Dump) error {
	if err := s.importEntities(ctx, d); err != nil {
		return err
	}
	if d.Settings != nil {
		return s.UpdateSettings(ctx, *d.Settings)
	}
	return nil
}

func (s *Store) importEntities(ctx context.Context, d *Dump) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range d.Tasks {
		if t.ID == "" {
			continue
		}
		if err := s.upsertTask(ctx, "REPLACE INTO", t.Canonical()); err != nil {
			return errors.NewStorageError("import task "+t.ID, err)
		}
	}
	for _, sess := range d.Sessions {
		if sess.ID == "" {
			continue
		}
		if err := s.upsertSession(ctx, "REPLACE INTO", sess.Canonical()); err != nil {
			return errors.NewStorageError("import session "+sess.ID, err)
		}
	}
	return nil
}

// Encode writes d to w in format f.
func (d *Dump) Encode(w io.Writer, f Format) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
}

// DecodeDump reads a dump in format f.
func DecodeDump(r io.Reader, f Format) (*Dump, error) {
	var d Dump
	var err error
	switch f {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&d)
	default:
		err = json.NewDecoder(r).Decode(&d)
	}
	if err != nil {
		return nil, errors.NewSerializationError("dump", err)
	}
	return &d, nil
}
