package model

import (
	"fmt"
	"strconv"
)

// Settings is the per-installation preference record. It has no id and no
// timestamp and is always replaced as a whole.
type Settings struct {
	WorkDurationMinutes       int     `json:"work_duration_minutes" yaml:"work_duration_minutes"`
	ShortBreakDurationMinutes int     `json:"short_break_duration_minutes" yaml:"short_break_duration_minutes"`
	LongBreakDurationMinutes  int     `json:"long_break_duration_minutes" yaml:"long_break_duration_minutes"`
	LongBreakInterval         int     `json:"long_break_interval" yaml:"long_break_interval"`
	AutoStartBreaks           bool    `json:"auto_start_breaks" yaml:"auto_start_breaks"`
	AutoStartPomodoros        bool    `json:"auto_start_pomodoros" yaml:"auto_start_pomodoros"`
	EnableNotifications       bool    `json:"enable_notifications" yaml:"enable_notifications"`
	EnableSounds              bool    `json:"enable_sounds" yaml:"enable_sounds"`
	SoundVolume               float64 `json:"sound_volume" yaml:"sound_volume"`
	WorkEndSound              string  `json:"work_end_sound" yaml:"work_end_sound"`
	BreakEndSound             string  `json:"break_end_sound" yaml:"break_end_sound"`
	MinimizeToTray            bool    `json:"minimize_to_tray" yaml:"minimize_to_tray"`
	StartMinimized            bool    `json:"start_minimized" yaml:"start_minimized"`
	CloseToTray               bool    `json:"close_to_tray" yaml:"close_to_tray"`
	EnableStartup             bool    `json:"enable_startup" yaml:"enable_startup"`
	Theme                     string  `json:"theme" yaml:"theme"`
	Language                  string  `json:"language" yaml:"language"`
}

// DefaultSettings returns the settings a fresh installation starts with.
func DefaultSettings() Settings {
	return Settings{
		WorkDurationMinutes:       25,
		ShortBreakDurationMinutes: 5,
		LongBreakDurationMinutes:  15,
		LongBreakInterval:         4,
		EnableNotifications:       true,
		EnableSounds:              true,
		SoundVolume:               0.8,
		WorkEndSound:              "bell",
		BreakEndSound:             "chime",
		MinimizeToTray:            true,
		CloseToTray:               true,
		Theme:                     "system",
		Language:                  "en",
	}
}

// DurationFor returns the configured length in minutes of a session type.
func (s Settings) DurationFor(t SessionType) int {
	switch t {
	case SessionShortBreak:
		return s.ShortBreakDurationMinutes
	case SessionLongBreak:
		return s.LongBreakDurationMinutes
	default:
		return s.WorkDurationMinutes
	}
}

// Set assigns value to the setting named key, using the JSON field names
// ("work_duration_minutes", "theme", ...). The value is parsed according to
// the field's type.
func (s *Settings) Set(key, value string) error {
	fields := map[string]any{
		"work_duration_minutes":        &s.WorkDurationMinutes,
		"short_break_duration_minutes": &s.ShortBreakDurationMinutes,
		"long_break_duration_minutes":  &s.LongBreakDurationMinutes,
		"long_break_interval":          &s.LongBreakInterval,
		"auto_start_breaks":            &s.AutoStartBreaks,
		"auto_start_pomodoros":         &s.AutoStartPomodoros,
		"enable_notifications":         &s.EnableNotifications,
		"enable_sounds":                &s.EnableSounds,
		"sound_volume":                 &s.SoundVolume,
		"work_end_sound":               &s.WorkEndSound,
		"break_end_sound":              &s.BreakEndSound,
		"minimize_to_tray":             &s.MinimizeToTray,
		"start_minimized":              &s.StartMinimized,
		"close_to_tray":                &s.CloseToTray,
		"enable_startup":               &s.EnableStartup,
		"theme":                        &s.Theme,
		"language":                     &s.Language,
	}
	field, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}

	switch p := field.(type) {
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer, got %q", key, value)
		}
		*p = n
	case *bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false, got %q", key, value)
		}
		*p = b
	case *float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("%s must be a number between 0 and 1, got %q", key, value)
		}
		*p = f
	case *string:
		*p = value
	}
	return nil
}
