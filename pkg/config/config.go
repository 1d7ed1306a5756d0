package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	xdgAppName = "tomato"
	configFile = "config.yaml"
	envPrefix  = "TOMATO"
)

// Config is the complete tomato configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Calendar CalendarConfig `mapstructure:"calendar"`
}

// APIConfig points at the remote sync service.
type APIConfig struct {
	// BaseURL is prefixed to every request path. Empty disables sync.
	BaseURL string `mapstructure:"base_url"`
	// Timeout bounds each request. A timeout is reported as a transport error.
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig locates the local database.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig controls the JSON log.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// Dir holds tomato.log. Empty logs to stderr.
	Dir string `mapstructure:"dir"`
}

// CalendarConfig controls the Google Calendar mirror.
type CalendarConfig struct {
	Name            string `mapstructure:"name"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Path: filepath.Join(DataDir(), "tomato.db"),
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Calendar: CalendarConfig{
			Name:            "Tasks",
			CredentialsFile: filepath.Join(Dir(), "credentials.json"),
		},
	}
}

// SetDefaults registers defaults, the config file search path and the
// TOMATO_ environment overrides on v. TOMATO_API_BASE_URL maps to api.base_url.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.dir", d.Logging.Dir)
	v.SetDefault("calendar.name", d.Calendar.Name)
	v.SetDefault("calendar.credentials_file", d.Calendar.CredentialsFile)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Read loads the config file into v. A missing file is not an error.
func Read(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL)
		}
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path must be set")
	}
	return nil
}

// Save writes key=value into the config file at path (default location
// when empty), keeping every other key already in v.
func Save(v *viper.Viper, path, key, value string) error {
	if path == "" {
		path = GetConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	v.Set(key, value)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Dir returns $XDG_CONFIG_HOME/tomato, falling back to ~/.config/tomato.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, xdgAppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + xdgAppName
	}
	return filepath.Join(home, ".config", xdgAppName)
}

// DataDir returns $XDG_DATA_HOME/tomato, falling back to ~/.local/share/tomato.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, xdgAppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + xdgAppName
	}
	return filepath.Join(home, ".local", "share", xdgAppName)
}

// GetConfigPath returns the default config file location.
func GetConfigPath() string {
	return filepath.Join(Dir(), configFile)
}
