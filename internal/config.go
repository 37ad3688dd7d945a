package internal

import (
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/gnotes/internal/apperr"
)

// ConfigFileName is the config file looked up in the home directory.
const ConfigFileName = ".gnotes.toml"

// Config represents the application configuration.
type Config struct {
	NotesDir    string       `toml:"notes_dir" yaml:"notes_dir"`
	AutoSave    bool         `toml:"auto_save" yaml:"auto_save"`
	Repository  string       `toml:"repository" yaml:"repository"`
	SSHFilePath string       `toml:"ssh_file_path" yaml:"ssh_file_path"`
	Editor      string       `toml:"editor" yaml:"editor"`
	Log         LogConfig    `toml:"log" yaml:"log"`
	Index       IndexConfig  `toml:"index" yaml:"index"`
	Server      ServerConfig `toml:"server" yaml:"server"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.NotesDir, validation.Required),
	); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrInvalidConfig, err)
	}
	if c.AutoSave && c.Repository == "" {
		return fmt.Errorf("%w: repository is mandatory when auto_save is enabled", apperr.ErrInvalidConfig)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("%w: log: %w", apperr.ErrInvalidConfig, err)
	}
	if err := c.Index.Validate(); err != nil {
		return fmt.Errorf("%w: index: %w", apperr.ErrInvalidConfig, err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("%w: server: %w", apperr.ErrInvalidConfig, err)
	}
	return nil
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level     slog.Level `toml:"level" yaml:"level"`
	File      string     `toml:"file" yaml:"file"`
	MaxSizeMB int        `toml:"max_size_mb" yaml:"max_size_mb"`
}

// Validate validates the logging configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxSizeMB, validation.Min(0)),
	)
}

// IndexConfig holds the location of the SQLite catalog.
type IndexConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ServerConfig holds configuration for the serve command.
//
// An empty Token disables authentication, which suits a server bound to
// localhost, the default Host.
type ServerConfig struct {
	Host  string `toml:"host" yaml:"host"`
	Port  int    `toml:"port" yaml:"port"`
	Token string `toml:"token" yaml:"token"`
}

// Address returns HTTP server address.
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// AuthEnabled returns true when bearer authentication is active.
func (c *ServerConfig) AuthEnabled() bool {
	return c.Token != ""
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// NewDefaultConfig returns a Config with defaults derived from home.
func NewDefaultConfig(home string) *Config {
	return &Config{
		NotesDir:    filepath.Join(home, ".gnotes"),
		SSHFilePath: filepath.Join(home, ".ssh", "id_rsa"),
		Log: LogConfig{
			Level:     slog.LevelInfo,
			MaxSizeMB: 10,
		},
		Index: IndexConfig{
			Path: filepath.Join(home, ".gnotes-index.db"),
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
	}
}
