package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StorageDir string `toml:"storage_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
}

// Ingest contains validation limits for accepted recordings.
type Ingest struct {
	AllowedExtensions []string `toml:"allowed_extensions"`
	MaxDurationSec    int      `toml:"max_duration_sec"`
	MaxFileMB         int      `toml:"max_file_mb"`
	MinSampleRate     int      `toml:"min_sample_rate"`
	MaxSampleRate     int      `toml:"max_sample_rate"`
}

// Separation contains configuration for the neural source separator.
type Separation struct {
	Binary     string `toml:"binary"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// Pitch contains configuration for the pitch tracker.
type Pitch struct {
	// Binary is the external tracker command. When empty the built-in
	// autocorrelation tracker is used.
	Binary     string `toml:"binary"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// Render contains configuration for the external score renderers.
type Render struct {
	MuseScoreBinary string `toml:"musescore_binary"`
	VerovioBinary   string `toml:"verovio_binary"`
	TimeoutSec      int    `toml:"timeout_sec"`
}

// Workflow contains configuration for worker timing and bounds.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	StageTimeout       int `toml:"stage_timeout"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for quaver.
//
// Configuration sections by subsystem:
//   - Paths: storage/log directories and API bind address
//   - Ingest: upload validation limits
//   - Separation: neural source separator binary and timeout
//   - Pitch: pitch tracker binary and timeout
//   - Render: external score renderer binaries and timeout
//   - Workflow: worker polling intervals and stage bounds
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Ingest     Ingest     `toml:"ingest"`
	Separation Separation `toml:"separation"`
	Pitch      Pitch      `toml:"pitch"`
	Render     Render     `toml:"render"`
	Workflow   Workflow   `toml:"workflow"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/quaver/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = defaultPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return expanded, true, nil
}

// WriteSample writes the embedded sample configuration to the given path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// UploadsDir returns the directory accepted recordings are stored in.
func (c *Config) UploadsDir() string {
	return filepath.Join(c.Paths.StorageDir, "uploads")
}

// JobDir returns the artifact directory for a job.
func (c *Config) JobDir(jobID int64) string {
	return filepath.Join(c.Paths.StorageDir, fmt.Sprintf("job_%d", jobID))
}

// QueueDBPath returns the SQLite database location.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.StorageDir, "quaver.db")
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StorageDir, c.UploadsDir(), c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
