package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for ecorpus.
type Config struct {
	BaseDir     string             `toml:"base_dir"`
	Log         LogConfig          `toml:"log"`
	Database    DatabaseConfig     `toml:"database"`
	Objects     ObjectsConfig      `toml:"objects"`
	Scenes      ScenesConfig       `toml:"scenes"`
	Encryption  EncryptionConfig   `toml:"encryption"`
	Filesystem  FilesystemConfig   `toml:"filesystem"`
	AccessRules []AccessRuleConfig `toml:"access_rules"`
}

// LogConfig controls the log file and its rotation.
type LogConfig struct {
	Dir        string `toml:"dir"`
	Level      string `toml:"level"`        // "debug", "info" (default), "warn" or "error"
	MaxSizeMB  int    `toml:"max_size_mb"`  // rotate after this many megabytes
	MaxBackups int    `toml:"max_backups"`  // rotated files to keep
	MaxAgeDays int    `toml:"max_age_days"` // days to keep rotated files
	Compress   bool   `toml:"compress"`
}

// EncryptionConfig holds paths to the age key pair used for encrypted exports.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "plain"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// FilesystemConfig holds settings for importing local directories.
type FilesystemConfig struct {
	Ignore []string `toml:"ignore"`
}

// ObjectsConfig represents configuration for the object store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ObjectsConfig struct {
	Type string `toml:"type"` // "filesystem", "memory" or "s3"

	// FileSystem-specific fields (only used when Type == "filesystem")
	Root string `toml:"root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket     string `toml:"s3_bucket,omitempty"`
	S3Prefix     string `toml:"s3_prefix,omitempty"`
	S3Region     string `toml:"s3_region,omitempty"`
	S3Endpoint   string `toml:"s3_endpoint,omitempty"`
	S3AccessKey  string `toml:"s3_access_key,omitempty"`
	S3SecretKey  string `toml:"s3_secret_key,omitempty"`
	S3StagingDir string `toml:"s3_staging_dir,omitempty"`
}

// DatabaseConfig represents configuration for the catalog database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type string `toml:"type"`           // "sqlite" or "memory"
	Path string `toml:"path,omitempty"` // only used for type=sqlite
}

// ScenesConfig holds scene defaults.
type ScenesConfig struct {
	// Public grants anonymous read access to new scenes. When false, anonymous
	// users get "none".
	Public bool `toml:"public"`
}

// AccessRuleConfig is one path rule of the WebDAV permission evaluator.
type AccessRuleConfig struct {
	Group      string   `toml:"group"`
	Pattern    string   `toml:"pattern"`
	Operations []string `toml:"operations"`
}

// NewConfig creates a new Config rooted at baseDir with default paths.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		Log: LogConfig{
			Dir:        filepath.Join(baseDir, "log"),
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: filepath.Join(baseDir, "database.db"),
		},
		Objects: ObjectsConfig{
			Type: "filesystem",
			Root: baseDir,
		},
		Scenes: ScenesConfig{Public: true},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "ecorpus.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "ecorpus.key"),
		},
		Filesystem: FilesystemConfig{
			Ignore: []string{".git", ".DS_Store"},
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
