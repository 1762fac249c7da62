package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Defaults for zero-valued scan settings.
const (
	DefaultFrequency  = 43200 // seconds
	DefaultMaxDepth   = 256
	DefaultSleepAfter = 100
	DefaultScanSleep  = 1 // seconds
	DefaultDebounceMS = 500
)

// Config represents the main configuration for fimd.
type Config struct {
	AgentID    string           `toml:"agent_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	LogLevel   string           `toml:"log_level"` // "debug", "info" (default), "warn" or "error"
	Scan       ScanConfig       `toml:"scan"`
	Watches    []WatchConfig    `toml:"watches"`
	Filter     FilterConfig     `toml:"filter"`
	Diff       DiffConfig       `toml:"diff"`
	Sink       SinkConfig       `toml:"sink"`
	Database   DatabaseConfig   `toml:"database"`
	Archive    ArchiveConfig    `toml:"archive"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// ScanConfig holds the engine-wide scan settings.
type ScanConfig struct {
	Frequency      int  `toml:"frequency"` // seconds between scheduled cycles
	MaxDepth       int  `toml:"max_depth"`
	SkipNFS        bool `toml:"skip_nfs"`
	RemoveOldDiff  bool `toml:"remove_old_diff"`
	SleepAfter     int  `toml:"sleep_after"`
	ScanSleep      int  `toml:"scan_sleep"` // seconds
	ScanOnStart    bool `toml:"scan_on_start"`
	AuditSizeLimit int  `toml:"audit_size_limit,omitempty"`
	DebounceMS     int  `toml:"realtime_debounce_ms,omitempty"`
}

// WatchConfig is one monitored root.
type WatchConfig struct {
	Path           string   `toml:"path"`
	Options        []string `toml:"options"`                   // e.g. ["check_all"], ["size", "md5"]
	RecursionLevel *int     `toml:"recursion_level,omitempty"` // defaults to scan.max_depth
	Restrict       string   `toml:"restrict,omitempty"`        // regex; only matching files are checked
	Tag            string   `toml:"tag,omitempty"`
	Realtime       bool     `toml:"realtime,omitempty"`
	Whodata        bool     `toml:"whodata,omitempty"`
	ReportChanges  bool     `toml:"report_changes,omitempty"`
}

// FilterConfig holds the global ignore rules.
type FilterConfig struct {
	Ignore      []string `toml:"ignore"`       // case-insensitive path prefixes
	IgnoreRegex []string `toml:"ignore_regex"` // regular expressions
	IgnoreGlob  []string `toml:"ignore_glob"`  // shell globs; basename unless they contain '/'
	IgnoreFile  string   `toml:"ignore_file,omitempty"`
}

// DiffConfig configures the content capture store.
type DiffConfig struct {
	Dir           string `toml:"dir"`
	FileSizeLimit int64  `toml:"file_size_limit"` // bytes; 0 = unlimited
	DiffSizeLimit int    `toml:"diff_size_limit"` // bytes; 0 = unlimited
}

// SinkConfig represents configuration for alert delivery.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type SinkConfig struct {
	Type    string `toml:"type"`              // "socket", "file", "stdout" or "memory"
	Address string `toml:"address,omitempty"` // only used for type=socket
	Path    string `toml:"path,omitempty"`    // only used for type=file
	DelayUS int    `toml:"delay_us,omitempty"`
}

// DatabaseConfig represents configuration for the history/baseline database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// ArchiveConfig represents configuration for baseline exports.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ArchiveConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`
}

// EncryptionConfig holds paths to the age key pair used for encryption.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
	Armor          bool   `toml:"armor,omitempty"`
}

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(agentID, baseDir string) *Config {
	return &Config{
		AgentID:  agentID,
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: "info",
		Scan: ScanConfig{
			Frequency:  DefaultFrequency,
			MaxDepth:   DefaultMaxDepth,
			SleepAfter: DefaultSleepAfter,
			ScanSleep:  DefaultScanSleep,
		},
		Diff: DiffConfig{
			Dir: filepath.Join(baseDir, "diff"),
		},
		Sink: SinkConfig{
			Type: "file",
			Path: filepath.Join(baseDir, "alerts", "alerts.log"),
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Archive: ArchiveConfig{
			Type:   "filesystem",
			Name:   "local",
			FSRoot: filepath.Join(baseDir, "archive"),
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "fimd.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "fimd.key"),
		},
	}
}

// ApplyDefaults fills in zero-valued scan settings.
func (c *Config) ApplyDefaults() {
	if c.Scan.Frequency <= 0 {
		c.Scan.Frequency = DefaultFrequency
	}
	if c.Scan.MaxDepth <= 0 {
		c.Scan.MaxDepth = DefaultMaxDepth
	}
	if c.Scan.DebounceMS <= 0 {
		c.Scan.DebounceMS = DefaultDebounceMS
	}
	if c.LogDir == "" && c.BaseDir != "" {
		c.LogDir = filepath.Join(c.BaseDir, "log")
	}
	if c.Diff.Dir == "" && c.BaseDir != "" {
		c.Diff.Dir = filepath.Join(c.BaseDir, "diff")
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

// writeToFile writes a Config to the specified file path.
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
