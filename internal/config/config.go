package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/textindexer/internal/document"
	ierrors "github.com/Aman-CERP/textindexer/internal/errors"
	"github.com/Aman-CERP/textindexer/internal/indexer"
	"github.com/Aman-CERP/textindexer/internal/storage"
	"github.com/Aman-CERP/textindexer/internal/watcher"
)

const (
	// ProjectConfigName is the per-directory config file.
	ProjectConfigName = ".textindexer.yaml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "TEXTINDEXER_"
)

// Config represents the complete textindexer configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Indexer IndexerConfig `yaml:"indexer" json:"indexer"`
	Watcher WatcherConfig `yaml:"watcher" json:"watcher"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// IndexerConfig configures tokenization and admission control.
type IndexerConfig struct {
	// Workers bounds how many files are tokenized at once.
	Workers int `yaml:"workers" json:"workers"`

	// OOMAvoidance skips or postpones files that would not fit in memory.
	OOMAvoidance bool `yaml:"oom_avoidance" json:"oom_avoidance"`

	// MemoryFactor is the assumed ratio of indexing memory to file size.
	MemoryFactor float64 `yaml:"memory_factor" json:"memory_factor"`

	// MaxWordLength is the longest word, in characters, that gets indexed.
	MaxWordLength int `yaml:"max_word_length" json:"max_word_length"`

	// BatchSize is the number of chunks handed to the tokenizer at once.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// Delimiter is a regular expression splitting files into chunks.
	// Empty means lines.
	Delimiter string `yaml:"delimiter" json:"delimiter"`

	// Tokenizer names a built-in tokenizer: default, whitespace, lower or none.
	Tokenizer string `yaml:"tokenizer" json:"tokenizer"`

	// Storage selects the index backend: map or trie.
	Storage string `yaml:"storage" json:"storage"`
}

// WatcherConfig configures change detection.
type WatcherConfig struct {
	// PollInterval is a duration string such as "1s".
	PollInterval string `yaml:"poll_interval" json:"poll_interval"`

	// Exclude holds glob patterns skipped when scanning directories.
	Exclude []string `yaml:"exclude" json:"exclude"`

	// Notify lets filesystem notifications trigger early polls.
	Notify bool `yaml:"notify" json:"notify"`

	// EventBuffer is the capacity of the watcher's event queue.
	EventBuffer int `yaml:"event_buffer" json:"event_buffer"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	// File enables file logging when set.
	File string `yaml:"file" json:"file"`
}

// defaultExcludePatterns are skipped when scanning directories.
var defaultExcludePatterns = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Indexer: IndexerConfig{
			Workers:       indexer.DefaultWorkers,
			OOMAvoidance:  true,
			MemoryFactor:  indexer.DefaultMemoryFactor,
			MaxWordLength: indexer.DefaultMaxWordLength,
			BatchSize:     document.DefaultBatchSize,
			Delimiter:     "",
			Tokenizer:     document.TokenizerDefault,
			Storage:       string(storage.KindMap),
		},
		Watcher: WatcherConfig{
			PollInterval: "1s",
			Exclude:      append([]string(nil), defaultExcludePatterns...),
			Notify:       true,
			EventBuffer:  16,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/textindexer/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/textindexer/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "textindexer", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "textindexer", "config.yaml")
	}
	return filepath.Join(home, ".config", "textindexer", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration for the given directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/textindexer/config.yaml)
//  3. Project config (.textindexer.yaml in dir)
//  4. TEXTINDEXER_* environment variables
func Load(dir string) (*Config, error) {
	return load(filepath.Join(dir, ProjectConfigName), false)
}

// LoadFile is Load with an explicit config file in place of the project
// file. The file must exist.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, required bool) (*Config, error) {
	cfg := NewConfig()

	if user := GetUserConfigPath(); fileExists(user) {
		if err := cfg.loadYAML(user); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	} else if required {
		return nil, ierrors.New(ierrors.ErrCodeConfigNotFound, "config file not found: "+path, nil).
			WithSuggestion("Run 'textindexer config init' to create one")
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadYAML decodes path on top of c. Keys absent from the file keep their
// current values.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrPermission) {
		return ierrors.New(ierrors.ErrCodeConfigPermission, "cannot read config file "+path, err)
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	ints := map[string]*int{
		"WORKERS":         &c.Indexer.Workers,
		"MAX_WORD_LENGTH": &c.Indexer.MaxWordLength,
		"BATCH_SIZE":      &c.Indexer.BatchSize,
	}
	for key, dst := range ints {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"OOM_AVOIDANCE": &c.Indexer.OOMAvoidance,
		"NOTIFY":        &c.Watcher.Notify,
	}
	for key, dst := range bools {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = b
		}
	}

	if v := os.Getenv(EnvPrefix + "MEMORY_FACTOR"); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%sMEMORY_FACTOR: %w", EnvPrefix, err)
		}
		c.Indexer.MemoryFactor = f
	}

	strs := map[string]*string{
		"DELIMITER":     &c.Indexer.Delimiter,
		"TOKENIZER":     &c.Indexer.Tokenizer,
		"STORAGE":       &c.Indexer.Storage,
		"POLL_INTERVAL": &c.Watcher.PollInterval,
		"LOG_LEVEL":     &c.Logging.Level,
		"LOG_FILE":      &c.Logging.File,
	}
	for key, dst := range strs {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Indexer.Workers <= 0 {
		return fmt.Errorf("indexer.workers must be positive, got %d", c.Indexer.Workers)
	}
	if c.Indexer.MemoryFactor <= 1 {
		return fmt.Errorf("indexer.memory_factor must be greater than 1, got %v", c.Indexer.MemoryFactor)
	}
	if c.Indexer.MaxWordLength <= 0 {
		return fmt.Errorf("indexer.max_word_length must be positive, got %d", c.Indexer.MaxWordLength)
	}
	if c.Indexer.BatchSize <= 0 {
		return fmt.Errorf("indexer.batch_size must be positive, got %d", c.Indexer.BatchSize)
	}
	if _, err := c.delimiter(); err != nil {
		return err
	}
	if _, err := document.TokenizerByName(c.Indexer.Tokenizer); err != nil {
		return fmt.Errorf("indexer.tokenizer: %w", err)
	}
	switch storage.Kind(strings.ToLower(c.Indexer.Storage)) {
	case storage.KindMap, storage.KindTrie:
	default:
		return fmt.Errorf("indexer.storage must be 'map' or 'trie', got %s", c.Indexer.Storage)
	}

	if _, err := c.pollInterval(); err != nil {
		return err
	}
	if c.Watcher.EventBuffer < 0 {
		return fmt.Errorf("watcher.event_buffer must be non-negative, got %d", c.Watcher.EventBuffer)
	}
	wopts := watcher.Options{Exclude: c.Watcher.Exclude}
	if err := wopts.Validate(); err != nil {
		return fmt.Errorf("watcher.exclude: %w", err)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	return nil
}

func (c *Config) delimiter() (*regexp.Regexp, error) {
	if c.Indexer.Delimiter == "" {
		return nil, nil
	}
	re, err := regexp.Compile(c.Indexer.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("indexer.delimiter: %w", err)
	}
	if re.MatchString("") {
		return nil, fmt.Errorf("indexer.delimiter must not match the empty string: %q", c.Indexer.Delimiter)
	}
	return re, nil
}

func (c *Config) pollInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Watcher.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("watcher.poll_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("watcher.poll_interval must be positive, got %s", c.Watcher.PollInterval)
	}
	return d, nil
}

// ToIndexerOptions converts the configuration into indexer options.
func (c *Config) ToIndexerOptions() (indexer.Options, error) {
	if err := c.Validate(); err != nil {
		return indexer.Options{}, err
	}

	opts := indexer.DefaultOptions()
	opts.Workers = c.Indexer.Workers
	opts.OOMAvoidance = c.Indexer.OOMAvoidance
	opts.MemoryFactor = c.Indexer.MemoryFactor
	opts.MaxWordLength = c.Indexer.MaxWordLength
	opts.Storage = storage.Kind(strings.ToLower(c.Indexer.Storage))

	opts.Document.BatchSize = c.Indexer.BatchSize
	opts.Document.Delimiter, _ = c.delimiter()
	opts.Document.Tokenizer, _ = document.TokenizerByName(c.Indexer.Tokenizer)

	opts.Watcher.PollInterval, _ = c.pollInterval()
	opts.Watcher.Exclude = c.Watcher.Exclude
	opts.Watcher.Notify = c.Watcher.Notify
	if c.Watcher.EventBuffer > 0 {
		opts.Watcher.EventBufferSize = c.Watcher.EventBuffer
	}
	return opts, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
