package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all autohonk configuration.
type Config struct {
	// Journal location and the events that drive the honk cycle
	Journal JournalConfig `yaml:"journal"`

	// Game window selection
	Window WindowConfig `yaml:"window"`

	// Which key to hold
	Key KeyConfig `yaml:"key"`

	// Session timing
	Timing TimingConfig `yaml:"timing"`

	// Finished-session history
	History HistoryConfig `yaml:"history"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// DryRun logs key events instead of injecting them.
	DryRun bool `yaml:"dry_run"`
}

// JournalConfig locates the journal and names the events of interest.
type JournalConfig struct {
	Dir              string   `yaml:"dir"`
	TriggerEvents    []string `yaml:"trigger_events"`
	CompletionEvents []string `yaml:"completion_events"`
	ContextEvents    []string `yaml:"context_events"`
}

// WindowConfig selects the game window.
type WindowConfig struct {
	TitleContains   string `yaml:"title_contains"`
	ProcessContains string `yaml:"process_contains"`
}

// KeyConfig chooses the actuation key.
type KeyConfig struct {
	// Override forces a key name (e.g. "numpad_add"), skipping detection.
	Override string `yaml:"override"`
	// AutoDetect reads Primary Fire from the game's bindings.
	AutoDetect  bool   `yaml:"auto_detect"`
	BindingsDir string `yaml:"bindings_dir"`
	Fallback    string `yaml:"fallback"`
}

// HistoryConfig configures the SQLite session history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultJournalDir is where the game writes its journal on Windows.
func DefaultJournalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Saved Games", "Frontier Developments", "Elite Dangerous")
}

// DefaultBindingsDir is where the game keeps its .binds files.
func DefaultBindingsDir() string {
	base := os.Getenv("LOCALAPPDATA")
	if base == "" {
		return ""
	}
	return filepath.Join(base, "Frontier Developments", "Elite Dangerous", "Options", "Bindings")
}

// DefaultConfigDir returns the per-user autohonk directory.
func DefaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "autohonk"
	}
	return filepath.Join(dir, "autohonk")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Journal: JournalConfig{
			Dir:              DefaultJournalDir(),
			TriggerEvents:    []string{"FSDJump"},
			CompletionEvents: []string{"FSSDiscoveryScan"},
			ContextEvents:    []string{"Location", "LoadGame", "StartUp"},
		},
		Window: WindowConfig{
			TitleContains:   "Elite - Dangerous (CLIENT)",
			ProcessContains: "elitedangerous64",
		},
		Key: KeyConfig{
			AutoDetect:  true,
			BindingsDir: DefaultBindingsDir(),
			Fallback:    "1",
		},
		Timing: TimingConfig{
			DelayAfterJump:   "2s",
			MaxHonkDuration:  "7s",
			KeyPressInterval: "100ms",
			StopWait:         "1s",
			FocusDelay:       "200ms",
			PollInterval:     "1s",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(DefaultConfigDir(), "history.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Dir:    filepath.Join(DefaultConfigDir(), "logs"),
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies AUTOHONK_* environment variables.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("AUTOHONK_JOURNAL_DIR"); dir != "" {
		c.Journal.Dir = dir
	}
	if key := os.Getenv("AUTOHONK_KEY"); key != "" {
		c.Key.Override = key
	}
	if v := os.Getenv("AUTOHONK_DRY_RUN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.DryRun = b
		} else {
			fmt.Fprintf(os.Stderr, "warning: AUTOHONK_DRY_RUN=%q is not a boolean, ignoring\n", v)
		}
	}
	if level := os.Getenv("AUTOHONK_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Journal.Dir == "" {
		return fmt.Errorf("journal directory not configured (set journal.dir or AUTOHONK_JOURNAL_DIR)")
	}
	if len(c.Journal.TriggerEvents) == 0 {
		return fmt.Errorf("journal.trigger_events must name at least one event")
	}
	if len(c.Journal.CompletionEvents) == 0 {
		return fmt.Errorf("journal.completion_events must name at least one event")
	}
	if c.Key.Override == "" && c.Key.Fallback == "" {
		return fmt.Errorf("either key.override or key.fallback must be set")
	}
	if err := c.Timing.validate(); err != nil {
		return err
	}
	level, ok := NormalizeLevel(c.Logging.Level)
	if !ok {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLevels)
	}
	c.Logging.Level = level
	return nil
}
