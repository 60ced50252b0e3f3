package config

import "strings"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`      // debug, info, warn, error
	Format     string          `yaml:"format"`     // json, console
	Dir        string          `yaml:"dir"`        // log file directory (debug mode only)
	DebugMode  bool            `yaml:"debug_mode"` // also write a per-day log file
	Categories map[string]bool `yaml:"categories"` // per-category toggles; read by internal/logging
}

// ValidLevels lists the accepted log levels.
var ValidLevels = []string{"debug", "info", "warn", "error"}

// NormalizeLevel lower-cases level and maps "warning" to "warn". It reports
// false for names outside ValidLevels.
func NormalizeLevel(level string) (string, bool) {
	l := strings.ToLower(strings.TrimSpace(level))
	if l == "warning" {
		l = "warn"
	}
	for _, v := range ValidLevels {
		if l == v {
			return l, true
		}
	}
	return level, false
}
