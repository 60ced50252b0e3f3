// Package logging builds the categorized zap loggers used across autohonk.
// Output always goes to stderr; in debug mode a per-day file under the logs
// directory receives a copy.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup, config, key selection
	CategoryJournal   Category = "journal"   // Journal discovery and tailing
	CategoryMonitor   Category = "monitor"   // Monitor loop state transitions
	CategoryActuation Category = "actuation" // Honk sessions
	CategoryInput     Category = "input"     // Window lookup and key delivery
	CategoryHistory   Category = "history"   // Session history store
)

// Options mirrors config.LoggingConfig so this package does not import
// config.
type Options struct {
	Level      string
	Format     string // json, console
	Dir        string
	DebugMode  bool
	Categories map[string]bool
	// Verbose forces debug level.
	Verbose bool
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger is the root logger plus the category filter.
type Logger struct {
	*zap.Logger
	categories map[string]bool
	file       *os.File
}

// New builds the root logger.
func New(opts Options) (*Logger, error) {
	level := ParseLevel(opts.Level)
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if opts.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level),
	}

	var file *os.File
	if opts.DebugMode && opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		name := fmt.Sprintf("%s_autohonk.log", time.Now().Format("2006-01-02"))
		f, err := os.OpenFile(filepath.Join(opts.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		fileEnc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEnc, zapcore.AddSync(f), zapcore.DebugLevel))
	}

	return &Logger{
		Logger:     zap.New(zapcore.NewTee(cores...)),
		categories: opts.Categories,
		file:       file,
	}, nil
}

// Wrap adapts an existing zap logger, e.g. a zaptest logger.
func Wrap(l *zap.Logger, categories map[string]bool) *Logger {
	return &Logger{Logger: l, categories: categories}
}

// IsCategoryEnabled reports whether category is enabled. Categories not
// listed are enabled.
func (l *Logger) IsCategoryEnabled(category Category) bool {
	if l.categories == nil {
		return true
	}
	enabled, exists := l.categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns the named logger for category, or a no-op logger when the
// category is disabled.
func (l *Logger) Get(category Category) *zap.Logger {
	if !l.IsCategoryEnabled(category) {
		return zap.NewNop()
	}
	return l.Named(string(category))
}

// Close flushes buffered entries and closes the log file.
func (l *Logger) Close() error {
	_ = l.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
