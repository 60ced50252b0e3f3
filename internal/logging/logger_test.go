package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("loud"))
}

func TestCategoryFilter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Wrap(zap.New(core), map[string]bool{"journal": false})

	l.Get(CategoryJournal).Info("hidden")
	l.Get(CategoryActuation).Info("shown")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0].Message)
	assert.Equal(t, "actuation", entries[0].LoggerName)
}

func TestAllCategoriesEnabledByDefault(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Wrap(zap.New(core), nil)

	for _, c := range []Category{CategoryBoot, CategoryJournal, CategoryMonitor, CategoryActuation, CategoryInput, CategoryHistory} {
		assert.True(t, l.IsCategoryEnabled(c))
		l.Get(c).Info("hello")
	}
	assert.Equal(t, 6, logs.Len())
}

func TestNew_DebugModeWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l, err := New(Options{Level: "info", Format: "json", Dir: dir, DebugMode: true})
	require.NoError(t, err)

	l.Get(CategoryBoot).Debug("debug line reaches the file")
	require.NoError(t, l.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "_autohonk.log"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug line reaches the file")
	assert.Contains(t, string(data), `"logger":"boot"`)
}

func TestNew_NoFileOutsideDebugMode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l, err := New(Options{Level: "debug", Dir: dir})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
