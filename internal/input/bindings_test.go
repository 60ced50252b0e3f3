package input

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const keyboardBinds = `<?xml version="1.0" encoding="UTF-8" ?>
<Root PresetName="Custom" MajorVersion="4" MinorVersion="0">
	<PrimaryFire>
		<Primary Device="Keyboard" Key="Key_Numpad_Add" />
		<Secondary Device="Mouse" Key="Mouse_1" />
	</PrimaryFire>
</Root>`

const mouseBinds = `<?xml version="1.0" encoding="UTF-8" ?>
<Root PresetName="Custom">
	<PrimaryFire>
		<Primary Device="Mouse" Key="Mouse_1" />
	</PrimaryFire>
</Root>`

func writeBinds(t *testing.T, dir, name, body string, mod time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
	return path
}

func TestParsePrimaryFire(t *testing.T) {
	dir := t.TempDir()
	path := writeBinds(t, dir, "Custom.4.0.binds", keyboardBinds, time.Now())

	key, err := ParsePrimaryFire(path)
	require.NoError(t, err)
	assert.Equal(t, "Key_Numpad_Add", key)
}

func TestParsePrimaryFire_MouseBindingIsIgnored(t *testing.T) {
	dir := t.TempDir()
	path := writeBinds(t, dir, "Mouse.binds", mouseBinds, time.Now())

	_, err := ParsePrimaryFire(path)
	assert.True(t, errors.Is(err, ErrNoBinding))
}

func TestParsePrimaryFire_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := writeBinds(t, dir, "Broken.binds", "<Root><PrimaryFire>", time.Now())

	_, err := ParsePrimaryFire(path)
	assert.Error(t, err)
}

func TestDetectPrimaryFire_UsesNewestFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeBinds(t, dir, "Old.binds", mouseBinds, now.Add(-time.Hour))
	writeBinds(t, dir, "New.binds", keyboardBinds, now)

	key, err := DetectPrimaryFire(dir)
	require.NoError(t, err)
	assert.Equal(t, "numpad_add", key)
}

func TestDetectPrimaryFire_EmptyDir(t *testing.T) {
	_, err := DetectPrimaryFire(t.TempDir())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestChooseKey(t *testing.T) {
	log := zaptest.NewLogger(t)
	dir := t.TempDir()
	writeBinds(t, dir, "Custom.binds", keyboardBinds, time.Now())

	t.Run("override wins", func(t *testing.T) {
		name, src := ChooseKey(KeySelection{Override: "space", AutoDetect: true, BindingsDir: dir, Fallback: "1"}, log)
		assert.Equal(t, "space", name)
		assert.Equal(t, SourceOverride, src)
	})

	t.Run("binding detected", func(t *testing.T) {
		name, src := ChooseKey(KeySelection{AutoDetect: true, BindingsDir: dir, Fallback: "1"}, log)
		assert.Equal(t, "numpad_add", name)
		assert.Equal(t, SourceBinding, src)
	})

	t.Run("detection disabled", func(t *testing.T) {
		name, src := ChooseKey(KeySelection{AutoDetect: false, BindingsDir: dir, Fallback: "1"}, log)
		assert.Equal(t, "1", name)
		assert.Equal(t, SourceFallback, src)
	})

	t.Run("detection fails", func(t *testing.T) {
		name, src := ChooseKey(KeySelection{AutoDetect: true, BindingsDir: t.TempDir(), Fallback: "1"}, log)
		assert.Equal(t, "1", name)
		assert.Equal(t, SourceFallback, src)
	})
}

func TestDryRun_CountsTransitions(t *testing.T) {
	d := NewDryRun(zaptest.NewLogger(t))
	w, err := d.FindTargetWindow()
	require.NoError(t, err)
	require.NoError(t, d.Focus(w))
	require.NoError(t, d.KeyDown(VKAdd))
	require.NoError(t, d.KeyUp(VKAdd))

	downs, ups := d.Counts()
	assert.Equal(t, 1, downs)
	assert.Equal(t, 1, ups)
}
