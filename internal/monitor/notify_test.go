package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"autohonk/internal/input"
	"autohonk/internal/journal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

// runWithNotes runs a loop whose only input is notes; the fallback poll
// never fires during the test.
func runWithNotes(t *testing.T, dir string, act Actuator, notes chan Notification) (*Loop, func()) {
	t.Helper()
	key, ok := input.Resolve("numpad_add")
	require.True(t, ok)
	l := NewLoop(Options{Dir: dir, DelayAfterJump: time.Hour, PollInterval: time.Hour},
		journal.NewClassifier(journal.DefaultDiscriminants()), act, key, notes, nil, zaptest.NewLogger(t))
	l.Attach()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	return l, func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("loop did not stop")
		}
	}
}

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	defer f.Close()
	for _, line := range lines {
		_, err := f.WriteString(line + "\n")
		require.NoError(t, err)
	}
}

func TestLoop_Notifications(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	notes := make(chan Notification, NotificationBuffer)
	act := newFakeActuator()
	l, stop := runWithNotes(t, dir, act, notes)
	defer stop()

	require.Empty(t, l.Status().Journal, "no journal at startup")

	// The first journal after a detached start is read from its beginning.
	first := filepath.Join(dir, "Journal.2024-05-01T120000.01.log")
	writeLines(t, first, jumpAchenar)
	notes <- Notification{Op: OpCreated, Path: first}
	require.Eventually(t, func() bool {
		st := l.Status()
		return st.Journal == first && st.Subject == "Achenar"
	}, time.Second, 5*time.Millisecond)
	assert.True(t, l.Status().Pending)

	// A write to the followed file is drained.
	writeLines(t, first, scanDone)
	notes <- Notification{Op: OpModified, Path: first}
	require.Eventually(t, func() bool {
		return l.Status().State == StateSettled
	}, time.Second, 5*time.Millisecond)
	assert.False(t, l.Status().Pending)

	// Writes to other files are left to the poll.
	other := filepath.Join(dir, "Journal.2024-04-30T120000.01.log")
	writeLines(t, other, jumpSol)
	notes <- Notification{Op: OpModified, Path: other}

	// A newly created journal replaces the current one from offset 0.
	second := filepath.Join(dir, "Journal.2024-05-01T130000.01.log")
	writeLines(t, second, jumpSol)
	notes <- Notification{Op: OpCreated, Path: second}
	require.Eventually(t, func() bool {
		st := l.Status()
		return st.Journal == second && st.Subject == "Sol"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateActuating, l.Status().State)
}

func TestLoop_ModifiedAttachesWhenDetached(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	notes := make(chan Notification, 1)
	l, stop := runWithNotes(t, dir, newFakeActuator(), notes)
	defer stop()

	path := filepath.Join(dir, "Journal.2024-05-01T120000.01.log")
	writeLines(t, path, locationSol)
	notes <- Notification{Op: OpModified, Path: path}

	require.Eventually(t, func() bool {
		st := l.Status()
		return st.Journal == path && st.Subject == "Sol"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateSettled, l.Status().State)
}

func TestLoop_AttachSkipsHistory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Journal.2024-05-01T120000.01.log")
	writeLines(t, path, jumpSol)

	l := newTestLoop(t, newFakeActuator(), nil)
	l.opts.Dir = dir
	l.Attach()
	l.Attach()

	st := l.Status()
	assert.Equal(t, path, st.Journal)
	assert.Equal(t, StateIdle, st.State)
	l.drain()
	assert.Empty(t, l.Status().Subject, "lines written before attach are not replayed")
}
