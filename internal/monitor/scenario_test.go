package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"autohonk/internal/actuation"
	"autohonk/internal/input"
	"autohonk/internal/journal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

// harness runs a Loop against a real journal file, a real Controller and
// the dry-run input backend, with timings scaled down.
type harness struct {
	t      *testing.T
	path   string
	dry    *input.DryRun
	ctrl   *actuation.Controller
	loop   *Loop
	rec    *memRecorder
	cancel context.CancelFunc
	done   chan error
}

func startHarness(t *testing.T, maxDuration time.Duration) *harness {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "Journal.2024-05-01T120000.01.log")
	// History from before startup must not be replayed.
	require.NoError(t, os.WriteFile(path, []byte(jumpAchenar+"\n"), 0644))

	log := zaptest.NewLogger(t)
	dry := input.NewDryRun(log.Named("input"))
	ctrl := actuation.NewController(dry, dry, actuation.Options{
		TickInterval: 10 * time.Millisecond,
		MaxDuration:  maxDuration,
		StopWait:     500 * time.Millisecond,
		FocusDelay:   time.Millisecond,
	}, log.Named("actuation"))

	key, ok := input.Resolve("numpad_add")
	require.True(t, ok)
	rec := &memRecorder{}
	loop := NewLoop(Options{
		Dir:            dir,
		DelayAfterJump: 50 * time.Millisecond,
		PollInterval:   20 * time.Millisecond,
	}, journal.NewClassifier(journal.DefaultDiscriminants()), ctrl, key, nil, rec, log.Named("monitor"))

	loop.Attach()
	require.Equal(t, path, loop.Status().Journal)

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{t: t, path: path, dry: dry, ctrl: ctrl, loop: loop, rec: rec, cancel: cancel, done: make(chan error, 1)}
	go func() { h.done <- loop.Run(ctx) }()
	return h
}

func (h *harness) append(lines ...string) {
	h.t.Helper()
	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(h.t, err)
	defer f.Close()
	for _, line := range lines {
		_, err := f.WriteString(line + "\n")
		require.NoError(h.t, err)
	}
}

func (h *harness) stop() {
	h.t.Helper()
	h.cancel()
	select {
	case err := <-h.done:
		require.NoError(h.t, err)
	case <-time.After(2 * time.Second):
		h.t.Fatal("loop did not stop")
	}
}

func (h *harness) balanced() bool {
	downs, ups := h.dry.Counts()
	return downs == ups
}

func TestScenario_ScanStopsActuationEarly(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := startHarness(t, 2*time.Second)
	defer h.stop()

	h.append(jumpSol)
	require.Eventually(t, h.ctrl.Active, time.Second, 5*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	h.append(scanDone)

	require.Eventually(t, func() bool {
		return !h.ctrl.Active() && len(h.rec.all()) == 1
	}, time.Second, 5*time.Millisecond)

	e := h.rec.all()[0]
	assert.Equal(t, "Sol", e.System)
	assert.Equal(t, "cancelled", e.Reason)
	assert.Equal(t, 3, e.BodyCount)
	assert.GreaterOrEqual(t, e.Duration, 100*time.Millisecond)
	assert.Less(t, e.Duration, time.Second, "stopped by the scan, not the cutoff")

	downs, ups := h.dry.Counts()
	assert.Equal(t, 1, downs)
	assert.Equal(t, 1, ups)
	assert.Equal(t, StateSettled, h.loop.Status().State)
}

func TestScenario_DuplicateJumpStartsOnce(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := startHarness(t, 2*time.Second)
	defer h.stop()

	h.append(jumpSol, jumpSol)
	require.Eventually(t, h.ctrl.Active, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 1, h.ctrl.Stats().Started)
	assert.Zero(t, h.ctrl.Stats().Ignored)

	h.append(scanDone)
	require.Eventually(t, func() bool { return !h.ctrl.Active() }, time.Second, 5*time.Millisecond)
	assert.True(t, h.balanced())
}

func TestScenario_NoScanExpiresAtCutoff(t *testing.T) {
	defer goleak.VerifyNone(t)
	const cutoff = 300 * time.Millisecond
	h := startHarness(t, cutoff)
	defer h.stop()

	h.append(jumpSol)
	require.Eventually(t, h.ctrl.Active, time.Second, 5*time.Millisecond)

	// The loop hears about the expiry and settles on its own.
	require.Eventually(t, func() bool {
		return h.loop.Status().State == StateSettled
	}, 2*time.Second, 5*time.Millisecond)

	st := h.ctrl.Stats()
	assert.Equal(t, 1, st.Expired)
	assert.Equal(t, 1, st.KeyUps)

	entries := h.rec.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "expired", entries[0].Reason)
	assert.GreaterOrEqual(t, entries[0].Duration, cutoff)
	assert.Less(t, entries[0].Duration, cutoff+200*time.Millisecond)
	assert.True(t, h.balanced())
}

func TestScenario_ShutdownReleasesKey(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := startHarness(t, 5*time.Second)

	h.append(jumpSol)
	require.Eventually(t, h.ctrl.Active, time.Second, 5*time.Millisecond)

	h.stop()

	assert.False(t, h.ctrl.Active())
	assert.True(t, h.balanced())
	_, ok := h.ctrl.Start(input.Key{Name: "1", Code: '1'})
	assert.False(t, ok, "no starts after shutdown")
	entries := h.rec.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "shutdown", entries[0].Reason)
}

func TestScenario_FollowsRotation(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := startHarness(t, 2*time.Second)
	defer h.stop()

	next := filepath.Join(filepath.Dir(h.path), "Journal.2024-05-01T130000.01.log")
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.WriteFile(next, []byte(locationSol+"\n"), 0644))
	require.NoError(t, os.Chtimes(next, future, future))

	require.Eventually(t, func() bool {
		st := h.loop.Status()
		return st.Journal == next && st.Subject == "Sol"
	}, time.Second, 5*time.Millisecond, "new journal is read from the start")
	assert.Equal(t, StateSettled, h.loop.Status().State)
	assert.Zero(t, h.ctrl.Stats().Started)
}
