// Package actuation holds a key down in the game window for a bounded time.
//
// A Controller runs at most one session at a time. Each session is served by
// one worker goroutine that sends the key-down, waits for cancellation or the
// session deadline, and then sends exactly one key-up. No other code path
// sends either event, so a key can never be left held.
package actuation

import (
	"errors"
	"sync"
	"time"

	"autohonk/internal/input"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrShutdown is reported when Start is called after Shutdown.
var ErrShutdown = errors.New("actuation controller shut down")

// WindowFinder resolves the window that should receive input.
type WindowFinder interface {
	FindTargetWindow() (input.Window, error)
}

// KeySender delivers primitive input events. Calls must not block
// indefinitely.
type KeySender interface {
	Focus(w input.Window) error
	KeyDown(code input.KeyCode) error
	KeyUp(code input.KeyCode) error
}

// Options tunes session timing.
type Options struct {
	// TickInterval is how often the worker re-checks its deadline.
	TickInterval time.Duration
	// MaxDuration bounds a session from Start to key-up.
	MaxDuration time.Duration
	// StopWait bounds how long Stop waits for the worker to exit.
	StopWait time.Duration
	// FocusDelay is the pause between focusing the window and key-down.
	FocusDelay time.Duration
}

// DefaultOptions returns the stock timings.
func DefaultOptions() Options {
	return Options{
		TickInterval: 100 * time.Millisecond,
		MaxDuration:  7 * time.Second,
		StopWait:     time.Second,
		FocusDelay:   200 * time.Millisecond,
	}
}

// Reason explains why a session ended.
type Reason string

const (
	ReasonCancelled         Reason = "cancelled"
	ReasonExpired           Reason = "expired"
	ReasonShutdown          Reason = "shutdown"
	ReasonTargetUnavailable Reason = "target_unavailable"
	ReasonUnknownKey        Reason = "unknown_key"
	ReasonSendFailed        Reason = "send_failed"
)

// Result describes a finished session.
type Result struct {
	ID        string
	Key       input.Key
	StartedAt time.Time
	Duration  time.Duration
	Reason    Reason
	// KeyDown is true when the key was pressed (and therefore released).
	KeyDown bool
}

// Stats counts controller activity.
type Stats struct {
	Started   int
	Ignored   int
	KeyDowns  int
	KeyUps    int
	Expired   int
	Cancelled int
	Aborted   int
}

type session struct {
	id        string
	key       input.Key
	startedAt time.Time
	deadline  time.Time

	// Guarded by Controller.mu.
	cancelled bool
	shutdown  bool

	cancel chan struct{}
	done   chan struct{}
}

// Controller owns the single actuation session.
type Controller struct {
	log    *zap.Logger
	finder WindowFinder
	sender KeySender
	opts   Options

	mu      sync.Mutex
	session *session
	closed  bool
	stats   Stats

	results chan Result
}

// NewController creates a controller. Zero option fields take defaults.
func NewController(finder WindowFinder, sender KeySender, opts Options, log *zap.Logger) *Controller {
	def := DefaultOptions()
	if opts.TickInterval <= 0 {
		opts.TickInterval = def.TickInterval
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = def.MaxDuration
	}
	if opts.StopWait <= 0 {
		opts.StopWait = def.StopWait
	}
	if opts.FocusDelay < 0 {
		opts.FocusDelay = 0
	}
	return &Controller{
		log:     log,
		finder:  finder,
		sender:  sender,
		opts:    opts,
		results: make(chan Result, 8),
	}
}

// Results delivers one Result per finished session. Results are dropped
// when nobody drains the channel.
func (c *Controller) Results() <-chan Result { return c.results }

// Active reports whether a session is running.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Stats returns a snapshot of the counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Start begins a session holding key. It returns the session ID and true,
// or false when a session is already active or the controller is shut down.
// Start returns once the worker is spawned.
func (c *Controller) Start(key input.Key) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.stats.Ignored++
		c.log.Warn("start ignored", zap.Error(ErrShutdown))
		return "", false
	}
	if c.session != nil {
		c.stats.Ignored++
		c.log.Info("already actuating, ignoring duplicate start", zap.String("session", c.session.id))
		return "", false
	}

	now := time.Now()
	s := &session{
		id:        uuid.NewString(),
		key:       key,
		startedAt: now,
		deadline:  now.Add(c.opts.MaxDuration),
		cancel:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	c.session = s
	c.stats.Started++
	go c.run(s)

	c.log.Info("actuation started",
		zap.String("session", s.id),
		zap.String("key", key.String()),
		zap.Duration("max_duration", c.opts.MaxDuration))
	return s.id, true
}

// Stop cancels the active session and waits up to StopWait for its worker
// to release the key. It is a no-op when nothing is active.
func (c *Controller) Stop() {
	c.cancelSession(false)
}

// Shutdown stops the active session and refuses later starts.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancelSession(true)
}

func (c *Controller) cancelSession(shutdown bool) {
	c.mu.Lock()
	s := c.session
	if s == nil || s.cancelled {
		c.mu.Unlock()
		return
	}
	s.cancelled = true
	s.shutdown = shutdown
	close(s.cancel)
	c.mu.Unlock()

	timer := time.NewTimer(c.opts.StopWait)
	defer timer.Stop()
	select {
	case <-s.done:
	case <-timer.C:
		c.log.Warn("worker still running after stop wait",
			zap.String("session", s.id),
			zap.Duration("wait", c.opts.StopWait))
	}
}

func (c *Controller) cancelReason(s *session) Reason {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.shutdown {
		return ReasonShutdown
	}
	return ReasonCancelled
}

func (c *Controller) run(s *session) {
	log := c.log.With(zap.String("session", s.id), zap.String("key", s.key.String()))
	res := Result{ID: s.id, Key: s.key, StartedAt: s.startedAt}
	defer func() {
		res.Duration = time.Since(s.startedAt)
		c.finish(s, res, log)
	}()

	if !s.key.Resolved() {
		log.Error("unknown key, cannot actuate")
		res.Reason = ReasonUnknownKey
		return
	}

	w, err := c.finder.FindTargetWindow()
	if err != nil {
		log.Warn("target window unavailable", zap.Error(err))
		res.Reason = ReasonTargetUnavailable
		return
	}
	if err := c.sender.Focus(w); err != nil {
		log.Warn("focusing target window failed", zap.Error(err))
	}
	if c.opts.FocusDelay > 0 {
		t := time.NewTimer(c.opts.FocusDelay)
		select {
		case <-s.cancel:
			t.Stop()
			res.Reason = c.cancelReason(s)
			return
		case <-t.C:
		}
	}

	if err := c.sender.KeyDown(s.key.Code); err != nil {
		log.Warn("key down failed", zap.Error(err))
		res.Reason = ReasonSendFailed
		return
	}
	res.KeyDown = true
	c.bump(&c.stats.KeyDowns)
	log.Info("key down")

	defer func() {
		if err := c.sender.KeyUp(s.key.Code); err != nil {
			log.Error("key up failed", zap.Error(err))
		}
		c.bump(&c.stats.KeyUps)
		log.Info("key up", zap.Duration("held", time.Since(s.startedAt)))
	}()

	ticker := time.NewTicker(c.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.cancel:
			res.Reason = c.cancelReason(s)
			return
		case now := <-ticker.C:
			if !now.Before(s.deadline) {
				log.Info("max duration reached", zap.Duration("max_duration", c.opts.MaxDuration))
				res.Reason = ReasonExpired
				return
			}
		}
	}
}

func (c *Controller) bump(n *int) {
	c.mu.Lock()
	*n++
	c.mu.Unlock()
}

func (c *Controller) finish(s *session, res Result, log *zap.Logger) {
	c.mu.Lock()
	if c.session == s {
		c.session = nil
	}
	switch res.Reason {
	case ReasonExpired:
		c.stats.Expired++
	case ReasonCancelled, ReasonShutdown:
		c.stats.Cancelled++
	default:
		c.stats.Aborted++
	}
	c.mu.Unlock()

	log.Info("actuation finished",
		zap.String("reason", string(res.Reason)),
		zap.Duration("duration", res.Duration))

	select {
	case c.results <- res:
	default:
		log.Warn("result dropped, channel full")
	}
	close(s.done)
}
