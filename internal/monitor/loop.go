// Package monitor ties the journal to the actuation controller. A single
// Loop goroutine owns the tailer and the state machine. It reacts to watcher
// notifications, a fallback poll, the post-jump delay timer and finished
// sessions reported by the controller.
package monitor

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"autohonk/internal/actuation"
	"autohonk/internal/history"
	"autohonk/internal/input"
	"autohonk/internal/journal"

	"go.uber.org/zap"
)

// State is the loop's view of the honk cycle.
type State int

const (
	StateIdle State = iota
	StateSettled
	StateActuating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSettled:
		return "settled"
	case StateActuating:
		return "actuating"
	default:
		return "unknown"
	}
}

// Actuator is the part of actuation.Controller the loop drives.
type Actuator interface {
	Start(key input.Key) (string, bool)
	Stop()
	Shutdown()
	Results() <-chan actuation.Result
}

// Recorder stores finished sessions. *history.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Options configures a Loop.
type Options struct {
	// Dir is the journal directory.
	Dir string
	// DelayAfterJump is the pause between a jump and the start of a session.
	DelayAfterJump time.Duration
	// PollInterval drives the fallback poll.
	PollInterval time.Duration
}

// Status is a snapshot of the loop.
type Status struct {
	State   State
	Subject string
	Pending bool
	Session string
	// Journal is the file being followed, empty while detached.
	Journal string
	// Malformed counts lines that were not journal entries at all;
	// Ignored counts entries the loop does not react to.
	Malformed int
	Ignored   int
}

type sessionInfo struct {
	subject string
	counts  *journal.ScanCounts
}

// Loop is the journal monitor. Construct with NewLoop and call Run.
type Loop struct {
	opts       Options
	log        *zap.Logger
	tailer     *journal.Tailer
	classifier *journal.Classifier
	act        Actuator
	key        input.Key
	notes      <-chan Notification
	recorder   Recorder
	attach     sync.Once

	mu        sync.Mutex
	journal   string
	malformed int
	ignored   int
	state     State
	subject   string
	delay     *time.Timer
	armed     bool
	current   string
	sessions  map[string]*sessionInfo
}

// NewLoop creates a loop. notes may be nil when no watcher is used, and
// recorder may be nil to skip history.
func NewLoop(opts Options, classifier *journal.Classifier, act Actuator, key input.Key, notes <-chan Notification, recorder Recorder, log *zap.Logger) *Loop {
	if opts.DelayAfterJump < 0 {
		opts.DelayAfterJump = 0
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	delay := time.NewTimer(time.Hour)
	delay.Stop()
	return &Loop{
		opts:       opts,
		log:        log,
		tailer:     journal.NewTailer(),
		classifier: classifier,
		act:        act,
		key:        key,
		notes:      notes,
		recorder:   recorder,
		delay:      delay,
		sessions:   make(map[string]*sessionInfo),
	}
}

// Status returns a snapshot of the state machine.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{
		State:     l.state,
		Subject:   l.subject,
		Pending:   l.armed,
		Session:   l.current,
		Journal:   l.journal,
		Malformed: l.malformed,
		Ignored:   l.ignored,
	}
}

// Attach follows the newest journal from its current end, so earlier lines
// are never replayed. It runs once; Run calls it if the caller has not.
// Call it before Run, not concurrently with it.
func (l *Loop) Attach() {
	l.attach.Do(l.attachLatest)
}

// Run attaches to the newest journal and processes input until ctx is
// cancelled. On return any session has been shut down.
func (l *Loop) Run(ctx context.Context) error {
	l.Attach()

	poll := time.NewTicker(l.opts.PollInterval)
	defer poll.Stop()
	defer l.shutdown()

	results := l.act.Results()
	notes := l.notes
	for {
		select {
		case <-ctx.Done():
			l.log.Info("monitor stopping", zap.Error(context.Cause(ctx)))
			return nil

		case n, ok := <-notes:
			if !ok {
				notes = nil
				continue
			}
			l.handleNotification(n)

		case <-poll.C:
			l.poll()

		case <-l.delay.C:
			l.fireDelay()

		case res := <-results:
			l.handleResult(ctx, res)
		}
	}
}

func (l *Loop) attachLatest() {
	path, _, err := journal.Latest(l.opts.Dir)
	if err != nil {
		if errors.Is(err, journal.ErrNoJournal) {
			l.log.Info("no journal yet, waiting for one", zap.String("dir", l.opts.Dir))
		} else {
			l.log.Warn("looking for journal", zap.Error(err))
		}
		return
	}
	if err := l.tailer.Attach(path, false); err != nil {
		l.log.Warn("attach failed", zap.Error(err))
		return
	}
	l.setJournal(path)
	l.log.Info("following journal",
		zap.String("path", path),
		zap.Int64("offset", l.tailer.Position().Offset))
}

func (l *Loop) handleNotification(n Notification) {
	cur := l.tailer.Position().Path
	switch {
	case n.Op == OpCreated && n.Path != cur:
		l.switchTo(n.Path)
	case n.Path == cur:
		l.drain()
	case cur == "":
		// Nothing existed at startup, so this file is new to us.
		l.switchTo(n.Path)
	}
}

// poll drains the current file, then follows rotation to a newer journal.
func (l *Loop) poll() {
	l.drain()

	latest, latestMod, err := journal.Latest(l.opts.Dir)
	if err != nil {
		if !errors.Is(err, journal.ErrNoJournal) {
			l.log.Debug("poll: listing journals", zap.Error(err))
		}
		return
	}
	cur := l.tailer.Position().Path
	if latest == cur {
		return
	}
	if cur != "" {
		if info, err := os.Stat(cur); err == nil && !latestMod.After(info.ModTime()) {
			return
		}
	}
	l.switchTo(latest)
}

func (l *Loop) switchTo(path string) {
	if l.tailer.Attached() {
		l.drain()
	}
	if err := l.tailer.Attach(path, true); err != nil {
		l.log.Warn("attach failed", zap.Error(err))
		return
	}
	l.setJournal(path)
	l.log.Info("switched to new journal", zap.String("path", path))
	l.drain()
}

func (l *Loop) drain() {
	before := l.tailer.Truncations()
	lines, err := l.tailer.ReadNewLines()
	if l.tailer.Truncations() != before {
		l.log.Info("journal shrank, reading from the start", zap.String("path", l.tailer.Position().Path))
	}
	if err != nil {
		l.log.Warn("reading journal", zap.Error(err))
		return
	}
	for _, line := range lines {
		l.HandleLine(line)
	}
}

// HandleLine classifies one journal line and applies it.
func (l *Loop) HandleLine(line string) {
	l.HandleEvent(l.classifier.Classify(line))
}

// HandleEvent applies ev to the state machine.
func (l *Loop) HandleEvent(ev journal.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch ev.Kind {
	case journal.KindTrigger:
		if ev.Subject == l.subject {
			l.log.Debug("duplicate jump, ignoring", zap.String("system", ev.Subject))
			return
		}
		l.log.Info("jumped", zap.String("system", ev.Subject), zap.String("from", l.subject))
		l.act.Stop()
		l.subject = ev.Subject
		l.state = StateActuating
		l.armed = true
		l.delay.Reset(l.opts.DelayAfterJump)

	case journal.KindCompletion:
		l.disarm()
		l.act.Stop()
		if info := l.sessions[l.current]; info != nil && ev.Counts != nil {
			info.counts = ev.Counts
		}
		fields := []zap.Field{zap.String("system", l.subject)}
		if ev.Counts != nil {
			fields = append(fields, zap.Int("bodies", ev.Counts.BodyCount), zap.Int("non_bodies", ev.Counts.NonBodyCount))
		}
		l.log.Info("discovery scan complete", fields...)
		if l.subject == "" {
			l.state = StateIdle
		} else {
			l.state = StateSettled
		}

	case journal.KindContextUpdate:
		if ev.Subject == l.subject {
			return
		}
		l.log.Info("location update", zap.String("system", ev.Subject), zap.String("event", ev.Name))
		l.subject = ev.Subject
		if l.state != StateActuating {
			l.state = StateSettled
		}

	default:
		if ev.Name == "" {
			l.malformed++
			return
		}
		l.ignored++
		l.log.Debug("ignoring event", zap.String("event", ev.Name))
	}
}

func (l *Loop) setJournal(path string) {
	l.mu.Lock()
	l.journal = path
	l.mu.Unlock()
}

func (l *Loop) disarm() {
	if l.armed {
		l.delay.Stop()
		l.armed = false
		l.log.Debug("pending start cancelled")
	}
}

func (l *Loop) fireDelay() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.armed {
		return
	}
	l.armed = false

	id, ok := l.act.Start(l.key)
	if !ok {
		if l.state == StateActuating {
			l.state = StateSettled
		}
		return
	}
	l.current = id
	l.sessions[id] = &sessionInfo{subject: l.subject}
}

func (l *Loop) handleResult(ctx context.Context, res actuation.Result) {
	l.mu.Lock()
	info := l.sessions[res.ID]
	delete(l.sessions, res.ID)
	if res.ID == l.current {
		l.current = ""
		if l.state == StateActuating && !l.armed {
			l.state = StateSettled
			l.log.Debug("session ended without a scan", zap.String("reason", string(res.Reason)))
		}
	}
	l.mu.Unlock()

	l.record(ctx, res, info)
}

func (l *Loop) record(ctx context.Context, res actuation.Result, info *sessionInfo) {
	if l.recorder == nil {
		return
	}
	e := history.Entry{
		ID:        res.ID,
		Key:       res.Key.Name,
		StartedAt: res.StartedAt,
		Duration:  res.Duration,
		Reason:    string(res.Reason),
	}
	if info != nil {
		e.System = info.subject
		if info.counts != nil {
			e.BodyCount = info.counts.BodyCount
			e.NonBodyCount = info.counts.NonBodyCount
		}
	}
	if err := l.recorder.Record(ctx, e); err != nil {
		l.log.Warn("recording session", zap.Error(err))
	}
}

// shutdown releases the key and records whatever the controller reported.
func (l *Loop) shutdown() {
	l.mu.Lock()
	l.disarm()
	l.mu.Unlock()

	l.act.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		select {
		case res := <-l.act.Results():
			l.handleResult(ctx, res)
		default:
			return
		}
	}
}
