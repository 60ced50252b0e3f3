package input

import (
	"sync"

	"go.uber.org/zap"
)

// DryRun stands in for both the window finder and the injector. It logs
// every call and counts key transitions instead of touching the desktop.
type DryRun struct {
	log *zap.Logger

	mu    sync.Mutex
	downs int
	ups   int
}

// NewDryRun creates a dry-run backend.
func NewDryRun(log *zap.Logger) *DryRun {
	return &DryRun{log: log}
}

// FindTargetWindow returns a placeholder window.
func (d *DryRun) FindTargetWindow() (Window, error) {
	return Window{Title: "dry-run", Process: "dry-run"}, nil
}

func (d *DryRun) Focus(w Window) error {
	d.log.Info("dry-run focus", zap.String("title", w.Title))
	return nil
}

func (d *DryRun) KeyDown(code KeyCode) error {
	d.mu.Lock()
	d.downs++
	d.mu.Unlock()
	d.log.Info("dry-run key down", zap.Uint16("vk", uint16(code)))
	return nil
}

func (d *DryRun) KeyUp(code KeyCode) error {
	d.mu.Lock()
	d.ups++
	d.mu.Unlock()
	d.log.Info("dry-run key up", zap.Uint16("vk", uint16(code)))
	return nil
}

// Counts returns the number of key-down and key-up events seen so far.
func (d *DryRun) Counts() (downs, ups int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.downs, d.ups
}
