//go:build !windows

package input

import "go.uber.org/zap"

// WindowFinder is unavailable on this platform; use the dry-run finder.
type WindowFinder struct{}

// NewWindowFinder returns a finder that always fails with ErrUnsupported.
func NewWindowFinder(Criteria, *zap.Logger) *WindowFinder { return &WindowFinder{} }

// FindTargetWindow always fails with ErrUnsupported.
func (f *WindowFinder) FindTargetWindow() (Window, error) { return Window{}, ErrUnsupported }

// Injector is unavailable on this platform; use the dry-run injector.
type Injector struct{}

// NewInjector returns an injector that always fails with ErrUnsupported.
func NewInjector(*zap.Logger) *Injector { return &Injector{} }

func (i *Injector) Focus(Window) error    { return ErrUnsupported }
func (i *Injector) KeyDown(KeyCode) error { return ErrUnsupported }
func (i *Injector) KeyUp(KeyCode) error   { return ErrUnsupported }

// NativeSupported reports whether this build can inject real input.
const NativeSupported = false
