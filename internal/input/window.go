package input

import "errors"

var (
	// ErrWindowNotFound is returned when no window matches the criteria.
	ErrWindowNotFound = errors.New("target window not found")
	// ErrUnsupported is returned by the native finder and injector on
	// platforms without an input backend.
	ErrUnsupported = errors.New("input injection not supported on this platform")
)

// Window identifies a native top-level window.
type Window struct {
	Handle  uintptr
	Title   string
	Process string
}

// Criteria selects the game window.
type Criteria struct {
	// TitleContains is matched case-insensitively against the window title.
	TitleContains string
	// ProcessContains is matched case-insensitively against the process
	// image path.
	ProcessContains string
}
