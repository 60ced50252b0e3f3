//go:build windows

package input

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

const keyeventfKeyUp = 0x0002

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procEnumWindows          = user32.NewProc("EnumWindows")
	procIsWindowVisible      = user32.NewProc("IsWindowVisible")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procSetForegroundWindow  = user32.NewProc("SetForegroundWindow")
	procKeybdEvent           = user32.NewProc("keybd_event")
)

// EnumWindows callbacks cannot capture state, so enumeration is serialised
// through a single callback and a package-level collector.
var (
	enumMu       sync.Mutex
	enumHandles  []windows.HWND
	enumCallback uintptr
	enumOnce     sync.Once
)

func enumProc(hwnd windows.HWND, _ uintptr) uintptr {
	enumHandles = append(enumHandles, hwnd)
	return 1
}

func visibleWindows() ([]windows.HWND, error) {
	enumOnce.Do(func() { enumCallback = windows.NewCallback(enumProc) })

	enumMu.Lock()
	defer enumMu.Unlock()
	enumHandles = enumHandles[:0]
	r, _, err := procEnumWindows.Call(enumCallback, 0)
	if r == 0 {
		return nil, fmt.Errorf("EnumWindows: %w", err)
	}
	out := make([]windows.HWND, 0, len(enumHandles))
	for _, h := range enumHandles {
		if v, _, _ := procIsWindowVisible.Call(uintptr(h)); v != 0 {
			out = append(out, h)
		}
	}
	return out, nil
}

func windowTitle(hwnd windows.HWND) string {
	n, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf)
}

func processImage(hwnd windows.HWND) (string, error) {
	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
		return "", err
	}
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return "", err
	}
	defer windows.CloseHandle(h)

	buf := make([]uint16, windows.MAX_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return "", err
	}
	return windows.UTF16ToString(buf[:size]), nil
}

// WindowFinder locates the game window among visible top-level windows.
type WindowFinder struct {
	criteria Criteria
	log      *zap.Logger
}

// NewWindowFinder creates a finder for windows matching c.
func NewWindowFinder(c Criteria, log *zap.Logger) *WindowFinder {
	return &WindowFinder{criteria: c, log: log}
}

// FindTargetWindow returns the first visible window matching the criteria.
func (f *WindowFinder) FindTargetWindow() (Window, error) {
	handles, err := visibleWindows()
	if err != nil {
		return Window{}, err
	}
	title := strings.ToLower(f.criteria.TitleContains)
	proc := strings.ToLower(f.criteria.ProcessContains)
	for _, h := range handles {
		t := windowTitle(h)
		if title != "" && !strings.Contains(strings.ToLower(t), title) {
			continue
		}
		image, err := processImage(h)
		if err != nil {
			// Windows of elevated or protected processes are not readable.
			continue
		}
		if proc != "" && !strings.Contains(strings.ToLower(image), proc) {
			continue
		}
		f.log.Info("found target window", zap.String("title", t), zap.String("process", image))
		return Window{Handle: uintptr(h), Title: t, Process: image}, nil
	}
	return Window{}, fmt.Errorf("%w: title %q, process %q", ErrWindowNotFound, f.criteria.TitleContains, f.criteria.ProcessContains)
}

// Injector sends synthetic keyboard events through keybd_event.
type Injector struct {
	log *zap.Logger
}

// NewInjector creates a native injector.
func NewInjector(log *zap.Logger) *Injector {
	return &Injector{log: log}
}

// Focus brings w to the foreground.
func (i *Injector) Focus(w Window) error {
	if r, _, err := procSetForegroundWindow.Call(w.Handle); r == 0 {
		return fmt.Errorf("SetForegroundWindow: %w", err)
	}
	return nil
}

// KeyDown presses code.
func (i *Injector) KeyDown(code KeyCode) error {
	procKeybdEvent.Call(uintptr(byte(code)), 0, 0, 0)
	i.log.Debug("key down", zap.Uint16("vk", uint16(code)))
	return nil
}

// KeyUp releases code.
func (i *Injector) KeyUp(code KeyCode) error {
	procKeybdEvent.Call(uintptr(byte(code)), 0, keyeventfKeyUp, 0)
	i.log.Debug("key up", zap.Uint16("vk", uint16(code)))
	return nil
}
