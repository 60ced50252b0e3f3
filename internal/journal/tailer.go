// Package journal reads the game's append-only event journal: it follows the
// newest Journal.*.log file, yields newly completed lines, and classifies
// them into the events the monitor reacts to.
package journal

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Position records how far into a journal file has been consumed.
type Position struct {
	Path   string
	Offset int64
}

// Tailer returns lines appended to a single file since the last read.
// It is not safe for concurrent use; the monitor loop owns it.
type Tailer struct {
	pos       Position
	truncated int
}

// NewTailer creates a detached tailer.
func NewTailer() *Tailer {
	return &Tailer{}
}

// Attach starts following path. A brand-new file is read from the start;
// otherwise reading begins at the current end so history is not replayed.
func (t *Tailer) Attach(path string, fromStart bool) error {
	var offset int64
	if !fromStart {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("attaching to %s: %w", path, err)
		}
		offset = info.Size()
	}
	t.pos = Position{Path: path, Offset: offset}
	return nil
}

// Attached reports whether a file is being followed.
func (t *Tailer) Attached() bool { return t.pos.Path != "" }

// Position returns the current file and offset.
func (t *Tailer) Position() Position { return t.pos }

// Truncations returns how many times the followed file was found shorter
// than the stored offset.
func (t *Tailer) Truncations() int { return t.truncated }

// ReadNewLines returns the complete lines appended since the last call.
// A trailing line without its terminator is left unread until the writer
// finishes it. Blank lines are skipped and CRLF endings are trimmed.
func (t *Tailer) ReadNewLines() ([]string, error) {
	if t.pos.Path == "" {
		return nil, nil
	}

	f, err := os.Open(t.pos.Path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat journal: %w", err)
	}
	if info.Size() < t.pos.Offset {
		t.truncated++
		t.pos.Offset = 0
	}
	if info.Size() == t.pos.Offset {
		return nil, nil
	}

	if _, err := f.Seek(t.pos.Offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking journal: %w", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}

	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return nil, nil
	}
	complete := data[:end+1]
	t.pos.Offset += int64(len(complete))

	var lines []string
	for _, raw := range bytes.Split(complete[:len(complete)-1], []byte{'\n'}) {
		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}
		lines = append(lines, string(line))
	}
	return lines, nil
}
