package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoJournal is returned when a directory holds no journal files.
var ErrNoJournal = errors.New("no journal files")

// IsJournalFile reports whether name looks like a journal log
// (Journal.<timestamp>.<part>.log).
func IsJournalFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, "Journal.") && strings.HasSuffix(base, ".log")
}

// Latest returns the most recently modified journal in dir.
func Latest(dir string) (string, time.Time, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("listing journals: %w", err)
	}
	var (
		latest  string
		latestT time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !IsJournalFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestT) {
			latest, latestT = filepath.Join(dir, e.Name()), info.ModTime()
		}
	}
	if latest == "" {
		return "", time.Time{}, fmt.Errorf("%s: %w", dir, ErrNoJournal)
	}
	return latest, latestT, nil
}
