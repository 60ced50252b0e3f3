package input

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// ErrNoBinding is returned when no keyboard Primary Fire binding exists.
var ErrNoBinding = errors.New("no keyboard PrimaryFire binding")

type bindsFile struct {
	PrimaryFire *struct {
		Primary *struct {
			Device string `xml:"Device,attr"`
			Key    string `xml:"Key,attr"`
		} `xml:"Primary"`
	} `xml:"PrimaryFire"`
}

// LatestBindings returns the most recently modified *.binds file in dir.
func LatestBindings(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.binds"))
	if err != nil {
		return "", err
	}
	var (
		latest  string
		latestT int64
	)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if t := info.ModTime().UnixNano(); latest == "" || t > latestT {
			latest, latestT = m, t
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no .binds files in %s: %w", dir, os.ErrNotExist)
	}
	return latest, nil
}

// ParsePrimaryFire reads a .binds file and returns the raw Elite key name
// bound to Primary Fire on the keyboard (e.g. "Key_Numpad_Add").
func ParsePrimaryFire(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading bindings: %w", err)
	}
	var bf bindsFile
	if err := xml.Unmarshal(data, &bf); err != nil {
		return "", fmt.Errorf("parsing bindings %s: %w", filepath.Base(path), err)
	}
	if bf.PrimaryFire == nil || bf.PrimaryFire.Primary == nil {
		return "", ErrNoBinding
	}
	p := bf.PrimaryFire.Primary
	if p.Device != "Keyboard" || p.Key == "" {
		return "", ErrNoBinding
	}
	return p.Key, nil
}

// DetectPrimaryFire returns the key name for Primary Fire from the newest
// bindings file in dir.
func DetectPrimaryFire(dir string) (string, error) {
	path, err := LatestBindings(dir)
	if err != nil {
		return "", err
	}
	raw, err := ParsePrimaryFire(path)
	if err != nil {
		return "", err
	}
	return BindingName(raw), nil
}

// KeySelection describes where the actuation key may come from.
type KeySelection struct {
	Override    string
	AutoDetect  bool
	BindingsDir string
	Fallback    string
}

// Key sources reported by ChooseKey.
const (
	SourceOverride = "override"
	SourceBinding  = "binding"
	SourceFallback = "fallback"
)

// ChooseKey picks the key name: a manual override wins, then the detected
// Primary Fire binding, then the fallback.
func ChooseKey(sel KeySelection, log *zap.Logger) (name, source string) {
	if sel.Override != "" {
		return sel.Override, SourceOverride
	}
	if sel.AutoDetect && sel.BindingsDir != "" {
		detected, err := DetectPrimaryFire(sel.BindingsDir)
		if err == nil {
			log.Info("detected primary fire binding", zap.String("key", detected))
			return detected, SourceBinding
		}
		log.Warn("primary fire detection failed", zap.String("dir", sel.BindingsDir), zap.Error(err))
	}
	return sel.Fallback, SourceFallback
}
