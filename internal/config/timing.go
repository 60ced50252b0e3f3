package config

import (
	"fmt"
	"time"
)

// TimingConfig holds durations as strings ("2s", "100ms").
type TimingConfig struct {
	// Wait after a jump before honking, to let the game settle
	DelayAfterJump string `yaml:"delay_after_jump"`

	// Safety cutoff for a single honk
	MaxHonkDuration string `yaml:"max_honk_duration"`

	// How often the honk worker re-checks cancellation and its deadline
	KeyPressInterval string `yaml:"key_press_interval"`

	// How long a stop waits for the worker to release the key
	StopWait string `yaml:"stop_wait"`

	// Pause between focusing the game window and pressing the key
	FocusDelay string `yaml:"focus_delay"`

	// Fallback journal poll when file notifications are missed
	PollInterval string `yaml:"poll_interval"`
}

func parseOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// GetDelayAfterJump returns the post-jump delay.
func (t TimingConfig) GetDelayAfterJump() time.Duration {
	return parseOr(t.DelayAfterJump, 2*time.Second)
}

// GetMaxHonkDuration returns the honk safety cutoff.
func (t TimingConfig) GetMaxHonkDuration() time.Duration {
	return parseOr(t.MaxHonkDuration, 7*time.Second)
}

// GetKeyPressInterval returns the worker tick interval.
func (t TimingConfig) GetKeyPressInterval() time.Duration {
	return parseOr(t.KeyPressInterval, 100*time.Millisecond)
}

// GetStopWait returns the bounded stop wait.
func (t TimingConfig) GetStopWait() time.Duration {
	return parseOr(t.StopWait, time.Second)
}

// GetFocusDelay returns the focus-to-keydown pause.
func (t TimingConfig) GetFocusDelay() time.Duration {
	return parseOr(t.FocusDelay, 200*time.Millisecond)
}

// GetPollInterval returns the fallback poll interval.
func (t TimingConfig) GetPollInterval() time.Duration {
	return parseOr(t.PollInterval, time.Second)
}

func (t TimingConfig) validate() error {
	fields := []struct {
		name, value string
	}{
		{"delay_after_jump", t.DelayAfterJump},
		{"max_honk_duration", t.MaxHonkDuration},
		{"key_press_interval", t.KeyPressInterval},
		{"stop_wait", t.StopWait},
		{"focus_delay", t.FocusDelay},
		{"poll_interval", t.PollInterval},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		d, err := time.ParseDuration(f.value)
		if err != nil {
			return fmt.Errorf("timing.%s: %w", f.name, err)
		}
		if d < 0 {
			return fmt.Errorf("timing.%s must not be negative", f.name)
		}
	}
	// A tick slower than 150ms makes stops sluggish.
	if iv := t.GetKeyPressInterval(); iv <= 0 || iv > 150*time.Millisecond {
		return fmt.Errorf("timing.key_press_interval must be in (0, 150ms], got %s", iv)
	}
	if t.GetMaxHonkDuration() <= 0 {
		return fmt.Errorf("timing.max_honk_duration must be positive")
	}
	return nil
}
