package journal

import (
	"encoding/json"
	"strings"
	"time"
)

// Kind is the classification of a journal line.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindTrigger
	KindCompletion
	KindContextUpdate
)

func (k Kind) String() string {
	switch k {
	case KindTrigger:
		return "trigger"
	case KindCompletion:
		return "completion"
	case KindContextUpdate:
		return "context_update"
	default:
		return "unrecognized"
	}
}

// ScanCounts are the informational totals carried by a completion.
type ScanCounts struct {
	BodyCount    int
	NonBodyCount int
}

// Event is one classified journal line.
type Event struct {
	Kind Kind
	// Name is the raw "event" discriminant.
	Name string
	// Subject is the star system for triggers and context updates.
	Subject string
	// Timestamp is the raw timestamp; Time is set when it parses as RFC 3339.
	Timestamp string
	Time      time.Time
	Counts    *ScanCounts
}

type entry struct {
	Event        string `json:"event"`
	Timestamp    string `json:"timestamp"`
	StarSystem   string `json:"StarSystem"`
	BodyCount    *int   `json:"BodyCount"`
	NonBodyCount *int   `json:"NonBodyCount"`
}

// Discriminants configures which "event" values map to each kind.
type Discriminants struct {
	Trigger    []string
	Completion []string
	Context    []string
}

// DefaultDiscriminants are the Elite Dangerous events for the honk cycle.
func DefaultDiscriminants() Discriminants {
	return Discriminants{
		Trigger:    []string{"FSDJump"},
		Completion: []string{"FSSDiscoveryScan"},
		Context:    []string{"Location", "LoadGame", "StartUp"},
	}
}

// Classifier maps raw journal lines to events.
type Classifier struct {
	kinds map[string]Kind
}

// NewClassifier builds a classifier. A name listed under several kinds
// takes the first of trigger, completion, context.
func NewClassifier(d Discriminants) *Classifier {
	c := &Classifier{kinds: make(map[string]Kind)}
	add := func(names []string, k Kind) {
		for _, n := range names {
			if _, dup := c.kinds[n]; !dup {
				c.kinds[n] = k
			}
		}
	}
	add(d.Trigger, KindTrigger)
	add(d.Completion, KindCompletion)
	add(d.Context, KindContextUpdate)
	return c
}

// Classify parses line. Lines that are not JSON objects, carry an unknown
// discriminant, or lack the star system a kind needs yield KindUnrecognized.
func (c *Classifier) Classify(line string) Event {
	line = strings.TrimSpace(line)
	if line == "" || line[0] != '{' {
		return Event{}
	}
	var e entry
	if err := json.Unmarshal([]byte(line), &e); err != nil {
		return Event{}
	}
	kind, ok := c.kinds[e.Event]
	if !ok {
		return Event{Name: e.Event}
	}

	ev := Event{Kind: kind, Name: e.Event, Timestamp: e.Timestamp}
	if t, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
		ev.Time = t
	}

	switch kind {
	case KindTrigger, KindContextUpdate:
		if e.StarSystem == "" {
			return Event{Name: e.Event}
		}
		ev.Subject = e.StarSystem
	case KindCompletion:
		if e.BodyCount != nil || e.NonBodyCount != nil {
			ev.Counts = &ScanCounts{}
			if e.BodyCount != nil {
				ev.Counts.BodyCount = *e.BodyCount
			}
			if e.NonBodyCount != nil {
				ev.Counts.NonBodyCount = *e.NonBodyCount
			}
		}
	}
	return ev
}
