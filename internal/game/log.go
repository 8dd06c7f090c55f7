package game

import (
	"time"

	"github.com/google/uuid"
)

// Event is delivered to a Log observer. Cleared is true for a Clear call,
// in which case Line is the zero value.
type Event struct {
	Line    Line
	Cleared bool
}

// Log is the ordered, append-only record of everything a terminal has printed.
// The only way to drop entries is Clear, which drops all of them.
//
// Log is not safe for concurrent use; the owning terminal serializes access.
type Log struct {
	lines    []Line
	now      func() time.Time
	observer func(Event)
}

// LogOption configures a Log.
type LogOption func(*Log)

// WithClock overrides the timestamp source (tests).
func WithClock(now func() time.Time) LogOption {
	return func(l *Log) { l.now = now }
}

// WithObserver registers a callback run after every Append and Clear.
func WithObserver(fn func(Event)) LogOption {
	return func(l *Log) { l.observer = fn }
}

// NewLog returns an empty Log.
func NewLog(opts ...LogOption) *Log {
	l := &Log{now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Append adds a line with a fresh ID and the current time.
func (l *Log) Append(text string, c Category) Line {
	ln := Line{
		ID:        uuid.NewString(),
		Category:  c,
		Text:      text,
		CreatedAt: l.now(),
	}
	l.lines = append(l.lines, ln)
	if l.observer != nil {
		l.observer(Event{Line: ln})
	}
	return ln
}

// Clear drops every line.
func (l *Log) Clear() {
	l.lines = nil
	if l.observer != nil {
		l.observer(Event{Cleared: true})
	}
}

// Lines returns a copy of the log in append order.
func (l *Log) Lines() []Line {
	out := make([]Line, len(l.lines))
	copy(out, l.lines)
	return out
}

// Len reports the number of lines.
func (l *Log) Len() int { return len(l.lines) }
