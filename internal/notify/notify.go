// Package notify delivers user-visible outcomes of print jobs.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Level is the severity of a notification.
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

// Notification is one message for the user.
type Notification struct {
	Level       Level     `json:"level"`
	Message     string    `json:"message"`
	Description string    `json:"description,omitempty"`
	Time        time.Time `json:"time"`
}

// Notifier receives notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to Notifier.
type Func func(n Notification)

func (f Func) Notify(n Notification) { f(n) }

// Discard drops everything.
var Discard Notifier = Func(func(Notification) {})

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, t := range m {
		if t != nil {
			t.Notify(n)
		}
	}
}

// Send stamps and delivers a notification. A nil notifier is ignored.
func Send(to Notifier, level Level, message, description string) {
	if to == nil {
		return
	}
	to.Notify(Notification{Level: level, Message: message, Description: description, Time: time.Now()})
}

// Slog writes notifications to a structured logger.
type Slog struct {
	Logger *slog.Logger
}

func (s Slog) Notify(n Notification) {
	level := slog.LevelInfo
	switch n.Level {
	case Warning:
		level = slog.LevelWarn
	case Error:
		level = slog.LevelError
	}
	s.Logger.Log(context.Background(), level, n.Message,
		slog.String("level_name", string(n.Level)),
		slog.String("description", n.Description),
	)
}

// Recorder keeps every notification. Useful for callers that report
// outcomes after the fact.
type Recorder struct {
	mu   sync.Mutex
	list []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, n)
}

// All returns a copy of what was recorded.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.list))
	copy(out, r.list)
	return out
}

// Levels lists recorded levels in order.
func (r *Recorder) Levels() []Level {
	all := r.All()
	out := make([]Level, len(all))
	for i, n := range all {
		out[i] = n.Level
	}
	return out
}
