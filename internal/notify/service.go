// Package notify delivers local reminders. The Service interface mirrors the
// three operations the rest of the application needs from a notification
// backend (schedule, cancel, list pending); the production implementation is
// the cron-backed Dispatcher.
package notify

import (
	"fitcal/internal/schedule"
)

// Content is what a fired reminder shows the user.
type Content struct {
	Title string
	Body  string
}

// Service is the local notification backend. Delivery of fired triggers is
// the backend's concern; callers only manage the registered trigger set.
// All methods are safe for concurrent use.
type Service interface {
	// Schedule registers a trigger under the given key, replacing any
	// existing trigger with the same key.
	Schedule(key string, spec schedule.TriggerSpec, content Content) error

	// Cancel removes the listed keys. Unknown keys are ignored.
	Cancel(keys []string) error

	// ListPending returns the keys of every currently registered trigger.
	ListPending() ([]string, error)
}
