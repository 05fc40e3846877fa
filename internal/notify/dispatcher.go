package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "fitcal/internal/log"
	"fitcal/internal/schedule"
)

// Dispatcher is the production notification Service. Repeating triggers
// become cron entries; one-shot triggers become timers. Fired triggers are
// handed to the Sink. One-shot triggers unregister themselves after firing,
// so ListPending reflects only standing triggers.
type Dispatcher struct {
	mu      sync.Mutex
	cron    *cron.Cron
	sink    Sink
	loc     *time.Location
	entries map[string]cron.EntryID
	timers  map[string]*time.Timer
}

// NewDispatcher starts the cron runner in the given display timezone.
func NewDispatcher(sink Sink, loc *time.Location) *Dispatcher {
	if loc == nil {
		loc = time.Local
	}
	d := &Dispatcher{
		cron:    cron.New(cron.WithLocation(loc)),
		sink:    sink,
		loc:     loc,
		entries: make(map[string]cron.EntryID),
		timers:  make(map[string]*time.Timer),
	}
	d.cron.Start()
	return d
}

// Stop halts the cron runner and drops every pending one-shot timer.
func (d *Dispatcher) Stop() {
	d.cron.Stop()
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}

func (d *Dispatcher) Schedule(key string, spec schedule.TriggerSpec, content Content) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Same-key re-registration replaces the previous trigger.
	d.removeLocked(key)

	if spec.Repeats {
		expr := cronExpr(spec)
		id, err := d.cron.AddFunc(expr, func() {
			d.sink.Notify(key, content)
		})
		if err != nil {
			return fmt.Errorf("notify: bad cron spec %q: %w", expr, err)
		}
		d.entries[key] = id
		appLog.Debug("trigger registered", "key", key, "cron", expr)
		return nil
	}

	fireAt := time.Date(spec.Date.Year(), spec.Date.Month(), spec.Date.Day(),
		spec.Hour, spec.Minute, 0, 0, d.loc)
	delay := time.Until(fireAt)
	if delay <= 0 {
		// The moment has already passed; nothing to remind about.
		appLog.Warn("one-shot trigger in the past, skipping", "key", key, "fire_at", fireAt.Format(time.RFC3339))
		return nil
	}

	d.timers[key] = time.AfterFunc(delay, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		d.sink.Notify(key, content)
	})
	appLog.Debug("trigger registered", "key", key, "fire_at", fireAt.Format(time.RFC3339))
	return nil
}

func (d *Dispatcher) Cancel(keys []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, key := range keys {
		d.removeLocked(key)
	}
	return nil
}

func (d *Dispatcher) ListPending() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := make([]string, 0, len(d.entries)+len(d.timers))
	for key := range d.entries {
		keys = append(keys, key)
	}
	for key := range d.timers {
		keys = append(keys, key)
	}
	return keys, nil
}

func (d *Dispatcher) removeLocked(key string) {
	if id, ok := d.entries[key]; ok {
		d.cron.Remove(id)
		delete(d.entries, key)
	}
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
}

// cronExpr renders a repeating trigger as a five-field cron spec. Cron uses
// Sunday=0 weekday numbering, so the canonical weekday goes through Time().
func cronExpr(spec schedule.TriggerSpec) string {
	if spec.Weekday.Valid() {
		return fmt.Sprintf("%d %d * * %d", spec.Minute, spec.Hour, int(spec.Weekday.Time()))
	}
	return fmt.Sprintf("%d %d * * *", spec.Minute, spec.Hour)
}
