package notify

import (
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"fitcal/internal/model"
	"fitcal/internal/schedule"
)

func TestCronExpr(t *testing.T) {
	daily := schedule.TriggerSpec{Repeats: true, Hour: 7, Minute: 30}
	if got := cronExpr(daily); got != "30 7 * * *" {
		t.Fatalf("daily expr = %q", got)
	}

	monday := schedule.TriggerSpec{Repeats: true, Weekday: model.Monday, Hour: 18, Minute: 0}
	if got := cronExpr(monday); got != "0 18 * * 1" {
		t.Fatalf("monday expr = %q", got)
	}

	// Cron numbers Sunday as 0, the canonical numbering as 7.
	sunday := schedule.TriggerSpec{Repeats: true, Weekday: model.Sunday, Hour: 9, Minute: 15}
	if got := cronExpr(sunday); got != "15 9 * * 0" {
		t.Fatalf("sunday expr = %q", got)
	}
}

func TestDispatcher_RegisterCancelList(t *testing.T) {
	d := NewDispatcher(LogSink{}, time.UTC)
	defer d.Stop()

	id := uuid.New()
	keyA := schedule.NewWeekdayKey(id, model.Monday).String()
	keyB := schedule.NewKey(uuid.New()).String()

	if err := d.Schedule(keyA, schedule.TriggerSpec{Repeats: true, Weekday: model.Monday, Hour: 8}, Content{}); err != nil {
		t.Fatalf("schedule repeating: %v", err)
	}
	if err := d.Schedule(keyB, schedule.TriggerSpec{Repeats: true, Hour: 12, Minute: 30}, Content{}); err != nil {
		t.Fatalf("schedule daily: %v", err)
	}

	pending, err := d.ListPending()
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	sort.Strings(pending)
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %v", pending)
	}

	if err := d.Cancel([]string{keyA}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	pending, _ = d.ListPending()
	if len(pending) != 1 || pending[0] != keyB {
		t.Fatalf("expected only %q pending, got %v", keyB, pending)
	}

	// Cancelling an unknown key is a no-op.
	if err := d.Cancel([]string{"itm_missing"}); err != nil {
		t.Fatalf("cancel unknown: %v", err)
	}
}

func TestDispatcher_SameKeyReplaces(t *testing.T) {
	d := NewDispatcher(LogSink{}, time.UTC)
	defer d.Stop()

	key := schedule.NewKey(uuid.New()).String()
	if err := d.Schedule(key, schedule.TriggerSpec{Repeats: true, Hour: 8}, Content{}); err != nil {
		t.Fatalf("first schedule: %v", err)
	}
	if err := d.Schedule(key, schedule.TriggerSpec{Repeats: true, Hour: 9}, Content{}); err != nil {
		t.Fatalf("second schedule: %v", err)
	}

	pending, _ := d.ListPending()
	if len(pending) != 1 {
		t.Fatalf("re-registration must replace, got %v", pending)
	}
}

func TestDispatcher_PastOneShotIsSkipped(t *testing.T) {
	d := NewDispatcher(LogSink{}, time.UTC)
	defer d.Stop()

	key := schedule.NewKey(uuid.New()).String()
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	err := d.Schedule(key, schedule.TriggerSpec{Date: yesterday, Hour: 12}, Content{})
	if err != nil {
		t.Fatalf("schedule past one-shot: %v", err)
	}

	pending, _ := d.ListPending()
	if len(pending) != 0 {
		t.Fatalf("past one-shot must not be registered, got %v", pending)
	}
}

func TestDispatcher_FutureOneShotIsPending(t *testing.T) {
	d := NewDispatcher(LogSink{}, time.UTC)
	defer d.Stop()

	key := schedule.NewKey(uuid.New()).String()
	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	err := d.Schedule(key, schedule.TriggerSpec{Date: tomorrow, Hour: 12}, Content{})
	if err != nil {
		t.Fatalf("schedule one-shot: %v", err)
	}

	pending, _ := d.ListPending()
	if len(pending) != 1 || pending[0] != key {
		t.Fatalf("expected pending one-shot, got %v", pending)
	}
}
