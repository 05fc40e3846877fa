package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"fitcal/internal/model"
)

// itemKeyPrefix namespaces all item-derived notification identifiers so they
// can never collide with other key families (e.g. water reminders).
const itemKeyPrefix = "itm"

// Key identifies a single registered trigger. It is a structured value
// (item ID plus optional weekday) rather than a bare string so that
// "belongs to item X" is decided by exact ID comparison, not raw string
// prefix matching. The string form is produced only at the notification
// service boundary.
type Key struct {
	ItemID uuid.UUID
	// Weekday is set only for weekly triggers, so multiple weekday entries
	// of one item stay individually cancellable. Zero means "no weekday".
	Weekday model.Weekday
}

// NewKey returns the weekday-less key for an item (Once and Daily triggers).
func NewKey(id uuid.UUID) Key {
	return Key{ItemID: id}
}

// NewWeekdayKey returns the key of one weekly trigger.
func NewWeekdayKey(id uuid.UUID, w model.Weekday) Key {
	return Key{ItemID: id, Weekday: w}
}

// String serializes the key: "itm_<uuid>" or "itm_<uuid>_<weekday>".
func (k Key) String() string {
	if k.Weekday.Valid() {
		return fmt.Sprintf("%s_%s_%d", itemKeyPrefix, k.ItemID, int(k.Weekday))
	}
	return fmt.Sprintf("%s_%s", itemKeyPrefix, k.ItemID)
}

// ParseKey parses a serialized key. Strings from other key families return
// an error.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "_")
	if len(parts) < 2 || parts[0] != itemKeyPrefix {
		return Key{}, fmt.Errorf("schedule: not an item key: %q", s)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return Key{}, fmt.Errorf("schedule: bad item id in key %q: %w", s, err)
	}
	k := Key{ItemID: id}
	if len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil || !model.Weekday(n).Valid() {
			return Key{}, fmt.Errorf("schedule: bad weekday in key %q", s)
		}
		k.Weekday = model.Weekday(n)
	} else if len(parts) > 3 {
		return Key{}, fmt.Errorf("schedule: malformed key %q", s)
	}
	return k, nil
}

// KeyBelongsTo reports whether a serialized key was derived from the given
// item. Keys of other families or malformed keys simply report false.
func KeyBelongsTo(s string, id uuid.UUID) bool {
	k, err := ParseKey(s)
	if err != nil {
		return false
	}
	return k.ItemID == id
}
