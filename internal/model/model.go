package model

import (
	"time"

	"github.com/google/uuid"
)

// Weekday is the canonical weekday enumeration used across the whole
// application: Monday=1 .. Sunday=7. All weekday handling (recurrence
// matching, trigger registration, API payloads) uses this numbering;
// time.Weekday's Sunday=0 convention never leaks past the conversion
// helpers below.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// FromTime converts a time.Weekday (Sunday=0) to the canonical numbering.
func FromTime(w time.Weekday) Weekday {
	if w == time.Sunday {
		return Sunday
	}
	return Weekday(w)
}

// Time converts back to time.Weekday.
func (w Weekday) Time() time.Weekday {
	if w == Sunday {
		return time.Sunday
	}
	return time.Weekday(w)
}

// Valid reports whether w is within Monday..Sunday.
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

func (w Weekday) String() string {
	names := [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	if !w.Valid() {
		return "?"
	}
	return names[w-1]
}

// RecurrenceKind enumerates how a scheduled item repeats.
type RecurrenceKind string

const (
	RecurrenceNone   RecurrenceKind = ""
	RecurrenceOnce   RecurrenceKind = "once"
	RecurrenceDaily  RecurrenceKind = "daily"
	RecurrenceWeekly RecurrenceKind = "weekly"
)

// Recurrence describes when a scheduled item is considered to occur.
// Date is meaningful only for RecurrenceOnce (civil date; the time-of-day
// component of the stored value is ignored for matching). Days is meaningful
// only for RecurrenceWeekly; an empty set means the item never occurs.
type Recurrence struct {
	Kind RecurrenceKind `json:"kind"`
	Date time.Time      `json:"date,omitempty"`
	Days []Weekday      `json:"days,omitempty"`
}

// HasDay reports weekday membership for weekly recurrences.
func (r Recurrence) HasDay(w Weekday) bool {
	for _, d := range r.Days {
		if d == w {
			return true
		}
	}
	return false
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Minutes returns the offset from midnight in minutes.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// ItemKind distinguishes the two schedulable item families.
type ItemKind string

const (
	ItemWorkout      ItemKind = "workout"
	ItemMealReminder ItemKind = "meal"
)

// Item is a schedulable entry: a workout or a meal reminder. ID is assigned
// once at creation and never reused, so notification keys derived from it
// cannot collide with keys of a later item. Recurrence and TimeOfDay change
// only through a full re-save.
type Item struct {
	ID          uuid.UUID  `json:"id"`
	Kind        ItemKind   `json:"kind"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes,omitempty"`
	Recurrence  Recurrence `json:"recurrence"`
	TimeOfDay   TimeOfDay  `json:"time_of_day"`
	LeadMinutes int        `json:"reminder_lead_minutes"`
	Exercises   []Exercise `json:"exercises,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Exercise is a single entry of a workout's exercise list. AI-generated
// exercises keep their full text block in Name.
type Exercise struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Occurrence is a concrete instance of an item (or an external calendar
// event) on a specific date, produced for the today/calendar views.
type Occurrence struct {
	ItemID   uuid.UUID `json:"item_id,omitempty"`
	SourceID string    `json:"source_id,omitempty"`
	Title    string    `json:"title"`
	Notes    string    `json:"notes,omitempty"`
	Kind     ItemKind  `json:"kind,omitempty"`
	AllDay   bool      `json:"all_day,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end,omitempty"`
	External bool      `json:"external,omitempty"`
}

// Recipe is a saved AI-generated recipe.
type Recipe struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	MealType     string    `json:"meal_type"`
	Ingredients  string    `json:"ingredients"`
	Instructions string    `json:"instructions"`
	CreatedAt    time.Time `json:"created_at"`
}

// VitaminQuery is a saved vitamin-suggestion request and its response text.
type VitaminQuery struct {
	ID        uuid.UUID `json:"id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// WaterDay is one civil date of water tracking. Date is "2006-01-02" in the
// display timezone; amounts are milliliters.
type WaterDay struct {
	Date   string  `json:"date"`
	Goal   float64 `json:"goal"`
	Intake float64 `json:"intake"`
}

// Profile is the single user profile row.
type Profile struct {
	Username  string    `json:"username"`
	UpdatedAt time.Time `json:"updated_at"`
}
