package schedule

import (
	"cmp"
	"slices"
	"time"
)

type Buckets struct {
	Today    []Event `json:"today"`
	Upcoming []Event `json:"upcoming"`
	Past     []Event `json:"past"`
}

// Classify splits events into today, upcoming and past relative to now. An
// event on today's venue date is only ever in Today; the rest are Upcoming
// when they start at or after now and Past otherwise. Entries with an
// unparsable date or time land in Past. Every bucket is sorted by start.
func Classify(events []Event, now time.Time) Buckets {
	today := DayOf(now)
	b := Buckets{
		Today:    []Event{},
		Upcoming: []Event{},
		Past:     []Event{},
	}
	for _, e := range events {
		if e.Date == today {
			b.Today = append(b.Today, e)
			continue
		}
		start, err := e.Start()
		if err == nil && !start.Before(now) {
			b.Upcoming = append(b.Upcoming, e)
		} else {
			b.Past = append(b.Past, e)
		}
	}
	SortByDate(b.Today)
	SortByDate(b.Upcoming)
	SortByDate(b.Past)
	return b
}

// FilterByDay returns the workouts scheduled on selectedDate, ordered by time.
// Events of type Event are never returned.
func FilterByDay(events []Event, selectedDate string) []Event {
	result := make([]Event, 0)
	for _, e := range events {
		if e.Type == TypeWorkout && e.Date == selectedDate {
			result = append(result, e)
		}
	}
	SortByDate(result)
	return result
}

// OfType keeps only entries of type t, preserving order.
func OfType(events []Event, t Type) []Event {
	result := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// SortByDate orders chronologically by date then time. Both are fixed-width
// so string comparison is enough.
func SortByDate(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Time, b.Time)
	})
}

// SortByCreatedDesc orders newest first, as the admin history expects.
func SortByCreatedDesc(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
