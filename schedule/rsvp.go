package schedule

import (
	"errors"
	"slices"
	"strings"
)

var (
	ErrEventFull   = errors.New("event is full")
	ErrMissingUser = errors.New("user id is required")
)

type Outcome string

const (
	Joined Outcome = "joined"
	Left   Outcome = "left"
)

// ToggleRSVP flips userID's membership in the attendee list of e and returns
// the resulting list. Leaving always succeeds. Joining a full event returns
// ErrEventFull together with an unchanged copy of the list. The input event
// is never modified.
func ToggleRSVP(e Event, userID string) ([]string, Outcome, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return slices.Clone(e.Attendees), "", ErrMissingUser
	}
	if e.HasAttendee(userID) {
		attendees := make([]string, 0, len(e.Attendees))
		for _, a := range e.Attendees {
			if a != userID {
				attendees = append(attendees, a)
			}
		}
		return attendees, Left, nil
	}
	if e.IsFull() {
		return slices.Clone(e.Attendees), "", ErrEventFull
	}
	attendees := make([]string, 0, len(e.Attendees)+1)
	attendees = append(attendees, e.Attendees...)
	return append(attendees, userID), Joined, nil
}
