package schedule

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// VenueZone is the fixed offset every schedule comparison is made in. It is
// UTC-8 all year so every viewer sees the venue's calendar day, and is an
// hour off during daylight saving months.
var VenueZone = time.FixedZone("UTC-8", -8*60*60)

type Type string

const (
	TypeWorkout Type = "Workout"
	TypeEvent   Type = "Event"
)

func (t Type) Valid() bool {
	return t == TypeWorkout || t == TypeEvent
}

// ParseType accepts the stored spelling and a case-insensitive variant of it.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "workout":
		return TypeWorkout, nil
	case "event":
		return TypeEvent, nil
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

// Event is a single schedule entry as persisted in the events collection.
type Event struct {
	ID                    string    `json:"id" firestore:"id" db:"id"`
	Name                  string    `json:"name" firestore:"name" db:"name"`
	Type                  Type      `json:"type" firestore:"type" db:"type"`
	Date                  string    `json:"date" firestore:"date" db:"date"`
	Time                  string    `json:"time" firestore:"time" db:"time"`
	Description           string    `json:"description" firestore:"description" db:"description"`
	AdditionalDetails     string    `json:"additionalDetails,omitempty" firestore:"additionalDetails" db:"additional_details"`
	Tags                  string    `json:"tags,omitempty" firestore:"tags" db:"tags"`
	CreatorEmail          string    `json:"creatorEmail" firestore:"creatorEmail" db:"creator_email"`
	CreatorName           string    `json:"creatorName" firestore:"creatorName" db:"creator_name"`
	CreatorProfilePicture string    `json:"creatorProfilePicture,omitempty" firestore:"creatorProfilePicture" db:"creator_profile_picture"`
	MaxRSVPs              int       `json:"maxRSVPs,omitempty" firestore:"maxRSVPs" db:"max_rsvps"`
	Attendees             []string  `json:"attendees" firestore:"attendees" db:"attendees"`
	CreatedAt             time.Time `json:"createdAt" firestore:"createdAt" db:"created_at"`
	UpdatedAt             time.Time `json:"updatedAt" firestore:"updatedAt" db:"updated_at"`
}

// Start is the absolute instant of the event, reading Date and Time in VenueZone.
func (e Event) Start() (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, e.Date+" "+e.Time, VenueZone)
}

func (e Event) HasAttendee(userID string) bool {
	return slices.Contains(e.Attendees, userID)
}

// IsFull reports whether a new RSVP would exceed MaxRSVPs. Zero means unlimited.
func (e Event) IsFull() bool {
	return e.MaxRSVPs > 0 && len(e.Attendees) >= e.MaxRSVPs
}

// SpotsLeft returns -1 when the event has no cap.
func (e Event) SpotsLeft() int {
	if e.MaxRSVPs <= 0 {
		return -1
	}
	return max(e.MaxRSVPs-len(e.Attendees), 0)
}

// DayOf returns the venue calendar day of t.
func DayOf(t time.Time) string {
	return t.In(VenueZone).Format(DateLayout)
}

type Day struct {
	Date  string `json:"date"`
	Label string `json:"label"`
}

// Days lists n consecutive venue days starting with the day of from.
func Days(from time.Time, n int) []Day {
	if n <= 0 {
		return []Day{}
	}
	start := from.In(VenueZone)
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, VenueZone)
	days := make([]Day, 0, n)
	for i := 0; i < n; i++ {
		d := start.AddDate(0, 0, i)
		days = append(days, Day{
			Date:  d.Format(DateLayout),
			Label: d.Format("Mon, Jan 2, 2006"),
		})
	}
	return days
}
