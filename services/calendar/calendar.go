package calendar

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"tritonthenix/schedule"
)

const (
	ProductID = "-//TritonThenix//Schedule//EN"
	uidDomain = "tritonthenix"

	// Duration is how long each entry is shown for. Entries carry only a
	// start time.
	Duration = time.Hour
)

// ErrEmpty means no entry qualified for the feed. An iCalendar object must
// hold at least one component.
var ErrEmpty = errors.New("no upcoming entries")

// Upcoming keeps entries on or after the venue day of now. Entries whose
// date or time cannot be parsed are dropped.
func Upcoming(events []schedule.Event, now time.Time) []schedule.Event {
	today := schedule.DayOf(now)
	result := make([]schedule.Event, 0, len(events))
	for _, e := range events {
		if _, err := e.Start(); err != nil {
			continue
		}
		if e.Date >= today {
			result = append(result, e)
		}
	}
	return result
}

// Encode writes events as a VCALENDAR with one VEVENT per entry.
func Encode(w io.Writer, events []schedule.Event, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	for _, e := range events {
		ve, err := toVEvent(e, now)
		if err != nil {
			continue
		}
		cal.Children = append(cal.Children, ve)
	}
	if len(cal.Children) == 0 {
		return ErrEmpty
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

func toVEvent(e schedule.Event, now time.Time) (*ical.Component, error) {
	start, err := e.Start()
	if err != nil {
		return nil, err
	}
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, e.ID+"@"+uidDomain)
	ve.Props.SetText(ical.PropSummary, e.Name)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(Duration).UTC())

	description := e.Description
	if e.AdditionalDetails != "" {
		description += "\n\n" + e.AdditionalDetails
	}
	if description != "" {
		ve.Props.SetText(ical.PropDescription, description)
	}
	if tags := strings.TrimSpace(e.Tags); tags != "" {
		ve.Props.SetText(ical.PropCategories, tags)
	}
	if e.CreatorEmail != "" {
		p := ical.NewProp(ical.PropOrganizer)
		p.SetText(fmt.Sprintf("mailto:%s", e.CreatorEmail))
		ve.Props.Add(p)
	}
	return ve, nil
}
