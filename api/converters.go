package api

import (
	"tritonthenix/schedule"
	"tritonthenix/services/session"
	"tritonthenix/services/user"
	"tritonthenix/utils"
)

func TransformEvent(e schedule.Event) Event {
	attendees := e.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	return Event{
		ID:                    e.ID,
		Name:                  e.Name,
		Type:                  string(e.Type),
		Date:                  e.Date,
		Time:                  e.Time,
		Description:           e.Description,
		AdditionalDetails:     e.AdditionalDetails,
		Tags:                  e.Tags,
		CreatorEmail:          e.CreatorEmail,
		CreatorName:           e.CreatorName,
		CreatorProfilePicture: e.CreatorProfilePicture,
		MaxRSVPs:              e.MaxRSVPs,
		SpotsLeft:             e.SpotsLeft(),
		Attendees:             attendees,
		CreatedAt:             e.CreatedAt,
		UpdatedAt:             e.UpdatedAt,
	}
}

func TransformEvents(events []schedule.Event) []Event {
	result := make([]Event, 0, len(events))
	for _, e := range events {
		result = append(result, TransformEvent(e))
	}
	return result
}

func TransformBuckets(b schedule.Buckets) Buckets {
	return Buckets{
		Today:    TransformEvents(b.Today),
		Upcoming: TransformEvents(b.Upcoming),
		Past:     TransformEvents(b.Past),
	}
}

func TransformDays(days []schedule.Day) []Day {
	result := make([]Day, 0, len(days))
	for _, d := range days {
		result = append(result, Day{Date: d.Date, Label: d.Label})
	}
	return result
}

func TransformFieldErrors(fields []schedule.FieldError) []FieldError {
	result := make([]FieldError, 0, len(fields))
	for _, f := range fields {
		result = append(result, FieldError{Field: f.Field, Message: f.Message})
	}
	return result
}

func TransformAttendees(profiles []user.Profile) []Attendee {
	result := make([]Attendee, 0, len(profiles))
	for _, p := range profiles {
		result = append(result, Attendee{Email: p.Email, Name: p.Name, ProfilePicture: p.ProfilePicture})
	}
	return result
}

// TransformMe prefers the stored profile picture over the one in the session.
func TransformMe(s *session.Session, p *user.Profile) Me {
	me := Me{
		Email:          s.Email,
		Name:           s.Name,
		ProfilePicture: s.Picture,
		IsAdmin:        s.IsAdmin,
		TempAdmin:      s.TempAdmin,
	}
	if p != nil {
		if p.Name != "" {
			me.Name = p.Name
		}
		me.ProfilePicture = p.ProfilePicture
	}
	return me
}

// parseType keeps unknown spellings so validation can report them.
func parseType(s string) schedule.Type {
	t, err := schedule.ParseType(s)
	if err != nil {
		return schedule.Type(s)
	}
	return t
}

func (d EventDraft) ToDraft() schedule.Draft {
	return schedule.Draft{
		Name:              d.Name,
		Type:              parseType(d.Type),
		Date:              d.Date,
		Time:              d.Time,
		Description:       d.Description,
		AdditionalDetails: d.AdditionalDetails,
		Tags:              d.Tags,
		MaxRSVPs:          d.MaxRSVPs,
	}
}

func (p EventPatch) ToPatch() schedule.Patch {
	patch := schedule.Patch{
		Name:              p.Name,
		Date:              p.Date,
		Time:              p.Time,
		Description:       p.Description,
		AdditionalDetails: p.AdditionalDetails,
		Tags:              p.Tags,
		MaxRSVPs:          p.MaxRSVPs,
	}
	if p.Type != nil {
		patch.Type = utils.ToPointer(parseType(*p.Type))
	}
	return patch
}
