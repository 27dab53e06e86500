package schedule

import (
	"fmt"
	"strings"
	"time"
)

const (
	MaxNameLen        = 120
	MaxDescriptionLen = 500
	MaxDetailsLen     = 5000
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Message) }

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	return "invalid event: " + strings.Join(parts, "; ")
}

func asError(errs []FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Fields: errs}
}

// Draft holds the admin-supplied fields of a new schedule entry.
type Draft struct {
	Name              string
	Type              Type
	Date              string
	Time              string
	Description       string
	AdditionalDetails string
	Tags              string
	MaxRSVPs          int
}

// Normalize trims every free-text field. Type defaults to Workout as the
// admin form does.
func (d Draft) Normalize() Draft {
	d.Name = strings.TrimSpace(d.Name)
	d.Date = strings.TrimSpace(d.Date)
	d.Time = strings.TrimSpace(d.Time)
	d.Description = strings.TrimSpace(d.Description)
	d.AdditionalDetails = strings.TrimSpace(d.AdditionalDetails)
	d.Tags = strings.TrimSpace(d.Tags)
	if d.Type == "" {
		d.Type = TypeWorkout
	}
	return d
}

// Validate expects a normalized draft.
func (d Draft) Validate() error {
	var errs []FieldError
	errs = append(errs, checkName(d.Name)...)
	errs = append(errs, checkType(d.Type)...)
	errs = append(errs, checkDate(d.Date)...)
	errs = append(errs, checkTime(d.Time)...)
	errs = append(errs, checkDescription(d.Description)...)
	errs = append(errs, checkDetails(d.AdditionalDetails)...)
	errs = append(errs, checkMaxRSVPs(d.MaxRSVPs)...)
	return asError(errs)
}

// Patch is a per-field partial update. Nil fields are left untouched.
type Patch struct {
	Name              *string `structs:"name,omitempty"`
	Type              *Type   `structs:"type,omitempty"`
	Date              *string `structs:"date,omitempty"`
	Time              *string `structs:"time,omitempty"`
	Description       *string `structs:"description,omitempty"`
	AdditionalDetails *string `structs:"additionalDetails,omitempty"`
	Tags              *string `structs:"tags,omitempty"`
	MaxRSVPs          *int    `structs:"maxRSVPs,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.Type == nil && p.Date == nil && p.Time == nil &&
		p.Description == nil && p.AdditionalDetails == nil && p.Tags == nil && p.MaxRSVPs == nil
}

func (p Patch) Normalize() Patch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	p.Name = trim(p.Name)
	p.Date = trim(p.Date)
	p.Time = trim(p.Time)
	p.Description = trim(p.Description)
	p.AdditionalDetails = trim(p.AdditionalDetails)
	p.Tags = trim(p.Tags)
	return p
}

// Validate expects a normalized patch. Clearing a required field is an error.
func (p Patch) Validate() error {
	if p.Empty() {
		return &ValidationError{Fields: []FieldError{{Field: "patch", Message: "no fields to update"}}}
	}
	var errs []FieldError
	if p.Name != nil {
		errs = append(errs, checkName(*p.Name)...)
	}
	if p.Type != nil {
		errs = append(errs, checkType(*p.Type)...)
	}
	if p.Date != nil {
		errs = append(errs, checkDate(*p.Date)...)
	}
	if p.Time != nil {
		errs = append(errs, checkTime(*p.Time)...)
	}
	if p.Description != nil {
		errs = append(errs, checkDescription(*p.Description)...)
	}
	if p.AdditionalDetails != nil {
		errs = append(errs, checkDetails(*p.AdditionalDetails)...)
	}
	if p.MaxRSVPs != nil {
		errs = append(errs, checkMaxRSVPs(*p.MaxRSVPs)...)
	}
	return asError(errs)
}

// Apply returns e with the patch written over it.
func (p Patch) Apply(e Event) Event {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Time != nil {
		e.Time = *p.Time
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.AdditionalDetails != nil {
		e.AdditionalDetails = *p.AdditionalDetails
	}
	if p.Tags != nil {
		e.Tags = *p.Tags
	}
	if p.MaxRSVPs != nil {
		e.MaxRSVPs = *p.MaxRSVPs
	}
	return e
}

func checkName(name string) []FieldError {
	if name == "" {
		return []FieldError{{"name", "required"}}
	}
	if len(name) > MaxNameLen {
		return []FieldError{{"name", fmt.Sprintf("max length %d", MaxNameLen)}}
	}
	return nil
}

func checkType(t Type) []FieldError {
	if !t.Valid() {
		return []FieldError{{"type", "must be Workout or Event"}}
	}
	return nil
}

func checkDate(date string) []FieldError {
	if date == "" {
		return []FieldError{{"date", "required"}}
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return []FieldError{{"date", "must be YYYY-MM-DD"}}
	}
	return nil
}

func checkTime(clock string) []FieldError {
	if clock == "" {
		return []FieldError{{"time", "required"}}
	}
	if _, err := time.Parse(TimeLayout, clock); err != nil || len(clock) != len(TimeLayout) {
		return []FieldError{{"time", "must be HH:MM (24-hour)"}}
	}
	return nil
}

func checkDescription(description string) []FieldError {
	if description == "" {
		return []FieldError{{"description", "required"}}
	}
	if len(description) > MaxDescriptionLen {
		return []FieldError{{"description", fmt.Sprintf("max length %d", MaxDescriptionLen)}}
	}
	return nil
}

func checkDetails(details string) []FieldError {
	if len(details) > MaxDetailsLen {
		return []FieldError{{"additionalDetails", fmt.Sprintf("max length %d", MaxDetailsLen)}}
	}
	return nil
}

func checkMaxRSVPs(n int) []FieldError {
	if n < 0 {
		return []FieldError{{"maxRSVPs", "must be zero (unlimited) or positive"}}
	}
	return nil
}
