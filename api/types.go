package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

type Pong struct {
	Message string `json:"message"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type CredentialRequest struct {
	Credential string `json:"credential"`
}

type Me struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	IsAdmin        bool   `json:"isAdmin"`
	TempAdmin      bool   `json:"tempAdmin,omitempty"`
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      Me        `json:"user"`
}

type Picture struct {
	ProfilePicture string `json:"profilePicture"`
}

type Event struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Type                  string    `json:"type"`
	Date                  string    `json:"date"`
	Time                  string    `json:"time"`
	Description           string    `json:"description"`
	AdditionalDetails     string    `json:"additionalDetails,omitempty"`
	Tags                  string    `json:"tags,omitempty"`
	CreatorEmail          string    `json:"creatorEmail,omitempty"`
	CreatorName           string    `json:"creatorName,omitempty"`
	CreatorProfilePicture string    `json:"creatorProfilePicture,omitempty"`
	MaxRSVPs              int       `json:"maxRSVPs"`
	SpotsLeft             int       `json:"spotsLeft"`
	Attendees             []string  `json:"attendees"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

type EventDraft struct {
	Name              string `json:"name"`
	Type              string `json:"type"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	Description       string `json:"description"`
	AdditionalDetails string `json:"additionalDetails"`
	Tags              string `json:"tags"`
	MaxRSVPs          int    `json:"maxRSVPs"`
}

type EventPatch struct {
	Name              *string `json:"name,omitempty"`
	Type              *string `json:"type,omitempty"`
	Date              *string `json:"date,omitempty"`
	Time              *string `json:"time,omitempty"`
	Description       *string `json:"description,omitempty"`
	AdditionalDetails *string `json:"additionalDetails,omitempty"`
	Tags              *string `json:"tags,omitempty"`
	MaxRSVPs          *int    `json:"maxRSVPs,omitempty"`
}

type DuplicateRequest struct {
	Date string `json:"date,omitempty"`
	Time string `json:"time,omitempty"`
}

type Created struct {
	ID string `json:"id"`
}

type RSVPResult struct {
	Outcome string `json:"outcome"`
	Event   Event  `json:"event"`
}

type Attendee struct {
	Email          string `json:"email"`
	Name           string `json:"name,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

type EmailRequest struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

type EmailResult struct {
	Success    bool `json:"success"`
	Recipients int  `json:"recipients"`
}

type Buckets struct {
	Today    []Event `json:"today"`
	Upcoming []Event `json:"upcoming"`
	Past     []Event `json:"past"`
}

type Day struct {
	Date  string `json:"date"`
	Label string `json:"label"`
}

type DeleteEventParams struct {
	Confirm string `form:"confirm" json:"confirm"`
}

type ListWorkoutsParams struct {
	Date *openapi_types.Date `form:"date,omitempty" json:"date,omitempty"`
}

type ListDaysParams struct {
	Count *int `form:"count,omitempty" json:"count,omitempty"`
}
