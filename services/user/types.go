package user

import "time"

// Profile is the per-person record kept alongside sessions. It is keyed by
// lowercase email.
type Profile struct {
	Email          string    `json:"email" firestore:"email" db:"email"`
	Name           string    `json:"name" firestore:"name" db:"name"`
	ProfilePicture string    `json:"profilePicture,omitempty" firestore:"profilePicture" db:"profile_picture"`
	IsAdmin        bool      `json:"isAdmin" firestore:"isAdmin" db:"is_admin"`
	CreatedAt      time.Time `json:"createdAt" firestore:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" firestore:"updatedAt" db:"updated_at"`
	LastLogin      time.Time `json:"lastLogin" firestore:"lastLogin" db:"last_login"`
}
