package model

import "time"

// DefaultUserName is assigned to a fresh device identity until the user
// picks a display name.
const DefaultUserName = "Anonym"

type User struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// IsCurrentUser marks the active local identity. Client-only; at most
	// one row in the local users table may carry it.
	IsCurrentUser bool `json:"-"`
}
