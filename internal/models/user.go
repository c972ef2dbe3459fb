package models

import "github.com/google/uuid"

// Role values stored on users and carried in the JWT "role" claim.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	Role     string    `json:"role"`

	// AvatarID is nil until the user picks an avatar via /user/metadata.
	AvatarID *uuid.UUID `json:"avatarId,omitempty"`
}
