package models

import "github.com/google/uuid"

// Avatar is a selectable appearance; users reference one via users.avatar_id.
type Avatar struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	ImageURL string    `json:"imageUrl"`
}
