package models

import "github.com/google/uuid"

// Element is a catalog entry (furniture, decoration, ...) that admins define
// and space creators place into spaces.
type Element struct {
	ID       uuid.UUID `json:"id"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	ImageURL string    `json:"imageUrl"`
	Static   bool      `json:"static"`
}
