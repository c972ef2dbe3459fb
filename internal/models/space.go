// internal/models/space.go
package models

import "github.com/google/uuid"

// Space is a rectangular area users can join over the websocket. Coordinates
// inside a space satisfy 0 <= x < Width and 0 <= y < Height.
type Space struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	CreatorID uuid.UUID `json:"creatorId"`
}

// SpaceElement is one element instance placed at a coordinate inside a space.
type SpaceElement struct {
	ID        uuid.UUID `json:"id"`
	SpaceID   uuid.UUID `json:"spaceId"`
	ElementID uuid.UUID `json:"elementId"`
	X         int       `json:"x"`
	Y         int       `json:"y"`

	// Element is populated on reads that join against the element catalog.
	Element *Element `json:"element,omitempty"`
}
