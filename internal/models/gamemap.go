package models

import "github.com/google/uuid"

// GameMap is an admin-defined template: creating a space from a map copies the
// map's dimensions and default element placements.
type GameMap struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Thumbnail string    `json:"thumbnail,omitempty"`

	DefaultElements []MapElement `json:"defaultElements,omitempty"`
}

// MapElement is a default element placement inside a map template.
type MapElement struct {
	ID        uuid.UUID `json:"id"`
	MapID     uuid.UUID `json:"mapId"`
	ElementID uuid.UUID `json:"elementId"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
}
