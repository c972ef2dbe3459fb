// internal/world/messages.go
package world

import (
	"encoding/json"
	"fmt"
)

// Message types exchanged over the websocket. Inbound and outbound messages
// share one envelope shape: {"type": ..., "payload": {...}}.
const (
	// client -> server
	MessageJoin = "join"
	MessageMove = "move"

	// server -> client
	MessageSpaceJoined      = "space-joined"
	MessageUserJoined       = "user-joined"
	MessageMovement         = "movement"
	MessageMovementRejected = "movement-rejected"
	MessageUserLeft         = "user-left"
)

// Envelope is the wire framing for every message. Payload stays raw until the
// type tag has been inspected, so an unknown or malformed message never gets
// field access before validation.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// JoinPayload carries the credential and target space for a join attempt.
type JoinPayload struct {
	Token   string `json:"token"`
	SpaceID string `json:"spaceId"`
}

// MovePayload carries the target coordinates for a move attempt.
type MovePayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Position is an (x, y) coordinate inside a space.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PeerInfo identifies one other occupant in the space-joined snapshot.
type PeerInfo struct {
	ID string `json:"id"`
}

// SpaceJoinedPayload acknowledges a successful join to the joining client.
type SpaceJoinedPayload struct {
	Spawn Position   `json:"spawn"`
	Users []PeerInfo `json:"users"`
}

// UserJoinedPayload announces a new occupant to the rest of the room.
type UserJoinedPayload struct {
	UserID string `json:"userId"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// UserLeftPayload announces a departed occupant to the rest of the room.
type UserLeftPayload struct {
	UserID string `json:"userId"`
}

// MarshalEvent wraps a payload in the envelope and serializes it.
func MarshalEvent(msgType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
