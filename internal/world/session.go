// internal/world/session.go
package world

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrSpaceNotFound is returned by SpaceLookup when the space id is unknown.
var ErrSpaceNotFound = errors.New("space not found")

// TokenVerifier decodes a credential into a user id, or fails.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// SpaceLookup resolves a space id to its dimensions.
type SpaceLookup interface {
	Lookup(ctx context.Context, spaceID string) (width, height int, err error)
}

// Conn is the write side of a client connection. *websocket.Conn is wrapped
// into this at the handler layer; tests substitute an in-memory recorder.
type Conn interface {
	Write(ctx context.Context, data []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// SessionState tracks a session through its lifecycle. Transitions only move
// forward: Connected -> Joined -> Closed, or Connected -> Closed.
type SessionState int

const (
	StateConnected SessionState = iota
	StateJoined
	StateClosed
)

// Session is the live state of one websocket connection: identity, room
// membership, and position. All fields besides the destroy guard are owned by
// the connection's goroutine; messages for a single session are handled
// strictly sequentially, so no internal locking is needed. Other goroutines
// reach a session only through RoomManager.Broadcast, which touches nothing
// but the connection's write side.
type Session struct {
	ID uuid.UUID

	conn     Conn
	rooms    *RoomManager
	verifier TokenVerifier
	spaces   SpaceLookup
	log      *logrus.Entry

	state  SessionState
	userID string
	roomID string
	x, y   int
	// width/height of the joined space, kept for move bounds checks.
	width, height int

	destroyOnce sync.Once
}

// NewSession builds an unauthenticated session for a freshly accepted
// connection.
func NewSession(conn Conn, rooms *RoomManager, verifier TokenVerifier, spaces SpaceLookup, logger *logrus.Logger) *Session {
	if logger == nil {
		logger = logrus.New()
	}
	id := uuid.New()
	return &Session{
		ID:       id,
		conn:     conn,
		rooms:    rooms,
		verifier: verifier,
		spaces:   spaces,
		log:      logger.WithField("session", id),
	}
}

// HandleMessage interprets one inbound message. Malformed JSON, unknown type
// tags, and out-of-state messages degrade to a logged no-op; only join-time
// authentication or lookup failures close the connection.
func (s *Session) HandleMessage(ctx context.Context, data []byte) {
	if s.state == StateClosed {
		return
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.log.Warnf("invalid message json: %v", err)
		return
	}

	switch env.Type {
	case MessageJoin:
		s.handleJoin(ctx, env.Payload)
	case MessageMove:
		s.handleMove(ctx, env.Payload)
	default:
		s.log.Warnf("ignoring unknown message type %q", env.Type)
	}
}

// handleJoin runs the Connected -> Joined transition: verify the token,
// resolve the space, spawn at a random in-bounds position, register with the
// room, acknowledge the joiner with the peer snapshot, and announce the
// arrival to the rest of the room.
func (s *Session) handleJoin(ctx context.Context, payload []byte) {
	if s.state != StateConnected {
		s.log.Warn("ignoring join for a session that already joined")
		return
	}

	var p JoinPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Token == "" || p.SpaceID == "" {
		s.log.Warnf("malformed join payload: %v", err)
		s.close(websocket.StatusPolicyViolation, "malformed join payload")
		return
	}

	userID, err := s.verifier.Verify(p.Token)
	if err != nil {
		s.log.Warnf("join rejected, token verification failed: %v", err)
		s.close(websocket.StatusPolicyViolation, "authentication failed")
		return
	}

	width, height, err := s.spaces.Lookup(ctx, p.SpaceID)
	if err != nil {
		s.log.Warnf("join rejected, space %s: %v", p.SpaceID, err)
		s.close(websocket.StatusPolicyViolation, "space not found")
		return
	}
	if width <= 0 || height <= 0 {
		s.log.Warnf("join rejected, space %s has degenerate dimensions %dx%d", p.SpaceID, width, height)
		s.close(websocket.StatusPolicyViolation, "space not found")
		return
	}

	s.userID = userID
	s.roomID = p.SpaceID
	s.width = width
	s.height = height
	s.x = rand.Intn(width)
	s.y = rand.Intn(height)
	s.state = StateJoined

	// Registration and the peer snapshot happen atomically inside Add, so the
	// snapshot sent back is never older than the membership peers see.
	peers := s.rooms.Add(s.roomID, s)
	users := make([]PeerInfo, 0, len(peers))
	for _, peer := range peers {
		users = append(users, PeerInfo{ID: peer.ID.String()})
	}

	s.send(MessageSpaceJoined, SpaceJoinedPayload{
		Spawn: Position{X: s.x, Y: s.y},
		Users: users,
	})
	s.broadcast(MessageUserJoined, UserJoinedPayload{UserID: s.userID, X: s.x, Y: s.y})

	s.log.WithFields(logrus.Fields{
		"user":  s.userID,
		"space": s.roomID,
		"spawn": Position{X: s.x, Y: s.y},
	}).Info("session joined space")
}

// handleMove validates a move request: exactly one orthogonal step, landing
// inside the space bounds. Accepted moves update the position and are
// broadcast to the room; anything else is bounced back to the mover with the
// unchanged position.
func (s *Session) handleMove(ctx context.Context, payload []byte) {
	if s.state != StateJoined {
		s.log.Warn("ignoring move before join")
		return
	}

	var p MovePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.log.Warnf("malformed move payload: %v", err)
		s.send(MessageMovementRejected, Position{X: s.x, Y: s.y})
		return
	}

	dx := abs(s.x - p.X)
	dy := abs(s.y - p.Y)
	singleStep := (dx == 1 && dy == 0) || (dx == 0 && dy == 1)
	inBounds := p.X >= 0 && p.X < s.width && p.Y >= 0 && p.Y < s.height

	if !singleStep || !inBounds {
		s.send(MessageMovementRejected, Position{X: s.x, Y: s.y})
		return
	}

	s.x = p.X
	s.y = p.Y
	s.broadcast(MessageMovement, Position{X: s.x, Y: s.y})
}

// Destroy runs the terminal transition. If the session had joined a room it
// announces the departure and deregisters; otherwise it only marks the
// session closed. Safe to call multiple times; only the first call acts.
func (s *Session) Destroy() {
	s.destroyOnce.Do(func() {
		if s.state == StateJoined {
			data, err := MarshalEvent(MessageUserLeft, UserLeftPayload{UserID: s.userID})
			if err != nil {
				s.log.Errorf("failed to marshal user-left: %v", err)
			} else {
				s.rooms.Broadcast(s, s.roomID, data)
			}
			s.rooms.Remove(s.roomID, s)
			s.log.WithFields(logrus.Fields{
				"user":  s.userID,
				"space": s.roomID,
			}).Info("session left space")
		}
		s.state = StateClosed
	})
}

// send unicasts an event to this session's own connection.
func (s *Session) send(msgType string, payload interface{}) {
	data, err := MarshalEvent(msgType, payload)
	if err != nil {
		s.log.Errorf("failed to marshal %s: %v", msgType, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), broadcastWriteTimeout)
	defer cancel()
	if err := s.conn.Write(ctx, data); err != nil {
		s.log.Warnf("failed to write %s: %v", msgType, err)
	}
}

// broadcast fans an event out to the rest of the session's room.
func (s *Session) broadcast(msgType string, payload interface{}) {
	data, err := MarshalEvent(msgType, payload)
	if err != nil {
		s.log.Errorf("failed to marshal %s: %v", msgType, err)
		return
	}
	s.rooms.Broadcast(s, s.roomID, data)
}

// close terminates the connection and marks the session closed without the
// departure broadcast; used for join-time failures where the session never
// entered a room.
func (s *Session) close(code websocket.StatusCode, reason string) {
	s.state = StateClosed
	if err := s.conn.Close(code, reason); err != nil {
		s.log.Debugf("close error: %v", err)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
