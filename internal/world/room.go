// internal/world/room.go
package world

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// broadcastWriteTimeout bounds each per-peer write during a broadcast so one
// stalled connection cannot hold up the sender indefinitely.
const broadcastWriteTimeout = 3 * time.Second

// RoomManager is the process-wide registry mapping a room id (= space id) to
// the sessions currently joined to it. One instance is created at server start
// and handed to every connection; it is the only state shared across
// connection goroutines, so every access goes through its mutex.
type RoomManager struct {
	mu    sync.Mutex
	rooms map[string][]*Session
	log   *logrus.Logger
}

// NewRoomManager initializes an empty RoomManager.
func NewRoomManager(logger *logrus.Logger) *RoomManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &RoomManager{
		rooms: make(map[string][]*Session),
		log:   logger,
	}
}

// Add inserts the session into the room and returns a snapshot of the other
// members at that instant. Taking the snapshot under the same lock as the
// insertion means the joiner's member list and what peers are later told about
// the joiner can never disagree. Adding the same session twice is a no-op.
func (m *RoomManager) Add(roomID string, s *Session) []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	members := m.rooms[roomID]
	peers := make([]*Session, 0, len(members))
	for _, existing := range members {
		if existing == s {
			return peers
		}
		peers = append(peers, existing)
	}
	m.rooms[roomID] = append(members, s)
	return peers
}

// Remove takes the session out of the room. No-op if the room or session is
// absent. Empty rooms are dropped from the table.
func (m *RoomManager) Remove(roomID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members := m.rooms[roomID]
	for i, existing := range members {
		if existing == s {
			members = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(members) == 0 {
		delete(m.rooms, roomID)
	} else {
		m.rooms[roomID] = members
	}
}

// Broadcast delivers data to every session in the room except the sender.
// The member list is copied under the lock and the writes happen outside it,
// so a slow peer never blocks registry mutation. Delivery is best-effort: a
// failed write is logged and the remaining peers still get the message.
func (m *RoomManager) Broadcast(sender *Session, roomID string, data []byte) {
	m.mu.Lock()
	members, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return
	}
	peers := make([]*Session, 0, len(members))
	for _, s := range members {
		if s != sender {
			peers = append(peers, s)
		}
	}
	m.mu.Unlock()

	for _, peer := range peers {
		ctx, cancel := context.WithTimeout(context.Background(), broadcastWriteTimeout)
		err := peer.conn.Write(ctx, data)
		cancel()
		if err != nil {
			m.log.WithFields(logrus.Fields{
				"room":    roomID,
				"session": peer.ID,
			}).Warnf("failed to deliver broadcast: %v", err)
		}
	}
}
