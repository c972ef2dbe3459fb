// internal/world/room_test.go
package world

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records writes instead of touching a real websocket.
type fakeConn struct {
	mu          sync.Mutex
	writes      [][]byte
	failWrites  bool
	closed      bool
	closeCode   websocket.StatusCode
	closeReason string
}

func (c *fakeConn) Write(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrites {
		return errors.New("write failed")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.writes = append(c.writes, cp)
	return nil
}

func (c *fakeConn) Close(code websocket.StatusCode, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	return nil
}

func (c *fakeConn) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newMember(t *testing.T, rooms *RoomManager) (*Session, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	s := NewSession(conn, rooms, nil, nil, testLogger())
	return s, conn
}

func TestAddReturnsPeerSnapshot(t *testing.T) {
	rooms := NewRoomManager(testLogger())
	a, _ := newMember(t, rooms)
	b, _ := newMember(t, rooms)

	peers := rooms.Add("room-1", a)
	assert.Empty(t, peers)

	peers = rooms.Add("room-1", b)
	require.Len(t, peers, 1)
	assert.Equal(t, a.ID, peers[0].ID)
}

func TestAddSameSessionTwiceDoesNotDuplicate(t *testing.T) {
	rooms := NewRoomManager(testLogger())
	a, _ := newMember(t, rooms)
	b, bConn := newMember(t, rooms)

	rooms.Add("room-1", a)
	rooms.Add("room-1", b)
	rooms.Add("room-1", b)

	// If b were registered twice it would receive this broadcast twice.
	rooms.Broadcast(a, "room-1", []byte(`{"type":"movement"}`))
	assert.Equal(t, 1, bConn.writeCount())
}

func TestRemoveIsNoopWhenAbsent(t *testing.T) {
	rooms := NewRoomManager(testLogger())
	a, _ := newMember(t, rooms)

	rooms.Remove("no-such-room", a)

	rooms.Add("room-1", a)
	b, _ := newMember(t, rooms)
	rooms.Remove("room-1", b)

	// a must still be reachable.
	c, _ := newMember(t, rooms)
	peers := rooms.Add("room-1", c)
	require.Len(t, peers, 1)
	assert.Equal(t, a.ID, peers[0].ID)
}

func TestBroadcastExcludesSender(t *testing.T) {
	rooms := NewRoomManager(testLogger())
	a, aConn := newMember(t, rooms)
	b, bConn := newMember(t, rooms)
	c, cConn := newMember(t, rooms)
	rooms.Add("room-1", a)
	rooms.Add("room-1", b)
	rooms.Add("room-1", c)

	rooms.Broadcast(a, "room-1", []byte(`{"type":"movement"}`))

	assert.Equal(t, 0, aConn.writeCount())
	assert.Equal(t, 1, bConn.writeCount())
	assert.Equal(t, 1, cConn.writeCount())
}

func TestBroadcastUnknownRoomIsNoop(t *testing.T) {
	rooms := NewRoomManager(testLogger())
	a, aConn := newMember(t, rooms)

	rooms.Broadcast(a, "no-such-room", []byte(`{}`))
	assert.Equal(t, 0, aConn.writeCount())
}

func TestBroadcastSurvivesFailedPeer(t *testing.T) {
	rooms := NewRoomManager(testLogger())
	a, _ := newMember(t, rooms)
	b, bConn := newMember(t, rooms)
	c, cConn := newMember(t, rooms)
	bConn.failWrites = true
	rooms.Add("room-1", a)
	rooms.Add("room-1", b)
	rooms.Add("room-1", c)

	rooms.Broadcast(a, "room-1", []byte(`{"type":"movement"}`))

	// The failing peer must not stop delivery to the rest of the room.
	assert.Equal(t, 1, cConn.writeCount())
}

func TestRoomsAreIsolated(t *testing.T) {
	rooms := NewRoomManager(testLogger())
	a, _ := newMember(t, rooms)
	b, bConn := newMember(t, rooms)
	rooms.Add("room-1", a)
	rooms.Add("room-2", b)

	rooms.Broadcast(a, "room-1", []byte(`{}`))
	assert.Equal(t, 0, bConn.writeCount())
}

func TestConcurrentMembershipAndBroadcast(t *testing.T) {
	rooms := NewRoomManager(testLogger())
	sender, _ := newMember(t, rooms)
	rooms.Add("room-1", sender)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			roomID := fmt.Sprintf("room-%d", n%3)
			s, _ := newMember(t, rooms)
			rooms.Add(roomID, s)
			rooms.Broadcast(s, roomID, []byte(`{}`))
			rooms.Remove(roomID, s)
		}(i)
	}
	wg.Wait()

	// The sender added up front must have survived the churn.
	probe, _ := newMember(t, rooms)
	peers := rooms.Add("room-1", probe)
	require.Len(t, peers, 1)
	assert.Equal(t, sender.ID, peers[0].ID)
}
