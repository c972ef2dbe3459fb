// internal/world/session_test.go
package world

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVerifier accepts tokens from its table and rejects everything else.
type fakeVerifier struct {
	tokens map[string]string // token -> userID
}

func (v fakeVerifier) Verify(token string) (string, error) {
	userID, ok := v.tokens[token]
	if !ok {
		return "", fmt.Errorf("invalid token")
	}
	return userID, nil
}

// fakeLookup serves spaces from its table.
type fakeLookup struct {
	spaces map[string][2]int // spaceID -> {width, height}
}

func (l fakeLookup) Lookup(ctx context.Context, spaceID string) (int, int, error) {
	dims, ok := l.spaces[spaceID]
	if !ok {
		return 0, 0, ErrSpaceNotFound
	}
	return dims[0], dims[1], nil
}

type worldFixture struct {
	rooms    *RoomManager
	verifier fakeVerifier
	lookup   fakeLookup
}

func newWorldFixture() *worldFixture {
	return &worldFixture{
		rooms: NewRoomManager(testLogger()),
		verifier: fakeVerifier{tokens: map[string]string{
			"token-alice": "user-alice",
			"token-bob":   "user-bob",
		}},
		lookup: fakeLookup{spaces: map[string][2]int{
			"space-1": {10, 10},
			"tiny":    {1, 1},
		}},
	}
}

func (f *worldFixture) newSession() (*Session, *fakeConn) {
	conn := &fakeConn{}
	return NewSession(conn, f.rooms, f.verifier, f.lookup, testLogger()), conn
}

func joinMsg(token, spaceID string) []byte {
	return []byte(fmt.Sprintf(`{"type":"join","payload":{"token":%q,"spaceId":%q}}`, token, spaceID))
}

func moveMsg(x, y int) []byte {
	return []byte(fmt.Sprintf(`{"type":"move","payload":{"x":%d,"y":%d}}`, x, y))
}

// decodeEvent unmarshals the nth recorded write into an envelope and payload.
func decodeEvent(t *testing.T, conn *fakeConn, n int, payload interface{}) string {
	t.Helper()
	conn.mu.Lock()
	defer conn.mu.Unlock()
	require.Greater(t, len(conn.writes), n, "expected at least %d writes", n+1)
	var env Envelope
	require.NoError(t, json.Unmarshal(conn.writes[n], &env))
	if payload != nil {
		require.NoError(t, json.Unmarshal(env.Payload, payload))
	}
	return env.Type
}

func TestJoinSpawnsWithinBounds(t *testing.T) {
	f := newWorldFixture()
	for i := 0; i < 25; i++ {
		s, conn := f.newSession()
		s.HandleMessage(context.Background(), joinMsg("token-alice", "space-1"))

		var joined SpaceJoinedPayload
		msgType := decodeEvent(t, conn, 0, &joined)
		require.Equal(t, MessageSpaceJoined, msgType)
		assert.GreaterOrEqual(t, joined.Spawn.X, 0)
		assert.Less(t, joined.Spawn.X, 10)
		assert.GreaterOrEqual(t, joined.Spawn.Y, 0)
		assert.Less(t, joined.Spawn.Y, 10)
	}
}

func TestJoinAcknowledgesAndNotifiesPeers(t *testing.T) {
	f := newWorldFixture()

	alice, aliceConn := f.newSession()
	alice.HandleMessage(context.Background(), joinMsg("token-alice", "space-1"))

	var aliceJoined SpaceJoinedPayload
	require.Equal(t, MessageSpaceJoined, decodeEvent(t, aliceConn, 0, &aliceJoined))
	assert.Empty(t, aliceJoined.Users, "first joiner sees an empty room")

	bob, bobConn := f.newSession()
	bob.HandleMessage(context.Background(), joinMsg("token-bob", "space-1"))

	// bob's snapshot names alice by session id.
	var bobJoined SpaceJoinedPayload
	require.Equal(t, MessageSpaceJoined, decodeEvent(t, bobConn, 0, &bobJoined))
	require.Len(t, bobJoined.Users, 1)
	assert.Equal(t, alice.ID.String(), bobJoined.Users[0].ID)

	// alice hears about bob's arrival with his spawn position.
	var arrival UserJoinedPayload
	require.Equal(t, MessageUserJoined, decodeEvent(t, aliceConn, 1, &arrival))
	assert.Equal(t, "user-bob", arrival.UserID)
	assert.Equal(t, bob.x, arrival.X)
	assert.Equal(t, bob.y, arrival.Y)

	// bob must not receive his own join broadcast.
	assert.Equal(t, 1, bobConn.writeCount())
}

func TestJoinInvalidTokenClosesWithoutSideEffects(t *testing.T) {
	f := newWorldFixture()
	alice, aliceConn := f.newSession()
	alice.HandleMessage(context.Background(), joinMsg("token-alice", "space-1"))

	s, conn := f.newSession()
	s.HandleMessage(context.Background(), joinMsg("bad-token", "space-1"))

	assert.True(t, conn.isClosed())
	assert.Equal(t, 0, conn.writeCount())
	assert.Equal(t, StateClosed, s.state)
	// No broadcast reached the room and the registry was never touched.
	assert.Equal(t, 1, aliceConn.writeCount())
	f.rooms.mu.Lock()
	assert.Len(t, f.rooms.rooms["space-1"], 1)
	f.rooms.mu.Unlock()
}

func TestJoinUnknownSpaceClosesConnection(t *testing.T) {
	f := newWorldFixture()
	s, conn := f.newSession()
	s.HandleMessage(context.Background(), joinMsg("token-alice", "no-such-space"))

	assert.True(t, conn.isClosed())
	assert.Equal(t, StateClosed, s.state)
}

func TestSecondJoinIgnored(t *testing.T) {
	f := newWorldFixture()
	s, conn := f.newSession()
	s.HandleMessage(context.Background(), joinMsg("token-alice", "space-1"))
	s.HandleMessage(context.Background(), joinMsg("token-alice", "tiny"))

	assert.Equal(t, "space-1", s.roomID)
	assert.Equal(t, 1, conn.writeCount())
	assert.False(t, conn.isClosed())
}

func TestMoveValidation(t *testing.T) {
	cases := []struct {
		name     string
		toX, toY int
		accepted bool
	}{
		{"step right", 6, 5, true},
		{"step left", 4, 5, true},
		{"step up", 5, 6, true},
		{"step down", 5, 4, true},
		{"diagonal", 6, 6, false},
		{"zero step", 5, 5, false},
		{"two steps", 7, 5, false},
		{"teleport", 0, 9, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newWorldFixture()
			alice, aliceConn := f.newSession()
			alice.HandleMessage(context.Background(), joinMsg("token-alice", "space-1"))
			bob, bobConn := f.newSession()
			bob.HandleMessage(context.Background(), joinMsg("token-bob", "space-1"))

			bob.x, bob.y = 5, 5
			before := aliceConn.writeCount()
			bob.HandleMessage(context.Background(), moveMsg(tc.toX, tc.toY))

			if tc.accepted {
				assert.Equal(t, tc.toX, bob.x)
				assert.Equal(t, tc.toY, bob.y)

				var moved Position
				require.Equal(t, MessageMovement, decodeEvent(t, aliceConn, before, &moved))
				assert.Equal(t, Position{X: tc.toX, Y: tc.toY}, moved)
				// No acknowledgement beyond the broadcast.
				assert.Equal(t, 1, bobConn.writeCount())
			} else {
				assert.Equal(t, 5, bob.x)
				assert.Equal(t, 5, bob.y)

				var rejected Position
				require.Equal(t, MessageMovementRejected, decodeEvent(t, bobConn, 1, &rejected))
				assert.Equal(t, Position{X: 5, Y: 5}, rejected)
				// Rejections stay private to the mover.
				assert.Equal(t, before, aliceConn.writeCount())
			}
		})
	}
}

func TestMoveOutOfBoundsRejected(t *testing.T) {
	f := newWorldFixture()
	s, conn := f.newSession()
	s.HandleMessage(context.Background(), joinMsg("token-alice", "space-1"))

	s.x, s.y = 0, 0
	s.HandleMessage(context.Background(), moveMsg(-1, 0))

	var rejected Position
	require.Equal(t, MessageMovementRejected, decodeEvent(t, conn, 1, &rejected))
	assert.Equal(t, Position{X: 0, Y: 0}, rejected)

	s.x, s.y = 9, 9
	s.HandleMessage(context.Background(), moveMsg(10, 9))
	require.Equal(t, MessageMovementRejected, decodeEvent(t, conn, 2, &rejected))
	assert.Equal(t, Position{X: 9, Y: 9}, rejected)
}

func TestMoveBeforeJoinIgnored(t *testing.T) {
	f := newWorldFixture()
	s, conn := f.newSession()
	s.HandleMessage(context.Background(), moveMsg(1, 0))

	assert.Equal(t, 0, conn.writeCount())
	assert.False(t, conn.isClosed())
	assert.Equal(t, StateConnected, s.state)
}

func TestMalformedAndUnknownMessagesIgnored(t *testing.T) {
	f := newWorldFixture()
	s, conn := f.newSession()

	s.HandleMessage(context.Background(), []byte(`not json at all`))
	s.HandleMessage(context.Background(), []byte(`{"type":"teleport","payload":{}}`))

	assert.Equal(t, 0, conn.writeCount())
	assert.False(t, conn.isClosed())
	assert.Equal(t, StateConnected, s.state)
}

func TestDestroyNotifiesRoomExactlyOnce(t *testing.T) {
	f := newWorldFixture()
	alice, aliceConn := f.newSession()
	alice.HandleMessage(context.Background(), joinMsg("token-alice", "space-1"))
	bob, _ := f.newSession()
	bob.HandleMessage(context.Background(), joinMsg("token-bob", "space-1"))

	before := aliceConn.writeCount()
	bob.Destroy()
	bob.Destroy()

	var left UserLeftPayload
	require.Equal(t, MessageUserLeft, decodeEvent(t, aliceConn, before, &left))
	assert.Equal(t, "user-bob", left.UserID)
	assert.Equal(t, before+1, aliceConn.writeCount(), "second destroy must not broadcast again")

	f.rooms.mu.Lock()
	assert.Len(t, f.rooms.rooms["space-1"], 1)
	f.rooms.mu.Unlock()
}

func TestDestroyBeforeJoinIsNoop(t *testing.T) {
	f := newWorldFixture()
	alice, aliceConn := f.newSession()
	alice.HandleMessage(context.Background(), joinMsg("token-alice", "space-1"))

	s, _ := f.newSession()
	before := aliceConn.writeCount()
	s.Destroy()

	assert.Equal(t, before, aliceConn.writeCount())
	assert.Equal(t, StateClosed, s.state)
}

// TestTwoUserScenario walks the full lifecycle: two joins, a move, and a
// disconnect, checking who hears what at every step.
func TestTwoUserScenario(t *testing.T) {
	f := newWorldFixture()

	alice, aliceConn := f.newSession()
	alice.HandleMessage(context.Background(), joinMsg("token-alice", "space-1"))
	var aliceJoined SpaceJoinedPayload
	require.Equal(t, MessageSpaceJoined, decodeEvent(t, aliceConn, 0, &aliceJoined))
	require.Empty(t, aliceJoined.Users)

	bob, bobConn := f.newSession()
	bob.HandleMessage(context.Background(), joinMsg("token-bob", "space-1"))
	var bobJoined SpaceJoinedPayload
	require.Equal(t, MessageSpaceJoined, decodeEvent(t, bobConn, 0, &bobJoined))
	require.Len(t, bobJoined.Users, 1)
	require.Equal(t, alice.ID.String(), bobJoined.Users[0].ID)

	var arrival UserJoinedPayload
	require.Equal(t, MessageUserJoined, decodeEvent(t, aliceConn, 1, &arrival))
	require.Equal(t, "user-bob", arrival.UserID)

	// bob steps one to the right.
	bob.x, bob.y = 3, 3
	bob.HandleMessage(context.Background(), moveMsg(4, 3))
	var moved Position
	require.Equal(t, MessageMovement, decodeEvent(t, aliceConn, 2, &moved))
	require.Equal(t, Position{X: 4, Y: 3}, moved)

	// bob disconnects.
	bob.Destroy()
	var left UserLeftPayload
	require.Equal(t, MessageUserLeft, decodeEvent(t, aliceConn, 3, &left))
	require.Equal(t, "user-bob", left.UserID)
}
