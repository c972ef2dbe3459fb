// internal/handlers/ws.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Mishragini/metaverse/internal/auth"
	"github.com/Mishragini/metaverse/internal/cache"
	"github.com/Mishragini/metaverse/internal/database"
	"github.com/Mishragini/metaverse/internal/world"
)

// WorldServer owns the room registry and the collaborators every websocket
// session needs. One instance is built in main and shared by all connections.
type WorldServer struct {
	Rooms    *world.RoomManager
	Verifier world.TokenVerifier
	Spaces   world.SpaceLookup
	Logger   *logrus.Logger
}

// NewWorldServer wires the registry to the JWT verifier and the cached
// Postgres space lookup.
func NewWorldServer(logger *logrus.Logger) *WorldServer {
	return &WorldServer{
		Rooms:    world.NewRoomManager(logger),
		Verifier: jwtVerifier{},
		Spaces:   cachedSpaceLookup{logger: logger},
		Logger:   logger,
	}
}

// jwtVerifier adapts the auth package to the world.TokenVerifier seam.
type jwtVerifier struct{}

func (jwtVerifier) Verify(token string) (string, error) {
	userID, _, err := auth.AuthenticateJWT(token)
	return userID, err
}

// cachedSpaceLookup resolves space dimensions through the Redis read-through
// cache with Postgres as the source of truth. Cache failures are logged and
// fall through to the database.
type cachedSpaceLookup struct {
	logger *logrus.Logger
}

func (l cachedSpaceLookup) Lookup(ctx context.Context, spaceID string) (int, int, error) {
	id, err := uuid.Parse(spaceID)
	if err != nil {
		return 0, 0, world.ErrSpaceNotFound
	}

	if w, h, ok := cache.GetSpaceDimensions(ctx, id); ok {
		return w, h, nil
	}

	dims, err := database.GetSpaceDimensions(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return 0, 0, world.ErrSpaceNotFound
	}
	if err != nil {
		return 0, 0, err
	}

	if err := cache.SetSpaceDimensions(ctx, id, dims.Width, dims.Height); err != nil {
		l.logger.Debugf("space dimension cache write failed: %v", err)
	}
	return dims.Width, dims.Height, nil
}

// wsConn adapts *websocket.Conn to the world.Conn write seam.
type wsConn struct {
	c *websocket.Conn
}

func (w wsConn) Write(ctx context.Context, data []byte) error {
	return w.c.Write(ctx, websocket.MessageText, data)
}

func (w wsConn) Close(code websocket.StatusCode, reason string) error {
	return w.c.Close(code, reason)
}

// WorldWSHandler accepts websocket upgrades on /ws, builds one Session per
// connection, and runs the per-connection read loop. It holds no per-room or
// per-user state itself; everything lives in the session and the registry.
func WorldWSHandler(logger *logrus.Logger, ws *WorldServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler exit")

		session := world.NewSession(wsConn{c}, ws.Rooms, ws.Verifier, ws.Spaces, logger)
		logger.WithFields(logrus.Fields{
			"session": session.ID,
			"remote":  r.RemoteAddr,
		}).Info("websocket connected")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		readWorldMessages(ctx, c, session, logger)

		// The read loop exited: connection closed, errored, or the request
		// context was cancelled. Tear the session down exactly once.
		session.Destroy()
		logger.WithField("session", session.ID).Info("websocket disconnected")
	}
}

// readWorldMessages reads inbound frames until the connection dies and feeds
// them to the session one at a time, keeping per-session handling sequential.
func readWorldMessages(ctx context.Context, c *websocket.Conn, session *world.Session, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.WithField("session", session.ID).Info("websocket closed normally")
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.WithField("session", session.ID).Info("websocket context canceled")
			} else {
				logger.WithField("session", session.ID).Warnf("websocket read error: %v (status: %d)", err, status)
			}
			return
		}

		if msgType != websocket.MessageText {
			logger.WithField("session", session.ID).Warnf("ignoring non-text message type %d", msgType)
			continue
		}

		session.HandleMessage(ctx, data)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
