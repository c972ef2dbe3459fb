package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Mishragini/metaverse/internal/auth"
	"github.com/Mishragini/metaverse/internal/models"
)

// authenticate extracts the bearer token from the Authorization header and
// returns the caller's user id and role.
func authenticate(r *http.Request) (uuid.UUID, string, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return uuid.Nil, "", fmt.Errorf("missing bearer token")
	}

	userIDStr, role, err := auth.AuthenticateJWT(token)
	if err != nil {
		return uuid.Nil, "", err
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid user id in token: %w", err)
	}
	return userID, role, nil
}

// authenticateAdmin is authenticate plus a role check.
func authenticateAdmin(r *http.Request) (uuid.UUID, error) {
	userID, role, err := authenticate(r)
	if err != nil {
		return uuid.Nil, err
	}
	if role != models.RoleAdmin {
		return uuid.Nil, fmt.Errorf("admin role required")
	}
	return userID, nil
}

// parseDimensions splits a "WxH" string like "100x200".
func parseDimensions(s string) (width, height int, err error) {
	parts := strings.Split(s, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("dimensions must look like WxH")
	}
	if _, err := fmt.Sscanf(s, "%dx%d", &width, &height); err != nil {
		return 0, 0, fmt.Errorf("dimensions must look like WxH: %w", err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("dimensions must be positive")
	}
	return width, height, nil
}
