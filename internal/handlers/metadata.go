// internal/handlers/metadata.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Mishragini/metaverse/internal/database"
	"github.com/Mishragini/metaverse/internal/models"
)

type updateMetadataRequest struct {
	AvatarID string `json:"avatarId"`
}

// UpdateMetadataHandler sets the caller's avatar.
func UpdateMetadataHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := authenticate(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateMetadataRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		avatarID, err := uuid.Parse(req.AvatarID)
		if err != nil {
			http.Error(w, "invalid avatarId", http.StatusBadRequest)
			return
		}

		err = database.SetUserAvatar(r.Context(), userID, avatarID)
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Errorf("failed to update metadata for user %s: %v", userID, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "metadata updated"})
	}
}

// BulkMetadataHandler returns the avatar images for a list of user ids, given
// as ?ids=[id1,id2,...].
func BulkMetadataHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := authenticate(r); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		raw := strings.Trim(r.URL.Query().Get("ids"), "[]")
		var userIDs []uuid.UUID
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(strings.Trim(part, `"`))
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				http.Error(w, "invalid user id in ids", http.StatusBadRequest)
				return
			}
			userIDs = append(userIDs, id)
		}

		infos := []database.UserAvatarInfo{}
		if len(userIDs) > 0 {
			var err error
			infos, err = database.GetUserAvatars(r.Context(), userIDs)
			if err != nil {
				logger.Errorf("failed to fetch bulk metadata: %v", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"avatars": infos})
	}
}

// ListElementsHandler returns the public element catalog.
func ListElementsHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		elements, err := database.ListElements(r.Context())
		if err != nil {
			logger.Errorf("failed to list elements: %v", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if elements == nil {
			elements = []models.Element{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"elements": elements})
	}
}

// ListAvatarsHandler returns the public avatar catalog.
func ListAvatarsHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		avatars, err := database.ListAvatars(r.Context())
		if err != nil {
			logger.Errorf("failed to list avatars: %v", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if avatars == nil {
			avatars = []models.Avatar{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"avatars": avatars})
	}
}
