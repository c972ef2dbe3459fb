// internal/handlers/space.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Mishragini/metaverse/internal/cache"
	"github.com/Mishragini/metaverse/internal/database"
	"github.com/Mishragini/metaverse/internal/models"
)

type createSpaceRequest struct {
	Name       string `json:"name"`
	Dimensions string `json:"dimensions"` // "WxH", required unless mapId is set
	MapID      string `json:"mapId,omitempty"`
	Thumbnail  string `json:"thumbnail,omitempty"`
}

// CreateSpaceHandler creates a space either from explicit WxH dimensions or
// by cloning a map template (dimensions plus default elements).
func CreateSpaceHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := authenticate(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createSpaceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}

		space := models.Space{
			Name:      req.Name,
			Thumbnail: req.Thumbnail,
			CreatorID: userID,
		}

		if req.MapID == "" {
			width, height, err := parseDimensions(req.Dimensions)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			space.Width = width
			space.Height = height
			if err := database.InsertSpace(r.Context(), &space); err != nil {
				logger.Errorf("failed to create space: %v", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
		} else {
			mapID, err := uuid.Parse(req.MapID)
			if err != nil {
				http.Error(w, "invalid mapId", http.StatusBadRequest)
				return
			}
			err = database.InsertSpaceFromMap(r.Context(), &space, mapID)
			if errors.Is(err, database.ErrNotFound) {
				http.Error(w, "map not found", http.StatusNotFound)
				return
			}
			if err != nil {
				logger.Errorf("failed to create space from map %s: %v", mapID, err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"spaceId": space.ID.String()})
	}
}

// ListSpacesHandler returns the caller's spaces.
func ListSpacesHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := authenticate(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		spaces, err := database.ListSpacesByCreator(r.Context(), userID)
		if err != nil {
			logger.Errorf("failed to list spaces: %v", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		type spaceSummary struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			Dimensions string `json:"dimensions"`
			Thumbnail  string `json:"thumbnail"`
		}
		summaries := make([]spaceSummary, 0, len(spaces))
		for _, s := range spaces {
			summaries = append(summaries, spaceSummary{
				ID:         s.ID.String(),
				Name:       s.Name,
				Dimensions: fmt.Sprintf("%dx%d", s.Width, s.Height),
				Thumbnail:  s.Thumbnail,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"spaces": summaries})
	}
}

// GetSpaceHandler returns a space's dimensions and placed elements.
func GetSpaceHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := authenticate(r); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		spaceID, err := uuid.Parse(r.PathValue("spaceId"))
		if err != nil {
			http.Error(w, "invalid space id", http.StatusBadRequest)
			return
		}

		space, err := database.GetSpace(r.Context(), spaceID)
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "space not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Errorf("failed to fetch space %s: %v", spaceID, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		elements, err := database.GetSpaceElements(r.Context(), spaceID)
		if err != nil {
			logger.Errorf("failed to fetch elements for space %s: %v", spaceID, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if elements == nil {
			elements = []models.SpaceElement{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"dimensions": fmt.Sprintf("%dx%d", space.Width, space.Height),
			"elements":   elements,
		})
	}
}

// DeleteSpaceHandler deletes a space owned by the caller and drops its cached
// dimensions so stale entries cannot admit joins to a dead space.
func DeleteSpaceHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := authenticate(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		spaceID, err := uuid.Parse(r.PathValue("spaceId"))
		if err != nil {
			http.Error(w, "invalid space id", http.StatusBadRequest)
			return
		}

		space, err := database.GetSpace(r.Context(), spaceID)
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "space not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Errorf("failed to fetch space %s: %v", spaceID, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if space.CreatorID != userID {
			http.Error(w, "unauthorized", http.StatusForbidden)
			return
		}

		if err := database.DeleteSpace(r.Context(), spaceID); err != nil {
			logger.Errorf("failed to delete space %s: %v", spaceID, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		cache.InvalidateSpaceDimensions(r.Context(), spaceID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "space deleted"})
	}
}

type addSpaceElementRequest struct {
	SpaceID   string `json:"spaceId"`
	ElementID string `json:"elementId"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

// AddSpaceElementHandler places an element inside a space the caller owns.
// The target coordinate must fall inside the space's bounds.
func AddSpaceElementHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := authenticate(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req addSpaceElementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		spaceID, err := uuid.Parse(req.SpaceID)
		if err != nil {
			http.Error(w, "invalid spaceId", http.StatusBadRequest)
			return
		}
		elementID, err := uuid.Parse(req.ElementID)
		if err != nil {
			http.Error(w, "invalid elementId", http.StatusBadRequest)
			return
		}

		space, err := database.GetSpace(r.Context(), spaceID)
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "space not found", http.StatusBadRequest)
			return
		}
		if err != nil {
			logger.Errorf("failed to fetch space %s: %v", spaceID, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if space.CreatorID != userID {
			http.Error(w, "space not found", http.StatusBadRequest)
			return
		}
		if req.X < 0 || req.Y < 0 || req.X >= space.Width || req.Y >= space.Height {
			http.Error(w, "element would fall outside the space boundary", http.StatusBadRequest)
			return
		}

		se := models.SpaceElement{
			SpaceID:   spaceID,
			ElementID: elementID,
			X:         req.X,
			Y:         req.Y,
		}
		if err := database.AddSpaceElement(r.Context(), &se); err != nil {
			logger.Errorf("failed to add element to space %s: %v", spaceID, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": se.ID.String()})
	}
}

type deleteSpaceElementRequest struct {
	ID string `json:"id"`
}

// DeleteSpaceElementHandler removes a placed element; only the space's creator
// may do so.
func DeleteSpaceElementHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := authenticate(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req deleteSpaceElementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		id, err := uuid.Parse(req.ID)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		_, creatorID, err := database.GetSpaceElement(r.Context(), id)
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "element not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Errorf("failed to fetch space element %s: %v", id, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if creatorID != userID {
			http.Error(w, "unauthorized", http.StatusForbidden)
			return
		}

		if err := database.DeleteSpaceElement(r.Context(), id); err != nil {
			logger.Errorf("failed to delete space element %s: %v", id, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "element deleted from the space"})
	}
}
