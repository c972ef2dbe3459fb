// internal/handlers/admin.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Mishragini/metaverse/internal/database"
	"github.com/Mishragini/metaverse/internal/models"
)

type createElementRequest struct {
	ImageURL string `json:"imageUrl"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Static   bool   `json:"static"`
}

// CreateElementHandler adds an element to the catalog. Admin only.
func CreateElementHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := authenticateAdmin(r); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createElementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		if req.ImageURL == "" || req.Width <= 0 || req.Height <= 0 {
			http.Error(w, "imageUrl and positive dimensions are required", http.StatusBadRequest)
			return
		}

		element := models.Element{
			ImageURL: req.ImageURL,
			Width:    req.Width,
			Height:   req.Height,
			Static:   req.Static,
		}
		if err := database.InsertElement(r.Context(), &element); err != nil {
			logger.Errorf("failed to create element: %v", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": element.ID.String()})
	}
}

type updateElementRequest struct {
	ImageURL string `json:"imageUrl"`
}

// UpdateElementHandler changes an element's image. Admin only.
func UpdateElementHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := authenticateAdmin(r); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		elementID, err := uuid.Parse(r.PathValue("elementId"))
		if err != nil {
			http.Error(w, "invalid element id", http.StatusBadRequest)
			return
		}

		var req updateElementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageURL == "" {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		err = database.UpdateElementImage(r.Context(), elementID, req.ImageURL)
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "element not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Errorf("failed to update element %s: %v", elementID, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "element updated"})
	}
}

type createAvatarRequest struct {
	ImageURL string `json:"imageUrl"`
	Name     string `json:"name"`
}

// CreateAvatarHandler adds an avatar to the catalog. Admin only.
func CreateAvatarHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := authenticateAdmin(r); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createAvatarRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageURL == "" || req.Name == "" {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		avatar := models.Avatar{Name: req.Name, ImageURL: req.ImageURL}
		if err := database.InsertAvatar(r.Context(), &avatar); err != nil {
			logger.Errorf("failed to create avatar: %v", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"avatarId": avatar.ID.String()})
	}
}

type createMapRequest struct {
	Name            string `json:"name"`
	Dimensions      string `json:"dimensions"`
	Thumbnail       string `json:"thumbnail"`
	DefaultElements []struct {
		ElementID string `json:"elementId"`
		X         int    `json:"x"`
		Y         int    `json:"y"`
	} `json:"defaultElements"`
}

// CreateMapHandler defines a map template with default element placements.
// Admin only.
func CreateMapHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := authenticateAdmin(r); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createMapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		width, height, err := parseDimensions(req.Dimensions)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		m := models.GameMap{
			Name:      req.Name,
			Width:     width,
			Height:    height,
			Thumbnail: req.Thumbnail,
		}
		for _, el := range req.DefaultElements {
			elementID, err := uuid.Parse(el.ElementID)
			if err != nil {
				http.Error(w, "invalid elementId in defaultElements", http.StatusBadRequest)
				return
			}
			m.DefaultElements = append(m.DefaultElements, models.MapElement{
				ElementID: elementID,
				X:         el.X,
				Y:         el.Y,
			})
		}

		if err := database.InsertMap(r.Context(), &m); err != nil {
			logger.Errorf("failed to create map: %v", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"mapId": m.ID.String()})
	}
}
