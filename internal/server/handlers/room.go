// internal/server/handlers/room.go

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/shivraj-yadav/ChugLi/internal/domain/room"
)

// RoomHandler handles room lifecycle and discovery HTTP requests.
type RoomHandler struct {
	rooms  room.Service
	logger zerolog.Logger
}

// NewRoomHandler creates a new room handler.
func NewRoomHandler(rooms room.Service, logger zerolog.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:  rooms,
		logger: logger,
	}
}

// CreateRoom creates a new room at the caller's location.
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	type createRoomRequest struct {
		Title string   `json:"title"`
		Tags  []string `json:"tags"`
		Lat   *float64 `json:"lat"`
		Lng   *float64 `json:"lng"`
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Lat == nil || req.Lng == nil {
		respondWithError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	created, err := h.rooms.Create(r.Context(), principal.UserID, req.Title, req.Tags, *req.Lat, *req.Lng)
	if err != nil {
		h.logger.Debug().Err(err).Msg("create room failed")
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// DeleteRoom deletes a room. Creator only.
func (h *RoomHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Room id is required")
		return
	}

	if err := h.rooms.Delete(r.Context(), principal.UserID, id); err != nil {
		h.logger.Debug().Err(err).Str("room", id).Msg("delete room failed")
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Room deleted"})
}

// Nearby lists live rooms around a point, closest first.
func (h *RoomHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	latStr := r.URL.Query().Get("lat")
	lngStr := r.URL.Query().Get("lng")

	if latStr == "" || lngStr == "" {
		respondWithError(w, http.StatusBadRequest, "lat and lng query params are required")
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid latitude")
		return
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid longitude")
		return
	}

	results, err := h.rooms.Nearby(r.Context(), lat, lng)
	if err != nil {
		h.logger.Error().Err(err).Msg("nearby query failed")
		respondWithDomainError(w, err)
		return
	}

	if results == nil {
		results = []room.Nearby{}
	}

	respondWithJSON(w, http.StatusOK, results)
}
