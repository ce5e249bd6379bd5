package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ciocnim/arena/internal/api/request"
	"github.com/ciocnim/arena/internal/api/response"
	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/services/profile"
)

// ProfileHandler handles identity bootstrap endpoints
type ProfileHandler struct {
	profileService *profile.Service
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *profile.Service) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Create handles POST /api/v1/profiles
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	p, err := h.profileService.Bootstrap(r.Context(), req.DisplayName, req.Appearance)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.ProfileFromModel(p))
}

// Get handles GET /api/v1/profiles/{token}. Rehydration runs the
// hourly golden egg roll as a side effect.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	token := model.ProfileToken(mux.Vars(r)["token"])

	p, err := h.profileService.Rehydrate(r.Context(), token)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ProfileFromModel(p))
}
