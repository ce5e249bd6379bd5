package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ciocnim/arena/internal/api/request"
	"github.com/ciocnim/arena/internal/api/response"
	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/services/team"
)

// TeamHandler handles team endpoints
type TeamHandler struct {
	teamService *team.Service
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teamService *team.Service) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

// Create handles POST /api/v1/teams
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	t, err := h.teamService.CreateTeam(r.Context(), req.CreatorName, req.TeamName)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.TeamFromModel(t))
}

// Join handles POST /api/v1/teams/{teamId}/join
func (h *TeamHandler) Join(w http.ResponseWriter, r *http.Request) {
	id := model.TeamID(mux.Vars(r)["teamId"])

	var req request.JoinTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	t, err := h.teamService.JoinTeam(r.Context(), id, req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.TeamFromModel(t))
}

// Get handles GET /api/v1/teams/{teamId}
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.TeamID(mux.Vars(r)["teamId"])

	details, err := h.teamService.Details(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.TeamDetailsFromModel(details))
}

// PostMessage handles POST /api/v1/teams/{teamId}/messages
func (h *TeamHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id := model.TeamID(mux.Vars(r)["teamId"])

	var req request.PostTeamMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	msg, err := h.teamService.PostMessage(r.Context(), id, req.Author, req.Text)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.TeamMessage{
		Author: msg.Author,
		Text:   msg.Text,
		SentAt: msg.SentAt,
	})
}
