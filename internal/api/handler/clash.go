package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ciocnim/arena/internal/api/request"
	"github.com/ciocnim/arena/internal/api/response"
	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/services/clash"
)

// ClashHandler relays impact gestures to the resolution engine
type ClashHandler struct {
	engine *clash.Engine
}

// NewClashHandler creates a new clash handler
func NewClashHandler(engine *clash.Engine) *ClashHandler {
	return &ClashHandler{engine: engine}
}

// Resolve handles POST /api/v1/rooms/{roomId}/clash
func (h *ClashHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomId"])

	var req request.ClashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	round, resolvedNow, err := h.engine.Resolve(r.Context(), clash.Request{
		RoomID:       roomID,
		Role:         model.Role(req.Role),
		GoldenEgg:    req.GoldenEgg,
		ProfileToken: model.ProfileToken(req.ProfileToken),
		TeamID:       model.TeamID(req.TeamID),
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Clash{
		RoundID:   round.ID,
		OwnerWins: round.OwnerWins,
		Resolved:  resolvedNow,
	})
}
