package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ciocnim/arena/internal/api/request"
	"github.com/ciocnim/arena/internal/api/response"
	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/pubsub"
)

// DuelHandler publishes duel invitations to a user's personal channel
type DuelHandler struct {
	broker pubsub.Broker
}

// NewDuelHandler creates a new duel handler
func NewDuelHandler(broker pubsub.Broker) *DuelHandler {
	return &DuelHandler{broker: broker}
}

// Invite handles POST /api/v1/duels/invite. Delivery is best effort;
// a recipient already in a room simply ignores the event.
func (h *DuelHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req request.DuelInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.From == "" || req.To == "" {
		WriteError(w, model.ErrEmptyDisplayName)
		return
	}
	if req.RoomID == "" {
		WriteError(w, NewInvalidRequestError("room_id is required"))
		return
	}

	err := h.broker.Publish(r.Context(), model.UserChannel(req.To), model.EventDuelRequest,
		model.DuelRequestPayload{
			From:   req.From,
			RoomID: model.RoomID(req.RoomID),
			TeamID: model.TeamID(req.TeamID),
		})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusAccepted, response.Ack{OK: true})
}
