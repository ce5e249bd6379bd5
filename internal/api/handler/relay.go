package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ciocnim/arena/internal/api/request"
	"github.com/ciocnim/arena/internal/api/response"
	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/pubsub"
	"github.com/ciocnim/arena/internal/services/clash"
)

// RelayHandler forwards typed room events onto the broadcast channel.
// Events that carry protocol state (ready, rematch votes, clash
// signals) are registered with the engine before the fan-out so the
// authority's view never lags the room's.
type RelayHandler struct {
	broker pubsub.Broker
	engine *clash.Engine
	logger *slog.Logger
}

// NewRelayHandler creates a new relay handler
func NewRelayHandler(broker pubsub.Broker, engine *clash.Engine, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{
		broker: broker,
		engine: engine,
		logger: logger.With(slog.String("component", "relay-handler")),
	}
}

// RoomEvent handles POST /api/v1/rooms/{roomId}/events
func (h *RelayHandler) RoomEvent(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomId"])

	var req request.RelayEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	switch req.Event {
	case model.EventJoin:
		var p model.JoinPayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			WriteError(w, NewInvalidRequestError("invalid join payload"))
			return
		}
		if err := h.engine.RegisterJoin(r.Context(), roomID, p); err != nil {
			WriteError(w, err)
			return
		}
	case model.EventReady:
		var p model.ReadyPayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			WriteError(w, NewInvalidRequestError("invalid ready payload"))
			return
		}
		if err := h.engine.RegisterReady(r.Context(), roomID, p.Config); err != nil {
			WriteError(w, err)
			return
		}
	case model.EventRematchRequest:
		var p model.RematchRequestPayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			WriteError(w, NewInvalidRequestError("invalid rematch payload"))
			return
		}
		if err := h.engine.RegisterRematchVote(r.Context(), roomID, p.Role); err != nil {
			WriteError(w, err)
			return
		}
	case model.EventClashRequested:
		var p model.ClashRequestedPayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			WriteError(w, NewInvalidRequestError("invalid clash payload"))
			return
		}
		if _, _, err := h.engine.Resolve(r.Context(), clash.Request{
			RoomID:       roomID,
			Role:         p.Role,
			GoldenEgg:    p.GoldenEgg,
			ProfileToken: p.ProfileToken,
			TeamID:       p.TeamID,
		}); err != nil {
			WriteError(w, err)
			return
		}
		// the outcome arrives as the impact-result broadcast; the
		// gesture itself is not re-relayed
		response.JSON(w, http.StatusAccepted, response.Ack{OK: true})
		return
	case model.EventRequestState, model.EventParticipantLeft,
		model.EventReaction, model.EventChatMessage:
		// relay only
	default:
		// unknown events are acknowledged without action so older
		// servers tolerate newer clients
		h.logger.Debug("unknown relay event ignored", slog.String("event", string(req.Event)))
		response.JSON(w, http.StatusAccepted, response.Ack{OK: true})
		return
	}

	if err := h.broker.Publish(r.Context(), model.RoomChannel(roomID), req.Event, req.Payload); err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusAccepted, response.Ack{OK: true})
}
