package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/pubsub"
	"github.com/ciocnim/arena/internal/services/clash"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 32
)

// Gateway bridges websocket clients onto broadcast channels. Every
// frame in both directions is a pubsub.Envelope; inbound protocol
// events are registered with the resolution engine before fan-out, the
// same path the HTTP relay takes.
type Gateway struct {
	broker   pubsub.Broker
	engine   *clash.Engine
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewGateway creates a websocket gateway
func NewGateway(broker pubsub.Broker, engine *clash.Engine, logger *slog.Logger) *Gateway {
	return &Gateway{
		broker: broker,
		engine: engine,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws-gateway")),
	}
}

// Room handles GET /ws/rooms/{roomId}
func (g *Gateway) Room(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomId"])
	g.serve(w, r, model.RoomChannel(roomID), roomID)
}

// Global handles GET /ws/global. Broadcast-only; inbound frames are
// dropped.
func (g *Gateway) Global(w http.ResponseWriter, r *http.Request) {
	g.serve(w, r, model.GlobalChannel, "")
}

// Team handles GET /ws/teams/{teamId}
func (g *Gateway) Team(w http.ResponseWriter, r *http.Request) {
	teamID := model.TeamID(mux.Vars(r)["teamId"])
	g.serve(w, r, model.TeamChannel(teamID), "")
}

// User handles GET /ws/users/{name}, the personal duel invitation feed
func (g *Gateway) User(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	g.serve(w, r, model.UserChannel(name), "")
}

func (g *Gateway) serve(w http.ResponseWriter, r *http.Request, channel string, roomID model.RoomID) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	send := make(chan pubsub.Envelope, sendBufferSize)
	sub, err := g.broker.Subscribe(r.Context(), channel, func(env pubsub.Envelope) {
		select {
		case send <- env:
		default:
			// slow consumer; drop rather than stall the channel
			g.logger.Warn("send buffer full, frame dropped", slog.String("channel", channel))
		}
	})
	if err != nil {
		g.logger.Warn("channel subscribe failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()))
		_ = conn.Close()
		return
	}

	done := make(chan struct{})
	go g.writePump(conn, send, done)
	g.readPump(r, conn, channel, roomID)

	close(done)
	_ = sub.Close()
	_ = conn.Close()
}

// readPump consumes inbound frames until the connection drops
func (g *Gateway) readPump(r *http.Request, conn *websocket.Conn, channel string, roomID model.RoomID) {
	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env pubsub.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Warn("websocket read failed", slog.String("error", err.Error()))
			}
			return
		}
		if roomID == "" {
			// non-room channels are broadcast-only
			continue
		}
		g.handleRoomFrame(r, roomID, env)
	}
}

// handleRoomFrame applies a client frame to the room, mirroring the
// HTTP relay's routing. Unknown events are dropped silently.
func (g *Gateway) handleRoomFrame(r *http.Request, roomID model.RoomID, env pubsub.Envelope) {
	ctx := r.Context()

	switch env.Event {
	case model.EventJoin:
		var p model.JoinPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		if err := g.engine.RegisterJoin(ctx, roomID, p); err != nil {
			g.logger.Warn("join not registered", slog.String("error", err.Error()))
		}
	case model.EventReady:
		var p model.ReadyPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		if err := g.engine.RegisterReady(ctx, roomID, p.Config); err != nil {
			g.logger.Warn("ready not registered", slog.String("error", err.Error()))
		}
	case model.EventRematchRequest:
		var p model.RematchRequestPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		if err := g.engine.RegisterRematchVote(ctx, roomID, p.Role); err != nil {
			g.logger.Warn("rematch vote not registered", slog.String("error", err.Error()))
		}
	case model.EventClashRequested:
		var p model.ClashRequestedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		if _, _, err := g.engine.Resolve(ctx, clash.Request{
			RoomID:       roomID,
			Role:         p.Role,
			GoldenEgg:    p.GoldenEgg,
			ProfileToken: p.ProfileToken,
			TeamID:       p.TeamID,
		}); err != nil {
			g.logger.Warn("clash not resolved", slog.String("error", err.Error()))
		}
		// the engine broadcasts the outcome; the gesture is not relayed
		return
	case model.EventRequestState, model.EventParticipantLeft,
		model.EventReaction, model.EventChatMessage:
		// relay only
	default:
		return
	}

	if err := g.broker.Publish(ctx, model.RoomChannel(roomID), env.Event, env.Payload); err != nil {
		g.logger.Warn("frame relay failed", slog.String("error", err.Error()))
	}
}

// writePump pushes channel envelopes and pings to the client
func (g *Gateway) writePump(conn *websocket.Conn, send <-chan pubsub.Envelope, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case env := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
