package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ciocnim/arena/internal/api/handler"
	"github.com/ciocnim/arena/internal/middleware"
	"github.com/ciocnim/arena/internal/pubsub"
	"github.com/ciocnim/arena/internal/services/clash"
	"github.com/ciocnim/arena/internal/services/counter"
	"github.com/ciocnim/arena/internal/services/profile"
	"github.com/ciocnim/arena/internal/services/team"
	"github.com/ciocnim/arena/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Broker         pubsub.Broker
	Engine         *clash.Engine
	CounterService *counter.Service
	TeamService    *team.Service
	ProfileService *profile.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	clashHandler := handler.NewClashHandler(cfg.Engine)
	relayHandler := handler.NewRelayHandler(cfg.Broker, cfg.Engine, cfg.Logger)
	teamHandler := handler.NewTeamHandler(cfg.TeamService)
	counterHandler := handler.NewCounterHandler(cfg.CounterService)
	profileHandler := handler.NewProfileHandler(cfg.ProfileService)
	duelHandler := handler.NewDuelHandler(cfg.Broker)
	gateway := ws.NewGateway(cfg.Broker, cfg.Engine, cfg.Logger)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Room protocol
	api.HandleFunc("/rooms/{roomId}/clash", clashHandler.Resolve).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{roomId}/events", relayHandler.RoomEvent).Methods(http.MethodPost)

	// Teams
	api.HandleFunc("/teams", teamHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/teams/{teamId}", teamHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/teams/{teamId}/join", teamHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/teams/{teamId}/messages", teamHandler.PostMessage).Methods(http.MethodPost)

	// Duel invitations
	api.HandleFunc("/duels/invite", duelHandler.Invite).Methods(http.MethodPost)

	// Global counter
	api.HandleFunc("/counter", counterHandler.Get).Methods(http.MethodGet)

	// Profiles
	api.HandleFunc("/profiles", profileHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/profiles/{token}", profileHandler.Get).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Websocket bridges; the recovery middleware stays off these so a
	// hijacked connection is never double-written
	wsRouter := r.PathPrefix("/ws").Subrouter()
	wsRouter.HandleFunc("/rooms/{roomId}", gateway.Room).Methods(http.MethodGet)
	wsRouter.HandleFunc("/teams/{teamId}", gateway.Team).Methods(http.MethodGet)
	wsRouter.HandleFunc("/users/{name}", gateway.User).Methods(http.MethodGet)
	wsRouter.HandleFunc("/global", gateway.Global).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
