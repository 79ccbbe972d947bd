package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/microparty/microparty/internal/api/handler"
	apimiddleware "github.com/microparty/microparty/internal/api/middleware"
	"github.com/microparty/microparty/internal/middleware"
	"github.com/microparty/microparty/internal/push"
	"github.com/microparty/microparty/internal/services/round"
	"github.com/microparty/microparty/internal/services/session"
	"github.com/microparty/microparty/internal/transport/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger            *slog.Logger
	SessionController session.ControllerInterface
	RoundRunner       *round.Runner
	HubManager        *push.Manager
	Broadcaster       *push.Broadcaster
}

// NewRouter creates a new router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(cfg.SessionController, cfg.RoundRunner, cfg.Broadcaster)
	wsHandler := ws.NewHandler(cfg.SessionController, cfg.RoundRunner, cfg.HubManager, cfg.Broadcaster, cfg.Logger)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/sessions", sessionHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/sessions", sessionHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", sessionHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/join", sessionHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/ready", sessionHandler.Ready).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/score", sessionHandler.Score).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/start", sessionHandler.Start).Methods(http.MethodPost)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Websocket endpoint stays outside the API middleware chain so the
	// upgrade owns the connection for its whole lifetime
	r.Handle("/ws", wsHandler)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
