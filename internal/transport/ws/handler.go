package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/microparty/microparty/internal/push"
	"github.com/microparty/microparty/internal/services/round"
	"github.com/microparty/microparty/internal/services/session"
)

// Handler upgrades HTTP requests to the game's websocket protocol
type Handler struct {
	sessions    session.ControllerInterface
	rounds      *round.Runner
	hubs        *push.Manager
	broadcaster *push.Broadcaster
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewHandler creates a new websocket handler
func NewHandler(
	sessions session.ControllerInterface,
	rounds *round.Runner,
	hubs *push.Manager,
	broadcaster *push.Broadcaster,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		sessions:    sessions,
		rounds:      rounds,
		hubs:        hubs,
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game clients connect from arbitrary origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

// ServeHTTP upgrades the request and runs the connection until the peer
// disconnects
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	h.logger.Info("websocket connected", slog.String("remote", r.RemoteAddr))
	NewConn(conn, h.sessions, h.rounds, h.hubs, h.broadcaster, h.logger).Run()
}
