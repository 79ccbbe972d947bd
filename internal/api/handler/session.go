package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/microparty/microparty/internal/api/request"
	"github.com/microparty/microparty/internal/api/response"
	"github.com/microparty/microparty/internal/model"
	"github.com/microparty/microparty/internal/push"
	"github.com/microparty/microparty/internal/services/round"
	"github.com/microparty/microparty/internal/services/session"
)

// SessionHandler handles game session endpoints
type SessionHandler struct {
	sessions    session.ControllerInterface
	rounds      *round.Runner
	broadcaster *push.Broadcaster
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions session.ControllerInterface, rounds *round.Runner, broadcaster *push.Broadcaster) *SessionHandler {
	return &SessionHandler{
		sessions:    sessions,
		rounds:      rounds,
		broadcaster: broadcaster,
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.HostName == "" {
		WriteError(w, NewInvalidRequestError("host_name is required"))
		return
	}

	host := h.sessions.NewPlayer(req.HostName)
	sess, err := h.sessions.CreateSession(r.Context(), req.Name, host)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CreateSessionResponse{
		Session: response.SessionFromModel(sess),
		Player:  response.PlayerFromModel(sess.Player(host.ID)),
	})
}

// List handles GET /api/v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListSessions(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]response.Session, len(sessions))
	for i, s := range sessions {
		out[i] = response.SessionFromModel(s)
	}
	response.JSON(w, http.StatusOK, response.SessionListResponse{Sessions: out})
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.SessionID(mux.Vars(r)["id"])

	sess, err := h.sessions.GetSession(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(sess))
}

// Join handles POST /api/v1/sessions/{id}/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	id := model.SessionID(mux.Vars(r)["id"])

	var req request.JoinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.PlayerName == "" {
		WriteError(w, NewInvalidRequestError("player_name is required"))
		return
	}

	player := h.sessions.NewPlayer(req.PlayerName)
	sess, err := h.sessions.Join(r.Context(), id, player)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.broadcaster.Broadcast(id, model.EventPlayerJoined, model.SessionPayload{Session: sess})

	response.JSON(w, http.StatusOK, response.JoinSessionResponse{
		Session: response.SessionFromModel(sess),
		Player:  response.PlayerFromModel(sess.Player(player.ID)),
	})
}

// Ready handles POST /api/v1/sessions/{id}/ready
func (h *SessionHandler) Ready(w http.ResponseWriter, r *http.Request) {
	id := model.SessionID(mux.Vars(r)["id"])

	var req request.ReadyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	sess, err := h.sessions.MarkReady(r.Context(), id, model.PlayerID(req.PlayerID))
	if err != nil {
		WriteError(w, err)
		return
	}

	h.broadcaster.Broadcast(id, model.EventPlayerIsReady, model.SessionPayload{Session: sess})

	response.JSON(w, http.StatusOK, response.SessionFromModel(sess))
}

// Score handles POST /api/v1/sessions/{id}/score
func (h *SessionHandler) Score(w http.ResponseWriter, r *http.Request) {
	id := model.SessionID(mux.Vars(r)["id"])

	var req request.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	sess, err := h.sessions.RecordScore(r.Context(), id, model.PlayerID(req.PlayerID), req.Score)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.broadcaster.Broadcast(id, model.EventSetPlayerScore, nil)

	response.JSON(w, http.StatusOK, response.SessionFromModel(sess))
}

// Start handles POST /api/v1/sessions/{id}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	id := model.SessionID(mux.Vars(r)["id"])

	var req request.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if err := h.rounds.Start(r.Context(), id, model.PlayerID(req.PlayerID)); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Delete handles DELETE /api/v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := model.SessionID(mux.Vars(r)["id"])

	if _, err := h.sessions.GetSession(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.sessions.DeleteSession(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
