package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/microparty/microparty/internal/model"
	"github.com/microparty/microparty/internal/push"
	"github.com/microparty/microparty/internal/services/round"
	"github.com/microparty/microparty/internal/services/session"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Buffer for direct replies to this connection
	directBufferSize = 64
)

// Conn is one player's websocket connection. Until the first CREATE_GAME or
// JOIN_GAME it is unbound; binding mints the player, registers a push
// subscriber with the session's hub, and routes room broadcasts here.
type Conn struct {
	conn        *websocket.Conn
	sessions    session.ControllerInterface
	rounds      *round.Runner
	hubs        *push.Manager
	broadcaster *push.Broadcaster
	logger      *slog.Logger

	direct chan []byte
	done   chan struct{}

	mu        sync.Mutex
	closed    bool
	playerID  model.PlayerID
	sessionID model.SessionID
	sub       *push.Client
}

// NewConn wraps an upgraded websocket connection
func NewConn(
	conn *websocket.Conn,
	sessions session.ControllerInterface,
	rounds *round.Runner,
	hubs *push.Manager,
	broadcaster *push.Broadcaster,
	logger *slog.Logger,
) *Conn {
	return &Conn{
		conn:        conn,
		sessions:    sessions,
		rounds:      rounds,
		hubs:        hubs,
		broadcaster: broadcaster,
		logger:      logger,
		direct:      make(chan []byte, directBufferSize),
		done:        make(chan struct{}),
	}
}

// Run starts the connection's read and write pumps. It returns when the
// peer disconnects.
func (c *Conn) Run() {
	go c.writePump()
	c.readPump()
}

// bind attaches this connection to a session as the given player and
// subscribes it to the session's event hub
func (c *Conn) bind(sessionID model.SessionID, playerID model.PlayerID) {
	sub := push.NewClient(playerID)
	c.hubs.GetOrCreateHub(sessionID).Register(sub)

	c.mu.Lock()
	c.sessionID = sessionID
	c.playerID = playerID
	c.sub = sub
	c.mu.Unlock()
}

// identity returns the bound session and player, or ok=false when the
// connection has not joined a session yet
func (c *Conn) identity() (model.SessionID, model.PlayerID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID, c.playerID, c.sessionID != ""
}

func (c *Conn) subscriber() *push.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub
}

func (c *Conn) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	sub := c.sub
	sessionID := c.sessionID
	c.mu.Unlock()

	close(c.done)
	if sub != nil {
		if hub := c.hubs.GetHub(sessionID); hub != nil {
			hub.Unregister(sub)
		}
	}
	c.conn.Close()
}

// readPump reads action frames from the peer until the connection drops
func (c *Conn) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", slog.String("error", err.Error()))
			}
			return
		}
		c.handleMessage(context.Background(), data)
	}
}

// writePump drains direct replies and the session hub onto the wire
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		var hubCh <-chan []byte
		if sub := c.subscriber(); sub != nil {
			hubCh = sub.Receive()
		}

		select {
		case data := <-c.direct:
			if err := c.write(data); err != nil {
				return
			}

		case data, ok := <-hubCh:
			if !ok {
				// Hub closed us out; tell the peer and stop
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Conn) write(data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// handleMessage dispatches one inbound action frame
func (c *Conn) handleMessage(ctx context.Context, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "invalid message format")
		return
	}

	switch msg.Type {
	case model.EventCreateGame:
		c.handleCreateGame(ctx, msg.Payload)
	case model.EventJoinGame:
		c.handleJoinGame(ctx, msg.Payload)
	case model.EventPlayerReady:
		c.handlePlayerReady(ctx)
	case model.EventPlayerScore:
		c.handlePlayerScore(ctx, msg.Payload)
	case model.EventStartGame:
		c.handleStartGame(ctx)
	default:
		c.sendError(ErrCodeInvalidMessage, "unknown event type")
	}
}

func (c *Conn) handleCreateGame(ctx context.Context, payload json.RawMessage) {
	if _, _, bound := c.identity(); bound {
		c.sendError(ErrCodeInvalidAction, "already in a game")
		return
	}

	var p CreateGamePayload
	if err := json.Unmarshal(payload, &p); err != nil || p.PlayerName == "" {
		c.sendError(ErrCodeInvalidMessage, "playerName is required")
		return
	}

	host := c.sessions.NewPlayer(p.PlayerName)
	sess, err := c.sessions.CreateSession(ctx, p.SessionName, host)
	if err != nil {
		c.sendModelError(err)
		return
	}

	c.bind(sess.ID, host.ID)
	c.send(model.EventGameCreated, model.GameCreatedPayload{
		Session: sess,
		Player:  sess.Player(host.ID),
	})
	c.logger.Info("game created over websocket",
		slog.String("session_id", string(sess.ID)),
		slog.String("player_id", string(host.ID)))
}

func (c *Conn) handleJoinGame(ctx context.Context, payload json.RawMessage) {
	if _, _, bound := c.identity(); bound {
		c.sendError(ErrCodeInvalidAction, "already in a game")
		return
	}

	var p JoinGamePayload
	if err := json.Unmarshal(payload, &p); err != nil || p.SessionID == "" || p.PlayerName == "" {
		c.sendError(ErrCodeInvalidMessage, "sessionId and playerName are required")
		return
	}

	player := c.sessions.NewPlayer(p.PlayerName)
	sess, err := c.sessions.Join(ctx, model.SessionID(p.SessionID), player)
	if err != nil {
		c.sendModelError(err)
		return
	}

	c.bind(sess.ID, player.ID)
	c.broadcaster.Broadcast(sess.ID, model.EventPlayerJoined, model.SessionPayload{Session: sess})
	c.send(model.EventGameJoined, model.GameJoinedPayload{Player: sess.Player(player.ID)})
	c.logger.Info("player joined over websocket",
		slog.String("session_id", string(sess.ID)),
		slog.String("player_id", string(player.ID)))
}

func (c *Conn) handlePlayerReady(ctx context.Context) {
	sessionID, playerID, bound := c.identity()
	if !bound {
		c.sendError(ErrCodeInvalidAction, "not in a game")
		return
	}

	sess, err := c.sessions.MarkReady(ctx, sessionID, playerID)
	if err != nil {
		c.sendModelError(err)
		return
	}

	c.broadcaster.Broadcast(sessionID, model.EventPlayerIsReady, model.SessionPayload{Session: sess})
}

func (c *Conn) handlePlayerScore(ctx context.Context, payload json.RawMessage) {
	sessionID, playerID, bound := c.identity()
	if !bound {
		c.sendError(ErrCodeInvalidAction, "not in a game")
		return
	}

	var p PlayerScorePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError(ErrCodeInvalidMessage, "invalid score payload")
		return
	}

	if _, err := c.sessions.RecordScore(ctx, sessionID, playerID, p.Score); err != nil {
		c.sendModelError(err)
		return
	}

	c.broadcaster.Broadcast(sessionID, model.EventSetPlayerScore, nil)
}

func (c *Conn) handleStartGame(ctx context.Context) {
	sessionID, playerID, bound := c.identity()
	if !bound {
		c.sendError(ErrCodeInvalidAction, "not in a game")
		return
	}

	if err := c.rounds.Start(ctx, sessionID, playerID); err != nil {
		c.sendModelError(err)
		return
	}
}

// send frames a direct reply to this connection only
func (c *Conn) send(event model.EventType, payload any) {
	data, err := json.Marshal(push.Envelope{
		Event:     event,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		c.logger.Error("failed to encode reply", slog.String("error", err.Error()))
		return
	}

	select {
	case c.direct <- data:
	default:
		c.logger.Warn("direct buffer full, reply dropped")
	}
}

func (c *Conn) sendError(code, message string) {
	c.send(model.EventError, model.ErrorPayload{Code: code, Message: message})
}

// sendModelError maps a domain error to a wire error code for the acting
// client. Nothing is broadcast to the room.
func (c *Conn) sendModelError(err error) {
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		c.sendError(ErrCodeGameNotFound, "game not found")
	case errors.Is(err, model.ErrDuplicatePlayer):
		c.sendError(ErrCodeDuplicatePlayer, "player is already in the game")
	case errors.Is(err, model.ErrPlayerNotFound):
		c.sendError(ErrCodePlayerNotFound, "player is not in the game")
	case errors.Is(err, model.ErrNotHost):
		c.sendError(ErrCodeNotHost, "only the host can start the game")
	case errors.Is(err, model.ErrSessionStarted):
		c.sendError(ErrCodeGameAlreadyStarted, "game has already started")
	default:
		c.sendError(ErrCodeInternalError, err.Error())
	}
}
