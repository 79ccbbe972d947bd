package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/microparty/microparty/internal/barrier"
	"github.com/microparty/microparty/internal/dependencies/clock"
	"github.com/microparty/microparty/internal/dependencies/random"
	"github.com/microparty/microparty/internal/model"
	"github.com/microparty/microparty/internal/push"
	"github.com/microparty/microparty/internal/services/round"
	"github.com/microparty/microparty/internal/services/session"
	"github.com/microparty/microparty/internal/storage/memory"
	"github.com/microparty/microparty/internal/testutil"
)

// envelope mirrors the outbound frame for decoding in tests
type envelope struct {
	Event model.EventType `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type HandlerSuite struct {
	suite.Suite
	server *httptest.Server
	runner *round.Runner
	hubs   *push.Manager
	conns  []*websocket.Conn
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := testutil.NopLogger()
	clk := clock.New()
	barriers := barrier.NewRegistry(clk)
	controller := session.NewController(memory.New(), clk, random.New(), barriers, logger)

	s.hubs = push.NewManager(logger)
	broadcaster := push.NewBroadcaster(s.hubs, logger)
	s.runner = round.NewRunner(controller, barriers, broadcaster, round.DefaultConfig(), logger)

	handler := NewHandler(controller, s.runner, s.hubs, broadcaster, logger)
	s.server = httptest.NewServer(handler)
	s.conns = nil
}

func (s *HandlerSuite) TearDownTest() {
	for _, c := range s.conns {
		c.Close()
	}
	s.server.Close()
	s.runner.Close()
	s.hubs.Close()
}

// dial opens a websocket client against the test server
func (s *HandlerSuite) dial() *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.conns = append(s.conns, conn)
	return conn
}

func (s *HandlerSuite) sendMessage(conn *websocket.Conn, event model.EventType, payload any) {
	msg := map[string]any{"event": event}
	if payload != nil {
		msg["payload"] = payload
	}
	s.Require().NoError(conn.WriteJSON(msg))
}

// waitFor reads frames until the wanted event arrives, skipping unrelated
// broadcasts that interleave on the shared hub
func (s *HandlerSuite) waitFor(conn *websocket.Conn, event model.EventType) envelope {
	deadline := time.Now().Add(5 * time.Second)
	for {
		s.Require().NoError(conn.SetReadDeadline(deadline))
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			s.Require().FailNowf("event never arrived", "wanted %s: %v", event, err)
		}
		if env.Event == event {
			return env
		}
	}
}

func (s *HandlerSuite) decodeSession(env envelope) *model.Session {
	var payload struct {
		Session *model.Session `json:"game"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &payload))
	s.Require().NotNil(payload.Session)
	return payload.Session
}

// createGame runs the CREATE_GAME handshake and returns the session snapshot
func (s *HandlerSuite) createGame(conn *websocket.Conn, sessionName, playerName string) (*model.Session, model.PlayerID) {
	s.sendMessage(conn, model.EventCreateGame, CreateGamePayload{
		SessionName: sessionName,
		PlayerName:  playerName,
	})

	env := s.waitFor(conn, model.EventGameCreated)
	var payload struct {
		Session *model.Session `json:"game"`
		Player  *model.Player  `json:"player"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &payload))
	s.Require().NotNil(payload.Session)
	s.Require().NotNil(payload.Player)
	return payload.Session, payload.Player.ID
}

// joinGame runs the JOIN_GAME handshake and returns the joiner's player id
func (s *HandlerSuite) joinGame(conn *websocket.Conn, sessionID model.SessionID, playerName string) model.PlayerID {
	s.sendMessage(conn, model.EventJoinGame, JoinGamePayload{
		SessionID:  string(sessionID),
		PlayerName: playerName,
	})

	env := s.waitFor(conn, model.EventGameJoined)
	var payload struct {
		Player *model.Player `json:"player"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &payload))
	s.Require().NotNil(payload.Player)
	return payload.Player.ID
}

func (s *HandlerSuite) expectError(conn *websocket.Conn, code string) {
	env := s.waitFor(conn, model.EventError)
	var payload model.ErrorPayload
	s.Require().NoError(json.Unmarshal(env.Data, &payload))
	s.Equal(code, payload.Code)
}

func (s *HandlerSuite) TestCreateGame() {
	ava := s.dial()

	sess, hostID := s.createGame(ava, "Arcade", "Ava")
	s.Equal("Arcade", sess.Name)
	s.Equal(model.PhaseLobby, sess.Phase)
	s.Equal(hostID, sess.HostID)
	s.Len(sess.Players, 1)
	s.Equal("Ava", sess.Players[0].Name)
}

func (s *HandlerSuite) TestJoinBroadcastsRoster() {
	ava := s.dial()
	ben := s.dial()

	sess, _ := s.createGame(ava, "Arcade", "Ava")
	s.joinGame(ben, sess.ID, "Ben")

	env := s.waitFor(ava, model.EventPlayerJoined)
	roster := s.decodeSession(env)
	s.Len(roster.Players, 2)
	s.Equal("Ben", roster.Players[1].Name)
}

func (s *HandlerSuite) TestJoinUnknownGame() {
	ben := s.dial()

	s.sendMessage(ben, model.EventJoinGame, JoinGamePayload{SessionID: "NOPE", PlayerName: "Ben"})
	s.expectError(ben, ErrCodeGameNotFound)
}

func (s *HandlerSuite) TestActionsRequireJoining() {
	conn := s.dial()

	s.sendMessage(conn, model.EventPlayerReady, nil)
	s.expectError(conn, ErrCodeInvalidAction)

	s.sendMessage(conn, model.EventStartGame, nil)
	s.expectError(conn, ErrCodeInvalidAction)
}

func (s *HandlerSuite) TestMalformedFrame() {
	conn := s.dial()

	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	s.expectError(conn, ErrCodeInvalidMessage)
}

func (s *HandlerSuite) TestOnlyHostCanStart() {
	ava := s.dial()
	ben := s.dial()

	sess, _ := s.createGame(ava, "Arcade", "Ava")
	s.joinGame(ben, sess.ID, "Ben")

	s.sendMessage(ben, model.EventStartGame, nil)
	s.expectError(ben, ErrCodeNotHost)
}

func (s *HandlerSuite) TestFullGameFlow() {
	ava := s.dial()
	ben := s.dial()

	sess, _ := s.createGame(ava, "Arcade", "Ava")
	s.joinGame(ben, sess.ID, "Ben")

	// Host starts; everyone moves to the scoreboard
	s.sendMessage(ava, model.EventStartGame, nil)
	for _, conn := range []*websocket.Conn{ava, ben} {
		snap := s.decodeSession(s.waitFor(conn, model.EventMoveToScoreboard))
		s.Equal(model.PhaseScore, snap.Phase)
	}

	// Both ready up on the scoreboard; everyone moves into the round
	s.sendMessage(ava, model.EventPlayerReady, nil)
	s.sendMessage(ben, model.EventPlayerReady, nil)
	for _, conn := range []*websocket.Conn{ava, ben} {
		snap := s.decodeSession(s.waitFor(conn, model.EventMoveToGame))
		s.Equal(model.PhaseMiniGame, snap.Phase)
	}

	// Ava reaches the winning score; the session ends at the results screen
	s.sendMessage(ava, model.EventPlayerScore, PlayerScorePayload{Score: 10})
	s.sendMessage(ben, model.EventPlayerScore, PlayerScorePayload{Score: 3})
	for _, conn := range []*websocket.Conn{ava, ben} {
		snap := s.decodeSession(s.waitFor(conn, model.EventMoveToResults))
		s.Equal(model.PhaseResults, snap.Phase)
		s.Len(snap.Winners(10), 1)
		s.Equal("Ava", snap.Winners(10)[0].Name)
	}
}

func (s *HandlerSuite) TestLosingRoundLoopsToScoreboard() {
	ava := s.dial()
	ben := s.dial()

	sess, _ := s.createGame(ava, "Arcade", "Ava")
	s.joinGame(ben, sess.ID, "Ben")

	s.sendMessage(ava, model.EventStartGame, nil)
	s.waitFor(ava, model.EventMoveToScoreboard)

	s.sendMessage(ava, model.EventPlayerReady, nil)
	s.sendMessage(ben, model.EventPlayerReady, nil)
	s.waitFor(ava, model.EventMoveToGame)

	// Scores stay below the threshold, so the loop returns to the scoreboard
	s.sendMessage(ava, model.EventPlayerScore, PlayerScorePayload{Score: 4})
	s.sendMessage(ben, model.EventPlayerScore, PlayerScorePayload{Score: 2})

	snap := s.decodeSession(s.waitFor(ava, model.EventMoveToScoreboard))
	s.Equal(model.PhaseScore, snap.Phase)
	s.Equal(4, snap.Players[0].Score)
	s.Equal(2, snap.Players[1].Score)
}
