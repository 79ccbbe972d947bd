package ws

import (
	"encoding/json"

	"github.com/microparty/microparty/internal/model"
)

// ClientMessage is one inbound action frame. Payload decoding is deferred
// until the type is known.
type ClientMessage struct {
	Type    model.EventType `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CreateGamePayload opens a new session with the sender as host
type CreateGamePayload struct {
	SessionName string `json:"sessionName"`
	PlayerName  string `json:"playerName"`
}

// JoinGamePayload adds the sender to an existing session's roster
type JoinGamePayload struct {
	SessionID  string `json:"sessionId"`
	PlayerName string `json:"playerName"`
}

// PlayerScorePayload reports the sender's score delta for the round that
// just ended
type PlayerScorePayload struct {
	Score int `json:"score"`
}

// Error codes sent back to the acting client
const (
	ErrCodeInvalidMessage     = "INVALID_MESSAGE"
	ErrCodeInvalidAction      = "INVALID_ACTION"
	ErrCodeGameNotFound       = "GAME_NOT_FOUND"
	ErrCodeDuplicatePlayer    = "DUPLICATE_PLAYER"
	ErrCodePlayerNotFound     = "PLAYER_NOT_FOUND"
	ErrCodeNotHost            = "NOT_HOST"
	ErrCodeGameAlreadyStarted = "GAME_ALREADY_STARTED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)
