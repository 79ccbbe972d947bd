package model

// EventType names an event delivered over the session transport. Inbound
// types are client actions; outbound types are server notifications.
type EventType string

// Client → server actions
const (
	EventCreateGame  EventType = "CREATE_GAME"
	EventJoinGame    EventType = "JOIN_GAME"
	EventPlayerReady EventType = "PLAYER_READY"
	EventPlayerScore EventType = "PLAYER_SCORE"
	EventStartGame   EventType = "START_GAME"
)

// Server → client notifications
const (
	EventGameCreated      EventType = "GAME_CREATED"
	EventGameJoined       EventType = "GAME_JOINED"
	EventPlayerJoined     EventType = "PLAYER_JOINED"
	EventPlayerIsReady    EventType = "PLAYER_IS_READY"
	EventSetPlayerScore   EventType = "SET_PLAYER_SCORE"
	EventMoveToScoreboard EventType = "MOVE_TO_SCOREBOARD"
	EventMoveToGame       EventType = "MOVE_TO_GAME"
	EventMoveToResults    EventType = "MOVE_TO_RESULTS"
	EventError            EventType = "ERROR"
)

// GameCreatedPayload is sent to the creator once their session exists
type GameCreatedPayload struct {
	Session *Session `json:"game"`
	Player  *Player  `json:"player"`
}

// GameJoinedPayload is sent to a player who joined an existing session
type GameJoinedPayload struct {
	Player *Player `json:"player"`
}

// SessionPayload carries the full session snapshot; used for roster and
// phase-transition broadcasts
type SessionPayload struct {
	Session *Session `json:"game"`
}

// ErrorPayload reports a failed action back to the acting client only
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
