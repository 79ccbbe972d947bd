package response

import (
	"github.com/microparty/microparty/internal/model"
)

// Player represents a roster member in API responses
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
	Score int    `json:"score"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:    string(p.ID),
		Name:  p.Name,
		Ready: p.Ready,
		Score: p.Score,
	}
}

// Session represents a game session snapshot in API responses
type Session struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	HostID  string   `json:"hostId"`
	Players []Player `json:"players"`
	Phase   string   `json:"phase"`
	Micro   string   `json:"micro"`
}

// SessionFromModel converts a model.Session to a response Session
func SessionFromModel(s *model.Session) Session {
	players := make([]Player, len(s.Players))
	for i := range s.Players {
		players[i] = PlayerFromModel(&s.Players[i])
	}
	return Session{
		ID:      string(s.ID),
		Name:    s.Name,
		HostID:  string(s.HostID),
		Players: players,
		Phase:   string(s.Phase),
		Micro:   string(s.Micro),
	}
}

// CreateSessionResponse is returned when a session is created; it carries
// the host's minted player so the client can act as them
type CreateSessionResponse struct {
	Session Session `json:"game"`
	Player  Player  `json:"player"`
}

// JoinSessionResponse is returned to a player who joined a session
type JoinSessionResponse struct {
	Session Session `json:"game"`
	Player  Player  `json:"player"`
}

// SessionListResponse lists known sessions
type SessionListResponse struct {
	Sessions []Session `json:"games"`
}
