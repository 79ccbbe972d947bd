package model

import "time"

// SessionID is the opaque identifier players use to join a session
type SessionID string

// MicroGame selects which mini-game a session's rounds play. The mini-game
// itself is opaque to the server; only the reported score matters.
type MicroGame string

const (
	MicroSpeed    MicroGame = "SPEED"
	MicroAccuracy MicroGame = "ACCURACY"
	MicroRandom   MicroGame = "RANDOM"
)

// Session is one in-progress party-game instance: roster, host and phase.
// Players are stored in join order and owned exclusively by their session.
type Session struct {
	ID        SessionID `json:"id"`
	Name      string    `json:"name"`
	HostID    PlayerID  `json:"hostId"`
	Players   []Player  `json:"players"`
	Phase     Phase     `json:"phase"`
	Micro     MicroGame `json:"micro"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the session. The roster slice is copied, so
// the clone shares no mutable state with the original.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Players = make([]Player, len(s.Players))
	copy(clone.Players, s.Players)
	return &clone
}

// Player returns the roster entry with the given id, or nil if absent
func (s *Session) Player(id PlayerID) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// HasPlayer reports whether the given player id is on the roster
func (s *Session) HasPlayer(id PlayerID) bool {
	return s.Player(id) != nil
}

// IsHost reports whether the given player id is the session host
func (s *Session) IsHost(id PlayerID) bool {
	return s.HostID != "" && s.HostID == id
}

// AllReady reports whether every roster member is marked ready.
// An empty roster is vacuously ready.
func (s *Session) AllReady() bool {
	for i := range s.Players {
		if !s.Players[i].Ready {
			return false
		}
	}
	return true
}

// HasWinner reports whether at least one roster member's score has reached
// the winning threshold
func (s *Session) HasWinner(threshold int) bool {
	for i := range s.Players {
		if s.Players[i].Score >= threshold {
			return true
		}
	}
	return false
}

// Winners returns every roster member at or above the winning threshold,
// in join order. Ties are allowed; all winners are reported.
func (s *Session) Winners(threshold int) []Player {
	var winners []Player
	for i := range s.Players {
		if s.Players[i].Score >= threshold {
			winners = append(winners, s.Players[i])
		}
	}
	return winners
}
