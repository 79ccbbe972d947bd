package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player represents one connected participant in a session.
// Ready and Score are mutated only through the session controller.
type Player struct {
	ID       PlayerID  `json:"id"`
	Name     string    `json:"name"`
	Ready    bool      `json:"ready"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joinedAt"`
}
