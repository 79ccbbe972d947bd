package request

// CreateSessionRequest is the request body for creating a game session
type CreateSessionRequest struct {
	Name     string `json:"name"`
	HostName string `json:"host_name"`
}

// JoinSessionRequest is the request body for joining a session
type JoinSessionRequest struct {
	PlayerName string `json:"player_name"`
}

// ReadyRequest is the request body for marking a player ready
type ReadyRequest struct {
	PlayerID string `json:"player_id"`
}

// ScoreRequest is the request body for reporting a round score
type ScoreRequest struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
}

// StartRequest is the request body for starting the game loop
type StartRequest struct {
	PlayerID string `json:"player_id"`
}
