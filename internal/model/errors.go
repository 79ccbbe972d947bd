package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionStarted  = errors.New("session already started")
	ErrNotHost         = errors.New("player is not the host")
	ErrInvalidPhase    = errors.New("illegal phase transition")

	// Player errors
	ErrPlayerNotFound  = errors.New("player not found in session")
	ErrDuplicatePlayer = errors.New("player is already in session")

	// Barrier errors
	ErrBarrierArmed = errors.New("readiness barrier already armed")
)
