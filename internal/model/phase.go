package model

// Phase is one of the four stages a session passes through
type Phase string

const (
	PhaseLobby    Phase = "LOBBY"
	PhaseScore    Phase = "SCORE"
	PhaseMiniGame Phase = "MINI_GAME"
	PhaseResults  Phase = "RESULTS"
)

// CanTransition reports whether moving from p to next is a legal phase edge.
// LOBBY is entered only at creation; SCORE and MINI_GAME cycle until the
// winner check sends the session to RESULTS, which is terminal.
func (p Phase) CanTransition(next Phase) bool {
	switch p {
	case PhaseLobby:
		return next == PhaseScore
	case PhaseScore:
		return next == PhaseMiniGame
	case PhaseMiniGame:
		return next == PhaseScore || next == PhaseResults
	case PhaseResults:
		return false
	}
	return false
}

// Valid reports whether p is one of the four known phases
func (p Phase) Valid() bool {
	switch p {
	case PhaseLobby, PhaseScore, PhaseMiniGame, PhaseResults:
		return true
	}
	return false
}
