package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseTransitions(t *testing.T) {
	cases := []struct {
		from  Phase
		to    Phase
		legal bool
	}{
		{PhaseLobby, PhaseScore, true},
		{PhaseLobby, PhaseMiniGame, false},
		{PhaseLobby, PhaseResults, false},
		{PhaseScore, PhaseMiniGame, true},
		{PhaseScore, PhaseResults, false},
		{PhaseScore, PhaseLobby, false},
		{PhaseMiniGame, PhaseScore, true},
		{PhaseMiniGame, PhaseResults, true},
		{PhaseMiniGame, PhaseLobby, false},
		{PhaseResults, PhaseScore, false},
		{PhaseResults, PhaseMiniGame, false},
		{PhaseResults, PhaseLobby, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.legal, tc.from.CanTransition(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestPhaseValid(t *testing.T) {
	for _, p := range []Phase{PhaseLobby, PhaseScore, PhaseMiniGame, PhaseResults} {
		assert.True(t, p.Valid())
	}
	assert.False(t, Phase("INTERMISSION").Valid())
	assert.False(t, Phase("").Valid())
}
