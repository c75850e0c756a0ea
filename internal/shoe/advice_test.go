package shoe

import (
	"testing"

	"github.com/lox/flip7helper/internal/decision"
	"github.com/lox/flip7helper/internal/deck"
	"github.com/lox/flip7helper/internal/round"
	"github.com/stretchr/testify/assert"
)

func TestAdvise(t *testing.T) {
	snap := Snapshot{
		ID:    "01h455vb4pex5vsknk084sn02q",
		Round: 2,
		State: round.State{Numbers: round.NewNumberSet(7)},
		Seen:  deck.Seen{"7": 1},
	}

	advice := NewAdvisor().Advise(snap)
	assert.Equal(t, snap.ID, advice.ShoeID)
	assert.Equal(t, 2, advice.Round)
	assert.Equal(t, 93, advice.Output.RemainingCards)
	assert.InDelta(t, 6.0/93, advice.Output.BustProbabilityNext, 1e-12)
	assert.Equal(t, decision.Take, advice.Recommendation)
	assert.NotZero(t, advice.Output.BustProbabilityFlipThree)
}

func TestAdviseWithoutFlipThree(t *testing.T) {
	a := NewAdvisor()
	a.FlipThree = false
	advice := a.Advise(Snapshot{State: round.State{Numbers: round.NewNumberSet(7)}})

	assert.Zero(t, advice.Output.BustProbabilityFlipThree)
	assert.Equal(t, advice.Output.ExpectedValueNext, advice.Output.ExpectedValueFlipThree)
}

func TestAdvisorRemaining(t *testing.T) {
	remaining := NewAdvisor().Remaining(Snapshot{Seen: deck.Seen{"12": 3}})
	assert.Equal(t, 9, remaining.Count("12"))
	assert.Equal(t, 91, remaining.Total())
}
