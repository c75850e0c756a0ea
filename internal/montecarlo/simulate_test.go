package montecarlo

import (
	"context"
	"testing"

	"github.com/lox/flip7helper/internal/decision"
	"github.com/lox/flip7helper/internal/deck"
	"github.com/lox/flip7helper/internal/randutil"
	"github.com/lox/flip7helper/internal/round"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateMatchesOneStepModel(t *testing.T) {
	state := round.State{Numbers: round.NewNumberSet(7, 10)}.WithAddPoints(2)
	remaining := deck.Standard().RemainingAfterSeen(deck.Seen{"12": 4, "10": 1})

	res, err := Simulate(context.Background(), Config{
		State:     state,
		Remaining: remaining,
		Samples:   200000,
		Workers:   4,
		Seed:      12345,
	})
	require.NoError(t, err)
	assert.Equal(t, 200000, res.Samples)

	// depth 0 values drawn action cards the same way the simulator does
	out := decision.NewEngine().ComputeDepth(state, deck.Seen{"12": 4, "10": 1}, 0, false)
	assert.InDelta(t, out.BustProbabilityNext, res.BustNext, 0.01)
	assert.InDelta(t, out.ExpectedValueNext, res.MeanBankNext, 0.25)

	// three draws bust at least as often as one
	assert.GreaterOrEqual(t, res.BustFlipThree, res.BustNext)

	assert.Greater(t, res.StdErrBankNext, 0.0)
	assert.Less(t, res.StdErrBankNext, 0.1)
}

func TestSimulateIsReproducible(t *testing.T) {
	cfg := Config{
		State:     round.State{Numbers: round.NewNumberSet(3)},
		Remaining: deck.Standard(),
		Samples:   5000,
		Workers:   3,
		Seed:      99,
	}

	a, err := Simulate(context.Background(), cfg)
	require.NoError(t, err)
	b, err := Simulate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSimulateSecondChanceNeverBustsOnNextDraw(t *testing.T) {
	res, err := Simulate(context.Background(), Config{
		State:     round.State{Numbers: round.NewNumberSet(12, 11), HasSecondChance: true},
		Remaining: deck.Standard(),
		Samples:   10000,
		Seed:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.BustNext)
}

func TestSimulateErrors(t *testing.T) {
	_, err := Simulate(context.Background(), Config{Remaining: deck.Standard(), Samples: 0})
	assert.Error(t, err)

	_, err = Simulate(context.Background(), Config{Remaining: deck.NewComposition(nil), Samples: 10})
	assert.ErrorIs(t, err, ErrEmptyDeck)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Simulate(ctx, Config{Remaining: deck.Standard(), Samples: 10, Workers: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlay(t *testing.T) {
	base := round.State{Numbers: round.NewNumberSet(4, 9)}

	tests := []struct {
		name   string
		state  round.State
		drawn  []deck.Label
		bank   int
		busted bool
	}{
		{"new number", base, []deck.Label{"6"}, 19, false},
		{"duplicate busts", base, []deck.Label{"6", "9"}, 0, true},
		{"second chance absorbs one duplicate", base.WithSecondChance(true), []deck.Label{"9", "4"}, 0, true},
		{"second chance drawn mid sequence", base, []deck.Label{deck.SecondChance, "4", "1"}, 14, false},
		{"actions are set aside", base, []deck.Label{deck.Freeze, deck.FlipThree, deck.Plus4}, 17, false},
		{"multiplier", base, []deck.Label{deck.Times2}, 26, false},
		{"flip seven stops the draw", round.State{Numbers: round.NewNumberSet(0, 1, 2, 3, 4, 5)}, []deck.Label{"6", "6"}, 36, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank, busted := play(tt.state, tt.drawn)
			assert.Equal(t, tt.busted, busted)
			assert.Equal(t, tt.bank, bank)
		})
	}
}

func TestDrawPrefix(t *testing.T) {
	shoe := []deck.Label{"1", "2", "3", "4"}
	drawn := drawPrefix(shoe, 6, randutil.New(5))
	assert.Len(t, drawn, 4)
	assert.ElementsMatch(t, []deck.Label{"1", "2", "3", "4"}, drawn)
}
