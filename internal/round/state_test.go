package round

import (
	"encoding/json"
	"testing"

	"github.com/lox/flip7helper/internal/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberSet(t *testing.T) {
	ns := NewNumberSet(3, 0, 12, 3, 13, -1)

	assert.Equal(t, 3, ns.Len())
	assert.Equal(t, 15, ns.Sum())
	assert.Equal(t, []int{0, 3, 12}, ns.Slice())
	assert.True(t, ns.Contains(0))
	assert.False(t, ns.Contains(13))
	assert.Equal(t, []deck.Label{"0", "3", "12"}, ns.Labels())
	assert.Equal(t, "[0 3 12]", ns.String())

	var empty NumberSet
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.Slice())
}

func TestBankValue(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected int
	}{
		{"empty line", State{}, 0},
		{"single number", State{Numbers: NewNumberSet(7)}, 7},
		{"multiplier doubles numbers only", State{Numbers: NewNumberSet(5, 6), MultiplierX2: true, AddPoints: 4}, 26},
		{"flat modifiers", State{Numbers: NewNumberSet(1, 2), AddPoints: 10}, 13},
		{"flip seven bonus", State{Numbers: NewNumberSet(0, 1, 2, 3, 4, 5, 6)}, 36},
		{"six uniques has no bonus", State{Numbers: NewNumberSet(1, 2, 3, 4, 5, 6)}, 21},
		{"bonus is not doubled", State{Numbers: NewNumberSet(0, 1, 2, 3, 4, 5, 6), MultiplierX2: true, AddPoints: 2}, 42 + 2 + 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.BankValue())
		})
	}
}

func TestFlipSevenBonusIsExactlyFifteen(t *testing.T) {
	s := State{Numbers: NewNumberSet(2, 4, 6, 8, 10, 11, 12), AddPoints: 6, MultiplierX2: true}
	require.True(t, s.HasFlipSeven())

	withoutBonus := s.NumberSum()*2 + s.AddPoints
	assert.Equal(t, withoutBonus+FlipSevenBonus, s.BankValue())
}

func TestDerivationsDoNotMutate(t *testing.T) {
	s := State{Numbers: NewNumberSet(4)}

	next := s.WithNumber(9).WithSecondChance(true).WithMultiplier(true).WithAddPoints(6).WithFlipThree(true)

	assert.Equal(t, NewNumberSet(4), s.Numbers)
	assert.False(t, s.HasSecondChance)
	assert.False(t, s.MultiplierX2)
	assert.Zero(t, s.AddPoints)
	assert.False(t, s.FlipThreeActive)

	assert.Equal(t, []int{4, 9}, next.Numbers.Slice())
	assert.True(t, next.HasSecondChance)
	assert.True(t, next.MultiplierX2)
	assert.Equal(t, 6, next.AddPoints)
	assert.True(t, next.FlipThreeActive)
}

func TestStateJSON(t *testing.T) {
	s := State{Numbers: NewNumberSet(1, 11), MultiplierX2: true, AddPoints: 4}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"numbers":[1,11],"secondChance":false,"flipThree":false,"x2":true,"addPoints":4}`, string(data))

	var decoded State
	require.NoError(t, json.Unmarshal([]byte(`{"numbers":[3,3,99],"secondChance":true}`), &decoded))
	assert.Equal(t, NewNumberSet(3), decoded.Numbers)
	assert.True(t, decoded.HasSecondChance)
}

func TestStateString(t *testing.T) {
	s := State{Numbers: NewNumberSet(2, 5), HasSecondChance: true, AddPoints: 4}
	assert.Equal(t, "numbers=[2 5] bank=11 +4 sc", s.String())
}
