package round

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strings"

	"github.com/lox/flip7helper/internal/deck"
)

const (
	// FlipSevenCount is the number of unique numbers that ends the round with a bonus
	FlipSevenCount = 7

	// FlipSevenBonus is added to the bank once FlipSevenCount numbers are showing
	FlipSevenBonus = 15
)

// NumberSet represents the face-up number cards using a bitset.
// Bit n is set when number n (0..12) is in the line.
type NumberSet uint16

// NewNumberSet creates a NumberSet from a list of numbers. Out of range values are dropped.
func NewNumberSet(numbers ...int) NumberSet {
	var ns NumberSet
	for _, n := range numbers {
		ns = ns.Add(n)
	}
	return ns
}

// Add returns the set with n included
func (ns NumberSet) Add(n int) NumberSet {
	if n < 0 || n > deck.MaxNumber {
		return ns
	}
	return ns | 1<<n
}

// Contains checks if n is in the set
func (ns NumberSet) Contains(n int) bool {
	if n < 0 || n > deck.MaxNumber {
		return false
	}
	return ns&(1<<n) != 0
}

// Len returns the number of unique numbers
func (ns NumberSet) Len() int {
	return bits.OnesCount16(uint16(ns))
}

// Sum returns the total face value
func (ns NumberSet) Sum() int {
	sum := 0
	for n := 0; n <= deck.MaxNumber; n++ {
		if ns.Contains(n) {
			sum += n
		}
	}
	return sum
}

// Slice returns the numbers in ascending order
func (ns NumberSet) Slice() []int {
	out := make([]int, 0, ns.Len())
	for n := 0; n <= deck.MaxNumber; n++ {
		if ns.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// Labels returns the deck labels of the numbers in the set. Drawing any of
// these busts the round.
func (ns NumberSet) Labels() []deck.Label {
	out := make([]deck.Label, 0, ns.Len())
	for _, n := range ns.Slice() {
		out = append(out, deck.NumberLabel(n))
	}
	return out
}

// String renders the set as "[1 5 9]"
func (ns NumberSet) String() string {
	return fmt.Sprint(ns.Slice())
}

// MarshalJSON encodes the set as a sorted array of numbers
func (ns NumberSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(ns.Slice())
}

// UnmarshalJSON decodes an array of numbers, dropping out of range values
func (ns *NumberSet) UnmarshalJSON(data []byte) error {
	var numbers []int
	if err := json.Unmarshal(data, &numbers); err != nil {
		return err
	}
	*ns = NewNumberSet(numbers...)
	return nil
}

// State is a snapshot of the player's line for the round in progress.
// It is a value type; the With* helpers return modified copies.
type State struct {
	Numbers         NumberSet `json:"numbers"`
	HasSecondChance bool      `json:"secondChance"`
	FlipThreeActive bool      `json:"flipThree"`
	MultiplierX2    bool      `json:"x2"`
	AddPoints       int       `json:"addPoints"`
}

// UniqueCount returns the number of distinct numbers in the line
func (s State) UniqueCount() int {
	return s.Numbers.Len()
}

// NumberSum returns the face value of the numbers in the line
func (s State) NumberSum() int {
	return s.Numbers.Sum()
}

// HasFlipSeven returns true once the line holds seven unique numbers
func (s State) HasFlipSeven() bool {
	return s.UniqueCount() >= FlipSevenCount
}

// BankValue returns the points banked by stopping now: the number sum (doubled
// by x2), plus flat modifiers, plus the Flip 7 bonus when earned.
func (s State) BankValue() int {
	base := s.NumberSum()
	if s.MultiplierX2 {
		base *= 2
	}
	bank := base + s.AddPoints
	if s.HasFlipSeven() {
		bank += FlipSevenBonus
	}
	return bank
}

// WithNumber returns the state with number n added to the line
func (s State) WithNumber(n int) State {
	s.Numbers = s.Numbers.Add(n)
	return s
}

// WithSecondChance returns the state with the Second Chance flag set
func (s State) WithSecondChance(held bool) State {
	s.HasSecondChance = held
	return s
}

// WithFlipThree returns the state with the Flip Three flag set
func (s State) WithFlipThree(active bool) State {
	s.FlipThreeActive = active
	return s
}

// WithMultiplier returns the state with the x2 flag set
func (s State) WithMultiplier(held bool) State {
	s.MultiplierX2 = held
	return s
}

// WithAddPoints returns the state with delta added to the flat bonus
func (s State) WithAddPoints(delta int) State {
	s.AddPoints += delta
	return s
}

// String renders the state for logs and reports
func (s State) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "numbers=%s bank=%d", s.Numbers, s.BankValue())
	if s.MultiplierX2 {
		b.WriteString(" x2")
	}
	if s.AddPoints > 0 {
		fmt.Fprintf(&b, " +%d", s.AddPoints)
	}
	if s.HasSecondChance {
		b.WriteString(" sc")
	}
	if s.FlipThreeActive {
		b.WriteString(" flip3")
	}
	return b.String()
}
