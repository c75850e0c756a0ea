// Package decision turns a round state and the cards seen so far into bust
// probabilities and expected values for the next draw.
//
// Every computation is a pure function of its inputs. An Engine holds only an
// immutable base composition, so it can be shared between goroutines freely.
package decision

import (
	"github.com/lox/flip7helper/internal/deck"
	"github.com/lox/flip7helper/internal/round"
)

// DefaultDepth allows one level of Flip Three lookahead
const DefaultDepth = 1

// Engine evaluates draw decisions against a base shoe composition
type Engine struct {
	base deck.Composition
}

// Option configures an Engine
type Option func(*Engine)

// WithComposition replaces the standard shoe as the base composition
func WithComposition(c deck.Composition) Option {
	return func(e *Engine) {
		e.base = c
	}
}

// NewEngine creates an engine over the standard 94-card shoe
func NewEngine(opts ...Option) *Engine {
	e := &Engine{base: deck.Standard()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Base returns the composition seen counts are subtracted from
func (e *Engine) Base() deck.Composition {
	return e.base
}

// Compute evaluates the state with one level of Flip Three lookahead
func (e *Engine) Compute(state round.State, seen deck.Seen) Output {
	return e.ComputeDepth(state, seen, DefaultDepth, true)
}

// ComputeDepth evaluates the state with an explicit recursion budget.
//
// At depth 0 a drawn Flip Three card is valued as the current bank and the
// Flip Three fields are not approximated. Each Flip Three approximation
// evaluates its steps at depth-1, so recursion always terminates.
// includeFlipThree=false skips filling the Flip Three fields at this level.
func (e *Engine) ComputeDepth(state round.State, seen deck.Seen, depth int, includeFlipThree bool) Output {
	return e.evaluate(state, e.base.RemainingAfterSeen(seen), depth, includeFlipThree)
}

func (e *Engine) evaluate(state round.State, remaining deck.Composition, depth int, includeFlipThree bool) Output {
	bank := state.BankValue()

	if remaining.IsEmpty() {
		threshold, gain := breakEven(float64(bank), 0, 0, float64(bank))
		return Output{
			ExpectedValueNext:      float64(bank),
			ExpectedValueFlipThree: float64(bank),
			Threshold:              threshold,
			MarginalGain:           gain,
			CurrentBank:            bank,
			Notes:                  []string{NoteEmptyDeck},
		}
	}

	pDup := remaining.ProbabilityOf(state.Numbers.Labels()...)
	bustNext := pDup
	bustPayoff := 0.0
	if state.HasSecondChance {
		bustNext = 0.0
		bustPayoff = float64(bank)
	}

	// one approximation serves both the flipthree branch and the output fields
	wantFlipThree := depth > 0 && (includeFlipThree || remaining.Count(deck.FlipThree) > 0)
	var flipThree flipThreeResult
	if wantFlipThree {
		flipThree = e.approxFlipThree(state, remaining, depth)
	}

	evNext := e.oneStep(state, remaining, depth, flipThree.expectedValue)
	threshold, gain := breakEven(float64(bank), bustNext, bustPayoff, evNext)

	out := Output{
		BustProbabilityNext:    bustNext,
		ExpectedValueNext:      evNext,
		ExpectedValueFlipThree: evNext,
		Threshold:              threshold,
		MarginalGain:           gain,
		CurrentBank:            bank,
		RemainingCards:         remaining.Total(),
		Notes:                  notesFor(state),
	}
	if depth > 0 && includeFlipThree {
		out.BustProbabilityFlipThree = flipThree.bustProbability
		out.ExpectedValueFlipThree = flipThree.expectedValue
	}
	return out
}

// oneStep returns the expected bank after drawing exactly one card from
// remaining and then stopping. Every distinct draw is weighted by its count.
func (e *Engine) oneStep(state round.State, remaining deck.Composition, depth int, flipThreeEV float64) float64 {
	denom := remaining.Total()
	if denom <= 0 {
		return float64(state.BankValue())
	}
	current := float64(state.BankValue())
	weight := func(l deck.Label) float64 {
		return float64(remaining.Count(l)) / float64(denom)
	}

	// duplicate number: Second Chance absorbs it and the bank survives
	evDup := 0.0
	if state.HasSecondChance {
		evDup = remaining.ProbabilityOf(state.Numbers.Labels()...) * current
	}

	evNumbers := 0.0
	for n := 0; n <= deck.MaxNumber; n++ {
		l := deck.NumberLabel(n)
		if state.Numbers.Contains(n) || remaining.Count(l) == 0 {
			continue
		}
		evNumbers += weight(l) * float64(state.WithNumber(n).BankValue())
	}

	evOther := 0.0
	if remaining.Count(deck.Freeze) > 0 {
		evOther += weight(deck.Freeze) * current
	}
	if remaining.Count(deck.FlipThree) > 0 {
		value := current
		if depth > 0 {
			value = flipThreeEV
		}
		evOther += weight(deck.FlipThree) * value
	}
	if remaining.Count(deck.SecondChance) > 0 {
		evOther += weight(deck.SecondChance) * float64(state.WithSecondChance(true).BankValue())
	}
	if remaining.Count(deck.Times2) > 0 {
		evOther += weight(deck.Times2) * float64(state.WithMultiplier(true).BankValue())
	}
	for _, l := range []deck.Label{deck.Plus2, deck.Plus4, deck.Plus6, deck.Plus8, deck.Plus10} {
		if remaining.Count(l) == 0 {
			continue
		}
		m, _ := l.Modifier()
		evOther += weight(l) * float64(state.WithAddPoints(m).BankValue())
	}

	return evDup + evNumbers + evOther
}

// breakEven solves EV = (1-pBust)(bank+gain) + pBust*bustPayoff for the
// average non-bust gain, then returns the duplicate probability at which that
// gain exactly offsets the risk to the bank.
func breakEven(bank, pBust, bustPayoff, ev float64) (threshold, gain float64) {
	if pBust < 1 {
		gain = (ev-pBust*bustPayoff)/(1-pBust) - bank
	}
	if bank+gain > 0 {
		return gain / (bank + gain), gain
	}
	return 1.0, gain
}

func notesFor(state round.State) []string {
	notes := []string{}
	if state.HasFlipSeven() {
		notes = append(notes, NoteFlipSeven)
	}
	if state.HasSecondChance {
		notes = append(notes, NoteSecondChance)
	}
	if state.MultiplierX2 {
		notes = append(notes, NoteMultiplier)
	}
	return notes
}
