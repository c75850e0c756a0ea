package decision

import (
	"math"

	"github.com/lox/flip7helper/internal/deck"
	"github.com/lox/flip7helper/internal/round"
)

// flipThreeDraws is the number of cards a Flip Three forces
const flipThreeDraws = 3

type flipThreeResult struct {
	bustProbability float64
	expectedValue   float64
}

// approxFlipThree estimates a forced three-card draw with a sequential
// heuristic rather than enumerating ordered triples. Each step evaluates the
// state one level shallower against the base deck minus only the cards this
// estimate has set aside, accumulates survival, then sets aside the card
// most likely to have been drawn from remaining without busting.
func (e *Engine) approxFlipThree(state round.State, remaining deck.Composition, depth int) flipThreeResult {
	result := flipThreeResult{expectedValue: float64(state.BankValue())}
	survival := 1.0
	work := remaining
	local := deck.Seen{}

	for step := 0; step < flipThreeDraws; step++ {
		out := e.evaluate(state, e.base.RemainingAfterSeen(local), depth-1, false)
		survival *= 1.0 - out.BustProbabilityNext
		result.bustProbability = 1.0 - survival
		result.expectedValue = out.ExpectedValueNext

		if work.IsEmpty() {
			break
		}
		drawn, ok := likelyDraw(state, work)
		if !ok {
			break
		}
		work = work.Without(drawn)
		local.Add(drawn, 1)
	}

	result.bustProbability = math.Min(math.Max(result.bustProbability, 0.0), 1.0)
	return result
}

// likelyDraw picks the card to remove between Flip Three steps: the most
// plentiful number not already in the line (lowest number wins ties), or
// failing that the first non-busting label still in the deck.
func likelyDraw(state round.State, remaining deck.Composition) (deck.Label, bool) {
	var best deck.Label
	bestCount := 0
	for n := 0; n <= deck.MaxNumber; n++ {
		if state.Numbers.Contains(n) {
			continue
		}
		l := deck.NumberLabel(n)
		if c := remaining.Count(l); c > bestCount {
			best, bestCount = l, c
		}
	}
	if bestCount > 0 {
		return best, true
	}

	for _, l := range deck.AllLabels() {
		if remaining.Count(l) <= 0 {
			continue
		}
		if n, ok := l.Number(); ok && state.Numbers.Contains(n) {
			continue
		}
		return l, true
	}
	return "", false
}
