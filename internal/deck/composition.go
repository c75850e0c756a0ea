package deck

import (
	"fmt"
	"strings"
)

// StandardTotal is the number of cards in a fresh shoe
const StandardTotal = 94

// Seen counts copies of each label observed since the shoe was shuffled
type Seen map[Label]int

// SeenFromLabels counts the given labels. Tokens outside the vocabulary are ignored.
func SeenFromLabels(labels ...string) Seen {
	seen := Seen{}
	for _, s := range labels {
		if l, ok := ParseLabel(s); ok {
			seen[l]++
		}
	}
	return seen
}

// Add increments the count for a label
func (s Seen) Add(l Label, n int) {
	s[l] += n
}

// Clone returns an independent copy
func (s Seen) Clone() Seen {
	out := make(Seen, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Total returns the number of cards counted
func (s Seen) Total() int {
	total := 0
	for _, v := range s {
		total += v
	}
	return total
}

// Composition is the multiset of undrawn cards. It is a value type: every
// operation returns a new Composition and never mutates the receiver.
type Composition struct {
	counts [numLabels]int
}

// Standard returns the 94-card Flip 7 shoe
//
// Number cards: 0 and 1 have one copy, 2..12 have n copies.
// Actions: freeze, flipthree and secondchance have three copies each.
// Modifiers: +2, +4, +6, +8, +10 and x2 have one copy each.
func Standard() Composition {
	var c Composition
	c.counts[0] = 1
	c.counts[1] = 1
	for n := 2; n <= MaxNumber; n++ {
		c.counts[n] = n
	}
	for i := MaxNumber + 1; i < numLabels; i++ {
		switch labelOrder[i] {
		case Freeze, FlipThree, SecondChance:
			c.counts[i] = 3
		default:
			c.counts[i] = 1
		}
	}
	return c
}

// NewComposition builds a composition from explicit counts. Unknown labels
// are ignored and negative counts are stored as zero.
func NewComposition(counts map[Label]int) Composition {
	var c Composition
	for l, n := range counts {
		i := l.index()
		if i < 0 {
			continue
		}
		c.counts[i] = max(0, n)
	}
	return c
}

// Total returns the number of cards remaining
func (c Composition) Total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Count returns the remaining copies of a label
func (c Composition) Count(l Label) int {
	i := l.index()
	if i < 0 {
		return 0
	}
	return c.counts[i]
}

// IsEmpty returns true when every card has been seen
func (c Composition) IsEmpty() bool {
	return c.Total() == 0
}

// RemainingAfterSeen subtracts seen cards, flooring every count at zero.
// Unknown labels and negative counts are ignored.
func (c Composition) RemainingAfterSeen(seen Seen) Composition {
	next := c
	for l, n := range seen {
		i := l.index()
		if i < 0 || n <= 0 {
			continue
		}
		next.counts[i] = max(0, next.counts[i]-n)
	}
	return next
}

// Without removes a single copy of a label
func (c Composition) Without(l Label) Composition {
	return c.RemainingAfterSeen(Seen{l: 1})
}

// ProbabilityOf returns the chance that the next card is any of the given
// labels, or 0 for an empty composition. Repeated labels are counted once.
func (c Composition) ProbabilityOf(labels ...Label) float64 {
	denom := c.Total()
	if denom <= 0 {
		return 0.0
	}
	var counted [numLabels]bool
	num := 0
	for _, l := range labels {
		i := l.index()
		if i < 0 || counted[i] {
			continue
		}
		counted[i] = true
		num += c.counts[i]
	}
	return float64(num) / float64(denom)
}

// Counts returns a copy of the non-zero counts keyed by label
func (c Composition) Counts() map[Label]int {
	out := make(map[Label]int, numLabels)
	for i, n := range c.counts {
		if n > 0 {
			out[labelOrder[i]] = n
		}
	}
	return out
}

// Cards expands the composition into one entry per physical card, in canonical order
func (c Composition) Cards() []Label {
	cards := make([]Label, 0, c.Total())
	for i, n := range c.counts {
		for j := 0; j < n; j++ {
			cards = append(cards, labelOrder[i])
		}
	}
	return cards
}

// String returns a compact "label:count" rendering for logs
func (c Composition) String() string {
	parts := make([]string, 0, numLabels)
	for i, n := range c.counts {
		parts = append(parts, fmt.Sprintf("%s:%d", labelOrder[i], n))
	}
	return fmt.Sprintf("[%d] %s", c.Total(), strings.Join(parts, " "))
}
