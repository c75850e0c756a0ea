package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardComposition(t *testing.T) {
	c := Standard()

	assert.Equal(t, StandardTotal, c.Total())
	assert.Equal(t, 1, c.Count("0"))
	assert.Equal(t, 1, c.Count("1"))
	for n := 2; n <= MaxNumber; n++ {
		assert.Equal(t, n, c.Count(NumberLabel(n)), "number %d", n)
	}
	for _, l := range []Label{Freeze, FlipThree, SecondChance} {
		assert.Equal(t, 3, c.Count(l), l.String())
	}
	for _, l := range []Label{Plus2, Plus4, Plus6, Plus8, Plus10, Times2} {
		assert.Equal(t, 1, c.Count(l), l.String())
	}
	assert.Equal(t, 0, c.Count("joker"))
}

func TestRemainingAfterSeen(t *testing.T) {
	base := Standard()

	t.Run("subtracts seen cards", func(t *testing.T) {
		next := base.RemainingAfterSeen(Seen{"7": 3, Freeze: 1})
		assert.Equal(t, 4, next.Count("7"))
		assert.Equal(t, 2, next.Count(Freeze))
		assert.Equal(t, StandardTotal-4, next.Total())
	})

	t.Run("does not mutate receiver", func(t *testing.T) {
		_ = base.RemainingAfterSeen(Seen{"12": 12})
		assert.Equal(t, 12, base.Count("12"))
		assert.Equal(t, StandardTotal, base.Total())
	})

	t.Run("clamps at zero", func(t *testing.T) {
		next := base.RemainingAfterSeen(Seen{"3": 10, Times2: 5})
		assert.Equal(t, 0, next.Count("3"))
		assert.Equal(t, 0, next.Count(Times2))
	})

	t.Run("ignores unknown labels and negative counts", func(t *testing.T) {
		next := base.RemainingAfterSeen(Seen{"joker": 4, "5": -3})
		assert.Equal(t, base, next)
	})

	t.Run("chained subtraction stays in bounds", func(t *testing.T) {
		c := base
		for i := 0; i < 20; i++ {
			c = c.RemainingAfterSeen(Seen{"9": 1, SecondChance: 1, "0": 2})
			for _, l := range AllLabels() {
				require.GreaterOrEqual(t, c.Count(l), 0)
				require.LessOrEqual(t, c.Count(l), base.Count(l))
			}
		}
		assert.Equal(t, 0, c.Count("9"))
	})

	t.Run("everything seen empties the deck", func(t *testing.T) {
		seen := Seen{}
		for l, n := range base.Counts() {
			seen[l] = n
		}
		empty := base.RemainingAfterSeen(seen)
		assert.True(t, empty.IsEmpty())
		assert.Equal(t, 0, empty.Total())
		assert.Equal(t, 0.0, empty.ProbabilityOf(AllLabels()...))
	})
}

func TestProbabilityOf(t *testing.T) {
	c := Standard()

	assert.InDelta(t, 7.0/94.0, c.ProbabilityOf("7"), 1e-12)
	assert.InDelta(t, 19.0/94.0, c.ProbabilityOf("7", "12"), 1e-12)
	assert.InDelta(t, 7.0/94.0, c.ProbabilityOf("7", "7"), 1e-12)
	assert.Equal(t, 0.0, c.ProbabilityOf())
	assert.Equal(t, 0.0, c.ProbabilityOf("nope"))
	assert.InDelta(t, 1.0, c.ProbabilityOf(AllLabels()...), 1e-12)

	small := NewComposition(map[Label]int{"4": 1, Freeze: 3})
	assert.InDelta(t, 0.25, small.ProbabilityOf("4"), 1e-12)
}

func TestCompositionCards(t *testing.T) {
	c := NewComposition(map[Label]int{"2": 2, Plus4: 1, "joker": 3, "5": -1})
	assert.Equal(t, []Label{"2", "2", Plus4}, c.Cards())
	assert.Equal(t, map[Label]int{"2": 2, Plus4: 1}, c.Counts())
	assert.Len(t, Standard().Cards(), StandardTotal)
}

func TestSeen(t *testing.T) {
	seen := SeenFromLabels("7", " 7", "X2", "flip3", "garbage", "")
	assert.Equal(t, Seen{"7": 2, Times2: 1, FlipThree: 1}, seen)
	assert.Equal(t, 4, seen.Total())

	clone := seen.Clone()
	clone.Add("7", 1)
	assert.Equal(t, 2, seen["7"])
	assert.Equal(t, 3, clone["7"])
}
