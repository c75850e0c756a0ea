package decision

// Notes attached to an Output
const (
	NoteEmptyDeck    = "Empty deck"
	NoteFlipSeven    = "Flip 7 achieved: +15 bonus"
	NoteSecondChance = "Second Chance held"
	NoteMultiplier   = "x2 held"
)

// recommendationTolerance is how far EV must move from the bank before the
// advice leaves neutral.
const recommendationTolerance = 0.01

// Recommendation is the headline advice derived from an Output
type Recommendation string

const (
	Take    Recommendation = "take"
	Stay    Recommendation = "stay"
	Neutral Recommendation = "neutral"
)

// Output is the result of evaluating one decision point
type Output struct {
	// BustProbabilityNext is the chance the next card duplicates a number in the line
	BustProbabilityNext float64 `json:"bustProbabilityNext"`

	// BustProbabilityFlipThree approximates the chance of busting during a forced three-card draw
	BustProbabilityFlipThree float64 `json:"bustProbabilityFlipThree"`

	// ExpectedValueNext is the expected bank after drawing exactly one card and stopping
	ExpectedValueNext float64 `json:"expectedValueNext"`

	// ExpectedValueFlipThree approximates the expected bank after a forced three-card draw
	ExpectedValueFlipThree float64 `json:"expectedValueFlipThree"`

	// Threshold is the break-even duplicate probability for drawing one more card
	Threshold float64 `json:"threshold"`

	// MarginalGain is the average points added by the next card when it does not bust
	MarginalGain float64 `json:"marginalGain"`

	CurrentBank    int      `json:"currentBank"`
	RemainingCards int      `json:"remainingCards"`
	Notes          []string `json:"notes"`
}

// Recommendation compares the one-draw expected value with banking now
func (o Output) Recommendation() Recommendation {
	bank := float64(o.CurrentBank)
	switch {
	case o.ExpectedValueNext > bank+recommendationTolerance:
		return Take
	case o.ExpectedValueNext < bank-recommendationTolerance:
		return Stay
	default:
		return Neutral
	}
}

// String returns the upper-case headline used by reports
func (r Recommendation) String() string {
	switch r {
	case Take:
		return "TAKE another card"
	case Stay:
		return "STAY"
	default:
		return "NEUTRAL (EV≈bank)"
	}
}
