package shoe

import (
	"time"

	"github.com/lox/flip7helper/internal/decision"
	"github.com/lox/flip7helper/internal/deck"
	"github.com/lox/flip7helper/internal/round"
)

// Advice pairs a tracker snapshot with the engine's evaluation of it
type Advice struct {
	ShoeID         string                  `json:"shoeId"`
	Round          int                     `json:"round"`
	State          round.State             `json:"state"`
	Seen           deck.Seen               `json:"seen"`
	Output         decision.Output         `json:"output"`
	Recommendation decision.Recommendation `json:"recommendation"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}

// Advisor evaluates snapshots with fixed engine settings
type Advisor struct {
	Engine    *decision.Engine
	Depth     int
	FlipThree bool
}

// NewAdvisor returns an advisor using the standard deck at the default depth
func NewAdvisor() Advisor {
	return Advisor{Engine: decision.NewEngine(), Depth: decision.DefaultDepth, FlipThree: true}
}

// Advise evaluates the snapshot's round against its seen counter
func (a Advisor) Advise(snap Snapshot) Advice {
	out := a.Engine.ComputeDepth(snap.State, snap.Seen, a.Depth, a.FlipThree)
	return Advice{
		ShoeID:         snap.ID,
		Round:          snap.Round,
		State:          snap.State,
		Seen:           snap.Seen,
		Output:         out,
		Recommendation: out.Recommendation(),
		UpdatedAt:      snap.UpdatedAt,
	}
}

// Remaining returns the undrawn cards implied by the snapshot
func (a Advisor) Remaining(snap Snapshot) deck.Composition {
	return a.Engine.Base().RemainingAfterSeen(snap.Seen)
}
