// Package montecarlo samples draws from a deck snapshot to cross-check the
// closed-form estimates produced by the decision engine.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"runtime"

	"github.com/lox/flip7helper/internal/deck"
	"github.com/lox/flip7helper/internal/randutil"
	"github.com/lox/flip7helper/internal/round"
	"github.com/lox/flip7helper/internal/statistics"
	"golang.org/x/sync/errgroup"
)

const maxWorkers = 8

// ErrEmptyDeck is returned when there is nothing left to draw
var ErrEmptyDeck = errors.New("no cards remaining")

// Config describes a simulation run
type Config struct {
	State     round.State
	Remaining deck.Composition
	Samples   int
	Workers   int // 0 uses the CPU count, capped at 8
	Seed      int64
}

// Result summarises the sampled outcomes
type Result struct {
	Samples int `json:"samples"`

	// BustNext is the fraction of single draws that busted
	BustNext float64 `json:"bustNext"`

	// MeanBankNext is the mean bank after one draw then stopping. Action cards
	// drawn here are valued as the current bank.
	MeanBankNext float64 `json:"meanBankNext"`

	// BustFlipThree is the fraction of forced three-card draws that busted
	BustFlipThree float64 `json:"bustFlipThree"`

	// MeanBankFlipThree is the mean bank after a forced three-card draw
	MeanBankFlipThree float64 `json:"meanBankFlipThree"`

	// StdErrBankNext and StdErrBankFlipThree are the standard errors of the
	// two means
	StdErrBankNext      float64 `json:"stdErrBankNext"`
	StdErrBankFlipThree float64 `json:"stdErrBankFlipThree"`
}

type workerResult struct {
	next      statistics.Statistics
	flipThree statistics.Statistics
}

// Simulate runs cfg.Samples independent trials split across workers. Results
// are reproducible for a given seed and worker count.
func Simulate(ctx context.Context, cfg Config) (Result, error) {
	if cfg.Samples <= 0 {
		return Result{}, fmt.Errorf("samples must be positive, got %d", cfg.Samples)
	}
	cards := cfg.Remaining.Cards()
	if len(cards) == 0 {
		return Result{}, ErrEmptyDeck
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = min(runtime.NumCPU(), maxWorkers)
	}
	workers = min(workers, cfg.Samples)

	samplesPerWorker := cfg.Samples / workers
	remainder := cfg.Samples % workers

	streams := randutil.Streams(cfg.Seed, workers)
	results := make([]workerResult, workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		workerSamples := samplesPerWorker
		if w < remainder {
			workerSamples++
		}
		rng := streams[w]

		g.Go(func() error {
			res, err := runWorker(ctx, cfg.State, cards, workerSamples, rng)
			if err != nil {
				return err
			}
			results[w] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var total workerResult
	for _, r := range results {
		total.next.Merge(r.next)
		total.flipThree.Merge(r.flipThree)
	}
	if err := total.next.Validate(); err != nil {
		return Result{}, err
	}

	return Result{
		Samples:             total.next.Samples,
		BustNext:            total.next.BustRate(),
		MeanBankNext:        total.next.Mean(),
		BustFlipThree:       total.flipThree.BustRate(),
		MeanBankFlipThree:   total.flipThree.Mean(),
		StdErrBankNext:      total.next.StdError(),
		StdErrBankFlipThree: total.flipThree.StdError(),
	}, nil
}

func runWorker(ctx context.Context, state round.State, cards []deck.Label, samples int, rng *rand.Rand) (workerResult, error) {
	var res workerResult

	// each worker shuffles its own copy
	shoe := make([]deck.Label, len(cards))
	copy(shoe, cards)

	for i := 0; i < samples; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
		drawn := drawPrefix(shoe, 3, rng)

		res.next.Add(play(state, drawn[:1]))
		res.flipThree.Add(play(state, drawn))
	}
	return res, nil
}

// drawPrefix moves n random cards to the front of shoe with a partial
// Fisher-Yates shuffle and returns them.
func drawPrefix(shoe []deck.Label, n int, rng *rand.Rand) []deck.Label {
	n = min(n, len(shoe))
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(shoe)-i)
		shoe[i], shoe[j] = shoe[j], shoe[i]
	}
	return shoe[:n]
}

// play resolves a sequence of forced draws and returns the resulting bank.
// A duplicate number busts unless Second Chance is held, which it consumes.
// Seven unique numbers end the draw early. Freeze and Flip Three cards drawn
// mid-sequence are set aside.
func play(state round.State, drawn []deck.Label) (int, bool) {
	for _, l := range drawn {
		if state.HasFlipSeven() {
			break
		}
		if n, ok := l.Number(); ok && state.Numbers.Contains(n) {
			if !state.HasSecondChance {
				return 0, true
			}
			state = state.WithSecondChance(false)
			continue
		}
		switch l {
		case deck.Freeze, deck.FlipThree:
			continue
		}
		state = state.Apply(l)
	}
	return state.BankValue(), false
}
