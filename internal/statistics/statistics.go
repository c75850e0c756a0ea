// Package statistics accumulates sampled round outcomes.
package statistics

import (
	"fmt"
	"math"
)

// Statistics tracks the bank reached in a series of sampled draws. Busted
// samples count as a bank of zero.
type Statistics struct {
	Samples int
	Busts   int
	Sum     float64
	SumSq   float64 // Sum of squares for variance calculation
	MaxBank int
}

// Add incorporates one sampled outcome
func (s *Statistics) Add(bank int, busted bool) {
	if busted {
		s.Busts++
		bank = 0
	}
	v := float64(bank)
	s.Samples++
	s.Sum += v
	s.SumSq += v * v
	if bank > s.MaxBank {
		s.MaxBank = bank
	}
}

// Merge folds other into s, for combining per-worker results
func (s *Statistics) Merge(other Statistics) {
	s.Samples += other.Samples
	s.Busts += other.Busts
	s.Sum += other.Sum
	s.SumSq += other.SumSq
	s.MaxBank = max(s.MaxBank, other.MaxBank)
}

// Mean returns the mean bank per sample
func (s *Statistics) Mean() float64 {
	if s.Samples == 0 {
		return 0
	}
	return s.Sum / float64(s.Samples)
}

// BustRate returns the fraction of samples that busted
func (s *Statistics) BustRate() float64 {
	if s.Samples == 0 {
		return 0
	}
	return float64(s.Busts) / float64(s.Samples)
}

// Variance returns the sample variance of the bank
func (s *Statistics) Variance() float64 {
	if s.Samples < 2 {
		return 0
	}
	mean := s.Mean()
	v := (s.SumSq - float64(s.Samples)*mean*mean) / float64(s.Samples-1)
	// rounding can push a zero variance slightly negative
	return math.Max(v, 0)
}

// StdDev returns the sample standard deviation of the bank
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Samples == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Samples))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Validate checks the counters are consistent
func (s *Statistics) Validate() error {
	if s.Samples < 0 {
		return fmt.Errorf("negative sample count: %d", s.Samples)
	}
	if s.Busts > s.Samples {
		return fmt.Errorf("busts (%d) exceed samples (%d)", s.Busts, s.Samples)
	}
	if s.Sum < 0 || s.SumSq < 0 {
		return fmt.Errorf("negative bank sums: sum=%.2f sumSq=%.2f", s.Sum, s.SumSq)
	}
	if s.Samples > 0 && s.Mean() > float64(s.MaxBank) {
		return fmt.Errorf("mean %.2f exceeds max bank %d", s.Mean(), s.MaxBank)
	}
	return nil
}
