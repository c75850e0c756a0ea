// Package shoe tracks the cards seen since the last shuffle and the player's
// current round, and notifies subscribers whenever either changes.
package shoe

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/flip7helper/internal/deck"
	"github.com/lox/flip7helper/internal/round"
)

// subscriberBuffer is how many snapshots a slow subscriber may fall behind
// before updates to it are dropped.
const subscriberBuffer = 16

// Snapshot is an immutable copy of the tracker state
type Snapshot struct {
	ID        string      `json:"id"`
	Round     int         `json:"round"`
	State     round.State `json:"state"`
	Seen      deck.Seen   `json:"seen"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Store persists snapshots so a restarted process can resume the shoe
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
}

// Tracker is safe for concurrent use
type Tracker struct {
	mu sync.RWMutex

	// saveMu is taken before mu is released so snapshots reach the store in
	// the order they were made
	saveMu sync.Mutex

	id          string
	roundNo     int
	state       round.State
	seen        deck.Seen
	updatedAt   time.Time
	subscribers map[chan Snapshot]struct{}

	clock  quartz.Clock
	store  Store
	logger *log.Logger
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock sets the clock used to timestamp snapshots
func WithClock(clock quartz.Clock) Option {
	return func(t *Tracker) {
		t.clock = clock
	}
}

// WithStore persists every change to store
func WithStore(store Store) Option {
	return func(t *Tracker) {
		t.store = store
	}
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger.WithPrefix("shoe")
	}
}

// Resume continues from a previously persisted snapshot
func Resume(snap Snapshot) Option {
	return func(t *Tracker) {
		t.id = snap.ID
		t.roundNo = snap.Round
		t.state = snap.State
		t.seen = snap.Seen.Clone()
		t.updatedAt = snap.UpdatedAt
	}
}

// NewTracker starts a fresh shoe unless Resume is given
func NewTracker(opts ...Option) (*Tracker, error) {
	t := &Tracker{
		seen:        deck.Seen{},
		subscribers: make(map[chan Snapshot]struct{}),
		clock:       quartz.NewReal(),
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.id == "" {
		id, err := NewID()
		if err != nil {
			return nil, err
		}
		t.id = id
		t.roundNo = 1
	}
	if t.updatedAt.IsZero() {
		t.updatedAt = t.clock.Now()
	}
	return t, nil
}

// Snapshot returns a copy of the current state
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	return Snapshot{
		ID:        t.id,
		Round:     t.roundNo,
		State:     t.state,
		Seen:      t.seen.Clone(),
		UpdatedAt: t.updatedAt,
	}
}

// Draw adds cards to the player's line and counts them as seen
func (t *Tracker) Draw(ctx context.Context, labels ...deck.Label) Snapshot {
	return t.update(ctx, "draw", func() {
		for _, l := range labels {
			t.state = t.state.Apply(l)
			t.seen.Add(l, 1)
		}
	})
}

// MarkSeen counts cards without touching the player's line, for cards dealt
// to other players or discarded.
func (t *Tracker) MarkSeen(ctx context.Context, labels ...deck.Label) Snapshot {
	return t.update(ctx, "seen", func() {
		for _, l := range labels {
			t.seen.Add(l, 1)
		}
	})
}

// Unsee removes one count of each label, correcting a misread
func (t *Tracker) Unsee(ctx context.Context, labels ...deck.Label) Snapshot {
	return t.update(ctx, "unsee", func() {
		for _, l := range labels {
			if t.seen[l] <= 1 {
				delete(t.seen, l)
				continue
			}
			t.seen[l]--
		}
	})
}

// SetState replaces the player's line without touching the seen counter
func (t *Tracker) SetState(ctx context.Context, state round.State) Snapshot {
	return t.update(ctx, "set", func() {
		t.state = state
	})
}

// Sync replaces the player's line with an observed one. Cards present in the
// observation but not in the previous line are counted as seen.
func (t *Tracker) Sync(ctx context.Context, state round.State) Snapshot {
	return t.update(ctx, "sync", func() {
		for _, l := range newCards(t.state, state) {
			t.seen.Add(l, 1)
		}
		t.state = state
	})
}

// NewRound clears the player's line and keeps the seen counter
func (t *Tracker) NewRound(ctx context.Context) Snapshot {
	return t.update(ctx, "round", func() {
		t.state = round.State{}
		t.roundNo++
	})
}

// Shuffle starts a new shoe: the seen counter and line are cleared
func (t *Tracker) Shuffle(ctx context.Context) (Snapshot, error) {
	id, err := NewID()
	if err != nil {
		return Snapshot{}, err
	}
	return t.update(ctx, "shuffle", func() {
		t.id = id
		t.roundNo = 1
		t.state = round.State{}
		t.seen = deck.Seen{}
	}), nil
}

// Subscribe returns a channel receiving a snapshot after every change, and a
// function that cancels the subscription. Slow subscribers miss updates
// rather than blocking the tracker.
func (t *Tracker) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, subscriberBuffer)

	t.mu.Lock()
	t.subscribers[ch] = struct{}{}
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subscribers, ch)
			t.mu.Unlock()
			close(ch)
		})
	}
}

func (t *Tracker) update(ctx context.Context, op string, mutate func()) Snapshot {
	t.mu.Lock()
	mutate()
	t.updatedAt = t.clock.Now()
	snap := t.snapshotLocked()
	for ch := range t.subscribers {
		select {
		case ch <- snap:
		default:
			t.logger.Warn("Subscriber buffer full, dropping update", "op", op)
		}
	}
	t.saveMu.Lock()
	defer t.saveMu.Unlock()
	t.mu.Unlock()

	t.logger.Debug("Shoe updated",
		"op", op,
		"id", snap.ID,
		"round", snap.Round,
		"state", snap.State.String(),
		"seen", snap.Seen.Total())

	if t.store != nil {
		if err := t.store.Save(ctx, snap); err != nil {
			t.logger.Error("Failed to persist shoe", "error", err, "id", snap.ID)
		}
	}
	return snap
}

// newCards returns the labels in next that were not already in prev, as a
// multiset difference over each state's card list.
func newCards(prev, next round.State) []deck.Label {
	have := make(map[deck.Label]int)
	for _, l := range prev.Labels() {
		have[l]++
	}
	var out []deck.Label
	for _, l := range next.Labels() {
		if have[l] > 0 {
			have[l]--
			continue
		}
		out = append(out, l)
	}
	return out
}

// String summarises the snapshot for logs
func (s Snapshot) String() string {
	return fmt.Sprintf("shoe=%s round=%d %s seen=%d", s.ID, s.Round, s.State, s.Seen.Total())
}
