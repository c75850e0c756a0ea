package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lox/flip7helper/internal/deck"
	"github.com/lox/flip7helper/internal/round"
	"github.com/lox/flip7helper/internal/shoe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "flip7.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testSnapshot(id string, at time.Time) shoe.Snapshot {
	return shoe.Snapshot{
		ID:    id,
		Round: 3,
		State: round.State{
			Numbers:         round.NewNumberSet(2, 7, 11),
			HasSecondChance: true,
			MultiplierX2:    true,
			AddPoints:       6,
		},
		Seen:      deck.Seen{"7": 2, "11": 1, deck.Freeze: 1},
		UpdatedAt: at.UTC().Truncate(time.Millisecond),
	}
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	snap := testSnapshot("shoe-a", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, s.Save(ctx, snap))

	got, err := s.Load(ctx, "shoe-a")
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	snap := testSnapshot("shoe-a", at)
	require.NoError(t, s.Save(ctx, snap))

	snap.Round = 4
	snap.Seen["12"] = 5
	snap.UpdatedAt = at.Add(time.Minute)
	require.NoError(t, s.Save(ctx, snap))

	got, err := s.Load(ctx, "shoe-a")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Round)
	assert.Equal(t, 5, got.Seen["12"])

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLoadLatest(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.LoadLatest(ctx)
	assert.ErrorIs(t, err, ErrNoShoe)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(ctx, testSnapshot("older", at)))
	require.NoError(t, s.Save(ctx, testSnapshot("newer", at.Add(time.Hour))))

	got, err := s.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "newer", got.ID)

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].ID)
	assert.Equal(t, "older", list[1].ID)
}

func TestLoadMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoShoe)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Save(ctx, testSnapshot("gone", time.Now())))

	require.NoError(t, s.Delete(ctx, "gone"))
	assert.ErrorIs(t, s.Delete(ctx, "gone"), ErrNoShoe)
}

func TestSaveRequiresID(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Save(context.Background(), shoe.Snapshot{}))
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestTrackerPersistsThroughStore(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	tr, err := shoe.NewTracker(shoe.WithStore(s))
	require.NoError(t, err)
	tr.Draw(ctx, "5", deck.Plus2)
	tr.MarkSeen(ctx, "12")

	latest, err := s.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, tr.Snapshot().ID, latest.ID)
	assert.Equal(t, deck.Seen{"5": 1, deck.Plus2: 1, "12": 1}, latest.Seen)

	resumed, err := shoe.NewTracker(shoe.Resume(latest))
	require.NoError(t, err)
	assert.Equal(t, latest.Seen, resumed.Snapshot().Seen)
	assert.Equal(t, latest.State, resumed.Snapshot().State)
}
