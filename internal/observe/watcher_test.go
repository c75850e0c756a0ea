package observe

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	seen []Observation
	err  error
}

func (c *collector) handle(_ context.Context, obs Observation) error {
	c.seen = append(c.seen, obs)
	return c.err
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func writeFile(t *testing.T, dir, name, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
}

func newTestWatcher(t *testing.T, cfg WatcherConfig) (*Watcher, *collector, *quartz.Mock) {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	if cfg.Extensions == nil {
		cfg.Extensions = []string{".txt", "json"}
	}
	c := &collector{}
	clock := quartz.NewMock(t)
	return NewWatcher(cfg, c.handle, testLogger(), clock), c, clock
}

func TestWatcherHandlesNewFilesAfterSettle(t *testing.T) {
	ctx := context.Background()
	w, c, clock := newTestWatcher(t, WatcherConfig{Settle: 200 * time.Millisecond})
	dir := w.config.Dir

	writeFile(t, dir, "old.txt", "1 2")
	require.NoError(t, w.Scan(ctx))
	assert.Empty(t, c.seen, "files present at startup are skipped")

	writeFile(t, dir, "new.txt", "7 x2")
	require.NoError(t, w.Scan(ctx))
	assert.Empty(t, c.seen, "file has not settled yet")

	clock.Advance(200 * time.Millisecond).MustWait(ctx)
	require.NoError(t, w.Scan(ctx))
	require.Len(t, c.seen, 1)
	assert.Equal(t, "new.txt", c.seen[0].Name)
	assert.Equal(t, 14, c.seen[0].State().BankValue())

	clock.Advance(time.Second).MustWait(ctx)
	require.NoError(t, w.Scan(ctx))
	assert.Len(t, c.seen, 1, "each file is handled once")
}

func TestWatcherForgetsFilesRemovedBeforeSettle(t *testing.T) {
	ctx := context.Background()
	w, c, clock := newTestWatcher(t, WatcherConfig{Settle: 200 * time.Millisecond})
	dir := w.config.Dir
	require.NoError(t, w.Scan(ctx))

	writeFile(t, dir, "partial.txt", "5")
	require.NoError(t, w.Scan(ctx))
	assert.Contains(t, w.pending, "partial.txt")

	require.NoError(t, os.Remove(filepath.Join(dir, "partial.txt")))
	clock.Advance(100 * time.Millisecond).MustWait(ctx)
	require.NoError(t, w.Scan(ctx))
	assert.Empty(t, w.pending)

	// reappearing restarts the settle delay
	writeFile(t, dir, "partial.txt", "5 6")
	clock.Advance(150 * time.Millisecond).MustWait(ctx)
	require.NoError(t, w.Scan(ctx))
	assert.Empty(t, c.seen)

	clock.Advance(200 * time.Millisecond).MustWait(ctx)
	require.NoError(t, w.Scan(ctx))
	require.Len(t, c.seen, 1)
	assert.Equal(t, 11, c.seen[0].State().BankValue())
}

func TestWatcherIncludeExisting(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "4")
	writeFile(t, dir, "a.json", `["3"]`)

	w, c, _ := newTestWatcher(t, WatcherConfig{Dir: dir, IncludeExisting: true})
	require.NoError(t, w.Scan(ctx))

	require.Len(t, c.seen, 2)
	assert.Equal(t, "a.json", c.seen[0].Name)
	assert.Equal(t, "b.txt", c.seen[1].Name)
}

func TestWatcherFiltersFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	w, c, _ := newTestWatcher(t, WatcherConfig{Dir: dir, IncludeExisting: true})

	writeFile(t, dir, "shot.png", "7")
	writeFile(t, dir, ".hidden.txt", "7")
	writeFile(t, dir, "partial.txt.tmp.123", "7")
	writeFile(t, dir, "UPPER.TXT", "8")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	require.NoError(t, w.Scan(ctx))
	require.Len(t, c.seen, 1)
	assert.Equal(t, "UPPER.TXT", c.seen[0].Name)
}

func TestWatcherSkipsBadFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	w, c, _ := newTestWatcher(t, WatcherConfig{Dir: dir, IncludeExisting: true})

	writeFile(t, dir, "1-empty.txt", "# nothing")
	writeFile(t, dir, "2-bad.json", "{")
	writeFile(t, dir, "3-good.txt", "5")

	require.NoError(t, w.Scan(ctx))
	require.Len(t, c.seen, 1)
	assert.Equal(t, "3-good.txt", c.seen[0].Name)

	// a failing file is not retried
	require.NoError(t, w.Scan(ctx))
	assert.Len(t, c.seen, 1)
}

func TestWatcherHandlerErrorDoesNotStopScan(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	w, c, _ := newTestWatcher(t, WatcherConfig{Dir: dir, IncludeExisting: true})
	c.err = errors.New("boom")

	writeFile(t, dir, "a.txt", "1")
	writeFile(t, dir, "b.txt", "2")
	require.NoError(t, w.Scan(ctx))
	assert.Len(t, c.seen, 2)
}

func TestWatcherRunMissingDir(t *testing.T) {
	w, _, _ := newTestWatcher(t, WatcherConfig{Dir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, w.Run(context.Background()))
}

func TestWatcherRunStopsOnCancel(t *testing.T) {
	w, _, _ := newTestWatcher(t, WatcherConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
