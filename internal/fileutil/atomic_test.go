package fileutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "advice.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, "advice.json", entries[0].Name())
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	t.Parallel()

	err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "advice.json"), []byte("x"), 0o644)
	assert.Error(t, err)
}

func TestWriteJSONAtomic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "advice.json")
	in := map[string]any{"bank": 12, "notes": []string{"x2 held"}}
	require.NoError(t, WriteJSONAtomic(path, in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), data[len(data)-1])

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, float64(12), out["bank"])
}

func TestWriteJSONAtomicUnmarshalable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "advice.json")
	assert.Error(t, WriteJSONAtomic(path, map[string]any{"f": func() {}}))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
