package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestRenumber(t *testing.T) {
	t.Run("compacts and keeps order", func(t *testing.T) {
		dir := t.TempDir()
		contents := map[string]string{
			"3.jpg":       "a",
			"10.JPEG":     "b",
			"frame22.png": "c",
			"notes.txt":   "keep",
		}
		for name, body := range contents {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
		}

		res, err := Renumber(dir, "Bad", logs.NewTestingLog(t))
		require.NoError(t, err)
		assert.Equal(t, []string{"Bad/1.jpg", "Bad/2.jpg", "Bad/3.png"}, res.Lines)
		assert.Equal(t, 3, res.Renamed)
		assert.Zero(t, res.Skipped)

		assert.Equal(t, []string{"1.jpg", "2.jpg", "3.png", "notes.txt"}, dirNames(t, dir))
		for name, want := range map[string]string{"1.jpg": "a", "2.jpg": "b", "3.png": "c"} {
			got, err := os.ReadFile(filepath.Join(dir, name))
			require.NoError(t, err)
			assert.Equal(t, want, string(got), name)
		}
	})

	t.Run("swapping names does not clobber", func(t *testing.T) {
		dir := t.TempDir()
		// 2.jpg must become 1.jpg and 5.jpg must become 2.jpg.
		require.NoError(t, os.WriteFile(filepath.Join(dir, "2.jpg"), []byte("two"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "5.jpg"), []byte("five"), 0o644))

		_, err := Renumber(dir, "", logs.NewTestingLog(t))
		require.NoError(t, err)

		one, err := os.ReadFile(filepath.Join(dir, "1.jpg"))
		require.NoError(t, err)
		two, err := os.ReadFile(filepath.Join(dir, "2.jpg"))
		require.NoError(t, err)
		assert.Equal(t, "two", string(one))
		assert.Equal(t, "five", string(two))
	})

	t.Run("already numbered is a no-op", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"1.jpg", "2.jpg"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
		}
		res, err := Renumber(dir, "Good", logs.NewTestingLog(t))
		require.NoError(t, err)
		assert.Zero(t, res.Renamed)
		assert.Equal(t, []string{"Good/1.jpg", "Good/2.jpg"}, res.Lines)
	})
}
