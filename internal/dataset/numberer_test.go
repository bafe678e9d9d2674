package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNumberer(t *testing.T) {
	tests := []struct {
		name      string
		files     []string
		wantStart int
		wantCount int
	}{
		{"empty collection", nil, 1, 0},
		{"contiguous ids", []string{"1.jpg", "2.jpg", "3.jpg"}, 4, 3},
		{"gaps use max", []string{"1.jpg", "7.jpg", "3.jpg"}, 8, 3},
		{"uppercase extension", []string{"1.JPG", "2.Jpg"}, 3, 2},
		{"strays ignored", []string{"1.jpg", "notes.txt", "a.jpg", "2.png", "0.jpg", "-4.jpg", "+9.jpg", "12.jpg.bak"}, 2, 1},
		{"only strays", []string{"readme.md", "thumbs.db"}, 1, 0},
		{"largest int ignored", []string{"3.jpg", strconv.Itoa(math.MaxInt) + ".jpg"}, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNumberer(tt.files, "jpg")
			assert.Equal(t, tt.wantStart, n.Start())
			assert.Equal(t, tt.wantCount, n.Existing())
			assert.Equal(t, tt.wantStart, n.Next())
			assert.Equal(t, tt.wantStart+1, n.Next())
			assert.Equal(t, 2, n.Issued())
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name   string
		ext    string
		wantID int
		wantOK bool
	}{
		{"42.jpg", "jpg", 42, true},
		{"42.jpg", ".jpg", 42, true},
		{"42.JPG", "jpg", 42, true},
		{"007.jpg", "jpg", 7, true},
		{"42.png", "jpg", 0, false},
		{"0.jpg", "jpg", 0, false},
		{"-1.jpg", "jpg", 0, false},
		{"x1.jpg", "jpg", 0, false},
		{".jpg", "jpg", 0, false},
		{strconv.Itoa(math.MaxInt) + ".jpg", "jpg", 0, false},
		{"99999999999999999999999.jpg", "jpg", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseID(tt.name, tt.ext)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestScanNumberer(t *testing.T) {
	t.Run("resumes after existing samples", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"1.jpg", "2.jpg", "5.jpg", "other.txt"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
		}
		// Directories named like samples do not count.
		require.NoError(t, os.Mkdir(filepath.Join(dir, "9.jpg"), 0o755))

		n, err := ScanNumberer(dir, "jpg")
		require.NoError(t, err)
		assert.Equal(t, 6, n.Next())
		assert.Equal(t, 3, n.Existing())
	})

	t.Run("missing directory starts at one", func(t *testing.T) {
		n, err := ScanNumberer(filepath.Join(t.TempDir(), "nope"), "jpg")
		require.NoError(t, err)
		assert.Equal(t, 1, n.Next())
	})
}

func TestNewNumbererAt(t *testing.T) {
	n := NewNumbererAt(40)
	assert.Equal(t, 40, n.Start())
	assert.Equal(t, 40, n.Next())
	assert.Equal(t, 41, n.Next())
	assert.Equal(t, 0, n.Existing())

	assert.Equal(t, 1, NewNumbererAt(0).Next())
	assert.Equal(t, 1, NewNumbererAt(-3).Next())
}
