package dataset

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createGraySample creates a w x h gray image with a simple gradient.
func createGraySample(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) % 256)})
		}
	}
	return img
}

func TestDirWriter(t *testing.T) {
	t.Run("writes decodable sample", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "Good")
		w, err := NewDirWriter(dir, "jpg", 0)
		require.NoError(t, err)

		path, err := w.Write(createGraySample(40, 30), 12)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "12.jpg"), path)

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		cfg, format, err := image.DecodeConfig(f)
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, 40, cfg.Width)
		assert.Equal(t, 30, cfg.Height)
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "3.png"), []byte("keep"), 0o644))

		w, err := NewDirWriter(dir, ".png", 0)
		require.NoError(t, err)

		_, err = w.Write(createGraySample(4, 4), 3)
		var werr *WriteError
		require.True(t, errors.As(err, &werr))
		assert.Equal(t, 3, werr.ID)
		assert.True(t, errors.Is(err, os.ErrExist))

		data, err := os.ReadFile(filepath.Join(dir, "3.png"))
		require.NoError(t, err)
		assert.Equal(t, "keep", string(data))
	})

	t.Run("rejects unknown extension", func(t *testing.T) {
		_, err := NewDirWriter(t.TempDir(), "webp", 0)
		assert.Error(t, err)
	})
}
