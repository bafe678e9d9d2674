package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/cascade-tools/internal/config"
	"github.com/ironsheep/cascade-tools/internal/detection"
)

const edgeCascade = `<?xml version="1.0"?>
<opencv_storage>
<cascade>
  <stageType>BOOST</stageType>
  <featureType>HAAR</featureType>
  <height>8</height>
  <width>8</width>
  <stageNum>1</stageNum>
  <stages>
    <_>
      <maxWeakCount>1</maxWeakCount>
      <stageThreshold>0.</stageThreshold>
      <weakClassifiers>
        <_>
          <internalNodes>0 -1 0 0.1</internalNodes>
          <leafValues>-1. 1.</leafValues></_></weakClassifiers></_></stages>
  <features>
    <_>
      <rects>
        <_>0 0 8 8 -1.</_>
        <_>0 0 4 8 2.</_></rects></_></features></cascade>
</opencv_storage>
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvConfigPath, "")

	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writePNG(t *testing.T, path string, w, h, splitX int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < splitX {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestExtractCommand(t *testing.T) {
	dir := t.TempDir()
	frame := filepath.Join(dir, "frame.png")
	writePNG(t, frame, 800, 800, 400)
	good := filepath.Join(dir, "Good")
	manifest := filepath.Join(dir, "info.dat")

	out, err := run(t, "extract", "--video", frame, "--out", good, "--manifest", manifest, "--prefix", "Good")
	require.NoError(t, err, out)
	assert.Contains(t, out, "written: 2")

	// A second run continues the numbering.
	out, err = run(t, "extract", "--video", frame, "--out", good, "--no-mirror", "--manifest", manifest, "--prefix", "Good")
	require.NoError(t, err, out)
	assert.Contains(t, out, "ids:     3-3")

	data, err := os.ReadFile(manifest)
	require.NoError(t, err)
	assert.Equal(t, "Good/1.jpg 1 0 0 364 500\nGood/2.jpg 1 0 0 364 500\nGood/3.jpg 1 0 0 364 500\n", string(data))
}

func TestExtractCommandCropOutOfBounds(t *testing.T) {
	dir := t.TempDir()
	frame := filepath.Join(dir, "frame.png")
	writePNG(t, frame, 300, 300, 150)

	_, err := run(t, "extract", "--video", frame, "--out", filepath.Join(dir, "Good"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside frame bounds")

	_, err = os.Stat(filepath.Join(dir, "Good"))
	assert.True(t, os.IsNotExist(err), "collection directory was created: %v", err)
}

func TestExtractCommandMissingVideo(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "Good")

	for _, video := range []string{"missing.mp4", "missing.png"} {
		_, err := run(t, "extract", "--video", filepath.Join(dir, video), "--out", good)
		require.Error(t, err, video)

		_, err = os.Stat(good)
		assert.True(t, os.IsNotExist(err), "%s: collection directory was created: %v", video, err)
	}
}

func TestExtractCommandBadFlags(t *testing.T) {
	dir := t.TempDir()
	frame := filepath.Join(dir, "frame.png")
	writePNG(t, frame, 800, 800, 400)

	_, err := run(t, "extract", "--video", frame, "--out", dir, "--on-write-error", "retry")
	var ce *config.ConfigError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, "extract.on_write_error", ce.Field)

	_, err = run(t, "extract", "--video", frame, "--out", dir, "--size", "364")
	assert.Error(t, err)
}

func TestAnnotateCommand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2.png", "10.png", "1.png"} {
		writePNG(t, filepath.Join(dir, name), 36, 50, 10)
	}
	info := filepath.Join(dir, "out", "info.dat")

	_, err := run(t, "annotate", "--dir", dir, "--prefix", "Good", "--out", info)
	require.NoError(t, err)
	data, err := os.ReadFile(info)
	require.NoError(t, err)
	assert.Equal(t, "Good/1.png 1 0 0 36 50\nGood/2.png 1 0 0 36 50\nGood/10.png 1 0 0 36 50\n", string(data))

	_, err = run(t, "annotate", "--dir", dir, "--out", info, "--size", "24x24")
	require.NoError(t, err)
	data, err = os.ReadFile(info)
	require.NoError(t, err)
	assert.Equal(t, "1.png 1 0 0 24 24\n2.png 1 0 0 24 24\n10.png 1 0 0 24 24\n", string(data))

	bg := filepath.Join(dir, "out", "bg.txt")
	_, err = run(t, "annotate", "--dir", dir, "--prefix", "Bad", "--out", bg, "--negatives")
	require.NoError(t, err)
	data, err = os.ReadFile(bg)
	require.NoError(t, err)
	assert.Equal(t, "Bad/1.png\nBad/2.png\nBad/10.png\n", string(data))
}

func TestDetectCommand(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "cascade.xml")
	require.NoError(t, os.WriteFile(model, []byte(edgeCascade), 0o644))
	photo := filepath.Join(dir, "photo.png")
	writePNG(t, photo, 64, 48, 32)
	annotated := filepath.Join(dir, "annotated.png")

	out, err := run(t, "detect", "--model", model, "--image", photo,
		"--scale-factor", "1.2", "--min-neighbors", "1", "--min-size", "8x8", "--max-size", "64x64",
		"--equalize=false", "--step", "1", "--out", annotated, "--json")
	require.NoError(t, err, out)

	var res detection.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Positive(t, res.Count)
	assert.Len(t, res.Detections, res.Count)

	_, err = os.Stat(annotated)
	assert.NoError(t, err)
}

func TestDetectCommandErrors(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "cascade.xml")
	require.NoError(t, os.WriteFile(model, []byte(edgeCascade), 0o644))
	photo := filepath.Join(dir, "photo.png")
	writePNG(t, photo, 64, 48, 32)

	_, err := run(t, "detect", "--model", filepath.Join(dir, "none.xml"), "--image", photo)
	var mle *detection.ModelLoadError
	assert.True(t, errors.As(err, &mle), "got %v", err)

	_, err = run(t, "detect", "--model", model, "--image", filepath.Join(dir, "none.png"))
	var iie *detection.InvalidImageError
	assert.True(t, errors.As(err, &iie), "got %v", err)

	_, err = run(t, "detect", "--model", model, "--image", photo, "--scale-factor", "2.5")
	var ce *config.ConfigError
	assert.True(t, errors.As(err, &ce), "got %v", err)
}

func TestRenumberCommand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"4.jpg", "11.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
	list := filepath.Join(t.TempDir(), "bg.txt")

	out, err := run(t, "renumber", "--dir", dir, "--prefix", "Bad", "--list", list)
	require.NoError(t, err)
	assert.Contains(t, out, "renamed 2, skipped 0, total 2")

	data, err := os.ReadFile(list)
	require.NoError(t, err)
	assert.Equal(t, "Bad/1.jpg\nBad/2.jpg\n", string(data))
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cascade-tools.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("extract:\n  width: 24\n  height: 32\n  mirror: false\n"), 0o644))
	frame := filepath.Join(dir, "frame.png")
	writePNG(t, frame, 800, 800, 400)
	good := filepath.Join(dir, "Good")

	out, err := run(t, "--config", cfgPath, "extract", "--video", frame, "--out", good)
	require.NoError(t, err, out)
	assert.Contains(t, out, "written: 1")

	f, err := os.Open(filepath.Join(good, "1.jpg"))
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.Width)
	assert.Equal(t, 32, cfg.Height)

	_, err = run(t, "--config", filepath.Join(dir, "missing.yaml"), "renumber", "--dir", dir)
	assert.Error(t, err)
}
