package config

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/cascade-tools/internal/dataset"
	"github.com/ironsheep/cascade-tools/internal/detection"
	"github.com/ironsheep/cascade-tools/internal/imaging"
)

// EnvConfigPath names the environment variable holding the default config
// file path. It may be set in a .env file.
const EnvConfigPath = "CASCADE_TOOLS_CONFIG"

// ConfigError reports a setting that is out of range.
type ConfigError struct {
	Field    string
	Expected string
	Found    string
	Err      error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: expected %s, found %s", e.Field, e.Expected, e.Found)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Crop is a crop rectangle; X1 and Y1 are exclusive.
type Crop struct {
	X0 int `yaml:"x0"`
	Y0 int `yaml:"y0"`
	X1 int `yaml:"x1"`
	Y1 int `yaml:"y1"`
}

func (c Crop) Rect() image.Rectangle {
	return image.Rect(c.X0, c.Y0, c.X1, c.Y1)
}

func (c Crop) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", c.X0, c.Y0, c.X1, c.Y1)
}

// Extract holds sample extraction settings.
type Extract struct {
	Crop          Crop   `yaml:"crop"`
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	Ext           string `yaml:"ext"`
	Quality       int    `yaml:"quality"`
	Mirror        bool   `yaml:"mirror"`
	OnWriteError  string `yaml:"on_write_error"`
	ProgressEvery int    `yaml:"progress_every"`
}

// Overlay holds settings for annotated detection output.
type Overlay struct {
	BoxColor  string  `yaml:"box_color"`
	LineWidth float64 `yaml:"line_width"`
}

// FFmpeg locates the decoder binaries. Empty means look them up on PATH.
type FFmpeg struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

// Config is the full settings tree.
type Config struct {
	Extract Extract          `yaml:"extract"`
	Detect  detection.Params `yaml:"detect"`
	Overlay Overlay          `yaml:"overlay"`
	FFmpeg  FFmpeg           `yaml:"ffmpeg"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Extract: Extract{
			Crop:          Crop{X0: 100, Y0: 150, X1: 600, Y1: 650},
			Width:         364,
			Height:        500,
			Ext:           "jpg",
			Quality:       dataset.DefaultQuality,
			Mirror:        true,
			OnWriteError:  string(dataset.PolicyAbort),
			ProgressEvery: 100,
		},
		Detect: detection.DefaultParams(),
		Overlay: Overlay{
			BoxColor:  imaging.DefaultBoxColor,
			LineWidth: 2,
		},
	}
}

// Load reads the config file at path over the defaults. An empty path falls
// back to $CASCADE_TOOLS_CONFIG, and if that is unset the defaults are
// returned as they are. Unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := decode(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks every setting and reports the first bad one.
func (c *Config) Validate() error {
	e := c.Extract
	if e.Crop.X0 < 0 || e.Crop.Y0 < 0 || e.Crop.X1 < 0 || e.Crop.Y1 < 0 {
		return &ConfigError{Field: "extract.crop", Expected: "non-negative coordinates", Found: e.Crop.String()}
	}
	if e.Crop.X0 >= e.Crop.X1 || e.Crop.Y0 >= e.Crop.Y1 {
		return &ConfigError{Field: "extract.crop", Expected: "x0 < x1 and y0 < y1", Found: e.Crop.String()}
	}
	if e.Width <= 0 || e.Height <= 0 {
		return &ConfigError{Field: "extract.width/height", Expected: "positive sample size", Found: fmt.Sprintf("%dx%d", e.Width, e.Height)}
	}
	if !dataset.IsSampleFile("x." + strings.TrimPrefix(e.Ext, ".")) {
		return &ConfigError{Field: "extract.ext", Expected: "jpg, jpeg, png or bmp", Found: fmt.Sprintf("%q", e.Ext)}
	}
	if e.Quality < 1 || e.Quality > 100 {
		return &ConfigError{Field: "extract.quality", Expected: "1-100", Found: fmt.Sprint(e.Quality)}
	}
	if _, err := dataset.ParseWritePolicy(e.OnWriteError); err != nil {
		return &ConfigError{Field: "extract.on_write_error", Expected: "abort or skip", Found: fmt.Sprintf("%q", e.OnWriteError)}
	}
	if e.ProgressEvery < 0 {
		return &ConfigError{Field: "extract.progress_every", Expected: ">= 0", Found: fmt.Sprint(e.ProgressEvery)}
	}

	if err := c.Detect.Validate(); err != nil {
		return &ConfigError{Field: "detect", Err: err}
	}

	if err := imaging.ParseBoxColor(c.Overlay.BoxColor); err != nil {
		return &ConfigError{Field: "overlay.box_color", Expected: "#RRGGBB", Found: fmt.Sprintf("%q", c.Overlay.BoxColor)}
	}
	if c.Overlay.LineWidth <= 0 {
		return &ConfigError{Field: "overlay.line_width", Expected: "> 0", Found: fmt.Sprint(c.Overlay.LineWidth)}
	}
	return nil
}
