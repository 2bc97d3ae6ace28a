package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/acoustic-viewer/internal/window"
)

const (
	defaultLowerPercentile = 0.02
	defaultUpperPercentile = 0.98
)

// FileConfig represents the YAML configuration file
type FileConfig struct {
	Settings   Settings                          `yaml:"settings"`
	Engine     window.Config                     `yaml:"engine"`
	Render     RenderSettings                    `yaml:"render"`
	Visibility map[string]window.ChartVisibility `yaml:"visibility"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// RenderSettings represents snapshot rendering settings
type RenderSettings struct {
	Theme           ColorTheme `yaml:"theme"`
	ColorMapSize    int        `yaml:"colorMapSize"`
	TimeZone        string     `yaml:"timeZone"`
	FontSize        float64    `yaml:"fontSize"`
	Width           int        `yaml:"width"`  // Target width of the plot area in pixels
	Height          int        `yaml:"height"` // Target height of the plot area in pixels
	LowerPercentile float64    `yaml:"lowerPercentile"`
	UpperPercentile float64    `yaml:"upperPercentile"`
}

func NewFileConfig() *FileConfig {
	return &FileConfig{
		Settings: Settings{LogLevel: "info"},
		Engine:   window.DefaultConfig(),
		Render: RenderSettings{
			Theme:           ViridisTheme,
			ColorMapSize:    DefaultColorMapSize,
			TimeZone:        "Local",
			LowerPercentile: defaultLowerPercentile,
			UpperPercentile: defaultUpperPercentile,
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults, keys missing from
// the file keep their default. An empty path returns the defaults.
func LoadConfig(path string) (*FileConfig, error) {
	c := NewFileConfig()
	if path == "" {
		return c, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(c); err != nil {
		return nil, fmt.Errorf("decoding config file: %w", err)
	}

	if err = c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *FileConfig) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if _, err := c.Settings.Level(); err != nil {
		return err
	}
	if _, err := ParseColorTheme(string(c.Render.Theme)); err != nil {
		return err
	}
	r := c.Render
	if r.LowerPercentile < 0 || r.UpperPercentile > 1 || r.LowerPercentile >= r.UpperPercentile {
		return fmt.Errorf("invalid percentiles [%v, %v]", r.LowerPercentile, r.UpperPercentile)
	}
	if r.Width < 0 || r.Height < 0 {
		return errors.New("render size must not be negative")
	}
	return nil
}

// Level converts the configured log level name.
func (s Settings) Level() (slog.Level, error) {
	var level slog.Level
	if s.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(s.LogLevel))); err != nil {
		return level, fmt.Errorf("invalid log level: %w", err)
	}
	return level, nil
}
