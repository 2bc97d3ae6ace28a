package window

import (
	"errors"
	"fmt"
)

const (
	defaultMaxLogViewportSeconds = 300
	defaultLineRenderCap         = 5000
	defaultSpectralRenderCap     = 5000
	defaultMinCoverageRatio      = 0.8
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("invalid config")

// FrequencyRange is a [min, max] pair in Hz. In YAML it is written as a two element list.
type FrequencyRange [2]float64

func (r FrequencyRange) Min() float64 { return r[0] }
func (r FrequencyRange) Max() float64 { return r[1] }

// Config holds the tuning knobs of the windowing engine.
type Config struct {
	MaxLogViewportSeconds int     `yaml:"maxLogViewportSeconds"` // Widest viewport that may still show log data
	LineRenderCap         int     `yaml:"lineRenderCap"`         // Most log points a line chart may show
	SpectralRenderCap     int     `yaml:"spectralRenderCap"`     // Most log time bins a spectrogram may show
	MinCoverageRatio      float64 `yaml:"minCoverageRatio"`      // Share of the viewport log spectra must cover

	SpectrogramFrequencyRangeHz  *FrequencyRange `yaml:"spectrogramFrequencyRangeHz,omitempty"`
	FrequencyBarFrequencyRangeHz *FrequencyRange `yaml:"frequencyBarFrequencyRangeHz,omitempty"`

	// Per position shift in milliseconds applied to displayed timestamps
	PositionChartOffsets map[string]int64 `yaml:"positionChartOffsets,omitempty"`
}

// DefaultConfig returns the default tuning. Callers start from it and
// override fields; zero values are taken as given.
func DefaultConfig() Config {
	return Config{
		MaxLogViewportSeconds: defaultMaxLogViewportSeconds,
		LineRenderCap:         defaultLineRenderCap,
		SpectralRenderCap:     defaultSpectralRenderCap,
		MinCoverageRatio:      defaultMinCoverageRatio,
	}
}

func (c Config) Validate() error {
	var err error
	switch {
	case c.MaxLogViewportSeconds <= 0:
		err = fmt.Errorf("maxLogViewportSeconds must be positive, use overview mode to hide log data: %d", c.MaxLogViewportSeconds)
	case c.LineRenderCap <= 0:
		err = fmt.Errorf("lineRenderCap must be positive: %d", c.LineRenderCap)
	case c.SpectralRenderCap <= 0:
		err = fmt.Errorf("spectralRenderCap must be positive: %d", c.SpectralRenderCap)
	case c.MinCoverageRatio < 0 || c.MinCoverageRatio > 1:
		err = fmt.Errorf("minCoverageRatio must be within [0, 1]: %v", c.MinCoverageRatio)
	case c.SpectrogramFrequencyRangeHz != nil && c.SpectrogramFrequencyRangeHz.Min() > c.SpectrogramFrequencyRangeHz.Max():
		err = fmt.Errorf("spectrogram frequency range %v is inverted", *c.SpectrogramFrequencyRangeHz)
	case c.FrequencyBarFrequencyRangeHz != nil && c.FrequencyBarFrequencyRangeHz.Min() > c.FrequencyBarFrequencyRangeHz.Max():
		err = fmt.Errorf("frequency bar range %v is inverted", *c.FrequencyBarFrequencyRangeHz)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Offset returns the display shift of the position in milliseconds.
func (c Config) Offset(position string) int64 {
	return c.PositionChartOffsets[position]
}
