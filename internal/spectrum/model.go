package spectrum

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// ErrShapeMismatch is returned when the arrays of a source disagree on their lengths.
var ErrShapeMismatch = errors.New("shape mismatch")

// Tier names one of the two pre-computed resolutions of the same signal.
type Tier int

const (
	Overview Tier = iota // Coarse tier, always present, spans the whole dataset
	Log                  // Dense tier, may be absent or cover only part of the timeline
)

func (t Tier) String() string {
	switch t {
	case Overview:
		return "overview"
	case Log:
		return "log"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier converts "overview" or "log" into a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "overview":
		return Overview, nil
	case "log":
		return Log, nil
	default:
		return Overview, fmt.Errorf("unknown tier '%s'", s)
	}
}

// Viewport is the visible time range in milliseconds since epoch.
type Viewport struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

func (v Viewport) Span() int64 {
	return v.Max - v.Min
}

func (v Viewport) Center() int64 {
	return v.Min + v.Span()/2
}

// Shift moves both bounds by offset milliseconds.
func (v Viewport) Shift(offset int64) Viewport {
	return Viewport{Min: v.Min + offset, Max: v.Max + offset}
}

func (v Viewport) Valid() bool {
	return v.Max > v.Min
}

// TimeSeries is a column oriented table of one resolution tier.
// Datetime holds milliseconds since epoch in non-decreasing order and every
// column has the same length as Datetime.
type TimeSeries struct {
	Datetime []int64             `json:"datetime"`
	Columns  map[string][]float64 `json:"columns"`
}

func (ts *TimeSeries) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.Datetime)
}

// Column returns the named parameter column, or nil if it does not exist.
func (ts *TimeSeries) Column(name string) []float64 {
	if ts == nil {
		return nil
	}
	return ts.Columns[name]
}

// ColumnNames returns the parameter names in sorted order.
func (ts *TimeSeries) ColumnNames() []string {
	names := make([]string, 0, len(ts.Columns))
	for name := range ts.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (ts *TimeSeries) Validate() error {
	for name, col := range ts.Columns {
		if len(col) != len(ts.Datetime) {
			return fmt.Errorf("column '%s' has %d values, datetime has %d: %w", name, len(col), len(ts.Datetime), ErrShapeMismatch)
		}
	}
	for i := 1; i < len(ts.Datetime); i++ {
		if ts.Datetime[i] < ts.Datetime[i-1] {
			return fmt.Errorf("datetime decreases at index %d", i)
		}
	}
	return nil
}

// SpectralMatrix is a frequency-major flattened matrix: Data[row*Cols+col],
// where rows are frequency bins and columns are time bins.
type SpectralMatrix struct {
	Data []float64
	Rows int
	Cols int
}

// NewSpectralMatrix validates the shape once so extractors never have to.
func NewSpectralMatrix(data []float64, rows, cols int) (SpectralMatrix, error) {
	if rows < 0 || cols < 0 {
		return SpectralMatrix{}, fmt.Errorf("negative dimensions %dx%d: %w", rows, cols, ErrShapeMismatch)
	}
	if len(data) != rows*cols {
		return SpectralMatrix{}, fmt.Errorf("%d values for a %dx%d matrix: %w", len(data), rows, cols, ErrShapeMismatch)
	}
	return SpectralMatrix{Data: data, Rows: rows, Cols: cols}, nil
}

func (m SpectralMatrix) At(row, col int) float64 {
	return m.Data[row*m.Cols+col]
}

// Row returns the row without copying. Callers must not modify it.
func (m SpectralMatrix) Row(row int) []float64 {
	return m.Data[row*m.Cols : (row+1)*m.Cols]
}

// SpectralSource is one spectrogram tier of one parameter at one position.
type SpectralSource struct {
	Levels          SpectralMatrix
	TimesMs         []int64   // Start of every time bin, ascending
	FrequenciesHz   []float64 // Centre of every frequency bin, ascending
	FrequencyLabels []string  // Display label of every frequency bin
	TimeStep        int64     // Milliseconds between time bins
	ChunkTimeLength int       // Time bins per rendered chunk
	MinVal, MaxVal  float64   // Level range of the real data

	// Original vertical glyph placement of the image
	Y, DH float64
}

func (s *SpectralSource) NFreqs() int {
	return s.Levels.Rows
}

func (s *SpectralSource) NTimes() int {
	return s.Levels.Cols
}

// Span returns the first and last time bin, false for an empty source.
func (s *SpectralSource) Span() (int64, int64, bool) {
	if len(s.TimesMs) == 0 {
		return 0, 0, false
	}
	return s.TimesMs[0], s.TimesMs[len(s.TimesMs)-1], true
}

func (s *SpectralSource) Validate() error {
	if len(s.TimesMs) != s.Levels.Cols {
		return fmt.Errorf("%d times for %d time bins: %w", len(s.TimesMs), s.Levels.Cols, ErrShapeMismatch)
	}
	if len(s.FrequenciesHz) != s.Levels.Rows {
		return fmt.Errorf("%d frequencies for %d frequency bins: %w", len(s.FrequenciesHz), s.Levels.Rows, ErrShapeMismatch)
	}
	if len(s.FrequencyLabels) != len(s.FrequenciesHz) {
		return fmt.Errorf("%d labels for %d frequencies: %w", len(s.FrequencyLabels), len(s.FrequenciesHz), ErrShapeMismatch)
	}
	if !slices.IsSorted(s.TimesMs) {
		return errors.New("times are not ascending")
	}
	if !slices.IsSorted(s.FrequenciesHz) {
		return errors.New("frequencies are not ascending")
	}
	if s.TimeStep <= 0 && len(s.TimesMs) > 1 {
		return fmt.Errorf("invalid time step %d", s.TimeStep)
	}
	return nil
}

// Normalize fills in metadata the producer may have left out: frequency
// labels, the time step, the chunk length, the level range and the glyph
// placement. It does not touch the levels.
func (s *SpectralSource) Normalize() {
	if len(s.FrequencyLabels) == 0 && len(s.FrequenciesHz) > 0 {
		s.FrequencyLabels = make([]string, len(s.FrequenciesHz))
		for i, hz := range s.FrequenciesHz {
			s.FrequencyLabels[i] = FormatFrequency(hz)
		}
	}
	if s.TimeStep <= 0 && len(s.TimesMs) > 1 {
		s.TimeStep = s.TimesMs[1] - s.TimesMs[0]
	}
	if s.ChunkTimeLength <= 0 {
		s.ChunkTimeLength = s.NTimes()
	}
	if s.MinVal == 0 && s.MaxVal == 0 {
		s.MinVal, s.MaxVal = levelRange(s.Levels.Data)
	}
	if s.DH == 0 {
		s.Y = -0.5
		s.DH = float64(s.NFreqs())
	}
}

func levelRange(data []float64) (float64, float64) {
	finite := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0, 0
	}
	return floats.Min(finite), floats.Max(finite)
}

// PositionSource holds both tiers of every signal recorded at one measurement position.
type PositionSource struct {
	Position string
	Series   map[Tier]*TimeSeries
	Spectral map[Tier]map[string]*SpectralSource
}

func NewPositionSource(position string) *PositionSource {
	return &PositionSource{
		Position: position,
		Series:   make(map[Tier]*TimeSeries),
		Spectral: make(map[Tier]map[string]*SpectralSource),
	}
}

// SeriesFor returns the time series of the tier, nil if the tier is absent.
func (p *PositionSource) SeriesFor(tier Tier) *TimeSeries {
	if p == nil {
		return nil
	}
	ts := p.Series[tier]
	if ts.Len() == 0 {
		return nil
	}
	return ts
}

// SpectralFor returns the spectrogram of the tier and parameter, nil if absent.
func (p *PositionSource) SpectralFor(tier Tier, parameter string) *SpectralSource {
	if p == nil {
		return nil
	}
	src := p.Spectral[tier][parameter]
	if src == nil || src.NTimes() == 0 || src.NFreqs() == 0 {
		return nil
	}
	return src
}

// SetSpectral registers a spectrogram for the tier and parameter.
func (p *PositionSource) SetSpectral(tier Tier, parameter string, src *SpectralSource) {
	if p.Spectral[tier] == nil {
		p.Spectral[tier] = make(map[string]*SpectralSource)
	}
	p.Spectral[tier][parameter] = src
}

// Sources maps position names to their data.
type Sources map[string]*PositionSource

// Positions returns the position names in sorted order.
func (s Sources) Positions() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
