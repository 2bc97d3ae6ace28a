package app

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/roman-kulish/acoustic-viewer/internal/window"
)

const (
	// Below this many cells percentiles are meaningless and the source range is used
	minimumSampleCount = 20

	minimumLevelRange = 10.0 // dB
)

// LevelBounds represents the level range the color map spans
type LevelBounds struct {
	Min  float64
	Max  float64
	Mean float64
}

// NewLevelBounds derives the color range of a spectrogram window from the
// lower and upper percentiles of its visible cells. Transparent and NaN cells
// are ignored. The range is at least minimumLevelRange wide.
func NewLevelBounds(w *window.SpectrogramWindow, lower, upper float64) LevelBounds {
	values := make([]float64, 0, w.Canvas.Len())
	for row := 0; row < w.Canvas.Rows(); row++ {
		for col := 0; col < w.Canvas.Cols(); col++ {
			v := w.Canvas.At(row, col)
			if math.IsNaN(v) || w.Canvas.IsTransparent(row, col) {
				continue
			}
			values = append(values, v)
		}
	}

	var b LevelBounds
	if len(values) < minimumSampleCount {
		b = LevelBounds{Min: w.MinVal, Max: w.MaxVal, Mean: (w.MinVal + w.MaxVal) / 2}
	} else {
		sort.Float64s(values)
		b = LevelBounds{
			Min:  stat.Quantile(lower, stat.Empirical, values, nil),
			Max:  stat.Quantile(upper, stat.Empirical, values, nil),
			Mean: stat.Mean(values, nil),
		}
	}

	if b.Max-b.Min < minimumLevelRange {
		center := (b.Max + b.Min) / 2
		b.Min = center - minimumLevelRange/2
		b.Max = center + minimumLevelRange/2
	}
	return b
}
