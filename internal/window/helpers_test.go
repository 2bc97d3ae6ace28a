package window

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/acoustic-viewer/internal/spectrum"
)

// series builds a table of n samples, step ms apart, with one "LAeq" column
// holding the sample index.
func series(start, step int64, n int) *spectrum.TimeSeries {
	ts := &spectrum.TimeSeries{
		Datetime: make([]int64, n),
		Columns:  map[string][]float64{"LAeq": make([]float64, n)},
	}
	for i := 0; i < n; i++ {
		ts.Datetime[i] = start + int64(i)*step
		ts.Columns["LAeq"][i] = float64(i)
	}
	return ts
}

// spectral builds a source with the given frequencies and nTimes bins, step ms
// apart. The level at (row, col) is row*100 + col.
func spectral(t *testing.T, start, step int64, nTimes, chunk int, freqs ...float64) *spectrum.SpectralSource {
	t.Helper()

	data := make([]float64, len(freqs)*nTimes)
	for row := range freqs {
		for col := 0; col < nTimes; col++ {
			data[row*nTimes+col] = float64(row*100 + col)
		}
	}
	levels, err := spectrum.NewSpectralMatrix(data, len(freqs), nTimes)
	require.NoError(t, err)

	times := make([]int64, nTimes)
	for i := range times {
		times[i] = start + int64(i)*step
	}

	src := &spectrum.SpectralSource{
		Levels:          levels,
		TimesMs:         times,
		FrequenciesHz:   freqs,
		TimeStep:        step,
		ChunkTimeLength: chunk,
	}
	src.Normalize()
	require.NoError(t, src.Validate())
	return src
}

func newTestEngine(t *testing.T, cfg Config, options ...Option) *Engine {
	t.Helper()

	e, err := NewEngine(cfg, options...)
	require.NoError(t, err)
	return e
}

func frequencyRange(lo, hi float64) *FrequencyRange {
	return &FrequencyRange{lo, hi}
}
