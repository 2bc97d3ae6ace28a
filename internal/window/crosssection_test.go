package window

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/acoustic-viewer/internal/spectrum"
)

func crossSectionSource(t *testing.T) *spectrum.SpectralSource {
	t.Helper()

	levels, err := spectrum.NewSpectralMatrix([]float64{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)

	src := &spectrum.SpectralSource{
		Levels:        levels,
		TimesMs:       []int64{1000, 2000},
		FrequenciesHz: []float64{100, 200},
		TimeStep:      1000,
	}
	src.Normalize()
	return src
}

func TestExtractCrossSection(t *testing.T) {
	src := crossSectionSource(t)

	bins, ok := ExtractCrossSection(src, src.TimesMs[1], nil)
	require.True(t, ok)
	require.Len(t, bins, 2)
	assert.Equal(t, 2.0, bins[0].Value)
	assert.Equal(t, 4.0, bins[1].Value)
	assert.Equal(t, "100 Hz", bins[0].Label)

	// Between bins reads the earlier one
	bins, ok = ExtractCrossSection(src, 1999, nil)
	require.True(t, ok)
	assert.Equal(t, 1.0, bins[0].Value)
	assert.Equal(t, 3.0, bins[1].Value)

	_, ok = ExtractCrossSection(src, 999, nil)
	assert.False(t, ok)
}

func TestExtractCrossSection_FrequencyFilter(t *testing.T) {
	src := crossSectionSource(t)

	bins, ok := ExtractCrossSection(src, 2000, frequencyRange(150, 250))
	require.True(t, ok)
	require.Len(t, bins, 1)
	assert.Equal(t, 1, bins[0].Index)
	assert.Equal(t, 4.0, bins[0].Value)

	bins, ok = ExtractCrossSection(src, 2000, frequencyRange(5000, 6000))
	require.True(t, ok)
	assert.Len(t, bins, 2, "unmatched filter falls back to every row")
}

func TestExtractCrossSection_MissingLevelsReadZero(t *testing.T) {
	src := crossSectionSource(t)
	src.Levels.Data[1] = math.NaN()

	bins, ok := ExtractCrossSection(src, 2000, nil)
	require.True(t, ok)
	assert.Equal(t, 0.0, bins[0].Value)
}

func TestUpdateActiveFreqBarData(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	cache := NewDataCache()

	src := crossSectionSource(t)
	cache.ActiveSpec["P1"] = &SpectrogramWindow{Position: "P1", Parameter: "LZeq", source: src, offset: 10_000}

	state := ViewState{
		Parameter:   "LZeq",
		Interaction: &Interaction{Position: "P1", Timestamp: 12_000, Source: Tap},
	}
	e.UpdateActiveFreqBarData(state, cache)

	require.False(t, cache.FreqBar.Empty())
	assert.Equal(t, "P1", cache.FreqBar.Position)
	assert.Equal(t, Tap, cache.FreqBar.Source)
	assert.Equal(t, int64(12_000), cache.FreqBar.Timestamp)
	assert.Equal(t, []float64{2, 4}, []float64{cache.FreqBar.Bins[0].Value, cache.FreqBar.Bins[1].Value})

	state.Interaction = &Interaction{Position: "P2", Timestamp: 12_000, Source: Hover}
	e.UpdateActiveFreqBarData(state, cache)
	assert.True(t, cache.FreqBar.Empty())
	assert.Equal(t, "P2", cache.FreqBar.Position)

	state.Interaction = nil
	e.UpdateActiveFreqBarData(state, cache)
	assert.True(t, cache.FreqBar.Empty())
}
