package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/acoustic-viewer/internal/spectrum"
)

func TestExtractLineWindow_PadsAndCopies(t *testing.T) {
	src := series(0, 1000, 100)
	overview := series(0, 10_000, 10)

	// 10 .. 19 s is 10 points in view, padded by 5 on each side
	data, fellBack := ExtractLineWindow(src, overview, spectrum.Viewport{Min: 10_000, Max: 19_000}, 0)
	require.False(t, fellBack)
	require.Equal(t, 20, data.Len())
	assert.Equal(t, int64(5_000), data.Datetime[0])
	assert.Equal(t, int64(24_000), data.Datetime[19])
	assert.Equal(t, 5.0, data.Column("LAeq")[0])

	data.Datetime[0] = -1
	data.Columns["LAeq"][0] = -1
	assert.Equal(t, int64(5_000), src.Datetime[5], "source datetime must not be aliased")
	assert.Equal(t, 5.0, src.Columns["LAeq"][5], "source column must not be aliased")
}

func TestExtractLineWindow_ClampsPadding(t *testing.T) {
	src := series(0, 1000, 10)

	data, fellBack := ExtractLineWindow(src, nil, spectrum.Viewport{Min: 0, Max: 9_000}, 0)
	require.False(t, fellBack)
	assert.Equal(t, 10, data.Len())
}

func TestExtractLineWindow_Offset(t *testing.T) {
	src := series(0, 1000, 100)

	// Display time is source time plus 60 s
	data, fellBack := ExtractLineWindow(src, nil, spectrum.Viewport{Min: 70_000, Max: 71_000}, 60_000)
	require.False(t, fellBack)
	require.Equal(t, 4, data.Len())
	assert.Equal(t, int64(69_000), data.Datetime[0])
	assert.Equal(t, 9.0, data.Column("LAeq")[0])
	assert.Equal(t, int64(9_000), src.Datetime[9])
}

func TestExtractLineWindow_FallsBackToOverview(t *testing.T) {
	src := series(0, 1000, 10)
	overview := series(0, 100_000, 3)

	data, fellBack := ExtractLineWindow(src, overview, spectrum.Viewport{Min: 50_000, Max: 60_000}, 1000)
	require.True(t, fellBack)
	assert.Equal(t, []int64{1000, 101_000, 201_000}, data.Datetime)

	data, fellBack = ExtractLineWindow(nil, nil, spectrum.Viewport{Min: 0, Max: 1}, 0)
	assert.True(t, fellBack)
	assert.Nil(t, data)
}
