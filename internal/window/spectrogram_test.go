package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/acoustic-viewer/internal/spectrum"
)

func TestChunkStartIndex(t *testing.T) {
	times := []int64{0, 1000, 2000, 3000, 4000, 5000}

	assert.Equal(t, 3, ChunkStartIndex(times, 5000, 3), "must not read past the end")
	assert.Equal(t, 3, ChunkStartIndex(times, 9000, 3), "beyond the data uses the last chunk")
	assert.Equal(t, 0, ChunkStartIndex(times, -9000, 3))
	assert.Equal(t, 2, ChunkStartIndex(times, 1500, 3))
	assert.Equal(t, 0, ChunkStartIndex(times, 4000, 10), "chunk longer than data")
}

func TestExtractChunk(t *testing.T) {
	src := spectral(t, 0, 1000, 6, 3, 100, 200)

	// Centre 1.5 s, chunk is 3 s long, so it starts at 0 s
	chunk := ExtractChunk(src, spectrum.Viewport{Min: 0, Max: 3000}, 0)
	assert.Equal(t, 0, chunk.StartIndex)
	assert.Equal(t, 3, chunk.Length)
	assert.Equal(t, 2, chunk.Rows)
	assert.Equal(t, []float64{0, 1, 2, 100, 101, 102}, chunk.Data)
	assert.Equal(t, int64(0), chunk.X)
	assert.Equal(t, int64(3000), chunk.DW)

	// Centre far right clamps to the last full chunk
	chunk = ExtractChunk(src, spectrum.Viewport{Min: 10_000, Max: 12_000}, 0)
	assert.Equal(t, 3, chunk.StartIndex)
	assert.Equal(t, []float64{3, 4, 5, 103, 104, 105}, chunk.Data)
	assert.Equal(t, int64(3000), chunk.X)

	// Offset moves the viewport back into source time
	chunk = ExtractChunk(src, spectrum.Viewport{Min: 102_000, Max: 104_000}, 100_000)
	assert.Equal(t, 2, chunk.StartIndex)
}

func TestFrequencyBand(t *testing.T) {
	freqs := []float64{125, 250, 500, 1000, 2000}

	start, end, ok := FrequencyBand(freqs, frequencyRange(200, 1000))
	require.True(t, ok)
	assert.Equal(t, 1, start)
	assert.Equal(t, 3, end)

	_, _, ok = FrequencyBand(freqs, nil)
	assert.False(t, ok)

	_, _, ok = FrequencyBand(freqs, frequencyRange(5000, 8000))
	assert.False(t, ok)

	_, _, ok = FrequencyBand(freqs, frequencyRange(600, 900))
	assert.False(t, ok, "range between two rows selects nothing")
}

func TestBuildSpectrogramWindow_FrequencySlice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpectrogramFrequencyRangeHz = frequencyRange(200, 500)
	e := newTestEngine(t, cfg)

	src := spectral(t, 0, 1000, 6, 3, 100, 200, 500, 1000)
	w := e.buildSpectrogramWindow("P1", "LZeq", src, SelectionOutcome{Tier: spectrum.Log}, spectrum.Viewport{Min: 0, Max: 3000}, 0)

	require.True(t, w.Sliced)
	assert.Equal(t, 4, w.Canvas.Rows(), "canvas keeps the full chunk shape")
	assert.Equal(t, 3, w.Canvas.Cols())
	assert.Equal(t, src.MinVal-100, w.Canvas.Sentinel())

	for col := 0; col < 3; col++ {
		assert.True(t, w.Canvas.IsTransparent(0, col))
		assert.Equal(t, float64(100+col), w.Canvas.At(1, col))
		assert.Equal(t, float64(200+col), w.Canvas.At(2, col))
		assert.True(t, w.Canvas.IsTransparent(3, col))
	}

	assert.Equal(t, 0.5, w.YRangeStart)
	assert.Equal(t, 2.5, w.YRangeEnd)
	assert.Equal(t, src.Y, w.Y)
	assert.Equal(t, src.DH, w.DH)
	require.Len(t, w.VisibleFrequencies, 2)
	assert.Equal(t, 1, w.VisibleFrequencies[0].Index)
	assert.Equal(t, "200 Hz", w.VisibleFrequencies[0].Label)
}

func TestBuildSpectrogramWindow_FailsOpen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpectrogramFrequencyRangeHz = frequencyRange(20_000, 30_000)
	e := newTestEngine(t, cfg)

	src := spectral(t, 0, 1000, 6, 3, 100, 200)
	w := e.buildSpectrogramWindow("P1", "LZeq", src, SelectionOutcome{}, spectrum.Viewport{Min: 0, Max: 3000}, 5000)

	assert.False(t, w.Sliced)
	assert.Equal(t, []float64{0, 1, 2, 100, 101, 102}, w.Canvas.values(nil))
	assert.False(t, w.Canvas.IsTransparent(0, 0))
	assert.Equal(t, -0.5, w.YRangeStart)
	assert.Equal(t, 1.5, w.YRangeEnd)
	assert.Len(t, w.VisibleFrequencies, 2)
	assert.Equal(t, int64(5000), w.X, "offset is applied to the placement")
	assert.Zero(t, e.canvases.Size(), "unsliced chunks do not use the arena")
}

func TestPaintFrequencyBand_ReusesCanvas(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())

	src := spectral(t, 0, 1000, 6, 3, 100, 200, 500, 1000)
	chunk := ExtractChunk(src, spectrum.Viewport{Min: 0, Max: 3000}, 0)

	first := e.paintFrequencyBand("P1", chunk, -1000, 0, 3)
	for row := 0; row < 4; row++ {
		assert.False(t, first.IsTransparent(row, 0))
	}

	second := e.paintFrequencyBand("P1", chunk, -1000, 1, 2)
	assert.Same(t, first, second)

	for col := 0; col < 3; col++ {
		assert.True(t, second.IsTransparent(0, col), "row 0 must not keep data from the first paint")
		assert.True(t, second.IsTransparent(3, col), "row 3 must not keep data from the first paint")
		assert.Equal(t, float64(100+col), second.At(1, col))
	}
}

func TestCanvasArena_KeyedByPositionAndLength(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())

	a := e.canvases.GetOrAllocate("P1", 2, 3)
	b := e.canvases.GetOrAllocate("P1", 2, 3)
	c := e.canvases.GetOrAllocate("P1", 2, 4)
	d := e.canvases.GetOrAllocate("P2", 2, 3)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.NotSame(t, a, d)
	assert.Equal(t, 8, c.Len())
	assert.Equal(t, 3, e.canvases.Size())
	assert.Same(t, a, e.canvases.GetOrAllocate("P1", 2, 3), "a different length keeps its own canvas")

	e.canvases.Release("P1")
	assert.Equal(t, 1, e.canvases.Size())
	assert.NotSame(t, c, e.canvases.GetOrAllocate("P1", 2, 4))
}

func TestCanvasArena_ReallocatesOnShapeChange(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())

	a := e.canvases.GetOrAllocate("P1", 2, 6)
	b := e.canvases.GetOrAllocate("P1", 3, 4)

	assert.NotSame(t, a, b)
	assert.Equal(t, 3, b.Rows())
	assert.Equal(t, 1, e.canvases.Size())
	assert.Same(t, b, e.canvases.GetOrAllocate("P1", 3, 4))
}
