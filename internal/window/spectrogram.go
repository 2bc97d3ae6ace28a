package window

import (
	"github.com/roman-kulish/acoustic-viewer/internal/spectrum"
)

// transparentMargin is how far below the real minimum the transparent
// sentinel sits.
const transparentMargin = 100

// FrequencyTick is one visible frequency row, for axis labels.
type FrequencyTick struct {
	Index       int
	Label       string
	FrequencyHz float64
}

// SpectrogramWindow is the cached spectrogram image of one position.
type SpectrogramWindow struct {
	Position  string
	Parameter string
	Outcome   SelectionOutcome

	Canvas *Canvas
	Sliced bool // Rows outside the frequency range are transparent

	// Horizontal placement in display time
	X, DW int64

	// Vertical placement, copied from the source glyph
	Y, DH float64

	// Visible frequency rows, as row indices widened by half a row on each side
	YRangeStart, YRangeEnd float64
	VisibleFrequencies     []FrequencyTick

	MinVal, MaxVal float64

	source *spectrum.SpectralSource
	offset int64
}

// Chunk is a bounded run of time bins copied out of a spectral source.
type Chunk struct {
	Data       []float64 // Frequency-major: Data[row*Length+col]
	Rows       int       // Frequency bins
	Length     int       // Time bins
	StartIndex int       // Index of the first time bin in the source
	X, DW      int64     // Start time and duration in source time
}

// ExtractChunk copies ChunkTimeLength time bins centred on the viewport, for
// every frequency row. When the viewport lies beyond the data the last chunk
// is used.
func ExtractChunk(src *spectrum.SpectralSource, vp spectrum.Viewport, offset int64) Chunk {
	nTimes, nFreqs := src.NTimes(), src.NFreqs()

	length := src.ChunkTimeLength
	if length <= 0 || length > nTimes {
		length = nTimes
	}

	targetStart := vp.Shift(-offset).Center() - int64(length)*src.TimeStep/2
	start := ChunkStartIndex(src.TimesMs, targetStart, length)

	data := make([]float64, nFreqs*length)
	for row := 0; row < nFreqs; row++ {
		copy(data[row*length:(row+1)*length], src.Levels.Row(row)[start:start+length])
	}

	dw := int64(length) * src.TimeStep
	if src.TimeStep <= 0 && length > 0 {
		dw = src.TimesMs[start+length-1] - src.TimesMs[start]
	}

	var x int64
	if length > 0 {
		x = src.TimesMs[start]
	}

	return Chunk{
		Data:       data,
		Rows:       nFreqs,
		Length:     length,
		StartIndex: start,
		X:          x,
		DW:         dw,
	}
}

// ChunkStartIndex returns the first time bin at or after targetStart, moved
// back so that a chunk of length bins never reads past the end of times.
func ChunkStartIndex(times []int64, targetStart int64, length int) int {
	last := max(0, len(times)-length)

	idx := FirstIndexGreaterOrEqual(times, targetStart)
	if idx < 0 {
		return last
	}
	return min(idx, last)
}

// FrequencyBand returns the rows of freqs inside the range. It fails when the
// range is nil or no row falls inside it.
func FrequencyBand(freqs []float64, fr *FrequencyRange) (int, int, bool) {
	if fr == nil {
		return 0, 0, false
	}
	start := FirstIndexGreaterOrEqual(freqs, fr.Min())
	end := LastIndexLessOrEqual(freqs, fr.Max())
	if start < 0 || end < start {
		return 0, 0, false
	}
	return start, end, true
}

// buildSpectrogramWindow runs both extraction stages for one position.
func (e *Engine) buildSpectrogramWindow(position, parameter string, src *spectrum.SpectralSource, outcome SelectionOutcome, vp spectrum.Viewport, offset int64) *SpectrogramWindow {
	chunk := ExtractChunk(src, vp, offset)

	w := &SpectrogramWindow{
		Position:  position,
		Parameter: parameter,
		Outcome:   outcome,
		X:         chunk.X + offset,
		DW:        chunk.DW,
		Y:         src.Y,
		DH:        src.DH,
		MinVal:    src.MinVal,
		MaxVal:    src.MaxVal,
		source:    src,
		offset:    offset,
	}

	start, end, ok := FrequencyBand(src.FrequenciesHz, e.config.SpectrogramFrequencyRangeHz)
	if !ok {
		w.Canvas = canvasFromChunk(chunk)
		start, end = 0, chunk.Rows-1
	} else {
		w.Canvas = e.paintFrequencyBand(position, chunk, src.MinVal-transparentMargin, start, end)
		w.Sliced = true
	}

	w.YRangeStart = float64(start) - 0.5
	w.YRangeEnd = float64(end) + 0.5
	w.VisibleFrequencies = make([]FrequencyTick, 0, end-start+1)
	for i := start; i <= end; i++ {
		w.VisibleFrequencies = append(w.VisibleFrequencies, FrequencyTick{
			Index:       i,
			Label:       src.FrequencyLabels[i],
			FrequencyHz: src.FrequenciesHz[i],
		})
	}
	return w
}

// paintFrequencyBand writes rows [start, end] of the chunk into the position's
// canvas at their original row positions. Every other cell is set to the
// sentinel, so the canvas keeps the shape of the full chunk.
func (e *Engine) paintFrequencyBand(position string, chunk Chunk, sentinel float64, start, end int) *Canvas {
	c := e.canvases.GetOrAllocate(position, chunk.Rows, chunk.Length)

	c.fill(sentinel)
	c.sentinel = sentinel
	copy(c.data[start*chunk.Length:(end+1)*chunk.Length], chunk.Data[start*chunk.Length:(end+1)*chunk.Length])
	return c
}

func canvasFromChunk(chunk Chunk) *Canvas {
	c := newCanvas(chunk.Rows, chunk.Length)
	copy(c.data, chunk.Data)
	return c
}
