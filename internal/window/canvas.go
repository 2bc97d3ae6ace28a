package window

import (
	"log/slog"
	"math"
	"sync"
)

// Canvas is a fixed size image of levels, rows are frequency bins and columns
// are time bins. The backing slice never leaves the package; renderers read
// through At.
type Canvas struct {
	data     []float64
	rows     int
	cols     int
	sentinel float64 // Transparent marker, NaN when the canvas has no hidden rows
}

func newCanvas(rows, cols int) *Canvas {
	return &Canvas{
		data:     make([]float64, rows*cols),
		rows:     rows,
		cols:     cols,
		sentinel: math.NaN(),
	}
}

func (c *Canvas) Rows() int { return c.rows }
func (c *Canvas) Cols() int { return c.cols }
func (c *Canvas) Len() int  { return len(c.data) }

// At returns the level of a frequency row at a time column.
func (c *Canvas) At(row, col int) float64 {
	return c.data[row*c.cols+col]
}

// Sentinel returns the value marking transparent cells.
func (c *Canvas) Sentinel() float64 {
	return c.sentinel
}

// IsTransparent reports whether the cell belongs to a hidden frequency row.
func (c *Canvas) IsTransparent(row, col int) bool {
	return !math.IsNaN(c.sentinel) && c.At(row, col) == c.sentinel
}

// values copies the cells into dst, growing it if needed, and returns it.
func (c *Canvas) values(dst []float64) []float64 {
	if cap(dst) < len(c.data) {
		dst = make([]float64, len(c.data))
	}
	dst = dst[:len(c.data)]
	copy(dst, c.data)
	return dst
}

func (c *Canvas) fill(v float64) {
	for i := range c.data {
		c.data[i] = v
	}
}

// canvasKey identifies a canvas by position and unsliced chunk length, so
// the log and overview chunks of one position keep separate canvases.
type canvasKey struct {
	position string
	length   int
}

// CanvasArena keeps one canvas per position and chunk length and hands the
// same canvas back as long as the requested shape does not change.
type CanvasArena struct {
	mu       sync.Mutex
	canvases map[canvasKey]*Canvas
	logger   *slog.Logger
	metrics  *Metrics
}

func NewCanvasArena(logger *slog.Logger, metrics *Metrics) *CanvasArena {
	return &CanvasArena{
		canvases: make(map[canvasKey]*Canvas),
		logger:   logger,
		metrics:  metrics,
	}
}

// GetOrAllocate returns the canvas of the position for a rows x cols chunk. A
// canvas of the same length but a different shape is discarded and replaced.
// Contents of a reused canvas are stale and must be overwritten in full by
// the caller.
func (a *CanvasArena) GetOrAllocate(position string, rows, cols int) *Canvas {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := canvasKey{position: position, length: rows * cols}
	c, ok := a.canvases[key]
	if ok && c.rows == rows && c.cols == cols {
		a.metrics.canvasReused(position)
		return c
	}
	if ok {
		a.logger.Warn("canvas shape changed, reallocating",
			slog.String("position", position),
			slog.Int("length", key.length),
			slog.Int("oldRows", c.rows),
			slog.Int("newRows", rows))
	}

	c = newCanvas(rows, cols)
	a.canvases[key] = c
	a.metrics.canvasAllocated(position)
	return c
}

// Release drops every canvas of the position.
func (a *CanvasArena) Release(position string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for key := range a.canvases {
		if key.position == position {
			delete(a.canvases, key)
		}
	}
}

func (a *CanvasArena) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.canvases)
}
