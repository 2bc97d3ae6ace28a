package window

import (
	"github.com/roman-kulish/acoustic-viewer/internal/spectrum"
)

// lineBufferFactor is the share of the points in view added on each side of the
// window so that small pans do not immediately run off the edge of the data.
const lineBufferFactor = 0.5

// LineWindow is the cached time series slice of one position.
type LineWindow struct {
	Position string
	Outcome  SelectionOutcome
	Data     *spectrum.TimeSeries // Private copy, offset already applied to Datetime
}

// ExtractLineWindow copies the part of series visible in the viewport, padded
// on both sides. The viewport is in display time; offset is subtracted before
// the lookup and added back to the copied Datetime column.
//
// When nothing of series falls inside the viewport the whole overview table is
// returned instead and the second result is true. The result is nil only if
// overview is empty too.
func ExtractLineWindow(series, overview *spectrum.TimeSeries, vp spectrum.Viewport, offset int64) (*spectrum.TimeSeries, bool) {
	effective := vp.Shift(-offset)

	if series.Len() > 0 {
		start := FirstIndexGreaterOrEqual(series.Datetime, effective.Min)
		end := LastIndexLessOrEqual(series.Datetime, effective.Max)

		if start >= 0 && end >= start {
			pointsInView := end - start + 1
			buffer := int(float64(pointsInView) * lineBufferFactor)

			sliceStart := max(0, start-buffer)
			sliceEnd := min(series.Len(), end+buffer+1)
			return copyRows(series, sliceStart, sliceEnd, offset), false
		}
	}

	if overview.Len() == 0 {
		return nil, true
	}
	return copyRows(overview, 0, overview.Len(), offset), true
}

// copyRows copies rows [start, end) of every column. Source arrays are never aliased.
func copyRows(ts *spectrum.TimeSeries, start, end int, offset int64) *spectrum.TimeSeries {
	out := &spectrum.TimeSeries{
		Datetime: make([]int64, end-start),
		Columns:  make(map[string][]float64, len(ts.Columns)),
	}
	for name, col := range ts.Columns {
		values := make([]float64, end-start)
		copy(values, col[start:end])
		out.Columns[name] = values
	}

	copy(out.Datetime, ts.Datetime[start:end])
	if offset != 0 {
		for i := range out.Datetime {
			out.Datetime[i] += offset
		}
	}
	return out
}
