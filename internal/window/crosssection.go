package window

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/roman-kulish/acoustic-viewer/internal/spectrum"
)

// InteractionSource tells where a cross-section request came from.
type InteractionSource int

const (
	Hover InteractionSource = iota
	Tap
	Audio
)

func (s InteractionSource) String() string {
	switch s {
	case Hover:
		return "hover"
	case Tap:
		return "tap"
	case Audio:
		return "audio"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// FreqBarBin is the level of one frequency row at the requested instant.
type FreqBarBin struct {
	Index       int
	Label       string
	FrequencyHz float64
	Value       float64
}

// FreqBar is a single-timestamp slice through a spectrogram.
type FreqBar struct {
	Position  string
	Parameter string
	Timestamp int64
	Source    InteractionSource
	Bins      []FreqBarBin
}

// Empty reports whether the bar holds no data and should be drawn blank.
func (f *FreqBar) Empty() bool {
	return f == nil || len(f.Bins) == 0
}

// ExtractCrossSection reads the levels of the last time bin at or before
// timestamp, for the frequency rows inside fr. A nil range, or one that
// matches no row, selects every row. Missing levels read as 0. The second
// result is false when timestamp precedes the data.
func ExtractCrossSection(src *spectrum.SpectralSource, timestamp int64, fr *FrequencyRange) ([]FreqBarBin, bool) {
	if src == nil {
		return nil, false
	}
	timeIdx := LastIndexLessOrEqual(src.TimesMs, timestamp)
	if timeIdx < 0 {
		return nil, false
	}

	start, end, ok := FrequencyBand(src.FrequenciesHz, fr)
	if !ok {
		start, end = 0, src.NFreqs()-1
	}

	bins := make([]FreqBarBin, 0, end-start+1)
	for freqIdx := start; freqIdx <= end; freqIdx++ {
		v := src.Levels.At(freqIdx, timeIdx)
		if math.IsNaN(v) {
			v = 0
		}
		bins = append(bins, FreqBarBin{
			Index:       freqIdx,
			Label:       src.FrequencyLabels[freqIdx],
			FrequencyHz: src.FrequenciesHz[freqIdx],
			Value:       v,
		})
	}
	return bins, true
}

// UpdateActiveFreqBarData recomputes the frequency bar from the interaction
// in state and the spectrogram currently cached for its position. Without an
// interaction, a cached spectrogram or data at the instant the bar is blank.
func (e *Engine) UpdateActiveFreqBarData(state ViewState, cache *DataCache) {
	in := state.Interaction
	if in == nil {
		cache.FreqBar = &FreqBar{}
		return
	}

	bar := &FreqBar{
		Position:  in.Position,
		Parameter: state.Parameter,
		Timestamp: in.Timestamp,
		Source:    in.Source,
	}
	cache.FreqBar = bar

	w, ok := cache.ActiveSpec[in.Position]
	if !ok || w == nil || w.source == nil {
		e.logger.Debug("no spectrogram for frequency bar", slog.String("position", in.Position))
		return
	}
	bar.Parameter = w.Parameter

	bins, ok := ExtractCrossSection(w.source, in.Timestamp-w.offset, e.config.FrequencyBarFrequencyRangeHz)
	if !ok {
		e.logger.Debug("no spectral data at timestamp",
			slog.String("position", in.Position),
			slog.Int64("timestamp", in.Timestamp),
			slog.String("source", in.Source.String()))
		return
	}
	bar.Bins = bins
}
