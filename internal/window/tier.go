package window

import (
	"fmt"
	"math"

	"github.com/roman-kulish/acoustic-viewer/internal/spectrum"
)

// ReasonCode explains why a tier was selected. The set is closed; text is
// produced by SelectionOutcome.Describe only when a caption is needed.
type ReasonCode int

const (
	ReasonLogData              ReasonCode = iota // Log tier selected
	ReasonExplicitOverview                       // Global view mode is overview
	ReasonNoLogData                              // No log tier for this position or parameter
	ReasonViewportTooWide                        // Viewport wider than MaxLogViewportSeconds
	ReasonTooManyPoints                          // Log data in view exceeds the render cap
	ReasonInsufficientCoverage                   // Log spectra cover too little of the viewport
	ReasonNoDataInView                           // Range search found nothing, whole overview shown
	ReasonNoData                                 // Neither tier has data
	ReasonFailed                                 // Extraction failed unexpectedly
)

var reasonNames = map[ReasonCode]string{
	ReasonLogData:              "log_data",
	ReasonExplicitOverview:     "explicit_overview",
	ReasonNoLogData:            "no_log_data",
	ReasonViewportTooWide:      "viewport_too_wide",
	ReasonTooManyPoints:        "too_many_points",
	ReasonInsufficientCoverage: "insufficient_coverage",
	ReasonNoDataInView:         "no_data_in_view",
	ReasonNoData:               "no_data",
	ReasonFailed:               "failed",
}

func (r ReasonCode) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// ReasonParams carries the numbers a caption may quote.
type ReasonParams struct {
	ThresholdSeconds int     // MaxLogViewportSeconds in effect
	Points           int     // Log points or time bins in view
	Cap              int     // Render cap in effect
	Coverage         float64 // Share of the viewport covered by log data
}

// SelectionOutcome is the result of a tier decision.
type SelectionOutcome struct {
	Tier   spectrum.Tier
	Reason ReasonCode
	Params ReasonParams
}

// Describe renders the human readable caption of the outcome.
func (o SelectionOutcome) Describe() string {
	switch o.Reason {
	case ReasonLogData:
		return "log data"
	case ReasonExplicitOverview:
		return "overview (explicit)"
	case ReasonNoLogData:
		return "no log data available"
	case ReasonViewportTooWide:
		return fmt.Sprintf("zoom in to %s for log", spectrum.FormatThreshold(o.Params.ThresholdSeconds))
	case ReasonTooManyPoints:
		return "zoom in for log data"
	case ReasonInsufficientCoverage:
		return fmt.Sprintf("log data covers %d%% of view", int(math.Floor(o.Params.Coverage*100+1e-9)))
	case ReasonNoDataInView:
		return "no data in view"
	case ReasonNoData:
		return "no data"
	default:
		return "failed"
	}
}

// LineSelectionInput describes one line chart decision. Viewport is already
// shifted back by the position offset into source time.
type LineSelectionInput struct {
	Mode     spectrum.Tier
	Viewport spectrum.Viewport
	Log      *spectrum.TimeSeries // nil when the position has no log tier
}

// SpectrogramSelectionInput describes one spectrogram decision.
type SpectrogramSelectionInput struct {
	Mode     spectrum.Tier
	Viewport spectrum.Viewport
	Log      *spectrum.SpectralSource // nil when the parameter has no log tier
}

// SelectLineTier picks the tier of a time series chart. Rules apply in order
// and the first match wins: explicit mode, availability, viewport width, density.
func SelectLineTier(cfg Config, in LineSelectionInput) SelectionOutcome {
	if out, done := selectByAvailability(cfg, in.Mode, in.Viewport, in.Log != nil && in.Log.Len() > 0); done {
		return out
	}

	points := CountInRange(in.Log.Datetime, in.Viewport.Min, in.Viewport.Max)
	if points > cfg.LineRenderCap {
		return SelectionOutcome{
			Tier:   spectrum.Overview,
			Reason: ReasonTooManyPoints,
			Params: ReasonParams{Points: points, Cap: cfg.LineRenderCap},
		}
	}

	return SelectionOutcome{Tier: spectrum.Log, Reason: ReasonLogData, Params: ReasonParams{Points: points}}
}

// SelectSpectrogramTier picks the tier of a spectrogram. Coverage of the
// viewport by the log tier is checked before the number of time bins.
func SelectSpectrogramTier(cfg Config, in SpectrogramSelectionInput) SelectionOutcome {
	if out, done := selectByAvailability(cfg, in.Mode, in.Viewport, in.Log != nil && in.Log.NTimes() > 0); done {
		return out
	}

	coverage := CoverageRatio(in.Viewport, in.Log)
	if coverage < cfg.MinCoverageRatio {
		return SelectionOutcome{
			Tier:   spectrum.Overview,
			Reason: ReasonInsufficientCoverage,
			Params: ReasonParams{Coverage: coverage},
		}
	}

	bins := theoreticalBins(in.Viewport, in.Log)
	if bins > float64(cfg.SpectralRenderCap) {
		return SelectionOutcome{
			Tier:   spectrum.Overview,
			Reason: ReasonTooManyPoints,
			Params: ReasonParams{Points: int(math.Ceil(bins)), Cap: cfg.SpectralRenderCap, Coverage: coverage},
		}
	}

	return SelectionOutcome{
		Tier:   spectrum.Log,
		Reason: ReasonLogData,
		Params: ReasonParams{Points: int(math.Ceil(bins)), Coverage: coverage},
	}
}

func selectByAvailability(cfg Config, mode spectrum.Tier, vp spectrum.Viewport, hasLog bool) (SelectionOutcome, bool) {
	switch {
	case mode == spectrum.Overview:
		return SelectionOutcome{Tier: spectrum.Overview, Reason: ReasonExplicitOverview}, true

	case !hasLog:
		return SelectionOutcome{Tier: spectrum.Overview, Reason: ReasonNoLogData}, true

	case float64(vp.Span())/1000 > float64(cfg.MaxLogViewportSeconds):
		return SelectionOutcome{
			Tier:   spectrum.Overview,
			Reason: ReasonViewportTooWide,
			Params: ReasonParams{ThresholdSeconds: cfg.MaxLogViewportSeconds},
		}, true
	}
	return SelectionOutcome{}, false
}

// CoverageRatio returns the share of the viewport spanned by the source's time axis.
func CoverageRatio(vp spectrum.Viewport, src *spectrum.SpectralSource) float64 {
	if !vp.Valid() || src == nil {
		return 0
	}
	first, last, ok := src.Span()
	if !ok {
		return 0
	}
	overlap := min(vp.Max, last) - max(vp.Min, first)
	if overlap <= 0 {
		return 0
	}
	return float64(overlap) / float64(vp.Span())
}

// theoreticalBins is the number of time bins the viewport would hold at the
// source's time step, whether or not data exists for all of them. A partial
// bin counts as a fraction.
func theoreticalBins(vp spectrum.Viewport, src *spectrum.SpectralSource) float64 {
	if src.TimeStep <= 0 {
		return float64(CountInRange(src.TimesMs, vp.Min, vp.Max))
	}
	return float64(vp.Span()) / float64(src.TimeStep)
}
