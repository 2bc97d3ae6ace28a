package window

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roman-kulish/acoustic-viewer/internal/spectrum"
)

const (
	chartLine        = "line"
	chartSpectrogram = "spectrogram"

	typeUnknown = "unknown"
	typeNone    = "none"
)

// ChartVisibility says which charts of a position are shown.
type ChartVisibility struct {
	Line        bool `yaml:"line"`
	Spectrogram bool `yaml:"spectrogram"`
}

func (v ChartVisibility) Any() bool {
	return v.Line || v.Spectrogram
}

// Interaction is the hover, tap or audio cursor a frequency bar follows.
type Interaction struct {
	Position  string
	Timestamp int64 // Display time, ms since epoch
	Source    InteractionSource
}

// ViewState is the part of the UI state the engine reads.
type ViewState struct {
	Mode           spectrum.Tier // Global view mode
	Parameter      string        // Selected parameter, e.g. "LZeq"
	Viewport       spectrum.Viewport
	Visibility     map[string]ChartVisibility // By position, absent means hidden
	Interaction    *Interaction
	ActivePosition string // Position keyboard navigation applies to
	StepSize       int64  // Current navigation step in ms
}

// DataCache holds the windows last computed for every position. Renderers read it.
type DataCache struct {
	ActiveLine map[string]*LineWindow
	ActiveSpec map[string]*SpectrogramWindow
	FreqBar    *FreqBar
}

func NewDataCache() *DataCache {
	return &DataCache{
		ActiveLine: make(map[string]*LineWindow),
		ActiveSpec: make(map[string]*SpectrogramWindow),
		FreqBar:    &FreqBar{},
	}
}

// ChartDetails describes what a chart shows, for its caption.
type ChartDetails struct {
	Type   string // "overview", "log", "none" or "unknown"
	Reason string
}

// DisplayDetails describes both charts of a position. A nil field means the chart is hidden.
type DisplayDetails struct {
	Line *ChartDetails
	Spec *ChartDetails
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for recoverable anomalies.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the collectors the engine reports to.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Engine decides, per position, which slice of which tier every visible chart
// shows. One Engine belongs to one viewer; it owns the spectrogram canvases of
// that viewer. Updates of the same DataCache must not overlap.
type Engine struct {
	config   Config
	logger   *slog.Logger
	metrics  *Metrics
	canvases *CanvasArena
}

// NewEngine creates an engine from a validated config, see DefaultConfig.
func NewEngine(config Config, options ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		config: config,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(e)
	}
	e.canvases = NewCanvasArena(e.logger, e.metrics)

	return e, nil
}

func (e *Engine) Config() Config {
	return e.config
}

// UpdateActiveData recomputes the windows of every position with a visible
// chart and stores them in cache. Positions without a visible chart are
// skipped and keep their cache entries. A failure at one position is logged
// and reported as "unknown" without affecting the others.
func (e *Engine) UpdateActiveData(state ViewState, cache *DataCache, sources spectrum.Sources) map[string]DisplayDetails {
	details := make(map[string]DisplayDetails)

	for _, position := range sources.Positions() {
		vis := state.Visibility[position]
		if !vis.Any() {
			continue
		}

		src := sources[position]
		offset := e.config.Offset(position)

		var d DisplayDetails
		if vis.Line {
			d.Line = e.guard(position, state.Parameter, chartLine, func() *ChartDetails {
				return e.updateLine(state, cache, src, offset)
			})
		}
		if vis.Spectrogram {
			d.Spec = e.guard(position, state.Parameter, chartSpectrogram, func() *ChartDetails {
				return e.updateSpectrogram(state, cache, src, offset)
			})
		}
		details[position] = d
	}

	return details
}

// guard turns a panic inside fn into an "unknown" descriptor.
func (e *Engine) guard(position, parameter, chart string, fn func() *ChartDetails) (details *ChartDetails) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extracting window",
				slog.String("position", position),
				slog.String("parameter", parameter),
				slog.String("chart", chart),
				slog.String("error", fmt.Sprint(r)))

			e.metrics.failed(chart)
			details = &ChartDetails{Type: typeUnknown, Reason: SelectionOutcome{Reason: ReasonFailed}.Describe()}
		}
	}()
	return fn()
}

func (e *Engine) updateLine(state ViewState, cache *DataCache, src *spectrum.PositionSource, offset int64) *ChartDetails {
	effective := state.Viewport.Shift(-offset)

	outcome := SelectLineTier(e.config, LineSelectionInput{
		Mode:     state.Mode,
		Viewport: effective,
		Log:      src.SeriesFor(spectrum.Log),
	})

	overview := src.SeriesFor(spectrum.Overview)
	data, fellBack := ExtractLineWindow(src.SeriesFor(outcome.Tier), overview, state.Viewport, offset)
	if fellBack {
		outcome = SelectionOutcome{Tier: spectrum.Overview, Reason: ReasonNoDataInView}
	}
	e.metrics.selected(chartLine, outcome)

	if data == nil {
		delete(cache.ActiveLine, src.Position)
		return &ChartDetails{Type: typeNone, Reason: SelectionOutcome{Reason: ReasonNoData}.Describe()}
	}

	cache.ActiveLine[src.Position] = &LineWindow{
		Position: src.Position,
		Outcome:  outcome,
		Data:     data,
	}
	return &ChartDetails{Type: outcome.Tier.String(), Reason: outcome.Describe()}
}

func (e *Engine) updateSpectrogram(state ViewState, cache *DataCache, src *spectrum.PositionSource, offset int64) *ChartDetails {
	outcome := SelectSpectrogramTier(e.config, SpectrogramSelectionInput{
		Mode:     state.Mode,
		Viewport: state.Viewport.Shift(-offset),
		Log:      src.SpectralFor(spectrum.Log, state.Parameter),
	})

	spectral := src.SpectralFor(outcome.Tier, state.Parameter)
	if spectral == nil && outcome.Tier == spectrum.Log {
		outcome = SelectionOutcome{Tier: spectrum.Overview, Reason: ReasonNoLogData}
		spectral = src.SpectralFor(spectrum.Overview, state.Parameter)
	}
	if spectral == nil {
		outcome = SelectionOutcome{Tier: spectrum.Overview, Reason: ReasonNoData}
		e.metrics.selected(chartSpectrogram, outcome)
		delete(cache.ActiveSpec, src.Position)
		e.canvases.Release(src.Position)
		return &ChartDetails{Type: typeNone, Reason: outcome.Describe()}
	}
	e.metrics.selected(chartSpectrogram, outcome)

	cache.ActiveSpec[src.Position] = e.buildSpectrogramWindow(src.Position, state.Parameter, spectral, outcome, state.Viewport, offset)
	return &ChartDetails{Type: outcome.Tier.String(), Reason: outcome.Describe()}
}
