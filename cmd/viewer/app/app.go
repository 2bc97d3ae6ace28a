package app

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roman-kulish/acoustic-viewer/internal/spectrum"
	"github.com/roman-kulish/acoustic-viewer/internal/storage"
	"github.com/roman-kulish/acoustic-viewer/internal/window"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger, level *slog.LevelVar) (err error) {
	if _, err = os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	fileConfig, err := LoadConfig(config.ConfigFile)
	if err != nil {
		return err
	}

	lvl, err := fileConfig.Settings.Level()
	if err != nil {
		return err
	}
	if config.Verbose {
		lvl = slog.LevelDebug
	}
	if level != nil {
		level.Set(lvl)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer func() {
		if cErr := store.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	sources, err := loadSources(ctx, store, config.Position)
	if err != nil {
		return fmt.Errorf("loading sources: %w", err)
	}

	reg := prometheus.NewRegistry()
	metrics, err := window.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	engine, err := window.NewEngine(fileConfig.Engine, window.WithLogger(logger), window.WithMetrics(metrics))
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	state, err := newViewState(config, fileConfig, sources, engine.Config())
	if err != nil {
		return err
	}

	logger.Info("view configuration",
		slog.String("mode", state.Mode.String()),
		slog.String("parameter", state.Parameter),
		slog.String("from", time.UnixMilli(state.Viewport.Min).Format(time.DateTime)),
		slog.String("to", time.UnixMilli(state.Viewport.Max).Format(time.DateTime)),
		slog.Int("positions", len(sources)))

	cache := window.NewDataCache()
	details := engine.UpdateActiveData(state, cache, sources)
	logDetails(logger, details, cache)

	if step, ok := engine.CalculateStepSize(state, cache); ok {
		state.StepSize = step
		logger.Info("navigation step",
			slog.String("position", state.ActivePosition),
			slog.Duration("step", time.Duration(step)*time.Millisecond))
	}

	if config.At != nil {
		state.Interaction = &window.Interaction{
			Position:  state.ActivePosition,
			Timestamp: *config.At,
			Source:    window.Hover,
		}
		engine.UpdateActiveFreqBarData(state, cache)
		logFreqBar(logger, cache.FreqBar)
	}

	if config.OutputFile != "" {
		if err = renderSnapshot(config, fileConfig, cache.ActiveSpec[state.ActivePosition], logger); err != nil {
			return err
		}
	}

	return logMetrics(logger, reg)
}

func loadSources(ctx context.Context, store storage.SourceProvider, position string) (spectrum.Sources, error) {
	if position == "" {
		return store.LoadSources(ctx)
	}

	ps, err := store.LoadPosition(ctx, position)
	if err != nil {
		return nil, err
	}
	return spectrum.Sources{position: ps}, nil
}

// newViewState builds the state of a viewer that has just opened the data:
// every chart visible unless the file says otherwise, the viewport spanning
// all data unless given on the command line.
func newViewState(config *Config, fileConfig *FileConfig, sources spectrum.Sources, engineConfig window.Config) (window.ViewState, error) {
	state := window.ViewState{
		Mode:           config.Mode,
		Parameter:      config.Parameter,
		Visibility:     make(map[string]window.ChartVisibility),
		ActivePosition: config.Position,
	}

	positions := sources.Positions()
	if len(positions) == 0 {
		return state, storage.ErrNoData
	}
	if state.ActivePosition == "" {
		state.ActivePosition = positions[0]
	}

	for _, position := range positions {
		vis, ok := fileConfig.Visibility[position]
		if !ok {
			vis = window.ChartVisibility{Line: true, Spectrogram: true}
		}
		state.Visibility[position] = vis
	}

	extent, ok := dataExtent(sources, config.Parameter, engineConfig)
	if !ok {
		return state, fmt.Errorf("no overview data: %w", storage.ErrNoData)
	}
	state.Viewport = extent
	if config.From != nil {
		state.Viewport.Min = *config.From
	}
	if config.To != nil {
		state.Viewport.Max = *config.To
	}
	if !state.Viewport.Valid() {
		return state, fmt.Errorf("invalid viewport [%d, %d]", state.Viewport.Min, state.Viewport.Max)
	}
	return state, nil
}

// dataExtent returns the display time span of the overview tier across all positions.
func dataExtent(sources spectrum.Sources, parameter string, engineConfig window.Config) (spectrum.Viewport, bool) {
	var vp spectrum.Viewport
	found := false

	extend := func(first, last int64) {
		if !found {
			vp = spectrum.Viewport{Min: first, Max: last}
			found = true
			return
		}
		vp.Min = min(vp.Min, first)
		vp.Max = max(vp.Max, last)
	}

	for _, position := range sources.Positions() {
		ps := sources[position]
		offset := engineConfig.Offset(position)

		if ts := ps.SeriesFor(spectrum.Overview); ts != nil {
			extend(ts.Datetime[0]+offset, ts.Datetime[ts.Len()-1]+offset)
		}
		if src := ps.SpectralFor(spectrum.Overview, parameter); src != nil {
			if first, last, ok := src.Span(); ok {
				extend(first+offset, last+offset)
			}
		}
	}
	return vp, found
}

func logDetails(logger *slog.Logger, details map[string]window.DisplayDetails, cache *window.DataCache) {
	for position, d := range details {
		var attrs []any
		if d.Line != nil {
			points := 0
			if w := cache.ActiveLine[position]; w != nil {
				points = w.Data.Len()
			}
			attrs = append(attrs, slog.Group("line",
				slog.String("type", d.Line.Type),
				slog.String("reason", d.Line.Reason),
				slog.String("points", humanize.Comma(int64(points)))))
		}
		if d.Spec != nil {
			var cells int
			if w := cache.ActiveSpec[position]; w != nil && w.Canvas != nil {
				cells = w.Canvas.Len()
			}
			attrs = append(attrs, slog.Group("spectrogram",
				slog.String("type", d.Spec.Type),
				slog.String("reason", d.Spec.Reason),
				slog.String("cells", humanize.Comma(int64(cells)))))
		}
		logger.Info("position "+position, attrs...)
	}
}

func logFreqBar(logger *slog.Logger, bar *window.FreqBar) {
	if bar.Empty() {
		logger.Info("frequency bar is empty")
		return
	}

	peak := bar.Bins[0]
	for _, bin := range bar.Bins[1:] {
		if bin.Value > peak.Value {
			peak = bin
		}
	}

	logger.Info("frequency bar",
		slog.String("position", bar.Position),
		slog.String("parameter", bar.Parameter),
		slog.String("timestamp", time.UnixMilli(bar.Timestamp).Format(time.DateTime)),
		slog.String("source", bar.Source.String()),
		slog.Int("bins", len(bar.Bins)),
		slog.Group("peak",
			slog.String("frequency", peak.Label),
			slog.String("level", fmt.Sprintf("%0.1fdB", peak.Value))))
}

func renderSnapshot(config *Config, fileConfig *FileConfig, w *window.SpectrogramWindow, logger *slog.Logger) (err error) {
	loc, err := time.LoadLocation(fileConfig.Render.TimeZone)
	if err != nil {
		return fmt.Errorf("loading time zone: %w", err)
	}

	theme := fileConfig.Render.Theme
	if config.Theme != "" {
		theme = config.Theme
	}

	renderer, err := NewSpectrogramRenderer(RenderConfig{
		Location:        loc,
		FontSize:        fileConfig.Render.FontSize,
		ColorTheme:      theme,
		ColorMapSize:    fileConfig.Render.ColorMapSize,
		PlotWidth:       fileConfig.Render.Width,
		PlotHeight:      fileConfig.Render.Height,
		LowerPercentile: fileConfig.Render.LowerPercentile,
		UpperPercentile: fileConfig.Render.UpperPercentile,
	})
	if err != nil {
		return fmt.Errorf("creating spectrogram renderer: %w", err)
	}

	img, err := renderer.Render(w)
	if err != nil {
		return fmt.Errorf("rendering spectrogram: %w", err)
	}

	logger.Info("rendering spectrogram",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(theme)),
			slog.Int("width", img.Bounds().Dx()),
			slog.Int("height", img.Bounds().Dy()),
		))

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	return encodeImage(out, img, config.Format)
}

func encodeImage(out *os.File, img image.Image, format ImageFormat) error {
	switch format {
	case ImageJPEG:
		return jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	default:
		return png.Encode(out, img)
	}
}

// logMetrics writes every non-zero engine counter at debug level.
func logMetrics(logger *slog.Logger, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	for _, family := range families {
		for _, m := range family.GetMetric() {
			value := m.GetCounter().GetValue()
			if value == 0 {
				continue
			}

			attrs := []any{slog.String("metric", family.GetName()), slog.Float64("value", value)}
			for _, label := range m.GetLabel() {
				attrs = append(attrs, slog.String(label.GetName(), label.GetValue()))
			}
			logger.Debug("metric", attrs...)
		}
	}
	return nil
}
