package app

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/roman-kulish/acoustic-viewer/internal/window"
)

const (
	dpi            = 120.0
	fontSize       = 8.0
	tickMarkLength = 5
	pixelsPerLabel = 150.0

	defaultPlotWidth  = 1200
	defaultPlotHeight = 480

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 110
	defaultBottomBorder = 40
	defaultRightBorder  = 40

	defaultTimeFormat     = "15:04:05"
	defaultDatetimeFormat = time.DateTime
)

var errNothingToRender = errors.New("spectrogram window has no canvas")

// BorderConfig defines the sizes of white space around the spectrogram
type BorderConfig struct {
	Top    int // Space for time scale
	Left   int // Space for frequency scale
	Bottom int // Space for information bar
	Right  int // Right padding
}

// RenderConfig holds all configuration options for spectrogram snapshots
type RenderConfig struct {
	// Time display configuration
	TimeFormat     string
	DatetimeFormat string
	Location       *time.Location

	// Visual configuration
	FontSize     float64
	ColorTheme   ColorTheme
	ColorMapSize int

	// Target plot area; every cell is scaled by a whole number of pixels
	PlotWidth  int
	PlotHeight int

	// Level percentiles the color map spans
	LowerPercentile float64
	UpperPercentile float64

	BorderConfig BorderConfig
}

// SpectrogramRenderer draws spectrogram windows into images
type SpectrogramRenderer struct {
	config RenderConfig
}

func NewSpectrogramRenderer(config RenderConfig) (*SpectrogramRenderer, error) {
	if config.TimeFormat == "" {
		config.TimeFormat = defaultTimeFormat
	}
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.ColorTheme == "" {
		config.ColorTheme = ViridisTheme
	}
	if config.PlotWidth == 0 {
		config.PlotWidth = defaultPlotWidth
	}
	if config.PlotHeight == 0 {
		config.PlotHeight = defaultPlotHeight
	}
	if config.UpperPercentile == 0 {
		config.LowerPercentile = defaultLowerPercentile
		config.UpperPercentile = defaultUpperPercentile
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	return &SpectrogramRenderer{config: config}, nil
}

// plotGeometry maps canvas cells to pixels. Row 0 is the lowest frequency and
// is drawn at the bottom.
type plotGeometry struct {
	area         image.Rectangle
	cellW, cellH int
	rows, cols   int
}

func (g plotGeometry) cell(row, col int) image.Rectangle {
	x := g.area.Min.X + col*g.cellW
	y := g.area.Min.Y + (g.rows-1-row)*g.cellH
	return image.Rect(x, y, x+g.cellW, y+g.cellH)
}

// Render creates an annotated image of the window. Cells of frequency rows
// outside the configured band stay transparent.
func (r *SpectrogramRenderer) Render(w *window.SpectrogramWindow) (*image.RGBA, error) {
	if w == nil || w.Canvas == nil || w.Canvas.Len() == 0 {
		return nil, errNothingToRender
	}

	rows, cols := w.Canvas.Rows(), w.Canvas.Cols()
	geo := plotGeometry{
		cellW: max(1, r.config.PlotWidth/cols),
		cellH: max(1, r.config.PlotHeight/rows),
		rows:  rows,
		cols:  cols,
	}

	b := r.config.BorderConfig
	fullWidth := geo.cellW*cols + b.Left + b.Right
	fullHeight := geo.cellH*rows + b.Top + b.Bottom
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))

	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	geo.area = image.Rect(b.Left, b.Top, b.Left+geo.cellW*cols, b.Top+geo.cellH*rows)
	draw.Draw(img, geo.area, image.Transparent, image.Point{}, draw.Src)

	bounds := NewLevelBounds(w, r.config.LowerPercentile, r.config.UpperPercentile)
	colorMap := NewColorMapper(r.config.ColorMapSize, r.config.ColorTheme, bounds)

	ann, err := newAnnotator(annotatorConfig{
		TimeFormat:     r.config.TimeFormat,
		DatetimeFormat: r.config.DatetimeFormat,
		Location:       r.config.Location,
		FontSize:       r.config.FontSize,
		Borders:        b,
	})
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	if err = ann.annotate(img, geo, w, bounds); err != nil {
		return nil, fmt.Errorf("drawing annotations: %w", err)
	}

	r.renderCanvas(img, geo, w.Canvas, colorMap)

	return img, nil
}

func (r *SpectrogramRenderer) renderCanvas(img *image.RGBA, geo plotGeometry, c *window.Canvas, colorMap *ColorMapper) {
	for row := 0; row < geo.rows; row++ {
		for col := 0; col < geo.cols; col++ {
			if c.IsTransparent(row, col) {
				continue
			}
			clr := colorMap.GetColor(c.At(row, col))
			draw.Draw(img, geo.cell(row, col), image.NewUniform(clr), image.Point{}, draw.Src)
		}
	}
}

type annotatorConfig struct {
	TimeFormat     string
	DatetimeFormat string
	Location       *time.Location
	FontSize       float64
	Borders        BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, geo plotGeometry, w *window.SpectrogramWindow, bounds LevelBounds) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawFrequencyScale(img, geo, w); err != nil {
		return fmt.Errorf("drawing frequency scale: %w", err)
	}
	if err := a.drawTimeScale(img, geo, w); err != nil {
		return fmt.Errorf("drawing time scale: %w", err)
	}
	if err := a.drawInfoBar(img, w, bounds); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}

	return nil
}

func (a *annotator) fontHeight() int {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

// drawFrequencyScale labels the visible frequency rows, skipping rows so that
// labels never overlap.
func (a *annotator) drawFrequencyScale(img *image.RGBA, geo plotGeometry, w *window.SpectrogramWindow) error {
	fontHeight := a.fontHeight()
	every := max(1, (fontHeight+4+geo.cellH-1)/geo.cellH)
	descent := a.fontFace.Metrics().Descent.Round()

	for i, tick := range w.VisibleFrequencies {
		if i%every != 0 {
			continue
		}

		cell := geo.cell(tick.Index, 0)
		y := (cell.Min.Y + cell.Max.Y) / 2

		for x := geo.area.Min.X - tickMarkLength; x < geo.area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		width := font.MeasureString(a.fontFace, tick.Label).Round()
		pt := freetype.Pt(geo.area.Min.X-tickMarkLength-3-width, y+fontHeight/2-descent)
		if _, err := a.context.DrawString(tick.Label, pt); err != nil {
			return fmt.Errorf("drawing frequency label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawTimeScale(img *image.RGBA, geo plotGeometry, w *window.SpectrogramWindow) error {
	if w.DW <= 0 {
		return nil
	}

	width := geo.area.Dx()
	step := calculateNiceTimeStep(w.DW, width)
	textY := a.config.Borders.Top - tickMarkLength - 4

	first := (w.X + step - 1) / step * step
	for t := first; t <= w.X+w.DW; t += step {
		x := geo.area.Min.X + int(float64(t-w.X)/float64(w.DW)*float64(width))

		for y := a.config.Borders.Top - tickMarkLength; y < a.config.Borders.Top; y++ {
			img.Set(x, y, color.Black)
		}

		label := time.UnixMilli(t).In(a.config.Location).Format(a.config.TimeFormat)
		labelWidth := font.MeasureString(a.fontFace, label).Round()
		pt := freetype.Pt(x-labelWidth/2, textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing time label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, w *window.SpectrogramWindow, bounds LevelBounds) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s: %s", w.Position, w.Parameter, w.Outcome.Describe()))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Time: %s - %s",
		time.UnixMilli(w.X).In(a.config.Location).Format(a.config.DatetimeFormat),
		time.UnixMilli(w.X+w.DW).In(a.config.Location).Format(a.config.DatetimeFormat)))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Levels: %.1f - %.1f dB", bounds.Min, bounds.Max))

	metrics := a.fontFace.Metrics()
	textY := img.Bounds().Max.Y - (a.config.Borders.Bottom-a.fontHeight())/2 - metrics.Descent.Round()

	pt := freetype.Pt(a.config.Borders.Left, textY)
	if _, err := a.context.DrawString(sb.String(), pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

// calculateNiceTimeStep picks a round label interval in milliseconds for a
// span drawn over width pixels.
func calculateNiceTimeStep(spanMs int64, width int) int64 {
	desired := max(1, float64(width)/pixelsPerLabel)
	roughStep := float64(spanMs) / desired

	niceIntervals := []int64{
		1_000,      // 1 second
		5_000,      // 5 seconds
		10_000,     // 10 seconds
		30_000,     // 30 seconds
		60_000,     // 1 minute
		300_000,    // 5 minutes
		600_000,    // 10 minutes
		900_000,    // 15 minutes
		1_800_000,  // 30 minutes
		3_600_000,  // 1 hour
		7_200_000,  // 2 hours
		14_400_000, // 4 hours
		43_200_000, // 12 hours
		86_400_000, // 1 day
	}

	for _, interval := range niceIntervals {
		if roughStep <= float64(interval) {
			return interval
		}
	}
	return 7 * 86_400_000
}
