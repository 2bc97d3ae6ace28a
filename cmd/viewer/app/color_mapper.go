package app

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	ClassicTheme   ColorTheme = "classic"   // Blue to red transition
	GrayscaleTheme ColorTheme = "grayscale" // Black to white transition
	JungleTheme    ColorTheme = "jungle"    // Dark green to yellow transition
	ThermalTheme   ColorTheme = "thermal"   // Black to red to yellow to white
	MarineTheme    ColorTheme = "marine"    // Deep blue to cyan to white
	ViridisTheme   ColorTheme = "viridis"   // Purple to green to yellow

	DefaultColorMapSize = 256
)

// ColorTheme represents a predefined color scheme for level visualization.
type ColorTheme string

var validColorThemes = map[ColorTheme]struct{}{
	ClassicTheme:   {},
	GrayscaleTheme: {},
	JungleTheme:    {},
	ThermalTheme:   {},
	MarineTheme:    {},
	ViridisTheme:   {},
}

func ParseColorTheme(s string) (ColorTheme, error) {
	theme := ColorTheme(strings.ToLower(s))
	if _, ok := validColorThemes[theme]; !ok {
		return "", fmt.Errorf("invalid color theme: %s", s)
	}
	return theme, nil
}

// InvalidLevelColor is used for cells without a level.
var InvalidLevelColor color.Color = color.RGBA{A: 0xff}

// ColorMapper maps levels to colors through a pre-computed lookup table.
type ColorMapper struct {
	colorMap      []color.Color
	bounds        LevelBounds
	theme         func(float64) color.Color
	size          int
	levelPerIndex float64
}

func NewColorMapper(size int, theme ColorTheme, bounds LevelBounds) *ColorMapper {
	if size < 2 {
		size = DefaultColorMapSize
	}

	cm := &ColorMapper{
		colorMap: make([]color.Color, size),
		theme:    GetColorTheme(theme),
		size:     size,
	}
	cm.UpdateBounds(bounds)
	return cm
}

func (cm *ColorMapper) UpdateBounds(bounds LevelBounds) {
	cm.bounds = bounds
	cm.levelPerIndex = (bounds.Max - bounds.Min) / float64(cm.size-1)

	for i := 0; i < cm.size; i++ {
		cm.colorMap[i] = cm.theme(float64(i) / float64(cm.size-1))
	}
}

// GetColor returns the color of a level, clamped to the bounds. NaN maps to
// InvalidLevelColor.
func (cm *ColorMapper) GetColor(level float64) color.Color {
	if math.IsNaN(level) {
		return InvalidLevelColor
	}
	if cm.levelPerIndex <= 0 {
		return cm.colorMap[0]
	}

	level = math.Max(cm.bounds.Min, math.Min(level, cm.bounds.Max))
	index := int((level - cm.bounds.Min) / cm.levelPerIndex)
	return cm.colorMap[min(max(index, 0), cm.size-1)]
}

func hsv(h, s, v float64) color.Color {
	return colorful.Hsv(math.Mod(h+360, 360), clamp01(s), clamp01(v)).Clamped()
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// gradient blends between evenly spaced stops in the HCL space.
func gradient(stops ...colorful.Color) func(float64) color.Color {
	return func(level float64) color.Color {
		level = clamp01(level)
		pos := level * float64(len(stops)-1)
		i := min(int(pos), len(stops)-2)
		return stops[i].BlendHcl(stops[i+1], pos-float64(i)).Clamped()
	}
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// GetColorTheme returns predefined color themes
func GetColorTheme(theme ColorTheme) func(float64) color.Color {
	switch theme {
	case ClassicTheme: // Blue -> Red
		return func(level float64) color.Color {
			return hsv(240-(level*240), 0.9+(level*0.1), math.Pow(level, 0.7))
		}

	case GrayscaleTheme: // Black -> White
		return func(level float64) color.Color {
			v := math.Pow(level, 0.7)
			return colorful.Color{R: v, G: v, B: v}.Clamped()
		}

	case JungleTheme: // Dark Green -> Yellow
		return func(level float64) color.Color {
			return hsv(120-(level*60), 1.0, 0.3+(math.Pow(level, 0.6)*0.7))
		}

	case ThermalTheme: // Black -> Red -> Yellow -> White
		return gradient(
			colorful.Color{},
			colorful.Color{R: 1},
			colorful.Color{R: 1, G: 1},
			colorful.Color{R: 1, G: 1, B: 1},
		)

	case MarineTheme: // Deep Blue -> Cyan -> White
		return func(level float64) color.Color {
			return hsv(240-(level*60), 1.0-(level*0.8), 0.3+(math.Pow(level, 0.6)*0.7))
		}

	default: // Viridis
		return gradient(
			mustHex("#440154"),
			mustHex("#3b528b"),
			mustHex("#21918c"),
			mustHex("#5ec962"),
			mustHex("#fde725"),
		)
	}
}
