package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/roman-kulish/acoustic-viewer/internal/spectrum"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

type ImageFormat string

// Config holds the command line options of a single snapshot.
type Config struct {
	DBPath     string
	ConfigFile string
	Position   string // Limits loading and rendering to one position
	Parameter  string
	From, To   *int64 // Viewport bounds, ms since epoch
	Mode       spectrum.Tier
	At         *int64 // Hover timestamp for the frequency bar
	OutputFile string
	Format     ImageFormat
	Theme      ColorTheme
	Verbose    bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Parameter: "LZeq",
		Mode:      spectrum.Overview,
		Format:    ImagePNG,
	}
}

func NewConfigFromCLI() (*Config, error) {
	fs := flag.CommandLine
	c, err := parseFlags(fs, os.Args[1:])
	if err != nil {
		fs.Usage()
		return nil, err
	}
	return c, nil
}

func parseFlags(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var imageFormat, mode, theme, from, to, at string
	fs.StringVar(&c.DBPath, "db", "", "Path to the database file")
	fs.StringVar(&c.ConfigFile, "c", "", "Path to the YAML configuration file")
	fs.StringVar(&c.Position, "position", "", "Show a single position only")
	fs.StringVar(&c.Parameter, "param", c.Parameter, "Spectral parameter, e.g. LZeq")
	fs.StringVar(&from, "from", "", "Viewport start (RFC3339 or ms since epoch)")
	fs.StringVar(&to, "to", "", "Viewport end (RFC3339 or ms since epoch)")
	fs.StringVar(&mode, "mode", c.Mode.String(), "View mode. [overview, log]")
	fs.StringVar(&at, "at", "", "Frequency bar timestamp (RFC3339 or ms since epoch)")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	fs.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	fs.StringVar(&theme, "theme", "", "Color theme. [classic, grayscale, jungle, thermal, marine, viridis]")
	fs.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	imageFormat = strings.ToLower(imageFormat)

	var err error
	if c.DBPath == "" {
		return nil, errors.New("db path is required")
	}
	if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		return nil, fmt.Errorf("invalid image format: %s", imageFormat)
	}
	if c.Mode, err = spectrum.ParseTier(strings.ToLower(mode)); err != nil {
		return nil, fmt.Errorf("invalid mode: %w", err)
	}
	if theme != "" {
		if c.Theme, err = ParseColorTheme(theme); err != nil {
			return nil, err
		}
	}

	for _, ts := range []struct {
		name  string
		value string
		dst   **int64
	}{
		{"from", from, &c.From},
		{"to", to, &c.To},
		{"at", at, &c.At},
	} {
		if ts.value == "" {
			continue
		}
		ms, err := parseTimestamp(ts.value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s timestamp: %w", ts.name, err)
		}
		*ts.dst = &ms
	}

	if c.From != nil && c.To != nil && *c.To <= *c.From {
		return nil, errors.New("viewport end must be after its start")
	}

	c.Format = ImageFormat(imageFormat)
	if c.OutputFile != "" {
		c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	}
	return c, nil
}

// parseTimestamp accepts milliseconds since epoch or an RFC3339 time.
func parseTimestamp(s string) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}
