package app

import (
	"context"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/roman-kulish/acoustic-viewer/internal/spectrum"
	"github.com/roman-kulish/acoustic-viewer/internal/storage"
	"github.com/roman-kulish/acoustic-viewer/internal/window"
)

func seedDatabase(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "viewer.db")
	store := storage.NewSqliteStore(dbPath)

	const n = 30
	ts := &spectrum.TimeSeries{
		Datetime: make([]int64, n),
		Columns:  map[string][]float64{"LAeq": make([]float64, n)},
	}
	for i := 0; i < n; i++ {
		ts.Datetime[i] = testStart + int64(i)*1000
		ts.Columns["LAeq"][i] = 40 + float64(i%5)
	}

	data := make([]float64, 3*n)
	for i := range data {
		data[i] = float64(30 + i%40)
	}
	levels, err := spectrum.NewSpectralMatrix(data, 3, n)
	if err != nil {
		t.Fatalf("Failed to create matrix: %v", err)
	}

	src := &spectrum.SpectralSource{
		Levels:        levels,
		TimesMs:       ts.Datetime,
		FrequenciesHz: []float64{125, 250, 500},
	}

	for _, position := range []string{"P1", "P2"} {
		if err = store.StoreTimeSeries(ctx, position, spectrum.Overview, ts); err != nil {
			t.Fatalf("Failed to store series: %v", err)
		}
		if err = store.StoreSpectrum(ctx, position, spectrum.Overview, "LZeq", src); err != nil {
			t.Fatalf("Failed to store spectrum: %v", err)
		}
	}

	if err = store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}
	return dbPath
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_WritesSnapshot(t *testing.T) {
	dbPath := seedDatabase(t)
	out := filepath.Join(t.TempDir(), "snapshot.png")
	at := testStart + 10_000

	config := NewConfig()
	config.DBPath = dbPath
	config.Position = "P2"
	config.OutputFile = out
	config.At = &at

	level := new(slog.LevelVar)
	config.Verbose = true

	if err := Run(context.Background(), config, discardLogger(), level); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if level.Level() != slog.LevelDebug {
		t.Errorf("Expected debug level with -verbose, got %v", level.Level())
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("Failed to open snapshot: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if img.Bounds().Dx() <= defaultLeftBorder+defaultRightBorder {
		t.Errorf("Expected a plot area, got width %d", img.Bounds().Dx())
	}
}

func TestRun_MissingDatabase(t *testing.T) {
	config := NewConfig()
	config.DBPath = filepath.Join(t.TempDir(), "missing.db")

	err := Run(context.Background(), config, discardLogger(), nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got %v", err)
	}
}

func TestRun_UnknownPosition(t *testing.T) {
	config := NewConfig()
	config.DBPath = seedDatabase(t)
	config.Position = "P9"

	err := Run(context.Background(), config, discardLogger(), nil)
	if !errors.Is(err, storage.ErrNoData) {
		t.Errorf("Expected storage.ErrNoData, got %v", err)
	}
}

func TestNewViewState(t *testing.T) {
	p1 := spectrum.NewPositionSource("P1")
	p1.Series[spectrum.Overview] = &spectrum.TimeSeries{Datetime: []int64{1000, 5000}}
	p2 := spectrum.NewPositionSource("P2")
	p2.Series[spectrum.Overview] = &spectrum.TimeSeries{Datetime: []int64{2000, 8000}}
	sources := spectrum.Sources{"P1": p1, "P2": p2}

	fileConfig := NewFileConfig()
	fileConfig.Visibility = map[string]window.ChartVisibility{"P2": {Line: true}}
	engineConfig := window.Config{PositionChartOffsets: map[string]int64{"P2": 1000}}

	config := NewConfig()
	state, err := newViewState(config, fileConfig, sources, engineConfig)
	if err != nil {
		t.Fatalf("Failed to build view state: %v", err)
	}

	if state.ActivePosition != "P1" {
		t.Errorf("Expected first position to be active, got %s", state.ActivePosition)
	}
	if want := (spectrum.Viewport{Min: 1000, Max: 9000}); state.Viewport != want {
		t.Errorf("Expected viewport %+v, got %+v", want, state.Viewport)
	}
	if vis := state.Visibility["P1"]; !vis.Line || !vis.Spectrogram {
		t.Errorf("Expected every P1 chart visible, got %+v", vis)
	}
	if vis := state.Visibility["P2"]; !vis.Line || vis.Spectrogram {
		t.Errorf("Expected only the P2 line chart visible, got %+v", vis)
	}

	from := int64(3000)
	config.From = &from
	if state, err = newViewState(config, fileConfig, sources, engineConfig); err != nil {
		t.Fatalf("Failed to build view state: %v", err)
	}
	if state.Viewport.Min != 3000 || state.Viewport.Max != 9000 {
		t.Errorf("Expected viewport [3000, 9000], got %+v", state.Viewport)
	}

	from = 10_000
	if _, err = newViewState(config, fileConfig, sources, engineConfig); err == nil {
		t.Error("Expected an error for a viewport starting after the data")
	}
}
