package storage

import (
	"context"
	"errors"

	"github.com/roman-kulish/acoustic-viewer/internal/spectrum"
)

// ErrNoData indicates that nothing is stored for the requested position.
var ErrNoData = errors.New("no data available")

// SourceProvider supplies both resolution tiers of every position. Arrays it
// returns are sorted by time and internally consistent.
type SourceProvider interface {
	// Positions returns the names of all positions in sorted order.
	Positions(ctx context.Context) ([]string, error)

	// LoadPosition reads every time series and spectrogram of one position.
	//
	// Returns ErrNoData if the position does not exist.
	LoadPosition(ctx context.Context, position string) (*spectrum.PositionSource, error)

	// LoadSources reads every position.
	LoadSources(ctx context.Context) (spectrum.Sources, error)

	// Close releases all database connections. It is safe to call Close multiple times.
	Close() error
}
