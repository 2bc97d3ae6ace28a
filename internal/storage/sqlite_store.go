package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/acoustic-viewer/internal/spectrum"
)

// SqliteStore keeps both resolution tiers of every position in a SQLite database
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

var _ SourceProvider = (*SqliteStore)(nil)

// NewSqliteStore returns a store backed by the database file at dbPath.
// Connections are opened lazily; the schema is created on the first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func ensurePosition(ctx context.Context, tx *sql.Tx, position string) (positionID int64, err error) {
	if _, err = tx.ExecContext(ctx, insertPositionSQL, position); err != nil {
		return 0, fmt.Errorf("inserting position: %w", err)
	}
	if err = tx.QueryRowContext(ctx, selectPositionIDSQL, position).Scan(&positionID); err != nil {
		return 0, fmt.Errorf("selecting position: %w", err)
	}
	return
}

// StoreTimeSeries replaces the time series of the position and tier.
// NaN values are stored as NULL.
func (s *SqliteStore) StoreTimeSeries(ctx context.Context, position string, tier spectrum.Tier, ts *spectrum.TimeSeries) (err error) {
	if err = ts.Validate(); err != nil {
		return fmt.Errorf("validating time series: %w", err)
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	positionID, err := ensurePosition(ctx, tx, position)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, deleteSeriesSQL, positionID, tier.String()); err != nil {
		return fmt.Errorf("deleting series: %w", err)
	}

	values := make([]any, 0, ts.Len()*len(ts.Columns)*5)
	for _, name := range ts.ColumnNames() {
		for i, v := range ts.Columns[name] {
			values = append(values, positionID, tier.String(), name, ts.Datetime[i], toNullFloat64(v))
		}
	}

	if err = insertBatched(ctx, tx, insertSeriesSQL, 5, values); err != nil {
		return fmt.Errorf("batch inserting series: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// StoreSpectrum replaces the spectrogram of the position, tier and parameter.
// Missing metadata is derived before storing, see spectrum.SpectralSource.Normalize.
func (s *SqliteStore) StoreSpectrum(ctx context.Context, position string, tier spectrum.Tier, parameter string, src *spectrum.SpectralSource) (err error) {
	data := *src
	data.Normalize()

	if err = data.Validate(); err != nil {
		return fmt.Errorf("validating spectrum: %w", err)
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	positionID, err := ensurePosition(ctx, tx, position)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, deleteSpectrumSQL, positionID, tier.String(), parameter); err != nil {
		return fmt.Errorf("deleting spectrum: %w", err)
	}

	result, err := tx.ExecContext(
		ctx,
		insertSpectrumSQL,
		positionID,
		tier.String(),
		parameter,
		data.NFreqs(),
		data.NTimes(),
		data.TimeStep,
		data.ChunkTimeLength,
		data.MinVal,
		data.MaxVal,
		data.Y,
		data.DH,
	)
	if err != nil {
		return fmt.Errorf("inserting spectrum: %w", err)
	}

	spectrumID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting spectrum ID: %w", err)
	}

	times := make([]any, 0, len(data.TimesMs)*3)
	for i, t := range data.TimesMs {
		times = append(times, spectrumID, i, t)
	}
	if err = insertBatched(ctx, tx, insertSpectrumTimesSQL, 3, times); err != nil {
		return fmt.Errorf("batch inserting times: %w", err)
	}

	freqs := make([]any, 0, len(data.FrequenciesHz)*4)
	for i, hz := range data.FrequenciesHz {
		freqs = append(freqs, spectrumID, i, hz, data.FrequencyLabels[i])
	}
	if err = insertBatched(ctx, tx, insertSpectrumFrequenciesSQL, 4, freqs); err != nil {
		return fmt.Errorf("batch inserting frequencies: %w", err)
	}

	levels := make([]any, 0, len(data.Levels.Data)*4)
	for row := 0; row < data.Levels.Rows; row++ {
		for col, v := range data.Levels.Row(row) {
			// NULL cells are read back as NaN, skip them altogether
			if math.IsNaN(v) {
				continue
			}
			levels = append(levels, spectrumID, row, col, toNullFloat64(v))
		}
	}
	if err = insertBatched(ctx, tx, insertSpectrumLevelsSQL, 4, levels); err != nil {
		return fmt.Errorf("batch inserting levels: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *SqliteStore) Positions(ctx context.Context) (positions []string, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectPositionsSQL)
	if err != nil {
		err = fmt.Errorf("querying positions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			err = fmt.Errorf("scanning position: %w", err)
			return
		}
		positions = append(positions, name)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) LoadPosition(ctx context.Context, position string) (*spectrum.PositionSource, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	var positionID int64
	if err = db.QueryRowContext(ctx, selectPositionIDSQL, position).Scan(&positionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("position '%s': %w", position, ErrNoData)
		}
		return nil, fmt.Errorf("selecting position: %w", err)
	}

	ps := spectrum.NewPositionSource(position)

	if ps.Series, err = loadSeries(ctx, db, positionID); err != nil {
		return nil, err
	}

	spectra, err := loadSpectra(ctx, db, positionID)
	if err != nil {
		return nil, err
	}

	for _, meta := range spectra {
		tier, err := spectrum.ParseTier(meta.Tier)
		if err != nil {
			return nil, fmt.Errorf("spectrum %d: %w", meta.ID, err)
		}

		src, err := loadSpectrum(ctx, db, meta)
		if err != nil {
			return nil, fmt.Errorf("loading %s spectrum '%s': %w", tier, meta.Parameter, err)
		}
		ps.SetSpectral(tier, meta.Parameter, src)
	}

	return ps, nil
}

func (s *SqliteStore) LoadSources(ctx context.Context) (spectrum.Sources, error) {
	positions, err := s.Positions(ctx)
	if err != nil {
		return nil, err
	}

	sources := make(spectrum.Sources, len(positions))
	for _, position := range positions {
		ps, err := s.LoadPosition(ctx, position)
		if err != nil {
			return nil, err
		}
		sources[position] = ps
	}
	return sources, nil
}

// loadSeries pivots the stored points into one TimeSeries per tier. A
// parameter without a value at some timestamp reads as NaN there.
func loadSeries(ctx context.Context, db *sql.DB, positionID int64) (series map[spectrum.Tier]*spectrum.TimeSeries, err error) {
	rows, err := db.QueryContext(ctx, selectSeriesSQL, positionID)
	if err != nil {
		return nil, fmt.Errorf("querying series: %w", err)
	}
	defer closeWithError(rows, &err)

	series = make(map[spectrum.Tier]*spectrum.TimeSeries)
	for rows.Next() {
		var p seriesPointData
		if err = rows.Scan(&p.Tier, &p.Parameter, &p.Timestamp, &p.Value); err != nil {
			return nil, fmt.Errorf("scanning series point: %w", err)
		}

		tier, err := spectrum.ParseTier(p.Tier)
		if err != nil {
			return nil, err
		}

		ts := series[tier]
		if ts == nil {
			ts = &spectrum.TimeSeries{Columns: make(map[string][]float64)}
			series[tier] = ts
		}

		if n := len(ts.Datetime); n == 0 || ts.Datetime[n-1] != p.Timestamp {
			ts.Datetime = append(ts.Datetime, p.Timestamp)
		}

		idx := len(ts.Datetime) - 1
		ts.Columns[p.Parameter] = padNaN(ts.Columns[p.Parameter], idx)
		ts.Columns[p.Parameter] = append(ts.Columns[p.Parameter], fromNullFloat64(p.Value))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating series: %w", err)
	}

	for _, ts := range series {
		for name, col := range ts.Columns {
			ts.Columns[name] = padNaN(col, len(ts.Datetime))
		}
	}
	return series, nil
}

func padNaN(col []float64, n int) []float64 {
	for len(col) < n {
		col = append(col, math.NaN())
	}
	return col
}

func loadSpectra(ctx context.Context, db *sql.DB, positionID int64) (spectra []spectrumData, err error) {
	rows, err := db.QueryContext(ctx, selectSpectraSQL, positionID)
	if err != nil {
		return nil, fmt.Errorf("querying spectra: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var d spectrumData
		if err = rows.Scan(
			&d.ID,
			&d.Tier,
			&d.Parameter,
			&d.NFreqs,
			&d.NTimes,
			&d.TimeStep,
			&d.ChunkTimeLength,
			&d.MinVal,
			&d.MaxVal,
			&d.GlyphY,
			&d.GlyphDH,
		); err != nil {
			return nil, fmt.Errorf("scanning spectrum: %w", err)
		}
		spectra = append(spectra, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating spectra: %w", err)
	}
	return spectra, nil
}

func loadSpectrum(ctx context.Context, db *sql.DB, meta spectrumData) (*spectrum.SpectralSource, error) {
	times, err := loadTimes(ctx, db, meta)
	if err != nil {
		return nil, err
	}

	freqs, err := loadFrequencies(ctx, db, meta)
	if err != nil {
		return nil, err
	}

	data, err := loadLevels(ctx, db, meta)
	if err != nil {
		return nil, err
	}

	levels, err := spectrum.NewSpectralMatrix(data, meta.NFreqs, meta.NTimes)
	if err != nil {
		return nil, err
	}

	src := &spectrum.SpectralSource{
		Levels:          levels,
		TimesMs:         times,
		FrequenciesHz:   make([]float64, len(freqs)),
		FrequencyLabels: make([]string, len(freqs)),
		TimeStep:        meta.TimeStep,
		ChunkTimeLength: meta.ChunkTimeLength,
		MinVal:          meta.MinVal,
		MaxVal:          meta.MaxVal,
		Y:               meta.GlyphY,
		DH:              meta.GlyphDH,
	}
	for i, f := range freqs {
		src.FrequenciesHz[i] = f.Frequency
		src.FrequencyLabels[i] = f.Label
	}

	if err = src.Validate(); err != nil {
		return nil, err
	}
	return src, nil
}

func loadTimes(ctx context.Context, db *sql.DB, meta spectrumData) (times []int64, err error) {
	rows, err := db.QueryContext(ctx, selectSpectrumTimesSQL, meta.ID)
	if err != nil {
		return nil, fmt.Errorf("querying times: %w", err)
	}
	defer closeWithError(rows, &err)

	times = make([]int64, 0, meta.NTimes)
	for rows.Next() {
		var idx int
		var t int64
		if err = rows.Scan(&idx, &t); err != nil {
			return nil, fmt.Errorf("scanning time: %w", err)
		}
		times = append(times, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating times: %w", err)
	}
	return times, nil
}

func loadFrequencies(ctx context.Context, db *sql.DB, meta spectrumData) (freqs []frequencyData, err error) {
	rows, err := db.QueryContext(ctx, selectSpectrumFrequenciesSQL, meta.ID)
	if err != nil {
		return nil, fmt.Errorf("querying frequencies: %w", err)
	}
	defer closeWithError(rows, &err)

	freqs = make([]frequencyData, 0, meta.NFreqs)
	for rows.Next() {
		var f frequencyData
		if err = rows.Scan(&f.Index, &f.Frequency, &f.Label); err != nil {
			return nil, fmt.Errorf("scanning frequency: %w", err)
		}
		freqs = append(freqs, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating frequencies: %w", err)
	}
	return freqs, nil
}

// loadLevels returns the flattened level matrix. Cells without a stored
// level are NaN.
func loadLevels(ctx context.Context, db *sql.DB, meta spectrumData) (data []float64, err error) {
	rows, err := db.QueryContext(ctx, selectSpectrumLevelsSQL, meta.ID)
	if err != nil {
		return nil, fmt.Errorf("querying levels: %w", err)
	}
	defer closeWithError(rows, &err)

	data = make([]float64, meta.NFreqs*meta.NTimes)
	for i := range data {
		data[i] = math.NaN()
	}

	for rows.Next() {
		var l levelData
		if err = rows.Scan(&l.FreqIndex, &l.TimeIndex, &l.Level); err != nil {
			return nil, fmt.Errorf("scanning level: %w", err)
		}
		if l.FreqIndex < 0 || l.FreqIndex >= meta.NFreqs || l.TimeIndex < 0 || l.TimeIndex >= meta.NTimes {
			return nil, fmt.Errorf("level at [%d, %d] outside %dx%d: %w", l.FreqIndex, l.TimeIndex, meta.NFreqs, meta.NTimes, spectrum.ErrShapeMismatch)
		}
		data[l.FreqIndex*meta.NTimes+l.TimeIndex] = fromNullFloat64(l.Level)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating levels: %w", err)
	}
	return data, nil
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
