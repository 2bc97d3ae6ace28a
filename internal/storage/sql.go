package storage

import (
	_ "embed"
)

const (
	insertPositionSQL = `
INSERT OR IGNORE INTO positions (name)
VALUES (?)`

	selectPositionIDSQL = `
SELECT id
FROM positions
WHERE name = ?`

	selectPositionsSQL = `
SELECT name
FROM positions
ORDER BY name`

	deleteSeriesSQL = `
DELETE
FROM series_points
WHERE position_id = ?
  AND tier = ?`

	insertSeriesSQL = `
INSERT INTO series_points (position_id,
                           tier,
                           parameter,
                           timestamp_ms,
                           value)
VALUES `

	selectSeriesSQL = `
SELECT tier,
       parameter,
       timestamp_ms,
       value
FROM series_points
WHERE position_id = ?
ORDER BY tier, timestamp_ms, parameter`

	deleteSpectrumSQL = `
DELETE
FROM spectra
WHERE position_id = ?
  AND tier = ?
  AND parameter = ?`

	insertSpectrumSQL = `
INSERT INTO spectra (position_id,
                     tier,
                     parameter,
                     n_freqs,
                     n_times,
                     time_step_ms,
                     chunk_time_length,
                     min_val,
                     max_val,
                     glyph_y,
                     glyph_dh)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectSpectraSQL = `
SELECT id,
       tier,
       parameter,
       n_freqs,
       n_times,
       time_step_ms,
       chunk_time_length,
       min_val,
       max_val,
       glyph_y,
       glyph_dh
FROM spectra
WHERE position_id = ?
ORDER BY tier, parameter`

	insertSpectrumTimesSQL = `
INSERT INTO spectrum_times (spectrum_id,
                            idx,
                            timestamp_ms)
VALUES `

	selectSpectrumTimesSQL = `
SELECT idx,
       timestamp_ms
FROM spectrum_times
WHERE spectrum_id = ?
ORDER BY idx`

	insertSpectrumFrequenciesSQL = `
INSERT INTO spectrum_frequencies (spectrum_id,
                                  idx,
                                  frequency_hz,
                                  label)
VALUES `

	selectSpectrumFrequenciesSQL = `
SELECT idx,
       frequency_hz,
       label
FROM spectrum_frequencies
WHERE spectrum_id = ?
ORDER BY idx`

	insertSpectrumLevelsSQL = `
INSERT INTO spectrum_levels (spectrum_id,
                             freq_idx,
                             time_idx,
                             level)
VALUES `

	selectSpectrumLevelsSQL = `
SELECT freq_idx,
       time_idx,
       level
FROM spectrum_levels
WHERE spectrum_id = ?`
)

//go:embed schema.sql
var initSchemaSQL string
