package storage

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
)

// maxBatchRows bounds the rows of a multi-row INSERT, keeping the number of
// bound parameters well below SQLite's limit.
const maxBatchRows = 1000

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

func toNullFloat64(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullFloat64(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// insertBatched runs insertSQL (ending in "VALUES ") once per batch of rows.
// values holds width parameters per row, row after row.
func insertBatched(ctx context.Context, tx *sql.Tx, insertSQL string, width int, values []any) error {
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", width), ", ") + ")"
	rows := len(values) / width

	for start := 0; start < rows; start += maxBatchRows {
		end := min(start+maxBatchRows, rows)

		var sb strings.Builder
		sb.WriteString(insertSQL)
		for i := start; i < end; i++ {
			if i > start {
				sb.WriteString(", ")
			}
			sb.WriteString(placeholder)
		}

		if _, err := tx.ExecContext(ctx, sb.String(), values[start*width:end*width]...); err != nil {
			return err
		}
	}
	return nil
}
