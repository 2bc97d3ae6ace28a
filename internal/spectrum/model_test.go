package spectrum

import (
	"errors"
	"math"
	"testing"
)

func TestNewSpectralMatrix(t *testing.T) {
	m, err := NewSpectralMatrix([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	if err != nil {
		t.Fatalf("Failed to create matrix: %v", err)
	}
	if got := m.At(1, 2); got != 6 {
		t.Errorf("Expected At(1, 2) = 6, got %v", got)
	}
	if row := m.Row(1); len(row) != 3 || row[0] != 4 {
		t.Errorf("Unexpected row 1: %v", row)
	}

	if _, err = NewSpectralMatrix([]float64{1, 2, 3}, 2, 2); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
}

func TestTimeSeries_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		series  TimeSeries
		wantErr bool
	}{
		{"valid", TimeSeries{Datetime: []int64{1, 2, 2, 3}, Columns: map[string][]float64{"LAeq": {1, 2, 3, 4}}}, false},
		{"short column", TimeSeries{Datetime: []int64{1, 2}, Columns: map[string][]float64{"LAeq": {1}}}, true},
		{"decreasing", TimeSeries{Datetime: []int64{2, 1}, Columns: map[string][]float64{}}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.series.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSpectralSource_Normalize(t *testing.T) {
	levels, err := NewSpectralMatrix([]float64{-10, math.NaN(), 30, 5}, 2, 2)
	if err != nil {
		t.Fatalf("Failed to create matrix: %v", err)
	}
	src := &SpectralSource{
		Levels:        levels,
		TimesMs:       []int64{0, 1000},
		FrequenciesHz: []float64{500, 1250},
	}
	src.Normalize()

	if err = src.Validate(); err != nil {
		t.Fatalf("Normalized source is invalid: %v", err)
	}
	if src.MinVal != -10 || src.MaxVal != 30 {
		t.Errorf("Expected level range [-10, 30], got [%v, %v]", src.MinVal, src.MaxVal)
	}
	if src.TimeStep != 1000 {
		t.Errorf("Expected time step 1000, got %d", src.TimeStep)
	}
	if src.ChunkTimeLength != 2 {
		t.Errorf("Expected chunk length 2, got %d", src.ChunkTimeLength)
	}
	if src.FrequencyLabels[0] != "500 Hz" || src.FrequencyLabels[1] != "1.25 kHz" {
		t.Errorf("Unexpected labels %v", src.FrequencyLabels)
	}
	if src.Y != -0.5 || src.DH != 2 {
		t.Errorf("Unexpected glyph placement y=%v dh=%v", src.Y, src.DH)
	}
}

func TestFormatThreshold(t *testing.T) {
	for seconds, want := range map[int]string{300: "5:00", 90: "1:30", 5: "0:05", 3600: "60:00"} {
		if got := FormatThreshold(seconds); got != want {
			t.Errorf("FormatThreshold(%d) = %q, want %q", seconds, got, want)
		}
	}
}
