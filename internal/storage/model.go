package storage

import (
	"database/sql"
)

type seriesPointData struct {
	Tier      string
	Parameter string
	Timestamp int64
	Value     sql.NullFloat64
}

type spectrumData struct {
	ID              int64
	Tier            string
	Parameter       string
	NFreqs          int
	NTimes          int
	TimeStep        int64
	ChunkTimeLength int
	MinVal          float64
	MaxVal          float64
	GlyphY          float64
	GlyphDH         float64
}

type frequencyData struct {
	Index     int
	Frequency float64
	Label     string
}

type levelData struct {
	FreqIndex int
	TimeIndex int
	Level     sql.NullFloat64
}
