package spectrum

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatFrequency renders a frequency with an SI prefix, e.g. "1.25 kHz".
func FormatFrequency(hz float64) string {
	v, suffix := humanize.ComputeSI(hz)
	if suffix == "" {
		return fmt.Sprintf("%.0f Hz", v)
	}
	return fmt.Sprintf("%.2f %sHz", v, suffix)
}

// FormatThreshold renders a number of seconds as M:SS.
func FormatThreshold(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
