package window

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "acoustic_viewer"

// Metrics counts what the engine selected and allocated. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	selections        *prometheus.CounterVec
	canvasAllocations *prometheus.CounterVec
	canvasReuses      *prometheus.CounterVec
	failures          *prometheus.CounterVec
}

// NewMetrics creates the engine collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tier_selections_total",
			Help:      "Tier decisions by chart kind, selected tier and reason",
		}, []string{"chart", "tier", "reason"}),
		canvasAllocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "canvas_allocations_total",
			Help:      "Spectrogram canvases allocated per position",
		}, []string{"position"}),
		canvasReuses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "canvas_reuses_total",
			Help:      "Spectrogram canvases reused per position",
		}, []string{"position"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "extraction_failures_total",
			Help:      "Extractions that failed and were reported as unknown",
		}, []string{"chart"}),
	}

	for _, c := range []prometheus.Collector{m.selections, m.canvasAllocations, m.canvasReuses, m.failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) selected(chart string, out SelectionOutcome) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(chart, out.Tier.String(), out.Reason.String()).Inc()
}

func (m *Metrics) canvasAllocated(position string) {
	if m == nil {
		return
	}
	m.canvasAllocations.WithLabelValues(position).Inc()
}

func (m *Metrics) canvasReused(position string) {
	if m == nil {
		return
	}
	m.canvasReuses.WithLabelValues(position).Inc()
}

func (m *Metrics) failed(chart string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(chart).Inc()
}
