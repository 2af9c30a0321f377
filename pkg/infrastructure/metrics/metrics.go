package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the pipeline's counters on a private prometheus registry
type Registry struct {
	reg                 *prometheus.Registry
	RawLines            prometheus.Counter
	LinesDropped        prometheus.Counter
	ReferenceMismatches prometheus.Counter
	ExpandedLines       prometheus.Counter
	FlaggedLines        prometheus.Counter
	ShortageLines       prometheus.Counter
	Orders              prometheus.Counter
	StageDuration       *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	rawLines := prometheus.NewCounter(prometheus.CounterOpts{Name: "poimport_raw_lines_total"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "poimport_lines_dropped_total"})
	mismatches := prometheus.NewCounter(prometheus.CounterOpts{Name: "poimport_reference_mismatches_total"})
	expanded := prometheus.NewCounter(prometheus.CounterOpts{Name: "poimport_expanded_lines_total"})
	flagged := prometheus.NewCounter(prometheus.CounterOpts{Name: "poimport_flagged_lines_total"})
	shortages := prometheus.NewCounter(prometheus.CounterOpts{Name: "poimport_shortage_lines_total"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{Name: "poimport_orders_total"})
	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poimport_stage_duration_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	r.MustRegister(rawLines, dropped, mismatches, expanded, flagged, shortages, orders, stageDuration)
	return &Registry{
		reg:                 r,
		RawLines:            rawLines,
		LinesDropped:        dropped,
		ReferenceMismatches: mismatches,
		ExpandedLines:       expanded,
		FlaggedLines:        flagged,
		ShortageLines:       shortages,
		Orders:              orders,
		StageDuration:       stageDuration,
	}
}

// ObserveStage records how long a stage took
func (r *Registry) ObserveStage(stage string, d time.Duration) {
	r.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// WriteTextfile writes the current values in the text exposition format,
// for pickup by a node exporter textfile collector
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
