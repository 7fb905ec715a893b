// Package metrics exports tracker events as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/geoship/internal/app"
	"github.com/bft-labs/geoship/internal/domain"
)

// Collector implements app.EventEmitter on its own registry, so several
// trackers in one process (or in tests) do not collide.
type Collector struct {
	reg *prometheus.Registry

	state       *prometheus.GaugeVec
	transitions *prometheus.CounterVec
	statuses    prometheus.Counter
	readings    prometheus.Counter
	submits     *prometheus.CounterVec
	latency     prometheus.Histogram
	subscribers prometheus.Gauge
	lastFix     prometheus.Gauge
}

var _ app.EventEmitter = (*Collector)(nil)

var states = []app.State{
	app.StateStarting,
	app.StateConnecting,
	app.StateActive,
	app.StateSuspended,
	app.StateStopped,
	app.StateFailed,
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	c := &Collector{
		reg: reg,
		state: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "geoship_tracker_state",
			Help: "1 for the tracker's current lifecycle state, 0 otherwise",
		}, []string{"state"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geoship_state_transitions_total",
			Help: "Lifecycle transitions by target state",
		}, []string{"state"}),
		statuses: f.NewCounter(prometheus.CounterOpts{
			Name: "geoship_status_lines_total",
			Help: "Status lines appended to the log ring",
		}),
		readings: f.NewCounter(prometheus.CounterOpts{
			Name: "geoship_readings_total",
			Help: "Readings dispatched to the sink",
		}),
		submits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geoship_submits_total",
			Help: "Sink submissions by result",
		}, []string{"result"}),
		latency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "geoship_submit_latency_seconds",
			Help:    "Time to resolve one sink submission",
			Buckets: prometheus.DefBuckets,
		}),
		subscribers: f.NewGauge(prometheus.GaugeOpts{
			Name: "geoship_subscribers",
			Help: "Attached log subscribers",
		}),
		lastFix: f.NewGauge(prometheus.GaugeOpts{
			Name: "geoship_last_fix_timestamp_seconds",
			Help: "Unix time of the last dispatched reading",
		}),
	}
	c.setState(app.StateStarting)
	return c
}

func (c *Collector) setState(current app.State) {
	for _, s := range states {
		v := 0.0
		if s == current {
			v = 1
		}
		c.state.WithLabelValues(s.String()).Set(v)
	}
}

func (c *Collector) OnStateChange(previous, current app.State, reason string) {
	c.setState(current)
	c.transitions.WithLabelValues(current.String()).Inc()
}

func (c *Collector) OnStatus(domain.LogEntry) { c.statuses.Inc() }

func (c *Collector) OnReading(r domain.Reading) {
	c.readings.Inc()
	c.lastFix.Set(float64(r.Time.UnixMilli()) / 1000)
}

func (c *Collector) OnSubmit(err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.submits.WithLabelValues(result).Inc()
	c.latency.Observe(d.Seconds())
}

func (c *Collector) OnSubscribers(n int) { c.subscribers.Set(float64(n)) }

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}
