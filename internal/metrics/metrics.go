// Package metrics exposes badge and sweep counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cofc/campushunt/internal/hunt"
)

// Collector implements hunt.Recorder.
type Collector struct {
	claims *prometheus.CounterVec
	sweeps *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campushunt_badge_claims_total",
			Help: "Badge claim attempts by outcome.",
		}, []string{"outcome"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campushunt_sweeps_total",
			Help: "Expired location sweeps by result.",
		}, []string{"ok"}),
	}
	reg.MustRegister(c.claims, c.sweeps)
	return c
}

func (c *Collector) RecordAward(kind hunt.OutcomeKind) {
	c.claims.WithLabelValues(kind.String()).Inc()
}

func (c *Collector) RecordSweep(ok bool) {
	c.sweeps.WithLabelValues(strconv.FormatBool(ok)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
