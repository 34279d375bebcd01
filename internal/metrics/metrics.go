package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/legendik/volta-bridge/internal/volta"
)

// Metrics exports the published snapshot and poll health as Prometheus
// series. It subscribes to the coordinator like any other consumer.
type Metrics struct {
	registry *prometheus.Registry

	values    *prometheus.GaugeVec
	available prometheus.Gauge
	lastPoll  prometheus.Gauge

	pollsTotal  *prometheus.CounterVec
	writesTotal *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "volta",
			Name:      "value",
			Help:      "Scaled boiler register values by semantic key.",
		}, []string{"key"}),
		available: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "volta",
			Name:      "device_available",
			Help:      "1 while the last poll cycle succeeded.",
		}),
		lastPoll: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "volta",
			Name:      "last_poll_timestamp_seconds",
			Help:      "Unix time of the last successful poll cycle.",
		}),
		pollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "volta",
			Name:      "polls_total",
			Help:      "Poll cycles by outcome.",
		}, []string{"outcome"}),
		writesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "volta",
			Name:      "register_writes_total",
			Help:      "Register writes by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(m.values, m.available, m.lastPoll, m.pollsTotal, m.writesTotal)
	return m
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// OnSnapshot implements the coordinator subscriber. String values
// (serial, versions, addresses) carry no numeric meaning and are
// skipped.
func (m *Metrics) OnSnapshot(snap volta.Snapshot) {
	m.lastPoll.SetToCurrentTime()
	m.pollsTotal.WithLabelValues("success").Inc()

	// A vanished key (CH2 toggled away) must not linger with a stale
	// value.
	m.values.Reset()

	for key, v := range snap {
		switch value := v.(type) {
		case float64:
			m.values.WithLabelValues(key).Set(value)
		case int:
			m.values.WithLabelValues(key).Set(float64(value))
		case uint32:
			m.values.WithLabelValues(key).Set(float64(value))
		case bool:
			if value {
				m.values.WithLabelValues(key).Set(1)
			} else {
				m.values.WithLabelValues(key).Set(0)
			}
		}
	}
}

// OnAvailability implements the coordinator subscriber.
func (m *Metrics) OnAvailability(available bool) {
	if available {
		m.available.Set(1)
	} else {
		m.available.Set(0)
		m.pollsTotal.WithLabelValues("failure").Inc()
	}
}

// RecordWrite counts one register write.
func (m *Metrics) RecordWrite(err error) {
	if err != nil {
		m.writesTotal.WithLabelValues("failure").Inc()
		return
	}
	m.writesTotal.WithLabelValues("success").Inc()
}
