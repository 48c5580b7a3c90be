package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the proctoring counters exported to Prometheus.
type Metrics struct {
	// Frames by verdict
	FramesSafe       atomic.Uint64
	FramesSuspicious atomic.Uint64
	FramesCheating   atomic.Uint64
	FramesError      atomic.Uint64

	Incidents       atomic.Uint64
	CaptureFailures atomic.Uint64
	PublishFailures atomic.Uint64
	DecodeFailures  atomic.Uint64

	ActiveStreams atomic.Int64

	analysisLatency prometheus.Histogram
	registry        *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analysisLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "proctor_analysis_duration_seconds",
			Help:    "Time spent analyzing one frame, including screenshot capture",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}

	m.registerPrometheusMetrics()

	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	frames := []struct {
		status  string
		counter *atomic.Uint64
	}{
		{"safe", &m.FramesSafe},
		{"suspicious", &m.FramesSuspicious},
		{"cheating_detected", &m.FramesCheating},
		{"error", &m.FramesError},
	}
	for _, f := range frames {
		counter := f.counter
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name:        "proctor_frames_total",
				Help:        "Frames analyzed, by resulting status",
				ConstLabels: prometheus.Labels{"status": f.status},
			},
			func() float64 { return float64(counter.Load()) },
		))
	}

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "proctor_incidents_total",
			Help: "Confirmed cheating incidents",
		},
		func() float64 { return float64(m.Incidents.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "proctor_capture_failures_total",
			Help: "Incidents recorded without a screenshot",
		},
		func() float64 { return float64(m.CaptureFailures.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "proctor_publish_failures_total",
			Help: "Incident notifications that could not be published",
		},
		func() float64 { return float64(m.PublishFailures.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "proctor_decode_failures_total",
			Help: "Submitted frames that could not be decoded",
		},
		func() float64 { return float64(m.DecodeFailures.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "proctor_active_streams",
			Help: "Open websocket frame streams",
		},
		func() float64 { return float64(m.ActiveStreams.Load()) },
	))

	m.registry.MustRegister(m.analysisLatency)
}

// ObserveFrame counts a frame under its resulting status label.
func (m *Metrics) ObserveFrame(status string, elapsed time.Duration) {
	switch status {
	case "Safe":
		m.FramesSafe.Add(1)
	case "Suspicious":
		m.FramesSuspicious.Add(1)
	case "Cheating Detected":
		m.FramesCheating.Add(1)
	default:
		m.FramesError.Add(1)
	}
	m.analysisLatency.Observe(elapsed.Seconds())
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
