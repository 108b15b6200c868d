package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ConnectedDevices prometheus.Gauge
	DeviceEvents     *prometheus.CounterVec
	Turns            *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec
	DisplayRenders   *prometheus.CounterVec
	DroppedInputs    *prometheus.CounterVec
	TurnLatency      prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWith registers on an explicit registerer; tests use this with a
// fresh registry so repeated construction does not collide.
func NewMetricsWith(namespace string, reg prometheus.Registerer) *Metrics {
	auto := promauto.With(reg)
	return &Metrics{
		ConnectedDevices: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_devices",
			Help:      "Number of glasses with a live websocket connection.",
		}),
		DeviceEvents: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_events_total",
			Help:      "Device transport events by type.",
		}, []string{"event"}),
		Turns: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Prompt turns by result.",
		}, []string{"result"}),
		ProviderErrors: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Completion provider errors by provider and status.",
		}, []string{"provider", "status"}),
		DisplayRenders: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "display_renders_total",
			Help:      "Glasses display writes by outcome.",
		}, []string{"outcome"}),
		DroppedInputs: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_inputs_total",
			Help:      "Voice/typed inputs dropped before processing, by reason.",
		}, []string{"reason"}),
		TurnLatency: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "Latency from prompt acceptance to recorded response in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 15000, 30000},
		}),
	}
}

func (m *Metrics) ObserveTurnLatency(d time.Duration) {
	m.TurnLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
