package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/slipstream/internal/application/reconcile"
)

// Config etiquetas constantes de todas las series.
type Config struct {
	ServiceName string
	Environment string
}

// Metrics series de reconciliación y del proveedor de pagos.
// Todos los métodos aceptan receptor nil.
type Metrics struct {
	reconciliations  *prometheus.CounterVec
	providerRequests *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	registerer       prometheus.Registerer
	constLabels      prometheus.Labels
}

var _ reconcile.Recorder = (*Metrics)(nil)

// New registra las series en registerer (nil = registro por defecto).
func New(registerer prometheus.Registerer, cfg Config) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "slipstream"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	reconciliations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "slipstream_reconciliations_total",
			Help:        "Señales de pago procesadas por fuente y resultado.",
			ConstLabels: constLabels,
		},
		[]string{"source", "outcome"}, // redirect|message, applied|already_paid|...
	)

	providerRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "slipstream_provider_requests_total",
			Help:        "Llamadas al proveedor de pagos por operación y resultado.",
			ConstLabels: constLabels,
		},
		[]string{"operation", "result"},
	)

	providerLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "slipstream_provider_request_duration_seconds",
			Help: "Duración de las llamadas al proveedor de pagos.",
			Buckets: []float64{
				0.05, 0.1, 0.25, 0.5, 1, 3,
				10,  // health/preferences nunca deberían llegar aquí
				60,  // pago interactivo
				300, // tope del pago
			},
			ConstLabels: constLabels,
		},
		[]string{"operation"},
	)

	registerer.MustRegister(reconciliations, providerRequests, providerLatency)

	return &Metrics{
		reconciliations:  reconciliations,
		providerRequests: providerRequests,
		providerLatency:  providerLatency,
		registerer:       registerer,
		constLabels:      constLabels,
	}
}

// Reconciliation cuenta un resultado de reconciliación.
func (m *Metrics) Reconciliation(source reconcile.Source, outcome reconcile.Outcome) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(string(source), string(outcome)).Inc()
}

// ProviderRequest registra una llamada al proveedor.
func (m *Metrics) ProviderRequest(operation, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.providerRequests.WithLabelValues(operation, result).Inc()
	m.providerLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RegisterOpenSessions expone el número de sesiones montadas leyendo count en cada scrape.
func (m *Metrics) RegisterOpenSessions(count func() int) {
	if m == nil || count == nil {
		return
	}
	m.registerer.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "slipstream_sessions_open",
			Help:        "Sesiones de reconciliación montadas.",
			ConstLabels: m.constLabels,
		},
		func() float64 { return float64(count()) },
	))
}
