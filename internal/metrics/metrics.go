package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the Prometheus collectors for the analysis pipeline.
type Metrics struct {
	registry *prometheus.Registry

	// result is ok, fetch_error or invalid_series
	AnalysesTotal      *prometheus.CounterVec
	FetchDuration      *prometheus.HistogramVec
	IndicatorsReported *prometheus.GaugeVec
	SweepsTotal        prometheus.Counter
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analyzer_analyses_total",
			Help: "Indicator analyses by outcome",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analyzer_fetch_duration_seconds",
			Help:    "Price history fetch latency by data source",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		IndicatorsReported: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "analyzer_indicators_reported",
			Help: "Number of defined indicators at the latest bar",
		}, []string{"symbol"}),
		SweepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_sweeps_total",
			Help: "Scheduled watchlist sweeps started",
		}),
	}
	m.registry.MustRegister(
		m.AnalysesTotal,
		m.FetchDuration,
		m.IndicatorsReported,
		m.SweepsTotal,
	)
	return m
}

// Registry exposes the registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveFetch records how long a fetch from source took.
func (m *Metrics) ObserveFetch(source string, started time.Time) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(source).Observe(time.Since(started).Seconds())
}

// ObserveAnalysis counts one analysis outcome.
func (m *Metrics) ObserveAnalysis(result string) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(result).Inc()
}

// SetReported records how many indicators were defined for symbol.
func (m *Metrics) SetReported(symbol string, n int) {
	if m == nil {
		return
	}
	m.IndicatorsReported.WithLabelValues(symbol).Set(float64(n))
}

// IncSweeps counts a scheduled sweep.
func (m *Metrics) IncSweeps() {
	if m == nil {
		return
	}
	m.SweepsTotal.Inc()
}

// Server exposes /metrics over HTTP.
type Server struct {
	srv *http.Server
	log *zap.Logger
}

// NewServer creates a metrics server for m on addr.
func NewServer(addr string, m *Metrics, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log.Named("metrics"),
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("metrics server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics server", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
