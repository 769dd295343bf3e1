// Package metrics exposes quiz counters in Prometheus format.
//
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	quizzesStarted   prometheus.Counter
	quizzesCompleted *prometheus.CounterVec
	answers          *prometheus.CounterVec
	storageFailures  prometheus.Counter
	activeSessions   prometheus.Gauge
	updateDuration   prometheus.Histogram
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		quizzesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "levelup_quizzes_started_total",
			Help: "Total number of quizzes started",
		}),
		quizzesCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "levelup_quizzes_completed_total",
				Help: "Total number of quizzes completed, by level",
			},
			[]string{"level"},
		),
		answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "levelup_answers_total",
				Help: "Total number of answers, by result",
			},
			[]string{"result"},
		),
		storageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "levelup_storage_failures_total",
			Help: "Total number of failed progress writes",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "levelup_active_sessions",
			Help: "Number of quizzes in progress",
		}),
		updateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "levelup_update_duration_seconds",
			Help:    "Time spent handling one inbound message",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
	m.registry.MustRegister(
		m.quizzesStarted,
		m.quizzesCompleted,
		m.answers,
		m.storageFailures,
		m.activeSessions,
		m.updateDuration,
	)
	return m
}

func (m *Metrics) QuizStarted() {
	if m == nil {
		return
	}
	m.quizzesStarted.Inc()
}

func (m *Metrics) QuizCompleted(level string) {
	if m == nil {
		return
	}
	m.quizzesCompleted.WithLabelValues(level).Inc()
}

func (m *Metrics) AnswerRecorded(correct bool) {
	if m == nil {
		return
	}
	result := "wrong"
	if correct {
		result = "correct"
	}
	m.answers.WithLabelValues(result).Inc()
}

func (m *Metrics) StorageFailure() {
	if m == nil {
		return
	}
	m.storageFailures.Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) ObserveUpdate(d time.Duration) {
	if m == nil {
		return
	}
	m.updateDuration.Observe(d.Seconds())
}

// Handler serves the collected metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info("metrics endpoint listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
