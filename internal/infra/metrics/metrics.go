package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	AdmissionChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admission_checks_total",
		Help: "Admission checks by action type and outcome reason",
	}, []string{"action", "outcome"})

	ActionsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "actions_recorded_total",
		Help: "Outcome reports by action type and success",
	}, []string{"action", "success"})

	PassDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "distribution_pass_seconds",
		Help:    "Duration of one distribution pass",
		Buckets: prometheus.DefBuckets,
	})

	TasksAssigned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tasks_assigned_total",
		Help: "Tasks placed onto an account during distribution",
	})

	TasksSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tasks_skipped_total",
		Help: "Tasks skipped during distribution (no capacity or duplicate target)",
	})

	AccountHealthScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "account_health_score",
		Help: "Last computed 0-100 health score per account",
	}, []string{"account_id"})

	QueuePublishErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_publish_errors_total",
		Help: "Failed publishes by queue name",
	}, []string{"queue"})

	StoreRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_request_duration_seconds",
		Help:    "Duration of store round trips",
		Buckets: prometheus.DefBuckets,
	}, []string{"store", "operation", "status"})
)

// MustRegister registers all engine metrics.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		AdmissionChecks,
		ActionsRecorded,
		PassDuration,
		TasksAssigned,
		TasksSkipped,
		AccountHealthScore,
		QueuePublishErrors,
		StoreRequestDuration,
	)
}

// StartServer serves /metrics on addr until ctx is cancelled.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}

// IncAdmission records one admission check result. The outcome label is
// "allowed" or the denial reason.
func IncAdmission(action, outcome string) {
	if outcome == "" {
		outcome = "allowed"
	}
	AdmissionChecks.WithLabelValues(action, outcome).Inc()
}

// IncActionRecorded records one outcome report.
func IncActionRecorded(action string, success bool) {
	ActionsRecorded.WithLabelValues(action, strconv.FormatBool(success)).Inc()
}

// ObserveStoreRequest records the duration and status of a store call.
func ObserveStoreRequest(store, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StoreRequestDuration.WithLabelValues(store, operation, status).Observe(time.Since(start).Seconds())
}

// SetHealthScore publishes an account's latest health score.
func SetHealthScore(accountID string, score int) {
	AccountHealthScore.WithLabelValues(accountID).Set(float64(score))
}
