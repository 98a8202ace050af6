package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	apiCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_openfda_requests_total",
			Help: "Requests made to openFDA by endpoint and status code",
		},
		[]string{"endpoint", "status"},
	)

	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_pages_fetched_total",
		Help: "Adverse event pages fetched",
	})

	eventsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_events_fetched_total",
		Help: "Event records produced by flattening reports",
	})

	labelLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_label_lookups_total",
			Help: "Label lookups by result (found, absent, cached)",
		},
		[]string{"result"},
	)

	rowsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_rows_dropped_total",
		Help: "Rows removed by the essential-field filter",
	})

	rowsLoadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_rows_loaded_total",
		Help: "Rows written to the sink",
	})

	runDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "etl_run_duration_seconds",
		Help:    "Wall time of a pipeline run",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
)

// Label lookup results
const (
	LabelFound  = "found"
	LabelAbsent = "absent"
	LabelCached = "cached"
)

// RecordAPICall counts one openFDA request. status 0 means a transport failure.
func RecordAPICall(endpoint string, status int) {
	s := "error"
	if status > 0 {
		s = strconv.Itoa(status)
	}
	apiCallsTotal.WithLabelValues(endpoint, s).Inc()
}

// RecordPage counts one fetched page and the records it produced
func RecordPage(records int) {
	pagesFetchedTotal.Inc()
	eventsFetchedTotal.Add(float64(records))
}

// RecordLabelLookup counts one label lookup outcome
func RecordLabelLookup(result string) {
	labelLookupsTotal.WithLabelValues(result).Inc()
}

// RecordTransform counts rows dropped during cleaning
func RecordTransform(dropped int) {
	rowsDroppedTotal.Add(float64(dropped))
}

// RecordLoad counts rows written by the sink
func RecordLoad(rows int) {
	rowsLoadedTotal.Add(float64(rows))
}

// RecordRun observes a run duration
func RecordRun(d time.Duration) {
	runDurationSeconds.Observe(d.Seconds())
}

// StartMetricsServer serves /metrics on addr until ctx is done
func StartMetricsServer(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
}
