// Package metrics instruments discovery probes and gateway round trips.
// Long brute-force discovery runs are the main consumer: watching the probe
// counters is how an operator tells "slow" from "stuck".
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supactl_discovery_probes_total",
			Help: "Total number of table probes by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	DiscoveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supactl_discovery_strategy_duration_seconds",
			Help:    "Wall-clock duration of each discovery strategy run",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"strategy"},
	)

	ImportStatements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supactl_import_statements_total",
			Help: "Total number of import items processed by format and outcome",
		},
		[]string{"format", "outcome"},
	)
)

type ServerOpts struct {
	Addr              string
	Path              string        // metrics endpoint path, defaults to "/metrics"
	ShutdownTimeout   time.Duration // defaults to 5 seconds
	ReadHeaderTimeout time.Duration // defaults to 3 seconds
}

// orDefault returns v unless it is the zero value, in which case it returns
// fallback. Equivalent to cmp.Or, which needs a newer Go than this build uses.
func orDefault[T comparable](v, fallback T) T {
	var zero T
	if v != zero {
		return v
	}
	return fallback
}

func defaultServerOpts() ServerOpts {
	return ServerOpts{
		Addr:              ":9100",
		Path:              "/metrics",
		ShutdownTimeout:   5 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// StartServer starts a Prometheus metrics server, shut down gracefully when
// the provided context is canceled.
func StartServer(ctx context.Context, wg *sync.WaitGroup, logger *zap.Logger, opts *ServerOpts) {
	effective := defaultServerOpts()
	if opts != nil {
		effective.Addr = orDefault(opts.Addr, effective.Addr)
		effective.Path = orDefault(opts.Path, effective.Path)
		effective.ShutdownTimeout = orDefault(opts.ShutdownTimeout, effective.ShutdownTimeout)
		effective.ReadHeaderTimeout = orDefault(opts.ReadHeaderTimeout, effective.ReadHeaderTimeout)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle(effective.Path, promhttp.Handler())
	server := &http.Server{
		Addr:              effective.Addr,
		Handler:           mux,
		ReadHeaderTimeout: effective.ReadHeaderTimeout,
	}

	serverClosed := make(chan struct{})
	wg.Add(1)

	go func() {
		defer wg.Done()
		logger.Info("starting metrics server", zap.String("addr", effective.Addr))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", zap.Error(err))
		}
		close(serverClosed)
	}()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), effective.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", zap.Error(err))
		}

		select {
		case <-serverClosed:
		case <-shutdownCtx.Done():
			logger.Warn("metrics server shutdown timed out")
		}
	}()
}
