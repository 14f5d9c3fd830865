// Package metrics exposes the progress of a running benchmark to
// Prometheus.
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

const namespace = "iobench"

// Source is the read-only view of a benchmark the exporter polls.
type Source interface {
	BlocksTransferred() int64
	BytesTransferred() int64
	BytesPlanned() int64
	PercentComplete() float64
	AverageBytesPerSec() float64
	CompletedSynchronously() int64
	CompletedAsynchronously() int64
	IssueTime() time.Duration
	WaitTime() time.Duration
	TransferTime() time.Duration
	WallTime() time.Duration
}

// Exporter owns a registry whose metrics are evaluated on every scrape.
type Exporter struct {
	registry *prometheus.Registry
	logger   *zap.Logger
}

// New registers gauges for src. labels become constant labels on every
// metric (typically the run's name, operation and access pattern).
func New(src Source, labels prometheus.Labels, logger *zap.Logger) (*Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()

	gauge := func(name, help string, f func() float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, f)
	}
	counter := func(name, help string, f func() float64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, f)
	}
	seconds := func(f func() time.Duration) func() float64 {
		return func() float64 { return f().Seconds() }
	}

	collectors := []prometheus.Collector{
		counter("blocks_transferred_total", "Blocks transferred so far.",
			func() float64 { return float64(src.BlocksTransferred()) }),
		counter("bytes_transferred_total", "Bytes transferred so far.",
			func() float64 { return float64(src.BytesTransferred()) }),
		gauge("bytes_planned", "Bytes the run transfers in total.",
			func() float64 { return float64(src.BytesPlanned()) }),
		gauge("progress_ratio", "Fraction of configured blocks transferred.", src.PercentComplete),
		gauge("average_bytes_per_second", "Average goodput of the run.", src.AverageBytesPerSec),
		counter("completed_synchronously_total", "Transfers that completed on submission.",
			func() float64 { return float64(src.CompletedSynchronously()) }),
		counter("completed_asynchronously_total", "Transfers that completed after submission.",
			func() float64 { return float64(src.CompletedAsynchronously()) }),
		counter("issue_seconds_total", "Time spent submitting transfers.", seconds(src.IssueTime)),
		counter("wait_seconds_total", "Time spent waiting for completions.", seconds(src.WaitTime)),
		gauge("transfer_seconds", "Elapsed time of the transfer phase.", seconds(src.TransferTime)),
		gauge("wall_seconds", "Elapsed time of the whole run.", seconds(src.WallTime)),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return &Exporter{registry: reg, logger: logger}, nil
}

func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Serve answers scrapes on addr until ctx is done.
func (e *Exporter) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	e.logger.Info("serving metrics", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
