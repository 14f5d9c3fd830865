package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/runningwild/iobench/pkg/benchmark"
	"github.com/runningwild/iobench/pkg/config"
	"github.com/runningwild/iobench/pkg/metrics"
	"github.com/runningwild/iobench/pkg/results"
)

var errInvalidConfig = errors.New("configuration is not valid, see the issues above")

func (a *app) maybeWriteConfig(cfg config.Config) error {
	if a.flags.writeConfig == "" {
		return nil
	}
	if err := config.Save(a.flags.writeConfig, &cfg); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	a.logger.Info("Configuration written", zap.String("path", a.flags.writeConfig))
	return nil
}

// run validates cfg, then runs it while the display, and optionally the
// metrics server, poll it. The first of them to fail cancels the others.
func (a *app) run(ctx context.Context, out io.Writer, cfg config.Config) error {
	ok, err := cfg.Validate(a.logger)
	if err != nil {
		return err
	}
	if !ok {
		return errInvalidConfig
	}

	b, err := benchmark.New(cfg, benchmark.Options{
		Logger:          a.logger,
		InstantCounters: a.flags.perfCounters,
	})
	if err != nil {
		return err
	}

	var exp *metrics.Exporter
	if a.flags.metricsAddr != "" {
		exp, err = metrics.New(b, prometheus.Labels{
			"name":      cfg.Name,
			"operation": cfg.Operation.String(),
			"pattern":   cfg.AccessPattern.String(),
		}, a.logger)
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	task, err := b.Start(gctx)
	if err != nil {
		return err
	}
	pollCtx, stopPolling := context.WithCancel(gctx)
	defer stopPolling()

	d := &display{out: out, bench: b, instant: a.flags.perfCounters}
	g.Go(func() error {
		d.poll(pollCtx)
		return nil
	})
	if exp != nil {
		g.Go(func() error { return exp.Serve(pollCtx, a.flags.metricsAddr) })
	}

	var state benchmark.State
	var runErr error
	g.Go(func() error {
		defer stopPolling()
		state, runErr = task.Wait()
		return nil
	})
	if err := g.Wait(); err != nil {
		<-task.Done()
		return err
	}

	d.render()
	a.logger.Info("Benchmark finished", zap.Stringer("state", state))

	if a.flags.jsonReport != "" {
		if err := results.WriteReport(a.flags.jsonReport, b.Report(runErr)); err != nil {
			a.logger.Error("Failed to write report", zap.Error(err))
		} else {
			a.logger.Info("Report written", zap.String("path", a.flags.jsonReport))
		}
	}
	if runErr != nil {
		return runErr
	}
	if state == benchmark.StateCanceled {
		a.logger.Warn("Benchmark canceled before completion; no results recorded")
		return nil
	}
	if a.flags.results != "" {
		if err := results.Append(a.flags.results, results.FromBenchmark(cfg.Name, b)); err != nil {
			return fmt.Errorf("failed to append results: %w", err)
		}
		a.logger.Info("Results appended", zap.String("path", a.flags.results))
	}
	return nil
}
