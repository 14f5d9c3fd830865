// Command iobench measures how fast a file can be written or read under a
// chosen access pattern, transfer mode and caching behaviour.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{out: os.Stdout}
	err := a.rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		a.fail(err)
		os.Exit(1)
	}
}

type app struct {
	flags  flags
	logger *zap.Logger
	out    io.Writer
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "iobench [flags] <path>",
		Short: "Storage I/O benchmark",
		Long: `iobench writes or reads a file block by block and reports throughput
together with the time spent creating, preallocating and transferring it.

Operation codes for --op:
  sw  sequential write     sr  sequential read
  rw  random write         rr  random read
  fw  one file per block, written
  fr  one file per block, read`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.logger = newLogger(a.flags.verbose)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.flags.load(cmd, args)
			if err != nil {
				return err
			}
			if err := a.maybeWriteConfig(cfg); err != nil {
				return err
			}
			return a.run(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
	a.flags.bind(root)
	root.AddCommand(a.fioJobCmd())
	return root
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// fail reports a fatal error once, at the top.
func (a *app) fail(err error) {
	if a.logger == nil {
		a.logger = newLogger(false)
	}
	defer a.logger.Sync()
	if errors.Is(err, errInvalidConfig) {
		a.logger.Error(err.Error())
		return
	}
	reportFailure(a.logger, err)
	if path, derr := appendCrashDump(crashDumpPath(), err); derr != nil {
		a.logger.Warn("Unable to write crash dump", zap.Error(derr))
	} else {
		a.logger.Info("Crash dump appended", zap.String("path", path))
	}
}
