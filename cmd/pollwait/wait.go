package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/pollwait"
	"github.com/jpalmerr/pollwait/config"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// waitCmd blocks until all targets are available.
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until all targets are available",
	Long: `Block until all targets are available, or fail on timeout or interrupt.

Targets come either from flags (--file, --tcp, repeatable) or from a YAML
config file (-c). Each target gets its own poller; all targets are waited
on concurrently and share one process-wide exit signal, so a single
interrupt (Ctrl+C / SIGTERM) aborts every wait cleanly.

Exit codes:
  0 - All targets became available
  1 - A wait was aborted or timed out

Example:
  pollwait wait --tcp localhost:5432 --file /var/run/app/ready
  pollwait wait -c targets.yaml --timeout 2m`,
	RunE: runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)

	waitCmd.Flags().StringP("config", "c", "", "path to config file")
	waitCmd.Flags().StringSlice("file", nil, "wait until this path exists (repeatable)")
	waitCmd.Flags().StringSlice("tcp", nil, "wait until this host:port accepts connections (repeatable)")
	waitCmd.Flags().Duration("timeout", 0, "overall deadline for all waits (0 = none)")
	waitCmd.Flags().Duration("max-delay", 5*time.Second, "upper bound on the wait between probes")
	waitCmd.Flags().Duration("increment", 100*time.Millisecond, "delay after the first empty probe, doubled thereafter")
}

func runWait(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := waitConfig(cmd)
	if err != nil {
		return err
	}

	logger.Info("waiting for targets",
		"targets", len(cfg.Targets),
		"max_poll_delay", cfg.MaxPollDelay.Duration().String(),
		"initial_retry_increment", cfg.InitialRetryIncrement.Duration().String(),
	)

	// cancel on SIGINT/SIGTERM; the exit signal fans the shutdown out to
	// every poller, matching how an embedding process would wire it
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if d := cfg.Timeout.Duration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	exit := pollwait.NewExitSignal()
	go func() {
		<-ctx.Done()
		exit.Trigger()
	}()

	g := new(errgroup.Group)
	for _, target := range cfg.Targets {
		target := target
		g.Go(func() error {
			return waitForTarget(logger, exit, cfg, target)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("all targets available")
	return nil
}

// waitForTarget runs one blocking poller to completion.
func waitForTarget(logger *slog.Logger, exit *pollwait.ExitSignal, cfg *config.Config, target config.TargetConfig) error {
	var probe pollwait.ProbeFunc[string]
	if target.File != "" {
		probe = fileProbe(target.File)
	} else {
		probe = tcpProbe(target.TCP)
	}

	p, err := pollwait.New(
		pollwait.WithProbe(probe),
		pollwait.WithMaxPollDelay[string](cfg.MaxPollDelay.Duration()),
		pollwait.WithInitialRetryIncrement[string](cfg.InitialRetryIncrement.Duration()),
		pollwait.WithExitSignal[string](exit),
		pollwait.WithLogger[string](logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create poller for %s: %w", target.Name, err)
	}

	started := time.Now()
	payload, found, err := p.WaitForPayload(context.Background())
	if err != nil {
		return fmt.Errorf("wait failed for %s: %w", target.Name, err)
	}
	if !found {
		return fmt.Errorf("wait aborted for %s after %s (%d empty polls)",
			target.Name, time.Since(started).Round(time.Millisecond), p.EmptyPollCount())
	}

	logger.Info("target available",
		"target", target.Name,
		"payload", payload,
		"elapsed", time.Since(started).Round(time.Millisecond).String(),
		"empty_polls", p.EmptyPollCount(),
	)
	return nil
}

// waitConfig resolves the effective config from the -c file or from flags.
func waitConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	files, _ := cmd.Flags().GetStringSlice("file")
	addrs, _ := cmd.Flags().GetStringSlice("tcp")

	if configFile != "" {
		if len(files) > 0 || len(addrs) > 0 {
			return nil, fmt.Errorf("--config cannot be combined with --file/--tcp")
		}
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if cmd.Flags().Changed("timeout") {
			d, _ := cmd.Flags().GetDuration("timeout")
			cfg.Timeout = config.Duration(d)
		}
		return cfg, nil
	}

	if len(files) == 0 && len(addrs) == 0 {
		return nil, fmt.Errorf("no targets: supply --file, --tcp, or --config")
	}

	maxDelay, _ := cmd.Flags().GetDuration("max-delay")
	increment, _ := cmd.Flags().GetDuration("increment")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	cfg := &config.Config{
		MaxPollDelay:          config.Duration(maxDelay),
		InitialRetryIncrement: config.Duration(increment),
		Timeout:               config.Duration(timeout),
	}
	for _, f := range files {
		cfg.Targets = append(cfg.Targets, config.TargetConfig{Name: f, File: f})
	}
	for _, a := range addrs {
		cfg.Targets = append(cfg.Targets, config.TargetConfig{Name: a, TCP: a})
	}
	return cfg, nil
}
