// Command fintrack-worker consumes ledger events from AMQP and records them
// in the audit trail.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

const statsInterval = time.Minute

func main() {
	var envFile string
	var debug bool
	root := &cobra.Command{
		Use:           "fintrack-worker",
		Short:         "Record ledger events from AMQP in the audit trail",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), envFile, debug)
		},
	}
	root.Flags().StringVar(&envFile, "config", "", "env file (default is .env)")
	root.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.New(log.DefaultConfig()).Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
}

func run(parent context.Context, envFile string, debug bool) error {
	if err := cli.LoadEnvFile(envFile); err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	base, err := cli.SetupLogger(os.Stderr, cfg.LogLevel, debug)
	if err != nil {
		return err
	}
	logger := base.WithComponent(log.ComponentWorker)
	logger.Info("Starting fintrack-worker", log.FieldOperation, log.OpStartup)

	if !cfg.AMQPEnabled() {
		return errors.New("AMQP_URL is required for the worker")
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.OpenAuditStore(bcfg)
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer store.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPPrefetch)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer client.Close()

	ctx, stop := cli.SignalContext(parent, logger)
	defer stop()

	audit := worker.NewAuditWorker(store, base)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return audit.Run(gctx, client)
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				recorded, failed := audit.Stats()
				logger.Info("Audit worker progress", "recorded", recorded, "failed", failed)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
	return nil
}
