package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/caseops/workbasket/pkg/cli/config"
	httpctrl "github.com/caseops/workbasket/pkg/controller/http"
	"github.com/caseops/workbasket/pkg/service/worker"
	"github.com/caseops/workbasket/pkg/usecase"
	"github.com/caseops/workbasket/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var topologyPath string
	var sweepInterval time.Duration
	var staleAge time.Duration
	var repoCfg config.Repository
	var slackCfg config.Slack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("WORKBASKET_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "topology",
			Usage:       "Path to TOML topology seed applied at startup (optional)",
			Sources:     cli.EnvVars("WORKBASKET_TOPOLOGY"),
			Destination: &topologyPath,
		},
		&cli.DurationFlag{
			Name:        "sweep-interval",
			Usage:       "Interval between stale offer sweeps (0 disables the sweep)",
			Value:       10 * time.Minute,
			Sources:     cli.EnvVars("WORKBASKET_SWEEP_INTERVAL"),
			Destination: &sweepInterval,
		},
		&cli.DurationFlag{
			Name:        "stale-age",
			Usage:       "Age after which an unclaimed offer is reported as stale",
			Value:       24 * time.Hour,
			Sources:     cli.EnvVars("WORKBASKET_STALE_AGE"),
			Destination: &staleAge,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			notifier, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure Slack notifications")
			}

			ucOpts := []usecase.Option{}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
				logging.Default().Info("Slack notifications enabled")
			} else {
				logging.Default().Info("Slack not configured, notifications disabled")
			}

			uc := usecase.New(repo, ucOpts...)

			// Apply the topology seed before accepting traffic so routing
			// targets exist from the first request
			if topologyPath != "" {
				topo, err := config.LoadTopologyConfig(topologyPath)
				if err != nil {
					return goerr.Wrap(err, "failed to load topology seed")
				}
				if err := applyTopology(ctx, uc, topo); err != nil {
					return goerr.Wrap(err, "failed to apply topology seed")
				}
			}

			var sweepWorker *worker.StaleOfferWorker
			if sweepInterval > 0 {
				sweepWorker = worker.NewStaleOfferWorker(repo, sweepInterval, staleAge)
				if err := sweepWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start stale offer worker")
				}
			}

			httpHandler, err := httpctrl.New(uc)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if sweepWorker != nil {
					sweepWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
