package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakegate/fakegate/internal/storage"
	"github.com/fakegate/fakegate/pkg/admin"
	"github.com/fakegate/fakegate/pkg/config"
	"github.com/fakegate/fakegate/pkg/engine"
	"github.com/fakegate/fakegate/pkg/forward"
	"github.com/fakegate/fakegate/pkg/logging"
	"github.com/fakegate/fakegate/pkg/metrics"
	"github.com/fakegate/fakegate/pkg/requestlog"
)

const shutdownGrace = 10 * time.Second

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the proxy and admin servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML or JSON config file")
	return cmd
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
		Output: os.Stderr,
	})

	var rules storage.RuleStore
	if cfg.RulesFile != "" {
		fileStore := storage.NewFileStore(cfg.RulesFile, log)
		if err := fileStore.Open(); err != nil {
			return fmt.Errorf("loading rules from %s: %w", cfg.RulesFile, err)
		}
		log.Info("rules loaded", "file", cfg.RulesFile, "count", fileStore.Count())
		rules = fileStore
	} else {
		rules = storage.NewMemoryStore()
	}

	logs := requestlog.NewRingStore(requestlog.Options{
		Capacity:        cfg.LogCapacity,
		ExcludePatterns: cfg.ExcludePatterns,
	})

	m := metrics.New()

	eng := engine.New(engine.Options{
		Rules:      rules,
		RequestLog: logs,
		Forwarder: forward.New(forward.Options{
			Timeout: cfg.UpstreamTimeout.Std(),
			Logger:  log,
		}),
		Metrics: m,
		Logger:  log,
	})

	api := admin.New(cfg.AdminPort, admin.Options{
		Rules:      rules,
		RequestLog: logs,
		Metrics:    m,
		Logger:     log,
		Version:    Version,
	})
	if err := api.Start(); err != nil {
		return fmt.Errorf("starting admin API: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- eng.Start(fmt.Sprintf(":%d", cfg.ProxyPort))
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("proxy server: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := eng.Shutdown(ctx); err != nil {
		log.Warn("proxy shutdown incomplete", "error", err)
	}
	if err := api.Shutdown(ctx); err != nil {
		log.Warn("admin shutdown incomplete", "error", err)
	}
	return nil
}
