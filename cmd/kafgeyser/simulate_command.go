package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jittakal/kafgeyser/internal/generator"
	"github.com/jittakal/kafgeyser/internal/plugin"
)

func newSimulateCommand(ctx *commandContext) *cobra.Command {
	var slots int

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Load the plugin and feed it synthetic validator notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.newLogger(ctx.logLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer logger.Sync()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runSimulation(runCtx, ctx, slots, logger)
		},
	}

	cmd.Flags().IntVar(&slots, "slots", 0, "Stop after this many slots (0 runs until interrupted)")
	return cmd
}

func runSimulation(ctx context.Context, cc *commandContext, slots int, logger *zap.Logger) error {
	logger.Info("Starting kafgeyser simulator",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("buildTime", buildTime),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := plugin.New(logger, registry, cc.pluginOptions...)
	if err := p.OnLoad(cc.configFile, false); err != nil {
		return err
	}
	defer p.OnUnload()

	cfg := p.Config()
	if err := cfg.ValidateSimulator(); err != nil {
		return fmt.Errorf("invalid simulator section: %w", err)
	}

	if cc.metricsPort != "" {
		srv, err := startMetricsServer(cc.metricsPort, registry, p, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	gen := generator.NewGenerator(cfg.Simulator, logger)
	ticker := time.NewTicker(cfg.SlotInterval())
	defer ticker.Stop()

	for produced := 0; slots == 0 || produced < slots; produced++ {
		select {
		case <-ctx.Done():
			logger.Info("Stopping simulation", zap.Int("slots", produced))
			return nil
		case <-ticker.C:
		}

		slot := gen.NextSlot()
		if p.TransactionNotificationsEnabled() {
			for _, tx := range slot.Transactions {
				_ = p.NotifyTransaction(tx, slot.Number)
			}
		}
		if p.EntryNotificationsEnabled() {
			for _, entry := range slot.Entries {
				_ = p.NotifyEntry(entry)
			}
		}
	}

	logger.Info("Simulation complete", zap.Int("slots", slots))
	return nil
}

// startMetricsServer serves registry on /metrics and the liveness and
// readiness probes under /health.
func startMetricsServer(port string, registry *prometheus.Registry, p *plugin.Plugin, logger *zap.Logger) (*http.Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	mux.HandleFunc("/health/live", livenessHandler(logger))
	mux.HandleFunc("/health/ready", readinessHandler(p, logger))

	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("Starting metrics server", zap.String("address", ln.Addr().String()))
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	return srv, nil
}
