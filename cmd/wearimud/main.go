package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/e7canasta/orion-wear-imu/imupipeline"
	"github.com/e7canasta/orion-wear-imu/internal/config"
	"github.com/e7canasta/orion-wear-imu/internal/emitter"
)

const (
	defaultConfigPath = "config/wearimud.yaml"
	healthInterval    = 10 * time.Second
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Setup structured logger
	logger, err := buildLogger(*debug)
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck
	log := logger.Sugar()

	log.Infow("starting wearimud",
		"config", *configPath,
		"debug", *debug,
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Errorw("failed to load configuration", "error", err)
		os.Exit(1)
	}

	opts := cfg.PipelineOptions()
	opts.Logger = logger

	pipe, err := imupipeline.New(opts)
	if err != nil {
		log.Errorw("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Optional MQTT emitter. An empty broker means local-only operation.
	var emit *emitter.MQTTEmitter
	if cfg.MQTT.Broker != "" {
		emit = emitter.NewMQTTEmitter(cfg, log)
		if err := emit.Connect(ctx); err != nil {
			log.Errorw("failed to connect mqtt emitter", "error", err)
			os.Exit(1)
		}
		defer emit.Disconnect() //nolint:errcheck

		if err := pipe.Subscribe("mqtt-emitter", emit.OnReading()); err != nil {
			log.Errorw("failed to subscribe emitter", "error", err)
			os.Exit(1)
		}
	} else {
		log.Infow("mqtt broker not configured, publishing disabled")
	}

	// Prometheus metrics endpoint
	registry := prometheus.NewRegistry()
	registry.MustRegister(imupipeline.NewCollector(pipe))

	metricsSrv := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		log.Infow("metrics server listening", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("metrics server failed", "error", err)
		}
	}()

	if err := pipe.Start(ctx); err != nil {
		log.Errorw("failed to start pipeline", "error", err)
		os.Exit(1)
	}

	// Periodic health reporting
	go healthLoop(ctx, log, pipe, emit, cfg.InstanceID)

	// Wait for shutdown signal
	sig := <-sigChan
	log.Infow("received shutdown signal", "signal", sig.String())
	cancel()

	// Graceful shutdown
	shutdownTimeout := cfg.ShutdownTimeout()
	log.Infow("shutting down gracefully", "timeout", shutdownTimeout)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	done := make(chan error, 1)
	go func() {
		done <- pipe.Stop()
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Errorw("pipeline shutdown failed", "error", err)
		}
	case <-shutdownCtx.Done():
		log.Errorw("pipeline shutdown timed out", "timeout", shutdownTimeout)
	}

	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("metrics server shutdown failed", "error", err)
	}

	log.Infow("wearimud stopped")
}

func buildLogger(debug bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	return zcfg.Build()
}

// healthLoop logs pipeline counters and, when an emitter is wired,
// publishes them as a JSON health message.
func healthLoop(ctx context.Context, log *zap.SugaredLogger, pipe imupipeline.Pipeline, emit *emitter.MQTTEmitter, instanceID string) {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		stats := pipe.Stats()
		log.Infow("pipeline health",
			"received", stats.MessagesReceived,
			"converted", stats.MessagesConverted,
			"overflow", stats.OverflowCount,
			"conversion_errors", stats.ConversionErrors,
			"rate_hz", stats.DataRateHz,
			"avg_latency_ms", stats.AvgLatencyMs,
			"queue_pct", stats.QueueOccupancyPct,
		)

		if emit == nil {
			continue
		}

		payload, err := json.Marshal(struct {
			InstanceID string            `json:"instance_id"`
			Timestamp  time.Time         `json:"timestamp"`
			Pipeline   imupipeline.Stats `json:"pipeline"`
			Emitter    emitter.Stats     `json:"emitter"`
		}{
			InstanceID: instanceID,
			Timestamp:  time.Now().UTC(),
			Pipeline:   stats,
			Emitter:    emit.Stats(),
		})
		if err != nil {
			continue
		}
		if err := emit.PublishHealth(payload); err != nil {
			log.Debugw("health publish skipped", "error", err)
		}
	}
}
