package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nvr-ai/shroomguard/common"
	"github.com/nvr-ai/shroomguard/controller"
	"github.com/nvr-ai/shroomguard/inference/roboflow"
	"github.com/nvr-ai/shroomguard/profiler"
	"github.com/nvr-ai/shroomguard/scratch"
	"github.com/nvr-ai/shroomguard/server"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultConfigPath is read when -config is not given. A missing file is fine.
	DefaultConfigPath = "config.yaml"
	// DefaultAddr is the listen address when neither config nor PORT sets one.
	DefaultAddr = ":5000"
	// DefaultEndpoint is the hosted mushroom model.
	DefaultEndpoint = "https://detect.roboflow.com/mushroom-w7ucu/13"
	// shutdownTimeout bounds how long in-flight uploads may finish after a signal.
	shutdownTimeout = 30 * time.Second
	// healthTimeout bounds the start-up reachability probe.
	healthTimeout = 5 * time.Second
)

func main() {
	var (
		configPath string
		addr       string
	)
	flag.StringVar(&configPath, "config", DefaultConfigPath, "Path to the YAML configuration file")
	flag.StringVar(&addr, "addr", "", "Listen address, overrides server.addr and PORT")
	flag.Parse()

	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := common.NewLogger(cfg.GetStringOrDefault("log.level", "info"), cfg.GetString("log.file"))

	if addr == "" {
		addr = listenAddr(cfg)
	}

	detectionCfg := roboflow.DefaultConfig()
	detectionCfg.Endpoint = cfg.GetStringOrDefault("detection.endpoint", DefaultEndpoint)
	detectionCfg.APIKey = cfg.GetString("detection.api_key")
	detectionCfg.Timeout = cfg.GetDurationOrDefault("detection.timeout", detectionCfg.Timeout)
	detectionCfg.MaxResponseBytes = cfg.GetInt64OrDefault("detection.max_response_bytes", detectionCfg.MaxResponseBytes)
	if detectionCfg.APIKey == "" {
		log.Warn("No detection API key configured (detection.api_key / ROBOFLOW_API_KEY); requests will likely be rejected")
	}

	client, err := roboflow.NewClient(detectionCfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to create detection client")
	}
	probeDetection(client, log)

	store, err := scratch.NewStore(
		cfg.GetStringOrDefault("storage.upload_dir", "/tmp/uploads"),
		cfg.GetStringOrDefault("storage.result_dir", "/tmp/results"),
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to prepare scratch storage")
	}

	ctl := controller.New(client, store, controller.Config{
		MaxSide: cfg.GetIntOrDefault("images.max_side", 0),
	}, profiler.New(cfg.GetIntOrDefault("profiler.max_samples", profiler.DefaultMaxSamples)), log)

	srv, err := server.New(ctl, cfg.GetInt64OrDefault("server.max_upload_bytes", server.DefaultMaxUploadBytes), log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create server")
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Graceful shutdown failed")
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":     addr,
		"endpoint": detectionCfg.Endpoint,
		"max_side": ctl.Config.MaxSide,
	}).Info("Server starting")
	log.Info("Endpoints:")
	log.Info("  POST /upload  - Analyse an uploaded image")
	log.Info("  GET  /        - Upload page")
	log.Info("  GET  /history - Scan history page")
	log.Info("  GET  /health  - Health check")
	log.Info("  GET  /stats   - Pipeline stage timings")

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("Server failed")
	}
	log.Info("Server stopped")
}

// listenAddr resolves the listen address from the configuration. PORT wins over server.addr.
func listenAddr(cfg *common.Config) string {
	if port := cfg.GetString("server.port"); port != "" {
		return ":" + port
	}
	return cfg.GetStringOrDefault("server.addr", DefaultAddr)
}

// probeDetection logs whether the detection endpoint is reachable. It never blocks start-up.
func probeDetection(client *roboflow.Client, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()
	if err := client.Health(ctx); err != nil {
		log.WithError(err).Warn("Detection endpoint is not reachable, uploads will fail until it is")
		return
	}
	log.Debug("Detection endpoint reachable")
}
