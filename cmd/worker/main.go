package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"faceswapd/internal/config"
	"faceswapd/internal/infra/logging"
	"faceswapd/internal/infra/metrics"
	red "faceswapd/internal/infra/redis"
	"faceswapd/internal/infra/storage"
	"faceswapd/internal/infra/transformer"
	"faceswapd/internal/infra/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log)
	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClient.Close()

	uploads, err := storage.NewFileStore(cfg.Storage.UploadRoot)
	if err != nil {
		logger.Fatal().Err(err).Msg("upload store init failed")
	}
	outputs, err := storage.NewFileStore(cfg.Storage.OutputRoot)
	if err != nil {
		logger.Fatal().Err(err).Msg("output store init failed")
	}

	jobRepo := red.NewJobRepo(redisClient)
	queue := red.NewQueue(redisClient)
	tf := transformer.NewCLIAdapter(cfg.Transformer)

	staging := filepath.Join(os.TempDir(), "faceswapd-staging")
	exec, err := worker.NewExecutor(queue, jobRepo, uploads, outputs, tf, staging,
		logging.Component(logger, "executor"))
	if err != nil {
		logger.Fatal().Err(err).Msg("executor init failed")
	}

	if cfg.Server.MetricsPort > 0 {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info().Str("addr", addr).Msg("metrics listening")
			if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	if err := exec.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("executor stopped")
	}
}
