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
	"syscall"
	"time"

	"faceswapd/internal/config"
	"faceswapd/internal/infra/logging"
	"faceswapd/internal/infra/metrics"
	red "faceswapd/internal/infra/redis"
	"faceswapd/internal/infra/storage"
	"faceswapd/internal/infra/web"
	"faceswapd/internal/usecase"
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

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClient.Close()

	// ---- Artifact stores ----
	uploads, err := storage.NewFileStore(cfg.Storage.UploadRoot)
	if err != nil {
		logger.Fatal().Err(err).Msg("upload store init failed")
	}
	outputs, err := storage.NewFileStore(cfg.Storage.OutputRoot)
	if err != nil {
		logger.Fatal().Err(err).Msg("output store init failed")
	}

	// ---- Use cases ----
	jobRepo := red.NewJobRepo(redisClient)
	queue := red.NewQueue(redisClient)
	dispatchUC := usecase.NewDispatchUseCase(jobRepo, queue, uploads, logging.Component(logger, "dispatch"))
	statusUC := usecase.NewStatusUseCase(jobRepo)

	// ---- HTTP ----
	srv := web.NewServer(dispatchUC, statusUC, uploads, outputs.Root(),
		cfg.Transformer.EnhancerDefault, logging.Component(logger, "web"))
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("api server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
