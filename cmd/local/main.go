package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	config "github.com/davicafu/latamtradex/internal/config"
	"github.com/davicafu/latamtradex/internal/local"
	"github.com/davicafu/latamtradex/internal/shared/infra/bootstrap"
	"github.com/davicafu/latamtradex/pkg/logger"
)

// Todos los servicios en un proceso, sin Kafka ni bases de datos externas.
func main() {
	cfg := config.LoadConfig("latamtradex-local")
	logger.Init(cfg.ServiceName, cfg.LogLevel)
	log := logger.Logger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer bootstrap.Tracing(ctx, cfg, log)()

	stack, err := local.New(ctx, local.Options{
		Partitions:     cfg.MemoryPartitionsCount,
		BcryptCost:     cfg.BcryptCost,
		CacheTTL:       cfg.CacheTTL,
		AnalyticsBatch: cfg.AnalyticsBatchSize,
		AnalyticsFlush: cfg.AnalyticsFlushInterval,
		Log:            log,
	})
	if err != nil {
		log.Fatal("❌ No se pudo montar el entorno local", zap.Error(err))
	}
	defer stack.Close()

	if err := bootstrap.Run(ctx, log, stack.Run, bootstrap.HTTPTask(cfg, stack.HTTP, log)); err != nil {
		log.Error("local stack stopped with error", zap.Error(err))
	}
}
