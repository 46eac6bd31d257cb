package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	analyticsApp "github.com/davicafu/latamtradex/internal/analytics/application"
	analyticsDomain "github.com/davicafu/latamtradex/internal/analytics/domain"
	analyticsEvents "github.com/davicafu/latamtradex/internal/analytics/infra/inbound/events"
	analyticsHttp "github.com/davicafu/latamtradex/internal/analytics/infra/inbound/http"
	"github.com/davicafu/latamtradex/internal/analytics/infra/outbound/clickhouse"
	analyticsMemory "github.com/davicafu/latamtradex/internal/analytics/infra/outbound/inmemory"
	config "github.com/davicafu/latamtradex/internal/config"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	"github.com/davicafu/latamtradex/internal/shared/infra/bootstrap"
	"github.com/davicafu/latamtradex/internal/shared/infra/httpserver"
	"github.com/davicafu/latamtradex/pkg/logger"
)

// ---------------- Main ----------------
func main() {
	cfg := config.LoadConfig("analytics-service")
	logger.Init(cfg.ServiceName, cfg.LogLevel)
	log := logger.Logger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer bootstrap.Tracing(ctx, cfg, log)()

	// ---------------- Store ----------------
	var repo analyticsDomain.TradeLogRepository
	if cfg.AnalyticsStore == "clickhouse" {
		ch, err := clickhouse.NewTradeLogRepo(ctx, cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err != nil {
			log.Fatal("failed to connect ClickHouse", zap.Error(err))
		}
		defer ch.Close()
		if err := ch.InitSchema(ctx); err != nil {
			log.Fatal("failed to initialize ClickHouse", zap.Error(err))
		}
		repo = ch
		log.Info("✅ ClickHouse conectado", zap.String("addr", cfg.ClickHouseAddr))
	} else {
		repo = analyticsMemory.NewTradeLogRepo()
		log.Info("⚡️ Registro de operaciones en memoria")
	}
	batcher := analyticsApp.NewBatcher(repo, cfg.AnalyticsBatchSize, cfg.AnalyticsFlushInterval, log)

	// ---------------- Broker ----------------
	messaging, err := bootstrap.Connect(ctx, cfg, bootstrap.NewTransport(cfg, log), log)
	if err != nil {
		log.Fatal("❌ No se pudo conectar con el broker", zap.Error(err))
	}
	defer messaging.Close()

	// ---------------- Events ---------------
	if err := analyticsEvents.NewTradeLogReactor(batcher, log).Register(messaging.Registry); err != nil {
		log.Fatal("failed to register trade log reactor", zap.Error(err))
	}
	consumer := bootstrap.ConsumeTask(messaging.Subscriber(),
		[]string{contracts.OrderCreatedTopic, contracts.OrderUpdatedTopic, contracts.StockUpdatedTopic}, cfg.KafkaFromBeginning)

	// ---------------- HTTP ----------------
	r := httpserver.NewEngine(httpserver.Options{Service: cfg.ServiceName, Log: log, Registry: messaging.Prometheus})
	analyticsHttp.RegisterRoutes(r, analyticsHttp.NewAnalyticsHandler(batcher))

	if err := bootstrap.Run(ctx, log, consumer, batcher.Run, bootstrap.HTTPTask(cfg, r, log)); err != nil {
		log.Error("analytics service stopped with error", zap.Error(err))
	}
}
