package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	config "github.com/davicafu/latamtradex/internal/config"
	orderApp "github.com/davicafu/latamtradex/internal/order/application"
	orderDomain "github.com/davicafu/latamtradex/internal/order/domain"
	orderEvents "github.com/davicafu/latamtradex/internal/order/infra/inbound/events"
	orderMemory "github.com/davicafu/latamtradex/internal/order/infra/outbound/db/inmemory"
	orderPostgres "github.com/davicafu/latamtradex/internal/order/infra/outbound/db/postgre"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	"github.com/davicafu/latamtradex/internal/shared/infra/bootstrap"
	"github.com/davicafu/latamtradex/internal/shared/infra/httpserver"
	"github.com/davicafu/latamtradex/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ---------------- Main ----------------
func main() {
	cfg := config.LoadConfig("order-service")
	logger.Init(cfg.ServiceName, cfg.LogLevel)
	log := logger.Logger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer bootstrap.Tracing(ctx, cfg, log)()

	// ---------------- DB ----------------
	var repo orderDomain.OrderRepository
	if cfg.DBDriver == "postgres" {
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to open Postgres", zap.Error(err))
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal("failed to ping Postgres", zap.Error(err))
		}
		if err := orderPostgres.InitPostgres(db); err != nil {
			log.Fatal("failed to initialize Postgres", zap.Error(err))
		}
		repo = orderPostgres.NewOrderRepoPostgres(db)
		log.Info("✅ Pedidos en Postgres")
	} else {
		repo = orderMemory.NewOrderRepoInMemory()
		log.Info("⚡️ Pedidos en memoria")
	}

	// ---------------- Broker ----------------
	messaging, err := bootstrap.Connect(ctx, cfg, bootstrap.NewTransport(cfg, log), log)
	if err != nil {
		log.Fatal("❌ No se pudo conectar con el broker", zap.Error(err))
	}
	defer messaging.Close()

	// --------------- Servicio --------------
	orderService := orderApp.NewOrderService(repo, messaging.Publisher, log)

	// ---------------- Events ---------------
	if err := orderEvents.NewCommandRouter(orderService, log).Register(messaging.Registry); err != nil {
		log.Fatal("failed to register command router", zap.Error(err))
	}
	r := httpserver.NewEngine(httpserver.Options{Service: cfg.ServiceName, Log: log, Registry: messaging.Prometheus})

	err = bootstrap.Run(ctx, log,
		bootstrap.ConsumeTask(messaging.Subscriber(), []string{contracts.OrderCommandsTopic}, cfg.KafkaFromBeginning),
		bootstrap.HTTPTask(cfg, r, log),
	)
	if err != nil {
		log.Error("order service stopped with error", zap.Error(err))
	}
}
