package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/davicafu/latamtradex/internal/config"
	gatewayApp "github.com/davicafu/latamtradex/internal/gateway/application"
	gatewayHttp "github.com/davicafu/latamtradex/internal/gateway/infra/inbound/http"
	"github.com/davicafu/latamtradex/internal/shared/infra/bootstrap"
	"github.com/davicafu/latamtradex/internal/shared/infra/httpserver"
	"github.com/davicafu/latamtradex/pkg/logger"
)

// ---------------- Main ----------------
func main() {
	cfg := config.LoadConfig(gatewayHttp.ServiceName)
	logger.Init(cfg.ServiceName, cfg.LogLevel)
	log := logger.Logger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer bootstrap.Tracing(ctx, cfg, log)()

	// ---------------- Broker ----------------
	messaging, err := bootstrap.Connect(ctx, cfg, bootstrap.NewTransport(cfg, log), log)
	if err != nil {
		log.Fatal("❌ No se pudo conectar con el broker", zap.Error(err))
	}
	defer messaging.Close()

	// ---------------- HTTP ----------------
	dispatcher := gatewayApp.NewDispatcher(messaging.Publisher, log)
	handler := gatewayHttp.NewGatewayHandler(dispatcher, log)

	r := httpserver.NewEngine(httpserver.Options{
		Service:    cfg.ServiceName,
		Log:        log,
		Registry:   messaging.Prometheus,
		HealthPath: gatewayHttp.HealthPath,
		Health:     gatewayHttp.Health(time.Now),
	})
	gatewayHttp.RegisterRoutes(r, handler)

	if err := bootstrap.Run(ctx, log, bootstrap.HTTPTask(cfg, r, log)); err != nil {
		log.Error("gateway stopped with error", zap.Error(err))
	}
}
