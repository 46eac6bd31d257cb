package bootstrap

import (
	"context"
	"net/http"

	"github.com/davicafu/latamtradex/internal/config"
	"github.com/davicafu/latamtradex/internal/shared/infra/httpserver"
	"github.com/davicafu/latamtradex/internal/shared/infra/telemetry"
	"go.uber.org/zap"
)

// Tracing instala el proveedor de trazas. Si falla el proceso sigue sin trazas.
// La función devuelta se llama al salir.
func Tracing(ctx context.Context, cfg *config.Config, log *zap.Logger) func() {
	shutdown, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OtelEndpoint,
		Insecure:    cfg.OtelInsecure,
	})
	if err != nil {
		log.Warn("⚠️ Trazas deshabilitadas", zap.Error(err))
		return func() {}
	}
	return func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn("⚠️ Error al vaciar trazas", zap.Error(err))
		}
	}
}

// HTTPTask sirve handler en HTTP_PORT hasta la parada.
func HTTPTask(cfg *config.Config, handler http.Handler, log *zap.Logger) Task {
	return func(ctx context.Context) error {
		return httpserver.Run(ctx, ":"+cfg.HTTPPort, handler, log)
	}
}
