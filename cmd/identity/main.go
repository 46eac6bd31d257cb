package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	config "github.com/davicafu/latamtradex/internal/config"
	identityApp "github.com/davicafu/latamtradex/internal/identity/application"
	identityDomain "github.com/davicafu/latamtradex/internal/identity/domain"
	identityEvents "github.com/davicafu/latamtradex/internal/identity/infra/inbound/events"
	identityPostgres "github.com/davicafu/latamtradex/internal/identity/infra/outbound/db/postgre"
	identitySQLite "github.com/davicafu/latamtradex/internal/identity/infra/outbound/db/sqlite"
	"github.com/davicafu/latamtradex/internal/identity/infra/outbound/security"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	"github.com/davicafu/latamtradex/internal/shared/infra/bootstrap"
	"github.com/davicafu/latamtradex/internal/shared/infra/httpserver"
	"github.com/davicafu/latamtradex/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ---------------- Main ----------------
func main() {
	cfg := config.LoadConfig("identity-service")
	logger.Init(cfg.ServiceName, cfg.LogLevel)
	log := logger.Logger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer bootstrap.Tracing(ctx, cfg, log)()

	// ---------------- DB ----------------
	db, repo := openUserRepo(ctx, cfg, log)
	defer db.Close()

	// ---------------- Broker ----------------
	messaging, err := bootstrap.Connect(ctx, cfg, bootstrap.NewTransport(cfg, log), log)
	if err != nil {
		log.Fatal("❌ No se pudo conectar con el broker", zap.Error(err))
	}
	defer messaging.Close()

	// --------------- Servicio --------------
	authService := identityApp.NewAuthService(repo, security.NewBcryptHasher(cfg.BcryptCost), messaging.Publisher, log)

	// ---------------- Events ---------------
	if err := identityEvents.NewCommandRouter(authService, log).Register(messaging.Registry); err != nil {
		log.Fatal("failed to register command router", zap.Error(err))
	}
	consumer := bootstrap.ConsumeTask(messaging.Subscriber(), []string{contracts.AuthCommandsTopic}, cfg.KafkaFromBeginning)

	r := httpserver.NewEngine(httpserver.Options{Service: cfg.ServiceName, Log: log, Registry: messaging.Prometheus})

	if err := bootstrap.Run(ctx, log, consumer, bootstrap.HTTPTask(cfg, r, log)); err != nil {
		log.Error("identity service stopped with error", zap.Error(err))
	}
}

func openUserRepo(ctx context.Context, cfg *config.Config, log *zap.Logger) (*sql.DB, identityDomain.UserRepository) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to open Postgres", zap.Error(err))
		}
		if err := db.PingContext(ctx); err != nil {
			log.Fatal("failed to ping Postgres", zap.Error(err))
		}
		if err := identityPostgres.InitPostgres(db); err != nil {
			log.Fatal("failed to initialize Postgres", zap.Error(err))
		}
		log.Info("✅ Usuarios en Postgres")
		return db, identityPostgres.NewUserRepoPostgres(db)
	default:
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			log.Fatal("failed to open SQLite", zap.Error(err))
		}
		if err := identitySQLite.InitSQLite(db); err != nil {
			log.Fatal("failed to initialize SQLite", zap.Error(err))
		}
		if err := db.PingContext(ctx); err != nil {
			log.Fatal("failed to ping SQLite", zap.Error(err))
		}
		log.Info("✅ Usuarios en SQLite", zap.String("path", cfg.SQLitePath))
		return db, identitySQLite.NewUserRepoSQLite(db)
	}
}
