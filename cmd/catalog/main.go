package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	catalogApp "github.com/davicafu/latamtradex/internal/catalog/application"
	catalogDomain "github.com/davicafu/latamtradex/internal/catalog/domain"
	catalogEvents "github.com/davicafu/latamtradex/internal/catalog/infra/inbound/events"
	catalogMemory "github.com/davicafu/latamtradex/internal/catalog/infra/outbound/db/inmemory"
	catalogMongo "github.com/davicafu/latamtradex/internal/catalog/infra/outbound/db/mongodb"
	config "github.com/davicafu/latamtradex/internal/config"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	"github.com/davicafu/latamtradex/internal/shared/infra/bootstrap"
	"github.com/davicafu/latamtradex/internal/shared/infra/httpserver"
	sharedCache "github.com/davicafu/latamtradex/internal/shared/infra/platform/cache"
	"github.com/davicafu/latamtradex/internal/shared/infra/platform/idempotency"
	"github.com/davicafu/latamtradex/pkg/logger"
)

// ---------------- Main ----------------
func main() {
	cfg := config.LoadConfig("catalog-service")
	logger.Init(cfg.ServiceName, cfg.LogLevel)
	log := logger.Logger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer bootstrap.Tracing(ctx, cfg, log)()

	// ---------------- DB ----------------
	repo, closeRepo := openProductRepo(ctx, cfg, log)
	defer closeRepo()

	// ---------------- Cache ----------------
	var (
		cache  sharedCache.Cache
		claims idempotency.Store
	)
	if rdb := bootstrap.Redis(ctx, cfg.RedisAddr, log); rdb != nil {
		defer rdb.Close()
		cache = sharedCache.NewRedisCache(rdb, "catalog:product:", cfg.CacheTTL)
		claims = idempotency.NewRedisStore(rdb, "catalog:stock-claim:", cfg.IdempotencyTTL)
	} else {
		memCache := sharedCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
		defer memCache.Stop()
		cache = memCache
		claims = idempotency.NewInMemoryStore(cfg.IdempotencyTTL)
	}

	// ---------------- Broker ----------------
	messaging, err := bootstrap.Connect(ctx, cfg, bootstrap.NewTransport(cfg, log), log)
	if err != nil {
		log.Fatal("❌ No se pudo conectar con el broker", zap.Error(err))
	}
	defer messaging.Close()

	// --------------- Servicio --------------
	catalogService := catalogApp.NewCatalogService(repo, cache, claims, messaging.Publisher, cfg.CacheTTL, log)

	// ---------------- Events ---------------
	if err := catalogEvents.NewCommandRouter(catalogService, log).Register(messaging.Registry); err != nil {
		log.Fatal("failed to register command router", zap.Error(err))
	}
	if err := catalogEvents.NewStockReactor(catalogService, log).Register(messaging.Registry); err != nil {
		log.Fatal("failed to register stock reactor", zap.Error(err))
	}
	consumer := bootstrap.ConsumeTask(messaging.Subscriber(),
		[]string{contracts.CatalogCommandsTopic, contracts.OrderCreatedTopic}, cfg.KafkaFromBeginning)

	r := httpserver.NewEngine(httpserver.Options{Service: cfg.ServiceName, Log: log, Registry: messaging.Prometheus})

	if err := bootstrap.Run(ctx, log, consumer, bootstrap.HTTPTask(cfg, r, log)); err != nil {
		log.Error("catalog service stopped with error", zap.Error(err))
	}
}

// openProductRepo usa MongoDB y cae a memoria si DB_DRIVER=memory o Mongo no responde.
func openProductRepo(ctx context.Context, cfg *config.Config, log *zap.Logger) (catalogDomain.ProductRepository, func()) {
	if cfg.DBDriver == "memory" {
		log.Info("⚡️ Productos en memoria")
		return catalogMemory.NewProductRepoInMemory(), func() {}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err == nil {
		err = client.Ping(connectCtx, nil)
	}
	if err != nil {
		log.Warn("⚠️ MongoDB no disponible, productos en memoria", zap.Error(err))
		if client != nil {
			_ = client.Disconnect(context.Background())
		}
		return catalogMemory.NewProductRepoInMemory(), func() {}
	}

	repo := catalogMongo.NewProductRepoMongoDB(client, cfg.MongoDB)
	if err := repo.InitIndexes(connectCtx); err != nil {
		log.Fatal("failed to create MongoDB indexes", zap.Error(err))
	}
	log.Info("✅ MongoDB conectado", zap.String("db", cfg.MongoDB))
	return repo, func() { _ = client.Disconnect(context.Background()) }
}
