// Package local monta los cinco servicios en un único proceso sobre el broker en memoria.
// Cada servicio tiene su propio cliente y consumer group, igual que desplegado por separado.
package local

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	analyticsApp "github.com/davicafu/latamtradex/internal/analytics/application"
	analyticsEvents "github.com/davicafu/latamtradex/internal/analytics/infra/inbound/events"
	analyticsHttp "github.com/davicafu/latamtradex/internal/analytics/infra/inbound/http"
	analyticsMemory "github.com/davicafu/latamtradex/internal/analytics/infra/outbound/inmemory"
	catalogApp "github.com/davicafu/latamtradex/internal/catalog/application"
	catalogEvents "github.com/davicafu/latamtradex/internal/catalog/infra/inbound/events"
	catalogMemory "github.com/davicafu/latamtradex/internal/catalog/infra/outbound/db/inmemory"
	"github.com/davicafu/latamtradex/internal/config"
	gatewayApp "github.com/davicafu/latamtradex/internal/gateway/application"
	gatewayHttp "github.com/davicafu/latamtradex/internal/gateway/infra/inbound/http"
	identityApp "github.com/davicafu/latamtradex/internal/identity/application"
	identityEvents "github.com/davicafu/latamtradex/internal/identity/infra/inbound/events"
	identitySQLite "github.com/davicafu/latamtradex/internal/identity/infra/outbound/db/sqlite"
	"github.com/davicafu/latamtradex/internal/identity/infra/outbound/security"
	orderApp "github.com/davicafu/latamtradex/internal/order/application"
	orderEvents "github.com/davicafu/latamtradex/internal/order/infra/inbound/events"
	orderMemory "github.com/davicafu/latamtradex/internal/order/infra/outbound/db/inmemory"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	"github.com/davicafu/latamtradex/internal/shared/infra/bootstrap"
	"github.com/davicafu/latamtradex/internal/shared/infra/broker"
	"github.com/davicafu/latamtradex/internal/shared/infra/httpserver"
	sharedCache "github.com/davicafu/latamtradex/internal/shared/infra/platform/cache"
	"github.com/davicafu/latamtradex/internal/shared/infra/platform/idempotency"

	_ "modernc.org/sqlite"
)

type Options struct {
	Partitions     int
	BcryptCost     int
	CacheTTL       time.Duration
	AnalyticsBatch int
	AnalyticsFlush time.Duration
	Log            *zap.Logger
}

// Stack son los servicios ya conectados. Los stores quedan expuestos para inspección.
type Stack struct {
	Transport *broker.MemoryTransport
	// HTTP sirve la API del gateway y la de analytics.
	HTTP *gin.Engine

	Users     *identitySQLite.UserRepoSQLite
	Products  *catalogMemory.ProductRepoInMemory
	Orders    *orderMemory.OrderRepoInMemory
	TradeLog  *analyticsMemory.TradeLogRepo
	Analytics *analyticsApp.Batcher

	tasks   []bootstrap.Task
	closers []func()
	log     *zap.Logger
}

func New(ctx context.Context, opts Options) (*Stack, error) {
	if opts.Partitions <= 0 {
		opts.Partitions = 3
	}
	if opts.BcryptCost <= 0 {
		opts.BcryptCost = 4
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	s := &Stack{Transport: broker.NewMemoryTransport(opts.Partitions), log: opts.Log}
	if err := s.build(ctx, opts); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Stack) build(ctx context.Context, opts Options) error {
	// ---------------- Identity ----------------
	identity, err := s.connect(ctx, "identity-service")
	if err != nil {
		return err
	}
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)
	s.closers = append(s.closers, func() { db.Close() })
	if err := identitySQLite.InitSQLite(db); err != nil {
		return err
	}
	s.Users = identitySQLite.NewUserRepoSQLite(db)
	authService := identityApp.NewAuthService(s.Users, security.NewBcryptHasher(opts.BcryptCost), identity.Publisher, s.log)
	if err := identityEvents.NewCommandRouter(authService, s.log).Register(identity.Registry); err != nil {
		return err
	}
	s.consume(identity, contracts.AuthCommandsTopic)

	// ---------------- Catalog ----------------
	catalog, err := s.connect(ctx, "catalog-service")
	if err != nil {
		return err
	}
	cache := sharedCache.NewInMemoryCache(opts.CacheTTL, 3*opts.CacheTTL)
	s.closers = append(s.closers, cache.Stop)
	s.Products = catalogMemory.NewProductRepoInMemory()
	catalogService := catalogApp.NewCatalogService(s.Products, cache, idempotency.NewInMemoryStore(24*time.Hour),
		catalog.Publisher, opts.CacheTTL, s.log)
	if err := catalogEvents.NewCommandRouter(catalogService, s.log).Register(catalog.Registry); err != nil {
		return err
	}
	if err := catalogEvents.NewStockReactor(catalogService, s.log).Register(catalog.Registry); err != nil {
		return err
	}
	s.consume(catalog, contracts.CatalogCommandsTopic, contracts.OrderCreatedTopic)

	// ---------------- Order ----------------
	order, err := s.connect(ctx, "order-service")
	if err != nil {
		return err
	}
	s.Orders = orderMemory.NewOrderRepoInMemory()
	orderService := orderApp.NewOrderService(s.Orders, order.Publisher, s.log)
	if err := orderEvents.NewCommandRouter(orderService, s.log).Register(order.Registry); err != nil {
		return err
	}
	s.consume(order, contracts.OrderCommandsTopic)

	// ---------------- Analytics ----------------
	analytics, err := s.connect(ctx, "analytics-service")
	if err != nil {
		return err
	}
	s.TradeLog = analyticsMemory.NewTradeLogRepo()
	s.Analytics = analyticsApp.NewBatcher(s.TradeLog, opts.AnalyticsBatch, opts.AnalyticsFlush, s.log)
	if err := analyticsEvents.NewTradeLogReactor(s.Analytics, s.log).Register(analytics.Registry); err != nil {
		return err
	}
	s.consume(analytics, contracts.OrderCreatedTopic, contracts.OrderUpdatedTopic, contracts.StockUpdatedTopic)
	s.tasks = append(s.tasks, s.Analytics.Run)

	// ---------------- Gateway ----------------
	gateway, err := s.connect(ctx, gatewayHttp.ServiceName)
	if err != nil {
		return err
	}
	s.HTTP = httpserver.NewEngine(httpserver.Options{
		Service:    gatewayHttp.ServiceName,
		Log:        s.log,
		Registry:   gateway.Prometheus,
		HealthPath: gatewayHttp.HealthPath,
		Health:     gatewayHttp.Health(time.Now),
	})
	gatewayHttp.RegisterRoutes(s.HTTP, gatewayHttp.NewGatewayHandler(gatewayApp.NewDispatcher(gateway.Publisher, s.log), s.log))
	analyticsHttp.RegisterRoutes(s.HTTP, analyticsHttp.NewAnalyticsHandler(s.Analytics))

	return nil
}

// Run consume en todos los servicios hasta que ctx se cancele.
func (s *Stack) Run(ctx context.Context) error {
	return bootstrap.Run(ctx, s.log, s.tasks...)
}

// Close libera los clientes y los stores. Llamar después de que Run haya terminado.
func (s *Stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// GroupID es el consumer group de service dentro del stack.
func GroupID(service string) string {
	return service + "-group"
}

func (s *Stack) connect(ctx context.Context, service string) (*bootstrap.Messaging, error) {
	cfg := &config.Config{
		ServiceName:         service,
		KafkaClientID:       service,
		KafkaGroupID:        GroupID(service),
		KafkaConnectBackoff: 10 * time.Millisecond,
		KafkaConnectMaxWait: 100 * time.Millisecond,
		KafkaConnectRetries: 3,
	}
	m, err := bootstrap.Connect(ctx, cfg, s.Transport, s.log.With(zap.String("service", service)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", service, err)
	}
	s.closers = append(s.closers, m.Close)
	return m, nil
}

// consume suscribe el servicio desde el principio: los grupos de este proceso son nuevos y
// no deben perder lo publicado antes de que arranque su consumidor.
func (s *Stack) consume(m *bootstrap.Messaging, topics ...string) {
	s.tasks = append(s.tasks, bootstrap.ConsumeTask(m.Subscriber(), topics, true))
}
