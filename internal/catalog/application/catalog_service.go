package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davicafu/latamtradex/internal/catalog/domain"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	sharedCache "github.com/davicafu/latamtradex/internal/shared/infra/platform/cache"
	"github.com/davicafu/latamtradex/internal/shared/infra/platform/idempotency"
	"github.com/davicafu/latamtradex/internal/shared/infra/utils"
	"go.uber.org/zap"
)

// errLineInProgress: otra entrega reclamó la línea y aún no la aplicó.
var errLineInProgress = errors.New("stock line claimed by an unfinished attempt")

var readRetry = utils.RetryPolicy{
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     400 * time.Millisecond,
	Multiplier:      2,
	MaxRetries:      2,
}

// CatalogService define los casos de uso del catálogo.
type CatalogService struct {
	repo     domain.ProductRepository
	cache    sharedCache.Cache
	claims   idempotency.Store
	events   domain.EventPublisher
	log      *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

func NewCatalogService(repo domain.ProductRepository, cache sharedCache.Cache, claims idempotency.Store,
	events domain.EventPublisher, cacheTTL time.Duration, log *zap.Logger) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{
		repo:     repo,
		cache:    cache,
		claims:   claims,
		events:   events,
		log:      log,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func (s *CatalogService) CreateProduct(ctx context.Context, cmd contracts.CreateProduct) (*domain.Product, error) {
	p, err := domain.NewProduct(domain.NewProductParams{
		Name:        cmd.Name,
		Description: cmd.Description,
		SKU:         cmd.SKU,
		Price:       cmd.Price,
		Stock:       cmd.Stock,
		Category:    cmd.Category,
		ImageURL:    cmd.ImageURL,
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("✅ Producto creado", zap.String("product_id", p.ID), zap.String("sku", p.SKU))

	sharedCache.AsyncCacheSet(s.cache, domain.CacheKeyByID(p.ID), p, s.cacheTTL, s.log)
	return p, nil
}

// GetProduct obtiene un producto (primero intenta desde cache).
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if s.cache != nil {
		var p domain.Product
		if ok, _ := s.cache.Get(ctx, domain.CacheKeyByID(id), &p); ok {
			return &p, nil
		}
	}

	var product *domain.Product
	err := utils.Retry(ctx, readRetry, func() error {
		var err error
		product, err = s.repo.GetByID(ctx, id)
		if errors.Is(err, domain.ErrProductNotFound) {
			return utils.Permanent(err)
		}
		return err
	}, nil)
	if err != nil {
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, domain.CacheKeyByID(product.ID), product, s.cacheTTL, s.log)
	return product, nil
}

// DecreaseStockForOrder aplica cada línea de un pedido de forma independiente: una línea sin
// producto o sin stock suficiente se salta y el resto sigue. No hay compensación.
// Cada línea aplicada publica stock.updated con la cantidad descontada.
func (s *CatalogService) DecreaseStockForOrder(ctx context.Context, orderID string, items []contracts.OrderItem) error {
	s.log.Info("Actualizando stock", zap.String("order_id", orderID), zap.Int("items", len(items)))

	var errs []error
	for _, item := range items {
		if err := s.decreaseLine(ctx, orderID, item); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.log.Info("Stock update completed", zap.String("order_id", orderID))
	return nil
}

// decreaseLine solo devuelve error para fallos de infraestructura o una línea reclamada por un
// intento sin terminar.
func (s *CatalogService) decreaseLine(ctx context.Context, orderID string, item contracts.OrderItem) error {
	logFields := []zap.Field{
		zap.String("order_id", orderID),
		zap.String("product_id", item.ProductID),
		zap.Int("requested", item.Quantity),
	}

	if item.Quantity <= 0 {
		s.log.Warn("⚠️ Línea con cantidad no positiva, se omite", logFields...)
		return nil
	}

	key := domain.StockClaimKey(orderID, item.ProductID)
	stage, err := s.claims.Claim(ctx, key)
	if err != nil {
		return fmt.Errorf("claim %s: %w", key, err)
	}
	switch stage {
	case idempotency.StagePublished:
		s.log.Info("Línea ya aplicada, se omite", logFields...)
		return nil
	case idempotency.StageApplied:
		s.log.Info("Línea aplicada sin stock.updated, se vuelve a publicar", logFields...)
		return s.publishStockUpdated(ctx, key, item)
	case idempotency.StageClaimed:
		// el intento anterior no llegó a descontar; al caducar su lease se reintenta
		return fmt.Errorf("%w: %s", errLineInProgress, key)
	}

	product, err := s.repo.GetByID(ctx, item.ProductID)
	if err != nil {
		s.release(ctx, key)
		if errors.Is(err, domain.ErrProductNotFound) {
			s.log.Warn("⚠️ Product not found", logFields...)
			return nil
		}
		return fmt.Errorf("get product %s: %w", item.ProductID, err)
	}

	if !product.CanFulfil(item.Quantity) {
		s.release(ctx, key)
		s.log.Warn("⚠️ Insufficient stock", append(logFields, zap.Int("available", product.Stock))...)
		return nil
	}

	updated, err := s.repo.DecrementStock(ctx, item.ProductID, item.Quantity)
	if err != nil {
		s.release(ctx, key)
		if domain.IsDomainError(err) {
			// otro pedido se llevó el stock entre la lectura y la escritura
			s.log.Warn("⚠️ Stock no aplicado", append(logFields, zap.Error(err))...)
			return nil
		}
		return fmt.Errorf("decrement stock %s: %w", item.ProductID, err)
	}
	s.advance(ctx, key, idempotency.StageApplied)

	s.log.Info("📦 Stock actualizado",
		append(logFields, zap.Int("from", updated.Stock+item.Quantity), zap.Int("to", updated.Stock))...)
	sharedCache.InvalidateSync(ctx, s.cache, domain.CacheKeyByID(item.ProductID), s.log)

	return s.publishStockUpdated(ctx, key, item)
}

// publishStockUpdated publica el hecho de una línea ya descontada. Si falla, la línea queda en
// StageApplied y la siguiente entrega lo vuelve a publicar.
func (s *CatalogService) publishStockUpdated(ctx context.Context, key string, item contracts.OrderItem) error {
	evt := contracts.StockUpdated{
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Operation: contracts.StockDecrease,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, contracts.StockUpdatedTopic, evt.ProductID, evt); err != nil {
		return fmt.Errorf("publish %s for %s: %w", contracts.StockUpdatedTopic, item.ProductID, err)
	}
	s.advance(ctx, key, idempotency.StagePublished)
	return nil
}

func (s *CatalogService) advance(ctx context.Context, key string, stage idempotency.Stage) {
	if err := s.claims.Advance(ctx, key, stage); err != nil {
		s.log.Warn("No se pudo registrar la etapa de la línea",
			zap.String("key", key), zap.String("stage", string(stage)), zap.Error(err))
	}
}

func (s *CatalogService) release(ctx context.Context, key string) {
	if err := s.claims.Release(ctx, key); err != nil {
		s.log.Warn("No se pudo liberar la reclamación", zap.String("key", key), zap.Error(err))
	}
}
