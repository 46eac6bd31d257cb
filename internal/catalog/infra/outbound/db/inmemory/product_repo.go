package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/davicafu/latamtradex/internal/catalog/domain"
)

// ProductRepoInMemory implementa ProductRepository con un mapa. Se usa en despliegue local.
type ProductRepoInMemory struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	skus     map[string]string
}

var _ domain.ProductRepository = (*ProductRepoInMemory)(nil)

func NewProductRepoInMemory() *ProductRepoInMemory {
	return &ProductRepoInMemory{
		products: make(map[string]*domain.Product),
		skus:     make(map[string]string),
	}
}

func (r *ProductRepoInMemory) Create(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.skus[p.SKU]; ok {
		return fmt.Errorf("%w: sku %s", domain.ErrProductAlreadyExists, p.SKU)
	}
	if _, ok := r.products[p.ID]; ok {
		return fmt.Errorf("%w: id %s", domain.ErrProductAlreadyExists, p.ID)
	}
	cp := *p
	r.products[p.ID] = &cp
	r.skus[p.SKU] = p.ID
	return nil
}

func (r *ProductRepoInMemory) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *ProductRepoInMemory) DecrementStock(_ context.Context, id string, quantity int) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if !p.CanFulfil(quantity) {
		return nil, fmt.Errorf("%w: %s has %d, requested %d", domain.ErrInsufficientStock, id, p.Stock, quantity)
	}
	p.Stock -= quantity
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}
