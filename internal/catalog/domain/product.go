package domain

import (
	"fmt"
	"strings"
	"time"

	sharedBus "github.com/davicafu/latamtradex/internal/shared/infra/platform/bus"
	"github.com/google/uuid"
)

// Product es un artículo del catálogo con su stock disponible.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SKU         string    `json:"sku"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewProductParams agrupa los datos de alta de un producto.
type NewProductParams struct {
	Name        string
	Description string
	SKU         string
	Price       float64
	Stock       int
	Category    string
	ImageURL    string
}

func NewProduct(p NewProductParams, now time.Time) (*Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.SKU = strings.TrimSpace(p.SKU)

	switch {
	case p.Name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case p.Description == "":
		return nil, fmt.Errorf("%w: description is required", ErrInvalidProduct)
	case p.SKU == "":
		return nil, fmt.Errorf("%w: sku is required", ErrInvalidProduct)
	case p.Price < 0:
		return nil, fmt.Errorf("%w: negative price", ErrInvalidProduct)
	case p.Stock < 0:
		return nil, fmt.Errorf("%w: negative stock", ErrInvalidProduct)
	}

	now = now.UTC()
	return &Product{
		ID:          uuid.NewString(),
		Name:        p.Name,
		Description: p.Description,
		SKU:         p.SKU,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanFulfil indica si hay stock para quantity unidades.
func (p *Product) CanFulfil(quantity int) bool {
	return quantity > 0 && p.Stock >= quantity
}

func (p *Product) PartitionKey() string {
	return p.ID
}

// CacheKeyByID forma una key consistente para cache usando ID.
func CacheKeyByID(id string) string {
	return "product:id:" + id
}

// StockClaimKey identifica la aplicación de una línea de pedido sobre un producto.
func StockClaimKey(orderID, productID string) string {
	return orderID + ":" + productID
}

var _ sharedBus.Keyer = (*Product)(nil)
