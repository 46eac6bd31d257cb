package http

import "github.com/davicafu/latamtradex/internal/shared/contracts"

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required,min=2"`
	Role     string `json:"role" binding:"required,oneof=buyer seller admin"`
}

func (r registerRequest) command() contracts.RegisterUser {
	return contracts.RegisterUser{Email: r.Email, Password: r.Password, Name: r.Name, Role: r.Role}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (r loginRequest) command() contracts.LoginUser {
	return contracts.LoginUser{Email: r.Email, Password: r.Password}
}

// Punteros en price y stock: el campo es obligatorio pero 0 es válido.
type createProductRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description" binding:"required"`
	SKU         string   `json:"sku" binding:"required"`
	Price       *float64 `json:"price" binding:"required,gte=0"`
	Stock       *int     `json:"stock" binding:"required,gte=0"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"imageUrl"`
}

func (r createProductRequest) command() contracts.CreateProduct {
	return contracts.CreateProduct{
		Name:        r.Name,
		Description: r.Description,
		SKU:         r.SKU,
		Price:       *r.Price,
		Stock:       *r.Stock,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
	}
}

type orderItemRequest struct {
	ProductID string   `json:"productId" binding:"required"`
	Quantity  int      `json:"quantity" binding:"required,min=1"`
	Price     *float64 `json:"price" binding:"required,gte=0"`
}

type createOrderRequest struct {
	UserID string             `json:"userId" binding:"required"`
	Items  []orderItemRequest `json:"items" binding:"required,min=1,dive"`
}

func (r createOrderRequest) command() contracts.CreateOrder {
	items := make([]contracts.OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, contracts.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: *it.Price})
	}
	return contracts.CreateOrder{UserID: r.UserID, Items: items}
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed processing shipped delivered cancelled"`
}
