package http

import "github.com/gin-gonic/gin"

// RegisterRoutes registra las rutas del gateway bajo /api.
func RegisterRoutes(r gin.IRouter, h *GatewayHandler) {
	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	catalog := api.Group("/catalog")
	{
		catalog.POST("/products", h.CreateProduct)
		catalog.GET("/products/:id", h.GetProduct)
	}

	orders := api.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.PATCH("/:id/status", h.UpdateOrderStatus)
	}
}
