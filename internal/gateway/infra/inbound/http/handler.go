package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/davicafu/latamtradex/internal/gateway/application"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	"github.com/davicafu/latamtradex/pkg/utils"
)

const ServiceName = "api-gateway"

// HealthPath es la ruta de salud pública del gateway.
const HealthPath = "/api/health"

type CommandDispatcher interface {
	Dispatch(ctx context.Context, topic, key string, cmd application.Command) error
}

// GatewayHandler publica un comando por petición y responde 202 sin esperar al servicio
// propietario: el cliente no recibe el resultado por esta vía.
type GatewayHandler struct {
	commands CommandDispatcher
	log      *zap.Logger
}

func NewGatewayHandler(commands CommandDispatcher, log *zap.Logger) *GatewayHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &GatewayHandler{commands: commands, log: log}
}

// Register endpoint POST /api/auth/register
func (h *GatewayHandler) Register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req) {
		return
	}
	h.log.Info("Registration request received", zap.String("email", req.Email))
	h.dispatch(c, contracts.AuthCommandsTopic, req.Email, req.command(),
		"Registration request received. Please check your email.")
}

// Login endpoint POST /api/auth/login
func (h *GatewayHandler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}
	h.log.Info("Login request received", zap.String("email", req.Email))
	h.dispatch(c, contracts.AuthCommandsTopic, req.Email, req.command(), "Login request received. Processing...")
}

// CreateProduct endpoint POST /api/catalog/products
func (h *GatewayHandler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if !h.bind(c, &req) {
		return
	}
	h.log.Info("Create product request", zap.String("name", req.Name), zap.String("sku", req.SKU))
	h.dispatch(c, contracts.CatalogCommandsTopic, req.SKU, req.command(), "Product creation request received")
}

// GetProduct endpoint GET /api/catalog/products/:id
func (h *GatewayHandler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	h.log.Info("Get product request", zap.String("product_id", id))
	h.dispatch(c, contracts.CatalogCommandsTopic, id, contracts.GetProduct{ProductID: id}, "Product query request received")
}

// CreateOrder endpoint POST /api/orders
func (h *GatewayHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if !h.bind(c, &req) {
		return
	}
	h.log.Info("Create order request", zap.String("user_id", req.UserID), zap.Int("items", len(req.Items)))
	h.dispatch(c, contracts.OrderCommandsTopic, req.UserID, req.command(), "Order creation request received")
}

// UpdateOrderStatus endpoint PATCH /api/orders/:id/status
func (h *GatewayHandler) UpdateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if !h.bind(c, &req) {
		return
	}
	id := c.Param("id")
	h.log.Info("Update order status request", zap.String("order_id", id), zap.String("status", req.Status))
	h.dispatch(c, contracts.OrderCommandsTopic, id,
		contracts.UpdateOrderStatus{OrderID: id, Status: req.Status}, "Order status update request received")
}

// Health devuelve el cuerpo de HealthPath.
func Health(now func() time.Time) func() gin.H {
	return func() gin.H {
		return gin.H{
			"status":    "OK",
			"service":   ServiceName,
			"timestamp": now().UTC().Format(time.RFC3339Nano),
		}
	}
}

func (h *GatewayHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.SendBadRequest(c, "invalid request", err.Error())
		return false
	}
	return true
}

func (h *GatewayHandler) dispatch(c *gin.Context, topic, key string, cmd application.Command, message string) {
	if err := h.commands.Dispatch(c.Request.Context(), topic, key, cmd); err != nil {
		utils.SendServiceUnavailable(c, "command could not be published, try again later")
		return
	}
	utils.SendAccepted(c, message)
}
