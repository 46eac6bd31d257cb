package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse define la estructura estándar para las respuestas de error.
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// AcceptedResponse es el acuse de un comando publicado: el resultado llega más tarde.
type AcceptedResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// SendSuccess envía una respuesta exitosa con un payload de datos.
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"data": data,
	})
}

// SendAccepted responde 202 con status "pending".
func SendAccepted(c *gin.Context, message string) {
	c.JSON(http.StatusAccepted, AcceptedResponse{Message: message, Status: "pending"})
}

// SendError envía una respuesta de error con un formato estandarizado.
func SendError(c *gin.Context, statusCode int, message string, details ...string) {
	resp := ErrorResponse{Message: message}
	if len(details) > 0 {
		resp.Details = details[0]
	}
	c.JSON(statusCode, gin.H{"error": resp})
}

// --- Helpers específicos para errores comunes ---

func SendBadRequest(c *gin.Context, message string, details ...string) {
	SendError(c, http.StatusBadRequest, message, details...)
}

func SendServiceUnavailable(c *gin.Context, message string) {
	SendError(c, http.StatusServiceUnavailable, message)
}

func SendInternalServerError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, message)
}
