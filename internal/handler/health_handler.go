package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse reports whether the service can reach its completion provider.
type HealthResponse struct {
	Status        string  `json:"status"`
	APIConfigured bool    `json:"api_configured"`
	Error         *string `json:"error"`
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	configErr error
}

// NewHealthHandler creates a new HealthHandler from the startup
// configuration check. A nil configErr means fully configured.
func NewHealthHandler(configErr error) *HealthHandler {
	return &HealthHandler{configErr: configErr}
}

// Health handles GET /api/health
// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	if h.configErr != nil {
		msg := h.configErr.Error()
		c.JSON(http.StatusOK, HealthResponse{Status: "degraded", APIConfigured: false, Error: &msg})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", APIConfigured: true})
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
