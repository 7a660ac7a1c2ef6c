package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/COROTANjayson/readify/internal/metrics"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
	"github.com/COROTANjayson/readify/internal/pkg/response"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// KeepAlive touches the database so idle hosted instances stay warm.
func (h *HealthHandler) KeepAlive(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		handleError(c, appErr.ErrInternal)
		return
	}
	response.Success(c, gin.H{"status": "ok"})
}

func (h *HealthHandler) Metrics(c *gin.Context) {
	metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
