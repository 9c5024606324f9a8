package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tcp-user-service/internal/usecase/user"
)

// readyTimeout bounds how long a readiness probe waits on the database.
const readyTimeout = 2 * time.Second

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	conn    user.Connector
	service string
	log     *zap.Logger
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(conn user.Connector, service string, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		conn:    conn,
		service: service,
		log:     log,
	}
}

// StatusResponse is the body of every probe response
type StatusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Error   string `json:"error,omitempty"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Status: "healthy", Service: h.service})
}

// Ready handles GET /ready. It opens a session the same way a request
// would and pings it.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	if err := h.check(ctx); err != nil {
		h.log.Warn("readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, StatusResponse{
			Status:  "unavailable",
			Service: h.service,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Status: "ready", Service: h.service})
}

func (h *HealthHandler) check(ctx context.Context) error {
	session, err := h.conn.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			h.log.Warn("failed to close readiness session", zap.Error(cerr))
		}
	}()

	return session.Ping(ctx)
}
