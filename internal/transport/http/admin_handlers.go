package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ErrorResponse is the JSON body of a failed admin request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AdminHandlers serves read-only views of the relay.
type AdminHandlers struct {
	relay   Relay
	timeout time.Duration
	log     *zerolog.Logger
}

// NewAdminHandlers creates admin handlers. A zero timeout waits on the
// request context alone.
func NewAdminHandlers(relay Relay, timeout time.Duration, logger *zerolog.Logger) *AdminHandlers {
	return &AdminHandlers{relay: relay, timeout: timeout, log: logger}
}

// Health handles GET /health
func (h *AdminHandlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Clients handles GET /clients
func (h *AdminHandlers) Clients(c *gin.Context) {
	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	snap, err := h.relay.Snapshot(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("directory snapshot failed")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "directory unavailable"})
		return
	}

	c.JSON(http.StatusOK, snap)
}
