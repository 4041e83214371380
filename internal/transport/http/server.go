package http

import (
	"context"
	"net"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/config"
	"github.com/vovakirdan/chatrelay/internal/core"
)

// Relay is the part of the coordinator the admin server talks to.
type Relay interface {
	Admit(ctx context.Context, conn net.Conn) (core.Session, error)
	Snapshot(ctx context.Context) (core.Snapshot, error)
}

// NewServer builds the admin HTTP server: health, directory listing and the
// websocket line gateway. /ws stays off the gin router because the upgrade
// has to hijack an untouched ResponseWriter.
func NewServer(relay Relay, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	admin := NewAdminHandlers(relay, cfg.SnapshotTimeout, logger)
	router.GET("/health", admin.Health)
	router.GET("/clients", admin.Clients)

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", RateLimit(newRateLimiter(cfg.WSRateLimit), NewWSHandler(relay, logger)))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.AdminAddr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
