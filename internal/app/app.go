package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/config"
	"github.com/vovakirdan/chatrelay/internal/core"
	"github.com/vovakirdan/chatrelay/internal/mailbox"
	transporthttp "github.com/vovakirdan/chatrelay/internal/transport/http"
	"github.com/vovakirdan/chatrelay/internal/transport/tcp"
)

// App wires together core and transport layers.
type App struct {
	transport       *mailbox.Transport[core.Envelope]
	coordinator     *core.Coordinator
	tcp             *tcp.Server
	admin           *stdhttp.Server
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	transport := mailbox.NewTransport[core.Envelope](cfg.Namespace)
	coordinator, err := core.NewCoordinator(transport, core.Options{
		Capacity: cfg.Capacity,
		Worker: core.WorkerOptions{
			MaxLineLength:   cfg.MaxLineLength,
			SnapshotTimeout: cfg.SnapshotTimeout,
			WriteTimeout:    cfg.WriteTimeout,
		},
	}, logger)
	if err != nil {
		transport.Shutdown()
		return nil, fmt.Errorf("init coordinator: %w", err)
	}

	a := &App{
		transport:       transport,
		coordinator:     coordinator,
		tcp:             tcp.NewServer(cfg.Addr, coordinator, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}
	if cfg.AdminAddr != "" {
		a.admin = transporthttp.NewServer(coordinator, cfg, logger)
	}
	return a, nil
}

// Addr reports the bound chat address once Run has started listening.
func (a *App) Addr() string {
	if addr := a.tcp.Addr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Run binds the listener, serves until ctx is cancelled or a fatal error
// occurs, then stops every component within the shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	defer a.transport.Shutdown()

	if err := a.tcp.Listen(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	coordErr := make(chan error, 1)
	serveErr := make(chan error, 1)
	adminErr := make(chan error, 1)

	go func() { coordErr <- a.coordinator.Run(ctx) }()
	go func() { serveErr <- a.tcp.Serve(ctx) }()

	a.log.Info().Str("addr", a.Addr()).Msgf("chat relay listening, connect with: telnet localhost %s", port(a.Addr()))

	if a.admin != nil {
		go func() {
			a.log.Info().Str("addr", a.admin.Addr).Msg("admin server listening")
			if err := a.admin.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				adminErr <- err
				return
			}
			adminErr <- nil
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-coordErr:
		coordErr <- err
		if err != nil {
			runErr = fmt.Errorf("coordinator: %w", err)
		}
	case err := <-serveErr:
		serveErr <- err
		if err != nil {
			runErr = fmt.Errorf("tcp server: %w", err)
		}
	case err := <-adminErr:
		adminErr <- err
		if err != nil {
			runErr = fmt.Errorf("admin server: %w", err)
		}
	}

	a.log.Info().Msg("shutting down")
	cancel()
	return errors.Join(runErr, a.shutdown(coordErr, serveErr, adminErr))
}

func (a *App) shutdown(coordErr, serveErr, adminErr chan error) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs []error
	if a.admin != nil {
		if err := a.admin.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("admin shutdown: %w", err))
		}
		// drain so a nil result from ListenAndServe isn't left behind
		select {
		case <-adminErr:
		case <-shutdownCtx.Done():
		}
	}

	for name, ch := range map[string]chan error{"tcp server": serveErr, "coordinator": coordErr} {
		select {
		case <-ch:
		case <-shutdownCtx.Done():
			errs = append(errs, fmt.Errorf("%s did not stop: %w", name, shutdownCtx.Err()))
		}
	}
	return errors.Join(errs...)
}

func port(addr string) string {
	if _, p, err := net.SplitHostPort(addr); err == nil {
		return p
	}
	return addr
}
