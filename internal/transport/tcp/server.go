package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/core"
)

// Admitter accepts a connection into the relay.
type Admitter interface {
	Admit(ctx context.Context, conn net.Conn) (core.Session, error)
}

// Server accepts raw TCP connections and hands each one to an Admitter.
type Server struct {
	addr     string
	admitter Admitter
	log      *zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer builds a server for addr. Listen must be called before Serve.
func NewServer(addr string, admitter Admitter, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{addr: addr, admitter: admitter, log: logger}
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve runs the accept loop until ctx is cancelled or the coordinator stops.
// A refused admission (capacity) only drops that connection; an accept
// failure is fatal.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("tcp server: Serve called before Listen")
	}

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error().Err(err).Msg("accept failed")
			return fmt.Errorf("accept: %w", err)
		}

		session, err := s.admitter.Admit(ctx, conn)
		switch {
		case err == nil:
			s.log.Debug().Int("user_id", session.UserID).Str("remote", conn.RemoteAddr().String()).Msg("connection admitted")
		case errors.Is(err, core.ErrCapacity):
			// the coordinator already closed conn
		case errors.Is(err, core.ErrStopped), ctx.Err() != nil:
			_ = conn.Close()
			return nil
		default:
			_ = conn.Close()
			return fmt.Errorf("admit: %w", err)
		}
	}
}
