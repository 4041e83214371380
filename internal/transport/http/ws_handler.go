package http

import (
	"errors"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/core"
)

// WSHandler upgrades HTTP connections and admits them into the relay as
// line streams: every text message the client sends is fed to the command
// reader, and every line the worker writes goes out as one text message.
type WSHandler struct {
	relay Relay
	log   *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(relay Relay, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{relay: relay, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	netConn := websocket.NetConn(ctx, conn, websocket.MessageText)

	session, err := h.relay.Admit(ctx, netConn)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrCapacity):
		// the coordinator closed the conn already
		return
	case errors.Is(err, core.ErrStopped):
		conn.Close(websocket.StatusGoingAway, "server stopping")
		return
	default:
		h.log.Warn().Err(err).Msg("ws admission failed")
		conn.Close(websocket.StatusInternalError, "internal error")
		return
	}

	h.log.Debug().Int("user_id", session.UserID).Str("remote", r.RemoteAddr).Msg("ws session started")

	select {
	case <-session.Done:
	case <-ctx.Done():
		// NetConn closes on ctx; the worker sees EOF and departs.
		<-session.Done
	}
}
