package http

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aussiebroadwan/scribe/internal/session/service"
	"github.com/aussiebroadwan/scribe/pkg/httpx"
	"github.com/aussiebroadwan/scribe/pkg/slogx"
	"github.com/aussiebroadwan/scribe/pkg/wsx"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

// WSHandler serves GET /v1/session/ws. The handshake is authenticated before
// the upgrade: a bad credential gets a plain HTTP 401 and no WebSocket is
// ever established. The connection is then capped at the access token's
// expiry; when the session runs out the server closes with a policy
// violation so clients know to refresh and reconnect.
type WSHandler struct {
	Gate      *service.Gate
	Extractor wsx.Extractor

	Upgrader websocket.Upgrader
}

type wsHello struct {
	Type        string    `json:"type"` // always "hello"
	PrincipalID string    `json:"principal_id"`
	Role        string    `json:"role"`
	SessionExp  time.Time `json:"session_expires_at"`
}

// ServeHTTP godoc
//
//	@Summary		Authenticated WebSocket
//	@Description	Upgrades to a WebSocket after authenticating the handshake. The credential comes from the Authorization header, or for browser clients from the access_token query parameter. The server sends a hello frame, then keeps the connection alive with pings until the session expires.
//	@Tags			Session
//	@Security		BearerAuth
//	@Success		101	"Switching protocols"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or expired session"
//	@Failure		403	{object}	httpx.ErrorResponse	"Account not active"
//	@Router			/v1/session/ws [get].
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token, err := h.Extractor.Token(r)
	if err != nil {
		httpx.WriteBearerError(w, "invalid or expired session")
		return
	}

	p, claims, err := h.Gate.AuthenticateClaims(ctx, token)
	if err != nil {
		writeGateError(w, log.Warn, err)
		return
	}

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		log.Warn("websocket upgrade failed", "err", err)
		return
	}

	log.Info("websocket session opened",
		"principal_id", p.ID,
		"session_expires_at", claims.Expiry(),
	)

	s := &wsSession{conn: conn}
	s.serve(log, wsHello{
		Type:        "hello",
		PrincipalID: p.ID,
		Role:        string(p.Role),
		SessionExp:  claims.Expiry(),
	})
}

// wsSession owns one upgraded connection. Writes go through a mutex because
// the ping loop and the hello frame share the connection.
type wsSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *wsSession) writeJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteJSON(v)
}

func (s *wsSession) writeControl(messageType int, data []byte) error {
	return s.conn.WriteControl(messageType, data, time.Now().Add(wsWriteTimeout))
}

func (s *wsSession) serve(log *slog.Logger, hello wsHello) {
	defer s.conn.Close()

	if err := s.writeJSON(hello); err != nil {
		log.Warn("websocket hello failed", "err", err)
		return
	}

	sessionTimer := time.NewTimer(time.Until(hello.SessionExp))
	defer sessionTimer.Stop()

	// Reader goroutine: we never expect client frames, but reading is what
	// processes control messages and surfaces disconnects.
	readErr := make(chan error, 1)
	go func() {
		_ = s.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		s.conn.SetPongHandler(func(string) error {
			return s.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		})
		for {
			if _, _, err := s.conn.ReadMessage(); err != nil {
				readErr <- err
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ping.C:
			if err := s.writeControl(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sessionTimer.C:
			msg := websocket.FormatCloseMessage(
				websocket.ClosePolicyViolation, "session expired")
			_ = s.writeControl(websocket.CloseMessage, msg)
			return
		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("websocket read failed", "err", err)
			}
			return
		}
	}
}
