package gateway

import (
	"sync/atomic"
	"time"

	"github.com/BookHive-Network/notifier/internal/constants"
	"github.com/BookHive-Network/notifier/internal/errors"
	"github.com/BookHive-Network/notifier/internal/limiter"
	"github.com/BookHive-Network/notifier/internal/logger"
	"github.com/BookHive-Network/notifier/internal/metrics"
	"github.com/BookHive-Network/notifier/internal/notifier"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// session pumps frames between one socket and its hub connection. The
// read loop runs on the session goroutine, the write loop on its own.
type session struct {
	srv      *Server
	hub      *notifier.Hub
	ws       *websocket.Conn
	conn     *notifier.Conn
	limiter  *limiter.MessageLimiter
	lastRead atomic.Int64
	logger   *zap.Logger
}

func newSession(srv *Server, ws *websocket.Conn, conn *notifier.Conn) *session {
	s := &session{
		srv:     srv,
		hub:     srv.node.Hub(),
		ws:      ws,
		conn:    conn,
		limiter: limiter.NewMessageLimiter(srv.limits),
		logger: logger.New("gateway").With(
			zap.String("conn_id", conn.ID()),
			zap.String("client_ip", conn.RemoteAddr())),
	}
	s.lastRead.Store(time.Now().UnixNano())
	return s
}

func (s *session) run() {
	defer s.srv.sessions.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from panic in session", zap.Any("panic", r))
			s.hub.Forget(s.conn, "internal error")
			_ = s.ws.Close()
		}
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop()
	}()

	reason := s.readLoop()
	s.hub.Forget(s.conn, reason)
	<-writerDone
	_ = s.ws.Close()

	s.logger.Debug("WebSocket connection closed",
		zap.String("reason", s.conn.CloseReason()),
		zap.Duration("connection_duration", time.Since(s.conn.OpenedAt())))
}

// readLoop returns the reason the connection ended.
func (s *session) readLoop() string {
	cfg := s.srv.cfg
	s.ws.SetReadLimit(cfg.MaxMessageSize)
	_ = s.ws.SetReadDeadline(deadline(cfg.PongWait))
	s.ws.SetPongHandler(func(string) error {
		return s.ws.SetReadDeadline(deadline(cfg.PongWait))
	})

	for {
		_, raw, err := s.ws.ReadMessage()
		if err != nil {
			switch {
			case s.conn.IsClosed():
				return s.conn.CloseReason()
			case errors.IsNormalClose(err):
				return "client closed connection"
			default:
				s.srv.wsErrors.HandleWebSocketError(s.conn.ID(), "read", err)
				return "read error"
			}
		}
		s.lastRead.Store(time.Now().UnixNano())
		_ = s.ws.SetReadDeadline(deadline(cfg.PongWait))

		if !s.limiter.Allow() {
			if s.rateLimited() {
				return ReasonBanned
			}
			continue
		}

		if err := s.hub.HandleMessage(s.conn, raw); err != nil {
			s.logger.Debug("Client message rejected", zap.Error(err))
		}
	}
}

// rateLimited answers an over-limit message and reports whether the client
// has now been banned.
func (s *session) rateLimited() bool {
	ip := s.conn.RemoteAddr()
	s.hub.ReplyError(s.conn, errors.RateLimitError("messages"))
	if !s.srv.node.Bans().RecordViolation(ip) {
		return false
	}
	metrics.ClientBanned()
	_, remaining := s.srv.node.Bans().IsBanned(ip)
	s.hub.ReplyError(s.conn, errors.ClientBannedError(ip, remaining))
	s.hub.Forget(s.conn, ReasonBanned)
	return true
}

func (s *session) writeLoop() {
	cfg := s.srv.cfg
	ticker := time.NewTicker(cfg.PingPeriod())
	defer ticker.Stop()

	for {
		select {
		case frame := <-s.conn.Outbound():
			if !s.write(frame) {
				return
			}

		case <-ticker.C:
			if idle := time.Since(time.Unix(0, s.lastRead.Load())); idle > cfg.IdleTimeout {
				s.hub.Forget(s.conn, ReasonIdle)
				continue
			}
			if err := s.ws.WriteControl(websocket.PingMessage, nil, deadline(cfg.WriteTimeout)); err != nil {
				s.fail("ping", err)
				return
			}

		case <-s.conn.Done():
			s.flush()
			reason := s.conn.CloseReason()
			msg := websocket.FormatCloseMessage(closeCode(reason), reason)
			_ = s.ws.WriteControl(websocket.CloseMessage, msg, deadline(constants.CloseGracePeriod))
			// give the peer a moment to answer the close before the reader gives up
			_ = s.ws.SetReadDeadline(deadline(constants.CloseGracePeriod))
			return
		}
	}
}

// flush writes whatever is still queued once the connection is closed.
func (s *session) flush() {
	for {
		select {
		case frame := <-s.conn.Outbound():
			if !s.write(frame) {
				return
			}
		default:
			return
		}
	}
}

func (s *session) write(frame []byte) bool {
	_ = s.ws.SetWriteDeadline(deadline(s.srv.cfg.WriteTimeout))
	if err := s.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		s.fail("write", err)
		return false
	}
	metrics.FrameSent(len(frame))
	return true
}

// fail drops a connection whose socket can no longer be written.
func (s *session) fail(op string, err error) {
	metrics.SendFailed()
	s.srv.wsErrors.HandleWebSocketError(s.conn.ID(), op, err)
	s.hub.Forget(s.conn, ReasonWriteFailed)
	_ = s.ws.Close()
}
