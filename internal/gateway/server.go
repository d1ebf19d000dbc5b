package gateway

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/BookHive-Network/notifier/internal/config"
	"github.com/BookHive-Network/notifier/internal/constants"
	"github.com/BookHive-Network/notifier/internal/domain"
	"github.com/BookHive-Network/notifier/internal/errors"
	"github.com/BookHive-Network/notifier/internal/logger"
	"github.com/BookHive-Network/notifier/internal/metrics"
	"github.com/BookHive-Network/notifier/internal/notifier"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Close reasons the transport knows how to map to close codes.
const (
	ReasonShutdown    = "server shutting down"
	ReasonBanned      = "client banned"
	ReasonIdle        = "idle timeout"
	ReasonWriteFailed = "write failed"
)

// Server accepts WebSocket clients and connects them to the node's hub.
type Server struct {
	cfg      config.ServerConfig
	limits   config.RateLimitConfig
	node     domain.NodeInterface
	health   http.HandlerFunc
	policy   notifier.OverflowPolicy
	upgrader websocket.Upgrader

	errMiddleware *errors.ErrorMiddleware
	wsErrors      *errors.WebSocketHandler
	logger        *zap.Logger

	sessions sync.WaitGroup
	mu       sync.Mutex
	httpSrv  *http.Server
	stopped  bool
}

// NewServer builds the transport. health serves /health on the same listener.
func NewServer(node domain.NodeInterface, health http.HandlerFunc) (*Server, error) {
	cfg := node.Config()
	policy, err := notifier.ParseOverflowPolicy(cfg.Server.OverflowPolicy)
	if err != nil {
		return nil, errors.ConfigurationError("server.overflow_policy", err.Error())
	}

	s := &Server{
		cfg:           cfg.Server,
		limits:        cfg.RateLimit,
		node:          node,
		health:        health,
		policy:        policy,
		errMiddleware: errors.NewErrorMiddleware(),
		wsErrors:      errors.NewWebSocketHandler(),
		logger:        logger.New("gateway"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:   constants.WSReadBufferSize,
		WriteBufferSize:  constants.WSWriteBufferSize,
		HandshakeTimeout: cfg.Server.HandshakeTimeout,
		CheckOrigin:      s.checkOrigin,
	}
	return s, nil
}

// Handler routes the WebSocket path, /health, and 404 for everything else.
func (s *Server) Handler() http.Handler {
	headers := APISecurityHeaders()
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleWebSocket)
	if s.health != nil {
		mux.HandleFunc("/health", SecurityHandlerFunc(headers, s.health))
	}
	mux.HandleFunc("/", SecurityHandlerFunc(headers, func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("Invalid request path",
			zap.String("path", r.URL.Path),
			zap.String("client_ip", extractRealClientIP(r)),
			zap.String("user_agent", r.Header.Get("User-Agent")))
		http.NotFound(w, r)
	}))
	return s.errMiddleware.RecoveryMiddleware(mux)
}

// ListenAndServe serves until ctx is canceled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.cfg.WSAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: constants.HTTPReadHeaderTimeout,
		IdleTimeout:       constants.HTTPIdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.httpSrv = httpSrv
	s.mu.Unlock()

	s.logger.Info("WebSocket server listening",
		zap.String("address", s.cfg.WSAddr),
		zap.String("path", s.cfg.Path))
	if err := httpSrv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, errors.ErrorTypeNetwork, "LISTEN_FAILED", "WebSocket listener failed").
			WithSeverity(errors.SeverityCritical)
	}
	return nil
}

// Shutdown stops accepting clients, closes every connection and waits for
// their loops to exit or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	httpSrv := s.httpSrv
	s.mu.Unlock()

	var err error
	if httpSrv != nil {
		err = httpSrv.Shutdown(ctx)
	}

	closed := s.node.Hub().CloseAll(ReasonShutdown)
	s.logger.Info("Closing client connections", zap.Int("connections", closed))

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Timed out waiting for connections to close")
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	hub := s.node.Hub()
	clientIP := extractRealClientIP(r)

	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		s.errMiddleware.HandleError(w, r, errors.New(errors.ErrorTypeUnavailable, "SHUTTING_DOWN", "Server is shutting down").
			WithSeverity(errors.SeverityLow).
			WithUserMessage("The notification service is restarting. Please reconnect shortly."))
		return
	}

	if banned, remaining := s.node.Bans().IsBanned(clientIP); banned {
		metrics.UpgradeRejected(metrics.RejectBanned)
		s.errMiddleware.HandleError(w, r, errors.ClientBannedError(clientIP, remaining))
		return
	}

	if count := hub.Count(); count >= s.cfg.MaxConnections {
		metrics.UpgradeRejected(metrics.RejectMaxConnections)
		s.errMiddleware.HandleError(w, r, errors.ConnectionLimitError(count, s.cfg.MaxConnections))
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		metrics.UpgradeRejected(metrics.RejectHandshake)
		s.logger.Debug("WebSocket upgrade failed",
			zap.String("client_ip", clientIP),
			zap.String("origin", r.Header.Get("Origin")),
			zap.Error(err))
		return
	}

	conn := notifier.NewConn("", clientIP, s.cfg.SendQueueSize, s.policy)
	sess := newSession(s, ws, conn)
	if !hub.Open(conn) {
		_ = ws.Close()
		return
	}

	s.logger.Debug("WebSocket connection established",
		zap.String("conn_id", conn.ID()),
		zap.String("client_ip", clientIP),
		zap.Int("connections", hub.Count()))

	s.sessions.Add(1)
	go sess.run()
}

// checkOrigin allows any origin when none are configured or "*" is listed.
// Requests without an Origin header are not from browsers and are allowed.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func closeCode(reason string) int {
	switch reason {
	case ReasonShutdown:
		return websocket.CloseGoingAway
	case ReasonBanned:
		return websocket.ClosePolicyViolation
	default:
		return websocket.CloseNormalClosure
	}
}

func deadline(d time.Duration) time.Time {
	return time.Now().Add(d)
}
