package errors

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/BookHive-Network/notifier/internal/logger"
	"github.com/BookHive-Network/notifier/internal/metrics"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// HandlerFunc is a function type that can return an error
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handler wraps HandlerFunc with automatic error handling
type Handler struct {
	errorMiddleware *ErrorMiddleware
	handlerFunc     HandlerFunc
}

// NewHandler creates a new error-aware handler
func NewHandler(em *ErrorMiddleware, handlerFunc HandlerFunc) *Handler {
	if em == nil {
		em = NewErrorMiddleware()
	}
	return &Handler{errorMiddleware: em, handlerFunc: handlerFunc}
}

// ServeHTTP implements the http.Handler interface
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = generateRequestID()
	}
	r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))
	w.Header().Set("X-Request-ID", requestID)

	if err := h.handlerFunc(w, r); err != nil {
		h.errorMiddleware.HandleError(w, r, err)
	}
}

// WebSocketHandler logs failures on an upgraded connection, where no HTTP
// response can be written any more.
type WebSocketHandler struct {
	logger *zap.Logger
}

// NewWebSocketHandler creates a new WebSocket error handler
func NewWebSocketHandler() *WebSocketHandler {
	return &WebSocketHandler{logger: logger.New("websocket_error_handler")}
}

// HandleWebSocketError classifies err and logs it; normal closures are not errors.
func (wh *WebSocketHandler) HandleWebSocketError(connID, operation string, err error) {
	if err == nil {
		return
	}
	wsErr := WebSocketError(operation, err)
	fields := []zap.Field{
		zap.String("conn_id", connID),
		zap.String("operation", operation),
		zap.String("error_code", wsErr.Code),
		zap.String("severity", string(wsErr.Severity)),
		zap.Error(err),
	}
	if wsErr.Severity == SeverityLow {
		wh.logger.Debug("WebSocket closed", fields...)
		return
	}
	metrics.IncrementErrorCount(string(wsErr.Type))
	wh.logger.Warn("WebSocket error occurred", fields...)
}

// IsNormalClose reports whether err is a client-initiated orderly close.
func IsNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived)
}

func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "req_unknown"
	}
	return "req_" + hex.EncodeToString(b)
}
