package errors

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// Notifier-specific error constructors. UserMessage is the exact text
// placed in the error or auth_error event sent back to a client.

// MalformedMessageError is returned when an inbound frame is not a JSON
// object with a string "type".
func MalformedMessageError(cause error) *AppError {
	return Wrap(cause, ErrorTypeValidation, "MALFORMED_MESSAGE", "Inbound message could not be parsed").
		WithSeverity(SeverityLow).
		WithUserMessage("Invalid message format")
}

// MissingFieldError reports a required field absent from an inbound message.
func MissingFieldError(messageType, field string) *AppError {
	return New(ErrorTypeValidation, "MISSING_FIELD", fmt.Sprintf("%s message without %s", messageType, field)).
		WithSeverity(SeverityLow).
		WithUserMessage(fmt.Sprintf("Field %q is required for %s", field, messageType))
}

// UnknownMessageTypeError reports an inbound type the protocol does not define.
func UnknownMessageTypeError(messageType string) *AppError {
	return New(ErrorTypeValidation, "UNKNOWN_MESSAGE_TYPE", fmt.Sprintf("Unknown inbound type %q", messageType)).
		WithSeverity(SeverityLow).
		WithUserMessage(fmt.Sprintf("Unknown message type: %s", messageType))
}

// AuthenticationError creates an authentication error
func AuthenticationError(reason string) *AppError {
	return New(ErrorTypeAuthentication, "AUTH_FAILED", fmt.Sprintf("Authentication failed: %s", reason)).
		WithSeverity(SeverityLow).
		WithUserMessage(reason)
}

// RateLimitError creates a rate limit error
func RateLimitError(resource string) *AppError {
	return New(ErrorTypeRateLimit, "RATE_LIMIT_EXCEEDED", fmt.Sprintf("Rate limit exceeded for %s", resource)).
		WithSeverity(SeverityMedium).
		WithUserMessage("Rate limit exceeded. Please slow down.")
}

// ConnectionLimitError creates an error when connection limits are exceeded
func ConnectionLimitError(currentCount, maxCount int) *AppError {
	return New(ErrorTypeUnavailable, "CONNECTION_LIMIT_EXCEEDED",
		fmt.Sprintf("Connection limit exceeded: %d/%d", currentCount, maxCount)).
		WithSeverity(SeverityMedium).
		WithUserMessage("Too many active connections. Please try again later.")
}

// ClientBannedError creates an error for banned clients
func ClientBannedError(ip string, remaining time.Duration) *AppError {
	return New(ErrorTypeAuthorization, "CLIENT_BANNED", fmt.Sprintf("Client %s is banned", ip)).
		WithSeverity(SeverityLow).
		WithDetails(fmt.Sprintf("Ban remaining: %s", remaining.Round(time.Second))).
		WithUserMessage("Your client has been temporarily banned due to policy violations.")
}

// WebSocketError creates an error for WebSocket-related issues
func WebSocketError(operation string, cause error) *AppError {
	code := "WS_ERROR"
	severity := SeverityMedium
	userMessage := "WebSocket connection error occurred."

	switch {
	case IsNormalClose(cause):
		code = "WS_NORMAL_CLOSURE"
		severity = SeverityLow
		userMessage = "Connection closed normally."
	case websocket.IsCloseError(cause, websocket.CloseAbnormalClosure):
		code = "WS_ABNORMAL_CLOSURE"
		userMessage = "Connection lost unexpectedly."
	case websocket.IsCloseError(cause, websocket.CloseMessageTooBig):
		code = "WS_MESSAGE_TOO_BIG"
		severity = SeverityLow
		userMessage = "Message exceeds the maximum allowed size."
	case websocket.IsUnexpectedCloseError(cause):
		code = "WS_UNEXPECTED_CLOSURE"
		userMessage = "Connection closed unexpectedly."
	}

	return Wrap(cause, ErrorTypeNetwork, code, fmt.Sprintf("WebSocket %s failed", operation)).
		WithSeverity(severity).
		WithUserMessage(userMessage)
}

// BusError wraps a failure talking to the cross-process event bus.
func BusError(driver, operation string, cause error) *AppError {
	return Wrap(cause, ErrorTypeExternal, "BUS_ERROR", fmt.Sprintf("Bus %s %s failed", driver, operation)).
		WithSeverity(SeverityHigh).
		WithUserMessage("The event bus is temporarily unavailable.")
}

// InvalidEnvelopeError reports a bus payload that cannot be routed.
func InvalidEnvelopeError(reason string) *AppError {
	return New(ErrorTypeValidation, "INVALID_ENVELOPE", fmt.Sprintf("Invalid envelope: %s", reason)).
		WithSeverity(SeverityLow)
}

// ConfigurationError creates an error for configuration issues
func ConfigurationError(field, reason string) *AppError {
	return New(ErrorTypeInternal, "CONFIGURATION_ERROR", fmt.Sprintf("Configuration error in %s: %s", field, reason)).
		WithSeverity(SeverityCritical).
		WithUserMessage("Service is misconfigured. Please contact system administrator.")
}

// InternalError creates an internal error
func InternalError(message string, cause error) *AppError {
	return Wrap(cause, ErrorTypeInternal, "INTERNAL_ERROR", message).
		WithSeverity(SeverityHigh).
		WithUserMessage("An internal error occurred. Please try again.")
}
