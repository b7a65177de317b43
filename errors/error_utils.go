package errors

import (
	"context"
	"errors"
	"strings"
)

var (
	retryableCodes = map[ERR]bool{
		ERR_NETWORK_TIMEOUT:            true,
		ERR_NETWORK_ERROR:              true,
		ERR_NETWORK_CONNECTION_REFUSED: true,
		ERR_SERVICE_UNAVAILABLE:        true,
		ERR_STORAGE_UNAVAILABLE:        true,
	}

	networkCodes = map[ERR]bool{
		ERR_NETWORK_ERROR:              true,
		ERR_NETWORK_TIMEOUT:            true,
		ERR_NETWORK_CONNECTION_REFUSED: true,
		ERR_NETWORK_INVALID_RESPONSE:   true,
	}

	// substrings of dialer and socket errors that arrive without a code
	networkHints = []string{"connection refused", "connection reset", "dial tcp", "no such host", "broken pipe", "websocket"}
)

// codeOf returns the code of the outermost *Error in the chain of err.
func codeOf(err error) (ERR, bool) {
	var tErr *Error
	if !As(err, &tErr) {
		return ERR_UNKNOWN, false
	}

	return tErr.Code(), true
}

// IsRetryableError reports a transient failure: an unreachable network peer, service or store.
// Cancelled and expired contexts are never retryable.
func IsRetryableError(err error) bool {
	if err == nil || IsContextError(err) {
		return false
	}

	code, ok := codeOf(err)

	return ok && retryableCodes[code]
}

// IsNetworkError reports a network error code, or an uncoded error whose text names a connection failure.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	if code, ok := codeOf(err); ok && networkCodes[code] {
		return true
	}

	text := strings.ToLower(err.Error())

	for _, hint := range networkHints {
		if strings.Contains(text, hint) {
			return true
		}
	}

	return false
}

// IsContextError reports cancellation or an expired deadline.
func IsContextError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	code, ok := codeOf(err)

	return ok && (code == ERR_CONTEXT_CANCELED || code == ERR_CONTEXT)
}

// GetErrorCategory names the kind of failure err is, for metric labels and log lines.
func GetErrorCategory(err error) string {
	if err == nil {
		return "none"
	}

	if IsContextError(err) {
		return "context"
	}

	if IsNetworkError(err) {
		return "network"
	}

	code, ok := codeOf(err)
	if !ok {
		return "unknown"
	}

	switch {
	case code == ERR_INVALID_ARGUMENT || code == ERR_CONFIGURATION:
		return "configuration"
	case code == ERR_NOT_FOUND:
		return "not_found"
	case code == ERR_PROCESSING:
		return "processing"
	case code >= ERR_TXN_INVALID && code < ERR_SERVICE_UNAVAILABLE:
		return "transaction"
	case code >= ERR_SERVICE_UNAVAILABLE && code < ERR_STORAGE_UNAVAILABLE:
		return "service"
	case code >= ERR_STORAGE_UNAVAILABLE && code < ERR_KAFKA_ERROR:
		return "storage"
	case code == ERR_KAFKA_ERROR:
		return "kafka"
	default:
		return "unknown"
	}
}
