package retry

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/spetersoncode/gemkit"
)

// transientPatterns are substrings of untyped errors from the network stack
// and intermediate proxies after which a retry may succeed.
var transientPatterns = []string{
	"connection reset",
	"connection refused",
	"broken pipe",
	"unexpected eof",
	"timeout",
	"temporary failure",
	"too many requests",
	"service unavailable",
	"bad gateway",
}

// IsTransient reports whether err is worth retrying: a categorized error in
// the transient category, any error exposing a transient HTTP status, a
// network timeout, or a message matching a known transient pattern.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce gemkit.CategorizedError
	if errors.As(err, &ce) {
		return ce.Retryable()
	}

	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		return isTransientStatusCode(sc.StatusCode())
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func isTransientStatusCode(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
