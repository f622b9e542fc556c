package transport

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spetersoncode/gemkit"
	"github.com/tidwall/gjson"
)

// newAPIError builds the error for a non-2xx response from its body, which
// is usually {"error": {"code", "message", "status", "details"}} but may be
// plain text from a proxy.
func newAPIError(resp *http.Response, body []byte) *gemkit.APIError {
	var e *gemkit.APIError
	if errObj := gjson.GetBytes(body, "error"); gjson.ValidBytes(body) && errObj.IsObject() {
		e = apiErrorFromPayload(errObj, body)
	} else {
		e = &gemkit.APIError{Body: string(body), Message: strings.TrimSpace(string(body))}
	}
	e.Code = resp.StatusCode
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	e.RetryDelay = parseRetryAfter(resp.Header.Get("Retry-After"))
	return e
}

func apiErrorFromPayload(errObj gjson.Result, body []byte) *gemkit.APIError {
	e := &gemkit.APIError{
		Code:    int(errObj.Get("code").Int()),
		Status:  errObj.Get("status").String(),
		Message: errObj.Get("message").String(),
		Body:    string(body),
	}
	if d := errObj.Get("details"); d.IsArray() {
		if v, ok := d.Value().([]any); ok {
			e.Details = v
		}
	}
	return e
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
