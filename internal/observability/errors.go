package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/baxromumarov/catalog-scraper/internal/httpx"
)

const (
	ErrorNetwork    = "network"
	ErrorHTTPStatus = "http_status"
	ErrorRateLimit  = "rate_limit"
	ErrorParsing    = "parsing"
	ErrorCanceled   = "canceled"
	ErrorPanic      = "panic"
	ErrorUnknown    = "unknown"
)

// PanicError wraps a value recovered while processing one entity.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return "panic: " + strings.TrimSpace(fmt.Sprint(e.Value))
}

func ClassifyFetchError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	if errors.Is(err, context.Canceled) {
		return ErrorCanceled
	}
	var fe *httpx.FetchError
	if errors.As(err, &fe) {
		switch {
		case fe.Status == http.StatusTooManyRequests:
			return ErrorRateLimit
		case fe.Status != 0:
			return ErrorHTTPStatus
		default:
			return ErrorNetwork
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorNetwork
	}
	return ErrorUnknown
}

// ClassifyEntityError maps an error raised while processing one entity to
// a counter key.
func ClassifyEntityError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	var pe *PanicError
	if errors.As(err, &pe) {
		return ErrorPanic
	}
	if kind := ClassifyFetchError(err); kind != ErrorUnknown {
		return kind
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "parse") ||
		strings.Contains(msg, "decode") ||
		strings.Contains(msg, "unmarshal") ||
		strings.Contains(msg, "invalid character") {
		return ErrorParsing
	}
	return ErrorUnknown
}
