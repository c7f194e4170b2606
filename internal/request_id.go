package internal

import (
	"context"
	"github.com/google/uuid"
	"net/http"
	"strings"
)

// RequestIDHeader carries the request id in and out of the service.
const RequestIDHeader = "X-Request-Id"

type contextKey string

const requestIDKey contextKey = "requestID"

// WithRequestID stores id in the context. Anything but a well-formed uuid is
// replaced by a new one, so caller supplied ids never reach the logs unchecked.
func WithRequestID(ctx context.Context, id string) context.Context {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return context.WithValue(ctx, requestIDKey, uuid.NewString())
	}
	return context.WithValue(ctx, requestIDKey, parsed.String())
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if no request ID is present.
func GetRequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey).(string); ok {
		return reqID
	}
	return ""
}

// requestScope tags an incoming request with its id and echoes the id on the response.
func requestScope(w http.ResponseWriter, r *http.Request) (context.Context, string) {
	ctx := WithRequestID(r.Context(), r.Header.Get(RequestIDHeader))
	reqID := GetRequestID(ctx)
	w.Header().Set(RequestIDHeader, reqID)
	return ctx, reqID
}
