// Package contexthelpers stores request-scoped values in the context.
package contexthelpers

import (
	"context"
	"net/http"
)

type contextKey string

const traceIDContextKey = contextKey("traceID")

// SetTraceID attaches the trace ID of the request to its context.
func SetTraceID(r *http.Request, traceID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), traceIDContextKey, traceID))
}

// TraceID returns the trace ID of the request or an empty string.
func TraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(traceIDContextKey).(string)
	if !ok {
		return ""
	}
	return traceID
}
