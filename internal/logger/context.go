package logger

import "context"

// RequestIDHeader carries the request id between this service and its peers.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// ContextWithRequestID stores id so downstream calls can log and forward it.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id carried by ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
