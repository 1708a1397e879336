// Package ctxutil carries request-scoped values: trace ids and the
// authenticated identity.
package ctxutil

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/ncobase/passport/nanoid"
	"github.com/ncobase/passport/structs"
)

const (
	// TraceIDKey is the context key for the request trace id.
	TraceIDKey = "trace_id"

	identityKey = "identity"
)

// GetTraceID gets the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// WithTraceID sets the trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// EnsureTraceID ensures that a trace ID exists in the context.
func EnsureTraceID(ctx context.Context) (context.Context, string) {
	if traceID := GetTraceID(ctx); traceID != "" {
		return ctx, traceID
	}
	traceID := nanoid.String(16)
	return context.WithValue(ctx, TraceIDKey, traceID), traceID
}

// SetIdentity attaches the resolved identity to the request. The identity is
// strictly request-scoped; it must never escape into shared state.
func SetIdentity(c *gin.Context, id *structs.Identity) {
	c.Set(identityKey, id)
}

// GetIdentity returns the identity for the request. The zero identity is
// returned when authentication did not resolve a principal.
func GetIdentity(c *gin.Context) *structs.Identity {
	if v, exists := c.Get(identityKey); exists {
		if id, ok := v.(*structs.Identity); ok && id != nil {
			return id
		}
	}
	return &structs.Identity{}
}

// ClearIdentity removes the identity from the request context. Called
// unconditionally at the end of request processing.
func ClearIdentity(c *gin.Context) {
	c.Set(identityKey, (*structs.Identity)(nil))
}
