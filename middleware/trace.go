package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ncobase/passport/ctxutil"
)

const traceHeader = "X-Trace-Id"

// Trace attaches a trace id to every request, reusing the caller's when one
// is supplied.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if incoming := c.GetHeader(traceHeader); incoming != "" {
			ctx = ctxutil.WithTraceID(ctx, incoming)
		}
		ctx, traceID := ctxutil.EnsureTraceID(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(traceHeader, traceID)
		c.Next()
	}
}
