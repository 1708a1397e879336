package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ncobase/passport/ecode"
	"github.com/ncobase/passport/logging/logger"
	"github.com/ncobase/passport/resp"
)

// Recovery converts panics into an opaque 500 response. The correlation id
// in the response matches the server-side log entry carrying the panic
// details, which never reach the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				correlationID := uuid.NewString()
				logger.StdLogger().Errorf(c.Request.Context(),
					"panic recovered correlation_id=%s: %v", correlationID, rec)
				resp.Fail(c.Writer, c.Request, &resp.Exception{
					Code:       ecode.ServerErr,
					Properties: map[string]any{"correlationId": correlationID},
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}
