package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/passport/ctxutil"
	"github.com/ncobase/passport/ecode"
	"github.com/ncobase/passport/logging/logger"
	"github.com/ncobase/passport/resp"
	"github.com/ncobase/passport/security/jwt"
	"github.com/ncobase/passport/structs"
)

// PrincipalResolver looks up the current account for a token subject.
type PrincipalResolver interface {
	ResolveActive(ctx context.Context, username string) (*structs.User, error)
}

// Auth authenticates each request and enforces the access policy.
//
// Identity resolution is best-effort: a missing, malformed or expired token
// leaves the request anonymous rather than failing it, and the policy
// decision alone determines whether anonymous access suffices. The account is
// re-read on every request so the stored role and status win over whatever
// the token was minted with.
func Auth(engine *PolicyEngine, tokens *jwt.TokenManager, resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer ctxutil.ClearIdentity(c)

		require, capture := engine.Classify(c.Request.Method, c.Request.URL.Path)

		// public routes never need a principal, skip resolution entirely
		identity := &structs.Identity{}
		if !require.IsPublic() {
			identity = resolveIdentity(c, tokens, resolver)
		}
		ctxutil.SetIdentity(c, identity)

		if !Allowed(require, capture, identity) {
			deny(c, identity)
			return
		}
		c.Next()
	}
}

func resolveIdentity(c *gin.Context, tokens *jwt.TokenManager, resolver PrincipalResolver) *structs.Identity {
	token := bearerToken(c.Request)
	if token == "" {
		return &structs.Identity{}
	}

	ctx := c.Request.Context()
	claims, err := tokens.Validate(token, time.Now())
	if err != nil {
		logger.StdLogger().Debugf(ctx, "token rejected: %v", err)
		return &structs.Identity{}
	}
	if claims.Kind != jwt.KindAccess {
		logger.StdLogger().Debugf(ctx, "non-access token presented for authentication")
		return &structs.Identity{}
	}

	user, err := resolver.ResolveActive(ctx, claims.Subject)
	if err != nil {
		logger.StdLogger().Debugf(ctx, "token subject did not resolve: %v", err)
		return &structs.Identity{}
	}
	return &structs.Identity{User: user}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

// deny writes 401 for anonymous requests and 403 for authenticated ones.
func deny(c *gin.Context, identity *structs.Identity) {
	if identity.Authenticated() {
		resp.Fail(c.Writer, c.Request, resp.Forbidden(ecode.Text(ecode.AccessDenied)))
	} else {
		resp.Fail(c.Writer, c.Request, resp.UnAuthorized(ecode.Text(ecode.Unauthorized)))
	}
	c.Abort()
}
