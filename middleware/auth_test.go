package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncobase/passport/config"
	"github.com/ncobase/passport/ctxutil"
	"github.com/ncobase/passport/repository"
	"github.com/ncobase/passport/security/jwt"
	"github.com/ncobase/passport/structs"
)

type stubResolver struct {
	users map[string]*structs.User
}

func (r *stubResolver) ResolveActive(_ context.Context, username string) (*structs.User, error) {
	user, ok := r.users[username]
	if !ok || !user.IsActive() {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func newAuthTestServer(t *testing.T, resolver *stubResolver) (*gin.Engine, *jwt.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := jwt.NewTokenManager(&config.JWT{
		Secret:        "auth-middleware-test-secret",
		AccessExpire:  time.Hour,
		RefreshExpire: 24 * time.Hour,
	})
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(Auth(NewPolicyEngine(DefaultRules(nil)), tokens, resolver))

	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	engine.POST("/auth/login", ok)
	engine.GET("/auth/me", func(c *gin.Context) {
		c.String(http.StatusOK, ctxutil.GetIdentity(c).User.Username)
	})
	engine.GET("/users", ok)
	engine.GET("/users/:id", ok)

	return engine, tokens
}

func perform(engine *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestPublicRouteWithoutToken(t *testing.T) {
	engine, _ := newAuthTestServer(t, &stubResolver{users: map[string]*structs.User{}})

	rec := perform(engine, "POST", "/auth/login", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	engine, _ := newAuthTestServer(t, &stubResolver{users: map[string]*structs.User{}})

	rec := perform(engine, "GET", "/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatedRequest(t *testing.T) {
	alice := &structs.User{ID: 1, Username: "alice", Role: structs.RoleUser, Status: structs.StatusActive}
	engine, tokens := newAuthTestServer(t, &stubResolver{users: map[string]*structs.User{"alice": alice}})

	token, err := tokens.Mint(alice, jwt.KindAccess, time.Now())
	require.NoError(t, err)

	rec := perform(engine, "GET", "/auth/me", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())
}

func TestStoredRoleWinsOverTokenRole(t *testing.T) {
	// token minted while alice was an admin; she has since been demoted
	admin := &structs.User{ID: 1, Username: "alice", Role: structs.RoleAdmin, Status: structs.StatusActive}
	demoted := &structs.User{ID: 1, Username: "alice", Role: structs.RoleUser, Status: structs.StatusActive}
	engine, tokens := newAuthTestServer(t, &stubResolver{users: map[string]*structs.User{"alice": demoted}})

	token, err := tokens.Mint(admin, jwt.KindAccess, time.Now())
	require.NoError(t, err)

	rec := perform(engine, "GET", "/users", token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// her own profile is still reachable
	rec = perform(engine, "GET", "/users/1", token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeactivatedAccountIsAnonymous(t *testing.T) {
	alice := &structs.User{ID: 1, Username: "alice", Role: structs.RoleUser, Status: structs.StatusActive}
	engine, tokens := newAuthTestServer(t, &stubResolver{users: map[string]*structs.User{}})

	token, err := tokens.Mint(alice, jwt.KindAccess, time.Now())
	require.NoError(t, err)

	rec := perform(engine, "GET", "/auth/me", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGarbageTokenOnPublicRoute(t *testing.T) {
	engine, _ := newAuthTestServer(t, &stubResolver{users: map[string]*structs.User{}})

	// an unusable token never fails the request outright
	rec := perform(engine, "POST", "/auth/login", "not-a-token")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = perform(engine, "GET", "/auth/me", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshTokenCannotAuthenticate(t *testing.T) {
	alice := &structs.User{ID: 1, Username: "alice", Role: structs.RoleUser, Status: structs.StatusActive}
	engine, tokens := newAuthTestServer(t, &stubResolver{users: map[string]*structs.User{"alice": alice}})

	refresh, err := tokens.Mint(alice, jwt.KindRefresh, time.Now())
	require.NoError(t, err)

	rec := perform(engine, "GET", "/auth/me", refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
