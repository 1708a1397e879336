package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncobase/passport/config"
	"github.com/ncobase/passport/middleware"
	"github.com/ncobase/passport/repository"
	"github.com/ncobase/passport/security/jwt"
	"github.com/ncobase/passport/service"
	"github.com/ncobase/passport/structs"
)

func newTestServer(t *testing.T) (*gin.Engine, *service.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := repository.NewMemoryUserRepository()
	tokens, err := jwt.NewTokenManager(&config.JWT{
		Secret:        "handler-test-secret",
		AccessExpire:  time.Hour,
		RefreshExpire: 24 * time.Hour,
	})
	require.NoError(t, err)

	authService := service.NewAuthService(users, tokens)
	userService := service.NewUserService(users)
	authHandler := NewAuthHandler(authService)

	engine := gin.New()
	engine.Use(middleware.Auth(
		middleware.NewPolicyEngine(middleware.DefaultRules(nil)),
		tokens,
		userService,
	))
	engine.POST("/auth/login", authHandler.Login)
	engine.POST("/auth/register", authHandler.Register)
	engine.POST("/auth/refresh", authHandler.Refresh)
	engine.POST("/auth/logout", authHandler.Logout)
	engine.GET("/auth/me", authHandler.Me)

	return engine, authService
}

func postJSON(engine *gin.Engine, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func registerTestUser(t *testing.T, auth *service.AuthService) {
	t.Helper()
	_, err := auth.Register(context.Background(), &structs.RegisterRequest{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "correct-horse-battery",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.NoError(t, err)
}

func TestLoginEndpoint(t *testing.T) {
	engine, auth := newTestServer(t)
	registerTestUser(t, auth)

	rec := postJSON(engine, "/auth/login",
		`{"username":"alice","password":"correct-horse-battery"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope["success"])
	assert.Equal(t, "Login successful", envelope["message"])
	assert.Equal(t, "/auth/login", envelope["path"])

	data := envelope["data"].(map[string]any)
	assert.NotEmpty(t, data["accessToken"])
	assert.NotEmpty(t, data["refreshToken"])
	assert.Equal(t, "Bearer", data["tokenType"])

	user := data["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	_, leaked := user["passwordHash"]
	assert.False(t, leaked)
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	engine, auth := newTestServer(t)
	registerTestUser(t, auth)

	rec := postJSON(engine, "/auth/login",
		`{"username":"alice","password":"wrong"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope["success"])
	assert.Equal(t, "Invalid username or password", envelope["message"])
}

func TestLoginEndpointValidation(t *testing.T) {
	engine, _ := newTestServer(t)

	rec := postJSON(engine, "/auth/login", `{"username":"alice"}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope["success"])
	errs := envelope["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "password", errs[0].(map[string]any)["field"])
}

func TestRegisterEndpoint(t *testing.T) {
	engine, _ := newTestServer(t)

	rec := postJSON(engine, "/auth/register",
		`{"username":"bob","email":"bob@example.com","password":"a-strong-password",
		  "firstName":"Bob","lastName":"Brown"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, "bob", data["username"])
	assert.Equal(t, "USER", data["role"])
}

func TestRegisterEndpointDuplicate(t *testing.T) {
	engine, auth := newTestServer(t)
	registerTestUser(t, auth)

	rec := postJSON(engine, "/auth/register",
		`{"username":"alice","email":"new@example.com","password":"a-strong-password",
		  "firstName":"Alice","lastName":"Clone"}`, "")
	require.Equal(t, http.StatusConflict, rec.Code)

	envelope := decodeEnvelope(t, rec)
	errs := envelope["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "DUPLICATE_RESOURCE", errs[0].(map[string]any)["code"])
}

func TestMeEndpoint(t *testing.T) {
	engine, auth := newTestServer(t)
	registerTestUser(t, auth)

	login, err := auth.Login(context.Background(), &structs.LoginRequest{
		Username: "alice", Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	user := envelope["data"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
}

func TestRefreshEndpointRejectsGarbage(t *testing.T) {
	engine, _ := newTestServer(t)

	rec := postJSON(engine, "/auth/refresh", `{"refreshToken":"garbage"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "Invalid or expired token", envelope["message"])
}

func TestLogoutRequiresAuthentication(t *testing.T) {
	engine, auth := newTestServer(t)
	registerTestUser(t, auth)

	rec := postJSON(engine, "/auth/logout", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	login, err := auth.Login(context.Background(), &structs.LoginRequest{
		Username: "alice", Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	rec = postJSON(engine, "/auth/logout", "", login.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}
