// Package router assembles the HTTP routes and middleware chain.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ncobase/passport/config"
	"github.com/ncobase/passport/handler"
	"github.com/ncobase/passport/middleware"
	"github.com/ncobase/passport/security/jwt"
	"github.com/ncobase/passport/service"
)

// Handlers bundles the HTTP handlers mounted by New.
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Location *handler.LocationHandler
	Health   *handler.HealthHandler
}

// New builds the gin engine. Location routes are mounted only when the
// location service is configured.
func New(cfg *config.Config, tokens *jwt.TokenManager, users *service.UserService, h *Handlers) *gin.Engine {
	if cfg.RunMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		middleware.Trace(),
		middleware.Recovery(),
		middleware.Auth(
			middleware.NewPolicyEngine(middleware.DefaultRules(cfg.Auth.Whitelist)),
			tokens,
			users,
		),
	)

	engine.GET("/health", h.Health.Check)

	auth := engine.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", h.Auth.Me)
	}

	user := engine.Group("/users")
	{
		user.POST("", h.User.Create)
		user.GET("", h.User.List)
		user.GET("/search", h.User.Search)
		user.GET("/statistics", h.User.Statistics)
		user.GET("/recent", h.User.Recent)
		user.GET("/by-status/:status", h.User.ByStatus)
		user.GET("/by-role/:role", h.User.ByRole)
		user.GET("/username/:username", h.User.GetByUsername)
		user.GET("/:id", h.User.Get)
		user.PUT("/:id", h.User.Update)
		user.PATCH("/:id/role", h.User.ChangeRole)
		user.PATCH("/:id/status", h.User.ChangeStatus)
		user.DELETE("/:id", h.User.Delete)
	}

	if h.Location != nil {
		location := engine.Group("/locations")
		{
			location.PUT("", h.Location.Set)
			location.GET("", h.Location.Get)
			location.POST("/favorites", h.Location.AddFavorite)
			location.GET("/favorites", h.Location.Favorites)
			location.DELETE("/favorites", h.Location.RemoveFavorite)
			location.POST("/visits/:place", h.Location.RecordVisit)
		}
	}

	return engine
}
