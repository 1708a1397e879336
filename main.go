package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ncobase/passport/config"
	"github.com/ncobase/passport/data"
	"github.com/ncobase/passport/handler"
	"github.com/ncobase/passport/logging/logger"
	"github.com/ncobase/passport/repository"
	"github.com/ncobase/passport/router"
	"github.com/ncobase/passport/security/jwt"
	"github.com/ncobase/passport/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "passport: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Init()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, logCleanup, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logCleanup()

	d, dataCleanup, err := data.New(cfg.Data)
	if err != nil {
		return fmt.Errorf("connecting data sources: %w", err)
	}
	defer dataCleanup()

	ctx := context.Background()

	config.Watch(func(c *config.Config) {
		log.Infof(ctx, "configuration reloaded")
	})

	users, err := repository.NewUserRepository(ctx, d.DB, cfg.Data.Database.Driver)
	if err != nil {
		return err
	}

	tokens, err := jwt.NewTokenManager(cfg.Auth.JWT)
	if err != nil {
		return err
	}

	userService := service.NewUserService(users)
	authService := service.NewAuthService(users, tokens)
	locationService := service.NewLocationService(d.RC)

	if err := userService.Seed(ctx, cfg.Auth.Bootstrap); err != nil {
		return fmt.Errorf("seeding bootstrap account: %w", err)
	}

	handlers := &router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		User:   handler.NewUserHandler(userService),
		Health: handler.NewHealthHandler(d),
	}
	if locationService != nil {
		handlers.Location = handler.NewLocationHandler(locationService)
	}

	engine := router.New(cfg, tokens, userService, handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof(ctx, "%s listening on %s", cfg.AppName, addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Infof(ctx, "received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	log.Infof(ctx, "server stopped")
	return nil
}
