// Package service implements the business logic behind the API handlers.
package service

import (
	"context"
	"time"

	"github.com/ncobase/passport/ecode"
	"github.com/ncobase/passport/logging/logger"
	"github.com/ncobase/passport/repository"
	"github.com/ncobase/passport/security/jwt"
	"github.com/ncobase/passport/structs"
	"github.com/ncobase/passport/util"
)

const tokenType = "Bearer"

// AuthService handles credential verification and the token lifecycle.
type AuthService struct {
	users  repository.UserRepository
	tokens *jwt.TokenManager
	now    func() time.Time
}

// NewAuthService creates the auth service.
func NewAuthService(users repository.UserRepository, tokens *jwt.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens, now: time.Now}
}

// Authenticate verifies an identifier/password pair and returns the account.
// Every failure mode returns the same error: unknown identifier, wrong
// password and non-active account are indistinguishable to the caller, and
// the unknown-identifier path still burns a hash comparison so response
// timing does not leak which identifiers exist.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string) (*structs.User, error) {
	invalid := ecode.New(ecode.CredentialsInvalid)

	user, err := s.users.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		util.CompareDummyPassword(password)
		return nil, invalid.WithCause(err)
	}
	if !util.ComparePassword(user.PasswordHash, password) {
		return nil, invalid
	}
	if !user.IsActive() {
		logger.StdLogger().Infof(ctx, "login rejected for non-active account id=%d status=%s", user.ID, user.Status)
		return nil, invalid
	}
	return user, nil
}

// Login authenticates and mints an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, req *structs.LoginRequest) (*structs.LoginResponse, error) {
	user, err := s.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	access, err := s.tokens.Mint(user, jwt.KindAccess, now)
	if err != nil {
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	}
	refresh, err := s.tokens.Mint(user, jwt.KindRefresh, now)
	if err != nil {
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	}

	logger.StdLogger().Infof(ctx, "user logged in id=%d username=%s", user.ID, user.Username)
	return &structs.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenType,
		ExpiresIn:    int64(s.tokens.TTL(jwt.KindAccess).Seconds()),
		User:         user.View(),
	}, nil
}

// Register creates a new USER account with ACTIVE status.
func (s *AuthService) Register(ctx context.Context, req *structs.RegisterRequest) (*structs.UserView, error) {
	if exists, err := s.users.ExistsByUsername(ctx, req.Username); err != nil {
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	} else if exists {
		return nil, ecode.Duplicate("User", "username", req.Username)
	}
	if exists, err := s.users.ExistsByEmail(ctx, req.Email); err != nil {
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	} else if exists {
		return nil, ecode.Duplicate("User", "email", req.Email)
	}

	hash, err := util.EncryptPassword(req.Password)
	if err != nil {
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	}
	user := &structs.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		Role:         structs.RoleUser,
		Status:       structs.StatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, duplicateToConflict(err, user)
	}

	logger.StdLogger().Infof(ctx, "user registered id=%d username=%s", user.ID, user.Username)
	return user.View(), nil
}

// Refresh exchanges a valid refresh token for a new access token. The account
// is re-resolved so a rotated role or deactivated account takes effect
// immediately. Every failure collapses into the same invalid-token error.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*structs.TokenRefreshResponse, error) {
	invalid := ecode.New(ecode.TokenInvalid)
	now := s.now()

	claims, err := s.tokens.Validate(refreshToken, now)
	if err != nil {
		logger.StdLogger().Debugf(ctx, "refresh rejected: %v", err)
		return nil, invalid.WithCause(err)
	}
	if claims.Kind != jwt.KindRefresh {
		return nil, invalid
	}

	user, err := s.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, invalid.WithCause(err)
	}
	if !user.IsActive() {
		return nil, invalid
	}

	access, err := s.tokens.Mint(user, jwt.KindAccess, now)
	if err != nil {
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	}
	return &structs.TokenRefreshResponse{
		AccessToken: access,
		TokenType:   tokenType,
		ExpiresIn:   int64(s.tokens.TTL(jwt.KindAccess).Seconds()),
	}, nil
}

// Logout acknowledges a logout. Tokens are stateless and remain technically
// valid until expiry; clients discard them.
func (s *AuthService) Logout(ctx context.Context, user *structs.User) {
	if user != nil {
		logger.StdLogger().Infof(ctx, "user logged out id=%d username=%s", user.ID, user.Username)
	}
}
