package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/ncobase/passport/config"
	"github.com/ncobase/passport/ecode"
	"github.com/ncobase/passport/logging/logger"
	"github.com/ncobase/passport/paging"
	"github.com/ncobase/passport/repository"
	"github.com/ncobase/passport/structs"
	"github.com/ncobase/passport/util"
)

// UserService manages user accounts.
type UserService struct {
	users repository.UserRepository
}

// NewUserService creates the user service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// duplicateToConflict translates a storage-level unique violation into the
// same Conflict the existence pre-checks produce, so losing the race between
// check and write is indistinguishable from failing the check.
func duplicateToConflict(err error, user *structs.User) error {
	var dup *repository.DuplicateError
	if !errors.As(err, &dup) {
		return ecode.New(ecode.ServerErr).WithCause(err)
	}
	switch dup.Field {
	case "username":
		return ecode.Duplicate("User", "username", user.Username)
	case "email":
		return ecode.Duplicate("User", "email", user.Email)
	}
	return ecode.New(ecode.Conflict).WithCause(err)
}

func translateRepoErr(err error, id int64) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ecode.NotFound("User", strconv.FormatInt(id, 10))
	case errors.Is(err, repository.ErrStaleWrite):
		return ecode.New(ecode.StaleWrite)
	default:
		return ecode.New(ecode.ServerErr).WithCause(err)
	}
}

// Create adds a user account with an explicit role.
func (s *UserService) Create(ctx context.Context, req *structs.CreateUserRequest) (*structs.UserView, error) {
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
	role := req.Role
	if role == "" {
		role = structs.RoleUser
	}
	user := &structs.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		Role:         role,
		Status:       structs.StatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, duplicateToConflict(err, user)
	}
	logger.StdLogger().Infof(ctx, "user created id=%d username=%s role=%s", user.ID, user.Username, user.Role)
	return user.View(), nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id int64) (*structs.UserView, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoErr(err, id)
	}
	return user.View(), nil
}

// GetByUsername returns a user by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*structs.UserView, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ecode.NotFound("User", username)
		}
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	}
	return user.View(), nil
}

// ResolveActive looks up an account by username for request authentication.
// Only ACTIVE accounts resolve.
func (s *UserService) ResolveActive(ctx context.Context, username string) (*structs.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

// Update applies a partial profile update under optimistic concurrency
// control. A concurrent write surfaces as a conflict for the client to retry.
func (s *UserService) Update(ctx context.Context, id int64, req *structs.UpdateUserRequest) (*structs.UserView, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoErr(err, id)
	}
	if !req.HasUpdates() {
		return user.View(), nil
	}

	if req.Username != nil && *req.Username != user.Username {
		taken, err := s.users.ExistsByUsernameAndIDNot(ctx, *req.Username, id)
		if err != nil {
			return nil, ecode.New(ecode.ServerErr).WithCause(err)
		}
		if taken {
			return nil, ecode.Duplicate("User", "username", *req.Username)
		}
		user.Username = *req.Username
	}
	if req.Email != nil && *req.Email != user.Email {
		taken, err := s.users.ExistsByEmailAndIDNot(ctx, *req.Email, id)
		if err != nil {
			return nil, ecode.New(ecode.ServerErr).WithCause(err)
		}
		if taken {
			return nil, ecode.Duplicate("User", "email", *req.Email)
		}
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}

	if err := s.users.Update(ctx, user); err != nil {
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			return nil, duplicateToConflict(err, user)
		}
		return nil, translateRepoErr(err, id)
	}
	return user.View(), nil
}

// ChangeRole sets a user's role.
func (s *UserService) ChangeRole(ctx context.Context, id int64, role structs.Role) (*structs.UserView, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoErr(err, id)
	}
	if user.Role == role {
		return user.View(), nil
	}
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, translateRepoErr(err, id)
	}
	logger.StdLogger().Infof(ctx, "user role changed id=%d role=%s", user.ID, role)
	return user.View(), nil
}

// ChangeStatus sets a user's account status.
func (s *UserService) ChangeStatus(ctx context.Context, id int64, status structs.Status) (*structs.UserView, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoErr(err, id)
	}
	if user.Status == status {
		return user.View(), nil
	}
	user.Status = status
	if err := s.users.Update(ctx, user); err != nil {
		return nil, translateRepoErr(err, id)
	}
	logger.StdLogger().Infof(ctx, "user status changed id=%d status=%s", user.ID, status)
	return user.View(), nil
}

// Delete soft-deletes a user. The row stays for audit; the account can no
// longer authenticate.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	_, err := s.ChangeStatus(ctx, id, structs.StatusDeleted)
	return err
}

func viewPage(users []*structs.User, p *paging.Params, total int64) *paging.Result[*structs.UserView] {
	views := make([]*structs.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	return paging.NewResult(views, p, total)
}

// List returns a page of all users.
func (s *UserService) List(ctx context.Context, p *paging.Params) (*paging.Result[*structs.UserView], error) {
	users, total, err := s.users.List(ctx, p)
	if err != nil {
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	}
	return viewPage(users, p, total), nil
}

// Search returns a page of users matching term against username, email and
// name fields.
func (s *UserService) Search(ctx context.Context, term string, p *paging.Params) (*paging.Result[*structs.UserView], error) {
	users, total, err := s.users.Search(ctx, term, p)
	if err != nil {
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	}
	return viewPage(users, p, total), nil
}

// ByStatus returns a page of users with the given status.
func (s *UserService) ByStatus(ctx context.Context, status structs.Status, p *paging.Params) (*paging.Result[*structs.UserView], error) {
	users, total, err := s.users.FindByStatus(ctx, status, p)
	if err != nil {
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	}
	return viewPage(users, p, total), nil
}

// ByRole returns a page of users holding the given role.
func (s *UserService) ByRole(ctx context.Context, role structs.Role, p *paging.Params) (*paging.Result[*structs.UserView], error) {
	users, total, err := s.users.FindByRole(ctx, role, p)
	if err != nil {
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	}
	return viewPage(users, p, total), nil
}

// Recent returns users created within the last days days.
func (s *UserService) Recent(ctx context.Context, days int, p *paging.Params) (*paging.Result[*structs.UserView], error) {
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	users, total, err := s.users.FindCreatedAfter(ctx, cutoff, p)
	if err != nil {
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	}
	return viewPage(users, p, total), nil
}

// Statistics aggregates account counts by status and role.
func (s *UserService) Statistics(ctx context.Context) (*structs.UserStatistics, error) {
	stats := &structs.UserStatistics{}
	var err error
	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	}
	statusCounts := []struct {
		status structs.Status
		dest   *int64
	}{
		{structs.StatusActive, &stats.ActiveUsers},
		{structs.StatusInactive, &stats.InactiveUsers},
		{structs.StatusSuspended, &stats.SuspendedUsers},
		{structs.StatusDeleted, &stats.DeletedUsers},
	}
	for _, sc := range statusCounts {
		if *sc.dest, err = s.users.CountByStatus(ctx, sc.status); err != nil {
			return nil, ecode.New(ecode.ServerErr).WithCause(err)
		}
	}
	roleCounts := []struct {
		role structs.Role
		dest *int64
	}{
		{structs.RoleAdmin, &stats.AdminUsers},
		{structs.RoleModerator, &stats.ModeratorUsers},
		{structs.RoleUser, &stats.RegularUsers},
	}
	for _, rc := range roleCounts {
		if *rc.dest, err = s.users.CountByRole(ctx, rc.role); err != nil {
			return nil, ecode.New(ecode.ServerErr).WithCause(err)
		}
	}
	return stats, nil
}

// Seed creates the bootstrap admin account when the store has no users.
func (s *UserService) Seed(ctx context.Context, c *config.Bootstrap) error {
	if c == nil || !c.Enabled {
		return nil
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if total > 0 {
		return nil
	}
	hash, err := util.EncryptPassword(c.Password)
	if err != nil {
		return err
	}
	admin := &structs.User{
		Username:     c.Username,
		Email:        c.Email,
		PasswordHash: hash,
		FirstName:    "System",
		LastName:     "Administrator",
		Role:         structs.RoleAdmin,
		Status:       structs.StatusActive,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	logger.StdLogger().Infof(ctx, "bootstrap admin created username=%s", admin.Username)
	return nil
}
