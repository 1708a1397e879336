package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncobase/passport/config"
	"github.com/ncobase/passport/ecode"
	"github.com/ncobase/passport/paging"
	"github.com/ncobase/passport/repository"
	"github.com/ncobase/passport/structs"
)

func newUserFixture(t *testing.T) (*UserService, repository.UserRepository) {
	t.Helper()
	users := repository.NewMemoryUserRepository()
	return NewUserService(users), users
}

func createUser(t *testing.T, svc *UserService, username string, role structs.Role) *structs.UserView {
	t.Helper()
	view, err := svc.Create(context.Background(), &structs.CreateUserRequest{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "a-strong-password",
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
	})
	require.NoError(t, err)
	return view
}

func TestCreateDefaultsToUserRole(t *testing.T) {
	svc, _ := newUserFixture(t)
	view, err := svc.Create(context.Background(), &structs.CreateUserRequest{
		Username:  "carol",
		Email:     "carol@example.com",
		Password:  "a-strong-password",
		FirstName: "Carol",
		LastName:  "Jones",
	})
	require.NoError(t, err)
	assert.Equal(t, structs.RoleUser, view.Role)
	assert.Equal(t, structs.StatusActive, view.Status)
}

func TestCreateDuplicateUsername(t *testing.T) {
	svc, _ := newUserFixture(t)
	createUser(t, svc, "carol", structs.RoleUser)

	_, err := svc.Create(context.Background(), &structs.CreateUserRequest{
		Username:  "carol",
		Email:     "different@example.com",
		Password:  "a-strong-password",
		FirstName: "Carol",
		LastName:  "Jones",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ecode.New(ecode.Conflict))

	var tagged *ecode.Error
	require.ErrorAs(t, err, &tagged)
	require.Len(t, tagged.Fields, 1)
	assert.Equal(t, "username", tagged.Fields[0].Field)
	assert.Equal(t, "DUPLICATE_RESOURCE", tagged.Fields[0].Code)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newUserFixture(t)
	view := createUser(t, svc, "carol", structs.RoleUser)

	first := "Caroline"
	updated, err := svc.Update(context.Background(), view.ID, &structs.UpdateUserRequest{
		FirstName: &first,
	})
	require.NoError(t, err)
	assert.Equal(t, "Caroline", updated.FirstName)
	assert.Equal(t, view.Version+1, updated.Version)
	assert.Equal(t, "carol", updated.Username)
}

func TestUpdateRejectsTakenEmail(t *testing.T) {
	svc, _ := newUserFixture(t)
	createUser(t, svc, "carol", structs.RoleUser)
	view := createUser(t, svc, "dave", structs.RoleUser)

	email := "carol@example.com"
	_, err := svc.Update(context.Background(), view.ID, &structs.UpdateUserRequest{
		Email: &email,
	})
	assert.ErrorIs(t, err, ecode.New(ecode.Conflict))
}

// blindUpdateRepo passes the taken-email pre-check, leaving the storage
// uniqueness guarantee as the only defense.
type blindUpdateRepo struct {
	repository.UserRepository
}

func (r *blindUpdateRepo) ExistsByEmailAndIDNot(context.Context, string, int64) (bool, error) {
	return false, nil
}

func TestUpdateRaceSurfacesAsConflict(t *testing.T) {
	svc, users := newUserFixture(t)
	createUser(t, svc, "carol", structs.RoleUser)
	dave := createUser(t, svc, "dave", structs.RoleUser)

	svc.users = &blindUpdateRepo{UserRepository: users}
	email := "carol@example.com"
	_, err := svc.Update(context.Background(), dave.ID, &structs.UpdateUserRequest{
		Email: &email,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ecode.New(ecode.Conflict))

	var tagged *ecode.Error
	require.ErrorAs(t, err, &tagged)
	require.Len(t, tagged.Fields, 1)
	assert.Equal(t, "email", tagged.Fields[0].Field)
}

// staleRepo makes every write fail as if a concurrent writer got there first.
type staleRepo struct {
	repository.UserRepository
}

func (r *staleRepo) Update(_ context.Context, _ *structs.User) error {
	return repository.ErrStaleWrite
}

func TestConcurrentWriteSurfacesAsConflict(t *testing.T) {
	svc, users := newUserFixture(t)
	view := createUser(t, svc, "carol", structs.RoleUser)

	svc.users = &staleRepo{UserRepository: users}
	_, err := svc.ChangeStatus(context.Background(), view.ID, structs.StatusSuspended)
	assert.ErrorIs(t, err, ecode.New(ecode.StaleWrite))
}

func TestRepositoryVersionCheck(t *testing.T) {
	_, users := newUserFixture(t)
	user := &structs.User{
		Username: "carol", Email: "carol@example.com",
		Role: structs.RoleUser, Status: structs.StatusActive,
	}
	require.NoError(t, users.Create(context.Background(), user))

	fresh, err := users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	stale, err := users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)

	fresh.FirstName = "First"
	require.NoError(t, users.Update(context.Background(), fresh))
	assert.Equal(t, 1, fresh.Version)

	stale.FirstName = "Second"
	err = users.Update(context.Background(), stale)
	assert.ErrorIs(t, err, repository.ErrStaleWrite)
}

func TestDeleteIsSoft(t *testing.T) {
	svc, users := newUserFixture(t)
	view := createUser(t, svc, "carol", structs.RoleUser)

	require.NoError(t, svc.Delete(context.Background(), view.ID))

	stored, err := users.FindByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, structs.StatusDeleted, stored.Status)

	// a deleted account no longer resolves for authentication
	_, err = svc.ResolveActive(context.Background(), "carol")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestChangeRoleNotFound(t *testing.T) {
	svc, _ := newUserFixture(t)
	_, err := svc.ChangeRole(context.Background(), 999, structs.RoleAdmin)
	assert.ErrorIs(t, err, ecode.New(ecode.NothingFound))
}

func TestStatistics(t *testing.T) {
	svc, _ := newUserFixture(t)
	createUser(t, svc, "admin1", structs.RoleAdmin)
	createUser(t, svc, "mod1", structs.RoleModerator)
	u := createUser(t, svc, "user1", structs.RoleUser)
	createUser(t, svc, "user2", structs.RoleUser)

	_, err := svc.ChangeStatus(context.Background(), u.ID, structs.StatusSuspended)
	require.NoError(t, err)

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalUsers)
	assert.Equal(t, int64(3), stats.ActiveUsers)
	assert.Equal(t, int64(1), stats.SuspendedUsers)
	assert.Equal(t, int64(1), stats.AdminUsers)
	assert.Equal(t, int64(1), stats.ModeratorUsers)
	assert.Equal(t, int64(2), stats.RegularUsers)
}

func TestSearchMatchesNameFields(t *testing.T) {
	svc, _ := newUserFixture(t)
	createUser(t, svc, "carol", structs.RoleUser)
	createUser(t, svc, "dave", structs.RoleUser)

	page, err := svc.Search(context.Background(), "caro", &paging.Params{Size: 10})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "carol", page.Content[0].Username)
	assert.Equal(t, int64(1), page.TotalElements)
}

func TestListPagination(t *testing.T) {
	svc, _ := newUserFixture(t)
	for _, name := range []string{"u1", "u2", "u3", "u4", "u5"} {
		createUser(t, svc, name, structs.RoleUser)
	}

	page, err := svc.List(context.Background(), &paging.Params{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Len(t, page.Content, 2)
	assert.Equal(t, int64(5), page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.First)
	assert.False(t, page.Last)
}

func TestSeedCreatesAdminOnce(t *testing.T) {
	svc, users := newUserFixture(t)
	bootstrap := &config.Bootstrap{
		Enabled:  true,
		Username: "admin",
		Email:    "admin@example.com",
		Password: "bootstrap-password",
	}

	require.NoError(t, svc.Seed(context.Background(), bootstrap))
	admin, err := users.FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, structs.RoleAdmin, admin.Role)

	// a second run against a non-empty store is a no-op
	require.NoError(t, svc.Seed(context.Background(), bootstrap))
	total, err := users.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
