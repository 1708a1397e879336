// Package repository persists users and answers account lookups.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ncobase/passport/paging"
	"github.com/ncobase/passport/structs"
)

var (
	// ErrNotFound indicates no row matched the lookup.
	ErrNotFound = errors.New("repository: not found")
	// ErrStaleWrite indicates the row changed since it was read. The caller
	// must re-read and retry.
	ErrStaleWrite = errors.New("repository: stale write")
)

// DuplicateError indicates a unique constraint rejected a write. It is the
// storage-level backstop behind the existence pre-checks: a concurrent insert
// in the window between check and write still surfaces as a duplicate, never
// as an opaque failure.
type DuplicateError struct {
	Field string // "username" or "email", empty when undetermined
	cause error
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return "repository: duplicate key"
	}
	return "repository: duplicate " + e.Field
}

func (e *DuplicateError) Unwrap() error {
	return e.cause
}

// UserRepository is the persistence contract for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *structs.User) error
	FindByID(ctx context.Context, id int64) (*structs.User, error)
	FindByUsername(ctx context.Context, username string) (*structs.User, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*structs.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsernameAndIDNot(ctx context.Context, username string, id int64) (bool, error)
	ExistsByEmailAndIDNot(ctx context.Context, email string, id int64) (bool, error)

	// Update writes the row only if the stored version still matches
	// user.Version, incrementing it on success. ErrStaleWrite otherwise.
	Update(ctx context.Context, user *structs.User) error

	List(ctx context.Context, p *paging.Params) ([]*structs.User, int64, error)
	Search(ctx context.Context, term string, p *paging.Params) ([]*structs.User, int64, error)
	FindByStatus(ctx context.Context, status structs.Status, p *paging.Params) ([]*structs.User, int64, error)
	FindByRole(ctx context.Context, role structs.Role, p *paging.Params) ([]*structs.User, int64, error)
	FindCreatedAfter(ctx context.Context, cutoff time.Time, p *paging.Params) ([]*structs.User, int64, error)

	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status structs.Status) (int64, error)
	CountByRole(ctx context.Context, role structs.Role) (int64, error)
}
