package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ncobase/passport/paging"
	"github.com/ncobase/passport/structs"
)

// memoryUserRepository is a map-backed repository used in tests and local
// development without a database.
type memoryUserRepository struct {
	mu     sync.RWMutex
	users  map[int64]*structs.User
	nextID int64
}

// NewMemoryUserRepository creates an empty in-memory repository.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[int64]*structs.User), nextID: 1}
}

func cloneUser(u *structs.User) *structs.User {
	c := *u
	return &c
}

// uniqueViolation mirrors the SQL store's unique indexes. Caller holds the
// lock.
func (r *memoryUserRepository) uniqueViolation(user *structs.User) error {
	for _, u := range r.users {
		if u.ID == user.ID {
			continue
		}
		if u.Username == user.Username {
			return &DuplicateError{Field: "username"}
		}
		if u.Email == user.Email {
			return &DuplicateError{Field: "email"}
		}
	}
	return nil
}

func (r *memoryUserRepository) Create(_ context.Context, user *structs.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.uniqueViolation(user); err != nil {
		return err
	}
	now := time.Now().UTC()
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Version = 0
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id int64) (*structs.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, ErrNotFound
}

func (r *memoryUserRepository) FindByUsername(_ context.Context, username string) (*structs.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUserRepository) FindByUsernameOrEmail(_ context.Context, identifier string) (*structs.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == identifier || u.Email == identifier {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryUserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryUserRepository) ExistsByUsernameAndIDNot(_ context.Context, username string, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username && u.ID != id {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryUserRepository) ExistsByEmailAndIDNot(_ context.Context, email string, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email && u.ID != id {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryUserRepository) Update(_ context.Context, user *structs.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != user.Version {
		return ErrStaleWrite
	}
	if err := r.uniqueViolation(user); err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()
	user.Version++
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *memoryUserRepository) page(match func(*structs.User) bool, p *paging.Params) ([]*structs.User, int64, error) {
	p.Normalize()
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*structs.User
	for _, u := range r.users {
		if match(u) {
			all = append(all, cloneUser(u))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if p.Direction == "asc" {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	start := p.Offset()
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + p.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memoryUserRepository) List(_ context.Context, p *paging.Params) ([]*structs.User, int64, error) {
	return r.page(func(*structs.User) bool { return true }, p)
}

func (r *memoryUserRepository) Search(_ context.Context, term string, p *paging.Params) ([]*structs.User, int64, error) {
	term = strings.ToLower(term)
	return r.page(func(u *structs.User) bool {
		return strings.Contains(strings.ToLower(u.Username), term) ||
			strings.Contains(strings.ToLower(u.Email), term) ||
			strings.Contains(strings.ToLower(u.FirstName), term) ||
			strings.Contains(strings.ToLower(u.LastName), term)
	}, p)
}

func (r *memoryUserRepository) FindByStatus(_ context.Context, status structs.Status, p *paging.Params) ([]*structs.User, int64, error) {
	return r.page(func(u *structs.User) bool { return u.Status == status }, p)
}

func (r *memoryUserRepository) FindByRole(_ context.Context, role structs.Role, p *paging.Params) ([]*structs.User, int64, error) {
	return r.page(func(u *structs.User) bool { return u.Role == role }, p)
}

func (r *memoryUserRepository) FindCreatedAfter(_ context.Context, cutoff time.Time, p *paging.Params) ([]*structs.User, int64, error) {
	return r.page(func(u *structs.User) bool { return u.CreatedAt.After(cutoff) }, p)
}

func (r *memoryUserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func (r *memoryUserRepository) CountByStatus(_ context.Context, status structs.Status) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, u := range r.users {
		if u.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *memoryUserRepository) CountByRole(_ context.Context, role structs.Role) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}
