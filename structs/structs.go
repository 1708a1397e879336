// Package structs defines the identity domain model and API payloads.
package structs

import "time"

// Role is the access level assigned to a user.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Status is the lifecycle state of a user account. DELETED is terminal;
// accounts are never physically removed.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusDeleted   Status = "DELETED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended, StatusDeleted:
		return true
	}
	return false
}

// User is the stored principal. Version increments on every write and backs
// optimistic concurrency control.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	Role         Role      `json:"role"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Version      int       `json:"version"`
}

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// UserView is the outward-facing projection of a user.
type UserView struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	Role        Role      `json:"role"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Version     int       `json:"version"`
}

// View projects the user for API responses.
func (u *User) View() *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		Version:     u.Version,
	}
}

// Identity is the per-request authentication result. It is created at the
// start of request processing and discarded at the end, never shared across
// requests. An empty Identity means no principal was resolved.
type Identity struct {
	User *User
}

// Authenticated reports whether an ACTIVE principal was resolved.
func (id *Identity) Authenticated() bool {
	return id != nil && id.User != nil && id.User.IsActive()
}

// HasAnyRole reports whether the resolved principal holds one of roles.
func (id *Identity) HasAnyRole(roles ...Role) bool {
	if !id.Authenticated() {
		return false
	}
	for _, r := range roles {
		if id.User.Role == r {
			return true
		}
	}
	return false
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	FirstName   string `json:"firstName" validate:"required,max=50"`
	LastName    string `json:"lastName" validate:"required,max=50"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,max=20"`
}

// TokenRefreshRequest is the body of POST /auth/refresh.
type TokenRefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LoginResponse carries the minted token pair and the user view.
type LoginResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	ExpiresIn    int64     `json:"expiresIn"`
	User         *UserView `json:"user"`
}

// TokenRefreshResponse carries a newly minted access token.
type TokenRefreshResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	FirstName   string `json:"firstName" validate:"required,max=50"`
	LastName    string `json:"lastName" validate:"required,max=50"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,max=20"`
	Role        Role   `json:"role" validate:"omitempty,oneof=USER MODERATOR ADMIN"`
}

// UpdateUserRequest is the body of PUT /users/{id}. Nil fields are left
// unchanged.
type UpdateUserRequest struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=50"`
	Email       *string `json:"email" validate:"omitempty,email"`
	FirstName   *string `json:"firstName" validate:"omitempty,max=50"`
	LastName    *string `json:"lastName" validate:"omitempty,max=50"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=20"`
}

// HasUpdates reports whether any field is set.
func (r *UpdateUserRequest) HasUpdates() bool {
	return r.Username != nil || r.Email != nil || r.FirstName != nil ||
		r.LastName != nil || r.PhoneNumber != nil
}

// ChangeRoleRequest is the body of PATCH /users/{id}/role.
type ChangeRoleRequest struct {
	Role Role `json:"role" validate:"required,oneof=USER MODERATOR ADMIN"`
}

// ChangeStatusRequest is the body of PATCH /users/{id}/status.
type ChangeStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=ACTIVE INACTIVE SUSPENDED DELETED"`
}

// UserStatistics aggregates account counts by status and role.
type UserStatistics struct {
	TotalUsers     int64 `json:"totalUsers"`
	ActiveUsers    int64 `json:"activeUsers"`
	InactiveUsers  int64 `json:"inactiveUsers"`
	SuspendedUsers int64 `json:"suspendedUsers"`
	DeletedUsers   int64 `json:"deletedUsers"`
	AdminUsers     int64 `json:"adminUsers"`
	ModeratorUsers int64 `json:"moderatorUsers"`
	RegularUsers   int64 `json:"regularUsers"`
}

// UserLocation is a reported user position, cached in redis.
type UserLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}
