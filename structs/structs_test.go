package structs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserSerializesCamelCaseWithoutSecrets(t *testing.T) {
	user := &User{
		ID:           1,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$secret",
		FirstName:    "Alice",
		LastName:     "Smith",
		PhoneNumber:  "555-0100",
		Role:         RoleUser,
		Status:       StatusActive,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	for name, value := range map[string]any{"user": user, "view": user.View()} {
		raw, err := json.Marshal(value)
		require.NoError(t, err, name)

		var fields map[string]any
		require.NoError(t, json.Unmarshal(raw, &fields), name)

		for _, key := range []string{"firstName", "lastName", "phoneNumber", "createdAt", "updatedAt"} {
			assert.Contains(t, fields, key, name)
		}
		for _, key := range []string{"first_name", "last_name", "passwordHash", "password_hash"} {
			assert.NotContains(t, fields, key, name)
		}
		assert.NotContains(t, string(raw), "secret", name)
	}
}

func TestIdentityAuthentication(t *testing.T) {
	var none *Identity
	assert.False(t, none.Authenticated())
	assert.False(t, (&Identity{}).Authenticated())

	suspended := &Identity{User: &User{Role: RoleAdmin, Status: StatusSuspended}}
	assert.False(t, suspended.Authenticated())
	assert.False(t, suspended.HasAnyRole(RoleAdmin))

	active := &Identity{User: &User{Role: RoleModerator, Status: StatusActive}}
	assert.True(t, active.Authenticated())
	assert.True(t, active.HasAnyRole(RoleAdmin, RoleModerator))
	assert.False(t, active.HasAnyRole(RoleAdmin))
}
