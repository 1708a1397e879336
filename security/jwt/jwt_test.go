package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncobase/passport/config"
	"github.com/ncobase/passport/structs"
)

func newTestManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(&config.JWT{
		Secret:        "test-secret-key-for-token-signing",
		AccessExpire:  time.Hour,
		RefreshExpire: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	return m
}

func testUser() *structs.User {
	return &structs.User{
		ID:       42,
		Username: "alice",
		Role:     structs.RoleModerator,
		Status:   structs.StatusActive,
	}
}

func TestMintValidateRoundTrip(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()

	token, err := m.Mint(testUser(), KindAccess, now)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Validate(token, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, structs.RoleModerator, claims.Role)
	assert.Equal(t, KindAccess, claims.Kind)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, now.Add(time.Hour), claims.ExpiresAt, time.Second)
}

func TestValidateExpiredToken(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()

	token, err := m.Mint(testUser(), KindAccess, now)
	require.NoError(t, err)

	_, err = m.Validate(token, now.Add(time.Hour+time.Minute))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateTamperedSignature(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()

	token, err := m.Mint(testUser(), KindAccess, now)
	require.NoError(t, err)

	last := token[len(token)-1]
	flipped := byte('A')
	if last == flipped {
		flipped = 'B'
	}
	tampered := token[:len(token)-1] + string(flipped)

	_, err = m.Validate(tampered, now)
	assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
}

func TestValidateWrongKey(t *testing.T) {
	m := newTestManager(t)
	other, err := NewTokenManager(&config.JWT{
		Secret:        "a-completely-different-secret",
		AccessExpire:  time.Hour,
		RefreshExpire: time.Hour,
	})
	require.NoError(t, err)

	now := time.Now()
	token, err := other.Mint(testUser(), KindAccess, now)
	require.NoError(t, err)

	_, err = m.Validate(token, now)
	assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
}

func TestValidateMalformedToken(t *testing.T) {
	m := newTestManager(t)

	for _, tv := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := m.Validate(tv, time.Now())
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", tv)
	}
}

func TestRefreshTokenCarriesKind(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()

	token, err := m.Mint(testUser(), KindRefresh, now)
	require.NoError(t, err)

	claims, err := m.Validate(token, now.Add(3*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, KindRefresh, claims.Kind)
	assert.WithinDuration(t, now.Add(7*24*time.Hour), claims.ExpiresAt, time.Second)
}

func TestExtractSubject(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()

	token, err := m.Mint(testUser(), KindAccess, now)
	require.NoError(t, err)

	sub, err := m.ExtractSubject(token, now)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}
