package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *domain.User {
	return &domain.User{
		BaseModel:  domain.BaseModel{ID: "9b2e4c1a-1111-4000-8000-000000000001"},
		FullName:   "Asha Rao",
		Email:      "asha@example.com",
		Permission: domain.PermissionWrite,
	}
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := auth.NewTokenManager("secret", "crm-test", time.Hour)

	token, expiresAt, err := tm.GenerateToken(testUser())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	caller, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, testUser().ID, caller.UserID)
	assert.Equal(t, "asha@example.com", caller.Email)
	assert.Equal(t, domain.PermissionWrite, caller.Permission)
	assert.NotEmpty(t, caller.TokenID)
	assert.False(t, caller.System)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := auth.NewTokenManager("secret", "crm-test", time.Hour)
	good, _, err := tm.GenerateToken(testUser())
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := auth.NewTokenManager("other", "crm-test", time.Hour)
		_, err := other.ValidateToken(good)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := auth.NewTokenManager("secret", "someone-else", time.Hour)
		_, err := other.ValidateToken(good)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		claims := auth.Claims{
			UserID: "u-1",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "crm-test",
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = tm.ValidateToken(expired)
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := auth.Claims{UserID: "u-1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "crm-test"}}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tm.ValidateToken(unsigned)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestTokenManager_Revoke(t *testing.T) {
	tm := auth.NewTokenManager("secret", "crm-test", time.Hour)
	first, _, err := tm.GenerateToken(testUser())
	require.NoError(t, err)
	second, _, err := tm.GenerateToken(testUser())
	require.NoError(t, err)

	caller, err := tm.ValidateToken(first)
	require.NoError(t, err)
	tm.RevokeCaller(caller)

	_, err = tm.ValidateToken(first)
	assert.ErrorIs(t, err, auth.ErrRevokedToken)

	_, err = tm.ValidateToken(second)
	assert.NoError(t, err, "other sessions of the same user stay valid")
}

func TestTokenManager_GenerateRequiresSecretAndUser(t *testing.T) {
	_, _, err := auth.NewTokenManager("", "", 0).GenerateToken(testUser())
	assert.Error(t, err)

	_, _, err = auth.NewTokenManager("secret", "", 0).GenerateToken(&domain.User{})
	assert.Error(t, err)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		token, err := auth.ExtractBearerToken(tt.header)
		if tt.ok {
			require.NoError(t, err, tt.header)
			assert.Equal(t, tt.token, token)
		} else {
			assert.ErrorIs(t, err, auth.ErrInvalidToken, tt.header)
		}
	}
}

func TestPasswords(t *testing.T) {
	hash, err := auth.HashPassword("Str0ngPass", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ngPass", hash)

	assert.NoError(t, auth.CheckPassword(hash, "Str0ngPass"))
	assert.ErrorIs(t, auth.CheckPassword(hash, "wrong"), auth.ErrInvalidCredentials)
	assert.ErrorIs(t, auth.CheckPassword("", "Str0ngPass"), auth.ErrInvalidCredentials)
}
