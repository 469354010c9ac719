// internal/pkg/auth/jwt_test.go
package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
)

func testJWTConfig(expiry time.Duration) *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "Storefront Backend"
	cfg.JWT.Secret = "test-secret-key-that-is-long-enough!"
	cfg.JWT.AccessTokenExpiry = expiry
	return cfg
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	manager := NewJWTManager(testJWTConfig(time.Hour))

	token, err := manager.GenerateAccessToken(7, "ada@example.com", true)
	require.NoError(t, err)

	claims, err := manager.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.True(t, claims.IsStaff)
	assert.Equal(t, "user:7", claims.Subject)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	manager := NewJWTManager(testJWTConfig(-time.Minute))

	token, err := manager.GenerateAccessToken(7, "ada@example.com", false)
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	manager := NewJWTManager(testJWTConfig(time.Hour))
	other := NewJWTManager(testJWTConfig(time.Hour))
	other.config.JWT.Secret = "a-completely-different-secret-value!"

	token, err := manager.GenerateAccessToken(7, "ada@example.com", false)
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc.def.ghi", ExtractTokenFromHeader("Bearer abc.def.ghi"))
	assert.Empty(t, ExtractTokenFromHeader("abc.def.ghi"))
	assert.Empty(t, ExtractTokenFromHeader("Basic abc"))
	assert.Empty(t, ExtractTokenFromHeader(""))
	assert.Empty(t, ExtractTokenFromHeader("Bearer "))
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)

	assert.True(t, CheckPassword("correct horse", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestHashPasswordRejectsShortPasswords(t *testing.T) {
	_, err := HashPassword("short", 4)
	assert.Error(t, err)
}
