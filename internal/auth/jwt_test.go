package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/sebuszqo/ezwallet/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var mario = Identity{ID: "1", Username: "mario", Email: "mario.red@email.com", Role: user.RoleRegular}

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()
	manager, err := NewJWTManager(testSecret, 0, 0)
	require.NoError(t, err)
	return manager
}

func TestNewJWTManager_RequiresSecret(t *testing.T) {
	_, err := NewJWTManager("", time.Hour, time.Hour)
	assert.Error(t, err)
}

func TestNewJWTManager_Defaults(t *testing.T) {
	manager := newTestJWTManager(t)
	assert.Equal(t, time.Hour, manager.AccessDuration())
	assert.Equal(t, 7*24*time.Hour, manager.RefreshDuration())
}

func TestParseToken_RoundTrip(t *testing.T) {
	manager := newTestJWTManager(t)

	token, err := manager.GenerateAccessJWT(mario)
	require.NoError(t, err)

	claims, err := manager.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "mario", claims.Username)
	assert.Equal(t, "mario.red@email.com", claims.Email)
	assert.Equal(t, "Regular", claims.Role)
	assert.Equal(t, mario, *claims.identity())
}

func TestParseToken_Expired(t *testing.T) {
	manager := newTestJWTManager(t)

	token, err := manager.sign(mario, -time.Minute)
	require.NoError(t, err)

	claims, err := manager.ParseToken(token)
	assert.ErrorIs(t, err, ErrExpiredJWTToken)
	require.NotNil(t, claims)
	assert.Equal(t, "mario", claims.Username)
}

func TestParseToken_WrongSecret(t *testing.T) {
	other, err := NewJWTManager("another-secret", 0, 0)
	require.NoError(t, err)
	token, err := other.GenerateAccessJWT(mario)
	require.NoError(t, err)

	claims, err := newTestJWTManager(t).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidJWTToken)
	assert.Nil(t, claims)
}

func TestParseToken_RejectsOtherSigningMethods(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &TokenClaims{Username: "mario"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestJWTManager(t).ParseToken(signed)
	assert.ErrorIs(t, err, ErrInvalidJWTToken)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := newTestJWTManager(t).ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidJWTToken)
}
