package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeAndParseToken(t *testing.T) {
	SetJWTSecret("token-test-secret")

	raw, err := MakeToken(42)
	assert.NoError(t, err)
	assert.NotEmpty(t, raw)

	claims, err := ParseToken(raw)
	assert.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	SetJWTSecret("first-secret")
	raw, err := MakeToken(7)
	assert.NoError(t, err)

	SetJWTSecret("second-secret")
	_, err = ParseToken(raw)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	SetJWTSecret("token-test-secret")

	_, err := ParseToken("not.a.token")
	assert.Error(t, err)

	_, err = ParseToken("")
	assert.Error(t, err)
}

func TestSetJWTSecretReplacesSigningKey(t *testing.T) {
	SetJWTSecret("alpha")
	assert.Equal(t, []byte("alpha"), GetJWTSecretByte())

	SetJWTSecret("beta")
	assert.Equal(t, []byte("beta"), GetJWTSecretByte())
}
