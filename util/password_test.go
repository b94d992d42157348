package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSaltIsRandom(t *testing.T) {
	a, err := GenerateSalt()
	assert.NoError(t, err)
	b, err := GenerateSalt()
	assert.NoError(t, err)

	assert.Len(t, a, saltLen*2) // hex encoded
	assert.NotEqual(t, a, b)
}

func TestHashPasswordRoundTrip(t *testing.T) {
	salt, err := GenerateSalt()
	assert.NoError(t, err)

	hashed, err := HashPassword("password123", salt)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(hashed, argonPrefix))

	ok, err := VerifyPassword("password123", hashed, salt)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyPasswordRejectsWrongPassword(t *testing.T) {
	salt, err := GenerateSalt()
	assert.NoError(t, err)
	hashed, err := HashPassword("password123", salt)
	assert.NoError(t, err)

	ok, err := VerifyPassword("password124", hashed, salt)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordRejectsWrongSalt(t *testing.T) {
	salt, err := GenerateSalt()
	assert.NoError(t, err)
	hashed, err := HashPassword("password123", salt)
	assert.NoError(t, err)

	otherSalt, err := GenerateSalt()
	assert.NoError(t, err)

	ok, err := VerifyPassword("password123", hashed, otherSalt)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordRejectsForeignHashFormat(t *testing.T) {
	salt, err := GenerateSalt()
	assert.NoError(t, err)

	_, err = VerifyPassword("password123", "$2b$10$legacybcrypt", salt)
	assert.Error(t, err)
}

func TestHashPasswordRejectsBadSalt(t *testing.T) {
	_, err := HashPassword("password123", "not-hex")
	assert.Error(t, err)
}

func TestSameSaltSamePasswordIsDeterministic(t *testing.T) {
	salt, err := GenerateSalt()
	assert.NoError(t, err)

	first, err := HashPassword("password123", salt)
	assert.NoError(t, err)
	second, err := HashPassword("password123", salt)
	assert.NoError(t, err)

	assert.Equal(t, first, second)
}
