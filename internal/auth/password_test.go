package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	require.NoError(t, CheckPassword("correct horse battery", hash))

	err = CheckPassword("wrong password", hash)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestHashPasswordTooShort(t *testing.T) {
	_, err := HashPassword("short", bcrypt.MinCost)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestHashPasswordTooLong(t *testing.T) {
	// bcrypt only consumes the first 72 bytes.
	_, err := HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	first, err := HashPassword("correct horse battery", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("correct horse battery", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestGenerateSessionSecret(t *testing.T) {
	first, err := GenerateSessionSecret()
	require.NoError(t, err)
	assert.Len(t, first, 64)

	second, err := GenerateSessionSecret()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
