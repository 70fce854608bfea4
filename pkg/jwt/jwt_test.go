package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-key-for-unit-tests"

func TestGenerateAndParse_ConActor(t *testing.T) {
	tok, err := Generate(secret, "emp-1", "employee", "Luis", "marketplace-test", 60)
	require.NoError(t, err)

	claims, err := Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims.UserID)
	assert.Equal(t, "employee", claims.Role)
	assert.Equal(t, "Luis", claims.Name)
	assert.Equal(t, "marketplace-test", claims.Issuer)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := Generate(secret, "emp-1", "admin", "", "marketplace-test", -1)
	require.NoError(t, err)
	_, err = Parse(secret, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := Generate(secret, "emp-1", "admin", "", "marketplace-test", 60)
	require.NoError(t, err)
	_, err = Parse("otro-secret-completamente-distinto", tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerate_SinSecretOUsuario(t *testing.T) {
	_, err := Generate("", "emp-1", "admin", "", "x", 60)
	assert.Error(t, err)
	_, err = Generate(secret, "", "admin", "", "x", 60)
	assert.Error(t, err)
}
