package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goprice/internal/pkg/token"
)

func TestService_GenerateAndValidate(t *testing.T) {
	svc := token.NewService("segredo", time.Hour)

	tok, err := svc.GenerateToken("user-1", "admin")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, token.Issuer, claims.Issuer)
}

func TestService_WrongSecret(t *testing.T) {
	tok, err := token.NewService("a", time.Hour).GenerateToken("user-1", "user")
	require.NoError(t, err)

	_, err = token.NewService("b", time.Hour).ValidateToken(tok)
	assert.Error(t, err)
}

func TestService_Expired(t *testing.T) {
	svc := token.NewService("segredo", -time.Minute)

	tok, err := svc.GenerateToken("user-1", "user")
	require.NoError(t, err)

	_, err = svc.ValidateToken(tok)
	assert.Error(t, err)
}
