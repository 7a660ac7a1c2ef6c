package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("secret")
	token, err := GenerateToken("user-1", "a@example.com", "idp", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, "idp", secret)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "a@example.com", claims.Email)
}

func TestParseTokenRejectsWrongIssuerAndSecret(t *testing.T) {
	token, err := GenerateToken("user-1", "", "idp", []byte("secret"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "other", []byte("secret"))
	require.Error(t, err)

	_, err = ParseToken(token, "", []byte("wrong"))
	require.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("user-1", "", "", []byte("secret"), -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(token, "", []byte("secret"))
	require.Error(t, err)
}
