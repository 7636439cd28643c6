package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(7, "chef")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "chef", claims.Role)
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &CustomClaims{UserID: 1, Role: "admin"})
	signed, err := forged.SignedString([]byte("someone-else"))
	require.NoError(t, err)

	_, err = ParseToken(signed)
	assert.Error(t, err)

	_, err = ParseToken("not-a-token")
	assert.Error(t, err)
}
