package utils

import (
	"testing"
	"time"

	"payway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *models.User {
	u := &models.User{Phone: "500000000", Role: models.RoleAdmin}
	u.ID = 7
	return u
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", testUser(), time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, "7", claims.Subject)
}

func TestParseTokenRejects(t *testing.T) {
	token, err := GenerateToken("secret", testUser(), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := GenerateToken("secret", testUser(), -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = GenerateToken("", testUser(), time.Hour)
	assert.Error(t, err)
}
