package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("secret", 42, "ADMIN", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	require.Equal(t, "ADMIN", claims.Role)

	id, err := claims.UserID()
	require.NoError(t, err)
	require.EqualValues(t, 42, id)
}

func TestValidateToken_Rejects(t *testing.T) {
	valid, err := GenerateToken("secret", 7, "USER", time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken("secret", 7, "USER", -time.Minute)
	require.NoError(t, err)
	noUser, err := GenerateToken("secret", 0, "USER", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{name: "wrong_secret", secret: "other", token: valid},
		{name: "expired", secret: "secret", token: expired},
		{name: "missing_user", secret: "secret", token: noUser},
		{name: "garbage", secret: "secret", token: "not-a-token"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ValidateToken(tc.secret, tc.token)
			require.Error(t, err)
		})
	}
}

func TestSetLevel(t *testing.T) {
	require.True(t, SetLevel("debug"))
	require.False(t, SetLevel("chatty"))
	require.True(t, SetLevel("INFO"))
}

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	require.True(t, ValidID(id))
	require.NotEqual(t, id, GenerateID())
	require.False(t, ValidID("abc"))
}
