package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndParseToken(t *testing.T) {
	m := NewManager("secret", time.Hour)
	token, err := m.NewToken(42)
	require.NoError(t, err)

	userID, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestParseToken(t *testing.T) {
	m := NewManager("secret", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewManager("other", time.Hour).NewToken(1)
		require.NoError(t, err)
		_, err = m.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		issuer := NewManager("secret", time.Minute)
		issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := issuer.NewToken(1)
		require.NoError(t, err)
		_, err = m.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ParseToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing uid", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			claimTokenType: accessToken,
		}).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = m.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
			claimUserID:    1,
			claimTokenType: accessToken,
		}).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = m.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
