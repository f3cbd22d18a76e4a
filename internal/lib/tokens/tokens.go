package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const (
	claimUserID    = "uid"
	claimTokenType = "token_type"
	accessToken    = "access"
)

// Manager issues and verifies HS256 access tokens. Expiry is carried in the
// exp claim and enforced on parse.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *Manager) NewToken(userID int64) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		claimUserID:    userID,
		claimTokenType: accessToken,
		"iat":          now.Unix(),
	}
	if m.ttl > 0 {
		claims["exp"] = now.Add(m.ttl).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseToken returns the user id carried by a valid access token.
func (m *Manager) ParseToken(tokenString string) (int64, error) {
	parsed, err := jwt.Parse(
		tokenString,
		func(token *jwt.Token) (any, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	if tokenType, _ := claims[claimTokenType].(string); tokenType != accessToken {
		return 0, ErrInvalidToken
	}
	userID, ok := claims[claimUserID].(float64)
	if !ok || userID < 1 {
		return 0, ErrInvalidToken
	}
	return int64(userID), nil
}
