package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	AccessTokenTTL  = 24 * time.Hour
	RefreshTokenTTL = 30 * 24 * time.Hour

	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid is returned for malformed tokens or signature failures.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims binds a user ID and token type to the registered JWT claims.
type Claims struct {
	UserID    uint64 `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 token pairs. Validation is stateless;
// the signing secret is the only shared state.
type Manager struct {
	secret []byte
}

// NewManager creates a Manager with the given signing secret.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// Pair holds an access token and its longer-lived refresh counterpart.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IssuePair issues an access/refresh token pair bound to the user ID.
func (m *Manager) IssuePair(userID uint64) (Pair, error) {
	access, err := m.issue(userID, TypeAccess, AccessTokenTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.issue(userID, TypeRefresh, RefreshTokenTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueAccess issues a fresh access token for the user ID.
func (m *Manager) IssueAccess(userID uint64) (string, error) {
	return m.issue(userID, TypeAccess, AccessTokenTTL)
}

func (m *Manager) issue(userID uint64, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses a token and returns the subject user ID. The token must be
// of the expected type; a refresh token is not accepted where an access token
// is required.
func (m *Manager) Verify(tokenString, expectedType string) (uint64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != expectedType {
		return 0, ErrTokenInvalid
	}

	return claims.UserID, nil
}
