package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the validated content of an access token.
type Claims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// TokenManager issues and parses HS256 access tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// Issue signs a new token for the user. The jti claim lets logout revoke
// the token before its natural expiry.
func (m *TokenManager) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"jti": uuid.NewString(),
		"iss": m.issuer,
		"iat": now.Unix(),
		"exp": now.Add(m.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse validates the signature, issuer and expiry of a raw token.
func (m *TokenManager) Parse(raw string) (Claims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, _ := mapClaims["sub"].(string)
	jti, _ := mapClaims["jti"].(string)
	if sub == "" || jti == "" {
		return Claims{}, ErrInvalidToken
	}
	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, ErrInvalidToken
	}
	return Claims{UserID: sub, TokenID: jti, ExpiresAt: exp.Time}, nil
}
