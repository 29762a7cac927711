package api

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "payrep"

var ErrInvalidToken = errors.New("invalid or expired token")

// Auth issues and verifies HS256 bearer tokens
type Auth struct {
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

func NewAuth(secret string, tokenTTL time.Duration) *Auth {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &Auth{secret: []byte(secret), tokenTTL: tokenTTL, now: time.Now}
}

// Issue signs a token for subject
func (a *Auth) Issue(subject string) (string, time.Time, error) {
	now := a.now().UTC()
	expiresAt := now.Add(a.tokenTTL)
	claims := jwtlib.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		Issuer:    tokenIssuer,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies a token and returns its subject
func (a *Auth) Parse(tokenStr string) (string, error) {
	claims := &jwtlib.RegisteredClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithIssuer(tokenIssuer), jwtlib.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
