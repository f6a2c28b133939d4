package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the cookie carrying the session token for browser clients
const SessionCookie = "session"

// Claims is the session token payload
type Claims struct {
	Actor string `json:"actor"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 session tokens
type TokenManager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenManager(secret, issuer string) *TokenManager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if issuer == "" {
		issuer = "outreach"
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// GenerateToken issues a session token for actor valid for expiresIn
func (tm *TokenManager) GenerateToken(actor string, expiresIn time.Duration) (string, time.Time, error) {
	if strings.TrimSpace(actor) == "" {
		return "", time.Time{}, fmt.Errorf("actor required")
	}
	now := tm.now()
	expiresAt := now.Add(expiresIn)
	claims := Claims{
		Actor: actor,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses a token and checks signature, issuer and expiry
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithIssuer(tm.issuer), jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Actor == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// ExtractToken reads a bearer token from an Authorization header value
func ExtractToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}
