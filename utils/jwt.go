package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

// TokenIssuer signs and parses customer tokens.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	if secret == "" {
		secret = "labbook-dev-secret"
	}
	return &TokenIssuer{secret: []byte(secret)}
}

// GenerateToken creates a signed JWT token with the given subject (the customer ID) and phone.
// The token expires after the specified duration.
func (ti *TokenIssuer) GenerateToken(subject, phone string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   subject,
		"phone": phone,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// HashToken computes a SHA-256 hash of the token string.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidateToken parses and validates a token string and returns the token if valid.
func (ti *TokenIssuer) ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ti.secret, nil
	})
}

// ExtractIDFromToken extracts the customer ID (subject) from a valid JWT token string.
func (ti *TokenIssuer) ExtractIDFromToken(tokenString string) (string, error) {
	token, err := ti.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("token does not contain a valid 'sub' claim")
	}

	return sub, nil
}
