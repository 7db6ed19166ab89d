package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/sebuszqo/ezwallet/internal/user"
)

var (
	ErrInvalidJWTToken = errors.New("JWT token is invalid")
	ErrExpiredJWTToken = errors.New("JWT token is expired")
)

const (
	defaultJWTDuration        = time.Hour
	defaultJWTRefreshDuration = 7 * 24 * time.Hour
)

type JWTManagerInterface interface {
	GenerateAccessJWT(identity Identity) (string, error)
	GenerateRefreshJWT(identity Identity) (string, error)
	ParseToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims is shared by access and refresh tokens so that both carry the full identity.
type TokenClaims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.StandardClaims
}

func (c *TokenClaims) complete() bool {
	return c.Username != "" && c.Email != "" && c.Role != ""
}

func (c *TokenClaims) identity() *Identity {
	return &Identity{
		ID:       c.ID,
		Username: c.Username,
		Email:    c.Email,
		Role:     user.Role(c.Role),
	}
}

func (c *TokenClaims) sameUser(other *TokenClaims) bool {
	return c.Username == other.Username && c.Email == other.Email && c.Role == other.Role
}

type JWTManager struct {
	secret          []byte
	accessDuration  time.Duration
	refreshDuration time.Duration
}

// NewJWTManager builds a manager around an explicit secret. Zero durations fall back to defaults.
func NewJWTManager(secret string, accessDuration, refreshDuration time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, errors.New("JWT secret must not be empty")
	}
	if accessDuration <= 0 {
		accessDuration = defaultJWTDuration
	}
	if refreshDuration <= 0 {
		refreshDuration = defaultJWTRefreshDuration
	}
	return &JWTManager{
		secret:          []byte(secret),
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
	}, nil
}

func (j *JWTManager) AccessDuration() time.Duration {
	return j.accessDuration
}

func (j *JWTManager) RefreshDuration() time.Duration {
	return j.refreshDuration
}

func (j *JWTManager) GenerateAccessJWT(identity Identity) (string, error) {
	return j.sign(identity, j.accessDuration)
}

func (j *JWTManager) GenerateRefreshJWT(identity Identity) (string, error) {
	return j.sign(identity, j.refreshDuration)
}

func (j *JWTManager) sign(identity Identity, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		ID:       identity.ID,
		Username: identity.Username,
		Email:    identity.Email,
		Role:     string(identity.Role),
		StandardClaims: jwt.StandardClaims{
			Subject:   identity.Username,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(duration).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("could not sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies the signature and returns the claims. A correctly signed but expired
// token returns its claims together with ErrExpiredJWTToken.
func (j *JWTManager) ParseToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})

	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors == jwt.ValidationErrorExpired {
			return claims, ErrExpiredJWTToken
		}
		return nil, ErrInvalidJWTToken
	}

	if !token.Valid {
		return nil, ErrInvalidJWTToken
	}
	return claims, nil
}
