package auth

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

var (
	ErrUnauthorized     = errors.New("Unauthorized")
	ErrMissingClaims    = errors.New("Token is missing information")
	ErrMismatchedTokens = errors.New("Mismatched users")
	ErrSessionExpired   = errors.New("Perform login again")
)

// Resolution is the outcome of a successful identity lookup. RefreshedAccessToken is set
// when the access token had expired and a new one was minted from the refresh token.
type Resolution struct {
	Identity             *Identity
	RefreshedAccessToken string
}

type IdentityResolver interface {
	Resolve(r *http.Request) (*Resolution, error)
}

type Resolver struct {
	jwtManager JWTManagerInterface
}

func NewResolver(jwtManager JWTManagerInterface) *Resolver {
	return &Resolver{jwtManager: jwtManager}
}

func (res *Resolver) Resolve(r *http.Request) (*Resolution, error) {
	accessCookie, err := r.Cookie(accessTokenCookie)
	if err != nil || accessCookie.Value == "" {
		return nil, ErrUnauthorized
	}
	refreshCookie, err := r.Cookie(refreshTokenCookie)
	if err != nil || refreshCookie.Value == "" {
		return nil, ErrUnauthorized
	}

	access, accessErr := res.jwtManager.ParseToken(accessCookie.Value)
	if accessErr != nil && !errors.Is(accessErr, ErrExpiredJWTToken) {
		return nil, ErrUnauthorized
	}
	refresh, refreshErr := res.jwtManager.ParseToken(refreshCookie.Value)
	if refreshErr != nil && !errors.Is(refreshErr, ErrExpiredJWTToken) {
		return nil, ErrUnauthorized
	}

	if !access.complete() || !refresh.complete() {
		return nil, ErrMissingClaims
	}
	if !access.sameUser(refresh) {
		return nil, ErrMismatchedTokens
	}
	if refreshErr != nil {
		return nil, ErrSessionExpired
	}

	if accessErr == nil {
		return &Resolution{Identity: access.identity()}, nil
	}

	identity := refresh.identity()
	newAccess, err := res.jwtManager.GenerateAccessJWT(*identity)
	if err != nil {
		return nil, fmt.Errorf("could not refresh access token: %w", err)
	}
	return &Resolution{Identity: identity, RefreshedAccessToken: newAccess}, nil
}
