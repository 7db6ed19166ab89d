package auth

import (
	"context"
	"fmt"

	"github.com/sebuszqo/ezwallet/internal/user"
)

// Tokens is the pair handed out on login.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Service interface {
	Register(ctx context.Context, username, email, password string) (*user.User, error)
	RegisterAdmin(ctx context.Context, username, email, password string) (*user.User, error)
	Login(ctx context.Context, email, password string) (*Tokens, error)
	Logout(ctx context.Context, identity *Identity) error
}

type service struct {
	userService user.Service
	jwtManager  JWTManagerInterface
}

func NewAuthService(userService user.Service, jwtManager JWTManagerInterface) Service {
	return &service{
		userService: userService,
		jwtManager:  jwtManager,
	}
}

func (s *service) Register(ctx context.Context, username, email, password string) (*user.User, error) {
	return s.userService.Register(ctx, username, email, password, user.RoleRegular)
}

func (s *service) RegisterAdmin(ctx context.Context, username, email, password string) (*user.User, error) {
	return s.userService.Register(ctx, username, email, password, user.RoleAdmin)
}

// Login checks the credentials, mints both tokens and remembers the refresh token
// on the user so that logout can revoke it.
func (s *service) Login(ctx context.Context, email, password string) (*Tokens, error) {
	existingUser, err := s.userService.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	identity := identityFromUser(existingUser)
	accessToken, err := s.jwtManager.GenerateAccessJWT(identity)
	if err != nil {
		return nil, fmt.Errorf("could not generate access token: %w", err)
	}
	refreshToken, err := s.jwtManager.GenerateRefreshJWT(identity)
	if err != nil {
		return nil, fmt.Errorf("could not generate refresh token: %w", err)
	}

	if err := s.userService.SaveRefreshToken(ctx, existingUser.ID, refreshToken); err != nil {
		return nil, err
	}
	return &Tokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *service) Logout(ctx context.Context, identity *Identity) error {
	if identity == nil {
		return ErrUnauthorized
	}
	existingUser, err := s.userService.GetUser(ctx, identity.Username)
	if err != nil {
		return err
	}
	return s.userService.SaveRefreshToken(ctx, existingUser.ID, "")
}
