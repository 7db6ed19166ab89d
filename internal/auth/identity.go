package auth

import (
	"context"

	"github.com/sebuszqo/ezwallet/internal/user"
)

// Identity is the verified caller behind a request.
type Identity struct {
	ID       string
	Username string
	Email    string
	Role     user.Role
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == user.RoleAdmin
}

func identityFromUser(u *user.User) Identity {
	return Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

type identityKey struct{}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*Identity)
	return identity, ok && identity != nil
}
