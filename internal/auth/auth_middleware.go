package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/sebuszqo/ezwallet/internal/api"
	"github.com/sebuszqo/ezwallet/internal/logger"
)

// PolicyFunc builds the policy for a request, usually from its path parameters.
type PolicyFunc func(r *http.Request) Policy

func Static(policy Policy) PolicyFunc {
	return func(*http.Request) Policy { return policy }
}

// PathUser requires the caller to be the user named by the path parameter.
func PathUser(param string) PolicyFunc {
	return func(r *http.Request) Policy { return UserPolicy(r.PathValue(param)) }
}

// Guard resolves the caller for every request and enforces route policies.
type Guard struct {
	resolver IdentityResolver
	cookies  CookieSettings
}

func NewGuard(resolver IdentityResolver, cookies CookieSettings) *Guard {
	return &Guard{resolver: resolver, cookies: cookies}
}

// Require lets the request through when any of the given policies allows it.
func (g *Guard) Require(policies ...PolicyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resolution, err := g.resolver.Resolve(r)
			if err != nil {
				g.writeResolveError(w, r, err)
				return
			}

			built := make([]Policy, 0, len(policies))
			for _, policy := range policies {
				built = append(built, policy(r))
			}
			decision := AuthorizeAny(resolution.Identity, built...)
			if !decision.Allowed {
				api.Error(w, http.StatusUnauthorized, decision.Reason)
				return
			}

			ctx := WithIdentity(r.Context(), resolution.Identity)
			if resolution.RefreshedAccessToken != "" {
				g.cookies.setAccessToken(w, resolution.RefreshedAccessToken)
				ctx = api.WithRefreshedToken(ctx)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (g *Guard) writeResolveError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrMissingClaims),
		errors.Is(err, ErrMismatchedTokens),
		errors.Is(err, ErrSessionExpired):
		api.Error(w, http.StatusUnauthorized, err.Error())
	default:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("identity resolution failed")
		api.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

type CookieSettings struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (c CookieSettings) setAccessToken(w http.ResponseWriter, token string) {
	c.set(w, accessTokenCookie, token, c.AccessTTL)
}

func (c CookieSettings) setRefreshToken(w http.ResponseWriter, token string) {
	c.set(w, refreshTokenCookie, token, c.RefreshTTL)
}

func (c CookieSettings) set(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/api",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteNoneMode,
	})
}

func (c CookieSettings) clear(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/api",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.Secure,
			SameSite: http.SameSiteNoneMode,
		})
	}
}
