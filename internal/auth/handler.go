package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sebuszqo/ezwallet/internal/api"
	"github.com/sebuszqo/ezwallet/internal/logger"
	"github.com/sebuszqo/ezwallet/internal/user"
)

type Handler struct {
	authService Service
	cookies     CookieSettings
}

func NewHandler(authService Service, cookies CookieSettings) *Handler {
	return &Handler{
		authService: authService,
		cookies:     cookies,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, user.ErrMissingFields),
		errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrAlreadyRegistered),
		errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, user.ErrUserNotFound):
		api.Message(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnauthorized):
		api.Error(w, http.StatusUnauthorized, err.Error())
	default:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("auth request failed")
		api.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.authService.Register, "User added successfully")
}

func (h *Handler) HandleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.authService.RegisterAdmin, "Admin added successfully")
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, create func(ctx context.Context, username, email, password string) (*user.User, error), message string) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := create(r.Context(), req.Username, req.Email, req.Password); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	api.Data(w, r, http.StatusOK, map[string]string{"message": message})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tokens, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.cookies.setAccessToken(w, tokens.AccessToken)
	h.cookies.setRefreshToken(w, tokens.RefreshToken)
	api.Data(w, r, http.StatusOK, tokens)
}

// HandleLogout revokes the stored refresh token and clears both cookies.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, ErrUnauthorized.Error())
		return
	}

	if err := h.authService.Logout(r.Context(), identity); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.cookies.clear(w)
	api.Data(w, r, http.StatusOK, map[string]string{"message": "User logged out"})
}
