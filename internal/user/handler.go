package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sebuszqo/ezwallet/internal/api"
	"github.com/sebuszqo/ezwallet/internal/logger"
)

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{
		userService: userService,
	}
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrCannotDeleteAdmin):
		api.Message(w, http.StatusBadRequest, err.Error())
	default:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("user request failed")
		api.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// HandleGetUsers lists every registered user.
func (h *Handler) HandleGetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.GetUsers(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	api.Data(w, r, http.StatusOK, users)
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), r.PathValue("username"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	api.Data(w, r, http.StatusOK, user)
}

func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.userService.DeleteUser(r.Context(), req.Email)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	api.Data(w, r, http.StatusOK, result)
}
