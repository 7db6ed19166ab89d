package interfaces

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sebuszqo/ezwallet/internal/finance/domain"
)

type CategoryServiceInterface interface {
	CreateCategory(ctx context.Context, categoryType, color string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, oldType, newType, color string) (*domain.MutationResult, error)
	DeleteCategories(ctx context.Context, types []string) (*domain.MutationResult, error)
	GetCategories(ctx context.Context) ([]domain.Category, error)
}

type CategoryHandler struct {
	service CategoryServiceInterface
	respond Responders
}

func NewCategoryHandler(service CategoryServiceInterface, respond Responders) *CategoryHandler {
	if service == nil || !respond.valid() {
		panic("Service and response functions must not be nil")
	}
	return &CategoryHandler{
		service: service,
		respond: respond,
	}
}

type categoryRequest struct {
	Type  string `json:"type"`
	Color string `json:"color"`
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := h.service.CreateCategory(r.Context(), req.Type, req.Color)
	if err != nil {
		h.respond.serviceError(w, r, err)
		return
	}
	h.respond.Data(w, r, http.StatusOK, category)
}

// UpdateCategory renames the category in the path to the type in the body.
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.UpdateCategory(r.Context(), r.PathValue("type"), req.Type, req.Color)
	if err != nil {
		h.respond.serviceError(w, r, err)
		return
	}
	h.respond.Data(w, r, http.StatusOK, result)
}

func (h *CategoryHandler) DeleteCategories(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Types []string `json:"types"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.DeleteCategories(r.Context(), req.Types)
	if err != nil {
		h.respond.serviceError(w, r, err)
		return
	}
	h.respond.Data(w, r, http.StatusOK, result)
}

func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.GetCategories(r.Context())
	if err != nil {
		h.respond.serviceError(w, r, err)
		return
	}
	h.respond.Data(w, r, http.StatusOK, categories)
}
