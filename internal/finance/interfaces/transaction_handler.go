package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/sebuszqo/ezwallet/internal/auth"
	"github.com/sebuszqo/ezwallet/internal/finance/application"
	"github.com/sebuszqo/ezwallet/internal/finance/domain"
)

type TransactionServiceInterface interface {
	CreateTransaction(ctx context.Context, routeUsername string, req application.CreateTransactionRequest) (*domain.Transaction, error)
	GetAllTransactions(ctx context.Context, query url.Values) ([]domain.EnrichedTransaction, error)
	GetUserTransactions(ctx context.Context, username, category string, query url.Values) ([]domain.EnrichedTransaction, error)
	GroupMemberEmails(ctx context.Context, name string) ([]string, error)
	GetMembersTransactions(ctx context.Context, memberEmails []string, category string, query url.Values) ([]domain.EnrichedTransaction, error)
	DeleteTransaction(ctx context.Context, username, id string) error
	DeleteTransactions(ctx context.Context, ids []string) (int64, error)
}

type TransactionHandler struct {
	service TransactionServiceInterface
	respond Responders
}

func NewTransactionHandler(service TransactionServiceInterface, respond Responders) *TransactionHandler {
	if service == nil || !respond.valid() {
		panic("Service and response functions must not be nil")
	}
	return &TransactionHandler{
		service: service,
		respond: respond,
	}
}

func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req application.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	transaction, err := h.service.CreateTransaction(r.Context(), r.PathValue("username"), req)
	if err != nil {
		h.respond.serviceError(w, r, err)
		return
	}
	h.respond.Data(w, r, http.StatusOK, transaction)
}

func (h *TransactionHandler) GetAllTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.service.GetAllTransactions(r.Context(), r.URL.Query())
	if err != nil {
		h.respond.serviceError(w, r, err)
		return
	}
	h.respond.Data(w, r, http.StatusOK, transactions)
}

// GetUserTransactions serves both the user and the admin routes, with or without a
// {category} path segment.
func (h *TransactionHandler) GetUserTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.service.GetUserTransactions(r.Context(), r.PathValue("username"), r.PathValue("category"), r.URL.Query())
	if err != nil {
		h.respond.serviceError(w, r, err)
		return
	}
	h.respond.Data(w, r, http.StatusOK, transactions)
}

// GetGroupTransactions is the member route: the caller's email must be one of the group's.
func (h *TransactionHandler) GetGroupTransactions(w http.ResponseWriter, r *http.Request) {
	h.groupTransactions(w, r, true)
}

// GetAnyGroupTransactions is the admin route; the guard has already checked the role.
func (h *TransactionHandler) GetAnyGroupTransactions(w http.ResponseWriter, r *http.Request) {
	h.groupTransactions(w, r, false)
}

func (h *TransactionHandler) groupTransactions(w http.ResponseWriter, r *http.Request, membersOnly bool) {
	emails, err := h.service.GroupMemberEmails(r.Context(), r.PathValue("name"))
	if err != nil {
		h.respond.serviceError(w, r, err)
		return
	}

	if membersOnly {
		identity, _ := auth.IdentityFromContext(r.Context())
		if decision := auth.Authorize(identity, auth.GroupPolicy(emails)); !decision.Allowed {
			h.respond.Error(w, http.StatusUnauthorized, decision.Reason)
			return
		}
	}

	transactions, err := h.service.GetMembersTransactions(r.Context(), emails, r.PathValue("category"), r.URL.Query())
	if err != nil {
		h.respond.serviceError(w, r, err)
		return
	}
	h.respond.Data(w, r, http.StatusOK, transactions)
}

func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.DeleteTransaction(r.Context(), r.PathValue("username"), req.ID); err != nil {
		h.respond.serviceError(w, r, err)
		return
	}
	h.respond.Data(w, r, http.StatusOK, map[string]string{"message": "Transaction deleted"})
}

func (h *TransactionHandler) DeleteTransactions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	count, err := h.service.DeleteTransactions(r.Context(), req.IDs)
	if err != nil {
		h.respond.serviceError(w, r, err)
		return
	}
	h.respond.Data(w, r, http.StatusOK, domain.MutationResult{Message: "Transactions deleted", Count: count})
}
