package interfaces

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/sebuszqo/ezwallet/internal/api"
	"github.com/sebuszqo/ezwallet/internal/finance/application"
	"github.com/sebuszqo/ezwallet/internal/finance/domain"
)

var errStoreDown = errors.New("store down")

func testResponders() Responders {
	return Responders{Data: api.Data, Message: api.Message, Error: api.Error}
}

type MockCategoryService struct {
	categories []domain.Category
	err        error

	updatedFrom string
	deleted     []string
}

func (m *MockCategoryService) CreateCategory(_ context.Context, categoryType, color string) (*domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	if categoryType == "" || color == "" {
		return nil, domain.ErrCategoryFieldsMissing
	}
	return &domain.Category{Type: categoryType, Color: color}, nil
}

func (m *MockCategoryService) UpdateCategory(_ context.Context, oldType, newType, color string) (*domain.MutationResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.updatedFrom = oldType
	return &domain.MutationResult{Message: "Category edited successfully", Count: 2}, nil
}

func (m *MockCategoryService) DeleteCategories(_ context.Context, types []string) (*domain.MutationResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.deleted = types
	return &domain.MutationResult{Message: "Categories deleted", Count: 3}, nil
}

func (m *MockCategoryService) GetCategories(_ context.Context) ([]domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.categories, nil
}

type MockTransactionService struct {
	transactions []domain.EnrichedTransaction
	groups       map[string][]string
	err          error

	lastUsername string
	lastCategory string
	lastQuery    url.Values
	lastEmails   []string
	deletedIDs   []string
}

func (m *MockTransactionService) CreateTransaction(_ context.Context, routeUsername string, req application.CreateTransactionRequest) (*domain.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	if routeUsername != req.Username {
		return nil, domain.ErrUsernameMismatch
	}
	amount, _ := req.Amount.(float64)
	return &domain.Transaction{ID: "t1", Username: req.Username, Type: req.Type, Amount: amount}, nil
}

func (m *MockTransactionService) GetAllTransactions(_ context.Context, query url.Values) ([]domain.EnrichedTransaction, error) {
	m.lastQuery = query
	return m.transactions, m.err
}

func (m *MockTransactionService) GetUserTransactions(_ context.Context, username, category string, query url.Values) ([]domain.EnrichedTransaction, error) {
	m.lastUsername, m.lastCategory, m.lastQuery = username, category, query
	return m.transactions, m.err
}

func (m *MockTransactionService) GroupMemberEmails(_ context.Context, name string) ([]string, error) {
	emails, ok := m.groups[name]
	if !ok {
		return nil, domain.GroupNotFound(name)
	}
	return emails, nil
}

func (m *MockTransactionService) GetMembersTransactions(_ context.Context, memberEmails []string, category string, query url.Values) ([]domain.EnrichedTransaction, error) {
	m.lastEmails, m.lastCategory, m.lastQuery = memberEmails, category, query
	return m.transactions, m.err
}

func (m *MockTransactionService) DeleteTransaction(_ context.Context, username, id string) error {
	if id == "" {
		return domain.ErrEmptyTransactionID
	}
	m.lastUsername = username
	m.deletedIDs = []string{id}
	return m.err
}

func (m *MockTransactionService) DeleteTransactions(_ context.Context, ids []string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.deletedIDs = ids
	return int64(len(ids)), nil
}

func serve(pattern string, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}
