package interfaces

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sebuszqo/ezwallet/internal/auth"
	"github.com/sebuszqo/ezwallet/internal/finance/domain"
	"github.com/sebuszqo/ezwallet/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	mario = &auth.Identity{Username: "mario", Email: "mario.red@email.com", Role: user.RoleRegular}
	peach = &auth.Identity{Username: "peach", Email: "peach@email.com", Role: user.RoleRegular}
)

func asIdentity(req *http.Request, identity *auth.Identity) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), identity))
}

func familyService() *MockTransactionService {
	return &MockTransactionService{
		groups: map[string][]string{"family": {"mario.red@email.com", "luigi.green@email.com"}},
		transactions: []domain.EnrichedTransaction{{
			Transaction: domain.Transaction{ID: "t1", Username: "mario", Type: "food", Amount: -12.5, Date: time.Date(2023, 4, 30, 0, 0, 0, 0, time.UTC)},
			Color:       "red",
		}},
	}
}

func TestCreateTransaction(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{}, testResponders())

	body := `{"username":"mario","type":"food","amount":-12.5}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/mario/transactions", strings.NewReader(body))
	w := serve("POST /api/users/{username}/transactions", handler.CreateTransaction, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Data domain.Transaction `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "t1", response.Data.ID)
	assert.Equal(t, -12.5, response.Data.Amount)
}

func TestCreateTransaction_UsernameMismatch(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{}, testResponders())

	body := `{"username":"luigi","type":"food","amount":10}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/mario/transactions", strings.NewReader(body))
	w := serve("POST /api/users/{username}/transactions", handler.CreateTransaction, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"The username in the body does not match the one in the route"}`, w.Body.String())
}

func TestGetAllTransactions_PassesQuery(t *testing.T) {
	service := familyService()
	handler := NewTransactionHandler(service, testResponders())

	req := httptest.NewRequest(http.MethodGet, "/api/transactions?min=-20&max=0", nil)
	w := serve("GET /api/transactions", handler.GetAllTransactions, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "-20", service.lastQuery.Get("min"))
	assert.Contains(t, w.Body.String(), `"color":"red"`)
	assert.Contains(t, w.Body.String(), `"_id":"t1"`)
}

func TestGetUserTransactions_WithAndWithoutCategory(t *testing.T) {
	service := familyService()
	handler := NewTransactionHandler(service, testResponders())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/{username}/transactions", handler.GetUserTransactions)
	mux.HandleFunc("GET /api/users/{username}/transactions/category/{category}", handler.GetUserTransactions)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/mario/transactions?date=2023-04-30", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mario", service.lastUsername)
	assert.Empty(t, service.lastCategory)
	assert.Equal(t, "2023-04-30", service.lastQuery.Get("date"))

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/mario/transactions/category/food", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "food", service.lastCategory)
}

func TestGetUserTransactions_ClientError(t *testing.T) {
	service := &MockTransactionService{err: domain.UserNotFound("bowser")}
	handler := NewTransactionHandler(service, testResponders())

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/users/bowser", nil)
	w := serve("GET /api/transactions/users/{username}", handler.GetUserTransactions, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"User bowser does not exist"}`, w.Body.String())
}

func TestGetGroupTransactions_Member(t *testing.T) {
	service := familyService()
	handler := NewTransactionHandler(service, testResponders())

	req := asIdentity(httptest.NewRequest(http.MethodGet, "/api/groups/family/transactions/category/food", nil), mario)
	w := serve("GET /api/groups/{name}/transactions/category/{category}", handler.GetGroupTransactions, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"mario.red@email.com", "luigi.green@email.com"}, service.lastEmails)
	assert.Equal(t, "food", service.lastCategory)
}

func TestGetGroupTransactions_Outsider(t *testing.T) {
	service := familyService()
	handler := NewTransactionHandler(service, testResponders())

	req := asIdentity(httptest.NewRequest(http.MethodGet, "/api/groups/family/transactions", nil), peach)
	w := serve("GET /api/groups/{name}/transactions", handler.GetGroupTransactions, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Email is not included in the group emails"}`, w.Body.String())
	assert.Nil(t, service.lastEmails)
}

func TestGetGroupTransactions_UnknownGroup(t *testing.T) {
	handler := NewTransactionHandler(familyService(), testResponders())

	req := asIdentity(httptest.NewRequest(http.MethodGet, "/api/groups/strangers/transactions", nil), mario)
	w := serve("GET /api/groups/{name}/transactions", handler.GetGroupTransactions, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Group strangers does not exist"}`, w.Body.String())
}

func TestGetAnyGroupTransactions_SkipsMembership(t *testing.T) {
	service := familyService()
	handler := NewTransactionHandler(service, testResponders())

	admin := &auth.Identity{Username: "admin", Email: "admin@email.com", Role: user.RoleAdmin}
	req := asIdentity(httptest.NewRequest(http.MethodGet, "/api/transactions/groups/family", nil), admin)
	w := serve("GET /api/transactions/groups/{name}", handler.GetAnyGroupTransactions, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, service.lastEmails, 2)
}

func TestDeleteTransaction(t *testing.T) {
	service := &MockTransactionService{}
	handler := NewTransactionHandler(service, testResponders())

	req := httptest.NewRequest(http.MethodDelete, "/api/users/mario/transactions", strings.NewReader(`{"_id":"t1"}`))
	w := serve("DELETE /api/users/{username}/transactions", handler.DeleteTransaction, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mario", service.lastUsername)
	assert.Equal(t, []string{"t1"}, service.deletedIDs)
	assert.JSONEq(t, `{"data":{"message":"Transaction deleted"}}`, w.Body.String())
}

func TestDeleteTransaction_EmptyID(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{}, testResponders())

	req := httptest.NewRequest(http.MethodDelete, "/api/users/mario/transactions", strings.NewReader(`{}`))
	w := serve("DELETE /api/users/{username}/transactions", handler.DeleteTransaction, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Transaction id field cannot be empty"}`, w.Body.String())
}

func TestDeleteTransactions(t *testing.T) {
	service := &MockTransactionService{}
	handler := NewTransactionHandler(service, testResponders())

	req := httptest.NewRequest(http.MethodDelete, "/api/transactions", strings.NewReader(`{"_ids":["t1","t2"]}`))
	w := serve("DELETE /api/transactions", handler.DeleteTransactions, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"message":"Transactions deleted","count":2}}`, w.Body.String())
}

func TestDeleteTransactions_UnknownID(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{err: domain.ErrTransactionNotFound}, testResponders())

	req := httptest.NewRequest(http.MethodDelete, "/api/transactions", strings.NewReader(`{"_ids":["t1","nope"]}`))
	w := serve("DELETE /api/transactions", handler.DeleteTransactions, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Transaction id does not exist"}`, w.Body.String())
}
