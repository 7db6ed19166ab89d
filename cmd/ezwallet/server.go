package main

import (
	"encoding/json"
	"net/http"

	database "github.com/sebuszqo/ezwallet/db"
	"github.com/sebuszqo/ezwallet/internal/auth"
	"github.com/sebuszqo/ezwallet/internal/finance/interfaces"
	"github.com/sebuszqo/ezwallet/internal/group"
	"github.com/sebuszqo/ezwallet/internal/user"
)

type Response struct {
	Message string `json:"message"`
}

type Server struct {
	router             *http.ServeMux
	guard              *auth.Guard
	db                 *database.DBService
	authHandler        *auth.Handler
	userHandler        *user.Handler
	groupHandler       *group.Handler
	categoryHandler    *interfaces.CategoryHandler
	transactionHandler *interfaces.TransactionHandler
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(Response{Message: "Path not found"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	health := s.db.Health(r.Context())
	status := http.StatusOK
	if health["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(health)
}

func (s *Server) RegisterRoutes() {
	var (
		simple    = auth.Static(auth.SimplePolicy())
		admin     = auth.Static(auth.AdminPolicy())
		routeUser = auth.PathUser("username")
	)
	protect := func(pattern string, handler http.HandlerFunc, policies ...auth.PolicyFunc) {
		s.router.Handle(pattern, s.guard.Require(policies...)(handler))
	}

	// Public routes
	s.router.HandleFunc("POST /api/register", s.authHandler.HandleRegister)
	s.router.HandleFunc("POST /api/admin", s.authHandler.HandleRegisterAdmin)
	s.router.HandleFunc("POST /api/login", s.authHandler.HandleLogin)
	s.router.HandleFunc("GET /api/ready", s.handleReady)

	protect("GET /api/logout", s.authHandler.HandleLogout, simple)

	// Users
	protect("GET /api/users", s.userHandler.HandleGetUsers, admin)
	protect("GET /api/users/{username}", s.userHandler.HandleGetUser, routeUser, admin)
	protect("DELETE /api/users", s.userHandler.HandleDeleteUser, admin)

	// Groups. Membership is checked by the handlers once the group is loaded.
	protect("POST /api/groups", s.groupHandler.HandleCreateGroup, simple)
	protect("GET /api/groups", s.groupHandler.HandleGetGroups, admin)
	protect("GET /api/groups/{name}", s.groupHandler.HandleGetGroup, simple)
	protect("PATCH /api/groups/{name}/add", s.groupHandler.HandleAddMembers, simple)
	protect("PATCH /api/groups/{name}/remove", s.groupHandler.HandleRemoveMembers, simple)
	protect("DELETE /api/groups", s.groupHandler.HandleDeleteGroup, admin)

	// Categories
	protect("POST /api/categories", s.categoryHandler.CreateCategory, admin)
	protect("PATCH /api/categories/{type}", s.categoryHandler.UpdateCategory, admin)
	protect("DELETE /api/categories", s.categoryHandler.DeleteCategories, admin)
	protect("GET /api/categories", s.categoryHandler.GetCategories, simple)

	// Transactions
	th := s.transactionHandler
	protect("POST /api/users/{username}/transactions", th.CreateTransaction, routeUser)
	protect("GET /api/users/{username}/transactions", th.GetUserTransactions, routeUser)
	protect("GET /api/users/{username}/transactions/category/{category}", th.GetUserTransactions, routeUser)
	protect("DELETE /api/users/{username}/transactions", th.DeleteTransaction, routeUser, admin)
	protect("GET /api/groups/{name}/transactions", th.GetGroupTransactions, simple)
	protect("GET /api/groups/{name}/transactions/category/{category}", th.GetGroupTransactions, simple)

	protect("GET /api/transactions", th.GetAllTransactions, admin)
	protect("DELETE /api/transactions", th.DeleteTransactions, admin)
	protect("GET /api/transactions/users/{username}", th.GetUserTransactions, admin)
	protect("GET /api/transactions/users/{username}/category/{category}", th.GetUserTransactions, admin)
	protect("GET /api/transactions/groups/{name}", th.GetAnyGroupTransactions, admin)
	protect("GET /api/transactions/groups/{name}/category/{category}", th.GetAnyGroupTransactions, admin)

	s.router.HandleFunc("/", notFoundHandler)
}
