package application

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/ezwallet/internal/events"
	"github.com/sebuszqo/ezwallet/internal/finance/domain"
)

type CategoryServiceInterface interface {
	CategoryExists(ctx context.Context, categoryType string) (bool, error)
}

// UserDirectory resolves users for ownership checks and group listings.
type UserDirectory interface {
	UserExists(ctx context.Context, username string) (bool, error)
	UsernamesByEmails(ctx context.Context, emails []string) ([]string, error)
}

type GroupDirectory interface {
	GroupMemberEmails(ctx context.Context, name string) ([]string, bool, error)
}

// CreateTransactionRequest is the body of a transaction creation. Amount may be sent as a
// JSON number or as a numeric string.
type CreateTransactionRequest struct {
	Username string      `json:"username"`
	Type     string      `json:"type"`
	Amount   interface{} `json:"amount"`
	Date     string      `json:"date,omitempty"`
}

type TransactionService struct {
	repo            domain.TransactionRepository
	categoryService CategoryServiceInterface
	users           UserDirectory
	groups          GroupDirectory
	publisher       events.Publisher
	now             func() time.Time
}

func NewTransactionService(
	repo domain.TransactionRepository,
	categoryService CategoryServiceInterface,
	users UserDirectory,
	groups GroupDirectory,
	publisher events.Publisher,
) *TransactionService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &TransactionService{
		repo:            repo,
		categoryService: categoryService,
		users:           users,
		groups:          groups,
		publisher:       publisher,
		now:             time.Now,
	}
}

func parseAmount(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, domain.ErrTransactionFieldsMissing
	case float64:
		if !domain.IsFiniteAmount(v) {
			return 0, domain.ErrInvalidAmount
		}
		return v, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, domain.ErrTransactionFieldsMissing
		}
		amount, err := domain.ParseAmount(v)
		if err != nil {
			return 0, domain.ErrInvalidAmount
		}
		return amount, nil
	default:
		return 0, domain.ErrInvalidAmount
	}
}

func (s *TransactionService) CreateTransaction(ctx context.Context, routeUsername string, req CreateTransactionRequest) (*domain.Transaction, error) {
	username := strings.TrimSpace(req.Username)
	categoryType := strings.TrimSpace(req.Type)
	if username == "" || categoryType == "" {
		return nil, domain.ErrTransactionFieldsMissing
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if username != routeUsername {
		return nil, domain.ErrUsernameMismatch
	}

	date := s.now().UTC()
	if req.Date != "" {
		if date, err = domain.ParseTransactionDate(req.Date); err != nil {
			return nil, err
		}
	}

	if err := s.ensureUser(ctx, username); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, categoryType); err != nil {
		return nil, err
	}

	transaction := &domain.Transaction{
		ID:       uuid.NewString(),
		Username: username,
		Type:     categoryType,
		Amount:   amount,
		Date:     date,
	}
	if err := s.repo.Save(ctx, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *TransactionService) ensureUser(ctx context.Context, username string) error {
	exists, err := s.users.UserExists(ctx, username)
	if err != nil {
		return err
	}
	if !exists {
		return domain.UserNotFound(username)
	}
	return nil
}

func (s *TransactionService) ensureCategory(ctx context.Context, categoryType string) error {
	exists, err := s.categoryService.CategoryExists(ctx, categoryType)
	if err != nil {
		return err
	}
	if !exists {
		return domain.CategoryNotFound(categoryType)
	}
	return nil
}

// GetAllTransactions lists every transaction, narrowed by the query filters.
func (s *TransactionService) GetAllTransactions(ctx context.Context, query url.Values) ([]domain.EnrichedTransaction, error) {
	filter, err := domain.ParseTransactionFilter(query)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, filter)
}

// GetUserTransactions lists the transactions of one user. An empty category lists all of them.
func (s *TransactionService) GetUserTransactions(ctx context.Context, username, category string, query url.Values) ([]domain.EnrichedTransaction, error) {
	if err := s.ensureUser(ctx, username); err != nil {
		return nil, err
	}
	if category != "" {
		if err := s.ensureCategory(ctx, category); err != nil {
			return nil, err
		}
	}

	filter, err := domain.ParseTransactionFilter(query)
	if err != nil {
		return nil, err
	}
	filter.Username = username
	filter.Category = category
	return s.find(ctx, filter)
}

// GroupMemberEmails returns the emails a caller is checked against before reading group transactions.
func (s *TransactionService) GroupMemberEmails(ctx context.Context, name string) ([]string, error) {
	emails, found, err := s.groups.GroupMemberEmails(ctx, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.GroupNotFound(name)
	}
	return emails, nil
}

// GetMembersTransactions lists the transactions of the users owning the given emails.
func (s *TransactionService) GetMembersTransactions(ctx context.Context, memberEmails []string, category string, query url.Values) ([]domain.EnrichedTransaction, error) {
	if category != "" {
		if err := s.ensureCategory(ctx, category); err != nil {
			return nil, err
		}
	}

	filter, err := domain.ParseTransactionFilter(query)
	if err != nil {
		return nil, err
	}

	usernames, err := s.users.UsernamesByEmails(ctx, memberEmails)
	if err != nil {
		return nil, err
	}
	filter.Usernames = usernames
	if filter.Usernames == nil {
		filter.Usernames = []string{}
	}
	filter.Category = category
	return s.find(ctx, filter)
}

func (s *TransactionService) find(ctx context.Context, filter domain.TransactionFilter) ([]domain.EnrichedTransaction, error) {
	if filter.Usernames != nil && len(filter.Usernames) == 0 {
		return []domain.EnrichedTransaction{}, nil
	}
	transactions, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		return []domain.EnrichedTransaction{}, nil
	}
	return transactions, nil
}

// DeleteTransaction removes one transaction of username. The id must belong to that user.
func (s *TransactionService) DeleteTransaction(ctx context.Context, username, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrEmptyTransactionID
	}
	if err := s.ensureUser(ctx, username); err != nil {
		return err
	}

	transaction, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if transaction.Username != username {
		return domain.ErrTransactionNotOwned
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	publishEvent(ctx, s.publisher, events.NewEvent(events.TransactionsDeleted, events.TransactionsDeletedPayload{IDs: []string{id}}))
	return nil
}

// DeleteTransactions removes every id or none. Empty ids are reported before unknown ones.
func (s *TransactionService) DeleteTransactions(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, domain.ErrNoTransactionIDs
	}

	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return 0, domain.ErrEmptyTransactionID
		}
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	count, err := s.repo.DeleteMany(ctx, unique)
	if err != nil {
		return 0, err
	}
	publishEvent(ctx, s.publisher, events.NewEvent(events.TransactionsDeleted, events.TransactionsDeletedPayload{IDs: unique}))
	return count, nil
}
