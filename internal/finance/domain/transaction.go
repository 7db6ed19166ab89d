package domain

import (
	"context"
	"time"

	financeErrors "github.com/sebuszqo/ezwallet/internal/finance/errors"
)

type Transaction struct {
	ID       string    `json:"_id"`
	Username string    `json:"username"`
	Type     string    `json:"type"`
	Amount   float64   `json:"amount"`
	Date     time.Time `json:"date"`
}

// EnrichedTransaction carries the color of the transaction's category, empty when the category is gone.
type EnrichedTransaction struct {
	Transaction
	Color string `json:"color"`
}

type TransactionRepository interface {
	Save(ctx context.Context, transaction *Transaction) error
	Find(ctx context.Context, filter TransactionFilter) ([]EnrichedTransaction, error)
	FindByID(ctx context.Context, id string) (*Transaction, error)
	Delete(ctx context.Context, id string) error
	// DeleteMany removes all ids or none of them.
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

var (
	ErrTransactionFieldsMissing = financeErrors.NewValidationError("All the fields must be present and not empty")
	ErrInvalidAmount            = financeErrors.NewValidationError("Amount must be a number")
	ErrInvalidDate              = financeErrors.NewValidationError("Date must be an ISO date")
	ErrUsernameMismatch         = financeErrors.NewValidationError("The username in the body does not match the one in the route")
	ErrEmptyTransactionID       = financeErrors.NewValidationError("Transaction id field cannot be empty")
	ErrNoTransactionIDs         = financeErrors.NewValidationError("At least one transaction id must be provided")
	ErrTransactionNotOwned      = financeErrors.NewValidationError("The transaction does not belong to the requested user")
	ErrTransactionNotFound      = financeErrors.NewNotFoundError("Transaction id does not exist")
)

func UserNotFound(username string) error {
	return financeErrors.NewNotFoundErrorf("User %s does not exist", username)
}

func GroupNotFound(name string) error {
	return financeErrors.NewNotFoundErrorf("Group %s does not exist", name)
}
