package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sebuszqo/ezwallet/internal/finance/domain"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Save(ctx context.Context, transaction *domain.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, username, type, amount, date) VALUES ($1, $2, $3, $4, $5)`,
		transaction.ID, transaction.Username, transaction.Type, transaction.Amount, transaction.Date,
	)
	if err != nil {
		return fmt.Errorf("could not save transaction: %w", err)
	}
	return nil
}

// whereClause renders the filter as SQL predicates with positional arguments.
func whereClause(filter domain.TransactionFilter) (string, []any) {
	var conditions []string
	var args []any
	add := func(condition string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.Username != "" {
		add("t.username = $%d", filter.Username)
	}
	if filter.Usernames != nil {
		add("t.username = ANY($%d)", filter.Usernames)
	}
	if filter.Category != "" {
		add("t.type = $%d", filter.Category)
	}
	if filter.From != nil {
		add("t.date >= $%d", *filter.From)
	}
	if filter.Before != nil {
		add("t.date < $%d", *filter.Before)
	}
	if filter.MinAmount != nil {
		add("t.amount >= $%d", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		add("t.amount <= $%d", *filter.MaxAmount)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *TransactionRepository) Find(ctx context.Context, filter domain.TransactionFilter) ([]domain.EnrichedTransaction, error) {
	where, args := whereClause(filter)
	query := `
		SELECT t.id, t.username, t.type, t.amount, t.date, COALESCE(c.color, '')
		FROM transactions t
		LEFT JOIN categories c ON c.type = t.type` + where + `
		ORDER BY t.date, t.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []domain.EnrichedTransaction{}
	for rows.Next() {
		var t domain.EnrichedTransaction
		if err := rows.Scan(&t.ID, &t.Username, &t.Type, &t.Amount, &t.Date, &t.Color); err != nil {
			return nil, fmt.Errorf("could not scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate transactions: %w", err)
	}
	return transactions, nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var t domain.Transaction
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, type, amount, date FROM transactions WHERE id = $1`, id,
	).Scan(&t.ID, &t.Username, &t.Type, &t.Amount, &t.Date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("could not find transaction: %w", err)
	}
	return &t, nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("could not delete transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not delete transaction: %w", err)
	}
	if affected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// DeleteMany rolls back unless every id was deleted. ids must be distinct.
func (r *TransactionRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("could not delete transactions: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not delete transactions: %w", err)
	}
	if deleted != int64(len(ids)) {
		return 0, domain.ErrTransactionNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("could not commit transaction deletion: %w", err)
	}
	return deleted, nil
}
