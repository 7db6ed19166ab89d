package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sebuszqo/ezwallet/internal/finance/domain"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (type, color, created_at)
		VALUES ($1, $2, NOW())
		RETURNING seq, created_at
	`
	err := r.db.QueryRowContext(ctx, query, category.Type, category.Color).Scan(&category.Seq, &category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.CategoryAlreadyExists(category.Type)
		}
		return fmt.Errorf("could not create category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT type, color, seq, created_at FROM categories ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("could not list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.Type, &c.Color, &c.Seq, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("could not scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) FindByType(ctx context.Context, categoryType string) (*domain.Category, error) {
	var c domain.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT type, color, seq, created_at FROM categories WHERE type = $1`, categoryType,
	).Scan(&c.Type, &c.Color, &c.Seq, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.CategoryNotFound(categoryType)
		}
		return nil, fmt.Errorf("could not find category: %w", err)
	}
	return &c, nil
}

// Rename counts the transactions of oldType and renames the category in the same database
// transaction. The foreign key cascades the new type to those transactions.
func (r *CategoryRepository) Rename(ctx context.Context, oldType, newType, color string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE type = $1`, oldType).Scan(&count); err != nil {
		return 0, fmt.Errorf("could not count transactions: %w", err)
	}

	result, err := tx.ExecContext(ctx, `UPDATE categories SET type = $2, color = $3 WHERE type = $1`, oldType, newType, color)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.CategoryAlreadyExists(newType)
		}
		return 0, fmt.Errorf("could not update category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not update category: %w", err)
	}
	if affected == 0 {
		return 0, domain.CategoryNotFound(oldType)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("could not commit category update: %w", err)
	}
	return count, nil
}

// DeleteAndReassign rewrites the transactions and deletes the categories atomically. The
// requested rows and the fallback are locked together in creation order, so crossed deletions
// wait on each other instead of deadlocking. A category removed concurrently makes the whole
// operation fail with NotFound.
func (r *CategoryRepository) DeleteAndReassign(ctx context.Context, types []string, fallback string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT type FROM categories WHERE type = ANY($1) OR type = $2 ORDER BY seq FOR UPDATE`,
		types, fallback,
	)
	if err != nil {
		return 0, fmt.Errorf("could not lock categories: %w", err)
	}
	locked := make(map[string]bool, len(types)+1)
	for rows.Next() {
		var categoryType string
		if err := rows.Scan(&categoryType); err != nil {
			rows.Close()
			return 0, fmt.Errorf("could not scan locked category: %w", err)
		}
		locked[categoryType] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("could not lock categories: %w", err)
	}
	if missing := firstMissing(locked, fallback, types); missing != "" {
		return 0, domain.CategoryNotFound(missing)
	}

	result, err := tx.ExecContext(ctx, `UPDATE transactions SET type = $1 WHERE type = ANY($2)`, fallback, types)
	if err != nil {
		return 0, fmt.Errorf("could not reassign transactions: %w", err)
	}
	rewritten, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not reassign transactions: %w", err)
	}

	result, err = tx.ExecContext(ctx, `DELETE FROM categories WHERE type = ANY($1)`, types)
	if err != nil {
		return 0, fmt.Errorf("could not delete categories: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not delete categories: %w", err)
	}
	if deleted != int64(len(types)) {
		return 0, domain.CategoryNotFound(types[0])
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("could not commit category deletion: %w", err)
	}
	return rewritten, nil
}

// firstMissing returns the fallback when it is gone, else the first requested type that is.
func firstMissing(present map[string]bool, fallback string, types []string) string {
	if !present[fallback] {
		return fallback
	}
	for _, categoryType := range types {
		if !present[categoryType] {
			return categoryType
		}
	}
	return ""
}
