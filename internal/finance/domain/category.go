package domain

import (
	"context"
	"time"

	financeErrors "github.com/sebuszqo/ezwallet/internal/finance/errors"
)

type Category struct {
	Type      string    `json:"type"`
	Color     string    `json:"color"`
	Seq       int64     `json:"-"` // insertion order, lowest is oldest
	CreatedAt time.Time `json:"-"`
}

// MutationResult is returned by category updates and deletions.
type MutationResult struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	FindAll(ctx context.Context) ([]Category, error)
	FindByType(ctx context.Context, categoryType string) (*Category, error)
	// Rename changes type and color in place and returns how many transactions referenced the old type.
	Rename(ctx context.Context, oldType, newType, color string) (int64, error)
	// DeleteAndReassign moves every transaction of the given types to fallback, then deletes the types.
	DeleteAndReassign(ctx context.Context, types []string, fallback string) (int64, error)
}

var (
	ErrCategoryFieldsMissing = financeErrors.NewValidationError("Category type and color must be non-empty")
	ErrNoCategoriesGiven     = financeErrors.NewValidationError("At least one category type must be provided")
	ErrEmptyCategoryType     = financeErrors.NewValidationError("Category types cannot be empty strings")
	ErrLastCategory          = financeErrors.NewValidationError("Cannot delete the last category")
)

func CategoryNotFound(categoryType string) error {
	return financeErrors.NewNotFoundErrorf("Category %s does not exist", categoryType)
}

func CategoryAlreadyExists(categoryType string) error {
	return financeErrors.NewConflictError("Category " + categoryType + " already exists")
}

// DeletionPlan is the outcome of validating a category deletion request.
type DeletionPlan struct {
	Delete   []string
	Fallback string
}

// PlanCategoryDeletion validates the requested types against every existing category and picks
// the fallback for reassigned transactions. The fallback is the oldest category outside the
// request; when the request covers every category, the oldest one is kept and used instead.
// categories must be ordered oldest first.
func PlanCategoryDeletion(categories []Category, requested []string) (*DeletionPlan, error) {
	if len(requested) == 0 {
		return nil, ErrNoCategoriesGiven
	}
	for _, t := range requested {
		if t == "" {
			return nil, ErrEmptyCategoryType
		}
	}
	if len(categories) <= 1 {
		return nil, ErrLastCategory
	}

	existing := make(map[string]bool, len(categories))
	for _, c := range categories {
		existing[c.Type] = true
	}

	toDelete := make(map[string]bool, len(requested))
	ordered := make([]string, 0, len(requested))
	for _, t := range requested {
		if !existing[t] {
			return nil, CategoryNotFound(t)
		}
		if !toDelete[t] {
			toDelete[t] = true
			ordered = append(ordered, t)
		}
	}

	for _, c := range categories {
		if !toDelete[c.Type] {
			return &DeletionPlan{Delete: ordered, Fallback: c.Type}, nil
		}
	}

	oldest := categories[0].Type
	kept := make([]string, 0, len(ordered)-1)
	for _, t := range ordered {
		if t != oldest {
			kept = append(kept, t)
		}
	}
	return &DeletionPlan{Delete: kept, Fallback: oldest}, nil
}
