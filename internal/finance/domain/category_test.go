package domain

import (
	"testing"

	financeErrors "github.com/sebuszqo/ezwallet/internal/finance/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func categories(types ...string) []Category {
	out := make([]Category, 0, len(types))
	for i, t := range types {
		out = append(out, Category{Type: t, Color: "color-" + t, Seq: int64(i + 1)})
	}
	return out
}

func TestPlanCategoryDeletion(t *testing.T) {
	tests := []struct {
		name      string
		existing  []Category
		requested []string
		delete    []string
		fallback  string
	}{
		{
			name:      "subset uses oldest survivor",
			existing:  categories("health", "food", "cars"),
			requested: []string{"food"},
			delete:    []string{"food"},
			fallback:  "health",
		},
		{
			name:      "oldest deleted falls back to next oldest",
			existing:  categories("health", "food", "cars"),
			requested: []string{"health", "cars"},
			delete:    []string{"health", "cars"},
			fallback:  "food",
		},
		{
			name:      "all categories keeps the oldest",
			existing:  categories("health", "food", "cars"),
			requested: []string{"cars", "food", "health"},
			delete:    []string{"cars", "food"},
			fallback:  "health",
		},
		{
			name:      "duplicates collapse",
			existing:  categories("health", "food"),
			requested: []string{"food", "food"},
			delete:    []string{"food"},
			fallback:  "health",
		},
		{
			name:      "creation order beats alphabetical order",
			existing:  categories("zoo", "apple", "mango"),
			requested: []string{"mango"},
			delete:    []string{"mango"},
			fallback:  "zoo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanCategoryDeletion(tt.existing, tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.delete, plan.Delete)
			assert.Equal(t, tt.fallback, plan.Fallback)
		})
	}
}

func TestPlanCategoryDeletion_Errors(t *testing.T) {
	_, err := PlanCategoryDeletion(categories("health", "food"), nil)
	assert.ErrorIs(t, err, ErrNoCategoriesGiven)

	_, err = PlanCategoryDeletion(categories("health", "food"), []string{"food", ""})
	assert.ErrorIs(t, err, ErrEmptyCategoryType)

	_, err = PlanCategoryDeletion(categories("health"), []string{"health"})
	assert.ErrorIs(t, err, ErrLastCategory)

	_, err = PlanCategoryDeletion(categories("health"), []string{"unknown"})
	assert.ErrorIs(t, err, ErrLastCategory)

	_, err = PlanCategoryDeletion(categories("health", "food"), []string{"food", "travel"})
	assert.True(t, financeErrors.IsNotFoundError(err))
	assert.Equal(t, "Category travel does not exist", err.Error())
}
