package application

import (
	"context"
	"strings"

	"github.com/sebuszqo/ezwallet/internal/events"
	"github.com/sebuszqo/ezwallet/internal/finance/domain"
	financeErrors "github.com/sebuszqo/ezwallet/internal/finance/errors"
	"github.com/sebuszqo/ezwallet/internal/logger"
)

type CategoryService struct {
	repo      domain.CategoryRepository
	publisher events.Publisher
}

func NewCategoryService(repo domain.CategoryRepository, publisher events.Publisher) *CategoryService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &CategoryService{repo: repo, publisher: publisher}
}

func (s *CategoryService) CreateCategory(ctx context.Context, categoryType, color string) (*domain.Category, error) {
	categoryType = strings.TrimSpace(categoryType)
	color = strings.TrimSpace(color)
	if categoryType == "" || color == "" {
		return nil, domain.ErrCategoryFieldsMissing
	}

	category := &domain.Category{Type: categoryType, Color: color}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory renames and recolors oldType. Transactions follow the rename through the
// foreign key, the returned count is how many of them referenced oldType.
func (s *CategoryService) UpdateCategory(ctx context.Context, oldType, newType, color string) (*domain.MutationResult, error) {
	newType = strings.TrimSpace(newType)
	color = strings.TrimSpace(color)
	if oldType == "" || newType == "" || color == "" {
		return nil, domain.ErrCategoryFieldsMissing
	}

	if _, err := s.repo.FindByType(ctx, oldType); err != nil {
		return nil, err
	}
	if newType != oldType {
		_, err := s.repo.FindByType(ctx, newType)
		if err == nil {
			return nil, domain.CategoryAlreadyExists(newType)
		}
		if !financeErrors.IsNotFoundError(err) {
			return nil, err
		}
	}

	count, err := s.repo.Rename(ctx, oldType, newType, color)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.CategoryUpdated, events.CategoryUpdatedPayload{
		OldType: oldType,
		NewType: newType,
		Color:   color,
		Count:   count,
	}))
	return &domain.MutationResult{Message: "Category edited successfully", Count: count}, nil
}

// DeleteCategories validates the request against the current categories, then rewrites the
// affected transactions to the fallback and deletes the categories in one database transaction.
func (s *CategoryService) DeleteCategories(ctx context.Context, types []string) (*domain.MutationResult, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	plan, err := domain.PlanCategoryDeletion(all, types)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.DeleteAndReassign(ctx, plan.Delete, plan.Fallback)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.CategoriesDeleted, events.CategoriesDeletedPayload{
		Types:    plan.Delete,
		Fallback: plan.Fallback,
		Count:    count,
	}))
	return &domain.MutationResult{Message: "Categories deleted", Count: count}, nil
}

func (s *CategoryService) GetCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		return []domain.Category{}, nil
	}
	return categories, nil
}

func (s *CategoryService) CategoryExists(ctx context.Context, categoryType string) (bool, error) {
	_, err := s.repo.FindByType(ctx, categoryType)
	if err != nil {
		if financeErrors.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// publish never fails the request, the change is already committed.
func (s *CategoryService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.publisher, event)
}

func publishEvent(ctx context.Context, publisher events.Publisher, event events.Event) {
	if err := publisher.Publish(ctx, event); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("event", event.Name).Msg("could not publish event")
	}
}
