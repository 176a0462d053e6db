package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/portalberita/apiserver/internal/slug"
	"github.com/portalberita/apiserver/internal/store"
	"github.com/portalberita/apiserver/types"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	ListWithCounts(ctx context.Context) ([]types.Category, error)
	GetByID(ctx context.Context, id string) (types.Category, error)
	GetBySlug(ctx context.Context, slug string) (types.Category, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, category types.Category) (types.Category, error)
	Update(ctx context.Context, category types.Category) (types.Category, error)
	DeleteIfEmpty(ctx context.Context, id string) (int, error)
}

// CategoryService encapsulates category use-cases. Route-level middleware
// restricts all mutations to admins.
type CategoryService struct {
	repo CategoryRepository
}

func NewCategoryService(repo CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// List returns every category annotated with its published-article count.
func (s *CategoryService) List(ctx context.Context) ([]types.Category, error) {
	return s.repo.ListWithCounts(ctx)
}

// GetBySlug returns the category with its published articles, newest first.
func (s *CategoryService) GetBySlug(ctx context.Context, categorySlug string) (types.Category, error) {
	return s.repo.GetBySlug(ctx, categorySlug)
}

// Create persists a new category. The slug is derived from the name; a
// pre-existing slug is rejected with a conflict before the insert is tried.
func (s *CategoryService) Create(ctx context.Context, name string, description *string) (types.Category, error) {
	categorySlug := slug.Generate(name)
	exists, err := s.repo.SlugExists(ctx, categorySlug, "")
	if err != nil {
		return types.Category{}, err
	}
	if exists {
		return types.Category{}, store.ErrConflict
	}

	return s.repo.Create(ctx, types.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        categorySlug,
		Description: description,
	})
}

// CategoryUpdateInput carries the fields accepted on category update.
// Name uses the empty value for "not provided". Description patches on key
// presence: nil keeps the stored value, a non-nil pointer overwrites it,
// including with an explicit empty string.
type CategoryUpdateInput struct {
	Name        string
	Description *string
}

// Update patches a category. The slug is recomputed only when the name
// actually changes.
func (s *CategoryService) Update(ctx context.Context, id string, input CategoryUpdateInput) (types.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Category{}, err
	}

	if input.Name != "" && input.Name != category.Name {
		newSlug := slug.Generate(input.Name)
		exists, err := s.repo.SlugExists(ctx, newSlug, category.ID)
		if err != nil {
			return types.Category{}, err
		}
		if exists {
			return types.Category{}, store.ErrConflict
		}
		category.Name = input.Name
		category.Slug = newSlug
	}
	if input.Description != nil {
		category.Description = input.Description
	}

	return s.repo.Update(ctx, category)
}

// Delete removes a category unless it still has articles. On conflict the
// returned count reports how many articles block the delete.
func (s *CategoryService) Delete(ctx context.Context, id string) (int, error) {
	return s.repo.DeleteIfEmpty(ctx, id)
}
