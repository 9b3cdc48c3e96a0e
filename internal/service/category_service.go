package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vporoshok/taskping/internal/domain"
	"github.com/vporoshok/taskping/internal/keygen"
	"github.com/vporoshok/taskping/internal/store"
)

// PresetCategories are the global categories every installation carries.
// Seeded on startup; never owned by a user.
var PresetCategories = []string{
	"Дом",
	"Работа",
	"Личное",
	"Здоровье",
}

// CategoryService provides category CRUD scoped to the requesting user.
// Global presets are visible to everyone but immutable through this API.
type CategoryService interface {
	// CreateCategory creates a category owned by the given user. The slug
	// is derived from the name.
	CreateCategory(ctx context.Context, ownerID, name string) (*domain.Category, error)

	// ListCategories returns the global presets plus the user's own.
	// An empty ownerID lists only the presets.
	ListCategories(ctx context.Context, ownerID string) ([]*domain.Category, error)

	// UpdateCategory renames a category, enforcing ownership.
	// Returns ErrPresetImmutable for global presets.
	UpdateCategory(ctx context.Context, ownerID, categoryID, name string) (*domain.Category, error)

	// DeleteCategory removes a category, enforcing ownership.
	// Returns ErrPresetImmutable for global presets.
	DeleteCategory(ctx context.Context, ownerID, categoryID string) error

	// SeedPresets makes sure the global preset categories exist.
	// Idempotent; run once on startup.
	SeedPresets(ctx context.Context) error
}

// CategoryServiceImpl implements the CategoryService interface.
type CategoryServiceImpl struct {
	categoryStore store.CategoryStore
	keys          *keygen.Generator
	logger        *slog.Logger
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(categoryStore store.CategoryStore, keys *keygen.Generator, logger *slog.Logger) *CategoryServiceImpl {
	return &CategoryServiceImpl{
		categoryStore: categoryStore,
		keys:          keys,
		logger:        logger.With("component", "category_service"),
	}
}

// CreateCategory creates a category owned by the given user.
func (s *CategoryServiceImpl) CreateCategory(ctx context.Context, ownerID, name string) (*domain.Category, error) {
	id, err := s.keys.Generate(keygen.KindCategory)
	if err != nil {
		return nil, fmt.Errorf("failed to generate category ID: %w", err)
	}

	owner := ownerID
	category, err := domain.NewCategory(id, &owner, name, Slugify(name))
	if err != nil {
		return nil, err
	}

	if err := s.categoryStore.Create(ctx, category); err != nil {
		if errors.Is(err, store.ErrCategorySlugExists) {
			s.logger.Debug("category creation rejected: slug taken",
				"owner_id", ownerID,
				"slug", category.Slug)
			return nil, err
		}
		s.logger.Error("failed to create category",
			"error", err,
			"owner_id", ownerID)
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Info("category created",
		"category_id", category.ID,
		"owner_id", ownerID)
	return category, nil
}

// ListCategories returns the global presets plus the user's own. An
// empty ownerID is an anonymous caller and sees only the presets.
func (s *CategoryServiceImpl) ListCategories(ctx context.Context, ownerID string) ([]*domain.Category, error) {
	var owner *string
	if ownerID != "" {
		owner = &ownerID
	}

	categories, err := s.categoryStore.ListVisible(ctx, owner)
	if err != nil {
		s.logger.Error("failed to list categories",
			"error", err,
			"owner_id", ownerID)
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory renames a category, regenerating its slug.
func (s *CategoryServiceImpl) UpdateCategory(ctx context.Context, ownerID, categoryID, name string) (*domain.Category, error) {
	category, err := s.getOwned(ctx, ownerID, categoryID)
	if err != nil {
		return nil, err
	}

	category.Name = name
	category.Slug = Slugify(name)
	if err := category.Validate(); err != nil {
		return nil, err
	}

	if err := s.categoryStore.Update(ctx, category); err != nil {
		if errors.Is(err, store.ErrCategorySlugExists) {
			return nil, err
		}
		s.logger.Error("failed to update category",
			"error", err,
			"category_id", categoryID)
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return category, nil
}

// DeleteCategory removes a category. Tasks linked to it survive; the link
// rows cascade away in the schema.
func (s *CategoryServiceImpl) DeleteCategory(ctx context.Context, ownerID, categoryID string) error {
	if _, err := s.getOwned(ctx, ownerID, categoryID); err != nil {
		return err
	}

	if err := s.categoryStore.Delete(ctx, categoryID); err != nil {
		s.logger.Error("failed to delete category",
			"error", err,
			"category_id", categoryID)
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.logger.Info("category deleted",
		"category_id", categoryID,
		"owner_id", ownerID)
	return nil
}

// SeedPresets makes sure the global preset categories exist.
func (s *CategoryServiceImpl) SeedPresets(ctx context.Context) error {
	for _, name := range PresetCategories {
		id, err := s.keys.Generate(keygen.KindCategory)
		if err != nil {
			return fmt.Errorf("failed to generate preset category ID: %w", err)
		}
		if err := s.categoryStore.EnsurePreset(ctx, id, name, Slugify(name)); err != nil {
			return fmt.Errorf("failed to seed preset category %q: %w", name, err)
		}
	}
	s.logger.Info("preset categories seeded",
		"count", len(PresetCategories))
	return nil
}

// getOwned fetches the category and checks ownership. Presets have no
// owner and cannot be touched.
func (s *CategoryServiceImpl) getOwned(ctx context.Context, ownerID, categoryID string) (*domain.Category, error) {
	category, err := s.categoryStore.GetByID(ctx, categoryID)
	if err != nil {
		if !errors.Is(err, store.ErrCategoryNotFound) {
			s.logger.Error("failed to retrieve category",
				"error", err,
				"category_id", categoryID)
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	if category.IsGlobal() {
		return nil, ErrPresetImmutable
	}
	if *category.OwnerID != ownerID {
		s.logger.Warn("cross-user category access denied",
			"category_id", categoryID,
			"owner_id", *category.OwnerID,
			"user_id", ownerID)
		return nil, ErrNotOwned
	}
	return category, nil
}
