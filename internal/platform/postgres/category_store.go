package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/vporoshok/taskping/internal/domain"
	"github.com/vporoshok/taskping/internal/platform/logger"
	"github.com/vporoshok/taskping/internal/store"
)

// CategoryStore implements the store.CategoryStore interface using a
// PostgreSQL database as the storage backend.
type CategoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewCategoryStore creates a new PostgreSQL implementation of the
// CategoryStore interface.
func NewCategoryStore(db store.DBTX, logger *slog.Logger) *CategoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "category_store")),
	}
}

// Ensure CategoryStore implements store.CategoryStore.
var _ store.CategoryStore = (*CategoryStore)(nil)

// Create implements store.CategoryStore.Create.
func (s *CategoryStore) Create(ctx context.Context, category *domain.Category) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := category.Validate(); err != nil {
		log.Warn("category validation failed during create",
			slog.String("error", err.Error()),
			slog.String("category_id", category.ID))
		return err
	}

	query := `
		INSERT INTO categories (id, owner_id, name, slug)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, category.ID, category.OwnerID, category.Name, category.Slug)
	if err != nil {
		if IsUniqueViolation(err) && strings.HasPrefix(ConstraintName(err), "uq_categories_") {
			return MapUniqueViolation(err, store.ErrCategorySlugExists)
		}
		log.Error("failed to create category",
			slog.String("error", err.Error()),
			slog.String("category_id", category.ID))
		return MapError(err)
	}

	log.Info("category created",
		slog.String("category_id", category.ID),
		slog.String("slug", category.Slug),
		slog.Bool("global", category.IsGlobal()))
	return nil
}

// GetByID implements store.CategoryStore.GetByID.
func (s *CategoryStore) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, name, slug
		FROM categories
		WHERE id = $1
	`

	var cat domain.Category
	err := s.db.QueryRowContext(ctx, query, id).Scan(&cat.ID, &cat.OwnerID, &cat.Name, &cat.Slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCategoryNotFound
		}
		log.Error("failed to get category",
			slog.String("error", err.Error()),
			slog.String("category_id", id))
		return nil, MapError(err)
	}
	return &cat, nil
}

// ListVisible implements store.CategoryStore.ListVisible.
func (s *CategoryStore) ListVisible(ctx context.Context, ownerID *string) ([]*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, name, slug
		FROM categories
		WHERE owner_id IS NULL
		ORDER BY name
	`
	args := []any{}
	if ownerID != nil {
		query = `
			SELECT id, owner_id, name, slug
			FROM categories
			WHERE owner_id IS NULL OR owner_id = $1
			ORDER BY name
		`
		args = append(args, *ownerID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list categories", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	categories := []*domain.Category{}
	for rows.Next() {
		var cat domain.Category
		if err := rows.Scan(&cat.ID, &cat.OwnerID, &cat.Name, &cat.Slug); err != nil {
			log.Error("failed to scan category row", slog.String("error", err.Error()))
			return nil, err
		}
		categories = append(categories, &cat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

// Update implements store.CategoryStore.Update.
func (s *CategoryStore) Update(ctx context.Context, category *domain.Category) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := category.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE categories
		SET name = $1, slug = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, category.Name, category.Slug, category.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return MapUniqueViolation(err, store.ErrCategorySlugExists)
		}
		log.Error("failed to update category",
			slog.String("error", err.Error()),
			slog.String("category_id", category.ID))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrCategoryNotFound)
}

// Delete implements store.CategoryStore.Delete. Task links are removed by
// the ON DELETE CASCADE on task_categories; tasks themselves are untouched.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete category",
			slog.String("error", err.Error()),
			slog.String("category_id", id))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrCategoryNotFound)
}

// EnsurePreset implements store.CategoryStore.EnsurePreset. The upsert is
// keyed on the nil-owner slug index and refreshes the name when it changed,
// so re-running the seeding step is a no-op.
func (s *CategoryStore) EnsurePreset(ctx context.Context, id, name, slug string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO categories (id, owner_id, name, slug)
		VALUES ($1, NULL, $2, $3)
		ON CONFLICT (slug) WHERE owner_id IS NULL
		DO UPDATE SET name = EXCLUDED.name
		WHERE categories.name IS DISTINCT FROM EXCLUDED.name
	`
	if _, err := s.db.ExecContext(ctx, query, id, name, slug); err != nil {
		log.Error("failed to ensure preset category",
			slog.String("error", err.Error()),
			slog.String("slug", slug))
		return MapError(err)
	}
	return nil
}

// WithTx implements store.CategoryStore.WithTx.
func (s *CategoryStore) WithTx(tx *sql.Tx) store.CategoryStore {
	return &CategoryStore{db: tx, logger: s.logger}
}

func closeRows(rows *sql.Rows, log *slog.Logger) {
	if err := rows.Close(); err != nil {
		log.Error("failed to close rows", slog.String("error", err.Error()))
	}
}
