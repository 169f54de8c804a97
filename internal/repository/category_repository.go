package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

const categoryColumns = `id, gradebook_id, name, weight, drop_lowest, removed, version, created_at, updated_at`

// CategoryRepository persists gradebook categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository constructs the repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a category.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	now := time.Now().UTC()
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	category.Version = 1
	category.CreatedAt = now
	category.UpdatedAt = now
	const query = `INSERT INTO categories (` + categoryColumns + `)
VALUES (:id, :gradebook_id, :name, :weight, :drop_lowest, :removed, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// FindByID returns a category by id.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// ListByGradebook returns the categories of a gradebook ordered by name.
func (r *CategoryRepository) ListByGradebook(ctx context.Context, gradebookID string, includeRemoved bool) ([]models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE gradebook_id = $1`
	if !includeRemoved {
		query += ` AND removed = FALSE`
	}
	query += ` ORDER BY name ASC, id ASC`
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query, gradebookID); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// ExistsByName reports whether a live category of the gradebook already uses name,
// ignoring excludeID.
func (r *CategoryRepository) ExistsByName(ctx context.Context, gradebookID, name, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM categories
WHERE gradebook_id = $1 AND LOWER(name) = LOWER($2) AND removed = FALSE AND id <> $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, gradebookID, name, excludeID); err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return exists, nil
}

// Update writes a category if the stored version still matches.
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE categories SET name = :name, weight = :weight, drop_lowest = :drop_lowest,
    version = version + 1, updated_at = :updated_at
WHERE id = :id AND version = :version AND removed = FALSE`
	res, err := r.db.NamedExecContext(ctx, query, category)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if err := expectVersioned(res, "update category"); err != nil {
		return err
	}
	category.Version++
	return nil
}

// Remove soft-deletes a category and moves its assignments to the unassigned grouping.
func (r *CategoryRepository) Remove(ctx context.Context, id string, version int) error {
	now := time.Now().UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove category tx: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE categories SET removed = TRUE, version = version + 1, updated_at = $3
WHERE id = $1 AND version = $2 AND removed = FALSE`, id, version, now)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("remove category: %w", err)
	}
	if err := expectVersioned(res, "remove category"); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE assignments SET category_id = NULL, version = version + 1, updated_at = $2
WHERE category_id = $1`, id, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("unassign category assignments: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit remove category tx: %w", err)
	}
	return nil
}
