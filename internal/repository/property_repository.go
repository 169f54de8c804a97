package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// PropertyRepository persists deployment-wide gradebook properties.
type PropertyRepository struct {
	db *sqlx.DB
}

// NewPropertyRepository constructs the repository.
func NewPropertyRepository(db *sqlx.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// List returns every property ordered by name.
func (r *PropertyRepository) List(ctx context.Context) ([]models.GradebookProperty, error) {
	const query = `SELECT name, value, updated_at FROM gradebook_properties ORDER BY name ASC`
	var props []models.GradebookProperty
	if err := r.db.SelectContext(ctx, &props, query); err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return props, nil
}

// Upsert inserts or updates a property.
func (r *PropertyRepository) Upsert(ctx context.Context, prop *models.GradebookProperty) error {
	const query = `INSERT INTO gradebook_properties (name, value, updated_at)
VALUES (:name, :value, :updated_at)
ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	prop.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, prop); err != nil {
		return fmt.Errorf("upsert property: %w", err)
	}
	return nil
}
