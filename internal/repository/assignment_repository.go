package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

const assignmentColumns = `id, gradebook_id, category_id, name, points_possible, due_date, counted, released, removed, sort_order, version, created_at, updated_at`

// AssignmentRepository persists gradebook assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts an assignment. A zero sort order appends it after existing ones.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	now := time.Now().UTC()
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.SortOrder == 0 {
		const next = `SELECT COALESCE(MAX(sort_order), 0) + 1 FROM assignments WHERE gradebook_id = $1`
		if err := r.db.GetContext(ctx, &assignment.SortOrder, next, assignment.GradebookID); err != nil {
			return fmt.Errorf("next assignment sort order: %w", err)
		}
	}
	assignment.Version = 1
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (` + assignmentColumns + `)
VALUES (:id, :gradebook_id, :category_id, :name, :points_possible, :due_date, :counted, :released, :removed, :sort_order, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// FindByID returns an assignment by id.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// List returns assignments matching the filter in display order.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE gradebook_id = $1`
	args := []interface{}{filter.GradebookID}
	if filter.CategoryID != "" {
		query += fmt.Sprintf(" AND category_id = $%d", len(args)+1)
		args = append(args, filter.CategoryID)
	}
	if !filter.IncludeRemoved {
		query += " AND removed = FALSE"
	}
	query += " ORDER BY sort_order ASC, id ASC"
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ExistsByName reports whether a live assignment of the gradebook already uses name,
// ignoring excludeID.
func (r *AssignmentRepository) ExistsByName(ctx context.Context, gradebookID, name, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM assignments
WHERE gradebook_id = $1 AND LOWER(name) = LOWER($2) AND removed = FALSE AND id <> $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, gradebookID, name, excludeID); err != nil {
		return false, fmt.Errorf("check assignment name: %w", err)
	}
	return exists, nil
}

// Update writes an assignment if the stored version still matches.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET category_id = :category_id, name = :name, points_possible = :points_possible,
    due_date = :due_date, counted = :counted, released = :released, sort_order = :sort_order,
    version = version + 1, updated_at = :updated_at
WHERE id = :id AND version = :version AND removed = FALSE`
	res, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	if err := expectVersioned(res, "update assignment"); err != nil {
		return err
	}
	assignment.Version++
	return nil
}

// Remove soft-deletes an assignment. Its grade records are kept for audit.
func (r *AssignmentRepository) Remove(ctx context.Context, id string, version int) error {
	const query = `UPDATE assignments SET removed = TRUE, version = version + 1, updated_at = $3
WHERE id = $1 AND version = $2 AND removed = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, version, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("remove assignment: %w", err)
	}
	return expectVersioned(res, "remove assignment")
}
