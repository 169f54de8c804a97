package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

const enrollmentColumns = `gradebook_id, student_id, display_name, enrolled_at`

// EnrollmentRepository handles persistence of gradebook rosters.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Upsert enrolls a student or refreshes their display name.
func (r *EnrollmentRepository) Upsert(ctx context.Context, enrollment *models.GradebookEnrollment) error {
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	const query = `INSERT INTO gradebook_enrollments (` + enrollmentColumns + `)
VALUES (:gradebook_id, :student_id, :display_name, :enrolled_at)
ON CONFLICT (gradebook_id, student_id) DO UPDATE SET display_name = EXCLUDED.display_name`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("upsert enrollment: %w", err)
	}
	return nil
}

// Find returns a student's enrollment on a gradebook.
func (r *EnrollmentRepository) Find(ctx context.Context, gradebookID, studentID string) (*models.GradebookEnrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM gradebook_enrollments WHERE gradebook_id = $1 AND student_id = $2`
	var enrollment models.GradebookEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, gradebookID, studentID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListByGradebook returns a page of the roster ordered by display name. A non-positive
// limit returns everyone.
func (r *EnrollmentRepository) ListByGradebook(ctx context.Context, gradebookID string, limit, offset int) ([]models.GradebookEnrollment, int, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM gradebook_enrollments WHERE gradebook_id = $1 ORDER BY display_name ASC, student_id ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}
	var enrollments []models.GradebookEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, gradebookID); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM gradebook_enrollments WHERE gradebook_id = $1`, gradebookID); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

func listEnrollments(ctx context.Context, q sqlx.QueryerContext, gradebookID string) ([]models.GradebookEnrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM gradebook_enrollments WHERE gradebook_id = $1 ORDER BY display_name ASC, student_id ASC`
	var enrollments []models.GradebookEnrollment
	if err := sqlx.SelectContext(ctx, q, &enrollments, query, gradebookID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}
