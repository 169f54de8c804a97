package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/gradebook-api/internal/models"
)

const (
	gradeRecordColumns = `id, student_id, assignment_id, points_earned, comment, version, created_at, updated_at`

	listGradeRecordsByGradebook = `SELECT g.id, g.student_id, g.assignment_id, g.points_earned, g.comment, g.version, g.created_at, g.updated_at
FROM grade_records g
JOIN assignments a ON a.id = g.assignment_id
WHERE a.gradebook_id = $1 AND a.removed = FALSE`

	courseGradeColumns = `id, student_id, gradebook_id, entered_grade, version, created_at, updated_at`
)

// GradeRecordRepository persists assignment scores.
type GradeRecordRepository struct {
	db *sqlx.DB
}

// NewGradeRecordRepository constructs the repository.
func NewGradeRecordRepository(db *sqlx.DB) *GradeRecordRepository {
	return &GradeRecordRepository{db: db}
}

// Find returns the record for a student and assignment.
func (r *GradeRecordRepository) Find(ctx context.Context, studentID, assignmentID string) (*models.GradeRecord, error) {
	const query = `SELECT ` + gradeRecordColumns + ` FROM grade_records WHERE student_id = $1 AND assignment_id = $2`
	var record models.GradeRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, assignmentID); err != nil {
		return nil, err
	}
	return &record, nil
}

// Save inserts a new record (version 0) or updates an existing one if its version still
// matches. Losing either race yields ErrStaleWrite.
func (r *GradeRecordRepository) Save(ctx context.Context, record *models.GradeRecord) error {
	now := time.Now().UTC()
	record.UpdatedAt = now
	if record.Version == 0 {
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		record.CreatedAt = now
		record.Version = 1
		const insert = `INSERT INTO grade_records (` + gradeRecordColumns + `)
VALUES (:id, :student_id, :assignment_id, :points_earned, :comment, :version, :created_at, :updated_at)
ON CONFLICT (student_id, assignment_id) DO NOTHING`
		res, err := r.db.NamedExecContext(ctx, insert, record)
		if err != nil {
			record.Version = 0
			return fmt.Errorf("insert grade record: %w", err)
		}
		if err := expectVersioned(res, "insert grade record"); err != nil {
			record.Version = 0
			return err
		}
		return nil
	}
	const update = `UPDATE grade_records SET points_earned = :points_earned, comment = :comment,
    version = version + 1, updated_at = :updated_at
WHERE id = :id AND version = :version`
	res, err := r.db.NamedExecContext(ctx, update, record)
	if err != nil {
		return fmt.Errorf("update grade record: %w", err)
	}
	if err := expectVersioned(res, "update grade record"); err != nil {
		return err
	}
	record.Version++
	return nil
}

// ListByGradebook returns every record on the gradebook's live assignments, optionally
// restricted to some students.
func (r *GradeRecordRepository) ListByGradebook(ctx context.Context, gradebookID string, studentIDs []string) ([]models.GradeRecord, error) {
	return listGradeRecords(ctx, r.db, gradebookID, studentIDs)
}

func listGradeRecords(ctx context.Context, q sqlx.QueryerContext, gradebookID string, studentIDs []string) ([]models.GradeRecord, error) {
	query := listGradeRecordsByGradebook
	args := []interface{}{gradebookID}
	if len(studentIDs) > 0 {
		query += " AND g.student_id = ANY($2)"
		args = append(args, pq.Array(studentIDs))
	}
	query += " ORDER BY g.student_id ASC, g.assignment_id ASC"
	var records []models.GradeRecord
	if err := sqlx.SelectContext(ctx, q, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list grade records: %w", err)
	}
	return records, nil
}

// CourseGradeRepository persists course grade overrides.
type CourseGradeRepository struct {
	db *sqlx.DB
}

// NewCourseGradeRepository constructs the repository.
func NewCourseGradeRepository(db *sqlx.DB) *CourseGradeRepository {
	return &CourseGradeRepository{db: db}
}

// Find returns the course grade record of a student.
func (r *CourseGradeRepository) Find(ctx context.Context, gradebookID, studentID string) (*models.CourseGradeRecord, error) {
	const query = `SELECT ` + courseGradeColumns + ` FROM course_grade_records WHERE gradebook_id = $1 AND student_id = $2`
	var record models.CourseGradeRecord
	if err := r.db.GetContext(ctx, &record, query, gradebookID, studentID); err != nil {
		return nil, err
	}
	return &record, nil
}

// Save inserts or version-checks an update of a course grade record.
func (r *CourseGradeRepository) Save(ctx context.Context, record *models.CourseGradeRecord) error {
	now := time.Now().UTC()
	record.UpdatedAt = now
	if record.Version == 0 {
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		record.CreatedAt = now
		record.Version = 1
		const insert = `INSERT INTO course_grade_records (` + courseGradeColumns + `)
VALUES (:id, :student_id, :gradebook_id, :entered_grade, :version, :created_at, :updated_at)
ON CONFLICT (student_id, gradebook_id) DO NOTHING`
		res, err := r.db.NamedExecContext(ctx, insert, record)
		if err != nil {
			record.Version = 0
			return fmt.Errorf("insert course grade record: %w", err)
		}
		if err := expectVersioned(res, "insert course grade record"); err != nil {
			record.Version = 0
			return err
		}
		return nil
	}
	const update = `UPDATE course_grade_records SET entered_grade = :entered_grade,
    version = version + 1, updated_at = :updated_at
WHERE id = :id AND version = :version`
	res, err := r.db.NamedExecContext(ctx, update, record)
	if err != nil {
		return fmt.Errorf("update course grade record: %w", err)
	}
	if err := expectVersioned(res, "update course grade record"); err != nil {
		return err
	}
	record.Version++
	return nil
}

// CountOverrides counts enrolled students holding an explicitly entered course grade.
func (r *CourseGradeRepository) CountOverrides(ctx context.Context, gradebookID string) (int, error) {
	const query = `SELECT COUNT(*) FROM course_grade_records c
JOIN gradebook_enrollments e ON e.gradebook_id = c.gradebook_id AND e.student_id = c.student_id
WHERE c.gradebook_id = $1 AND c.entered_grade IS NOT NULL AND c.entered_grade <> ''`
	var count int
	if err := r.db.GetContext(ctx, &count, query, gradebookID); err != nil {
		return 0, fmt.Errorf("count course grade overrides: %w", err)
	}
	return count, nil
}

func listCourseGrades(ctx context.Context, q sqlx.QueryerContext, gradebookID string, studentIDs []string) ([]models.CourseGradeRecord, error) {
	query := `SELECT ` + courseGradeColumns + ` FROM course_grade_records WHERE gradebook_id = $1`
	args := []interface{}{gradebookID}
	if len(studentIDs) > 0 {
		query += " AND student_id = ANY($2)"
		args = append(args, pq.Array(studentIDs))
	}
	var records []models.CourseGradeRecord
	if err := sqlx.SelectContext(ctx, q, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list course grade records: %w", err)
	}
	return records, nil
}
