package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// SnapshotRepository reads a gradebook and everything the grading engine needs inside a
// single read-only repeatable-read transaction, so one computation never mixes pre- and
// post-edit data.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository constructs the repository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Load returns a coherent snapshot of the gradebook. When studentIDs is non-empty only
// their records and course grades are read; categories, assignments and the roster are
// always complete. Removed categories and assignments are included so callers can tell
// them apart from dangling references.
func (r *SnapshotRepository) Load(ctx context.Context, gradebookID string, studentIDs []string) (*models.GradebookSnapshot, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	snapshot := &models.GradebookSnapshot{
		Records:      make(map[string][]models.GradeRecord),
		CourseGrades: make(map[string]models.CourseGradeRecord),
	}
	if err := tx.GetContext(ctx, &snapshot.Gradebook, `SELECT `+gradebookColumns+` FROM gradebooks WHERE id = $1`, gradebookID); err != nil {
		return nil, err
	}

	var mapping mappingRow
	if err := tx.GetContext(ctx, &mapping, `SELECT id, gradebook_id, name, cutoffs, created_at FROM grade_mappings WHERE id = $1`, snapshot.Gradebook.SelectedGradeMappingID); err != nil {
		return nil, fmt.Errorf("load selected grade mapping: %w", err)
	}
	if snapshot.Mapping, err = mapping.record(); err != nil {
		return nil, err
	}

	if err := tx.SelectContext(ctx, &snapshot.Categories, `SELECT `+categoryColumns+` FROM categories WHERE gradebook_id = $1 ORDER BY name ASC, id ASC`, gradebookID); err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	if err := tx.SelectContext(ctx, &snapshot.Assignments, `SELECT `+assignmentColumns+` FROM assignments WHERE gradebook_id = $1 ORDER BY sort_order ASC, id ASC`, gradebookID); err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}

	records, err := listGradeRecords(ctx, tx, gradebookID, studentIDs)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		snapshot.Records[record.StudentID] = append(snapshot.Records[record.StudentID], record)
	}

	courseGrades, err := listCourseGrades(ctx, tx, gradebookID, studentIDs)
	if err != nil {
		return nil, err
	}
	for _, cg := range courseGrades {
		snapshot.CourseGrades[cg.StudentID] = cg
	}

	if snapshot.Enrollments, err = listEnrollments(ctx, tx, gradebookID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshot tx: %w", err)
	}
	return snapshot, nil
}
