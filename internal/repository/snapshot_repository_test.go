package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func TestSnapshotRepositoryLoad(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM gradebooks WHERE id").
		WithArgs("gb-1").
		WillReturnRows(sqlmock.NewRows(gradebookRowColumns).
			AddRow("gb-1", "course-101", "Biology", "POINTS", "WEIGHTED_CATEGORY", "map-1", true, 3, now, now))
	mock.ExpectQuery("FROM grade_mappings WHERE id").
		WithArgs("map-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "gradebook_id", "name", "cutoffs", "created_at"}).
			AddRow("map-1", "gb-1", "Letter Grades", []byte(`[{"letter":"A","min_percent":90},{"letter":"F","min_percent":0}]`), now))
	mock.ExpectQuery("FROM categories WHERE gradebook_id").
		WithArgs("gb-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "gradebook_id", "name", "weight", "drop_lowest", "removed", "version", "created_at", "updated_at"}).
			AddRow("cat-1", "gb-1", "Homework", 0.5, 1, false, 1, now, now))
	mock.ExpectQuery("FROM assignments WHERE gradebook_id").
		WithArgs("gb-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "gradebook_id", "category_id", "name", "points_possible", "due_date", "counted", "released", "removed", "sort_order", "version", "created_at", "updated_at"}).
			AddRow("a-1", "gb-1", "cat-1", "HW 1", 10.0, nil, true, true, false, 1, 1, now, now))
	mock.ExpectQuery("FROM grade_records g").
		WithArgs("gb-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "assignment_id", "points_earned", "comment", "version", "created_at", "updated_at"}).
			AddRow("gr-1", "stu-1", "a-1", 8.0, nil, 1, now, now).
			AddRow("gr-2", "stu-2", "a-1", nil, nil, 1, now, now))
	mock.ExpectQuery("FROM course_grade_records WHERE gradebook_id").
		WithArgs("gb-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "gradebook_id", "entered_grade", "version", "created_at", "updated_at"}).
			AddRow("cg-1", "stu-2", "gb-1", "B", 1, now, now))
	mock.ExpectQuery("FROM gradebook_enrollments WHERE gradebook_id").
		WithArgs("gb-1").
		WillReturnRows(sqlmock.NewRows([]string{"gradebook_id", "student_id", "display_name", "enrolled_at"}).
			AddRow("gb-1", "stu-1", "Ada", now).
			AddRow("gb-1", "stu-2", "Grace", now))
	mock.ExpectCommit()

	snapshot, err := repo.Load(context.Background(), "gb-1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryTypeWeighted, snapshot.Gradebook.CategoryType)
	assert.Len(t, snapshot.Mapping.Cutoffs, 2)
	assert.Len(t, snapshot.Categories, 1)
	assert.Len(t, snapshot.Assignments, 1)
	assert.Len(t, snapshot.Records["stu-1"], 1)
	assert.Len(t, snapshot.Records["stu-2"], 1)
	require.Contains(t, snapshot.CourseGrades, "stu-2")
	override := snapshot.CourseGrades["stu-2"]
	assert.True(t, override.Overridden())
	assert.Len(t, snapshot.Enrollments, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryLoadMissingGradebook(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM gradebooks WHERE id").WithArgs("missing").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Load(context.Background(), "missing", nil)
	assert.Equal(t, sql.ErrNoRows, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
