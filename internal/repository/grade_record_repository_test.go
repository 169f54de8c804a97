package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func TestGradeRecordRepositorySaveInserts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRecordRepository(db)

	mock.ExpectExec("INSERT INTO grade_records").
		WithArgs(sqlmock.AnyArg(), "stu-1", "a-1", 8.5, "late", 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.GradeRecord{StudentID: "stu-1", AssignmentID: "a-1", PointsEarned: floatPtr(8.5), Comment: strPtr("late")}
	require.NoError(t, repo.Save(context.Background(), record))
	assert.Equal(t, 1, record.Version)
	assert.NotEmpty(t, record.ID)
}

func TestGradeRecordRepositorySaveInsertRace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRecordRepository(db)

	mock.ExpectExec("INSERT INTO grade_records").WillReturnResult(sqlmock.NewResult(0, 0))

	record := &models.GradeRecord{StudentID: "stu-1", AssignmentID: "a-1"}
	assert.ErrorIs(t, repo.Save(context.Background(), record), ErrStaleWrite)
	assert.Equal(t, 0, record.Version)
}

func TestGradeRecordRepositorySaveUpdatesWithVersion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRecordRepository(db)

	mock.ExpectExec("UPDATE grade_records SET").
		WithArgs(nil, nil, sqlmock.AnyArg(), "gr-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	record := &models.GradeRecord{ID: "gr-1", StudentID: "stu-1", AssignmentID: "a-1", Version: 2}
	require.NoError(t, repo.Save(context.Background(), record))
	assert.Equal(t, 3, record.Version)
}

func TestGradeRecordRepositoryListFiltersStudents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRecordRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "assignment_id", "points_earned", "comment", "version", "created_at", "updated_at"}).
		AddRow("gr-1", "stu-1", "a-1", 9.0, nil, 1, time.Now(), time.Now()).
		AddRow("gr-2", "stu-1", "a-2", nil, "excused", 1, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("AND g.student_id = ANY($2)")).
		WithArgs("gb-1", pq.Array([]string{"stu-1"})).
		WillReturnRows(rows)

	records, err := repo.ListByGradebook(context.Background(), "gb-1", []string{"stu-1"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].PointsEarned)
	assert.Equal(t, 9.0, *records[0].PointsEarned)
	assert.Nil(t, records[1].PointsEarned)
}

func TestCourseGradeRepositorySaveAndCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseGradeRepository(db)

	mock.ExpectExec("INSERT INTO course_grade_records").
		WithArgs(sqlmock.AnyArg(), "stu-1", "gb-1", "B", 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("gb-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	record := &models.CourseGradeRecord{StudentID: "stu-1", GradebookID: "gb-1", EnteredGrade: strPtr("B")}
	require.NoError(t, repo.Save(context.Background(), record))

	count, err := repo.CountOverrides(context.Background(), "gb-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseGradeRepositoryUpdateStale(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseGradeRepository(db)

	mock.ExpectExec("UPDATE course_grade_records SET").WillReturnResult(sqlmock.NewResult(0, 0))

	record := &models.CourseGradeRecord{ID: "cg-1", StudentID: "stu-1", GradebookID: "gb-1", Version: 4}
	assert.ErrorIs(t, repo.Save(context.Background(), record), ErrStaleWrite)
}
