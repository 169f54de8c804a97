package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func TestEnrollmentRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO gradebook_enrollments").
		WithArgs("gb-1", "stu-1", "Ada Lovelace", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := &models.GradebookEnrollment{GradebookID: "gb-1", StudentID: "stu-1", DisplayName: "Ada Lovelace"}
	require.NoError(t, repo.Upsert(context.Background(), enrollment))
	assert.False(t, enrollment.EnrolledAt.IsZero())
}

func TestEnrollmentRepositoryListByGradebookPaged(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"gradebook_id", "student_id", "display_name", "enrolled_at"}).
		AddRow("gb-1", "stu-1", "Ada", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY display_name ASC, student_id ASC LIMIT 10 OFFSET 20")).
		WithArgs("gb-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM gradebook_enrollments")).
		WithArgs("gb-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	enrollments, total, err := repo.ListByGradebook(context.Background(), "gb-1", 10, 20)
	require.NoError(t, err)
	assert.Len(t, enrollments, 1)
	assert.Equal(t, 21, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
