package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func TestCategoryRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCategoryRepository(db)

	mock.ExpectExec("INSERT INTO categories").
		WithArgs(sqlmock.AnyArg(), "gb-1", "Homework", 0.4, 1, false, 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	category := &models.Category{GradebookID: "gb-1", Name: "Homework", Weight: 0.4, DropLowest: 1}
	require.NoError(t, repo.Create(context.Background(), category))
	assert.NotEmpty(t, category.ID)
	assert.Equal(t, 1, category.Version)
}

func TestCategoryRepositoryListExcludesRemoved(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCategoryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "gradebook_id", "name", "weight", "drop_lowest", "removed", "version", "created_at", "updated_at"}).
		AddRow("cat-1", "gb-1", "Exams", 0.6, 0, false, 2, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM categories WHERE gradebook_id = $1 AND removed = FALSE ORDER BY name ASC")).
		WithArgs("gb-1").
		WillReturnRows(rows)

	categories, err := repo.ListByGradebook(context.Background(), "gb-1", false)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, 0.6, categories[0].Weight)
}

func TestCategoryRepositoryExistsByName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCategoryRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("gb-1", "homework", "cat-9").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.ExistsByName(context.Background(), "gb-1", "homework", "cat-9")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCategoryRepositoryRemoveUnassignsAssignments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCategoryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE categories SET removed = TRUE").
		WithArgs("cat-1", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE assignments SET category_id = NULL").
		WithArgs("cat-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.Remove(context.Background(), "cat-1", 2))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepositoryRemoveStale(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCategoryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE categories SET removed = TRUE").
		WithArgs("cat-1", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Remove(context.Background(), "cat-1", 1)
	assert.True(t, errors.Is(err, ErrStaleWrite))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreateAppendsSortOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(sort_order), 0) + 1")).
		WithArgs("gb-1").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(4))
	mock.ExpectExec("INSERT INTO assignments").
		WithArgs(sqlmock.AnyArg(), "gb-1", nil, "Lab 1", 20.0, nil, true, false, false, 4, 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assignment := &models.Assignment{GradebookID: "gb-1", Name: "Lab 1", PointsPossible: 20, Counted: true}
	require.NoError(t, repo.Create(context.Background(), assignment))
	assert.Equal(t, 4, assignment.SortOrder)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListByCategory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "gradebook_id", "category_id", "name", "points_possible", "due_date", "counted", "released", "removed", "sort_order", "version", "created_at", "updated_at"}).
		AddRow("a-1", "gb-1", "cat-1", "Quiz 1", 10.0, nil, true, true, false, 1, 1, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE gradebook_id = $1 AND category_id = $2 AND removed = FALSE ORDER BY sort_order ASC")).
		WithArgs("gb-1", "cat-1").
		WillReturnRows(rows)

	assignments, err := repo.List(context.Background(), models.AssignmentFilter{GradebookID: "gb-1", CategoryID: "cat-1"})
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	require.NotNil(t, assignments[0].CategoryID)
	assert.Equal(t, "cat-1", *assignments[0].CategoryID)
	assert.Nil(t, assignments[0].DueDate)
}

func TestAssignmentRepositoryRemoveStale(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("UPDATE assignments SET removed = TRUE").
		WithArgs("a-1", 5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Remove(context.Background(), "a-1", 5), ErrStaleWrite)
}
