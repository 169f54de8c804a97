package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func strPtr(value string) *string {
	return &value
}

func floatPtr(value float64) *float64 {
	return &value
}

var gradebookRowColumns = []string{"id", "uid", "name", "grade_type", "category_type", "selected_grade_mapping_id", "course_grade_displayed", "version", "created_at", "updated_at"}

func TestGradebookRepositoryCreateInsertsMappings(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradebookRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO gradebooks").
		WithArgs("gb-1", "course-101", "Biology", "POINTS", "WEIGHTED_CATEGORY", "map-1", true, 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO grade_mappings").
		WithArgs("map-1", "gb-1", "Letter Grades", []byte(`[{"letter":"A","min_percent":90},{"letter":"F","min_percent":0}]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	gb := &models.Gradebook{
		ID:                     "gb-1",
		UID:                    "course-101",
		Name:                   "Biology",
		GradeType:              models.GradeTypePoints,
		CategoryType:           models.CategoryTypeWeighted,
		SelectedGradeMappingID: "map-1",
		CourseGradeDisplayed:   true,
	}
	mappings := []models.GradeMappingRecord{{
		ID:      "map-1",
		Name:    "Letter Grades",
		Cutoffs: []models.LetterCutoff{{Letter: "A", MinPercent: 90}, {Letter: "F", MinPercent: 0}},
	}}
	require.NoError(t, repo.Create(context.Background(), gb, mappings))
	assert.Equal(t, 1, gb.Version)
	assert.Equal(t, "gb-1", mappings[0].GradebookID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradebookRepositoryCreateRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradebookRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO gradebooks").WillReturnError(errors.New("duplicate uid"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Gradebook{UID: "x"}, nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradebookRepositoryUpdateDetectsStaleVersion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradebookRepository(db)

	mock.ExpectExec("UPDATE gradebooks SET").
		WithArgs("Biology", "LETTER", "NO_CATEGORY", "map-2", false, sqlmock.AnyArg(), "gb-1", 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	gb := &models.Gradebook{ID: "gb-1", Name: "Biology", GradeType: models.GradeTypeLetter, CategoryType: models.CategoryTypeNone, SelectedGradeMappingID: "map-2", Version: 3}
	err := repo.Update(context.Background(), gb)
	assert.ErrorIs(t, err, ErrStaleWrite)
	assert.Equal(t, 3, gb.Version)
}

func TestGradebookRepositoryUpdateBumpsVersion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradebookRepository(db)

	mock.ExpectExec("UPDATE gradebooks SET").WillReturnResult(sqlmock.NewResult(0, 1))

	gb := &models.Gradebook{ID: "gb-1", Version: 3}
	require.NoError(t, repo.Update(context.Background(), gb))
	assert.Equal(t, 4, gb.Version)
}

func TestGradebookRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradebookRepository(db)

	mock.ExpectQuery("SELECT id, uid, name").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestGradebookRepositoryListMappingsDecodesCutoffs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradebookRepository(db)

	rows := sqlmock.NewRows([]string{"id", "gradebook_id", "name", "cutoffs", "created_at"}).
		AddRow("map-1", "gb-1", "Pass / Not Pass", []byte(`[{"letter":"P","min_percent":75},{"letter":"NP","min_percent":0}]`), time.Now())
	mock.ExpectQuery("SELECT id, gradebook_id, name, cutoffs").WithArgs("gb-1").WillReturnRows(rows)

	mappings, err := repo.ListMappings(context.Background(), "gb-1")
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, []models.LetterCutoff{{Letter: "P", MinPercent: 75}, {Letter: "NP", MinPercent: 0}}, mappings[0].Cutoffs)
}

func TestGradebookRepositoryExistsByUID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradebookRepository(db)

	mock.ExpectQuery("SELECT EXISTS").WithArgs("course-101").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByUID(context.Background(), "course-101")
	require.NoError(t, err)
	assert.True(t, exists)
}
