package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/display"
	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type snapshotLoaderStub struct {
	snapshot *models.GradebookSnapshot
	err      error
	loads    int
}

func (s *snapshotLoaderStub) Load(ctx context.Context, gradebookID string, studentIDs []string) (*models.GradebookSnapshot, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

type cacheRepoStub struct {
	items map[string][]byte
}

func (c *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = raw
	return nil
}

func (c *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	return nil
}

func floatRef(v float64) *float64 {
	return &v
}

// pointsSnapshot has two students: stu-1 scored 8/10 and 17/20, stu-2 has nothing.
// The 20 point assignment is not released.
func pointsSnapshot() *models.GradebookSnapshot {
	mapping := grading.StandardMappings()[0]
	mapping.ID = "map-1"
	mapping.GradebookID = "gb-1"
	return &models.GradebookSnapshot{
		Gradebook: models.Gradebook{
			ID:                     "gb-1",
			Name:                   "Biology",
			GradeType:              models.GradeTypePoints,
			CategoryType:           models.CategoryTypeNone,
			SelectedGradeMappingID: "map-1",
		},
		Mapping: mapping,
		Assignments: []models.Assignment{
			{ID: "a-2", GradebookID: "gb-1", Name: "Midterm", PointsPossible: 20, Counted: true, SortOrder: 2},
			{ID: "a-1", GradebookID: "gb-1", Name: "Quiz", PointsPossible: 10, Counted: true, Released: true, SortOrder: 1},
		},
		Records: map[string][]models.GradeRecord{
			"stu-1": {
				{ID: "gr-1", StudentID: "stu-1", AssignmentID: "a-1", PointsEarned: floatRef(8)},
				{ID: "gr-2", StudentID: "stu-1", AssignmentID: "a-2", PointsEarned: floatRef(17)},
			},
		},
		CourseGrades: map[string]models.CourseGradeRecord{},
		Enrollments: []models.GradebookEnrollment{
			{GradebookID: "gb-1", StudentID: "stu-2", DisplayName: "Grace"},
			{GradebookID: "gb-1", StudentID: "stu-1", DisplayName: "Ada"},
		},
	}
}

func newCourseGradeService(t *testing.T, loader *snapshotLoaderStub, cache *CacheService) *CourseGradeService {
	t.Helper()
	formatter, err := display.New(display.Options{})
	require.NoError(t, err)
	return NewCourseGradeService(loader, grading.NewEngine(grading.DefaultPolicy()), formatter, cache, nil, nil, nil, RosterConfig{DefaultPageSize: 25, MaxPageSize: 100})
}

func TestCourseGradeServiceStudentSummary(t *testing.T) {
	svc := newCourseGradeService(t, &snapshotLoaderStub{snapshot: pointsSnapshot()}, nil)

	summary, err := svc.StudentSummary(context.Background(), "gb-1", "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", summary.DisplayName)
	require.Len(t, summary.Assignments, 2)
	assert.Equal(t, "a-1", summary.Assignments[0].AssignmentID)
	assert.Equal(t, "8", summary.Assignments[0].Formatted)
	require.NotNil(t, summary.CourseGrade)
	require.NotNil(t, summary.CourseGrade.Percentage)
	assert.InDelta(t, 83.333, *summary.CourseGrade.Percentage, 0.001)
	assert.Equal(t, "B", summary.CourseGrade.Letter)
	assert.Equal(t, "83%", summary.CourseGrade.Formatted)
	assert.Equal(t, grading.CourseGradeNone, summary.CourseGrade.State)
}

func TestCourseGradeServiceStudentViewHidesUnreleased(t *testing.T) {
	snapshot := pointsSnapshot()
	svc := newCourseGradeService(t, &snapshotLoaderStub{snapshot: snapshot}, nil)

	view, err := svc.StudentView(context.Background(), "gb-1", "stu-1")
	require.NoError(t, err)
	require.Len(t, view.Assignments, 1)
	assert.Equal(t, "a-1", view.Assignments[0].AssignmentID)
	assert.Nil(t, view.CourseGrade, "course grade hidden unless displayed")

	snapshot.Gradebook.CourseGradeDisplayed = true
	view, err = svc.StudentView(context.Background(), "gb-1", "stu-1")
	require.NoError(t, err)
	require.NotNil(t, view.CourseGrade)
	assert.Equal(t, "B", view.CourseGrade.Letter)
}

func TestCourseGradeServiceStudentViewCategoriesUseReleasedWork(t *testing.T) {
	snapshot := pointsSnapshot()
	snapshot.Gradebook.CategoryType = models.CategoryTypeOnly
	catID := "cat-1"
	snapshot.Categories = []models.Category{{ID: catID, GradebookID: "gb-1", Name: "Tests"}}
	for i := range snapshot.Assignments {
		snapshot.Assignments[i].CategoryID = &catID
	}
	svc := newCourseGradeService(t, &snapshotLoaderStub{snapshot: snapshot}, nil)

	view, err := svc.StudentView(context.Background(), "gb-1", "stu-1")
	require.NoError(t, err)
	require.Len(t, view.Categories, 1)
	require.NotNil(t, view.Categories[0].Percentage)
	assert.InDelta(t, 80, *view.Categories[0].Percentage, 1e-9)

	summary, err := svc.StudentSummary(context.Background(), "gb-1", "stu-1")
	require.NoError(t, err)
	require.Len(t, summary.Categories, 1)
	assert.InDelta(t, 83.333, *summary.Categories[0].Percentage, 0.001)
}

func TestCourseGradeServiceStudentViewPartiallyReleasedDropCategory(t *testing.T) {
	snapshot := pointsSnapshot()
	snapshot.Gradebook.CategoryType = models.CategoryTypeWeighted
	catID := "cat-1"
	snapshot.Categories = []models.Category{{ID: catID, GradebookID: "gb-1", Name: "Homework", Weight: 1, DropLowest: 1}}
	for i := range snapshot.Assignments {
		snapshot.Assignments[i].CategoryID = &catID
	}
	svc := newCourseGradeService(t, &snapshotLoaderStub{snapshot: snapshot}, nil)
	ctx := context.Background()

	summary, err := svc.StudentSummary(ctx, "gb-1", "stu-1")
	require.NoError(t, err)
	require.Len(t, summary.Categories, 1)
	assert.Equal(t, []string{"a-1"}, summary.Categories[0].Dropped)
	assert.InDelta(t, 85, *summary.Categories[0].Percentage, 1e-9)

	view, err := svc.StudentView(ctx, "gb-1", "stu-1")
	require.NoError(t, err)
	require.Len(t, view.Categories, 1)
	assert.Empty(t, view.Categories[0].Dropped)
	require.NotNil(t, view.Categories[0].Percentage)
	assert.InDelta(t, 80, *view.Categories[0].Percentage, 1e-9)
	require.Len(t, view.Assignments, 1)
	assert.False(t, view.Assignments[0].Dropped)
}

func TestCourseGradeServiceNotFound(t *testing.T) {
	svc := newCourseGradeService(t, &snapshotLoaderStub{snapshot: pointsSnapshot()}, nil)
	_, err := svc.StudentSummary(context.Background(), "gb-1", "stu-404")
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(err))

	svc = newCourseGradeService(t, &snapshotLoaderStub{err: sql.ErrNoRows}, nil)
	_, err = svc.Roster(context.Background(), "gb-404", dto.RosterQuery{})
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(err))
}

func TestCourseGradeServiceViolation(t *testing.T) {
	snapshot := pointsSnapshot()
	snapshot.Gradebook.CategoryType = models.CategoryTypeOnly
	ghost := "cat-ghost"
	snapshot.Assignments[0].CategoryID = &ghost
	svc := newCourseGradeService(t, &snapshotLoaderStub{snapshot: snapshot}, nil)

	_, err := svc.Roster(context.Background(), "gb-1", dto.RosterQuery{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConfigurationViolation.Code, appErr.Code)
	assert.Equal(t, 422, appErr.Status)
	assert.Equal(t, appErrors.ErrConfigurationViolation.Message, appErr.Message)
	assert.Equal(t, 1, strings.Count(err.Error(), "cat-ghost"), "detail appears once: %s", err.Error())
	assert.ErrorIs(t, err, grading.ErrConfigurationViolation)
}

func TestCourseGradeServiceRosterSortingAndPaging(t *testing.T) {
	svc := newCourseGradeService(t, &snapshotLoaderStub{snapshot: pointsSnapshot()}, nil)
	ctx := context.Background()

	roster, err := svc.Roster(ctx, "gb-1", dto.RosterQuery{})
	require.NoError(t, err)
	require.Len(t, roster.Rows, 2)
	assert.Equal(t, "Ada", roster.Rows[0].DisplayName)
	assert.Equal(t, "-", roster.Rows[1].CourseGrade.Formatted)
	assert.Equal(t, "-", roster.Rows[1].CourseGrade.FormattedLetter)
	assert.Equal(t, grading.MappingLetterGrades, roster.MappingName)

	require.Len(t, roster.Averages.Assignments, 2)
	assert.Equal(t, "a-1", roster.Averages.Assignments[0].AssignmentID)
	require.NotNil(t, roster.Averages.Assignments[0].PointsEarned)
	assert.InDelta(t, 8, *roster.Averages.Assignments[0].PointsEarned, 1e-9)
	assert.Equal(t, "B", roster.Averages.CourseGrade.Letter)

	for _, order := range []string{"asc", "desc"} {
		roster, err = svc.Roster(ctx, "gb-1", dto.RosterQuery{Sort: "course_grade", Order: order})
		require.NoError(t, err)
		assert.Equal(t, "stu-1", roster.Rows[0].StudentID, "ungraded students sort last (%s)", order)
	}

	roster, err = svc.Roster(ctx, "gb-1", dto.RosterQuery{Page: 2, PageSize: 1, Order: "desc"})
	require.NoError(t, err)
	require.Len(t, roster.Rows, 1)
	assert.Equal(t, "Ada", roster.Rows[0].DisplayName)
	assert.Equal(t, 2, roster.Pagination.TotalCount)

	_, err = svc.Roster(ctx, "gb-1", dto.RosterQuery{Sort: "shoe_size"})
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))
}

func TestCourseGradeServiceRosterCache(t *testing.T) {
	loader := &snapshotLoaderStub{snapshot: pointsSnapshot()}
	repo := &cacheRepoStub{items: map[string][]byte{}}
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc := newCourseGradeService(t, loader, cache)
	ctx := context.Background()

	first, err := svc.Roster(ctx, "gb-1", dto.RosterQuery{})
	require.NoError(t, err)
	second, err := svc.Roster(ctx, "gb-1", dto.RosterQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, loader.loads)
	assert.False(t, first.CacheHit)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Rows[0].CourseGrade.Letter, second.Rows[0].CourseGrade.Letter)
	assert.Contains(t, repo.items, "roster:gb-1:full")

	require.NoError(t, svc.InvalidateRoster(ctx, "gb-1"))
	assert.Empty(t, repo.items)

	require.NoError(t, svc.RefreshRoster(ctx, "gb-1"))
	assert.Equal(t, 2, loader.loads)
	assert.Contains(t, repo.items, "roster:gb-1:full")
}
