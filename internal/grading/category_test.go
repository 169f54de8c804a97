package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

const testGradebookID = "gb-1"

func weightedGradebook() models.Gradebook {
	return models.Gradebook{ID: testGradebookID, GradeType: models.GradeTypePoints, CategoryType: models.CategoryTypeWeighted}
}

func unweightedGradebook() models.Gradebook {
	return models.Gradebook{ID: testGradebookID, GradeType: models.GradeTypePoints, CategoryType: models.CategoryTypeNone}
}

func category(id string, weight float64, drop int) models.Category {
	return models.Category{ID: id, GradebookID: testGradebookID, Name: id, Weight: weight, DropLowest: drop}
}

func assignment(id, categoryID string, possible float64) models.Assignment {
	a := models.Assignment{ID: id, GradebookID: testGradebookID, Name: id, PointsPossible: possible, Counted: true, Released: true}
	if categoryID != "" {
		a.CategoryID = &categoryID
	}
	return a
}

func score(studentID, assignmentID string, earned float64) models.GradeRecord {
	return models.GradeRecord{ID: studentID + "-" + assignmentID, StudentID: studentID, AssignmentID: assignmentID, PointsEarned: &earned}
}

func ungraded(studentID, assignmentID string) models.GradeRecord {
	return models.GradeRecord{ID: studentID + "-" + assignmentID, StudentID: studentID, AssignmentID: assignmentID}
}

func TestCategoryDropLowestScenario(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	hw := category("homework", 0.5, 1)
	assignments := []models.Assignment{assignment("a1", "homework", 10), assignment("a2", "homework", 10), assignment("a3", "homework", 10)}
	records := []models.GradeRecord{score("s1", "a1", 8), score("s1", "a2", 9), score("s1", "a3", 2)}

	result, err := engine.ComputeCategoryResult(weightedGradebook(), hw, assignments, records)
	require.NoError(t, err)
	require.NotNil(t, result.Percentage)
	assert.InDelta(t, 85.0, *result.Percentage, 1e-9)
	assert.Equal(t, []string{"a3"}, result.Dropped)
	assert.ElementsMatch(t, []string{"a1", "a2"}, result.Contributing)
	assert.Equal(t, 3, result.Counted)
}

func TestCategoryMeanEqualsAverageForEqualPoints(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	quiz := category("quiz", 1, 0)
	scores := []float64{7, 8.5, 9.25, 3}
	var assignments []models.Assignment
	var records []models.GradeRecord
	var sum float64
	for i, s := range scores {
		id := string(rune('a' + i))
		assignments = append(assignments, assignment(id, "quiz", 10))
		records = append(records, score("s1", id, s))
		sum += 100 * s / 10
	}

	result, err := engine.ComputeCategoryResult(weightedGradebook(), quiz, assignments, records)
	require.NoError(t, err)
	require.NotNil(t, result.Percentage)
	assert.InDelta(t, sum/float64(len(scores)), *result.Percentage, 1e-9)
}

func TestCategoryWithoutScoresIsUndefined(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	quiz := category("quiz", 0.3, 0)
	assignments := []models.Assignment{assignment("q1", "quiz", 10), assignment("q2", "quiz", 5)}

	result, err := engine.ComputeCategoryResult(weightedGradebook(), quiz, assignments, []models.GradeRecord{ungraded("s1", "q1")})
	require.NoError(t, err)
	assert.Nil(t, result.Percentage)
	assert.Empty(t, result.Contributing)
}

func TestCategoryUngradedAsZeroPolicy(t *testing.T) {
	quiz := category("quiz", 1, 0)
	assignments := []models.Assignment{assignment("q1", "quiz", 10), assignment("q2", "quiz", 10)}
	records := []models.GradeRecord{score("s1", "q1", 8)}

	ignore, err := NewEngine(Policy{Ungraded: UngradedIgnore}).ComputeCategoryResult(weightedGradebook(), quiz, assignments, records)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, *ignore.Percentage, 1e-9)

	zero, err := NewEngine(Policy{Ungraded: UngradedAsZero}).ComputeCategoryResult(weightedGradebook(), quiz, assignments, records)
	require.NoError(t, err)
	assert.InDelta(t, 40.0, *zero.Percentage, 1e-9)
}

func TestCategorySkipsNotCountedAndRemoved(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	hw := category("homework", 1, 0)
	notCounted := assignment("nc", "homework", 10)
	notCounted.Counted = false
	removed := assignment("rm", "homework", 10)
	removed.Removed = true
	assignments := []models.Assignment{assignment("a1", "homework", 10), notCounted, removed}
	records := []models.GradeRecord{score("s1", "a1", 5), score("s1", "nc", 10), score("s1", "rm", 10)}

	result, err := engine.ComputeCategoryResult(weightedGradebook(), hw, assignments, records)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, *result.Percentage, 1e-9)
	assert.Equal(t, 1, result.Counted)
}

func TestDropLowestKeepsAtLeastOneRecord(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	hw := category("homework", 1, 2)
	assignments := []models.Assignment{assignment("a1", "homework", 10), assignment("a2", "homework", 10), assignment("a3", "homework", 10)}
	records := []models.GradeRecord{score("s1", "a1", 4)}

	result, err := engine.ComputeCategoryResult(weightedGradebook(), hw, assignments, records)
	require.NoError(t, err)
	assert.Empty(t, result.Dropped)
	assert.Equal(t, []string{"a1"}, result.Contributing)
	assert.InDelta(t, 40.0, *result.Percentage, 1e-9)
}

func TestDropLowestNeverUsesFewerThanCountedMinusN(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	for drop := 0; drop < 5; drop++ {
		hw := category("homework", 1, drop)
		var assignments []models.Assignment
		var records []models.GradeRecord
		for i := 0; i < 5; i++ {
			id := string(rune('a' + i))
			assignments = append(assignments, assignment(id, "homework", float64(10+i)))
			records = append(records, score("s1", id, float64(i*2)))
		}
		result, err := engine.ComputeCategoryResult(weightedGradebook(), hw, assignments, records)
		require.NoError(t, err)
		assert.Len(t, result.Contributing, 5-drop)
		assert.Len(t, result.Dropped, drop)
	}
}

func TestDropLowestTieBreaksOnPointsPossible(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	hw := category("homework", 1, 1)
	assignments := []models.Assignment{assignment("big", "homework", 20), assignment("small", "homework", 10), assignment("good", "homework", 10)}
	records := []models.GradeRecord{score("s1", "big", 10), score("s1", "small", 5), score("s1", "good", 9)}

	result, err := engine.ComputeCategoryResult(weightedGradebook(), hw, assignments, records)
	require.NoError(t, err)
	assert.Equal(t, []string{"small"}, result.Dropped)
}

func TestDropLowestTieBreaksOnDueDateThenID(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	hw := category("homework", 1, 1)
	early := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)

	a := assignment("z-early", "homework", 10)
	a.DueDate = &early
	b := assignment("a-late", "homework", 10)
	b.DueDate = &late
	c := assignment("0-undated", "homework", 10)
	records := []models.GradeRecord{score("s1", a.ID, 5), score("s1", b.ID, 5), score("s1", c.ID, 5)}

	result, err := engine.ComputeCategoryResult(weightedGradebook(), hw, []models.Assignment{c, b, a}, records)
	require.NoError(t, err)
	assert.Equal(t, []string{"z-early"}, result.Dropped)

	undated := []models.Assignment{assignment("b", "homework", 10), assignment("a", "homework", 10)}
	result, err = engine.ComputeCategoryResult(weightedGradebook(), hw, undated, []models.GradeRecord{score("s1", "a", 5), score("s1", "b", 5)})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, result.Dropped)
}

func TestUnassignedCategoryInWeightedGradebookHasNoMean(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	assignments := []models.Assignment{assignment("free", "", 10)}
	records := []models.GradeRecord{score("s1", "free", 10)}

	result, err := engine.ComputeCategoryResult(weightedGradebook(), UnassignedCategory(testGradebookID), assignments, records)
	require.NoError(t, err)
	assert.True(t, result.Unassigned)
	assert.True(t, result.Excluded)
	assert.Nil(t, result.Percentage)

	onlyCategories := weightedGradebook()
	onlyCategories.CategoryType = models.CategoryTypeOnly
	result, err = engine.ComputeCategoryResult(onlyCategories, UnassignedCategory(testGradebookID), assignments, records)
	require.NoError(t, err)
	assert.True(t, result.Unassigned)
	assert.False(t, result.Excluded)
	require.NotNil(t, result.Percentage)
	assert.InDelta(t, 100.0, *result.Percentage, 1e-9)
}

func TestCategoryConfigurationViolations(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	gb := weightedGradebook()

	foreign := category("homework", 0.5, 0)
	foreign.GradebookID = "other"
	_, err := engine.ComputeCategoryResult(gb, foreign, nil, nil)
	assert.ErrorIs(t, err, ErrConfigurationViolation)

	tooManyDrops := category("homework", 0.5, 2)
	_, err = engine.ComputeCategoryResult(gb, tooManyDrops, []models.Assignment{assignment("a1", "homework", 10), assignment("a2", "homework", 10)}, nil)
	assert.ErrorIs(t, err, ErrConfigurationViolation)

	_, err = engine.ComputeCategoryResult(gb, category("homework", 0.5, 0), []models.Assignment{assignment("a1", "quiz", 10)}, nil)
	assert.ErrorIs(t, err, ErrConfigurationViolation)

	_, err = engine.ComputeCategoryResult(gb, category("homework", 0.5, 0), []models.Assignment{assignment("a1", "homework", 10)}, []models.GradeRecord{score("s1", "a9", 1)})
	assert.ErrorIs(t, err, ErrConfigurationViolation)

	_, err = engine.ComputeCategoryResult(gb, category("homework", 1.5, 0), nil, nil)
	assert.ErrorIs(t, err, ErrConfigurationViolation)

	wrongBook := assignment("a1", "homework", 10)
	wrongBook.GradebookID = "other"
	_, err = engine.ComputeCategoryResult(gb, category("homework", 0.5, 0), []models.Assignment{wrongBook}, nil)
	assert.ErrorIs(t, err, ErrConfigurationViolation)
}

func TestDropCountOnEmptyCategoryIsAllowed(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	result, err := engine.ComputeCategoryResult(weightedGradebook(), category("homework", 0.5, 3), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, result.Percentage)
}
