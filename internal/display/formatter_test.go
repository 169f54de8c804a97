package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/grading"
)

func ptr(v float64) *float64 { return &v }

func TestFormatterPlaceholderForUndefined(t *testing.T) {
	f, err := New(Options{Placeholder: "--"})
	require.NoError(t, err)

	assert.Equal(t, "--", f.Format(grading.CourseGradeResult{}))
	assert.Equal(t, "--", f.Format(grading.CategoryResult{Display: grading.ModePercent}))
	assert.Equal(t, "--", f.Format(grading.AssignmentResult{Display: grading.ModePoints}))
	assert.Equal(t, "--", f.Format(grading.AssignmentResult{Display: grading.ModeLetter}))
	assert.Equal(t, "--", f.CourseLetter(grading.CourseGradeResult{}))
}

func TestFormatterTruncatesAndAppendsPercent(t *testing.T) {
	f, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, "83%", f.Format(grading.CourseGradeResult{Percentage: ptr(83.9999)}))
	assert.Equal(t, "0%", f.Percent(ptr(0)))

	f, err = New(Options{Decimals: 2})
	require.NoError(t, err)
	assert.Equal(t, "83.33%", f.Format(grading.CategoryResult{Percentage: ptr(100 * 25.0 / 30), Display: grading.ModePercent}))
	assert.Equal(t, "0.29", f.Number(0.29))
	assert.Equal(t, "1,234.50", f.Number(1234.5))
}

func TestFormatterAssignmentModes(t *testing.T) {
	f, err := New(Options{Decimals: 1})
	require.NoError(t, err)

	points := grading.AssignmentResult{PointsEarned: ptr(8.75), Percentage: ptr(87.5), Display: grading.ModePoints}
	assert.Equal(t, "8.7", f.Format(points))

	points.Display = grading.ModePercent
	assert.Equal(t, "87.5%", f.Format(points))

	points.Display = grading.ModeLetter
	points.Letter = "B+"
	assert.Equal(t, "B+", f.Format(points))
}

func TestFormatterUnassignedCategoryLabel(t *testing.T) {
	f, err := New(Options{UnassignedLabel: "n/a"})
	require.NoError(t, err)
	assert.Equal(t, "n/a", f.Format(grading.CategoryResult{Unassigned: true, Excluded: true, Display: grading.ModePercent}))
	assert.Equal(t, "50%", f.Format(grading.CategoryResult{Unassigned: true, Percentage: ptr(50), Display: grading.ModePercent}))
}

func TestFormatterUngradedUnassignedOutsideWeightedUsesPlaceholder(t *testing.T) {
	f, err := New(Options{UnassignedLabel: "n/a", Placeholder: "--"})
	require.NoError(t, err)
	assert.Equal(t, "--", f.Format(grading.CategoryResult{Unassigned: true, Display: grading.ModePercent}))
	assert.Equal(t, "--", f.Format(grading.CategoryResult{Unassigned: true, Display: grading.ModePoints}))
}

func TestFormatterLocale(t *testing.T) {
	f, err := New(Options{Locale: "de", Decimals: 1})
	require.NoError(t, err)
	assert.Equal(t, "91,5%", f.Percent(ptr(91.5)))
	assert.Equal(t, "de", f.Locale().String())
}

func TestFormatterCourseLetterPrefersOverride(t *testing.T) {
	f, err := New(Options{})
	require.NoError(t, err)
	entered := "B"
	assert.Equal(t, "B", f.CourseLetter(grading.CourseGradeResult{CalculatedLetter: "C", EnteredGrade: &entered, Letter: "B"}))
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Options{Locale: "not a locale!"})
	assert.Error(t, err)
	_, err = New(Options{Decimals: -1})
	assert.Error(t, err)
}
