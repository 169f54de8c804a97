package grading

import (
	"sort"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// CourseInput is one student's slice of a gradebook snapshot.
type CourseInput struct {
	StudentID   string
	Categories  []models.Category
	Assignments []models.Assignment
	Records     []models.GradeRecord
	CourseGrade *models.CourseGradeRecord
}

// ComputeCourseGrade combines a student's scores into a course grade. Missing data yields
// nil percentages; only inconsistent input is an error.
func (e Engine) ComputeCourseGrade(gb models.Gradebook, mapping GradeMapping, in CourseInput) (CourseGradeResult, error) {
	result := CourseGradeResult{
		StudentID: in.StudentID,
		State:     StateOf(in.CourseGrade),
		Display:   ModePercent,
	}
	byAssignment, err := indexInput(gb, in)
	if err != nil {
		return result, err
	}

	if gb.CategoryType != models.CategoryTypeNone {
		categories, err := e.categoryResults(gb, in, byAssignment, false)
		if err != nil {
			return result, err
		}
		result.Categories = categories
	}

	if gb.CategoryType == models.CategoryTypeWeighted {
		e.blendWeighted(&result, in)
	} else {
		if err := e.sumAll(gb, &result, in.Assignments, byAssignment); err != nil {
			return result, err
		}
	}

	if gb.GradeType == models.GradeTypeNoCalculated {
		result.Percentage = nil
	}
	if letter, ok := mapping.Letter(result.Percentage); ok {
		result.CalculatedLetter = letter
	}
	result.Letter = result.CalculatedLetter
	if in.CourseGrade.Overridden() {
		entered := *in.CourseGrade.EnteredGrade
		if canonical, ok := mapping.Canonical(entered); ok {
			entered = canonical
		}
		result.EnteredGrade = &entered
		result.Letter = entered
	}
	return result, nil
}

// ComputeReleasedCategories aggregates each category over released assignments only, as
// the student sees them. The input is validated exactly as for ComputeCourseGrade, so a
// category that is consistent for the course grade is consistent here too.
func (e Engine) ComputeReleasedCategories(gb models.Gradebook, in CourseInput) ([]CategoryResult, error) {
	byAssignment, err := indexInput(gb, in)
	if err != nil {
		return nil, err
	}
	if gb.CategoryType == models.CategoryTypeNone {
		return nil, nil
	}
	return e.categoryResults(gb, in, byAssignment, true)
}

func indexInput(gb models.Gradebook, in CourseInput) (map[string]models.GradeRecord, error) {
	if in.CourseGrade != nil && in.CourseGrade.GradebookID != gb.ID {
		return nil, violation("course grade record belongs to gradebook %s, not %s", in.CourseGrade.GradebookID, gb.ID)
	}
	for _, r := range in.Records {
		if in.StudentID != "" && r.StudentID != in.StudentID {
			return nil, violation("grade record %s belongs to student %s, not %s", r.ID, r.StudentID, in.StudentID)
		}
	}
	return indexRecords(in.Assignments, in.Records)
}

func (e Engine) categoryResults(gb models.Gradebook, in CourseInput, byAssignment map[string]models.GradeRecord, releasedOnly bool) ([]CategoryResult, error) {
	categories := make([]models.Category, 0, len(in.Categories)+1)
	known := make(map[string]struct{}, len(in.Categories))
	for _, c := range in.Categories {
		if c.Removed {
			continue
		}
		categories = append(categories, c)
		known[c.ID] = struct{}{}
	}
	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].Name != categories[j].Name {
			return categories[i].Name < categories[j].Name
		}
		return categories[i].ID < categories[j].ID
	})

	grouped := make(map[string][]models.Assignment, len(categories)+1)
	for _, a := range in.Assignments {
		if a.Removed {
			continue
		}
		key := ""
		if a.CategoryID != nil {
			key = *a.CategoryID
		}
		if key != "" {
			if _, ok := known[key]; !ok {
				return nil, violation("assignment %s references unknown category %s", a.ID, key)
			}
		}
		grouped[key] = append(grouped[key], a)
	}

	results := make([]CategoryResult, 0, len(categories)+1)
	for _, c := range categories {
		res, err := e.categoryResult(gb, c, grouped[c.ID], recordsFor(grouped[c.ID], byAssignment), releasedOnly)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	if unassigned := grouped[""]; hasAggregatable(unassigned) {
		res, err := e.categoryResult(gb, UnassignedCategory(gb.ID), unassigned, recordsFor(unassigned, byAssignment), releasedOnly)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (e Engine) blendWeighted(result *CourseGradeResult, in CourseInput) {
	var numerator, denominator float64
	for _, cat := range result.Categories {
		if cat.Excluded || cat.Weight <= 0 {
			continue
		}
		result.PointsEarned += cat.PointsEarned
		result.PointsPossible += cat.PointsPossible
		switch {
		case cat.Percentage != nil:
			numerator += *cat.Percentage * cat.Weight
			denominator += cat.Weight
		case e.policy.EmptyCategory == EmptyCategoryAsZero && cat.Counted > 0:
			denominator += cat.Weight
		}
	}
	if denominator > 0 {
		pct := numerator / denominator
		result.Percentage = &pct
	}
}

func (e Engine) sumAll(gb models.Gradebook, result *CourseGradeResult, assignments []models.Assignment, byAssignment map[string]models.GradeRecord) error {
	counted := make([]models.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.GradebookID != gb.ID {
			return violation("assignment %s belongs to gradebook %s, not %s", a.ID, a.GradebookID, gb.ID)
		}
		if !a.Aggregatable() {
			continue
		}
		if a.PointsPossible <= 0 {
			return violation("assignment %s has non-positive points possible", a.ID)
		}
		counted = append(counted, a)
	}
	sortAssignments(counted)
	for _, entry := range e.scoredEntries(counted, byAssignment) {
		result.PointsEarned += entry.earned
		result.PointsPossible += entry.assignment.PointsPossible
	}
	result.Percentage = percentOf(result.PointsEarned, result.PointsPossible)
	return nil
}

func recordsFor(assignments []models.Assignment, byAssignment map[string]models.GradeRecord) []models.GradeRecord {
	records := make([]models.GradeRecord, 0, len(assignments))
	for _, a := range assignments {
		if r, ok := byAssignment[a.ID]; ok {
			records = append(records, r)
		}
	}
	return records
}

func hasAggregatable(assignments []models.Assignment) bool {
	for _, a := range assignments {
		if a.Aggregatable() {
			return true
		}
	}
	return false
}
