package grading

import "github.com/noah-isme/gradebook-api/internal/models"

// ComputeAssignmentResult shapes one student's record for display in the gradebook's
// grade type.
func ComputeAssignmentResult(gb models.Gradebook, mapping GradeMapping, assignment models.Assignment, record *models.GradeRecord) AssignmentResult {
	result := AssignmentResult{
		AssignmentID:   assignment.ID,
		Name:           assignment.Name,
		PointsPossible: assignment.PointsPossible,
		Counted:        assignment.Counted,
		Released:       assignment.Released,
		Display:        modeFor(gb.GradeType),
	}
	if record == nil {
		return result
	}
	result.Comment = record.Comment
	if record.PointsEarned == nil {
		return result
	}
	earned := *record.PointsEarned
	result.PointsEarned = &earned
	result.Percentage = percentOf(earned, assignment.PointsPossible)
	if gb.GradeType == models.GradeTypeLetter {
		if letter, ok := mapping.Letter(result.Percentage); ok {
			result.Letter = letter
		}
	}
	return result
}

func modeFor(t models.GradeType) ValueMode {
	switch t {
	case models.GradeTypePercentage:
		return ModePercent
	case models.GradeTypeLetter:
		return ModeLetter
	default:
		return ModePoints
	}
}

// Mean averages the defined values, returning nil when none are defined.
func Mean(values []*float64) *float64 {
	var sum float64
	var n int
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// AssignmentAverage summarises one assignment across students. The mean is a percentage
// and the average total is in points, both over scored records only.
func AssignmentAverage(gb models.Gradebook, assignment models.Assignment, records []models.GradeRecord) AssignmentResult {
	result := AssignmentResult{
		AssignmentID:   assignment.ID,
		Name:           assignment.Name,
		PointsPossible: assignment.PointsPossible,
		Counted:        assignment.Counted,
		Released:       assignment.Released,
		Display:        modeFor(gb.GradeType),
	}
	if result.Display == ModeLetter {
		result.Display = ModePercent
	}
	points := make([]*float64, 0, len(records))
	for _, r := range records {
		if r.AssignmentID == assignment.ID {
			points = append(points, r.PointsEarned)
		}
	}
	result.PointsEarned = Mean(points)
	if result.PointsEarned != nil {
		result.Percentage = percentOf(*result.PointsEarned, assignment.PointsPossible)
	}
	return result
}

// CategoryAverage summarises one category across students by averaging their defined
// category percentages.
func CategoryAverage(category models.Category, perStudent []CategoryResult) CategoryResult {
	result := CategoryResult{
		CategoryID:   category.ID,
		Name:         category.Name,
		Weight:       category.Weight,
		Unassigned:   category.ID == "",
		Contributing: []string{},
		Dropped:      []string{},
		Display:      ModePercent,
	}
	values := make([]*float64, 0, len(perStudent))
	for _, r := range perStudent {
		if r.CategoryID != category.ID {
			continue
		}
		values = append(values, r.Percentage)
		result.Counted = r.Counted
		result.Excluded = r.Excluded
	}
	result.Percentage = Mean(values)
	return result
}

// CourseAverage averages the calculated course percentages and maps the mean to a letter.
func CourseAverage(mapping GradeMapping, perStudent []CourseGradeResult) CourseGradeResult {
	values := make([]*float64, 0, len(perStudent))
	for _, r := range perStudent {
		values = append(values, r.Percentage)
	}
	result := CourseGradeResult{Percentage: Mean(values), State: CourseGradeCalculated, Display: ModePercent}
	if letter, ok := mapping.Letter(result.Percentage); ok {
		result.CalculatedLetter = letter
		result.Letter = letter
	}
	return result
}
