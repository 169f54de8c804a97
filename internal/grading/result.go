package grading

import "github.com/noah-isme/gradebook-api/internal/models"

// ValueMode tells consumers how a result is meant to be shown.
type ValueMode string

const (
	ModePoints  ValueMode = "POINTS"
	ModePercent ValueMode = "PERCENT"
	ModeLetter  ValueMode = "LETTER"
)

// CourseGradeState is the per-student course grade lifecycle.
type CourseGradeState string

const (
	// CourseGradeNone means no course grade record exists yet.
	CourseGradeNone CourseGradeState = "NONE"
	// CourseGradeCalculated means the letter comes from the calculated percentage.
	CourseGradeCalculated CourseGradeState = "CALCULATED"
	// CourseGradeOverridden means an instructor entered the grade explicitly.
	CourseGradeOverridden CourseGradeState = "OVERRIDDEN"
)

// StateOf derives the course grade state from a stored record.
func StateOf(record *models.CourseGradeRecord) CourseGradeState {
	switch {
	case record == nil:
		return CourseGradeNone
	case record.Overridden():
		return CourseGradeOverridden
	default:
		return CourseGradeCalculated
	}
}

// Result is the closed set of values the engine produces: AssignmentResult,
// CategoryResult and CourseGradeResult.
type Result interface {
	Mode() ValueMode
	sealed()
}

// AssignmentResult is one student's score on one assignment.
type AssignmentResult struct {
	AssignmentID   string    `json:"assignment_id"`
	Name           string    `json:"name"`
	PointsEarned   *float64  `json:"points_earned"`
	PointsPossible float64   `json:"points_possible"`
	Percentage     *float64  `json:"percentage"`
	Letter         string    `json:"letter,omitempty"`
	Counted        bool      `json:"counted"`
	Released       bool      `json:"released"`
	Dropped        bool      `json:"dropped"`
	Comment        *string   `json:"comment,omitempty"`
	Display        ValueMode `json:"mode"`
}

// Mode implements Result.
func (r AssignmentResult) Mode() ValueMode { return r.Display }
func (AssignmentResult) sealed()           {}

// CategoryResult is one student's aggregate for one category. Percentage is nil when no
// scored work remains. Excluded marks the unassigned grouping of a weighted gradebook,
// which is shown but never averaged.
type CategoryResult struct {
	CategoryID     string    `json:"category_id"`
	Name           string    `json:"name"`
	Weight         float64   `json:"weight"`
	Unassigned     bool      `json:"unassigned"`
	Excluded       bool      `json:"excluded"`
	Percentage     *float64  `json:"percentage"`
	PointsEarned   float64   `json:"points_earned"`
	PointsPossible float64   `json:"points_possible"`
	Counted        int       `json:"counted"`
	Contributing   []string  `json:"contributing"`
	Dropped        []string  `json:"dropped"`
	Display        ValueMode `json:"mode"`
}

// Mode implements Result.
func (r CategoryResult) Mode() ValueMode { return r.Display }
func (CategoryResult) sealed()           {}

// CourseGradeResult is one student's course grade.
type CourseGradeResult struct {
	StudentID        string           `json:"student_id"`
	Percentage       *float64         `json:"percentage"`
	PointsEarned     float64          `json:"points_earned"`
	PointsPossible   float64          `json:"points_possible"`
	CalculatedLetter string           `json:"calculated_letter,omitempty"`
	EnteredGrade     *string          `json:"entered_grade,omitempty"`
	Letter           string           `json:"letter,omitempty"`
	State            CourseGradeState `json:"state"`
	Categories       []CategoryResult `json:"categories,omitempty"`
	Display          ValueMode        `json:"mode"`
}

// Mode implements Result.
func (r CourseGradeResult) Mode() ValueMode { return r.Display }
func (CourseGradeResult) sealed()           {}

// HasLetter reports whether an effective letter exists.
func (r CourseGradeResult) HasLetter() bool {
	return r.Letter != ""
}
