package models

import "time"

// GradeType controls how scores are entered and displayed.
type GradeType string

const (
	// GradeTypePoints records and displays raw points.
	GradeTypePoints GradeType = "POINTS"
	// GradeTypePercentage records scores as a percentage of points possible.
	GradeTypePercentage GradeType = "PERCENTAGE"
	// GradeTypeLetter records scores as letters from the selected mapping.
	GradeTypeLetter GradeType = "LETTER"
	// GradeTypeNoCalculated disables course grade calculation.
	GradeTypeNoCalculated GradeType = "NO_CALCULATED"
)

// Valid reports whether the grade type is known.
func (t GradeType) Valid() bool {
	switch t {
	case GradeTypePoints, GradeTypePercentage, GradeTypeLetter, GradeTypeNoCalculated:
		return true
	}
	return false
}

// CategoryType controls how categories participate in the course grade.
type CategoryType string

const (
	// CategoryTypeNone ignores categories entirely.
	CategoryTypeNone CategoryType = "NO_CATEGORY"
	// CategoryTypeOnly groups assignments without weighting.
	CategoryTypeOnly CategoryType = "ONLY_CATEGORY"
	// CategoryTypeWeighted blends category results by weight.
	CategoryTypeWeighted CategoryType = "WEIGHTED_CATEGORY"
)

// Valid reports whether the category type is known.
func (t CategoryType) Valid() bool {
	switch t {
	case CategoryTypeNone, CategoryTypeOnly, CategoryTypeWeighted:
		return true
	}
	return false
}

// Gradebook is the configuration root for a course.
type Gradebook struct {
	ID                     string       `db:"id" json:"id"`
	UID                    string       `db:"uid" json:"uid"`
	Name                   string       `db:"name" json:"name"`
	GradeType              GradeType    `db:"grade_type" json:"grade_type"`
	CategoryType           CategoryType `db:"category_type" json:"category_type"`
	SelectedGradeMappingID string       `db:"selected_grade_mapping_id" json:"selected_grade_mapping_id"`
	CourseGradeDisplayed   bool         `db:"course_grade_displayed" json:"course_grade_displayed"`
	Version                int          `db:"version" json:"version"`
	CreatedAt              time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time    `db:"updated_at" json:"updated_at"`
}

// LetterCutoff pairs a letter with its minimum percentage.
type LetterCutoff struct {
	Letter     string  `db:"letter" json:"letter"`
	MinPercent float64 `db:"min_percent" json:"min_percent"`
}

// GradeMappingRecord is a persisted grading scale owned by a gradebook.
type GradeMappingRecord struct {
	ID          string         `db:"id" json:"id"`
	GradebookID string         `db:"gradebook_id" json:"gradebook_id"`
	Name        string         `db:"name" json:"name"`
	Cutoffs     []LetterCutoff `db:"-" json:"cutoffs"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// Category groups assignments and optionally weights them.
type Category struct {
	ID          string    `db:"id" json:"id"`
	GradebookID string    `db:"gradebook_id" json:"gradebook_id"`
	Name        string    `db:"name" json:"name"`
	Weight      float64   `db:"weight" json:"weight"`
	DropLowest  int       `db:"drop_lowest" json:"drop_lowest"`
	Removed     bool      `db:"removed" json:"removed"`
	Version     int       `db:"version" json:"version"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Assignment is a gradable item within a gradebook.
type Assignment struct {
	ID             string     `db:"id" json:"id"`
	GradebookID    string     `db:"gradebook_id" json:"gradebook_id"`
	CategoryID     *string    `db:"category_id" json:"category_id,omitempty"`
	Name           string     `db:"name" json:"name"`
	PointsPossible float64    `db:"points_possible" json:"points_possible"`
	DueDate        *time.Time `db:"due_date" json:"due_date,omitempty"`
	Counted        bool       `db:"counted" json:"counted"`
	Released       bool       `db:"released" json:"released"`
	Removed        bool       `db:"removed" json:"removed"`
	SortOrder      int        `db:"sort_order" json:"sort_order"`
	Version        int        `db:"version" json:"version"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// InCategory reports whether the assignment belongs to the category id. An empty id
// matches uncategorised assignments.
func (a Assignment) InCategory(categoryID string) bool {
	if a.CategoryID == nil || *a.CategoryID == "" {
		return categoryID == ""
	}
	return *a.CategoryID == categoryID
}

// Aggregatable reports whether the assignment may enter any computation.
func (a Assignment) Aggregatable() bool {
	return a.Counted && !a.Removed
}

// GradeRecord holds a student's score for one assignment.
type GradeRecord struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	AssignmentID string    `db:"assignment_id" json:"assignment_id"`
	PointsEarned *float64  `db:"points_earned" json:"points_earned"`
	Comment      *string   `db:"comment" json:"comment,omitempty"`
	Version      int       `db:"version" json:"version"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CourseGradeRecord stores an instructor's manual course grade.
type CourseGradeRecord struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	GradebookID  string    `db:"gradebook_id" json:"gradebook_id"`
	EnteredGrade *string   `db:"entered_grade" json:"entered_grade,omitempty"`
	Version      int       `db:"version" json:"version"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Overridden reports whether an entered grade takes precedence.
func (r *CourseGradeRecord) Overridden() bool {
	return r != nil && r.EnteredGrade != nil && *r.EnteredGrade != ""
}

// GradebookEnrollment lists a student on a gradebook roster.
type GradebookEnrollment struct {
	GradebookID string    `db:"gradebook_id" json:"gradebook_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	EnrolledAt  time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// GradebookProperty is a deployment-wide name/value pair.
type GradebookProperty struct {
	Name      string    `db:"name" json:"name"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GradebookSnapshot is a transactionally coherent view of a gradebook used for one
// computation.
type GradebookSnapshot struct {
	Gradebook    Gradebook
	Mapping      GradeMappingRecord
	Categories   []Category
	Assignments  []Assignment
	Records      map[string][]GradeRecord
	CourseGrades map[string]CourseGradeRecord
	Enrollments  []GradebookEnrollment
}

// AssignmentFilter scopes assignment listing.
type AssignmentFilter struct {
	GradebookID    string
	CategoryID     string
	IncludeRemoved bool
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
