package dto

import (
	"time"

	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/models"
)

// CreateGradebookRequest describes the payload for creating a gradebook.
type CreateGradebookRequest struct {
	UID                  string `json:"uid" validate:"required,max=255"`
	Name                 string `json:"name" validate:"required,max=255"`
	GradeType            string `json:"grade_type" validate:"omitempty,oneof=POINTS PERCENTAGE LETTER NO_CALCULATED"`
	CategoryType         string `json:"category_type" validate:"omitempty,oneof=NO_CATEGORY ONLY_CATEGORY WEIGHTED_CATEGORY"`
	CourseGradeDisplayed bool   `json:"course_grade_displayed"`
}

// UpdateGradebookRequest carries partial gradebook settings guarded by version.
type UpdateGradebookRequest struct {
	Name                   *string `json:"name" validate:"omitempty,min=1,max=255"`
	GradeType              *string `json:"grade_type" validate:"omitempty,oneof=POINTS PERCENTAGE LETTER NO_CALCULATED"`
	CategoryType           *string `json:"category_type" validate:"omitempty,oneof=NO_CATEGORY ONLY_CATEGORY WEIGHTED_CATEGORY"`
	SelectedGradeMappingID *string `json:"selected_grade_mapping_id" validate:"omitempty,min=1"`
	CourseGradeDisplayed   *bool   `json:"course_grade_displayed"`
	Version                int     `json:"version" validate:"required,min=1"`
}

// CategoryRequest creates or updates a category. Version is required for updates.
type CategoryRequest struct {
	Name       string  `json:"name" validate:"required,max=255"`
	Weight     float64 `json:"weight" validate:"gte=0,lte=1"`
	DropLowest int     `json:"drop_lowest" validate:"gte=0"`
	Version    int     `json:"version" validate:"gte=0"`
}

// AssignmentRequest creates or updates an assignment. Counted and Released default to
// true on create when omitted.
type AssignmentRequest struct {
	Name           string     `json:"name" validate:"required,max=255"`
	PointsPossible float64    `json:"points_possible" validate:"gt=0"`
	DueDate        *time.Time `json:"due_date"`
	CategoryID     *string    `json:"category_id"`
	Counted        *bool      `json:"counted"`
	Released       *bool      `json:"released"`
	SortOrder      int        `json:"sort_order" validate:"gte=0"`
	Version        int        `json:"version" validate:"gte=0"`
}

// ScoreRequest records one score. Value is read in the gradebook's grade type: points,
// a percentage (optionally suffixed with %) or a letter. A nil or blank value clears the
// score. Version must match the stored record, or be 0 for a first entry.
type ScoreRequest struct {
	Value   *string `json:"value"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
	Version int     `json:"version" validate:"gte=0"`
}

// EnrollStudentRequest adds a student to a gradebook roster.
type EnrollStudentRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=255"`
}

// CourseGradeOverrideRequest enters a manual course grade.
type CourseGradeOverrideRequest struct {
	Grade   string `json:"grade" validate:"required,max=32"`
	Version int    `json:"version" validate:"gte=0"`
}

// PropertyItem is a deployment property exposed via API.
type PropertyItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// UpdatePropertyRequest sets a property value.
type UpdatePropertyRequest struct {
	Value string `json:"value" validate:"required,max=4000"`
}

// RosterQuery selects a roster page.
type RosterQuery struct {
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1"`
	Sort     string `form:"sort" validate:"omitempty,oneof=name course_grade"`
	Order    string `form:"order" validate:"omitempty,oneof=asc desc"`
}

// AssignmentView pairs an assignment result with its rendered value.
type AssignmentView struct {
	grading.AssignmentResult
	Formatted string `json:"formatted"`
}

// CategoryView pairs a category result with its rendered value.
type CategoryView struct {
	grading.CategoryResult
	Formatted string `json:"formatted"`
}

// CourseGradeView pairs a course grade with its rendered percentage and letter.
type CourseGradeView struct {
	grading.CourseGradeResult
	Formatted       string `json:"formatted"`
	FormattedLetter string `json:"formatted_letter"`
}

// StudentSummary is a student's full standing in a gradebook.
type StudentSummary struct {
	GradebookID string           `json:"gradebook_id"`
	StudentID   string           `json:"student_id"`
	DisplayName string           `json:"display_name"`
	GradeType   models.GradeType `json:"grade_type"`
	Assignments []AssignmentView `json:"assignments"`
	Categories  []CategoryView   `json:"categories,omitempty"`
	CourseGrade *CourseGradeView `json:"course_grade,omitempty"`
}

// RosterRow is one student's line on the roster.
type RosterRow struct {
	StudentID   string          `json:"student_id"`
	DisplayName string          `json:"display_name"`
	CourseGrade CourseGradeView `json:"course_grade"`
}

// ClassAverages summarises the class on every gradable item.
type ClassAverages struct {
	Assignments []AssignmentView `json:"assignments"`
	Categories  []CategoryView   `json:"categories,omitempty"`
	CourseGrade CourseGradeView  `json:"course_grade"`
}

// Roster is the computed class view of a gradebook.
type Roster struct {
	GradebookID string             `json:"gradebook_id"`
	MappingName string             `json:"grade_mapping"`
	Rows        []RosterRow        `json:"rows"`
	Averages    ClassAverages      `json:"averages"`
	Pagination  *models.Pagination `json:"-"`
	CacheHit    bool               `json:"-"`
}
