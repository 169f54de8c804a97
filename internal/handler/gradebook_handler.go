package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type gradebookAdminService interface {
	CreateGradebook(ctx context.Context, req dto.CreateGradebookRequest) (*models.Gradebook, error)
	GetGradebook(ctx context.Context, id string) (*models.Gradebook, error)
	UpdateGradebook(ctx context.Context, id string, req dto.UpdateGradebookRequest) (*models.Gradebook, error)
	ListGradeMappings(ctx context.Context, gradebookID string) ([]models.GradeMappingRecord, error)
	ListCategories(ctx context.Context, gradebookID string) ([]models.Category, error)
	CreateCategory(ctx context.Context, gradebookID string, req dto.CategoryRequest) (*models.Category, error)
	UpdateCategory(ctx context.Context, gradebookID, categoryID string, req dto.CategoryRequest) (*models.Category, error)
	RemoveCategory(ctx context.Context, gradebookID, categoryID string, version int) error
	ListAssignments(ctx context.Context, gradebookID, categoryID string) ([]models.Assignment, error)
	CreateAssignment(ctx context.Context, gradebookID string, req dto.AssignmentRequest) (*models.Assignment, error)
	UpdateAssignment(ctx context.Context, gradebookID, assignmentID string, req dto.AssignmentRequest) (*models.Assignment, error)
	RemoveAssignment(ctx context.Context, gradebookID, assignmentID string, version int) error
	EnrollStudent(ctx context.Context, gradebookID, studentID string, req dto.EnrollStudentRequest) (*models.GradebookEnrollment, error)
	ListEnrollments(ctx context.Context, gradebookID string, page, pageSize int) ([]models.GradebookEnrollment, *models.Pagination, error)
	SetScore(ctx context.Context, gradebookID, assignmentID, studentID string, req dto.ScoreRequest) (*models.GradeRecord, error)
	SetCourseGradeOverride(ctx context.Context, gradebookID, studentID string, req dto.CourseGradeOverrideRequest) (*models.CourseGradeRecord, error)
	ClearCourseGradeOverride(ctx context.Context, gradebookID, studentID string, version int) (*models.CourseGradeRecord, error)
	ExplicitOverridesExist(ctx context.Context, gradebookID string) (bool, error)
}

// GradebookHandler exposes instructor endpoints that change gradebook data.
type GradebookHandler struct {
	service gradebookAdminService
}

// NewGradebookHandler builds a new handler.
func NewGradebookHandler(service gradebookAdminService) *GradebookHandler {
	return &GradebookHandler{service: service}
}

// Create godoc
// @Summary Create gradebook
// @Tags Gradebooks
// @Accept json
// @Produce json
// @Param payload body dto.CreateGradebookRequest true "Gradebook payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /gradebooks [post]
func (h *GradebookHandler) Create(c *gin.Context) {
	var req dto.CreateGradebookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid gradebook payload"))
		return
	}
	gradebook, err := h.service.CreateGradebook(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gradebook)
}

// Get godoc
// @Summary Get gradebook
// @Tags Gradebooks
// @Produce json
// @Param id path string true "Gradebook ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id} [get]
func (h *GradebookHandler) Get(c *gin.Context) {
	gradebook, err := h.service.GetGradebook(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gradebook, nil)
}

// Update godoc
// @Summary Update gradebook settings
// @Tags Gradebooks
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param payload body dto.UpdateGradebookRequest true "Gradebook settings"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /gradebooks/{id} [put]
func (h *GradebookHandler) Update(c *gin.Context) {
	var req dto.UpdateGradebookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid gradebook payload"))
		return
	}
	gradebook, err := h.service.UpdateGradebook(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gradebook, nil)
}

// ListMappings godoc
// @Summary List grade mappings
// @Tags Gradebooks
// @Produce json
// @Param id path string true "Gradebook ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/grade-mappings [get]
func (h *GradebookHandler) ListMappings(c *gin.Context) {
	mappings, err := h.service.ListGradeMappings(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mappings, nil)
}

// OverridesExist godoc
// @Summary Check for entered course grades
// @Tags Gradebooks
// @Produce json
// @Param id path string true "Gradebook ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/course-grade-overrides [get]
func (h *GradebookHandler) OverridesExist(c *gin.Context) {
	exists, err := h.service.ExplicitOverridesExist(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"exists": exists}, nil)
}

// ListCategories godoc
// @Summary List categories
// @Tags Categories
// @Produce json
// @Param id path string true "Gradebook ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/categories [get]
func (h *GradebookHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// CreateCategory godoc
// @Summary Create category
// @Tags Categories
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param payload body dto.CategoryRequest true "Category payload"
// @Success 201 {object} response.Envelope
// @Router /gradebooks/{id}/categories [post]
func (h *GradebookHandler) CreateCategory(c *gin.Context) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid category payload"))
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// UpdateCategory godoc
// @Summary Update category
// @Tags Categories
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param categoryId path string true "Category ID"
// @Param payload body dto.CategoryRequest true "Category payload"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/categories/{categoryId} [put]
func (h *GradebookHandler) UpdateCategory(c *gin.Context) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid category payload"))
		return
	}
	category, err := h.service.UpdateCategory(c.Request.Context(), c.Param("id"), c.Param("categoryId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// RemoveCategory godoc
// @Summary Remove category
// @Tags Categories
// @Param id path string true "Gradebook ID"
// @Param categoryId path string true "Category ID"
// @Param version query int true "Current version"
// @Success 204
// @Router /gradebooks/{id}/categories/{categoryId} [delete]
func (h *GradebookHandler) RemoveCategory(c *gin.Context) {
	version, ok := versionQuery(c)
	if !ok {
		return
	}
	if err := h.service.RemoveCategory(c.Request.Context(), c.Param("id"), c.Param("categoryId"), version); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListAssignments godoc
// @Summary List assignments
// @Tags Assignments
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param category_id query string false "Category ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/assignments [get]
func (h *GradebookHandler) ListAssignments(c *gin.Context) {
	assignments, err := h.service.ListAssignments(c.Request.Context(), c.Param("id"), c.Query("category_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// CreateAssignment godoc
// @Summary Create assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param payload body dto.AssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /gradebooks/{id}/assignments [post]
func (h *GradebookHandler) CreateAssignment(c *gin.Context) {
	var req dto.AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	assignment, err := h.service.CreateAssignment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// UpdateAssignment godoc
// @Summary Update assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param assignmentId path string true "Assignment ID"
// @Param payload body dto.AssignmentRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/assignments/{assignmentId} [put]
func (h *GradebookHandler) UpdateAssignment(c *gin.Context) {
	var req dto.AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	assignment, err := h.service.UpdateAssignment(c.Request.Context(), c.Param("id"), c.Param("assignmentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// RemoveAssignment godoc
// @Summary Remove assignment
// @Tags Assignments
// @Param id path string true "Gradebook ID"
// @Param assignmentId path string true "Assignment ID"
// @Param version query int true "Current version"
// @Success 204
// @Router /gradebooks/{id}/assignments/{assignmentId} [delete]
func (h *GradebookHandler) RemoveAssignment(c *gin.Context) {
	version, ok := versionQuery(c)
	if !ok {
		return
	}
	if err := h.service.RemoveAssignment(c.Request.Context(), c.Param("id"), c.Param("assignmentId"), version); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetScore godoc
// @Summary Record a score
// @Tags Scores
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param assignmentId path string true "Assignment ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.ScoreRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /gradebooks/{id}/assignments/{assignmentId}/scores/{studentId} [put]
func (h *GradebookHandler) SetScore(c *gin.Context) {
	var req dto.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}
	record, err := h.service.SetScore(c.Request.Context(), c.Param("id"), c.Param("assignmentId"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// ListStudents godoc
// @Summary List enrolled students
// @Tags Students
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/students [get]
func (h *GradebookHandler) ListStudents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "25"))
	enrollments, pagination, err := h.service.ListEnrollments(c.Request.Context(), c.Param("id"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// EnrollStudent godoc
// @Summary Enroll student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.EnrollStudentRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/students/{studentId} [put]
func (h *GradebookHandler) EnrollStudent(c *gin.Context) {
	var req dto.EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}
	enrollment, err := h.service.EnrollStudent(c.Request.Context(), c.Param("id"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// SetCourseGrade godoc
// @Summary Enter a course grade
// @Tags Course Grades
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.CourseGradeOverrideRequest true "Course grade payload"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/students/{studentId}/course-grade [put]
func (h *GradebookHandler) SetCourseGrade(c *gin.Context) {
	var req dto.CourseGradeOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course grade payload"))
		return
	}
	record, err := h.service.SetCourseGradeOverride(c.Request.Context(), c.Param("id"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// ClearCourseGrade godoc
// @Summary Clear an entered course grade
// @Tags Course Grades
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param studentId path string true "Student ID"
// @Param version query int true "Current version"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/students/{studentId}/course-grade [delete]
func (h *GradebookHandler) ClearCourseGrade(c *gin.Context) {
	version, ok := versionQuery(c)
	if !ok {
		return
	}
	record, err := h.service.ClearCourseGradeOverride(c.Request.Context(), c.Param("id"), c.Param("studentId"), version)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

func versionQuery(c *gin.Context) (int, bool) {
	version, err := strconv.Atoi(c.Query("version"))
	if err != nil || version < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "version query parameter is required"))
		return 0, false
	}
	return version, true
}
