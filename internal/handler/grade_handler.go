package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/middleware"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type courseGradeReader interface {
	StudentSummary(ctx context.Context, gradebookID, studentID string) (*dto.StudentSummary, error)
	StudentView(ctx context.Context, gradebookID, studentID string) (*dto.StudentSummary, error)
	Roster(ctx context.Context, gradebookID string, query dto.RosterQuery) (*dto.Roster, error)
}

// GradeHandler exposes computed grades.
type GradeHandler struct {
	service courseGradeReader
}

// NewGradeHandler builds a new handler.
func NewGradeHandler(service courseGradeReader) *GradeHandler {
	return &GradeHandler{service: service}
}

// Summary godoc
// @Summary Instructor view of one student
// @Tags Grades
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /gradebooks/{id}/students/{studentId}/summary [get]
func (h *GradeHandler) Summary(c *gin.Context) {
	summary, err := h.service.StudentSummary(c.Request.Context(), c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// StudentView godoc
// @Summary Student-facing grades
// @Tags Grades
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/students/{studentId}/view [get]
func (h *GradeHandler) StudentView(c *gin.Context) {
	view, err := h.service.StudentView(c.Request.Context(), c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Roster godoc
// @Summary Course grade roster with class averages
// @Tags Grades
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param sort query string false "name or course_grade"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /gradebooks/{id}/roster [get]
func (h *GradeHandler) Roster(c *gin.Context) {
	var query dto.RosterQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid roster query"))
		return
	}
	roster, err := h.service.Roster(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, roster.CacheHit)
	response.JSON(c, http.StatusOK, roster, roster.Pagination, middleware.ExtractMeta(c))
}
