package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type gradebookRepository interface {
	Create(ctx context.Context, gradebook *models.Gradebook, mappings []models.GradeMappingRecord) error
	FindByID(ctx context.Context, id string) (*models.Gradebook, error)
	ExistsByUID(ctx context.Context, uid string) (bool, error)
	Update(ctx context.Context, gradebook *models.Gradebook) error
	ListMappings(ctx context.Context, gradebookID string) ([]models.GradeMappingRecord, error)
	FindMapping(ctx context.Context, id string) (*models.GradeMappingRecord, error)
}

type categoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id string) (*models.Category, error)
	ListByGradebook(ctx context.Context, gradebookID string, includeRemoved bool) ([]models.Category, error)
	ExistsByName(ctx context.Context, gradebookID, name, excludeID string) (bool, error)
	Update(ctx context.Context, category *models.Category) error
	Remove(ctx context.Context, id string, version int) error
}

type assignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	ExistsByName(ctx context.Context, gradebookID, name, excludeID string) (bool, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	Remove(ctx context.Context, id string, version int) error
}

type gradeRecordRepository interface {
	Find(ctx context.Context, studentID, assignmentID string) (*models.GradeRecord, error)
	Save(ctx context.Context, record *models.GradeRecord) error
}

type courseGradeRepository interface {
	Find(ctx context.Context, gradebookID, studentID string) (*models.CourseGradeRecord, error)
	Save(ctx context.Context, record *models.CourseGradeRecord) error
	CountOverrides(ctx context.Context, gradebookID string) (int, error)
}

type enrollmentRepository interface {
	Upsert(ctx context.Context, enrollment *models.GradebookEnrollment) error
	Find(ctx context.Context, gradebookID, studentID string) (*models.GradebookEnrollment, error)
	ListByGradebook(ctx context.Context, gradebookID string, limit, offset int) ([]models.GradebookEnrollment, int, error)
}

type defaultMappingSource interface {
	DefaultGradeMapping() string
}

type gradebookChangeNotifier interface {
	GradebookChanged(ctx context.Context, gradebookID string)
}

// GradebookStores groups the persistence dependencies of GradebookService.
type GradebookStores struct {
	Gradebooks   gradebookRepository
	Categories   categoryRepository
	Assignments  assignmentRepository
	Grades       gradeRecordRepository
	CourseGrades courseGradeRepository
	Enrollments  enrollmentRepository
}

// GradebookService handles instructor writes: gradebook settings, categories,
// assignments, scores, enrollments and course grade overrides.
type GradebookService struct {
	stores     GradebookStores
	properties defaultMappingSource
	notifier   gradebookChangeNotifier
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewGradebookService constructs a GradebookService. properties and notifier may be nil.
func NewGradebookService(stores GradebookStores, properties defaultMappingSource, notifier gradebookChangeNotifier, validate *validator.Validate, logger *zap.Logger) *GradebookService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradebookService{
		stores:     stores,
		properties: properties,
		notifier:   notifier,
		validator:  validate,
		logger:     logger,
	}
}

// CreateGradebook creates a gradebook seeded with the standard grade mappings.
func (s *GradebookService) CreateGradebook(ctx context.Context, req dto.CreateGradebookRequest) (*models.Gradebook, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid gradebook payload")
	}
	uid := strings.TrimSpace(req.UID)
	exists, err := s.stores.Gradebooks.ExistsByUID(ctx, uid)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check gradebook uid")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "gradebook uid already exists")
	}

	mappings := grading.StandardMappings()
	defaultName := grading.DefaultGradeMappingName
	if s.properties != nil {
		defaultName = s.properties.DefaultGradeMapping()
	}
	gradebook := &models.Gradebook{
		ID:                   uuid.NewString(),
		UID:                  uid,
		Name:                 strings.TrimSpace(req.Name),
		GradeType:            models.GradeTypePoints,
		CategoryType:         models.CategoryTypeNone,
		CourseGradeDisplayed: req.CourseGradeDisplayed,
	}
	if req.GradeType != "" {
		gradebook.GradeType = models.GradeType(req.GradeType)
	}
	if req.CategoryType != "" {
		gradebook.CategoryType = models.CategoryType(req.CategoryType)
	}
	for i := range mappings {
		mappings[i].ID = uuid.NewString()
		mappings[i].GradebookID = gradebook.ID
		if mappings[i].Name == defaultName {
			gradebook.SelectedGradeMappingID = mappings[i].ID
		}
	}
	if gradebook.SelectedGradeMappingID == "" {
		gradebook.SelectedGradeMappingID = mappings[0].ID
	}

	if err := s.stores.Gradebooks.Create(ctx, gradebook, mappings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create gradebook")
	}
	s.logger.Info("gradebook created", zap.String("gradebook_id", gradebook.ID), zap.String("uid", gradebook.UID))
	return gradebook, nil
}

// GetGradebook returns a gradebook by id.
func (s *GradebookService) GetGradebook(ctx context.Context, id string) (*models.Gradebook, error) {
	gradebook, err := s.stores.Gradebooks.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "gradebook not found", "failed to load gradebook")
	}
	return gradebook, nil
}

// ListGradeMappings returns the mappings a gradebook may select.
func (s *GradebookService) ListGradeMappings(ctx context.Context, gradebookID string) ([]models.GradeMappingRecord, error) {
	if _, err := s.GetGradebook(ctx, gradebookID); err != nil {
		return nil, err
	}
	mappings, err := s.stores.Gradebooks.ListMappings(ctx, gradebookID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade mappings")
	}
	return mappings, nil
}

// UpdateGradebook changes gradebook settings. The selected mapping may not change while
// any enrolled student has an explicitly entered course grade.
func (s *GradebookService) UpdateGradebook(ctx context.Context, id string, req dto.UpdateGradebookRequest) (*models.Gradebook, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid gradebook payload")
	}
	gradebook, err := s.GetGradebook(ctx, id)
	if err != nil {
		return nil, err
	}
	if gradebook.Version != req.Version {
		return nil, appErrors.Clone(appErrors.ErrStaleWrite, "gradebook was modified by another request")
	}

	if req.Name != nil {
		gradebook.Name = strings.TrimSpace(*req.Name)
	}
	if req.GradeType != nil {
		gradebook.GradeType = models.GradeType(*req.GradeType)
	}
	if req.CategoryType != nil {
		gradebook.CategoryType = models.CategoryType(*req.CategoryType)
	}
	if req.CourseGradeDisplayed != nil {
		gradebook.CourseGradeDisplayed = *req.CourseGradeDisplayed
	}
	if req.SelectedGradeMappingID != nil && *req.SelectedGradeMappingID != gradebook.SelectedGradeMappingID {
		if err := s.ensureMappingChangeAllowed(ctx, gradebook.ID, *req.SelectedGradeMappingID); err != nil {
			return nil, err
		}
		gradebook.SelectedGradeMappingID = *req.SelectedGradeMappingID
	}

	if err := s.stores.Gradebooks.Update(ctx, gradebook); err != nil {
		return nil, storeError(err, "gradebook not found", "failed to update gradebook")
	}
	s.changed(ctx, gradebook.ID)
	return gradebook, nil
}

// ExplicitOverridesExist reports whether any enrolled student has an entered course grade.
func (s *GradebookService) ExplicitOverridesExist(ctx context.Context, gradebookID string) (bool, error) {
	if _, err := s.GetGradebook(ctx, gradebookID); err != nil {
		return false, err
	}
	count, err := s.stores.CourseGrades.CountOverrides(ctx, gradebookID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count course grade overrides")
	}
	return count > 0, nil
}

func (s *GradebookService) ensureMappingChangeAllowed(ctx context.Context, gradebookID, mappingID string) error {
	mapping, err := s.stores.Gradebooks.FindMapping(ctx, mappingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "grade mapping not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade mapping")
	}
	if mapping.GradebookID != gradebookID {
		return appErrors.Clone(appErrors.ErrValidation, "grade mapping belongs to another gradebook")
	}
	count, err := s.stores.CourseGrades.CountOverrides(ctx, gradebookID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count course grade overrides")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "grade mapping cannot change while entered course grades exist")
	}
	return nil
}

// ListCategories returns the live categories of a gradebook.
func (s *GradebookService) ListCategories(ctx context.Context, gradebookID string) ([]models.Category, error) {
	if _, err := s.GetGradebook(ctx, gradebookID); err != nil {
		return nil, err
	}
	categories, err := s.stores.Categories.ListByGradebook(ctx, gradebookID, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// CreateCategory adds a category to a gradebook. A new category has no assignments, so
// it cannot drop any yet.
func (s *GradebookService) CreateCategory(ctx context.Context, gradebookID string, req dto.CategoryRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}
	if req.DropLowest > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "drop lowest can only be set once the category has counted assignments")
	}
	if _, err := s.GetGradebook(ctx, gradebookID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureCategoryNameFree(ctx, gradebookID, name, ""); err != nil {
		return nil, err
	}
	category := &models.Category{
		GradebookID: gradebookID,
		Name:        name,
		Weight:      req.Weight,
		DropLowest:  req.DropLowest,
	}
	if err := s.stores.Categories.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}
	s.changed(ctx, gradebookID)
	return category, nil
}

// UpdateCategory renames or reweights a category. A drop lowest count must leave at
// least one counted assignment in play.
func (s *GradebookService) UpdateCategory(ctx context.Context, gradebookID, categoryID string, req dto.CategoryRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}
	category, err := s.liveCategory(ctx, gradebookID, categoryID)
	if err != nil {
		return nil, err
	}
	if category.Version != req.Version {
		return nil, appErrors.Clone(appErrors.ErrStaleWrite, "category was modified by another request")
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureCategoryNameFree(ctx, gradebookID, name, categoryID); err != nil {
		return nil, err
	}
	if req.DropLowest > 0 {
		counted, err := s.countedInCategory(ctx, gradebookID, categoryID, "")
		if err != nil {
			return nil, err
		}
		if req.DropLowest >= counted {
			return nil, appErrors.Clone(appErrors.ErrValidation, "drop lowest must be less than the number of counted assignments")
		}
	}
	category.Name = name
	category.Weight = req.Weight
	category.DropLowest = req.DropLowest
	if err := s.stores.Categories.Update(ctx, category); err != nil {
		return nil, storeError(err, "category not found", "failed to update category")
	}
	s.changed(ctx, gradebookID)
	return category, nil
}

// RemoveCategory soft-deletes a category. Its assignments become unassigned.
func (s *GradebookService) RemoveCategory(ctx context.Context, gradebookID, categoryID string, version int) error {
	category, err := s.liveCategory(ctx, gradebookID, categoryID)
	if err != nil {
		return err
	}
	if category.Version != version {
		return appErrors.Clone(appErrors.ErrStaleWrite, "category was modified by another request")
	}
	if err := s.stores.Categories.Remove(ctx, categoryID, version); err != nil {
		return storeError(err, "category not found", "failed to remove category")
	}
	s.changed(ctx, gradebookID)
	return nil
}

func (s *GradebookService) liveCategory(ctx context.Context, gradebookID, categoryID string) (*models.Category, error) {
	category, err := s.stores.Categories.FindByID(ctx, categoryID)
	if err != nil {
		return nil, storeError(err, "category not found", "failed to load category")
	}
	if category.GradebookID != gradebookID || category.Removed {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
	}
	return category, nil
}

func (s *GradebookService) ensureCategoryNameFree(ctx context.Context, gradebookID, name, excludeID string) error {
	exists, err := s.stores.Categories.ExistsByName(ctx, gradebookID, name, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "category name already exists")
	}
	return nil
}

// countedInCategory counts the counted assignments of a category, leaving excludeID out.
func (s *GradebookService) countedInCategory(ctx context.Context, gradebookID, categoryID, excludeID string) (int, error) {
	assignments, err := s.stores.Assignments.List(ctx, models.AssignmentFilter{GradebookID: gradebookID, CategoryID: categoryID})
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	counted := 0
	for _, a := range assignments {
		if a.ID != excludeID && a.Aggregatable() {
			counted++
		}
	}
	return counted, nil
}

// ensureDropsFit rejects an assignment write that would leave a category dropping as
// many counted assignments as it holds. counts reports whether the written assignment
// is counted in the category afterwards.
func (s *GradebookService) ensureDropsFit(ctx context.Context, gradebookID string, categoryID *string, assignmentID string, counts bool) error {
	if categoryID == nil || *categoryID == "" {
		return nil
	}
	category, err := s.stores.Categories.FindByID(ctx, *categoryID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	if category.Removed || category.DropLowest == 0 {
		return nil
	}
	counted, err := s.countedInCategory(ctx, gradebookID, category.ID, assignmentID)
	if err != nil {
		return err
	}
	if counts {
		counted++
	}
	if counted > 0 && category.DropLowest >= counted {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("category %q drops the lowest %d and must keep more than %d counted assignments", category.Name, category.DropLowest, category.DropLowest))
	}
	return nil
}

// ListAssignments returns live assignments, optionally within one category.
func (s *GradebookService) ListAssignments(ctx context.Context, gradebookID, categoryID string) ([]models.Assignment, error) {
	if _, err := s.GetGradebook(ctx, gradebookID); err != nil {
		return nil, err
	}
	assignments, err := s.stores.Assignments.List(ctx, models.AssignmentFilter{GradebookID: gradebookID, CategoryID: categoryID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// CreateAssignment adds an assignment to a gradebook.
func (s *GradebookService) CreateAssignment(ctx context.Context, gradebookID string, req dto.AssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if _, err := s.GetGradebook(ctx, gradebookID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureAssignmentNameFree(ctx, gradebookID, name, ""); err != nil {
		return nil, err
	}
	categoryID, err := s.resolveCategory(ctx, gradebookID, req.CategoryID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureDropsFit(ctx, gradebookID, categoryID, "", boolOr(req.Counted, true)); err != nil {
		return nil, err
	}
	assignment := &models.Assignment{
		GradebookID:    gradebookID,
		CategoryID:     categoryID,
		Name:           name,
		PointsPossible: req.PointsPossible,
		DueDate:        req.DueDate,
		Counted:        boolOr(req.Counted, true),
		Released:       boolOr(req.Released, true),
		SortOrder:      req.SortOrder,
	}
	if err := s.stores.Assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	s.changed(ctx, gradebookID)
	return assignment, nil
}

// UpdateAssignment edits an assignment.
func (s *GradebookService) UpdateAssignment(ctx context.Context, gradebookID, assignmentID string, req dto.AssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	assignment, err := s.liveAssignment(ctx, gradebookID, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.Version != req.Version {
		return nil, appErrors.Clone(appErrors.ErrStaleWrite, "assignment was modified by another request")
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureAssignmentNameFree(ctx, gradebookID, name, assignmentID); err != nil {
		return nil, err
	}
	categoryID, err := s.resolveCategory(ctx, gradebookID, req.CategoryID)
	if err != nil {
		return nil, err
	}
	previous := assignment.CategoryID
	counted := boolOr(req.Counted, assignment.Counted)
	moved := !sameCategory(previous, categoryID)
	if err := s.ensureDropsFit(ctx, gradebookID, previous, assignmentID, counted && !moved); err != nil {
		return nil, err
	}
	if moved {
		if err := s.ensureDropsFit(ctx, gradebookID, categoryID, assignmentID, counted); err != nil {
			return nil, err
		}
	}
	assignment.Name = name
	assignment.PointsPossible = req.PointsPossible
	assignment.DueDate = req.DueDate
	assignment.CategoryID = categoryID
	assignment.Counted = counted
	assignment.Released = boolOr(req.Released, assignment.Released)
	if req.SortOrder > 0 {
		assignment.SortOrder = req.SortOrder
	}
	if err := s.stores.Assignments.Update(ctx, assignment); err != nil {
		return nil, storeError(err, "assignment not found", "failed to update assignment")
	}
	s.changed(ctx, gradebookID)
	return assignment, nil
}

// RemoveAssignment soft-deletes an assignment. Its grade records stay in storage but no
// longer enter any computation.
func (s *GradebookService) RemoveAssignment(ctx context.Context, gradebookID, assignmentID string, version int) error {
	assignment, err := s.liveAssignment(ctx, gradebookID, assignmentID)
	if err != nil {
		return err
	}
	if assignment.Version != version {
		return appErrors.Clone(appErrors.ErrStaleWrite, "assignment was modified by another request")
	}
	if err := s.ensureDropsFit(ctx, gradebookID, assignment.CategoryID, assignmentID, false); err != nil {
		return err
	}
	if err := s.stores.Assignments.Remove(ctx, assignmentID, version); err != nil {
		return storeError(err, "assignment not found", "failed to remove assignment")
	}
	s.changed(ctx, gradebookID)
	return nil
}

func (s *GradebookService) liveAssignment(ctx context.Context, gradebookID, assignmentID string) (*models.Assignment, error) {
	assignment, err := s.stores.Assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, storeError(err, "assignment not found", "failed to load assignment")
	}
	if assignment.GradebookID != gradebookID || assignment.Removed {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return assignment, nil
}

func (s *GradebookService) ensureAssignmentNameFree(ctx context.Context, gradebookID, name, excludeID string) error {
	exists, err := s.stores.Assignments.ExistsByName(ctx, gradebookID, name, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "assignment name already exists")
	}
	return nil
}

func (s *GradebookService) resolveCategory(ctx context.Context, gradebookID string, categoryID *string) (*string, error) {
	if categoryID == nil || strings.TrimSpace(*categoryID) == "" {
		return nil, nil
	}
	id := strings.TrimSpace(*categoryID)
	if _, err := s.liveCategory(ctx, gradebookID, id); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrNotFound.Code {
			return nil, appErrors.Clone(appErrors.ErrValidation, "category does not belong to this gradebook")
		}
		return nil, err
	}
	return &id, nil
}

// EnrollStudent adds or renames a student on the gradebook roster.
func (s *GradebookService) EnrollStudent(ctx context.Context, gradebookID, studentID string, req dto.EnrollStudentRequest) (*models.GradebookEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if _, err := s.GetGradebook(ctx, gradebookID); err != nil {
		return nil, err
	}
	enrollment := &models.GradebookEnrollment{
		GradebookID: gradebookID,
		StudentID:   studentID,
		DisplayName: strings.TrimSpace(req.DisplayName),
	}
	if err := s.stores.Enrollments.Upsert(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	s.changed(ctx, gradebookID)
	return enrollment, nil
}

// ListEnrollments returns a page of the roster ordered by display name.
func (s *GradebookService) ListEnrollments(ctx context.Context, gradebookID string, page, pageSize int) ([]models.GradebookEnrollment, *models.Pagination, error) {
	if _, err := s.GetGradebook(ctx, gradebookID); err != nil {
		return nil, nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 25
	}
	enrollments, total, err := s.stores.Enrollments.ListByGradebook(ctx, gradebookID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// SetScore records or clears one student's score. The value is read in the gradebook's
// grade type and stored as points earned.
func (s *GradebookService) SetScore(ctx context.Context, gradebookID, assignmentID, studentID string, req dto.ScoreRequest) (*models.GradeRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	gradebook, err := s.GetGradebook(ctx, gradebookID)
	if err != nil {
		return nil, err
	}
	assignment, err := s.liveAssignment(ctx, gradebookID, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEnrolled(ctx, gradebookID, studentID); err != nil {
		return nil, err
	}
	points, err := s.parseScore(ctx, gradebook, assignment, req.Value)
	if err != nil {
		return nil, err
	}

	record, err := s.stores.Grades.Find(ctx, studentID, assignmentID)
	switch {
	case err == sql.ErrNoRows:
		record = &models.GradeRecord{StudentID: studentID, AssignmentID: assignmentID}
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade record")
	}
	if record.Version != req.Version {
		return nil, appErrors.Clone(appErrors.ErrStaleWrite, "grade record was modified by another request")
	}
	record.PointsEarned = points
	if req.Comment != nil {
		comment := strings.TrimSpace(*req.Comment)
		record.Comment = &comment
		if comment == "" {
			record.Comment = nil
		}
	}
	if err := s.stores.Grades.Save(ctx, record); err != nil {
		return nil, storeError(err, "grade record not found", "failed to save grade record")
	}
	s.changed(ctx, gradebookID)
	return record, nil
}

func (s *GradebookService) parseScore(ctx context.Context, gradebook *models.Gradebook, assignment *models.Assignment, value *string) (*float64, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	raw := strings.TrimSpace(*value)
	var points float64
	switch gradebook.GradeType {
	case models.GradeTypeLetter:
		mapping, err := s.selectedMapping(ctx, gradebook)
		if err != nil {
			return nil, err
		}
		pct, ok := mapping.PercentFor(raw)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("grade %q is not in the selected grade mapping", raw))
		}
		points = pct * assignment.PointsPossible / 100
	case models.GradeTypePercentage:
		pct, err := parseScoreNumber(strings.TrimSuffix(raw, "%"))
		if err != nil {
			return nil, err
		}
		points = pct * assignment.PointsPossible / 100
	default:
		parsed, err := parseScoreNumber(raw)
		if err != nil {
			return nil, err
		}
		points = parsed
	}
	return &points, nil
}

func parseScoreNumber(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, appErrors.Clone(appErrors.ErrValidation, "score must be a number")
	}
	if value < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "score must not be negative")
	}
	return value, nil
}

func (s *GradebookService) selectedMapping(ctx context.Context, gradebook *models.Gradebook) (grading.GradeMapping, error) {
	record, err := s.stores.Gradebooks.FindMapping(ctx, gradebook.SelectedGradeMappingID)
	if err != nil {
		return grading.GradeMapping{}, storeError(err, "grade mapping not found", "failed to load grade mapping")
	}
	mapping, err := grading.MappingFromRecord(*record)
	if err != nil {
		return grading.GradeMapping{}, violationError(s.logger, gradebook.ID, err)
	}
	return mapping, nil
}

func (s *GradebookService) ensureEnrolled(ctx context.Context, gradebookID, studentID string) error {
	if _, err := s.stores.Enrollments.Find(ctx, gradebookID, studentID); err != nil {
		return storeError(err, "student is not enrolled in this gradebook", "failed to load enrollment")
	}
	return nil
}

// SetCourseGradeOverride enters a course grade that takes precedence over the calculated
// letter. The grade must exist in the selected mapping.
func (s *GradebookService) SetCourseGradeOverride(ctx context.Context, gradebookID, studentID string, req dto.CourseGradeOverrideRequest) (*models.CourseGradeRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course grade payload")
	}
	gradebook, err := s.GetGradebook(ctx, gradebookID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEnrolled(ctx, gradebookID, studentID); err != nil {
		return nil, err
	}
	mapping, err := s.selectedMapping(ctx, gradebook)
	if err != nil {
		return nil, err
	}
	canonical, ok := mapping.Canonical(req.Grade)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("grade %q is not in the selected grade mapping", strings.TrimSpace(req.Grade)))
	}

	record, err := s.stores.CourseGrades.Find(ctx, gradebookID, studentID)
	switch {
	case err == sql.ErrNoRows:
		record = &models.CourseGradeRecord{StudentID: studentID, GradebookID: gradebookID}
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course grade")
	}
	if record.Version != req.Version {
		return nil, appErrors.Clone(appErrors.ErrStaleWrite, "course grade was modified by another request")
	}
	record.EnteredGrade = &canonical
	if err := s.stores.CourseGrades.Save(ctx, record); err != nil {
		return nil, storeError(err, "course grade not found", "failed to save course grade")
	}
	s.changed(ctx, gradebookID)
	return record, nil
}

// ClearCourseGradeOverride removes an entered course grade so the calculated letter
// applies again.
func (s *GradebookService) ClearCourseGradeOverride(ctx context.Context, gradebookID, studentID string, version int) (*models.CourseGradeRecord, error) {
	if _, err := s.GetGradebook(ctx, gradebookID); err != nil {
		return nil, err
	}
	record, err := s.stores.CourseGrades.Find(ctx, gradebookID, studentID)
	if err != nil {
		return nil, storeError(err, "course grade not found", "failed to load course grade")
	}
	if record.Version != version {
		return nil, appErrors.Clone(appErrors.ErrStaleWrite, "course grade was modified by another request")
	}
	record.EnteredGrade = nil
	if err := s.stores.CourseGrades.Save(ctx, record); err != nil {
		return nil, storeError(err, "course grade not found", "failed to save course grade")
	}
	s.changed(ctx, gradebookID)
	return record, nil
}

func (s *GradebookService) changed(ctx context.Context, gradebookID string) {
	if s.notifier != nil {
		s.notifier.GradebookChanged(ctx, gradebookID)
	}
}

// storeError maps repository errors onto API errors.
func storeError(err error, notFound, internal string) error {
	switch {
	case err == sql.ErrNoRows:
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	case errors.Is(err, repository.ErrStaleWrite):
		return appErrors.Wrap(err, appErrors.ErrStaleWrite.Code, appErrors.ErrStaleWrite.Status, "record was modified by another request")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
	}
}

// violationError logs an inconsistent gradebook and surfaces it as 422.
func violationError(logger *zap.Logger, gradebookID string, err error) error {
	if errors.Is(err, grading.ErrConfigurationViolation) {
		logger.Error("gradebook configuration violation", zap.String("gradebook_id", gradebookID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrConfigurationViolation.Code, appErrors.ErrConfigurationViolation.Status, appErrors.ErrConfigurationViolation.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute grades")
}

func sameCategory(a, b *string) bool {
	var x, y string
	if a != nil {
		x = *a
	}
	if b != nil {
		y = *b
	}
	return x == y
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
