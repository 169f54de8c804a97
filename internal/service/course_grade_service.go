package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/display"
	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

const rosterCachePrefix = "roster:"

type snapshotLoader interface {
	Load(ctx context.Context, gradebookID string, studentIDs []string) (*models.GradebookSnapshot, error)
}

// RosterConfig tunes roster paging and caching.
type RosterConfig struct {
	CacheTTL        time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

// CourseGradeService computes grades from gradebook snapshots for instructors and
// students.
type CourseGradeService struct {
	snapshots snapshotLoader
	engine    grading.Engine
	formatter *display.Formatter
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       RosterConfig
}

// NewCourseGradeService constructs a CourseGradeService. cache and metrics may be nil.
func NewCourseGradeService(snapshots snapshotLoader, engine grading.Engine, formatter *display.Formatter, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg RosterConfig) *CourseGradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 25
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
	}
	return &CourseGradeService{
		snapshots: snapshots,
		engine:    engine,
		formatter: formatter,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// StudentSummary returns the instructor's view of one student: every live assignment,
// category results and the course grade.
func (s *CourseGradeService) StudentSummary(ctx context.Context, gradebookID, studentID string) (*dto.StudentSummary, error) {
	snapshot, mapping, err := s.load(ctx, gradebookID, []string{studentID})
	if err != nil {
		return nil, err
	}
	return s.summarize(snapshot, mapping, studentID, false)
}

// StudentView returns what the student may see: released assignments, categories over
// released work, and the course grade only when the gradebook displays it.
func (s *CourseGradeService) StudentView(ctx context.Context, gradebookID, studentID string) (*dto.StudentSummary, error) {
	snapshot, mapping, err := s.load(ctx, gradebookID, []string{studentID})
	if err != nil {
		return nil, err
	}
	return s.summarize(snapshot, mapping, studentID, true)
}

// Roster returns one page of course grades with class averages.
func (s *CourseGradeService) Roster(ctx context.Context, gradebookID string, query dto.RosterQuery) (*dto.Roster, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid roster query")
	}
	page, size := s.normalizePage(query.Page, query.PageSize)

	full, hit, err := LoadThrough(ctx, s.cache, rosterCacheKey(gradebookID), s.cfg.CacheTTL, func(ctx context.Context) (dto.Roster, error) {
		computed, err := s.computeRoster(ctx, gradebookID)
		if err != nil {
			return dto.Roster{}, err
		}
		return *computed, nil
	})
	if err != nil {
		return nil, err
	}

	full.Rows = append([]dto.RosterRow(nil), full.Rows...)
	sortRosterRows(full.Rows, query.Sort, query.Order)
	total := len(full.Rows)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	full.Rows = full.Rows[start:end]
	full.Pagination = &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	full.CacheHit = hit
	return &full, nil
}

// RefreshRoster recomputes and caches the full roster of a gradebook.
func (s *CourseGradeService) RefreshRoster(ctx context.Context, gradebookID string) error {
	if !s.cache.Enabled() {
		return nil
	}
	roster, err := s.computeRoster(ctx, gradebookID)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, rosterCacheKey(gradebookID), roster, s.cfg.CacheTTL)
}

// InvalidateRoster drops every cached roster view of a gradebook.
func (s *CourseGradeService) InvalidateRoster(ctx context.Context, gradebookID string) error {
	return s.cache.Invalidate(ctx, rosterCachePrefix+gradebookID+":*")
}

func (s *CourseGradeService) load(ctx context.Context, gradebookID string, studentIDs []string) (*models.GradebookSnapshot, grading.GradeMapping, error) {
	start := time.Now()
	snapshot, err := s.snapshots.Load(ctx, gradebookID, studentIDs)
	s.metrics.ObserveSnapshotLoad(time.Since(start))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, grading.GradeMapping{}, appErrors.Clone(appErrors.ErrNotFound, "gradebook not found")
		}
		return nil, grading.GradeMapping{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gradebook snapshot")
	}
	mapping, err := grading.MappingFromRecord(snapshot.Mapping)
	if err != nil {
		s.metrics.ObserveComputation("mapping", 0, true)
		return nil, grading.GradeMapping{}, violationError(s.logger, gradebookID, err)
	}
	return snapshot, mapping, nil
}

func (s *CourseGradeService) summarize(snapshot *models.GradebookSnapshot, mapping grading.GradeMapping, studentID string, studentView bool) (*dto.StudentSummary, error) {
	gradebook := snapshot.Gradebook
	enrollment, ok := findEnrollment(snapshot.Enrollments, studentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this gradebook")
	}

	start := time.Now()
	in := courseInput(snapshot, studentID, snapshot.Assignments)
	course, err := s.engine.ComputeCourseGrade(gradebook, mapping, in)
	if err == nil && studentView {
		course.Categories, err = s.engine.ComputeReleasedCategories(gradebook, in)
	}
	s.metrics.ObserveComputation("student", time.Since(start), errors.Is(err, grading.ErrConfigurationViolation))
	if err != nil {
		return nil, violationError(s.logger, gradebook.ID, err)
	}

	dropped := make(map[string]struct{})
	for _, c := range course.Categories {
		for _, id := range c.Dropped {
			dropped[id] = struct{}{}
		}
	}
	records := make(map[string]models.GradeRecord, len(snapshot.Records[studentID]))
	for _, r := range snapshot.Records[studentID] {
		records[r.AssignmentID] = r
	}

	summary := &dto.StudentSummary{
		GradebookID: gradebook.ID,
		StudentID:   studentID,
		DisplayName: enrollment.DisplayName,
		GradeType:   gradebook.GradeType,
		Assignments: []dto.AssignmentView{},
	}
	for _, a := range orderedAssignments(snapshot.Assignments) {
		if a.Removed || (studentView && !a.Released) {
			continue
		}
		var record *models.GradeRecord
		if r, ok := records[a.ID]; ok {
			record = &r
		}
		result := grading.ComputeAssignmentResult(gradebook, mapping, a, record)
		_, result.Dropped = dropped[a.ID]
		summary.Assignments = append(summary.Assignments, dto.AssignmentView{AssignmentResult: result, Formatted: s.formatter.Format(result)})
	}
	for _, c := range course.Categories {
		summary.Categories = append(summary.Categories, dto.CategoryView{CategoryResult: c, Formatted: s.formatter.Format(c)})
	}
	if !studentView || gradebook.CourseGradeDisplayed {
		view := s.courseView(course)
		summary.CourseGrade = &view
	}
	return summary, nil
}

func (s *CourseGradeService) computeRoster(ctx context.Context, gradebookID string) (*dto.Roster, error) {
	snapshot, mapping, err := s.load(ctx, gradebookID, nil)
	if err != nil {
		return nil, err
	}
	gradebook := snapshot.Gradebook

	start := time.Now()
	roster := &dto.Roster{
		GradebookID: gradebook.ID,
		MappingName: mapping.Name,
		Rows:        make([]dto.RosterRow, 0, len(snapshot.Enrollments)),
	}
	results := make([]grading.CourseGradeResult, 0, len(snapshot.Enrollments))
	var enrolledRecords []models.GradeRecord
	for _, e := range snapshot.Enrollments {
		course, err := s.engine.ComputeCourseGrade(gradebook, mapping, courseInput(snapshot, e.StudentID, snapshot.Assignments))
		if err != nil {
			s.metrics.ObserveComputation("roster", time.Since(start), errors.Is(err, grading.ErrConfigurationViolation))
			return nil, violationError(s.logger, gradebook.ID, err)
		}
		results = append(results, course)
		enrolledRecords = append(enrolledRecords, snapshot.Records[e.StudentID]...)
		roster.Rows = append(roster.Rows, dto.RosterRow{
			StudentID:   e.StudentID,
			DisplayName: e.DisplayName,
			CourseGrade: s.courseView(course),
		})
	}

	for _, a := range orderedAssignments(snapshot.Assignments) {
		if a.Removed {
			continue
		}
		avg := grading.AssignmentAverage(gradebook, a, enrolledRecords)
		roster.Averages.Assignments = append(roster.Averages.Assignments, dto.AssignmentView{AssignmentResult: avg, Formatted: s.formatter.Format(avg)})
	}
	for _, c := range categoriesOf(results) {
		var perStudent []grading.CategoryResult
		for _, r := range results {
			perStudent = append(perStudent, r.Categories...)
		}
		avg := grading.CategoryAverage(c, perStudent)
		roster.Averages.Categories = append(roster.Averages.Categories, dto.CategoryView{CategoryResult: avg, Formatted: s.formatter.Format(avg)})
	}
	roster.Averages.CourseGrade = s.courseView(grading.CourseAverage(mapping, results))
	s.metrics.ObserveComputation("roster", time.Since(start), false)
	s.logger.Debug("roster computed", zap.String("gradebook_id", gradebook.ID), zap.Int("students", len(roster.Rows)))
	return roster, nil
}

func (s *CourseGradeService) courseView(result grading.CourseGradeResult) dto.CourseGradeView {
	return dto.CourseGradeView{
		CourseGradeResult: result,
		Formatted:         s.formatter.Format(result),
		FormattedLetter:   s.formatter.CourseLetter(result),
	}
}

func (s *CourseGradeService) normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = s.cfg.DefaultPageSize
	}
	if size > s.cfg.MaxPageSize {
		size = s.cfg.MaxPageSize
	}
	return page, size
}

func rosterCacheKey(gradebookID string) string {
	return fmt.Sprintf("%s%s:full", rosterCachePrefix, gradebookID)
}

func courseInput(snapshot *models.GradebookSnapshot, studentID string, assignments []models.Assignment) grading.CourseInput {
	in := grading.CourseInput{
		StudentID:   studentID,
		Categories:  snapshot.Categories,
		Assignments: assignments,
	}
	live := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		live[a.ID] = struct{}{}
	}
	for _, r := range snapshot.Records[studentID] {
		if _, ok := live[r.AssignmentID]; ok {
			in.Records = append(in.Records, r)
		}
	}
	if record, ok := snapshot.CourseGrades[studentID]; ok {
		in.CourseGrade = &record
	}
	return in
}

func orderedAssignments(assignments []models.Assignment) []models.Assignment {
	ordered := make([]models.Assignment, len(assignments))
	copy(ordered, assignments)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].SortOrder != ordered[j].SortOrder {
			return ordered[i].SortOrder < ordered[j].SortOrder
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

// categoriesOf lists the categories that appear in any student's result, in result order.
func categoriesOf(results []grading.CourseGradeResult) []models.Category {
	seen := make(map[string]struct{})
	var categories []models.Category
	for _, r := range results {
		for _, c := range r.Categories {
			if _, ok := seen[c.CategoryID]; ok {
				continue
			}
			seen[c.CategoryID] = struct{}{}
			categories = append(categories, models.Category{ID: c.CategoryID, Name: c.Name, Weight: c.Weight})
		}
	}
	return categories
}

func findEnrollment(enrollments []models.GradebookEnrollment, studentID string) (models.GradebookEnrollment, bool) {
	for _, e := range enrollments {
		if e.StudentID == studentID {
			return e, true
		}
	}
	return models.GradebookEnrollment{}, false
}

// sortRosterRows orders by display name or by calculated percentage. Students without a
// percentage always sort last.
func sortRosterRows(rows []dto.RosterRow, by, order string) {
	desc := strings.EqualFold(order, "desc")
	byName := func(a, b dto.RosterRow) bool {
		an, bn := strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)
		if an != bn {
			return an < bn
		}
		return a.StudentID < b.StudentID
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if by == "course_grade" {
			pa, pb := a.CourseGrade.Percentage, b.CourseGrade.Percentage
			switch {
			case pa == nil && pb == nil:
				return byName(a, b)
			case pa == nil:
				return false
			case pb == nil:
				return true
			case *pa != *pb:
				if desc {
					return *pa > *pb
				}
				return *pa < *pb
			}
			return byName(a, b)
		}
		if desc {
			return byName(b, a)
		}
		return byName(a, b)
	})
}
