package service

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

// PropertyDefaultGradeMapping names the mapping selected for new gradebooks.
const PropertyDefaultGradeMapping = "default_grade_mapping"

var propertyNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_.]{0,127}$`)

var builtinPropertyDefaults = map[string]string{
	PropertyDefaultGradeMapping: grading.DefaultGradeMappingName,
}

type propertyRepository interface {
	List(ctx context.Context) ([]models.GradebookProperty, error)
	Upsert(ctx context.Context, prop *models.GradebookProperty) error
}

// PropertyService keeps deployment properties in memory. Readers see an immutable
// snapshot that is replaced wholesale on Refresh and Set.
type PropertyService struct {
	repo      propertyRepository
	validator *validator.Validate
	logger    *zap.Logger

	mu       sync.RWMutex
	values   map[string]string
	writeMux sync.Mutex
}

// NewPropertyService constructs a PropertyService. Call Refresh before serving reads.
func NewPropertyService(repo propertyRepository, validate *validator.Validate, logger *zap.Logger) *PropertyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropertyService{
		repo:      repo,
		validator: validate,
		logger:    logger,
		values:    withDefaults(nil),
	}
}

// Load primes the snapshot at startup.
func (s *PropertyService) Load(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Refresh reloads every property from storage.
func (s *PropertyService) Refresh(ctx context.Context) error {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load properties")
	}
	next := withDefaults(rows)
	s.mu.Lock()
	s.values = next
	s.mu.Unlock()
	s.logger.Debug("properties refreshed", zap.Int("count", len(next)))
	return nil
}

// Value returns a property from the current snapshot.
func (s *PropertyService) Value(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[name]
	return value, ok
}

// List returns the snapshot sorted by name.
func (s *PropertyService) List() []dto.PropertyItem {
	s.mu.RLock()
	items := make([]dto.PropertyItem, 0, len(s.values))
	for name, value := range s.values {
		items = append(items, dto.PropertyItem{Name: name, Value: value})
	}
	s.mu.RUnlock()
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

// Set writes a property through to storage and publishes a new snapshot.
func (s *PropertyService) Set(ctx context.Context, name string, req dto.UpdatePropertyRequest) (*dto.PropertyItem, error) {
	name = strings.TrimSpace(name)
	if !propertyNamePattern.MatchString(name) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid property name")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid property payload")
	}
	value := strings.TrimSpace(req.Value)
	if name == PropertyDefaultGradeMapping && !isStandardMapping(value) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown grade mapping name")
	}

	s.writeMux.Lock()
	defer s.writeMux.Unlock()
	prop := &models.GradebookProperty{Name: name, Value: value}
	if err := s.repo.Upsert(ctx, prop); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update property")
	}

	s.mu.RLock()
	next := make(map[string]string, len(s.values)+1)
	for k, v := range s.values {
		next[k] = v
	}
	s.mu.RUnlock()
	next[name] = value

	s.mu.Lock()
	s.values = next
	s.mu.Unlock()
	s.logger.Info("property updated", zap.String("name", name))
	return &dto.PropertyItem{Name: name, Value: value}, nil
}

// DefaultGradeMapping returns the name of the mapping new gradebooks select.
func (s *PropertyService) DefaultGradeMapping() string {
	if s == nil {
		return grading.DefaultGradeMappingName
	}
	if value, ok := s.Value(PropertyDefaultGradeMapping); ok && isStandardMapping(value) {
		return value
	}
	return grading.DefaultGradeMappingName
}

func withDefaults(rows []models.GradebookProperty) map[string]string {
	values := make(map[string]string, len(builtinPropertyDefaults)+len(rows))
	for name, value := range builtinPropertyDefaults {
		values[name] = value
	}
	for _, row := range rows {
		values[row.Name] = row.Value
	}
	return values
}

func isStandardMapping(name string) bool {
	for _, m := range grading.StandardMappings() {
		if m.Name == name {
			return true
		}
	}
	return false
}
