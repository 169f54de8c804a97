package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

const gradebookColumns = `id, uid, name, grade_type, category_type, selected_grade_mapping_id, course_grade_displayed, version, created_at, updated_at`

// GradebookRepository persists gradebooks and their grade mappings.
type GradebookRepository struct {
	db *sqlx.DB
}

// NewGradebookRepository constructs the repository.
func NewGradebookRepository(db *sqlx.DB) *GradebookRepository {
	return &GradebookRepository{db: db}
}

// mappingRow is the stored shape of a grade mapping; cutoffs live in a JSONB column.
type mappingRow struct {
	ID          string    `db:"id"`
	GradebookID string    `db:"gradebook_id"`
	Name        string    `db:"name"`
	Cutoffs     []byte    `db:"cutoffs"`
	CreatedAt   time.Time `db:"created_at"`
}

func (m mappingRow) record() (models.GradeMappingRecord, error) {
	record := models.GradeMappingRecord{ID: m.ID, GradebookID: m.GradebookID, Name: m.Name, CreatedAt: m.CreatedAt}
	if err := json.Unmarshal(m.Cutoffs, &record.Cutoffs); err != nil {
		return record, fmt.Errorf("decode grade mapping %s cutoffs: %w", m.ID, err)
	}
	return record, nil
}

// Create inserts a gradebook together with its grade mappings in one transaction. Ids
// are assigned when empty; the caller picks the selected mapping id beforehand.
func (r *GradebookRepository) Create(ctx context.Context, gradebook *models.Gradebook, mappings []models.GradeMappingRecord) error {
	now := time.Now().UTC()
	if gradebook.ID == "" {
		gradebook.ID = uuid.NewString()
	}
	gradebook.Version = 1
	gradebook.CreatedAt = now
	gradebook.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin gradebook tx: %w", err)
	}
	const insertGradebook = `INSERT INTO gradebooks (` + gradebookColumns + `)
VALUES (:id, :uid, :name, :grade_type, :category_type, :selected_grade_mapping_id, :course_grade_displayed, :version, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertGradebook, gradebook); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert gradebook: %w", err)
	}
	const insertMapping = `INSERT INTO grade_mappings (id, gradebook_id, name, cutoffs, created_at)
VALUES (:id, :gradebook_id, :name, :cutoffs, :created_at)`
	for i := range mappings {
		if mappings[i].ID == "" {
			mappings[i].ID = uuid.NewString()
		}
		mappings[i].GradebookID = gradebook.ID
		mappings[i].CreatedAt = now
		cutoffs, err := json.Marshal(mappings[i].Cutoffs)
		if err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("encode grade mapping cutoffs: %w", err)
		}
		row := mappingRow{ID: mappings[i].ID, GradebookID: gradebook.ID, Name: mappings[i].Name, Cutoffs: cutoffs, CreatedAt: now}
		if _, err := tx.NamedExecContext(ctx, insertMapping, row); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert grade mapping: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit gradebook tx: %w", err)
	}
	return nil
}

// FindByID returns a gradebook by id.
func (r *GradebookRepository) FindByID(ctx context.Context, id string) (*models.Gradebook, error) {
	const query = `SELECT ` + gradebookColumns + ` FROM gradebooks WHERE id = $1`
	var gradebook models.Gradebook
	if err := r.db.GetContext(ctx, &gradebook, query, id); err != nil {
		return nil, err
	}
	return &gradebook, nil
}

// ExistsByUID reports whether a gradebook already uses the external uid.
func (r *GradebookRepository) ExistsByUID(ctx context.Context, uid string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM gradebooks WHERE uid = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, uid); err != nil {
		return false, fmt.Errorf("check gradebook uid: %w", err)
	}
	return exists, nil
}

// Update writes mutable gradebook settings if the stored version still matches.
func (r *GradebookRepository) Update(ctx context.Context, gradebook *models.Gradebook) error {
	gradebook.UpdatedAt = time.Now().UTC()
	const query = `UPDATE gradebooks SET name = :name, grade_type = :grade_type, category_type = :category_type,
    selected_grade_mapping_id = :selected_grade_mapping_id, course_grade_displayed = :course_grade_displayed,
    version = version + 1, updated_at = :updated_at
WHERE id = :id AND version = :version`
	res, err := r.db.NamedExecContext(ctx, query, gradebook)
	if err != nil {
		return fmt.Errorf("update gradebook: %w", err)
	}
	if err := expectVersioned(res, "update gradebook"); err != nil {
		return err
	}
	gradebook.Version++
	return nil
}

// ListMappings returns the grade mappings owned by a gradebook.
func (r *GradebookRepository) ListMappings(ctx context.Context, gradebookID string) ([]models.GradeMappingRecord, error) {
	const query = `SELECT id, gradebook_id, name, cutoffs, created_at FROM grade_mappings WHERE gradebook_id = $1 ORDER BY created_at ASC, name ASC`
	var rows []mappingRow
	if err := r.db.SelectContext(ctx, &rows, query, gradebookID); err != nil {
		return nil, fmt.Errorf("list grade mappings: %w", err)
	}
	records := make([]models.GradeMappingRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.record()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// FindMapping returns one grade mapping by id.
func (r *GradebookRepository) FindMapping(ctx context.Context, id string) (*models.GradeMappingRecord, error) {
	const query = `SELECT id, gradebook_id, name, cutoffs, created_at FROM grade_mappings WHERE id = $1`
	var row mappingRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	record, err := row.record()
	if err != nil {
		return nil, err
	}
	return &record, nil
}
