package projects

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectFilter narrows List results.
type ProjectFilter struct {
	Status        *Status
	EcosystemType *EcosystemType
	SubmitterID   *uuid.UUID
	Search        string
	Page          int
	Limit         int
}

type Repository interface {
	// InTx runs fn inside a single database transaction. The Repository
	// passed to fn shares that transaction.
	InTx(ctx context.Context, fn func(Repository) error) error

	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]*Project, int64, error)
	ListPending(ctx context.Context) ([]*Project, error)
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddEvidenceFiles(ctx context.Context, files []EvidenceFile) error
	ListEvidence(ctx context.Context, projectID uuid.UUID) ([]EvidenceFile, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) InTx(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) Create(ctx context.Context, project *Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	var project Project
	err := r.db.WithContext(ctx).
		Preload("EvidenceFiles").
		First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *gormRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Project, error) {
	var project Project
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *gormRepository) List(ctx context.Context, filter ProjectFilter) ([]*Project, int64, error) {
	query := r.db.WithContext(ctx).Model(&Project{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.EcosystemType != nil {
		query = query.Where("ecosystem_type = ?", *filter.EcosystemType)
	}
	if filter.SubmitterID != nil {
		query = query.Where("submitter_id = ?", *filter.SubmitterID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"name ILIKE ? OR description ILIKE ? OR location ILIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	var projects []*Project
	err := query.
		Preload("EvidenceFiles").
		Order("submission_timestamp DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&projects).Error
	return projects, total, err
}

func (r *gormRepository) ListPending(ctx context.Context) ([]*Project, error) {
	var projects []*Project
	err := r.db.WithContext(ctx).
		Preload("EvidenceFiles").
		Where("status = ?", StatusPending).
		Order("submission_timestamp ASC").
		Find(&projects).Error
	return projects, err
}

func (r *gormRepository) Update(ctx context.Context, project *Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Evidence rows go first; the FK cascade covers fresh schemas but not
	// databases migrated before the constraint existed.
	if err := r.db.WithContext(ctx).Where("project_id = ?", id).Delete(&EvidenceFile{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&Project{}, "id = ?", id).Error
}

func (r *gormRepository) AddEvidenceFiles(ctx context.Context, files []EvidenceFile) error {
	if len(files) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&files).Error
}

func (r *gormRepository) ListEvidence(ctx context.Context, projectID uuid.UUID) ([]EvidenceFile, error) {
	var files []EvidenceFile
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("upload_timestamp ASC").
		Find(&files).Error
	return files, err
}
