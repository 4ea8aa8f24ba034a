package registry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Xombi17/blue-carbon-registry-mvp/internal/credits"
	"github.com/Xombi17/blue-carbon-registry-mvp/internal/projects"
)

// CreditFilter narrows the public credit listing.
type CreditFilter struct {
	Status  *credits.Status
	OwnerID *uuid.UUID
	Page    int
	Limit   int
}

// StatusCount is one row of a group-by-status aggregate.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// EcosystemAggregate is the per-ecosystem rollup behind the public stats.
type EcosystemAggregate struct {
	EcosystemType string `json:"ecosystem_type"`
	ProjectCount  int64  `json:"project_count"`
	TotalArea     int64  `json:"total_area"`
	TotalCarbon   int64  `json:"total_carbon"`
}

// CreditTotals sums issued tonnage by credit status.
type CreditTotals struct {
	Issued      int64 `json:"issued"`
	Active      int64 `json:"active"`
	Transferred int64 `json:"transferred"`
	Retired     int64 `json:"retired"`
}

type Repository interface {
	ListPublicProjects(ctx context.Context, filter projects.ProjectFilter) ([]*projects.Project, int64, error)
	ListMappableProjects(ctx context.Context) ([]*projects.Project, error)
	ListCredits(ctx context.Context, filter CreditFilter) ([]*credits.CarbonCredit, int64, error)
	CountProjectsByStatus(ctx context.Context) ([]StatusCount, error)
	AggregateByEcosystem(ctx context.Context) ([]EcosystemAggregate, error)
	SumCredits(ctx context.Context) (CreditTotals, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// ListPublicProjects only returns projects that passed verification;
// pending and rejected submissions stay off the public registry.
func (r *gormRepository) ListPublicProjects(ctx context.Context, filter projects.ProjectFilter) ([]*projects.Project, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&projects.Project{}).
		Where("status IN ?", []projects.Status{projects.StatusVerified, projects.StatusCreditsIssued})

	if filter.EcosystemType != nil {
		query = query.Where("ecosystem_type = ?", *filter.EcosystemType)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR location ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	var rows []*projects.Project
	err := query.
		Order("verification_timestamp DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListMappableProjects returns every public project that carries
// coordinates, unpaged; the map renders all of them at once.
func (r *gormRepository) ListMappableProjects(ctx context.Context) ([]*projects.Project, error) {
	var rows []*projects.Project
	err := r.db.WithContext(ctx).
		Where("status IN ?", []projects.Status{projects.StatusVerified, projects.StatusCreditsIssued}).
		Where("coordinates IS NOT NULL").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *gormRepository) ListCredits(ctx context.Context, filter CreditFilter) ([]*credits.CarbonCredit, int64, error) {
	query := r.db.WithContext(ctx).Model(&credits.CarbonCredit{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	var rows []*credits.CarbonCredit
	err := query.
		Order("issuance_date DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *gormRepository) CountProjectsByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Model(&projects.Project{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (r *gormRepository) AggregateByEcosystem(ctx context.Context) ([]EcosystemAggregate, error) {
	var rows []EcosystemAggregate
	err := r.db.WithContext(ctx).
		Model(&projects.Project{}).
		Select("ecosystem_type, COUNT(*) AS project_count, COALESCE(SUM(area_size), 0) AS total_area, COALESCE(SUM(estimated_carbon_capture), 0) AS total_carbon").
		Where("status IN ?", []projects.Status{projects.StatusVerified, projects.StatusCreditsIssued}).
		Group("ecosystem_type").
		Scan(&rows).Error
	return rows, err
}

func (r *gormRepository) SumCredits(ctx context.Context) (CreditTotals, error) {
	var totals CreditTotals
	err := r.db.WithContext(ctx).
		Model(&credits.CarbonCredit{}).
		Select(
			"COALESCE(SUM(carbon_amount), 0) AS issued, " +
				"COALESCE(SUM(carbon_amount) FILTER (WHERE status = 'ACTIVE'), 0) AS active, " +
				"COALESCE(SUM(carbon_amount) FILTER (WHERE status = 'TRANSFERRED'), 0) AS transferred, " +
				"COALESCE(SUM(carbon_amount) FILTER (WHERE status = 'RETIRED'), 0) AS retired").
		Scan(&totals).Error
	return totals, err
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}
