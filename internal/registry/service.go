package registry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Xombi17/blue-carbon-registry-mvp/internal/credits"
	"github.com/Xombi17/blue-carbon-registry-mvp/internal/projects"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/apperr"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/geospatial"
)

// Stats is the public registry snapshot. The cron job refreshes it on a
// fixed schedule so the dashboard endpoints never fan out aggregate queries
// per request.
type Stats struct {
	TotalProjects    int64                `json:"total_projects"`
	ProjectsByStatus []StatusCount        `json:"projects_by_status"`
	Credits          CreditTotals         `json:"credits"`
	Ecosystems       []EcosystemAggregate `json:"ecosystems"`
	GeneratedAt      time.Time            `json:"generated_at"`
}

// MapFeature is one GeoJSON feature on the public project map.
type MapFeature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties MapProperties   `json:"properties"`
}

type MapProperties struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	EcosystemType    string     `json:"ecosystemType"`
	Location         string     `json:"location"`
	CarbonCapture    int        `json:"carbonCapture"`
	AreaSize         int        `json:"areaSize"`
	VerificationDate *time.Time `json:"verificationDate,omitempty"`
	Status           string     `json:"status"`
	HasCredits       bool       `json:"hasCredits"`
	Centroid         [2]float64 `json:"centroid"` // lon, lat
	GeometryHectares float64    `json:"geometryHectares"`
}

// MapData is a GeoJSON FeatureCollection of all mappable projects.
type MapData struct {
	Type     string       `json:"type"`
	Features []MapFeature `json:"features"`
}

type Service interface {
	ListProjects(ctx context.Context, filter projects.ProjectFilter) ([]*projects.Project, int64, error)
	ListCredits(ctx context.Context, filter CreditFilter) ([]*credits.CarbonCredit, int64, error)
	MapData(ctx context.Context) (*MapData, error)
	Stats(ctx context.Context) (*Stats, error)
	EcosystemStats(ctx context.Context, ecosystem projects.EcosystemType) (*EcosystemAggregate, error)
	Refresh(ctx context.Context) error
}

type registryService struct {
	repo   Repository
	logger *zap.Logger

	mu       sync.RWMutex
	snapshot *Stats
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &registryService{repo: repo, logger: logger}
}

func (s *registryService) ListProjects(ctx context.Context, filter projects.ProjectFilter) ([]*projects.Project, int64, error) {
	rows, total, err := s.repo.ListPublicProjects(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return rows, total, nil
}

func (s *registryService) ListCredits(ctx context.Context, filter CreditFilter) ([]*credits.CarbonCredit, int64, error) {
	rows, total, err := s.repo.ListCredits(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return rows, total, nil
}

// MapData renders every public project with coordinates as a GeoJSON
// feature. Projects whose stored coordinates fail to parse are skipped
// rather than breaking the whole map.
func (s *registryService) MapData(ctx context.Context) (*MapData, error) {
	rows, err := s.repo.ListMappableProjects(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	features := make([]MapFeature, 0, len(rows))
	for _, project := range rows {
		if len(project.Coordinates) == 0 {
			continue
		}
		geom, err := geospatial.ValidateGeoJSON(project.Coordinates)
		if err != nil {
			s.logger.Warn("skipping project with unparseable coordinates",
				zap.String("project_id", project.ID.String()), zap.Error(err))
			continue
		}

		centroid := geospatial.CalculateCentroid(geom)
		area := geospatial.ConvertToHectares(geospatial.CalculateArea(geom))

		features = append(features, MapFeature{
			Type:     "Feature",
			Geometry: json.RawMessage(project.Coordinates),
			Properties: MapProperties{
				ID:               project.ID.String(),
				Name:             project.Name,
				EcosystemType:    string(project.EcosystemType),
				Location:         project.Location,
				CarbonCapture:    project.EstimatedCarbonCapture,
				AreaSize:         project.AreaSize,
				VerificationDate: project.VerificationTimestamp,
				Status:           string(project.Status),
				HasCredits:       project.Status == projects.StatusCreditsIssued,
				Centroid:         [2]float64{centroid.Lon(), centroid.Lat()},
				GeometryHectares: area,
			},
		})
	}

	return &MapData{Type: "FeatureCollection", Features: features}, nil
}

// Stats serves the cached snapshot, computing it on first use.
func (s *registryService) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	snapshot := s.snapshot
	s.mu.RUnlock()
	if snapshot != nil {
		return snapshot, nil
	}

	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, nil
}

func (s *registryService) EcosystemStats(ctx context.Context, ecosystem projects.EcosystemType) (*EcosystemAggregate, error) {
	if !projects.ValidEcosystemType(ecosystem) {
		return nil, apperr.Validation("VALIDATION_ERROR", "Unknown ecosystem type")
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	for i := range stats.Ecosystems {
		if stats.Ecosystems[i].EcosystemType == string(ecosystem) {
			return &stats.Ecosystems[i], nil
		}
	}
	// Nothing verified under that ecosystem yet.
	return &EcosystemAggregate{EcosystemType: string(ecosystem)}, nil
}

// Refresh recomputes the snapshot. The cron scheduler calls this on the
// configured interval.
func (s *registryService) Refresh(ctx context.Context) error {
	byStatus, err := s.repo.CountProjectsByStatus(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	var total int64
	for _, row := range byStatus {
		total += row.Count
	}

	creditTotals, err := s.repo.SumCredits(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	ecosystems, err := s.repo.AggregateByEcosystem(ctx)
	if err != nil {
		return apperr.Internal(err)
	}

	snapshot := &Stats{
		TotalProjects:    total,
		ProjectsByStatus: byStatus,
		Credits:          creditTotals,
		Ecosystems:       ecosystems,
		GeneratedAt:      time.Now().UTC(),
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	s.logger.Debug("registry stats refreshed",
		zap.Int64("total_projects", total),
		zap.Int64("credits_issued", creditTotals.Issued))
	return nil
}
