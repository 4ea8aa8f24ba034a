package projects

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Xombi17/blue-carbon-registry-mvp/internal/auth"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/apperr"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/geospatial"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/policy"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/storage"
)

// Requests

type SubmitProjectRequest struct {
	Name                   string          `json:"name"`
	Description            string          `json:"description"`
	EcosystemType          string          `json:"ecosystemType"`
	Location               string          `json:"location"`
	EstimatedCarbonCapture int             `json:"estimatedCarbonCapture"`
	AreaSize               int             `json:"areaSize"`
	Coordinates            json.RawMessage `json:"coordinates,omitempty"`
	GeoJSONHash            string          `json:"geoJsonHash,omitempty"`
	EvidenceHashes         []string        `json:"evidenceHashes"`
}

type UpdateProjectRequest struct {
	Name                   *string `json:"name"`
	Description            *string `json:"description"`
	Location               *string `json:"location"`
	EstimatedCarbonCapture *int    `json:"estimatedCarbonCapture"`
	AreaSize               *int    `json:"areaSize"`
}

// Service interface
type Service interface {
	Submit(ctx context.Context, actor auth.Principal, req SubmitProjectRequest) (*Project, error)
	Get(ctx context.Context, id uuid.UUID) (*Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]*Project, int64, error)
	Update(ctx context.Context, actor auth.Principal, id uuid.UUID, req UpdateProjectRequest) (*Project, error)
	Delete(ctx context.Context, actor auth.Principal, id uuid.UUID) error
	AddEvidence(ctx context.Context, actor auth.Principal, id uuid.UUID, evidenceHashes []string) ([]EvidenceFile, error)
	ListEvidence(ctx context.Context, id uuid.UUID) ([]EvidenceFile, error)
}

type projectService struct {
	repo   Repository
	ipfs   storage.IPFSClient
	logger *zap.Logger
}

func NewService(repo Repository, ipfs storage.IPFSClient, logger *zap.Logger) Service {
	return &projectService{
		repo:   repo,
		ipfs:   ipfs,
		logger: logger,
	}
}

func validateSubmit(req SubmitProjectRequest) error {
	if len(req.Name) < 3 || len(req.Name) > 200 {
		return apperr.Validation("VALIDATION_ERROR", "Project name must be between 3 and 200 characters")
	}
	if len(req.Description) < 10 || len(req.Description) > 2000 {
		return apperr.Validation("VALIDATION_ERROR", "Description must be between 10 and 2000 characters")
	}
	if !ValidEcosystemType(EcosystemType(req.EcosystemType)) {
		return apperr.Validation("VALIDATION_ERROR", "Invalid ecosystem type")
	}
	if len(req.Location) < 5 || len(req.Location) > 500 {
		return apperr.Validation("VALIDATION_ERROR", "Location must be between 5 and 500 characters")
	}
	if req.EstimatedCarbonCapture < 1 || req.EstimatedCarbonCapture > 1_000_000 {
		return apperr.Validation("VALIDATION_ERROR", "Carbon capture must be between 1 and 1,000,000 tons")
	}
	if req.AreaSize < 1 || req.AreaSize > 1_000_000 {
		return apperr.Validation("VALIDATION_ERROR", "Area size must be between 1 and 1,000,000 hectares")
	}
	if len(req.EvidenceHashes) == 0 {
		return apperr.Validation("VALIDATION_ERROR", "At least one evidence file is required")
	}
	if req.GeoJSONHash != "" && len(req.GeoJSONHash) < 10 {
		return apperr.Validation("VALIDATION_ERROR", "Invalid GeoJSON hash")
	}
	return nil
}

func (s *projectService) Submit(ctx context.Context, actor auth.Principal, req SubmitProjectRequest) (*Project, error) {
	if !policy.CanPerform(actor.Role, policy.OpProjectSubmit) {
		return nil, apperr.Forbidden("UNAUTHORIZED", "Not authorized to submit projects")
	}
	if err := validateSubmit(req); err != nil {
		return nil, err
	}

	project := &Project{
		Name:                   req.Name,
		Description:            req.Description,
		EcosystemType:          EcosystemType(req.EcosystemType),
		Location:               req.Location,
		EstimatedCarbonCapture: req.EstimatedCarbonCapture,
		AreaSize:               req.AreaSize,
		Status:                 StatusPending,
		SubmitterID:            actor.ID,
		SubmissionTimestamp:    time.Now(),
	}

	if len(req.Coordinates) > 0 {
		if _, err := geospatial.ValidateGeoJSON(req.Coordinates); err != nil {
			return nil, apperr.Validation("VALIDATION_ERROR", "Coordinates must be valid GeoJSON")
		}
		project.Coordinates = datatypes.JSON(req.Coordinates)
	}
	if req.GeoJSONHash != "" {
		project.GeoJSONHash = &req.GeoJSONHash
	}

	err := s.repo.InTx(ctx, func(tx Repository) error {
		if err := tx.Create(ctx, project); err != nil {
			return err
		}
		return tx.AddEvidenceFiles(ctx, evidenceFromHashes(project.ID, req.EvidenceHashes, "Evidence File"))
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.logger.Info("project submitted",
		zap.String("project_id", project.ID.String()),
		zap.String("name", project.Name),
		zap.String("submitter_id", actor.ID.String()))

	return project, nil
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if project == nil {
		return nil, apperr.NotFound("PROJECT_NOT_FOUND", "Project not found")
	}
	s.attachEvidenceURLs(project.EvidenceFiles)
	return project, nil
}

func (s *projectService) List(ctx context.Context, filter ProjectFilter) ([]*Project, int64, error) {
	projects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	for _, project := range projects {
		s.attachEvidenceURLs(project.EvidenceFiles)
	}
	return projects, total, nil
}

// guardPendingOwned loads the project with a row lock and applies the
// shared guards for submitter-only, PENDING-only mutations.
func guardPendingOwned(ctx context.Context, tx Repository, actor auth.Principal, id uuid.UUID) (*Project, error) {
	project, err := tx.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if project == nil {
		return nil, apperr.NotFound("PROJECT_NOT_FOUND", "Project not found")
	}
	if project.SubmitterID != actor.ID {
		return nil, apperr.Forbidden("UNAUTHORIZED", "Not authorized to modify this project")
	}
	if project.Status != StatusPending {
		return nil, apperr.InvalidState("INVALID_STATUS", "Cannot modify project that has been processed")
	}
	return project, nil
}

func validateUpdate(req UpdateProjectRequest) error {
	if req.Name != nil && (len(*req.Name) < 3 || len(*req.Name) > 200) {
		return apperr.Validation("VALIDATION_ERROR", "Project name must be between 3 and 200 characters")
	}
	if req.Description != nil && (len(*req.Description) < 10 || len(*req.Description) > 2000) {
		return apperr.Validation("VALIDATION_ERROR", "Description must be between 10 and 2000 characters")
	}
	if req.Location != nil && (len(*req.Location) < 5 || len(*req.Location) > 500) {
		return apperr.Validation("VALIDATION_ERROR", "Location must be between 5 and 500 characters")
	}
	if req.EstimatedCarbonCapture != nil && (*req.EstimatedCarbonCapture < 1 || *req.EstimatedCarbonCapture > 1_000_000) {
		return apperr.Validation("VALIDATION_ERROR", "Carbon capture must be between 1 and 1,000,000 tons")
	}
	if req.AreaSize != nil && (*req.AreaSize < 1 || *req.AreaSize > 1_000_000) {
		return apperr.Validation("VALIDATION_ERROR", "Area size must be between 1 and 1,000,000 hectares")
	}
	return nil
}

func (s *projectService) Update(ctx context.Context, actor auth.Principal, id uuid.UUID, req UpdateProjectRequest) (*Project, error) {
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	var updated *Project
	err := s.repo.InTx(ctx, func(tx Repository) error {
		project, err := guardPendingOwned(ctx, tx, actor, id)
		if err != nil {
			return err
		}

		// Only descriptive attributes are patchable; status and
		// verification fields are owned by their transitions.
		if req.Name != nil {
			project.Name = *req.Name
		}
		if req.Description != nil {
			project.Description = *req.Description
		}
		if req.Location != nil {
			project.Location = *req.Location
		}
		if req.EstimatedCarbonCapture != nil {
			project.EstimatedCarbonCapture = *req.EstimatedCarbonCapture
		}
		if req.AreaSize != nil {
			project.AreaSize = *req.AreaSize
		}

		if err := tx.Update(ctx, project); err != nil {
			return err
		}
		updated = project
		return nil
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.logger.Info("project updated", zap.String("project_id", id.String()))
	return updated, nil
}

func (s *projectService) Delete(ctx context.Context, actor auth.Principal, id uuid.UUID) error {
	err := s.repo.InTx(ctx, func(tx Repository) error {
		project, err := guardPendingOwned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, project.ID); err != nil {
			return err
		}
		s.logger.Info("project deleted",
			zap.String("project_id", id.String()),
			zap.String("name", project.Name))
		return nil
	})
	if err != nil {
		return apperr.From(err)
	}
	return nil
}

func (s *projectService) AddEvidence(ctx context.Context, actor auth.Principal, id uuid.UUID, evidenceHashes []string) ([]EvidenceFile, error) {
	if len(evidenceHashes) == 0 {
		return nil, apperr.Validation("VALIDATION_ERROR", "At least one evidence hash is required")
	}

	files := evidenceFromHashes(id, evidenceHashes, "Additional Evidence")
	err := s.repo.InTx(ctx, func(tx Repository) error {
		if _, err := guardPendingOwned(ctx, tx, actor, id); err != nil {
			return err
		}
		return tx.AddEvidenceFiles(ctx, files)
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.logger.Info("evidence added",
		zap.String("project_id", id.String()),
		zap.Int("count", len(files)))

	s.attachEvidenceURLs(files)
	return files, nil
}

func (s *projectService) ListEvidence(ctx context.Context, id uuid.UUID) ([]EvidenceFile, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if project == nil {
		return nil, apperr.NotFound("PROJECT_NOT_FOUND", "Project not found")
	}
	files, err := s.repo.ListEvidence(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.attachEvidenceURLs(files)
	return files, nil
}

func (s *projectService) attachEvidenceURLs(files []EvidenceFile) {
	for i := range files {
		files[i].URL = s.ipfs.GatewayURL(files[i].IPFSHash)
	}
}

func evidenceFromHashes(projectID uuid.UUID, hashes []string, originalName string) []EvidenceFile {
	now := time.Now()
	files := make([]EvidenceFile, 0, len(hashes))
	for _, hash := range hashes {
		files = append(files, EvidenceFile{
			ProjectID:       projectID,
			Filename:        fmt.Sprintf("evidence_%d.file", now.UnixMilli()),
			OriginalName:    originalName,
			Mimetype:        "application/octet-stream",
			IPFSHash:        hash,
			UploadTimestamp: now,
		})
	}
	return files
}
