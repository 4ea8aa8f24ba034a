// Package verification owns the PENDING -> VERIFIED/REJECTED branch of the
// project lifecycle.
package verification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Xombi17/blue-carbon-registry-mvp/internal/auth"
	"github.com/Xombi17/blue-carbon-registry-mvp/internal/projects"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/apperr"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/policy"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/workflows"
)

const defaultVerificationNote = "Project verified successfully"

type Service interface {
	ListPending(ctx context.Context, actor auth.Principal) ([]*projects.Project, error)
	Verify(ctx context.Context, actor auth.Principal, projectID uuid.UUID, notes string) (*projects.Project, error)
	Reject(ctx context.Context, actor auth.Principal, projectID uuid.UUID, notes string) (*projects.Project, error)
}

type verificationService struct {
	repo         projects.Repository
	stateMachine *workflows.StateMachine
	logger       *zap.Logger
}

func NewService(repo projects.Repository, logger *zap.Logger) Service {
	return &verificationService{
		repo:         repo,
		stateMachine: workflows.NewProjectStateMachine(),
		logger:       logger,
	}
}

func (s *verificationService) ListPending(ctx context.Context, actor auth.Principal) ([]*projects.Project, error) {
	if !policy.CanPerform(actor.Role, policy.OpProjectVerify) {
		return nil, apperr.Forbidden("UNAUTHORIZED", "Verifier role required")
	}
	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return pending, nil
}

func (s *verificationService) Verify(ctx context.Context, actor auth.Principal, projectID uuid.UUID, notes string) (*projects.Project, error) {
	if !policy.CanPerform(actor.Role, policy.OpProjectVerify) {
		return nil, apperr.Forbidden("UNAUTHORIZED", "Verifier role required")
	}
	if len(notes) > 1000 {
		return nil, apperr.Validation("VALIDATION_ERROR", "Notes too long")
	}
	if notes == "" {
		notes = defaultVerificationNote
	}

	project, err := s.transition(ctx, actor, projectID, projects.StatusVerified, notes)
	if err != nil {
		return nil, err
	}

	s.logger.Info("project verified",
		zap.String("project_id", projectID.String()),
		zap.String("verifier_id", actor.ID.String()))
	return project, nil
}

func (s *verificationService) Reject(ctx context.Context, actor auth.Principal, projectID uuid.UUID, notes string) (*projects.Project, error) {
	if !policy.CanPerform(actor.Role, policy.OpProjectReject) {
		return nil, apperr.Forbidden("UNAUTHORIZED", "Verifier role required")
	}
	if len(notes) < 10 || len(notes) > 1000 {
		return nil, apperr.Validation("VALIDATION_ERROR", "Rejection reason must be between 10 and 1000 characters")
	}

	project, err := s.transition(ctx, actor, projectID, projects.StatusRejected, notes)
	if err != nil {
		return nil, err
	}

	s.logger.Info("project rejected",
		zap.String("project_id", projectID.String()),
		zap.String("verifier_id", actor.ID.String()))
	return project, nil
}

// transition stamps the verification outcome inside one transaction. The
// verifier id, timestamp and notes are written exactly once, here.
func (s *verificationService) transition(ctx context.Context, actor auth.Principal, projectID uuid.UUID, to projects.Status, notes string) (*projects.Project, error) {
	var result *projects.Project
	err := s.repo.InTx(ctx, func(tx projects.Repository) error {
		project, err := tx.GetByIDForUpdate(ctx, projectID)
		if err != nil {
			return apperr.Internal(err)
		}
		if project == nil {
			return apperr.NotFound("PROJECT_NOT_FOUND", "Project not found")
		}
		if !s.stateMachine.CanTransition(string(project.Status), string(to)) {
			return apperr.InvalidState("ALREADY_PROCESSED", "Project has already been processed")
		}

		now := time.Now()
		project.Status = to
		project.VerifierID = &actor.ID
		project.VerificationTimestamp = &now
		project.VerificationNotes = &notes

		if err := tx.Update(ctx, project); err != nil {
			return apperr.Internal(err)
		}
		result = project
		return nil
	})
	if err != nil {
		return nil, apperr.From(err)
	}
	return result, nil
}
