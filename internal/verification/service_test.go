package verification

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xombi17/blue-carbon-registry-mvp/internal/auth"
	"github.com/Xombi17/blue-carbon-registry-mvp/internal/projects"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/apperr"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/policy"
)

// MockRepository is a mock implementation of the projects.Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) InTx(ctx context.Context, fn func(projects.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) Create(ctx context.Context, project *projects.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*projects.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projects.Project), args.Error(1)
}

func (m *MockRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*projects.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projects.Project), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter projects.ProjectFilter) ([]*projects.Project, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*projects.Project), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) ListPending(ctx context.Context) ([]*projects.Project, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*projects.Project), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, project *projects.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) AddEvidenceFiles(ctx context.Context, files []projects.EvidenceFile) error {
	args := m.Called(ctx, files)
	return args.Error(0)
}

func (m *MockRepository) ListEvidence(ctx context.Context, projectID uuid.UUID) ([]projects.EvidenceFile, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]projects.EvidenceFile), args.Error(1)
}

func verifierActor() auth.Principal {
	return auth.Principal{ID: uuid.New(), Role: policy.RoleVerifier}
}

func TestVerifyPendingProject(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())
	ctx := context.Background()
	actor := verifierActor()
	id := uuid.New()

	mockRepo.On("GetByIDForUpdate", ctx, id).Return(&projects.Project{
		ID: id, Status: projects.StatusPending,
	}, nil)
	mockRepo.On("Update", ctx, mock.AnythingOfType("*projects.Project")).Return(nil)

	project, err := service.Verify(ctx, actor, id, "")

	require.NoError(t, err)
	assert.Equal(t, projects.StatusVerified, project.Status)
	assert.Equal(t, actor.ID, *project.VerifierID)
	assert.NotNil(t, project.VerificationTimestamp)
	assert.Equal(t, "Project verified successfully", *project.VerificationNotes)

	mockRepo.AssertExpectations(t)
}

func TestVerifyRequiresVerifierRole(t *testing.T) {
	service := NewService(new(MockRepository), zap.NewNop())

	actor := auth.Principal{ID: uuid.New(), Role: policy.RoleCommunity}
	_, err := service.Verify(context.Background(), actor, uuid.New(), "")
	assert.True(t, apperr.HasCode(err, "UNAUTHORIZED"))
}

func TestVerifyAlreadyProcessed(t *testing.T) {
	ctx := context.Background()
	actor := verifierActor()

	for _, status := range []projects.Status{
		projects.StatusVerified, projects.StatusRejected, projects.StatusCreditsIssued,
	} {
		mockRepo := new(MockRepository)
		service := NewService(mockRepo, zap.NewNop())
		id := uuid.New()
		mockRepo.On("GetByIDForUpdate", ctx, id).Return(&projects.Project{ID: id, Status: status}, nil)

		_, err := service.Verify(ctx, actor, id, "")
		assert.True(t, apperr.HasCode(err, "ALREADY_PROCESSED"), "status %s", status)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	}
}

func TestRejectStampsNotes(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())
	ctx := context.Background()
	actor := verifierActor()
	id := uuid.New()

	mockRepo.On("GetByIDForUpdate", ctx, id).Return(&projects.Project{
		ID: id, Status: projects.StatusPending,
	}, nil)
	mockRepo.On("Update", ctx, mock.AnythingOfType("*projects.Project")).Return(nil)

	project, err := service.Reject(ctx, actor, id, "insufficient evidence provided")

	require.NoError(t, err)
	assert.Equal(t, projects.StatusRejected, project.Status)
	assert.Equal(t, "insufficient evidence provided", *project.VerificationNotes)
}

func TestRejectNotesBounds(t *testing.T) {
	service := NewService(new(MockRepository), zap.NewNop())
	ctx := context.Background()
	actor := verifierActor()

	_, err := service.Reject(ctx, actor, uuid.New(), "too short")
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))

	_, err = service.Reject(ctx, actor, uuid.New(), strings.Repeat("x", 1001))
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
}

func TestVerifyNotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())
	ctx := context.Background()
	id := uuid.New()

	mockRepo.On("GetByIDForUpdate", ctx, id).Return(nil, nil)

	_, err := service.Verify(ctx, verifierActor(), id, "")
	assert.True(t, apperr.HasCode(err, "PROJECT_NOT_FOUND"))
}

func TestListPendingRequiresRole(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())
	ctx := context.Background()

	_, err := service.ListPending(ctx, auth.Principal{Role: policy.RoleCommunity})
	assert.True(t, apperr.HasCode(err, "UNAUTHORIZED"))

	mockRepo.On("ListPending", ctx).Return([]*projects.Project{}, nil)
	pending, err := service.ListPending(ctx, verifierActor())
	require.NoError(t, err)
	assert.Empty(t, pending)
}
