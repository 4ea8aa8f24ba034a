package credits

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
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/chain"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/pdf"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/policy"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/storage"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) InTx(ctx context.Context, fn func(Repository) error) error {
	return fn(m)
}

func (m *MockRepository) CreateCredit(ctx context.Context, credit *CarbonCredit) error {
	args := m.Called(ctx, credit)
	return args.Error(0)
}

func (m *MockRepository) GetCreditByID(ctx context.Context, id uuid.UUID) (*CarbonCredit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CarbonCredit), args.Error(1)
}

func (m *MockRepository) GetCreditByIDForUpdate(ctx context.Context, id uuid.UUID) (*CarbonCredit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CarbonCredit), args.Error(1)
}

func (m *MockRepository) GetCreditByProjectID(ctx context.Context, projectID uuid.UUID) (*CarbonCredit, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CarbonCredit), args.Error(1)
}

func (m *MockRepository) UpdateCredit(ctx context.Context, credit *CarbonCredit) error {
	args := m.Called(ctx, credit)
	return args.Error(0)
}

func (m *MockRepository) CreateTransaction(ctx context.Context, txn *CreditTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockRepository) ListTransactions(ctx context.Context, filter TransactionFilter) ([]*CreditTransaction, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*CreditTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) GetProjectByID(ctx context.Context, id uuid.UUID) (*projects.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projects.Project), args.Error(1)
}

func (m *MockRepository) GetProjectForUpdate(ctx context.Context, id uuid.UUID) (*projects.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projects.Project), args.Error(1)
}

func (m *MockRepository) UpdateProjectStatus(ctx context.Context, id uuid.UUID, status projects.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockRepository) GetUserByWallet(ctx context.Context, wallet string) (*auth.User, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

const testWallet = "0x1111111111111111111111111111111111111111"

func newTestService(repo Repository) Service {
	return NewService(repo, chain.NewMockClient(chain.MockConfig{}), pdf.NewGenerator(), storage.NewIPFSClient(""), zap.NewNop())
}

func adminActor() auth.Principal {
	return auth.Principal{ID: uuid.New(), Name: "Registry Admin", Role: policy.RoleAdmin, WalletAddress: testWallet}
}

func TestMintIssuesCreditsForVerifiedProject(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	actor := adminActor()

	projectID := uuid.New()
	submitterID := uuid.New()
	recipient := "0x2222222222222222222222222222222222222222"

	mockRepo.On("GetProjectForUpdate", ctx, projectID).Return(&projects.Project{
		ID: projectID, Status: projects.StatusVerified, SubmitterID: submitterID,
	}, nil)
	mockRepo.On("GetCreditByProjectID", ctx, projectID).Return(nil, nil)
	mockRepo.On("CreateCredit", ctx, mock.AnythingOfType("*credits.CarbonCredit")).Return(nil)

	var ledger *CreditTransaction
	mockRepo.On("CreateTransaction", ctx, mock.AnythingOfType("*credits.CreditTransaction")).
		Run(func(args mock.Arguments) { ledger = args.Get(1).(*CreditTransaction) }).
		Return(nil)
	mockRepo.On("UpdateProjectStatus", ctx, projectID, projects.StatusCreditsIssued).Return(nil)

	result, err := service.Mint(ctx, actor, MintInput{
		ProjectID:        projectID,
		Amount:           500,
		VintageYear:      2024,
		RecipientAddress: recipient,
	})

	require.NoError(t, err)
	assert.Equal(t, StatusActive, result.Credit.Status)
	assert.Equal(t, submitterID, result.Credit.OwnerID)
	assert.Equal(t, 500, result.Credit.CarbonAmount)
	assert.Equal(t, "VCS", result.Credit.CertificationStandard)
	assert.True(t, strings.HasPrefix(result.TransactionHash, "0x"))

	require.NotNil(t, ledger)
	assert.Equal(t, TxMint, ledger.TransactionType)
	assert.Equal(t, recipient, ledger.ToAddress)
	assert.Equal(t, result.TransactionHash, ledger.TransactionHash)
	mockRepo.AssertNumberOfCalls(t, "CreateTransaction", 1)
	mockRepo.AssertExpectations(t)
}

func TestMintRequiresAdmin(t *testing.T) {
	service := newTestService(new(MockRepository))

	for _, role := range []policy.Role{policy.RoleCommunity, policy.RoleVerifier, policy.RoleObserver} {
		actor := auth.Principal{ID: uuid.New(), Role: role}
		_, err := service.Mint(context.Background(), actor, MintInput{
			ProjectID: uuid.New(), Amount: 10, VintageYear: 2024, RecipientAddress: testWallet,
		})
		assert.True(t, apperr.HasCode(err, "UNAUTHORIZED"), "role %s should not mint", role)
	}
}

func TestMintValidation(t *testing.T) {
	service := newTestService(new(MockRepository))
	base := MintInput{ProjectID: uuid.New(), Amount: 10, VintageYear: 2024, RecipientAddress: testWallet}

	tests := []struct {
		name   string
		mutate func(*MintInput)
	}{
		{"zero amount", func(in *MintInput) { in.Amount = 0 }},
		{"vintage too old", func(in *MintInput) { in.VintageYear = 1999 }},
		{"vintage too new", func(in *MintInput) { in.VintageYear = 2031 }},
		{"short recipient address", func(in *MintInput) { in.RecipientAddress = "0xabc" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := base
			tc.mutate(&input)
			_, err := service.Mint(context.Background(), adminActor(), input)
			assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
		})
	}
}

func TestMintUnverifiedProject(t *testing.T) {
	ctx := context.Background()

	for _, status := range []projects.Status{
		projects.StatusPending, projects.StatusRejected, projects.StatusCreditsIssued,
	} {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		projectID := uuid.New()

		mockRepo.On("GetProjectForUpdate", ctx, projectID).Return(&projects.Project{
			ID: projectID, Status: status,
		}, nil)

		_, err := service.Mint(ctx, adminActor(), MintInput{
			ProjectID: projectID, Amount: 10, VintageYear: 2024, RecipientAddress: testWallet,
		})
		assert.True(t, apperr.HasCode(err, "PROJECT_NOT_VERIFIED"), "status %s", status)
		mockRepo.AssertNotCalled(t, "CreateCredit", mock.Anything, mock.Anything)
	}
}

func TestMintTwiceConflicts(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	projectID := uuid.New()

	mockRepo.On("GetProjectForUpdate", ctx, projectID).Return(&projects.Project{
		ID: projectID, Status: projects.StatusVerified, SubmitterID: uuid.New(),
	}, nil)
	mockRepo.On("GetCreditByProjectID", ctx, projectID).Return(&CarbonCredit{ID: uuid.New()}, nil)

	_, err := service.Mint(ctx, adminActor(), MintInput{
		ProjectID: projectID, Amount: 10, VintageYear: 2024, RecipientAddress: testWallet,
	})
	assert.True(t, apperr.HasCode(err, "CREDITS_EXIST"))
	mockRepo.AssertNotCalled(t, "CreateCredit", mock.Anything, mock.Anything)
}

func TestMintProjectNotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	projectID := uuid.New()

	mockRepo.On("GetProjectForUpdate", ctx, projectID).Return(nil, nil)

	_, err := service.Mint(ctx, adminActor(), MintInput{
		ProjectID: projectID, Amount: 10, VintageYear: 2024, RecipientAddress: testWallet,
	})
	assert.True(t, apperr.HasCode(err, "PROJECT_NOT_FOUND"))
}

func TestTransferActiveCredit(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	owner := auth.Principal{ID: uuid.New(), Role: policy.RoleCommunity, WalletAddress: testWallet}
	creditID := uuid.New()
	toAddress := "0x3333333333333333333333333333333333333333"
	recipient := &auth.User{ID: uuid.New(), Name: "New Owner"}

	mockRepo.On("GetCreditByIDForUpdate", ctx, creditID).Return(&CarbonCredit{
		ID: creditID, OwnerID: owner.ID, Status: StatusActive,
	}, nil)
	mockRepo.On("GetUserByWallet", ctx, toAddress).Return(recipient, nil)
	mockRepo.On("UpdateCredit", ctx, mock.AnythingOfType("*credits.CarbonCredit")).Return(nil)

	var ledger *CreditTransaction
	mockRepo.On("CreateTransaction", ctx, mock.AnythingOfType("*credits.CreditTransaction")).
		Run(func(args mock.Arguments) { ledger = args.Get(1).(*CreditTransaction) }).
		Return(nil)

	result, err := service.Transfer(ctx, owner, TransferInput{CreditID: creditID, ToAddress: toAddress})

	require.NoError(t, err)
	assert.Equal(t, StatusTransferred, result.Credit.Status)
	assert.Equal(t, recipient.ID, result.Credit.OwnerID)

	require.NotNil(t, ledger)
	assert.Equal(t, TxTransfer, ledger.TransactionType)
	assert.Equal(t, testWallet, ledger.FromAddress)
	assert.Equal(t, toAddress, ledger.ToAddress)
	mockRepo.AssertNumberOfCalls(t, "CreateTransaction", 1)
	mockRepo.AssertExpectations(t)
}

func TestTransferGuards(t *testing.T) {
	ctx := context.Background()
	owner := auth.Principal{ID: uuid.New(), Role: policy.RoleCommunity, WalletAddress: testWallet}
	toAddress := "0x3333333333333333333333333333333333333333"

	t.Run("credit not found", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		creditID := uuid.New()
		mockRepo.On("GetCreditByIDForUpdate", ctx, creditID).Return(nil, nil)

		_, err := service.Transfer(ctx, owner, TransferInput{CreditID: creditID, ToAddress: toAddress})
		assert.True(t, apperr.HasCode(err, "CREDIT_NOT_FOUND"))
	})

	t.Run("not the owner", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		creditID := uuid.New()
		mockRepo.On("GetCreditByIDForUpdate", ctx, creditID).Return(&CarbonCredit{
			ID: creditID, OwnerID: uuid.New(), Status: StatusActive,
		}, nil)

		_, err := service.Transfer(ctx, owner, TransferInput{CreditID: creditID, ToAddress: toAddress})
		assert.True(t, apperr.HasCode(err, "UNAUTHORIZED"))
	})

	t.Run("transferred credit cannot move again", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		creditID := uuid.New()
		mockRepo.On("GetCreditByIDForUpdate", ctx, creditID).Return(&CarbonCredit{
			ID: creditID, OwnerID: owner.ID, Status: StatusTransferred,
		}, nil)

		_, err := service.Transfer(ctx, owner, TransferInput{CreditID: creditID, ToAddress: toAddress})
		assert.True(t, apperr.HasCode(err, "INVALID_STATUS"))
	})

	t.Run("retired credit cannot transfer", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		creditID := uuid.New()
		mockRepo.On("GetCreditByIDForUpdate", ctx, creditID).Return(&CarbonCredit{
			ID: creditID, OwnerID: owner.ID, Status: StatusRetired,
		}, nil)

		_, err := service.Transfer(ctx, owner, TransferInput{CreditID: creditID, ToAddress: toAddress})
		assert.True(t, apperr.HasCode(err, "INVALID_STATUS"))
	})

	t.Run("recipient wallet unknown", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		creditID := uuid.New()
		mockRepo.On("GetCreditByIDForUpdate", ctx, creditID).Return(&CarbonCredit{
			ID: creditID, OwnerID: owner.ID, Status: StatusActive,
		}, nil)
		mockRepo.On("GetUserByWallet", ctx, toAddress).Return(nil, nil)

		_, err := service.Transfer(ctx, owner, TransferInput{CreditID: creditID, ToAddress: toAddress})
		assert.True(t, apperr.HasCode(err, "RECIPIENT_NOT_FOUND"))
	})
}

func TestRetireTransferredCredit(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	owner := auth.Principal{ID: uuid.New(), Name: "Coastal Coop", Role: policy.RoleCommunity, WalletAddress: testWallet}
	creditID := uuid.New()
	projectID := uuid.New()

	mockRepo.On("GetCreditByIDForUpdate", ctx, creditID).Return(&CarbonCredit{
		ID: creditID, ProjectID: projectID, OwnerID: owner.ID, Status: StatusTransferred,
		CarbonAmount: 250, VintageYear: 2023, CertificationStandard: "VCS",
	}, nil)
	mockRepo.On("UpdateCredit", ctx, mock.AnythingOfType("*credits.CarbonCredit")).Return(nil)

	var ledger *CreditTransaction
	mockRepo.On("CreateTransaction", ctx, mock.AnythingOfType("*credits.CreditTransaction")).
		Run(func(args mock.Arguments) { ledger = args.Get(1).(*CreditTransaction) }).
		Return(nil)
	mockRepo.On("GetProjectByID", ctx, projectID).Return(&projects.Project{
		ID: projectID, Name: "Mangrove Restoration", EcosystemType: projects.EcosystemMangrove, Location: "Sundarbans",
	}, nil)

	reason := "Offsetting 2025 corporate emissions"
	result, err := service.Retire(ctx, owner, RetireInput{CreditID: creditID, Reason: reason})

	require.NoError(t, err)
	assert.Equal(t, StatusRetired, result.Credit.Status)
	require.NotNil(t, result.Credit.RetirementDate)
	require.NotNil(t, result.Credit.RetirementReason)
	assert.Equal(t, reason, *result.Credit.RetirementReason)
	assert.NotEmpty(t, result.CertificateURL)

	require.NotNil(t, ledger)
	assert.Equal(t, TxRetire, ledger.TransactionType)
	assert.Equal(t, BurnAddress, ledger.ToAddress)
	assert.Equal(t, testWallet, ledger.FromAddress)
	mockRepo.AssertNumberOfCalls(t, "CreateTransaction", 1)
	mockRepo.AssertExpectations(t)
}

func TestRetireAlreadyRetired(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	owner := auth.Principal{ID: uuid.New(), Role: policy.RoleCommunity, WalletAddress: testWallet}
	creditID := uuid.New()

	mockRepo.On("GetCreditByIDForUpdate", ctx, creditID).Return(&CarbonCredit{
		ID: creditID, OwnerID: owner.ID, Status: StatusRetired,
	}, nil)

	_, err := service.Retire(ctx, owner, RetireInput{CreditID: creditID, Reason: "Offsetting emissions again"})
	assert.True(t, apperr.HasCode(err, "ALREADY_RETIRED"))
	mockRepo.AssertNotCalled(t, "UpdateCredit", mock.Anything, mock.Anything)
}

func TestRetireReasonBounds(t *testing.T) {
	service := newTestService(new(MockRepository))
	owner := auth.Principal{ID: uuid.New(), Role: policy.RoleCommunity}

	for _, reason := range []string{"too short", strings.Repeat("x", 501)} {
		_, err := service.Retire(context.Background(), owner, RetireInput{CreditID: uuid.New(), Reason: reason})
		assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
	}
}

func TestRetireByAdminNonOwner(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	admin := adminActor()
	creditID := uuid.New()
	projectID := uuid.New()

	mockRepo.On("GetCreditByIDForUpdate", ctx, creditID).Return(&CarbonCredit{
		ID: creditID, ProjectID: projectID, OwnerID: uuid.New(), Status: StatusActive,
	}, nil)
	mockRepo.On("UpdateCredit", ctx, mock.AnythingOfType("*credits.CarbonCredit")).Return(nil)
	mockRepo.On("CreateTransaction", ctx, mock.AnythingOfType("*credits.CreditTransaction")).Return(nil)
	mockRepo.On("GetProjectByID", ctx, projectID).Return(&projects.Project{ID: projectID, Name: "Seagrass Meadow"}, nil)

	result, err := service.Retire(ctx, admin, RetireInput{CreditID: creditID, Reason: "Administrative retirement"})
	require.NoError(t, err)
	assert.Equal(t, StatusRetired, result.Credit.Status)
}

func TestRetireNotOwnerForbidden(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	actor := auth.Principal{ID: uuid.New(), Role: policy.RoleCommunity}
	creditID := uuid.New()

	mockRepo.On("GetCreditByIDForUpdate", ctx, creditID).Return(&CarbonCredit{
		ID: creditID, OwnerID: uuid.New(), Status: StatusActive,
	}, nil)

	_, err := service.Retire(ctx, actor, RetireInput{CreditID: creditID, Reason: "Attempted foreign retirement"})
	assert.True(t, apperr.HasCode(err, "UNAUTHORIZED"))
}

func TestListTransactionsScopesNonAdmin(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	actor := auth.Principal{ID: uuid.New(), Role: policy.RoleCommunity}

	mockRepo.On("ListTransactions", ctx, mock.MatchedBy(func(f TransactionFilter) bool {
		return f.OwnerID != nil && *f.OwnerID == actor.ID && f.Type != nil && *f.Type == TxRetire
	})).Return([]*CreditTransaction{}, int64(0), nil)

	_, _, err := service.ListTransactions(ctx, actor, "RETIRE", 1, 20)
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestListTransactionsAdminSeesAll(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("ListTransactions", ctx, mock.MatchedBy(func(f TransactionFilter) bool {
		return f.OwnerID == nil && f.Type == nil
	})).Return([]*CreditTransaction{}, int64(0), nil)

	_, _, err := service.ListTransactions(ctx, adminActor(), "", 1, 20)
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestListTransactionsRejectsUnknownType(t *testing.T) {
	service := newTestService(new(MockRepository))

	_, _, err := service.ListTransactions(context.Background(), adminActor(), "BURN", 1, 20)
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
}
