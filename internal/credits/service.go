package credits

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Xombi17/blue-carbon-registry-mvp/internal/auth"
	"github.com/Xombi17/blue-carbon-registry-mvp/internal/projects"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/apperr"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/chain"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/pdf"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/policy"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/storage"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/workflows"
)

const (
	minVintageYear = 2000
	maxVintageYear = 2030
	walletAddrLen  = 42

	defaultStandard = "VCS"
)

type MintInput struct {
	ProjectID             uuid.UUID
	Amount                int
	VintageYear           int
	CertificationStandard string
	RecipientAddress      string
}

type MintResult struct {
	Credit          *CarbonCredit
	TransactionHash string
}

type TransferInput struct {
	CreditID  uuid.UUID
	ToAddress string
}

type TransferResult struct {
	Credit          *CarbonCredit
	Recipient       *auth.User
	TransactionHash string
}

type RetireInput struct {
	CreditID uuid.UUID
	Reason   string
}

type RetireResult struct {
	Credit          *CarbonCredit
	TransactionHash string
	CertificateURL  string
}

type Service interface {
	Mint(ctx context.Context, actor auth.Principal, input MintInput) (*MintResult, error)
	Transfer(ctx context.Context, actor auth.Principal, input TransferInput) (*TransferResult, error)
	Retire(ctx context.Context, actor auth.Principal, input RetireInput) (*RetireResult, error)
	ListTransactions(ctx context.Context, actor auth.Principal, txType string, page, limit int) ([]*CreditTransaction, int64, error)
	NetworkStatus(ctx context.Context) (chain.NetworkStatus, error)
}

type creditService struct {
	repo         Repository
	chainClient  chain.Client
	certificates pdf.Generator
	ipfs         storage.IPFSClient
	stateMachine *workflows.StateMachine
	projectSM    *workflows.StateMachine
	logger       *zap.Logger
}

func NewService(repo Repository, chainClient chain.Client, certificates pdf.Generator, ipfs storage.IPFSClient, logger *zap.Logger) Service {
	return &creditService{
		repo:         repo,
		chainClient:  chainClient,
		certificates: certificates,
		ipfs:         ipfs,
		stateMachine: workflows.NewCreditStateMachine(),
		projectSM:    workflows.NewProjectStateMachine(),
		logger:       logger,
	}
}

// Mint issues the single credit batch for a verified project. The credit,
// its MINT ledger row and the project's move to CREDITS_ISSUED commit in one
// transaction.
func (s *creditService) Mint(ctx context.Context, actor auth.Principal, input MintInput) (*MintResult, error) {
	if !policy.CanPerform(actor.Role, policy.OpCreditMint) {
		return nil, apperr.Forbidden("UNAUTHORIZED", "Only admins can mint credits")
	}
	if err := validateMint(input); err != nil {
		return nil, err
	}
	standard := input.CertificationStandard
	if standard == "" {
		standard = defaultStandard
	}

	now := time.Now().UTC()
	credit := &CarbonCredit{
		ID:                    uuid.New(),
		ProjectID:             input.ProjectID,
		CarbonAmount:          input.Amount,
		VintageYear:           input.VintageYear,
		CertificationStandard: standard,
		Status:                StatusActive,
		IssuanceDate:          now,
	}

	var txHash string
	err := s.repo.InTx(ctx, func(tx Repository) error {
		project, err := tx.GetProjectForUpdate(ctx, input.ProjectID)
		if err != nil {
			return apperr.Internal(err)
		}
		if project == nil {
			return apperr.NotFound("PROJECT_NOT_FOUND", "Project not found")
		}
		if project.Status != projects.StatusVerified {
			return apperr.InvalidState("PROJECT_NOT_VERIFIED", "Credits can only be minted for verified projects")
		}
		existing, err := tx.GetCreditByProjectID(ctx, input.ProjectID)
		if err != nil {
			return apperr.Internal(err)
		}
		if existing != nil {
			return apperr.Conflict("CREDITS_EXIST", "Credits have already been minted for this project")
		}

		credit.OwnerID = project.SubmitterID
		if err := tx.CreateCredit(ctx, credit); err != nil {
			return apperr.Internal(err)
		}

		receipt, err := s.chainClient.SubmitMint(ctx, credit.ID.String(), int64(input.Amount), input.RecipientAddress)
		if err != nil {
			return apperr.Internal(err)
		}
		txHash = receipt.Hash

		ledger := &CreditTransaction{
			ID:              uuid.New(),
			CreditID:        credit.ID,
			ToAddress:       input.RecipientAddress,
			TransactionHash: receipt.Hash,
			TransactionType: TxMint,
			Timestamp:       now,
		}
		if err := tx.CreateTransaction(ctx, ledger); err != nil {
			return apperr.Internal(err)
		}

		if !s.projectSM.CanTransition(string(project.Status), string(projects.StatusCreditsIssued)) {
			return apperr.InvalidState("INVALID_STATUS", "Project cannot move to credits issued")
		}
		return tx.UpdateProjectStatus(ctx, project.ID, projects.StatusCreditsIssued)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("credits minted",
		zap.String("credit_id", credit.ID.String()),
		zap.String("project_id", input.ProjectID.String()),
		zap.Int("amount", input.Amount),
		zap.String("tx_hash", txHash))

	return &MintResult{Credit: credit, TransactionHash: txHash}, nil
}

// Transfer moves ownership of a credit to the user holding the recipient
// wallet. Only ACTIVE credits transfer, so a credit changes hands at most
// once before retirement.
func (s *creditService) Transfer(ctx context.Context, actor auth.Principal, input TransferInput) (*TransferResult, error) {
	if !policy.CanPerform(actor.Role, policy.OpCreditTransfer) {
		return nil, apperr.Forbidden("UNAUTHORIZED", "You are not allowed to transfer credits")
	}
	if len(input.ToAddress) != walletAddrLen {
		return nil, apperr.Validation("VALIDATION_ERROR", "Recipient address must be a 42-character wallet address")
	}

	var (
		credit    *CarbonCredit
		recipient *auth.User
		txHash    string
	)
	err := s.repo.InTx(ctx, func(tx Repository) error {
		var err error
		credit, err = tx.GetCreditByIDForUpdate(ctx, input.CreditID)
		if err != nil {
			return apperr.Internal(err)
		}
		if credit == nil {
			return apperr.NotFound("CREDIT_NOT_FOUND", "Credit not found")
		}
		if credit.OwnerID != actor.ID {
			return apperr.Forbidden("UNAUTHORIZED", "Only the credit owner can transfer it")
		}
		if credit.Status != StatusActive {
			return apperr.InvalidState("INVALID_STATUS", "Only active credits can be transferred")
		}

		recipient, err = tx.GetUserByWallet(ctx, input.ToAddress)
		if err != nil {
			return apperr.Internal(err)
		}
		if recipient == nil {
			return apperr.NotFound("RECIPIENT_NOT_FOUND", "No registered user holds that wallet address")
		}

		receipt, err := s.chainClient.SubmitTransfer(ctx, credit.ID.String(), actor.WalletAddress, input.ToAddress)
		if err != nil {
			return apperr.Internal(err)
		}
		txHash = receipt.Hash

		credit.OwnerID = recipient.ID
		credit.Status = StatusTransferred
		if err := tx.UpdateCredit(ctx, credit); err != nil {
			return apperr.Internal(err)
		}

		ledger := &CreditTransaction{
			ID:              uuid.New(),
			CreditID:        credit.ID,
			FromAddress:     actor.WalletAddress,
			ToAddress:       input.ToAddress,
			TransactionHash: receipt.Hash,
			TransactionType: TxTransfer,
			Timestamp:       time.Now().UTC(),
		}
		return tx.CreateTransaction(ctx, ledger)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("credit transferred",
		zap.String("credit_id", credit.ID.String()),
		zap.String("to", input.ToAddress),
		zap.String("tx_hash", txHash))

	return &TransferResult{Credit: credit, Recipient: recipient, TransactionHash: txHash}, nil
}

// Retire permanently burns a credit. Both ACTIVE and TRANSFERRED credits can
// retire; retirement is terminal. The certificate render is best effort and
// never fails the retirement.
func (s *creditService) Retire(ctx context.Context, actor auth.Principal, input RetireInput) (*RetireResult, error) {
	if !policy.CanPerform(actor.Role, policy.OpCreditRetire) {
		return nil, apperr.Forbidden("UNAUTHORIZED", "You are not allowed to retire credits")
	}
	if len(input.Reason) < 10 || len(input.Reason) > 500 {
		return nil, apperr.Validation("VALIDATION_ERROR", "Retirement reason must be between 10 and 500 characters")
	}

	var (
		credit *CarbonCredit
		txHash string
	)
	err := s.repo.InTx(ctx, func(tx Repository) error {
		var err error
		credit, err = tx.GetCreditByIDForUpdate(ctx, input.CreditID)
		if err != nil {
			return apperr.Internal(err)
		}
		if credit == nil {
			return apperr.NotFound("CREDIT_NOT_FOUND", "Credit not found")
		}
		if credit.OwnerID != actor.ID && actor.Role != policy.RoleAdmin {
			return apperr.Forbidden("UNAUTHORIZED", "Only the credit owner or an admin can retire it")
		}
		if credit.Status == StatusRetired {
			return apperr.InvalidState("ALREADY_RETIRED", "Credit has already been retired")
		}
		if !s.stateMachine.CanTransition(string(credit.Status), string(StatusRetired)) {
			return apperr.InvalidState("INVALID_STATUS", "Credit cannot be retired from its current status")
		}

		receipt, err := s.chainClient.SubmitRetire(ctx, credit.ID.String(), actor.WalletAddress)
		if err != nil {
			return apperr.Internal(err)
		}
		txHash = receipt.Hash

		now := time.Now().UTC()
		reason := input.Reason
		credit.Status = StatusRetired
		credit.RetirementDate = &now
		credit.RetirementReason = &reason
		if err := tx.UpdateCredit(ctx, credit); err != nil {
			return apperr.Internal(err)
		}

		ledger := &CreditTransaction{
			ID:              uuid.New(),
			CreditID:        credit.ID,
			FromAddress:     actor.WalletAddress,
			ToAddress:       BurnAddress,
			TransactionHash: receipt.Hash,
			TransactionType: TxRetire,
			Timestamp:       now,
		}
		return tx.CreateTransaction(ctx, ledger)
	})
	if err != nil {
		return nil, err
	}

	certURL := s.issueCertificate(ctx, actor, credit, txHash)

	s.logger.Info("credit retired",
		zap.String("credit_id", credit.ID.String()),
		zap.String("tx_hash", txHash))

	return &RetireResult{Credit: credit, TransactionHash: txHash, CertificateURL: certURL}, nil
}

// issueCertificate renders and pins the retirement certificate. Failures are
// logged and swallowed; the retirement itself has already committed.
func (s *creditService) issueCertificate(ctx context.Context, actor auth.Principal, credit *CarbonCredit, txHash string) string {
	project, err := s.repo.GetProjectByID(ctx, credit.ProjectID)
	if err != nil || project == nil {
		s.logger.Warn("certificate skipped, project lookup failed",
			zap.String("credit_id", credit.ID.String()), zap.Error(err))
		return ""
	}

	data := pdf.CertificateData{
		CreditID:              credit.ID.String(),
		ProjectName:           project.Name,
		EcosystemType:         string(project.EcosystemType),
		Location:              project.Location,
		OwnerName:             actor.Name,
		CarbonAmount:          credit.CarbonAmount,
		VintageYear:           credit.VintageYear,
		CertificationStandard: credit.CertificationStandard,
		RetiredAt:             time.Now().UTC(),
		TransactionHash:       txHash,
	}
	if credit.RetirementReason != nil {
		data.Reason = *credit.RetirementReason
	}

	doc, err := s.certificates.RetirementCertificate(ctx, data)
	if err != nil {
		s.logger.Warn("certificate render failed", zap.String("credit_id", credit.ID.String()), zap.Error(err))
		return ""
	}
	pin, err := s.ipfs.PinFile(ctx, doc, fmt.Sprintf("retirement_%s.pdf", credit.ID))
	if err != nil {
		s.logger.Warn("certificate pin failed", zap.String("credit_id", credit.ID.String()), zap.Error(err))
		return ""
	}
	return s.ipfs.GatewayURL(pin.Hash)
}

// ListTransactions pages the audit ledger. Non-admin callers only see
// transactions on credits they currently own.
func (s *creditService) ListTransactions(ctx context.Context, actor auth.Principal, txType string, page, limit int) ([]*CreditTransaction, int64, error) {
	filter := TransactionFilter{Page: page, Limit: limit}
	if txType != "" {
		t := TransactionType(txType)
		switch t {
		case TxMint, TxTransfer, TxRetire:
			filter.Type = &t
		default:
			return nil, 0, apperr.Validation("VALIDATION_ERROR", "Transaction type must be MINT, TRANSFER or RETIRE")
		}
	}
	if actor.Role != policy.RoleAdmin {
		owner := actor.ID
		filter.OwnerID = &owner
	}
	txns, total, err := s.repo.ListTransactions(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return txns, total, nil
}

func (s *creditService) NetworkStatus(ctx context.Context) (chain.NetworkStatus, error) {
	status, err := s.chainClient.Status(ctx)
	if err != nil {
		return chain.NetworkStatus{}, apperr.Internal(err)
	}
	return status, nil
}

func validateMint(input MintInput) error {
	if input.Amount < 1 {
		return apperr.Validation("VALIDATION_ERROR", "Amount must be at least 1 ton")
	}
	if input.VintageYear < minVintageYear || input.VintageYear > maxVintageYear {
		return apperr.Validation("VALIDATION_ERROR",
			fmt.Sprintf("Vintage year must be between %d and %d", minVintageYear, maxVintageYear))
	}
	if len(input.RecipientAddress) != walletAddrLen {
		return apperr.Validation("VALIDATION_ERROR", "Recipient address must be a 42-character wallet address")
	}
	return nil
}
