package credits

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Xombi17/blue-carbon-registry-mvp/internal/auth"
	"github.com/Xombi17/blue-carbon-registry-mvp/internal/projects"
)

// TransactionFilter narrows the audit ledger listing. OwnerID restricts
// results to transactions on credits currently owned by that user.
type TransactionFilter struct {
	Type    *TransactionType
	OwnerID *uuid.UUID
	Page    int
	Limit   int
}

// Repository spans credits, the transaction ledger and the project and user
// rows a credit operation touches, so a single InTx closure covers the whole
// state change.
type Repository interface {
	InTx(ctx context.Context, fn func(Repository) error) error

	CreateCredit(ctx context.Context, credit *CarbonCredit) error
	GetCreditByID(ctx context.Context, id uuid.UUID) (*CarbonCredit, error)
	GetCreditByIDForUpdate(ctx context.Context, id uuid.UUID) (*CarbonCredit, error)
	GetCreditByProjectID(ctx context.Context, projectID uuid.UUID) (*CarbonCredit, error)
	UpdateCredit(ctx context.Context, credit *CarbonCredit) error

	CreateTransaction(ctx context.Context, txn *CreditTransaction) error
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]*CreditTransaction, int64, error)

	GetProjectByID(ctx context.Context, id uuid.UUID) (*projects.Project, error)
	GetProjectForUpdate(ctx context.Context, id uuid.UUID) (*projects.Project, error)
	UpdateProjectStatus(ctx context.Context, id uuid.UUID, status projects.Status) error

	GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error)
	GetUserByWallet(ctx context.Context, wallet string) (*auth.User, error)
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

func (r *gormRepository) CreateCredit(ctx context.Context, credit *CarbonCredit) error {
	return r.db.WithContext(ctx).Create(credit).Error
}

func (r *gormRepository) GetCreditByID(ctx context.Context, id uuid.UUID) (*CarbonCredit, error) {
	var credit CarbonCredit
	err := r.db.WithContext(ctx).First(&credit, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &credit, nil
}

func (r *gormRepository) GetCreditByIDForUpdate(ctx context.Context, id uuid.UUID) (*CarbonCredit, error) {
	var credit CarbonCredit
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&credit, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &credit, nil
}

func (r *gormRepository) GetCreditByProjectID(ctx context.Context, projectID uuid.UUID) (*CarbonCredit, error) {
	var credit CarbonCredit
	err := r.db.WithContext(ctx).First(&credit, "project_id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &credit, nil
}

func (r *gormRepository) UpdateCredit(ctx context.Context, credit *CarbonCredit) error {
	return r.db.WithContext(ctx).Save(credit).Error
}

func (r *gormRepository) CreateTransaction(ctx context.Context, txn *CreditTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *gormRepository) ListTransactions(ctx context.Context, filter TransactionFilter) ([]*CreditTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&CreditTransaction{})

	if filter.Type != nil {
		query = query.Where("transaction_type = ?", *filter.Type)
	}
	if filter.OwnerID != nil {
		query = query.Where(
			"credit_id IN (?)",
			r.db.Model(&CarbonCredit{}).Select("id").Where("owner_id = ?", *filter.OwnerID),
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
		limit = 20
	}

	var txns []*CreditTransaction
	err := query.
		Order("timestamp DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func (r *gormRepository) GetProjectByID(ctx context.Context, id uuid.UUID) (*projects.Project, error) {
	var project projects.Project
	err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *gormRepository) GetProjectForUpdate(ctx context.Context, id uuid.UUID) (*projects.Project, error) {
	var project projects.Project
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

func (r *gormRepository) UpdateProjectStatus(ctx context.Context, id uuid.UUID, status projects.Status) error {
	return r.db.WithContext(ctx).
		Model(&projects.Project{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *gormRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	var user auth.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) GetUserByWallet(ctx context.Context, wallet string) (*auth.User, error) {
	var user auth.User
	err := r.db.WithContext(ctx).First(&user, "wallet_address = ?", wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
