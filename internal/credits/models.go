package credits

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive      Status = "ACTIVE"
	StatusTransferred Status = "TRANSFERRED"
	StatusRetired     Status = "RETIRED"
)

type TransactionType string

const (
	TxMint     TransactionType = "MINT"
	TxTransfer TransactionType = "TRANSFER"
	TxRetire   TransactionType = "RETIRE"
)

// BurnAddress receives RETIRE ledger entries.
const BurnAddress = "0x0000000000000000000000000000000000000000"

// CarbonCredit is a batch of issued credits. At most one batch exists per
// project.
type CarbonCredit struct {
	ID                    uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID             uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"project_id"`
	TokenID               *int64     `json:"token_id,omitempty"`
	CarbonAmount          int        `gorm:"not null" json:"carbon_amount"` // tons CO2
	VintageYear           int        `gorm:"not null" json:"vintage_year"`
	CertificationStandard string     `gorm:"not null;default:'VCS'" json:"certification_standard"`
	OwnerID               uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	Status                Status     `gorm:"not null;default:'ACTIVE'" json:"status"`
	IssuanceDate          time.Time  `gorm:"not null" json:"issuance_date"`
	RetirementDate        *time.Time `json:"retirement_date,omitempty"`
	RetirementReason      *string    `json:"retirement_reason,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// CreditTransaction is the append-only audit ledger. Rows are created once
// per state-changing credit operation and never mutated or deleted.
type CreditTransaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CreditID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"credit_id"`
	FromAddress     string          `json:"from_address,omitempty"`
	ToAddress       string          `gorm:"not null" json:"to_address"`
	TransactionHash string          `gorm:"not null" json:"transaction_hash"`
	TransactionType TransactionType `gorm:"not null" json:"transaction_type"`
	Timestamp       time.Time       `gorm:"not null" json:"timestamp"`
}
