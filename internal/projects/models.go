package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending       Status = "PENDING"
	StatusVerified      Status = "VERIFIED"
	StatusRejected      Status = "REJECTED"
	StatusCreditsIssued Status = "CREDITS_ISSUED"
)

type EcosystemType string

const (
	EcosystemMangrove  EcosystemType = "MANGROVE"
	EcosystemSeagrass  EcosystemType = "SEAGRASS"
	EcosystemSaltMarsh EcosystemType = "SALT_MARSH"
	EcosystemOther     EcosystemType = "OTHER"
)

// ValidEcosystemType reports whether t is a known ecosystem type.
func ValidEcosystemType(t EcosystemType) bool {
	switch t {
	case EcosystemMangrove, EcosystemSeagrass, EcosystemSaltMarsh, EcosystemOther:
		return true
	}
	return false
}

// Project represents a blue carbon restoration project
type Project struct {
	ID                     uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                   string         `gorm:"not null" json:"name"`
	Description            string         `gorm:"not null" json:"description"`
	EcosystemType          EcosystemType  `gorm:"not null" json:"ecosystem_type"`
	Location               string         `gorm:"not null" json:"location"`
	Coordinates            datatypes.JSON `json:"coordinates,omitempty"` // GeoJSON
	GeoJSONHash            *string        `json:"geo_json_hash,omitempty"`
	EstimatedCarbonCapture int            `gorm:"not null" json:"estimated_carbon_capture"` // tons CO2
	AreaSize               int            `gorm:"not null" json:"area_size"`                // hectares
	Status                 Status         `gorm:"not null;default:'PENDING'" json:"status"`
	SubmitterID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"submitter_id"`
	VerifierID             *uuid.UUID     `gorm:"type:uuid" json:"verifier_id,omitempty"`
	SubmissionTimestamp    time.Time      `gorm:"not null" json:"submission_timestamp"`
	VerificationTimestamp  *time.Time     `json:"verification_timestamp,omitempty"`
	VerificationNotes      *string        `json:"verification_notes,omitempty"`
	EvidenceFiles          []EvidenceFile `gorm:"constraint:OnDelete:CASCADE" json:"evidence_files,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// EvidenceFile is a content-addressed reference to supporting material.
// Rows are append-only while the project is PENDING.
type EvidenceFile struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID       uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Filename        string    `gorm:"not null" json:"filename"`
	OriginalName    string    `gorm:"not null" json:"original_name"`
	Mimetype        string    `gorm:"not null" json:"mimetype"`
	Size            int64     `json:"size"`
	IPFSHash        string    `gorm:"not null" json:"ipfs_hash"`
	URL             string    `gorm:"-" json:"url,omitempty"`
	UploadTimestamp time.Time `gorm:"not null" json:"upload_timestamp"`
}
