package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/policy"
)

// User is a registered account. Password holds the bcrypt hash and is never
// serialized.
type User struct {
	ID              uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email           string      `gorm:"uniqueIndex;not null" json:"email"`
	Password        string      `gorm:"not null" json:"-"`
	Name            string      `gorm:"not null" json:"name"`
	Organization    *string     `json:"organization,omitempty"`
	Role            policy.Role `gorm:"not null;default:'COMMUNITY'" json:"role"`
	WalletAddress   *string     `gorm:"uniqueIndex" json:"wallet_address,omitempty"`
	IsEmailVerified bool        `gorm:"not null;default:false" json:"is_email_verified"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Principal is the authenticated identity attached to every request.
type Principal struct {
	ID            uuid.UUID
	Email         string
	Name          string
	Role          policy.Role
	WalletAddress string
}

// PrincipalFromUser builds a Principal from a stored user row.
func PrincipalFromUser(u *User) Principal {
	p := Principal{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
	if u.WalletAddress != nil {
		p.WalletAddress = *u.WalletAddress
	}
	return p
}
