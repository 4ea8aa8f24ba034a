// Package policy centralizes role-based authorization. Every lifecycle
// operation asks CanPerform instead of comparing role strings inline.
package policy

type Role string

const (
	RoleCommunity Role = "COMMUNITY"
	RoleVerifier  Role = "VERIFIER"
	RoleAdmin     Role = "ADMIN"
	RoleObserver  Role = "OBSERVER"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleCommunity, RoleVerifier, RoleAdmin, RoleObserver:
		return true
	}
	return false
}

type Operation string

const (
	OpProjectSubmit      Operation = "project.submit"
	OpProjectUpdate      Operation = "project.update"
	OpProjectDelete      Operation = "project.delete"
	OpProjectAddEvidence Operation = "project.add_evidence"
	OpProjectVerify      Operation = "project.verify"
	OpProjectReject      Operation = "project.reject"
	OpCreditMint         Operation = "credit.mint"
	OpCreditTransfer     Operation = "credit.transfer"
	OpCreditRetire       Operation = "credit.retire"
	OpEvidenceUpload     Operation = "evidence.upload"
)

// OBSERVER is read-only; ownership checks on update/transfer/retire happen
// in the services on top of this table.
var grants = map[Operation][]Role{
	OpProjectSubmit:      {RoleCommunity, RoleVerifier, RoleAdmin},
	OpProjectUpdate:      {RoleCommunity, RoleVerifier, RoleAdmin},
	OpProjectDelete:      {RoleCommunity, RoleVerifier, RoleAdmin},
	OpProjectAddEvidence: {RoleCommunity, RoleVerifier, RoleAdmin},
	OpProjectVerify:      {RoleVerifier, RoleAdmin},
	OpProjectReject:      {RoleVerifier, RoleAdmin},
	OpCreditMint:         {RoleAdmin},
	OpCreditTransfer:     {RoleCommunity, RoleVerifier, RoleAdmin},
	OpCreditRetire:       {RoleCommunity, RoleVerifier, RoleAdmin},
	OpEvidenceUpload:     {RoleCommunity, RoleVerifier, RoleAdmin},
}

// CanPerform reports whether the role is allowed to attempt the operation.
func CanPerform(role Role, op Operation) bool {
	allowed, exists := grants[op]
	if !exists {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
