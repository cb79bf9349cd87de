package model

import "strings"

// Role mirrors the 'roles' table.
type Role struct {
	ID   uint64
	Name string
}

// RoleTier is the single definition of the authority ordering used everywhere
// tier comparisons are needed. Users with no role record sit at TierCustomer.
type RoleTier int

const (
	TierCustomer RoleTier = iota
	TierStaff
	TierAdmin
	TierSuperAdmin
)

// Canonical role names as stored in the roles table.
const (
	RoleStaff      = "STAFF"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// TierOf maps a role name to its tier. Unknown or empty names map to
// TierCustomer so an unassigned user is always the least privileged.
func TierOf(roleName string) RoleTier {
	switch strings.ToUpper(strings.TrimSpace(roleName)) {
	case RoleSuperAdmin:
		return TierSuperAdmin
	case RoleAdmin:
		return TierAdmin
	case RoleStaff:
		return TierStaff
	default:
		return TierCustomer
	}
}

// Admin reports whether the tier grants administrative dashboard access.
func (t RoleTier) Admin() bool { return t >= TierAdmin }

// Highest reports whether the tier is the single most privileged one.
func (t RoleTier) Highest() bool { return t == TierSuperAdmin }

// AtLeast reports whether t carries at least the authority of other.
func (t RoleTier) AtLeast(other RoleTier) bool { return t >= other }

func (t RoleTier) String() string {
	switch t {
	case TierSuperAdmin:
		return RoleSuperAdmin
	case TierAdmin:
		return RoleAdmin
	case TierStaff:
		return RoleStaff
	default:
		return "CUSTOMER"
	}
}
