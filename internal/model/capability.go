package model

import "time"

// Role tags recognised by the capability registry.  Every mutating
// entry point checks the caller against one of these before doing
// anything else.
const (
	RoleOperator     = "OPERATOR"      // binds meters, submits validated readings
	RoleStaff        = "STAFF"         // redeems recycling declarations
	RoleInspector    = "INSPECTOR"     // schedules and completes inspections
	RoleFraudManager = "FRAUD_MANAGER" // files automated anomaly reports
	RoleAdmin        = "ADMIN"         // grants capabilities, ledger controls
	RoleCitizen      = "CITIZEN"       // default role claim for registered users
)

// Capability is one (role, identity) grant in the registry.
//
// Fields:
//  Role      – role tag, see the Role* constants.
//  Identity  – identity holding the role.
//  GrantedBy – admin identity that created the grant.
//  CreatedAt – grant timestamp.
type Capability struct {
	Role      string    // capabilities.role
	Identity  string    // capabilities.identity
	GrantedBy string    // capabilities.granted_by
	CreatedAt time.Time // capabilities.created_at
}

// Inspector is one whitelist entry for physical inspections.  The
// whitelist row and the INSPECTOR capability are always mutated
// together; they must not diverge.
type Inspector struct {
	Identity  string    // inspectors.identity
	AddedBy   string    // inspectors.added_by
	CreatedAt time.Time // inspectors.created_at
}
