package model

import "time"

// User represents a login credential record as stored in the
// `users` table.  The Identity doubles as the account identity in
// the compliance core; what a caller may actually do is decided by
// the capability registry, not by this row.  The json tags are
// omitted because these structs are used internally by the
// repository layer; handlers define separate response types.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Identity     – stable identity string (wallet-style), unique.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – default role claim embedded in issued JWTs.
//  IsActive     – whether the login is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Identity     string    // users.identity
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
