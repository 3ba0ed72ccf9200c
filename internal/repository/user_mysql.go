package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ecocivic/civicledger/internal/model"
)

// UserRepo provides MySQL-backed access to the users table.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a UserRepo bound to the provided database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a user and returns its ID.  Email and identity
// both carry unique keys; the duplicate-key message tells the two
// apart.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (identity, email, password_hash, role) VALUES (?, ?, ?, ?)`,
		u.Identity, strings.ToLower(strings.TrimSpace(u.Email)), u.PasswordHash, u.Role)
	if err != nil {
		low := strings.ToLower(err.Error())
		if strings.Contains(low, "1062") {
			if strings.Contains(low, "identity") {
				return 0, ErrIdentityExists
			}
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ByEmail fetches a user by normalized email.
func (r *UserRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, identity, email, password_hash, role, is_active, created_at, updated_at
		 FROM users WHERE email = ? LIMIT 1`,
		strings.ToLower(strings.TrimSpace(email))).
		Scan(&u.ID, &u.Identity, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
			&u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
