package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ecocivic/civicledger/internal/model"
)

// CapabilityRepo provides MySQL-backed access to the capabilities
// and inspectors tables.  Inspector mutations touch both tables in
// one transaction so the whitelist and the INSPECTOR capability
// never diverge.
type CapabilityRepo struct {
	db *sql.DB
}

// NewCapabilityRepo returns a CapabilityRepo bound to the provided database.
func NewCapabilityRepo(db *sql.DB) *CapabilityRepo { return &CapabilityRepo{db: db} }

// Grant records a (role, identity) pair.
func (r *CapabilityRepo) Grant(ctx context.Context, cap *model.Capability) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO capabilities (role, identity, granted_by) VALUES (?, ?, ?)`,
		cap.Role, cap.Identity, cap.GrantedBy)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrCapabilityExists
	}
	return err
}

// Revoke removes a grant.
func (r *CapabilityRepo) Revoke(ctx context.Context, role, identity string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM capabilities WHERE role = ? AND identity = ?`, role, identity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCapabilityNotFound
	}
	return nil
}

// Has reports whether the grant exists.
func (r *CapabilityRepo) Has(ctx context.Context, role, identity string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM capabilities WHERE role = ? AND identity = ? LIMIT 1`,
		role, identity).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddInspector whitelists an inspector and grants the INSPECTOR
// capability in the same transaction.
func (r *CapabilityRepo) AddInspector(ctx context.Context, ins *model.Inspector) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO inspectors (identity, added_by) VALUES (?, ?)`,
		ins.Identity, ins.AddedBy); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrInspectorExists
		}
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO capabilities (role, identity, granted_by) VALUES (?, ?, ?)`,
		model.RoleInspector, ins.Identity, ins.AddedBy); err != nil {
		// A stray capability row without a whitelist row would make
		// the two diverge; surface it instead of ignoring.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrInspectorExists
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// RemoveInspector removes the whitelist row and revokes the
// capability in the same transaction.
func (r *CapabilityRepo) RemoveInspector(ctx context.Context, identity string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx, `DELETE FROM inspectors WHERE identity = ?`, identity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInspectorNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM capabilities WHERE role = ? AND identity = ?`,
		model.RoleInspector, identity); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// IsInspector reports whether the identity is whitelisted.
func (r *CapabilityRepo) IsInspector(ctx context.Context, identity string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM inspectors WHERE identity = ? LIMIT 1`, identity).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
