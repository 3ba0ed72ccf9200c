package repository

import (
	"context"
	"database/sql"

	"github.com/ecocivic/civicledger/internal/model"
)

// DebtRepo provides MySQL-backed access to the debts table.
// Records are append only.
type DebtRepo struct {
	db *sql.DB
}

// NewDebtRepo returns a DebtRepo bound to the provided database.
func NewDebtRepo(db *sql.DB) *DebtRepo { return &DebtRepo{db: db} }

// Create stores a new debt record and fills in its ID.
func (r *DebtRepo) Create(ctx context.Context, d *model.DebtRecord) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO debts (identity, principal, interest, total) VALUES (?, ?, ?, ?)`,
		d.Identity, d.Principal, d.Interest, d.Total)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

// ListByAccount returns an account's debt records, most recent first.
func (r *DebtRepo) ListByAccount(ctx context.Context, identity string) ([]model.DebtRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, identity, principal, interest, total, created_at
		 FROM debts WHERE identity = ? ORDER BY id DESC`, identity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.DebtRecord
	for rows.Next() {
		var d model.DebtRecord
		if err := rows.Scan(&d.ID, &d.Identity, &d.Principal, &d.Interest, &d.Total, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
