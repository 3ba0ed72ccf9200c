package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ecocivic/civicledger/internal/model"
)

// AccountRepo provides MySQL-backed access to the accounts table.
// All timestamps are stored and compared in UTC.
type AccountRepo struct {
	db *sql.DB
}

// NewAccountRepo returns an AccountRepo bound to the provided database.
func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

const accountColumns = `identity, deposit_balance, pending_rewards, status, permanent_flag,
	recycling_strikes, recycling_banned, inspection_pending, last_low_confirmed, created_at, updated_at`

func scanAccount(row *sql.Row) (*model.Account, error) {
	var a model.Account
	var status string
	err := row.Scan(&a.Identity, &a.DepositBalance, &a.PendingRewards, &status, &a.Permanent,
		&a.RecyclingStrikes, &a.RecyclingBanned, &a.InspectionPending, &a.LastLowConfirmed,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = model.ParseAccountStatus(status)
	return &a, nil
}

// Get returns the account for an identity or ErrAccountNotFound.
func (r *AccountRepo) Get(ctx context.Context, identity string) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE identity = ? LIMIT 1`, identity)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	return a, err
}

// GetOrCreate returns the account for an identity, inserting a
// fresh ACTIVE row with the initial strike allowance on first
// interaction.  A concurrent insert of the same identity is
// resolved by re-reading after the duplicate-key failure.
func (r *AccountRepo) GetOrCreate(ctx context.Context, identity string) (*model.Account, error) {
	a, err := r.Get(ctx, identity)
	if err == nil {
		return a, nil
	}
	if err != ErrAccountNotFound {
		return nil, err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO accounts (identity, deposit_balance, pending_rewards, status, permanent_flag,
		 recycling_strikes, recycling_banned, inspection_pending, last_low_confirmed)
		 VALUES (?, 0, 0, 'ACTIVE', FALSE, ?, FALSE, FALSE, FALSE)`,
		identity, model.InitialRecyclingStrikes)
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "1062") {
		return nil, err
	}
	return r.Get(ctx, identity)
}

// Update persists every mutable account field.  The caller holds
// the per-account lock, so a plain UPDATE is race-free here.
func (r *AccountRepo) Update(ctx context.Context, a *model.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET deposit_balance = ?, pending_rewards = ?, status = ?, permanent_flag = ?,
		 recycling_strikes = ?, recycling_banned = ?, inspection_pending = ?, last_low_confirmed = ?,
		 updated_at = UTC_TIMESTAMP()
		 WHERE identity = ?`,
		a.DepositBalance, a.PendingRewards, a.Status.String(), a.Permanent,
		a.RecyclingStrikes, a.RecyclingBanned, a.InspectionPending, a.LastLowConfirmed,
		a.Identity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		// RowsAffected is 0 both for a missing row and for a no-op
		// update; distinguish with a lookup.
		if _, getErr := r.Get(ctx, a.Identity); getErr != nil {
			return getErr
		}
	}
	return err
}

// SlashTransfer writes the debited account and the sink credit in
// one transaction, so a failure between the two statements rolls
// the debit back instead of destroying the amount.
func (r *AccountRepo) SlashTransfer(ctx context.Context, from *model.Account, sink string, amount uint64) error {
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
		`UPDATE accounts SET deposit_balance = ?, pending_rewards = ?, status = ?, permanent_flag = ?,
		 recycling_strikes = ?, recycling_banned = ?, inspection_pending = ?, last_low_confirmed = ?,
		 updated_at = UTC_TIMESTAMP()
		 WHERE identity = ?`,
		from.DepositBalance, from.PendingRewards, from.Status.String(), from.Permanent,
		from.RecyclingStrikes, from.RecyclingBanned, from.InspectionPending, from.LastLowConfirmed,
		from.Identity); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (identity, deposit_balance, pending_rewards, status, permanent_flag,
		 recycling_strikes, recycling_banned, inspection_pending, last_low_confirmed)
		 VALUES (?, ?, 0, 'ACTIVE', FALSE, ?, FALSE, FALSE, FALSE)
		 ON DUPLICATE KEY UPDATE deposit_balance = deposit_balance + ?`,
		sink, amount, model.InitialRecyclingStrikes, amount); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
