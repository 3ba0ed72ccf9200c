package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ecocivic/civicledger/internal/model"
)

// TokenRepo provides MySQL-backed access to the declaration_tokens
// table.  The content hash carries a unique key and the used flag
// is flipped with a guarded UPDATE, so a hash can be consumed at
// most once even under concurrent redeems.
type TokenRepo struct {
	db *sql.DB
}

// NewTokenRepo returns a TokenRepo bound to the provided database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// Create stores a freshly issued token.
func (r *TokenRepo) Create(ctx context.Context, t *model.DeclarationToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO declaration_tokens
		 (token_id, identity, plastic_qty, glass_qty, metal_qty, paper_qty, electronic_qty,
		  content_hash, reward, issued_at, expires_at, used, decision, decided_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, '', '')`,
		t.TokenID, t.Identity,
		t.Quantities.Plastic, t.Quantities.Glass, t.Quantities.Metal,
		t.Quantities.Paper, t.Quantities.Electronic,
		t.Hash, t.Reward,
		t.IssuedAt.UTC().Format("2006-01-02 15:04:05"),
		t.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrTokenUsed
	}
	return err
}

// GetByHash returns the token for a content hash.
func (r *TokenRepo) GetByHash(ctx context.Context, hash string) (*model.DeclarationToken, error) {
	var t model.DeclarationToken
	err := r.db.QueryRowContext(ctx,
		`SELECT token_id, identity, plastic_qty, glass_qty, metal_qty, paper_qty, electronic_qty,
		 content_hash, reward, issued_at, expires_at, used, decision, decided_by
		 FROM declaration_tokens WHERE content_hash = ? LIMIT 1`, hash).
		Scan(&t.TokenID, &t.Identity,
			&t.Quantities.Plastic, &t.Quantities.Glass, &t.Quantities.Metal,
			&t.Quantities.Paper, &t.Quantities.Electronic,
			&t.Hash, &t.Reward, &t.IssuedAt, &t.ExpiresAt, &t.Used, &t.Decision, &t.DecidedBy)
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkUsed consumes the hash.  The used = FALSE guard makes the
// flip atomic: the second of two concurrent redeems sees zero rows
// affected and gets ErrTokenUsed.
func (r *TokenRepo) MarkUsed(ctx context.Context, hash, decision, decidedBy string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE declaration_tokens SET used = TRUE, decision = ?, decided_by = ?
		 WHERE content_hash = ? AND used = FALSE`,
		decision, decidedBy, hash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, getErr := r.GetByHash(ctx, hash); getErr != nil {
			return getErr
		}
		return ErrTokenUsed
	}
	return nil
}
