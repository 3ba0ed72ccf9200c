package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ecocivic/civicledger/internal/model"
	"github.com/ecocivic/civicledger/internal/repository"
)

// Recycling runs the declaration/redemption reward pipeline.  A
// citizen declares materials and receives a one-time token; facility
// staff scan the token and either approve it (crediting the reward)
// or flag it as fraudulent (burning a strike).  Running out of
// strikes bans the account from the pipeline until an administrator
// lifts the ban.
type Recycling struct {
	accounts repository.AccountStore
	tokens   repository.TokenStore
	ledger   *Ledger
	registry *Registry
	locks    *AccountLocks
	policy   Policy
	audit    Auditor
	now      func() time.Time
}

// NewRecycling constructs the pipeline.  now is injectable for
// expiry tests; pass nil for the wall clock.
func NewRecycling(accounts repository.AccountStore, tokens repository.TokenStore,
	ledger *Ledger, registry *Registry, locks *AccountLocks, policy Policy,
	audit Auditor, now func() time.Time) *Recycling {
	if accounts == nil || tokens == nil || ledger == nil || registry == nil || locks == nil {
		panic("nil dependency passed to NewRecycling")
	}
	if audit == nil {
		audit = NopAuditor{}
	}
	if now == nil {
		now = time.Now
	}
	return &Recycling{
		accounts: accounts, tokens: tokens, ledger: ledger, registry: registry,
		locks: locks, policy: policy, audit: audit, now: now,
	}
}

// IssueToken validates a material declaration and mints a one-time
// token for it.  The declared quantities are frozen into the token;
// the reward is computed now and credited only on approval.
func (s *Recycling) IssueToken(ctx context.Context, identity string, q model.MaterialQuantities) (*model.DeclarationToken, error) {
	if identity == "" {
		return nil, fmt.Errorf("%w: empty identity", ErrInvalidInput)
	}
	if q.Empty() {
		return nil, fmt.Errorf("%w: declaration has no materials", ErrInvalidInput)
	}
	for _, m := range model.Materials {
		n := q.Get(m)
		if m == model.MaterialElectronic {
			if n > model.MaxElectronicUnit {
				return nil, fmt.Errorf("%w: %s exceeds %d units", ErrInvalidInput, m, model.MaxElectronicUnit)
			}
			continue
		}
		if n > model.MaxMaterialKg {
			return nil, fmt.Errorf("%w: %s exceeds %d kg", ErrInvalidInput, m, model.MaxMaterialKg)
		}
	}

	unlock := s.locks.Lock(identity)
	defer unlock()

	a, err := s.accounts.GetOrCreate(ctx, identity)
	if err != nil {
		return nil, err
	}
	if a.RecyclingBanned {
		return nil, ErrRecyclingBanned
	}
	if a.Status == model.StatusSuspended {
		return nil, ErrUserSuspended
	}

	issued := s.now()
	t := &model.DeclarationToken{
		TokenID:    uuid.New().String(),
		Identity:   identity,
		Quantities: q,
		Reward:     q.Reward(),
		IssuedAt:   issued,
		ExpiresAt:  issued.Add(s.policy.TokenTTL),
	}
	t.Hash = contentHash(t)
	if err := s.tokens.Create(ctx, t); err != nil {
		return nil, err
	}
	s.audit.Commit(ctx, "recycling.declared", identity, map[string]any{
		"token_id": t.TokenID, "reward": t.Reward,
	})
	return t, nil
}

// contentHash binds the token id, the owner and the declared
// quantities so a scanned code cannot be re-attributed or altered.
func contentHash(t *model.DeclarationToken) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|%d|%d|%d|%d|%d",
		t.TokenID, t.Identity,
		t.Quantities.Plastic, t.Quantities.Glass, t.Quantities.Metal,
		t.Quantities.Paper, t.Quantities.Electronic,
		t.IssuedAt.Unix())
	return hex.EncodeToString(h.Sum(nil))
}

// RedeemResult reports what happened at the facility desk.
type RedeemResult struct {
	Approved        bool   `json:"approved"`
	Reward          uint64 `json:"reward"`
	StrikesLeft     int    `json:"strikes_left"`
	RecyclingBanned bool   `json:"recycling_banned"`
}

// Redeem consumes a declaration token at the facility.  Staff only.
//
// approve=true credits the precomputed reward to the declarer's
// pending rewards.  approve=false records a fraudulent declaration:
// the token still burns, one strike is deducted, and at zero the
// account is banned from further declarations.
//
// A token is checked for replay before expiry, so a second scan of
// an expired-and-used token reports the replay, not the expiry.
func (s *Recycling) Redeem(ctx context.Context, staff, hash string, approve bool) (*RedeemResult, error) {
	if err := s.registry.Require(ctx, model.RoleStaff, staff); err != nil {
		return nil, err
	}
	t, err := s.tokens.GetByHash(ctx, hash)
	if err != nil {
		if err == repository.ErrTokenNotFound {
			return nil, fmt.Errorf("%w: unknown token", ErrNotFound)
		}
		return nil, err
	}
	if t.Used {
		return nil, ErrReplayedToken
	}
	if s.now().After(t.ExpiresAt) {
		return nil, ErrExpiredToken
	}

	unlock := s.locks.Lock(t.Identity)
	defer unlock()

	decision := "APPROVED"
	if !approve {
		decision = "FRAUD"
	}
	if err := s.tokens.MarkUsed(ctx, hash, decision, staff); err != nil {
		if err == repository.ErrTokenUsed {
			return nil, ErrReplayedToken
		}
		return nil, err
	}

	a, err := s.accounts.Get(ctx, t.Identity)
	if err != nil {
		return nil, err
	}
	res := &RedeemResult{Approved: approve, StrikesLeft: a.RecyclingStrikes}

	if approve {
		res.Reward = t.Reward
		if err := s.ledger.mintLocked(ctx, t.Identity, t.Reward, "recycling reward"); err != nil {
			return nil, err
		}
		s.audit.Commit(ctx, "recycling.approved", t.Identity, map[string]any{
			"token_id": t.TokenID, "reward": t.Reward, "by": staff,
		})
		return res, nil
	}

	if a.RecyclingStrikes > 0 {
		a.RecyclingStrikes--
	}
	if a.RecyclingStrikes == 0 {
		a.RecyclingBanned = true
	}
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, err
	}
	res.StrikesLeft = a.RecyclingStrikes
	res.RecyclingBanned = a.RecyclingBanned
	s.audit.Commit(ctx, "recycling.fraud", t.Identity, map[string]any{
		"token_id": t.TokenID, "strikes_left": a.RecyclingStrikes,
		"banned": a.RecyclingBanned, "by": staff,
	})
	return res, nil
}

// LiftBan restores a banned account's access to the pipeline and
// resets its strikes.  Admin only.
func (s *Recycling) LiftBan(ctx context.Context, actor, identity string) error {
	if err := s.registry.Require(ctx, model.RoleAdmin, actor); err != nil {
		return err
	}
	unlock := s.locks.Lock(identity)
	defer unlock()
	a, err := s.accounts.Get(ctx, identity)
	if err != nil {
		return fmt.Errorf("%w: account %s", ErrNotFound, identity)
	}
	if !a.RecyclingBanned {
		return fmt.Errorf("%w: account is not banned", ErrInvalidState)
	}
	a.RecyclingBanned = false
	a.RecyclingStrikes = model.InitialRecyclingStrikes
	if err := s.accounts.Update(ctx, a); err != nil {
		return err
	}
	s.audit.Commit(ctx, "recycling.ban_lifted", identity, map[string]any{"by": actor})
	return nil
}

// Token returns a declaration token by its content hash.  Read only.
func (s *Recycling) Token(ctx context.Context, hash string) (*model.DeclarationToken, error) {
	t, err := s.tokens.GetByHash(ctx, hash)
	if err == repository.ErrTokenNotFound {
		return nil, fmt.Errorf("%w: unknown token", ErrNotFound)
	}
	return t, err
}
