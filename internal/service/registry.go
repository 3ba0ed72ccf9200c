package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecocivic/civicledger/internal/model"
	"github.com/ecocivic/civicledger/internal/repository"
)

// Registry is the capability registry: it maps identities to role
// tags and answers the authorization checks every other component
// performs before mutating anything.  Authorization failures are
// terminal for the call; there are no retries.
type Registry struct {
	caps  repository.CapabilityStore
	audit Auditor
}

// NewRegistry constructs a Registry over the given store.
func NewRegistry(caps repository.CapabilityStore, audit Auditor) *Registry {
	if caps == nil {
		panic("nil capability store passed to NewRegistry")
	}
	if audit == nil {
		audit = NopAuditor{}
	}
	return &Registry{caps: caps, audit: audit}
}

var knownRoles = map[string]bool{
	model.RoleOperator:     true,
	model.RoleStaff:        true,
	model.RoleInspector:    true,
	model.RoleFraudManager: true,
	model.RoleAdmin:        true,
}

// Grant records a (role, identity) pair.  Only an admin-capable
// actor may grant.
func (s *Registry) Grant(ctx context.Context, actor, role, identity string) error {
	if err := s.Require(ctx, model.RoleAdmin, actor); err != nil {
		return err
	}
	if identity == "" {
		return fmt.Errorf("%w: empty identity", ErrInvalidInput)
	}
	if !knownRoles[role] {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	err := s.caps.Grant(ctx, &model.Capability{Role: role, Identity: identity, GrantedBy: actor})
	if errors.Is(err, repository.ErrCapabilityExists) {
		return fmt.Errorf("%w: %s already granted to %s", ErrInvalidState, role, identity)
	}
	if err != nil {
		return err
	}
	s.audit.Commit(ctx, "capability.granted", identity, map[string]any{"role": role, "by": actor})
	return nil
}

// Revoke removes a grant.  Only an admin-capable actor may revoke.
func (s *Registry) Revoke(ctx context.Context, actor, role, identity string) error {
	if err := s.Require(ctx, model.RoleAdmin, actor); err != nil {
		return err
	}
	if !knownRoles[role] {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	err := s.caps.Revoke(ctx, role, identity)
	if errors.Is(err, repository.ErrCapabilityNotFound) {
		return fmt.Errorf("%w: no %s grant for %s", ErrNotFound, role, identity)
	}
	if err != nil {
		return err
	}
	s.audit.Commit(ctx, "capability.revoked", identity, map[string]any{"role": role, "by": actor})
	return nil
}

// Check reports whether the identity holds the role.
func (s *Registry) Check(ctx context.Context, role, identity string) (bool, error) {
	return s.caps.Has(ctx, role, identity)
}

// Require is the guard used by mutating entry points: it resolves
// Check and converts a missing grant into ErrUnauthorized.
func (s *Registry) Require(ctx context.Context, role, identity string) error {
	ok, err := s.caps.Has(ctx, role, identity)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s requires %s", ErrUnauthorized, identity, role)
	}
	return nil
}

// Seed grants the bootstrap admin capability at process start so a
// fresh deployment has at least one identity able to grant roles.
// An existing grant is not an error.
func (s *Registry) Seed(ctx context.Context, adminIdentity string) error {
	if adminIdentity == "" {
		return nil
	}
	err := s.caps.Grant(ctx, &model.Capability{
		Role: model.RoleAdmin, Identity: adminIdentity, GrantedBy: "bootstrap",
	})
	if errors.Is(err, repository.ErrCapabilityExists) {
		return nil
	}
	return err
}
