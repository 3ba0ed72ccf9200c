package repository

import (
	"context"
	"sync"
	"time"

	"github.com/ecocivic/civicledger/internal/model"
)

// This file holds in-memory implementations of the store
// interfaces.  They back unit tests and let the service layer be
// exercised without a database; the behavior mirrors the MySQL
// repositories, including the sentinel errors.

// MemoryAccountStore is a map-backed AccountStore.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]model.Account
}

// NewMemoryAccountStore returns an empty MemoryAccountStore.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: make(map[string]model.Account)}
}

func (s *MemoryAccountStore) Get(_ context.Context, identity string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[identity]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := a
	return &cp, nil
}

func (s *MemoryAccountStore) GetOrCreate(_ context.Context, identity string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[identity]; ok {
		cp := a
		return &cp, nil
	}
	now := time.Now().UTC()
	a := model.Account{
		Identity:         identity,
		Status:           model.StatusActive,
		RecyclingStrikes: model.InitialRecyclingStrikes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.accounts[identity] = a
	cp := a
	return &cp, nil
}

func (s *MemoryAccountStore) Update(_ context.Context, a *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.Identity]; !ok {
		return ErrAccountNotFound
	}
	cp := *a
	cp.UpdatedAt = time.Now().UTC()
	s.accounts[a.Identity] = cp
	return nil
}

func (s *MemoryAccountStore) SlashTransfer(_ context.Context, from *model.Account, sink string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[from.Identity]; !ok {
		return ErrAccountNotFound
	}
	now := time.Now().UTC()
	cp := *from
	cp.UpdatedAt = now
	t, ok := s.accounts[sink]
	if !ok {
		t = model.Account{
			Identity:         sink,
			Status:           model.StatusActive,
			RecyclingStrikes: model.InitialRecyclingStrikes,
			CreatedAt:        now,
		}
	}
	t.DepositBalance += amount
	t.UpdatedAt = now
	// Both writes happen under the one store lock, mirroring the
	// MySQL transaction.
	s.accounts[from.Identity] = cp
	s.accounts[sink] = t
	return nil
}

// MemoryReadingStore is a map-backed ReadingStore.
type MemoryReadingStore struct {
	mu       sync.RWMutex
	nextID   uint64
	bindings map[string]model.MeterBinding // keyed by meter_no
	bound    map[string]bool               // identities already bound
	readings map[string][]model.Reading    // keyed by meter_no, append order
}

// NewMemoryReadingStore returns an empty MemoryReadingStore.
func NewMemoryReadingStore() *MemoryReadingStore {
	return &MemoryReadingStore{
		bindings: make(map[string]model.MeterBinding),
		bound:    make(map[string]bool),
		readings: make(map[string][]model.Reading),
	}
}

func (s *MemoryReadingStore) BindMeter(_ context.Context, b *model.MeterBinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bindings[b.MeterNo]; ok {
		return ErrMeterBound
	}
	if s.bound[b.Identity] {
		return ErrMeterBound
	}
	cp := *b
	cp.CreatedAt = time.Now().UTC()
	s.bindings[b.MeterNo] = cp
	s.bound[b.Identity] = true
	return nil
}

func (s *MemoryReadingStore) MeterBinding(_ context.Context, meterNo string) (*model.MeterBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bindings[meterNo]
	if !ok {
		return nil, ErrMeterNotFound
	}
	cp := b
	return &cp, nil
}

func (s *MemoryReadingStore) LastReading(_ context.Context, meterNo string) (*model.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.readings[meterNo]
	if len(list) == 0 {
		return nil, nil
	}
	cp := list[len(list)-1]
	return &cp, nil
}

func (s *MemoryReadingStore) RecentByMeter(_ context.Context, meterNo string, limit int) ([]model.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.readings[meterNo]
	var out []model.Reading
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (s *MemoryReadingStore) Append(_ context.Context, r *model.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	cp := *r
	cp.ID = s.nextID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.readings[r.MeterNo] = append(s.readings[r.MeterNo], cp)
	r.ID = cp.ID
	return nil
}

func (s *MemoryReadingStore) History(_ context.Context, identity string, limit int) ([]model.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []model.Reading
	for _, list := range s.readings {
		for _, r := range list {
			if r.Identity == identity {
				all = append(all, r)
			}
		}
	}
	// Most recent first by insertion id.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// MemoryInspectionStore is a map-backed InspectionStore.
type MemoryInspectionStore struct {
	mu      sync.RWMutex
	nextID  uint64
	records map[uint64]model.Inspection
}

// NewMemoryInspectionStore returns an empty MemoryInspectionStore.
func NewMemoryInspectionStore() *MemoryInspectionStore {
	return &MemoryInspectionStore{records: make(map[uint64]model.Inspection)}
}

func (s *MemoryInspectionStore) Create(_ context.Context, ins *model.Inspection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	cp := *ins
	cp.ID = s.nextID
	s.records[cp.ID] = cp
	ins.ID = cp.ID
	return nil
}

func (s *MemoryInspectionStore) Get(_ context.Context, id uint64) (*model.Inspection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ins, ok := s.records[id]
	if !ok {
		return nil, ErrInspectionNotFound
	}
	cp := ins
	return &cp, nil
}

func (s *MemoryInspectionStore) Complete(_ context.Context, ins *model.Inspection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[ins.ID]
	if !ok {
		return ErrInspectionNotFound
	}
	cur.Inspector = ins.Inspector
	cur.Completed = true
	cur.FraudFound = ins.FraudFound
	cur.ActualReading = ins.ActualReading
	cur.ReportedReading = ins.ReportedReading
	cur.Reason = ins.Reason
	if ins.CompletedAt != nil {
		t := *ins.CompletedAt
		cur.CompletedAt = &t
	} else {
		t := time.Now().UTC()
		cur.CompletedAt = &t
	}
	s.records[ins.ID] = cur
	return nil
}

func (s *MemoryInspectionStore) LastCompletedAt(_ context.Context, identity string) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *time.Time
	for _, ins := range s.records {
		if ins.Identity != identity || !ins.Completed || ins.CompletedAt == nil {
			continue
		}
		if latest == nil || ins.CompletedAt.After(*latest) {
			t := *ins.CompletedAt
			latest = &t
		}
	}
	return latest, nil
}

// MemoryTokenStore is a map-backed TokenStore keyed by content hash.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]model.DeclarationToken
}

// NewMemoryTokenStore returns an empty MemoryTokenStore.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]model.DeclarationToken)}
}

func (s *MemoryTokenStore) Create(_ context.Context, t *model.DeclarationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[t.Hash]; ok {
		return ErrTokenUsed
	}
	s.tokens[t.Hash] = *t
	return nil
}

func (s *MemoryTokenStore) GetByHash(_ context.Context, hash string) (*model.DeclarationToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[hash]
	if !ok {
		return nil, ErrTokenNotFound
	}
	cp := t
	return &cp, nil
}

func (s *MemoryTokenStore) MarkUsed(_ context.Context, hash, decision, decidedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[hash]
	if !ok {
		return ErrTokenNotFound
	}
	if t.Used {
		return ErrTokenUsed
	}
	t.Used = true
	t.Decision = decision
	t.DecidedBy = decidedBy
	s.tokens[hash] = t
	return nil
}

// MemoryDebtStore is a slice-backed DebtStore.
type MemoryDebtStore struct {
	mu     sync.RWMutex
	nextID uint64
	debts  []model.DebtRecord
}

// NewMemoryDebtStore returns an empty MemoryDebtStore.
func NewMemoryDebtStore() *MemoryDebtStore { return &MemoryDebtStore{} }

func (s *MemoryDebtStore) Create(_ context.Context, d *model.DebtRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	cp := *d
	cp.ID = s.nextID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.debts = append(s.debts, cp)
	d.ID = cp.ID
	return nil
}

func (s *MemoryDebtStore) ListByAccount(_ context.Context, identity string) ([]model.DebtRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.DebtRecord
	for i := len(s.debts) - 1; i >= 0; i-- {
		if s.debts[i].Identity == identity {
			out = append(out, s.debts[i])
		}
	}
	return out, nil
}

// MemoryCapabilityStore is a map-backed CapabilityStore.
type MemoryCapabilityStore struct {
	mu         sync.RWMutex
	grants     map[string]model.Capability // keyed by role+"\x00"+identity
	inspectors map[string]model.Inspector
}

// NewMemoryCapabilityStore returns an empty MemoryCapabilityStore.
func NewMemoryCapabilityStore() *MemoryCapabilityStore {
	return &MemoryCapabilityStore{
		grants:     make(map[string]model.Capability),
		inspectors: make(map[string]model.Inspector),
	}
}

func grantKey(role, identity string) string { return role + "\x00" + identity }

func (s *MemoryCapabilityStore) Grant(_ context.Context, cap *model.Capability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := grantKey(cap.Role, cap.Identity)
	if _, ok := s.grants[k]; ok {
		return ErrCapabilityExists
	}
	cp := *cap
	cp.CreatedAt = time.Now().UTC()
	s.grants[k] = cp
	return nil
}

func (s *MemoryCapabilityStore) Revoke(_ context.Context, role, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := grantKey(role, identity)
	if _, ok := s.grants[k]; !ok {
		return ErrCapabilityNotFound
	}
	delete(s.grants, k)
	return nil
}

func (s *MemoryCapabilityStore) Has(_ context.Context, role, identity string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[grantKey(role, identity)]
	return ok, nil
}

func (s *MemoryCapabilityStore) AddInspector(_ context.Context, ins *model.Inspector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inspectors[ins.Identity]; ok {
		return ErrInspectorExists
	}
	cp := *ins
	cp.CreatedAt = time.Now().UTC()
	s.inspectors[ins.Identity] = cp
	s.grants[grantKey(model.RoleInspector, ins.Identity)] = model.Capability{
		Role: model.RoleInspector, Identity: ins.Identity, GrantedBy: ins.AddedBy, CreatedAt: cp.CreatedAt,
	}
	return nil
}

func (s *MemoryCapabilityStore) RemoveInspector(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inspectors[identity]; !ok {
		return ErrInspectorNotFound
	}
	delete(s.inspectors, identity)
	delete(s.grants, grantKey(model.RoleInspector, identity))
	return nil
}

func (s *MemoryCapabilityStore) IsInspector(_ context.Context, identity string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.inspectors[identity]
	return ok, nil
}

// MemoryUserStore is a map-backed UserStore.
type MemoryUserStore struct {
	mu         sync.RWMutex
	nextID     uint64
	byEmail    map[string]model.User
	identities map[string]bool
}

// NewMemoryUserStore returns an empty MemoryUserStore.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{byEmail: make(map[string]model.User), identities: make(map[string]bool)}
}

func (s *MemoryUserStore) Create(_ context.Context, u *model.User) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[u.Email]; ok {
		return 0, ErrEmailExists
	}
	if s.identities[u.Identity] {
		return 0, ErrIdentityExists
	}
	s.nextID++
	cp := *u
	cp.ID = s.nextID
	cp.IsActive = true
	cp.CreatedAt = time.Now().UTC()
	s.byEmail[u.Email] = cp
	s.identities[u.Identity] = true
	return cp.ID, nil
}

func (s *MemoryUserStore) ByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := u
	return &cp, nil
}
