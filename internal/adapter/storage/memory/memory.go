// Package memory implements ports.Ledger over in-process maps with staged
// copy-on-write transactions. It is the reference state store: reads return
// committed state plus the call's own staged writes, and nothing is visible
// to other calls until Commit.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"carbon-credit-ledger/internal/core/domain"
	"carbon-credit-ledger/internal/core/ports"
)

// Store is an in-memory Ledger. Begin serializes callers: the transaction
// holds the store lock until Commit or Rollback, matching the host runtime's
// one-call-at-a-time execution model.
type Store struct {
	mu sync.Mutex

	credits       map[string]*domain.CarbonCredit
	listings      map[string]*domain.Listing
	bids          map[string]*domain.Bid
	verifiers     map[string]*domain.Verifier
	verifications map[string]*domain.Verification
	retirements   map[string]*domain.Retirement
	certificates  map[string]*domain.Certificate
	projects      map[string]*domain.Project
	trades        []*domain.TradeRecord
	activity      []*domain.ActivityEntry
	balances      map[string]int64
	governance    *domain.GovernanceConfig
}

// New creates an empty in-memory ledger.
func New() *Store {
	return &Store{
		credits:       make(map[string]*domain.CarbonCredit),
		listings:      make(map[string]*domain.Listing),
		bids:          make(map[string]*domain.Bid),
		verifiers:     make(map[string]*domain.Verifier),
		verifications: make(map[string]*domain.Verification),
		retirements:   make(map[string]*domain.Retirement),
		certificates:  make(map[string]*domain.Certificate),
		projects:      make(map[string]*domain.Project),
		balances:      make(map[string]int64),
	}
}

// Begin opens a transaction scope. The caller must Commit or Rollback.
func (s *Store) Begin(_ context.Context) (ports.StateTx, error) {
	s.mu.Lock()
	return &stateTx{
		store:         s,
		credits:       newCollection(s.credits, func(c *domain.CarbonCredit) string { return c.ID }),
		listings:      newCollection(s.listings, func(l *domain.Listing) string { return l.ID }),
		bids:          newCollection(s.bids, func(b *domain.Bid) string { return b.ID }),
		verifiers:     newCollection(s.verifiers, func(v *domain.Verifier) string { return v.Address }),
		verifications: newCollection(s.verifications, func(v *domain.Verification) string { return v.ID }),
		retirements:   newCollection(s.retirements, func(r *domain.Retirement) string { return r.ID }),
		certificates:  newCollection(s.certificates, func(c *domain.Certificate) string { return c.ID }),
		projects:      newCollection(s.projects, func(p *domain.Project) string { return p.ID }),
		trades:        &appendLog[domain.TradeRecord]{},
		activity:      &appendLog[domain.ActivityEntry]{},
		balances:      &balanceTable{base: s.balances, staged: make(map[string]int64)},
		governance:    &governanceCell{base: s.governance},
	}, nil
}

// TradeLog returns a snapshot of the committed trade records.
func (s *Store) TradeLog() []*domain.TradeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.TradeRecord, len(s.trades))
	copy(out, s.trades)
	return out
}

// ActivityLog returns a snapshot of the committed activity trail.
func (s *Store) ActivityLog() []*domain.ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.ActivityEntry, len(s.activity))
	copy(out, s.activity)
	return out
}

// clone deep-copies a record through JSON so staged and committed state
// never share slices or maps.
func clone[T any](v *T) (*T, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("clone marshal: %w", err)
	}
	out := new(T)
	if err := json.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("clone unmarshal: %w", err)
	}
	return out, nil
}

// collection is one id-keyed record set with a staged write overlay.
type collection[T any] struct {
	base   map[string]*T
	staged map[string]*T
	key    func(*T) string
}

func newCollection[T any](base map[string]*T, key func(*T) string) *collection[T] {
	return &collection[T]{base: base, staged: make(map[string]*T), key: key}
}

// Get returns a copy of the record, or nil, nil when the id is unknown.
func (c *collection[T]) Get(id string) (*T, error) {
	if v, ok := c.staged[id]; ok {
		return clone(v)
	}
	if v, ok := c.base[id]; ok {
		return clone(v)
	}
	return nil, nil
}

// Put stages a record write.
func (c *collection[T]) Put(v *T) error {
	cp, err := clone(v)
	if err != nil {
		return err
	}
	c.staged[c.key(cp)] = cp
	return nil
}

// List returns copies of every record, staged writes included.
func (c *collection[T]) List() ([]*T, error) {
	out := make([]*T, 0, len(c.base)+len(c.staged))
	for id, v := range c.base {
		if _, overridden := c.staged[id]; overridden {
			continue
		}
		cp, err := clone(v)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	for _, v := range c.staged {
		cp, err := clone(v)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

func (c *collection[T]) commit() {
	for id, v := range c.staged {
		c.base[id] = v
	}
}

// appendLog stages append-only entries.
type appendLog[T any] struct {
	staged []*T
}

func (l *appendLog[T]) Append(v *T) error {
	cp, err := clone(v)
	if err != nil {
		return err
	}
	l.staged = append(l.staged, cp)
	return nil
}

// balanceTable stages settlement balance writes.
type balanceTable struct {
	base   map[string]int64
	staged map[string]int64
}

func (b *balanceTable) Balance(principal string) (int64, error) {
	if v, ok := b.staged[principal]; ok {
		return v, nil
	}
	return b.base[principal], nil
}

func (b *balanceTable) SetBalance(principal string, amount int64) error {
	b.staged[principal] = amount
	return nil
}

func (b *balanceTable) commit() {
	for p, v := range b.staged {
		b.base[p] = v
	}
}

// governanceCell stages the single governance record.
type governanceCell struct {
	base   *domain.GovernanceConfig
	staged *domain.GovernanceConfig
}

func (g *governanceCell) Get() (*domain.GovernanceConfig, error) {
	if g.staged != nil {
		return clone(g.staged)
	}
	if g.base == nil {
		return nil, nil
	}
	return clone(g.base)
}

func (g *governanceCell) Set(cfg *domain.GovernanceConfig) error {
	cp, err := clone(cfg)
	if err != nil {
		return err
	}
	g.staged = cp
	return nil
}

// stateTx is one atomic transaction scope over the store.
type stateTx struct {
	store *Store
	done  bool

	credits       *collection[domain.CarbonCredit]
	listings      *collection[domain.Listing]
	bids          *collection[domain.Bid]
	verifiers     *collection[domain.Verifier]
	verifications *collection[domain.Verification]
	retirements   *collection[domain.Retirement]
	certificates  *collection[domain.Certificate]
	projects      *collection[domain.Project]
	trades        *appendLog[domain.TradeRecord]
	activity      *appendLog[domain.ActivityEntry]
	balances      *balanceTable
	governance    *governanceCell
}

func (t *stateTx) Credits() ports.CreditStore             { return t.credits }
func (t *stateTx) Listings() ports.ListingStore           { return t.listings }
func (t *stateTx) Bids() ports.BidStore                   { return t.bids }
func (t *stateTx) Verifiers() ports.VerifierStore         { return t.verifiers }
func (t *stateTx) Verifications() ports.VerificationStore { return t.verifications }
func (t *stateTx) Retirements() ports.RetirementStore     { return t.retirements }
func (t *stateTx) Certificates() ports.CertificateStore   { return t.certificates }
func (t *stateTx) Projects() ports.ProjectStore           { return t.projects }
func (t *stateTx) Trades() ports.TradeStore               { return t.trades }
func (t *stateTx) Settlement() ports.SettlementStore      { return t.balances }
func (t *stateTx) Governance() ports.GovernanceStore      { return t.governance }
func (t *stateTx) Activity() ports.ActivityStore          { return t.activity }

// Commit publishes every staged write atomically.
func (t *stateTx) Commit(_ context.Context) error {
	if t.done {
		return fmt.Errorf("transaction already closed")
	}
	t.credits.commit()
	t.listings.commit()
	t.bids.commit()
	t.verifiers.commit()
	t.verifications.commit()
	t.retirements.commit()
	t.certificates.commit()
	t.projects.commit()
	t.store.trades = append(t.store.trades, t.trades.staged...)
	t.store.activity = append(t.store.activity, t.activity.staged...)
	t.balances.commit()
	if t.governance.staged != nil {
		t.store.governance = t.governance.staged
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

// Rollback discards staged writes. Safe to call after Commit.
func (t *stateTx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}
