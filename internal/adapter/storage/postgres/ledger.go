package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"carbon-credit-ledger/internal/core/domain"
	"carbon-credit-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// Collection names under ledger_state.
const (
	colCredits       = "credits"
	colListings      = "listings"
	colBids          = "bids"
	colVerifiers     = "verifiers"
	colVerifications = "verifications"
	colRetirements   = "retirements"
	colCertificates  = "certificates"
	colProjects      = "projects"
	colGovernance    = "governance"
)

// governanceID is the single row id for the governance configuration.
const governanceID = "config"

// Ledger implements ports.Ledger on PostgreSQL. Every module call maps onto
// one database transaction, so the validate-then-commit discipline of the
// services translates directly into SQL transaction semantics.
type Ledger struct {
	pool Pool
}

// NewLedger creates a PostgreSQL-backed ledger.
func NewLedger(pool Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Begin opens a database transaction for one module call.
func (l *Ledger) Begin(ctx context.Context) (ports.StateTx, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin pg tx: %w", err)
	}
	return &stateTx{ctx: ctx, tx: tx}, nil
}

// stateTx wraps a pgx.Tx as a ports.StateTx. The context is captured at
// Begin because the store interfaces are context-free by design.
type stateTx struct {
	ctx  context.Context
	tx   pgx.Tx
	done bool
}

func (s *stateTx) Credits() ports.CreditStore {
	return &creditStore{recordStore[domain.CarbonCredit]{s: s, collection: colCredits,
		key: func(c *domain.CarbonCredit) string { return c.ID }}}
}

func (s *stateTx) Listings() ports.ListingStore {
	return &recordStore[domain.Listing]{s: s, collection: colListings,
		key: func(l *domain.Listing) string { return l.ID }}
}

func (s *stateTx) Bids() ports.BidStore {
	return &recordStore[domain.Bid]{s: s, collection: colBids,
		key: func(b *domain.Bid) string { return b.ID }}
}

func (s *stateTx) Verifiers() ports.VerifierStore {
	return &recordStore[domain.Verifier]{s: s, collection: colVerifiers,
		key: func(v *domain.Verifier) string { return v.Address }}
}

func (s *stateTx) Verifications() ports.VerificationStore {
	return &recordStore[domain.Verification]{s: s, collection: colVerifications,
		key: func(v *domain.Verification) string { return v.ID }}
}

func (s *stateTx) Retirements() ports.RetirementStore {
	return &recordStore[domain.Retirement]{s: s, collection: colRetirements,
		key: func(r *domain.Retirement) string { return r.ID }}
}

func (s *stateTx) Certificates() ports.CertificateStore {
	return &recordStore[domain.Certificate]{s: s, collection: colCertificates,
		key: func(c *domain.Certificate) string { return c.ID }}
}

func (s *stateTx) Projects() ports.ProjectStore {
	return &recordStore[domain.Project]{s: s, collection: colProjects,
		key: func(p *domain.Project) string { return p.ID }}
}

func (s *stateTx) Trades() ports.TradeStore {
	return &appendLog[domain.TradeRecord]{s: s, table: "trade_log",
		key: func(t *domain.TradeRecord) string { return t.ID }}
}

func (s *stateTx) Activity() ports.ActivityStore {
	return &appendLog[domain.ActivityEntry]{s: s, table: "activity_log",
		key: func(e *domain.ActivityEntry) string { return e.ID }}
}

func (s *stateTx) Settlement() ports.SettlementStore {
	return &settlementStore{s: s}
}

func (s *stateTx) Governance() ports.GovernanceStore {
	return &governanceStore{s: s}
}

// Commit makes the call's writes durable.
func (s *stateTx) Commit(ctx context.Context) error {
	if s.done {
		return errors.New("transaction already finished")
	}
	if err := s.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit pg tx: %w", err)
	}
	s.done = true
	return nil
}

// Rollback discards the call's writes. After Commit it is a no-op, so the
// services' deferred Rollback is always safe.
func (s *stateTx) Rollback(ctx context.Context) error {
	if s.done {
		return nil
	}
	s.done = true
	if err := s.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback pg tx: %w", err)
	}
	return nil
}

// recordStore is one JSONB collection under ledger_state.
type recordStore[T any] struct {
	s          *stateTx
	collection string
	key        func(*T) string
}

// Get returns nil, nil when the id is unknown.
func (r *recordStore[T]) Get(id string) (*T, error) {
	var raw []byte
	err := r.s.tx.QueryRow(r.s.ctx,
		`SELECT record FROM ledger_state WHERE collection = $1 AND id = $2`,
		r.collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s record: %w", r.collection, err)
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", r.collection, err)
	}
	return v, nil
}

// Put upserts the record under its key.
func (r *recordStore[T]) Put(v *T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", r.collection, err)
	}
	_, err = r.s.tx.Exec(r.s.ctx,
		`INSERT INTO ledger_state (collection, id, record) VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id) DO UPDATE SET record = EXCLUDED.record`,
		r.collection, r.key(v), raw)
	if err != nil {
		return fmt.Errorf("put %s record: %w", r.collection, err)
	}
	return nil
}

func (r *recordStore[T]) list() ([]*T, error) {
	rows, err := r.s.tx.Query(r.s.ctx,
		`SELECT record FROM ledger_state WHERE collection = $1 ORDER BY id`,
		r.collection)
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", r.collection, err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s record: %w", r.collection, err)
		}
		v := new(T)
		if err := json.Unmarshal(raw, v); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", r.collection, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s records: %w", r.collection, err)
	}
	return out, nil
}

// creditStore adds the full-collection scan the duplicate check needs.
type creditStore struct {
	recordStore[domain.CarbonCredit]
}

func (c *creditStore) List() ([]*domain.CarbonCredit, error) {
	return c.list()
}

// appendLog is one append-only JSONB table.
type appendLog[T any] struct {
	s     *stateTx
	table string
	key   func(*T) string
}

func (a *appendLog[T]) Append(v *T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", a.table, err)
	}
	_, err = a.s.tx.Exec(a.s.ctx,
		fmt.Sprintf(`INSERT INTO %s (id, record) VALUES ($1, $2)`, a.table),
		a.key(v), raw)
	if err != nil {
		return fmt.Errorf("append %s entry: %w", a.table, err)
	}
	return nil
}

// settlementStore maps principals and escrow sub-keys to integer balances.
type settlementStore struct {
	s *stateTx
}

// Balance treats missing accounts as zero.
func (st *settlementStore) Balance(principal string) (int64, error) {
	var balance int64
	err := st.s.tx.QueryRow(st.s.ctx,
		`SELECT balance FROM settlement_balances WHERE account = $1`,
		principal).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

func (st *settlementStore) SetBalance(principal string, amount int64) error {
	_, err := st.s.tx.Exec(st.s.ctx,
		`INSERT INTO settlement_balances (account, balance) VALUES ($1, $2)
		 ON CONFLICT (account) DO UPDATE SET balance = EXCLUDED.balance`,
		principal, amount)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

// governanceStore holds the singleton configuration row.
type governanceStore struct {
	s *stateTx
}

func (g *governanceStore) Get() (*domain.GovernanceConfig, error) {
	store := &recordStore[domain.GovernanceConfig]{s: g.s, collection: colGovernance,
		key: func(*domain.GovernanceConfig) string { return governanceID }}
	return store.Get(governanceID)
}

func (g *governanceStore) Set(cfg *domain.GovernanceConfig) error {
	store := &recordStore[domain.GovernanceConfig]{s: g.s, collection: colGovernance,
		key: func(*domain.GovernanceConfig) string { return governanceID }}
	return store.Put(cfg)
}
