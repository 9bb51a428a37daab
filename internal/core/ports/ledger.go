package ports

import (
	"context"

	"carbon-credit-ledger/internal/core/domain"
)

// Ledger opens transaction scopes over the shared state store. The host
// guarantees at most one call executes at a time; the StateTx makes each
// call's reads and writes one atomic unit regardless.
type Ledger interface {
	Begin(ctx context.Context) (StateTx, error)
}

// StateTx is the single logical transaction scope of one module call.
// All stores read committed state plus this call's staged writes; nothing
// becomes visible to later calls until Commit.
type StateTx interface {
	Credits() CreditStore
	Listings() ListingStore
	Bids() BidStore
	Verifiers() VerifierStore
	Verifications() VerificationStore
	Retirements() RetirementStore
	Certificates() CertificateStore
	Projects() ProjectStore
	Trades() TradeStore
	Settlement() SettlementStore
	Governance() GovernanceStore
	Activity() ActivityStore

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// CreditStore is the id-keyed carbon-credit collection.
// Get returns nil, nil when the id is unknown.
type CreditStore interface {
	Get(id string) (*domain.CarbonCredit, error)
	Put(c *domain.CarbonCredit) error
	List() ([]*domain.CarbonCredit, error)
}

// ListingStore is the id-keyed listing collection.
type ListingStore interface {
	Get(id string) (*domain.Listing, error)
	Put(l *domain.Listing) error
}

// BidStore is the id-keyed bid collection.
type BidStore interface {
	Get(id string) (*domain.Bid, error)
	Put(b *domain.Bid) error
}

// VerifierStore is keyed by verifier principal address.
type VerifierStore interface {
	Get(address string) (*domain.Verifier, error)
	Put(v *domain.Verifier) error
}

// VerificationStore is the id-keyed verification collection.
type VerificationStore interface {
	Get(id string) (*domain.Verification, error)
	Put(v *domain.Verification) error
}

// RetirementStore is the id-keyed retirement collection.
type RetirementStore interface {
	Get(id string) (*domain.Retirement, error)
	Put(r *domain.Retirement) error
}

// CertificateStore is the id-keyed certificate collection.
type CertificateStore interface {
	Get(id string) (*domain.Certificate, error)
	Put(c *domain.Certificate) error
}

// ProjectStore is the id-keyed project collection.
type ProjectStore interface {
	Get(id string) (*domain.Project, error)
	Put(p *domain.Project) error
}

// TradeStore appends to the global marketplace transaction log.
type TradeStore interface {
	Append(t *domain.TradeRecord) error
}

// SettlementStore maps principals (and escrow sub-keys) to integer balances.
// Missing principals hold a zero balance.
type SettlementStore interface {
	Balance(principal string) (int64, error)
	SetBalance(principal string, amount int64) error
}

// GovernanceStore holds the single governance configuration record.
// Get returns nil, nil until the record is bootstrapped.
type GovernanceStore interface {
	Get() (*domain.GovernanceConfig, error)
	Set(cfg *domain.GovernanceConfig) error
}

// ActivityStore appends to the domain audit trail.
type ActivityStore interface {
	Append(e *domain.ActivityEntry) error
}
