package domain

// BidStatus represents the lifecycle state of a bid.
// Bids only ever become active: no operation accepts, settles or refunds
// them yet, so the escrowed funds stay parked under the bid id.
type BidStatus string

const (
	BidStatusActive BidStatus = "active"
)

// BidTTL is the bid lifetime in ledger seconds (+7 days).
const BidTTL int64 = 7 * 24 * 60 * 60

// Bid is an offer to buy a credit, with funds escrowed at creation.
type Bid struct {
	ID        string    `json:"id"`
	CreditID  string    `json:"credit_id"`
	Bidder    string    `json:"bidder"`
	Amount    int64     `json:"amount"` // Escrowed under EscrowKey()
	Status    BidStatus `json:"status"`
	ExpiresAt int64     `json:"expires_at"`
	CreatedAt int64     `json:"created_at"`
}

// EscrowKey is the settlement-ledger key holding this bid's escrowed funds.
func (b *Bid) EscrowKey() string {
	return "escrow:" + b.ID
}
