package domain

// ListingStatus represents the lifecycle state of a marketplace listing.
type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusCancelled ListingStatus = "cancelled"
	ListingStatusCompleted ListingStatus = "completed"
)

// DefaultListingTTL is the default listing lifetime in ledger seconds (+30 days).
const DefaultListingTTL int64 = 30 * 24 * 60 * 60

// Listing offers a quantity of a credit for sale at a fixed unit price.
type Listing struct {
	ID           string         `json:"id"`
	CreditID     string         `json:"credit_id"`
	Seller       string         `json:"seller"`
	Quantity     int64          `json:"quantity"`
	PricePerUnit int64          `json:"price_per_unit"`
	Status       ListingStatus  `json:"status"`
	ExpiresAt    int64          `json:"expires_at"` // Ledger time, seconds
	History      []HistoryEntry `json:"history"`
	CreatedAt    int64          `json:"created_at"`
}

// IsActive reports whether the listing can still be filled or cancelled.
func (l *Listing) IsActive() bool {
	return l.Status == ListingStatusActive
}

// AppendHistory adds an event to the listing's trail.
func (l *Listing) AppendHistory(e HistoryEntry) {
	l.History = append(l.History, e)
}
