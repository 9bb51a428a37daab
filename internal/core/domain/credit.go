package domain

// CreditStatus represents the lifecycle state of a carbon credit.
type CreditStatus string

const (
	CreditStatusActive  CreditStatus = "active"
	CreditStatusRetired CreditStatus = "retired"
)

// CreditVerificationStatus mirrors the outcome of the verification engine
// onto the credit record.
type CreditVerificationStatus string

const (
	CreditVerificationUnverified        CreditVerificationStatus = "unverified"
	CreditVerificationInProcess         CreditVerificationStatus = "in_process"
	CreditVerificationVerified          CreditVerificationStatus = "verified"
	CreditVerificationCommunityVerified CreditVerificationStatus = "community_verified"
	CreditVerificationRejected          CreditVerificationStatus = "rejected"
	CreditVerificationCommunityRejected CreditVerificationStatus = "community_rejected"
	CreditVerificationFlagged           CreditVerificationStatus = "flagged"
)

// GeoPoint is a WGS84 coordinate pair attached to credit metadata.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CreditMetadata describes the underlying emission-reduction project.
type CreditMetadata struct {
	Location    *GeoPoint `json:"location,omitempty"`
	Country     string    `json:"country,omitempty"`
	ProjectType string    `json:"project_type,omitempty"`
	Methodology string    `json:"methodology,omitempty"`
}

// HistoryEntry is one append-only event on a record's trail.
type HistoryEntry struct {
	Action string `json:"action"`
	Actor  string `json:"actor"`
	Time   int64  `json:"time"` // Ledger time, seconds
	Detail string `json:"detail,omitempty"`
	TxID   string `json:"tx_id,omitempty"`
}

// CarbonCredit represents a tokenized batch of CO2e tonnes.
// Invariant: Reserved + RetiredAmount <= Amount at all times.
type CarbonCredit struct {
	ID                 string                   `json:"id"`
	ProjectID          string                   `json:"project_id"`
	Amount             int64                    `json:"amount"`  // Total issued tonnes
	Reserved           int64                    `json:"reserved"` // Earmarked by active listings
	RetiredAmount      int64                    `json:"retired_amount"`
	Owner              string                   `json:"owner"`
	Status             CreditStatus             `json:"status"`
	VerificationStatus CreditVerificationStatus `json:"verification_status"`
	Vintage            int                      `json:"vintage"`
	Standard           string                   `json:"standard"`
	Metadata           CreditMetadata           `json:"metadata"`
	ParentID           *string                  `json:"parent_id,omitempty"` // Set when split off a larger credit
	History            []HistoryEntry           `json:"history"`
	CreatedAt          int64                    `json:"created_at"`
}

// RemainingAmount is the quantity not yet retired.
func (c *CarbonCredit) RemainingAmount() int64 {
	return c.Amount - c.RetiredAmount
}

// IsRetired reports whether the credit has been permanently retired.
func (c *CarbonCredit) IsRetired() bool {
	return c.Status == CreditStatusRetired
}

// AppendHistory adds an event to the credit's append-only trail.
func (c *CarbonCredit) AppendHistory(e HistoryEntry) {
	c.History = append(c.History, e)
}

// CheckReservation verifies the reservation invariant.
func (c *CarbonCredit) CheckReservation() bool {
	return c.Reserved >= 0 && c.RetiredAmount >= 0 && c.Reserved+c.RetiredAmount <= c.Amount
}
