package domain

// ActivityEntry is one record of the append-only domain audit trail.
type ActivityEntry struct {
	ID      string            `json:"id"`
	Action  string            `json:"action"`
	Actor   string            `json:"actor"`
	Subject string            `json:"subject"` // Primary record id the action touched
	Time    int64             `json:"time"`
	TxID    string            `json:"tx_id"`
	Detail  map[string]string `json:"detail,omitempty"`
}

// TradeRecord is the global marketplace transaction log entry appended on
// every fulfilled order.
type TradeRecord struct {
	ID         string `json:"id"`
	ListingID  string `json:"listing_id"`
	CreditID   string `json:"credit_id"`   // Original credit
	ChildID    string `json:"child_id,omitempty"` // Split credit on partial fills
	Seller     string `json:"seller"`
	Buyer      string `json:"buyer"`
	Quantity   int64  `json:"quantity"`
	TotalPrice int64  `json:"total_price"`
	Time       int64  `json:"time"`
	TxID       string `json:"tx_id"`
}
