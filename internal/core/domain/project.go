package domain

// Project is an optional registry record tracking issuance totals.
// Issue increments the totals only when the record exists.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TotalIssued int64  `json:"total_issued"`
	CreditCount int64  `json:"credit_count"`
	CreatedAt   int64  `json:"created_at"`
}
