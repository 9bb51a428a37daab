package domain

// RetirementPurpose is the declared reason for retiring credits.
type RetirementPurpose string

const (
	PurposeCarbonNeutralCompany RetirementPurpose = "carbon_neutral_company"
	PurposeCarbonNeutralProduct RetirementPurpose = "carbon_neutral_product"
	PurposeOffsetTravel         RetirementPurpose = "offset_travel"
	PurposeOffsetEvent          RetirementPurpose = "offset_event"
	PurposeCSR                  RetirementPurpose = "corporate_social_responsibility"
	PurposeCompliance           RetirementPurpose = "compliance"
	PurposeVoluntaryOffset      RetirementPurpose = "voluntary_offset"
	PurposeOther                RetirementPurpose = "other"
)

// Valid reports whether p is in the enumerated purpose set.
func (p RetirementPurpose) Valid() bool {
	switch p {
	case PurposeCarbonNeutralCompany, PurposeCarbonNeutralProduct,
		PurposeOffsetTravel, PurposeOffsetEvent, PurposeCSR,
		PurposeCompliance, PurposeVoluntaryOffset, PurposeOther:
		return true
	}
	return false
}

// RetirementStatus is always completed: a retirement record only exists once
// the whole batch has been applied.
type RetirementStatus string

const (
	RetirementStatusCompleted RetirementStatus = "completed"
)

// RetiredCreditSnapshot freezes the provenance of one retired credit at
// retirement time. Later metadata edits must not alter it.
type RetiredCreditSnapshot struct {
	CreditID  string `json:"credit_id"`
	Quantity  int64  `json:"quantity"`
	Vintage   int    `json:"vintage"`
	Standard  string `json:"standard"`
	ProjectID string `json:"project_id"`
	Country   string `json:"country,omitempty"`
}

// Retirement permanently removes credit quantities from circulation.
type Retirement struct {
	ID                 string                  `json:"id"`
	Retiree            string                  `json:"retiree"`
	BeneficiaryName    string                  `json:"beneficiary_name"`
	BeneficiaryAddress string                  `json:"beneficiary_address,omitempty"`
	Message            string                  `json:"message,omitempty"`
	Credits            []RetiredCreditSnapshot `json:"credits"`
	TotalCO2Tonnes     int64                   `json:"total_co2_tonnes"`
	Purpose            RetirementPurpose       `json:"purpose"`
	Details            map[string]string       `json:"details,omitempty"`
	CertificateID      *string                 `json:"certificate_id,omitempty"`
	CertificateHash    string                  `json:"certificate_hash,omitempty"`
	CertificateTime    int64                   `json:"certificate_time,omitempty"`
	Status             RetirementStatus        `json:"status"`
	TransactionIDs     []string                `json:"transaction_ids"`
	CreatedAt          int64                   `json:"created_at"`
}

// HasCertificate reports whether a certificate was already issued.
func (r *Retirement) HasCertificate() bool {
	return r.CertificateID != nil
}

// CanRequestCertificate reports whether principal may generate the certificate.
func (r *Retirement) CanRequestCertificate(principal string) bool {
	return principal == r.Retiree || (r.BeneficiaryAddress != "" && principal == r.BeneficiaryAddress)
}

// Certificate is the issued proof document for one retirement.
// At most one certificate exists per retirement.
type Certificate struct {
	ID           string                 `json:"id"`
	RetirementID string                 `json:"retirement_id"`
	ContentHash  string                 `json:"content_hash"`
	Snapshot     map[string]interface{} `json:"snapshot"` // Canonical data the hash covers
	CreatedBy    string                 `json:"created_by"`
	CreatedAt    int64                  `json:"created_at"`
}
