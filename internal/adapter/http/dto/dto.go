package dto

import "carbon-credit-ledger/internal/core/domain"

// GeoPoint mirrors domain.GeoPoint for request binding.
type GeoPoint struct {
	Lat float64 `json:"lat" binding:"gte=-90,lte=90"`
	Lon float64 `json:"lon" binding:"gte=-180,lte=180"`
}

// CreditMetadata is the optional project metadata on issuance.
type CreditMetadata struct {
	Location    *GeoPoint `json:"location,omitempty"`
	Country     string    `json:"country,omitempty" binding:"max=64"`
	ProjectType string    `json:"project_type,omitempty" binding:"max=64"`
	Methodology string    `json:"methodology,omitempty" binding:"max=64"`
}

// ToDomain converts the metadata DTO.
func (m CreditMetadata) ToDomain() domain.CreditMetadata {
	md := domain.CreditMetadata{
		Country:     m.Country,
		ProjectType: m.ProjectType,
		Methodology: m.Methodology,
	}
	if m.Location != nil {
		md.Location = &domain.GeoPoint{Lat: m.Location.Lat, Lon: m.Location.Lon}
	}
	return md
}

// IssueRequest is the request body for credit issuance.
type IssueRequest struct {
	CreditID  string         `json:"credit_id" binding:"required,min=1,max=64,safe_id"`
	ProjectID string         `json:"project_id" binding:"required,min=1,max=64,safe_id"`
	Amount    int64          `json:"amount" binding:"required,gt=0"`
	Vintage   int            `json:"vintage" binding:"required,gt=0"`
	Standard  string         `json:"standard" binding:"required,min=1,max=32"`
	Metadata  CreditMetadata `json:"metadata"`
}

// RegisterProjectRequest is the request body for project registration.
type RegisterProjectRequest struct {
	ProjectID string `json:"project_id" binding:"required,min=1,max=64,safe_id"`
	Name      string `json:"name" binding:"required,min=1,max=128"`
}

// CreateListingRequest is the request body for listing a credit quantity.
type CreateListingRequest struct {
	CreditID     string `json:"credit_id" binding:"required,safe_id"`
	Quantity     int64  `json:"quantity" binding:"required,gt=0"`
	PricePerUnit int64  `json:"price_per_unit" binding:"required,gt=0"`
	ExpiresAt    *int64 `json:"expires_at,omitempty"` // Ledger time; omit for the default TTL
}

// CancelListingRequest is the request body for listing cancellation.
type CancelListingRequest struct {
	ListingID string `json:"listing_id" binding:"required"`
}

// FulfillOrderRequest is the request body for buying from a listing.
type FulfillOrderRequest struct {
	ListingID string `json:"listing_id" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
}

// CreateBidRequest is the request body for an escrowed bid.
type CreateBidRequest struct {
	CreditID string `json:"credit_id" binding:"required,safe_id"`
	Amount   int64  `json:"bid_amount" binding:"required,gt=0"`
}

// AddVerifierRequest is the request body for verifier registration.
type AddVerifierRequest struct {
	Address string `json:"verifier_address" binding:"required,min=1,max=128"`
	Name    string `json:"verifier_name" binding:"required,min=1,max=128"`
	Type    string `json:"verifier_type" binding:"required,oneof=traditional community algorithmic"`
}

// RemoveVerifierRequest is the request body for verifier deactivation.
type RemoveVerifierRequest struct {
	Address string `json:"verifier_address" binding:"required"`
}

// VerificationData is the evidence carried by a submission.
type VerificationData struct {
	Methodology  string `json:"methodology" binding:"required,max=64"`
	Findings     string `json:"findings" binding:"required,max=4096"`
	EvidenceHash string `json:"evidence_hash" binding:"required,max=128"`
	Score        int    `json:"score" binding:"gte=0,lte=100"`
}

// SubmitVerificationRequest is the request body for opening a verification.
type SubmitVerificationRequest struct {
	CreditID string           `json:"credit_id" binding:"required,safe_id"`
	Data     VerificationData `json:"verification_data" binding:"required"`
}

// ReviewRequest is the request body for approve/reject decisions.
type ReviewRequest struct {
	VerificationID string `json:"verification_id" binding:"required"`
	Reason         string `json:"reason" binding:"max=1024"`
}

// CommunityVoteRequest is the request body for one community vote.
type CommunityVoteRequest struct {
	VerificationID string `json:"verification_id" binding:"required"`
	Vote           string `json:"vote" binding:"required,oneof=approve reject flag"`
	Comment        string `json:"comment" binding:"max=1024"`
}

// RetireCreditsRequest is the request body for a retirement batch.
type RetireCreditsRequest struct {
	CreditIDs          []string          `json:"credit_ids" binding:"required,min=1,dive,required"`
	Quantities         []int64           `json:"quantities" binding:"required,min=1,dive,gt=0"`
	BeneficiaryName    string            `json:"beneficiary_name" binding:"required,min=1,max=128"`
	BeneficiaryAddress string            `json:"beneficiary_address" binding:"max=128"`
	Message            string            `json:"message" binding:"max=1024"`
	Purpose            string            `json:"purpose" binding:"required"`
	Details            map[string]string `json:"details,omitempty"`
}

// GenerateCertificateRequest is the request body for certificate issuance.
type GenerateCertificateRequest struct {
	RetirementID string `json:"retirement_id" binding:"required"`
}

// FulfillOrderResponse reports the settled trade.
type FulfillOrderResponse struct {
	Listing    *domain.Listing      `json:"listing"`
	Credit     *domain.CarbonCredit `json:"credit"`
	Child      *domain.CarbonCredit `json:"child_credit,omitempty"`
	Trade      *domain.TradeRecord  `json:"trade"`
	TotalPrice int64                `json:"total_price"`
}

// CertificateResponse augments the certificate with its public check link.
type CertificateResponse struct {
	Certificate     *domain.Certificate `json:"certificate"`
	VerificationURL string              `json:"verification_url"`
}
