package ports

import (
	"context"
	"time"

	"carbon-credit-ledger/internal/core/domain"
)

// ---- Credit registry ----

// IssueRequest carries the validated payload for the issue action.
type IssueRequest struct {
	CreditID  string
	ProjectID string
	Amount    int64
	Vintage   int
	Standard  string
	Metadata  domain.CreditMetadata
}

// RegisterProjectRequest carries the registerProject payload.
type RegisterProjectRequest struct {
	ProjectID string
	Name      string
}

// RegistryService issues credits and maintains project totals.
type RegistryService interface {
	Issue(ctx context.Context, txc *domain.TxContext, req IssueRequest) (*domain.CarbonCredit, error)
	RegisterProject(ctx context.Context, txc *domain.TxContext, req RegisterProjectRequest) (*domain.Project, error)
}

// ---- Marketplace ----

type CreateListingRequest struct {
	CreditID     string
	Quantity     int64
	PricePerUnit int64
	ExpiresAt    *int64 // Ledger time; nil = default +30 days
}

type FulfillOrderRequest struct {
	ListingID string
	Quantity  int64
}

type CreateBidRequest struct {
	CreditID string
	Amount   int64
}

// FulfillResult reports the outcome of an order fill.
type FulfillResult struct {
	Listing    *domain.Listing
	Credit     *domain.CarbonCredit // Original credit after the fill
	Child      *domain.CarbonCredit // Split credit; nil on full fills
	Trade      *domain.TradeRecord
	TotalPrice int64
}

// MarketplaceService lists, trades and escrows credits.
type MarketplaceService interface {
	CreateListing(ctx context.Context, txc *domain.TxContext, req CreateListingRequest) (*domain.Listing, error)
	CancelListing(ctx context.Context, txc *domain.TxContext, listingID string) (*domain.Listing, error)
	FulfillOrder(ctx context.Context, txc *domain.TxContext, req FulfillOrderRequest) (*FulfillResult, error)
	CreateBid(ctx context.Context, txc *domain.TxContext, req CreateBidRequest) (*domain.Bid, error)
}

// ---- Verification engine ----

type AddVerifierRequest struct {
	Address string
	Name    string
	Type    domain.VerifierType
}

type SubmitVerificationRequest struct {
	CreditID string
	Data     domain.VerificationData
}

type ReviewRequest struct {
	VerificationID string
	Reason         string
}

type CommunityVoteRequest struct {
	VerificationID string
	Vote           domain.VoteChoice
	Comment        string
}

// VerificationService runs the multi-tier approval state machine.
type VerificationService interface {
	AddVerifier(ctx context.Context, txc *domain.TxContext, req AddVerifierRequest) (*domain.Verifier, error)
	RemoveVerifier(ctx context.Context, txc *domain.TxContext, address string) (*domain.Verifier, error)
	SubmitVerification(ctx context.Context, txc *domain.TxContext, req SubmitVerificationRequest) (*domain.Verification, error)
	ApproveVerification(ctx context.Context, txc *domain.TxContext, req ReviewRequest) (*domain.Verification, error)
	RejectVerification(ctx context.Context, txc *domain.TxContext, req ReviewRequest) (*domain.Verification, error)
	SubmitCommunityVote(ctx context.Context, txc *domain.TxContext, req CommunityVoteRequest) (*domain.Verification, error)
}

// ---- Retirement ledger ----

type RetireCreditsRequest struct {
	CreditIDs          []string
	Quantities         []int64
	BeneficiaryName    string
	BeneficiaryAddress string
	Message            string
	Purpose            domain.RetirementPurpose
	Details            map[string]string
}

// RetirementService retires credits and issues certificates.
type RetirementService interface {
	RetireCredits(ctx context.Context, txc *domain.TxContext, req RetireCreditsRequest) (*domain.Retirement, error)
	GenerateCertificate(ctx context.Context, txc *domain.TxContext, retirementID string) (*domain.Certificate, error)
	VerificationURL(certificateID string) string
}

// ---- Host-side collaborators ----

// IdempotencyCache lets the host dispatcher answer replayed transaction ids
// from the recorded outcome instead of re-executing the call.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
