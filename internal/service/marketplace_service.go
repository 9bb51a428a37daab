package service

import (
	"context"
	"fmt"

	"carbon-credit-ledger/internal/core/domain"
	"carbon-credit-ledger/internal/core/ports"
	"carbon-credit-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// MarketplaceServiceImpl implements ports.MarketplaceService.
type MarketplaceServiceImpl struct {
	ledger ports.Ledger
	log    zerolog.Logger
}

// NewMarketplaceService creates a new MarketplaceServiceImpl.
func NewMarketplaceService(ledger ports.Ledger, log zerolog.Logger) *MarketplaceServiceImpl {
	return &MarketplaceServiceImpl{ledger: ledger, log: log}
}

// CreateListing puts a quantity of a credit up for sale and reserves it.
//
// The quantity is not bounded by the credit's unreserved, unretired balance;
// a seller can over-reserve across multiple listings. Kept as the registry
// behaves today.
func (s *MarketplaceServiceImpl) CreateListing(ctx context.Context, txc *domain.TxContext, req ports.CreateListingRequest) (*domain.Listing, error) {
	if req.CreditID == "" {
		return nil, apperror.Validation("creditId is required")
	}
	if req.Quantity < 1 {
		return nil, apperror.Validation("quantity must be at least 1")
	}
	if req.PricePerUnit < 1 {
		return nil, apperror.Validation("pricePerUnit must be at least 1")
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	credit, err := tx.Credits().Get(req.CreditID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup credit: %w", err))
	}
	if credit == nil {
		return nil, apperror.NotFound("credit")
	}
	if credit.Owner != txc.Sender {
		return nil, apperror.Unauthorized("only the credit owner can list it")
	}
	if credit.IsRetired() {
		return nil, apperror.ErrCreditRetired(credit.ID)
	}

	expiresAt := txc.LedgerTime + domain.DefaultListingTTL
	if req.ExpiresAt != nil {
		expiresAt = *req.ExpiresAt
	}

	listing := &domain.Listing{
		ID:           txc.NewID("listing"),
		CreditID:     credit.ID,
		Seller:       txc.Sender,
		Quantity:     req.Quantity,
		PricePerUnit: req.PricePerUnit,
		Status:       domain.ListingStatusActive,
		ExpiresAt:    expiresAt,
		CreatedAt:    txc.LedgerTime,
	}
	listing.AppendHistory(historyEntry(txc, "listing_created",
		fmt.Sprintf("%d units at %d each", req.Quantity, req.PricePerUnit)))

	credit.Reserved += req.Quantity
	credit.AppendHistory(historyEntry(txc, "listed", fmt.Sprintf("reserved %d units for listing %s", req.Quantity, listing.ID)))

	if err := tx.Credits().Put(credit); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update credit: %w", err))
	}
	if err := tx.Listings().Put(listing); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("store listing: %w", err))
	}
	if err := tx.Activity().Append(activityEntry(txc, "listing_created", listing.ID, map[string]string{
		"credit_id": credit.ID,
		"quantity":  fmt.Sprintf("%d", req.Quantity),
	})); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("append activity: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("listing_id", listing.ID).
		Str("credit_id", credit.ID).
		Int64("quantity", req.Quantity).
		Msg("listing created")

	return listing, nil
}

// CancelListing cancels an active listing and releases its reservation.
func (s *MarketplaceServiceImpl) CancelListing(ctx context.Context, txc *domain.TxContext, listingID string) (*domain.Listing, error) {
	if listingID == "" {
		return nil, apperror.Validation("listingId is required")
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	listing, err := tx.Listings().Get(listingID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup listing: %w", err))
	}
	if listing == nil {
		return nil, apperror.NotFound("listing")
	}
	if listing.Seller != txc.Sender {
		return nil, apperror.Unauthorized("only the seller can cancel a listing")
	}
	if !listing.IsActive() {
		return nil, apperror.InvalidState(fmt.Sprintf("listing is %s", listing.Status))
	}

	credit, err := tx.Credits().Get(listing.CreditID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup credit: %w", err))
	}
	if credit == nil {
		return nil, apperror.NotFound("credit")
	}

	listing.Status = domain.ListingStatusCancelled
	listing.AppendHistory(historyEntry(txc, "listing_cancelled", ""))

	credit.Reserved -= listing.Quantity
	if credit.Reserved < 0 {
		credit.Reserved = 0
	}
	credit.AppendHistory(historyEntry(txc, "listing_cancelled", fmt.Sprintf("released %d units from listing %s", listing.Quantity, listing.ID)))

	if err := tx.Listings().Put(listing); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update listing: %w", err))
	}
	if err := tx.Credits().Put(credit); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update credit: %w", err))
	}
	if err := tx.Activity().Append(activityEntry(txc, "listing_cancelled", listing.ID, nil)); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("append activity: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("listing_id", listing.ID).Msg("listing cancelled")

	return listing, nil
}

// FulfillOrder executes a purchase against an active listing, settling the
// price and either splitting a child credit (partial fill) or transferring
// the original (full fill).
func (s *MarketplaceServiceImpl) FulfillOrder(ctx context.Context, txc *domain.TxContext, req ports.FulfillOrderRequest) (*ports.FulfillResult, error) {
	if req.ListingID == "" {
		return nil, apperror.Validation("listingId is required")
	}
	if req.Quantity < 1 {
		return nil, apperror.Validation("quantity must be at least 1")
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	listing, err := tx.Listings().Get(req.ListingID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup listing: %w", err))
	}
	if listing == nil {
		return nil, apperror.NotFound("listing")
	}
	if !listing.IsActive() {
		return nil, apperror.InvalidState(fmt.Sprintf("listing is %s", listing.Status))
	}
	if listing.Seller == txc.Sender {
		return nil, apperror.ErrSelfTrade()
	}
	if req.Quantity > listing.Quantity {
		return nil, apperror.ErrQuantityExceedsListing()
	}

	credit, err := tx.Credits().Get(listing.CreditID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup credit: %w", err))
	}
	if credit == nil {
		return nil, apperror.NotFound("credit")
	}

	totalPrice := req.Quantity * listing.PricePerUnit

	buyerBalance, err := tx.Settlement().Balance(txc.Sender)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("read buyer balance: %w", err))
	}
	if buyerBalance < totalPrice {
		return nil, apperror.ErrInsufficientFunds()
	}
	sellerBalance, err := tx.Settlement().Balance(listing.Seller)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("read seller balance: %w", err))
	}

	// All checks passed; apply the transfer and the credit movement.
	if err := tx.Settlement().SetBalance(txc.Sender, buyerBalance-totalPrice); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("debit buyer: %w", err))
	}
	if err := tx.Settlement().SetBalance(listing.Seller, sellerBalance+totalPrice); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("credit seller: %w", err))
	}

	result := &ports.FulfillResult{Listing: listing, Credit: credit, TotalPrice: totalPrice}

	if req.Quantity < listing.Quantity {
		// Partial fill: split a child credit for the buyer.
		parentID := credit.ID
		child := &domain.CarbonCredit{
			ID:                 txc.NewID("credit"),
			ProjectID:          credit.ProjectID,
			Amount:             req.Quantity,
			Owner:              txc.Sender,
			Status:             domain.CreditStatusActive,
			VerificationStatus: credit.VerificationStatus,
			Vintage:            credit.Vintage,
			Standard:           credit.Standard,
			Metadata:           credit.Metadata,
			ParentID:           &parentID,
			CreatedAt:          txc.LedgerTime,
		}
		child.AppendHistory(historyEntry(txc, "split",
			fmt.Sprintf("split %d units from %s via listing %s", req.Quantity, credit.ID, listing.ID)))

		listing.Quantity -= req.Quantity
		listing.AppendHistory(historyEntry(txc, "partial_fill",
			fmt.Sprintf("%d units to %s", req.Quantity, txc.Sender)))

		// The parent's issued amount is left untouched; the partial sale only
		// releases the sold units from the reservation.
		credit.Reserved -= req.Quantity
		credit.AppendHistory(historyEntry(txc, "partial_sale",
			fmt.Sprintf("%d units sold to %s", req.Quantity, txc.Sender)))

		if err := tx.Credits().Put(child); err != nil {
			return nil, apperror.ErrStorage(fmt.Errorf("store child credit: %w", err))
		}
		result.Child = child
	} else {
		// Full fill: the original credit changes hands and the listing closes.
		credit.Owner = txc.Sender
		credit.Reserved = 0
		credit.AppendHistory(historyEntry(txc, "sale",
			fmt.Sprintf("ownership transferred to %s via listing %s", txc.Sender, listing.ID)))

		listing.Status = domain.ListingStatusCompleted
		listing.AppendHistory(historyEntry(txc, "completed",
			fmt.Sprintf("%d units to %s", req.Quantity, txc.Sender)))
	}

	trade := &domain.TradeRecord{
		ID:         txc.NewID("trade"),
		ListingID:  listing.ID,
		CreditID:   credit.ID,
		Seller:     listing.Seller,
		Buyer:      txc.Sender,
		Quantity:   req.Quantity,
		TotalPrice: totalPrice,
		Time:       txc.LedgerTime,
		TxID:       txc.TxID,
	}
	if result.Child != nil {
		trade.ChildID = result.Child.ID
	}
	result.Trade = trade

	if err := tx.Credits().Put(credit); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update credit: %w", err))
	}
	if err := tx.Listings().Put(listing); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update listing: %w", err))
	}
	if err := tx.Trades().Append(trade); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("append trade: %w", err))
	}
	if err := tx.Activity().Append(activityEntry(txc, "order_fulfilled", listing.ID, map[string]string{
		"credit_id":   credit.ID,
		"quantity":    fmt.Sprintf("%d", req.Quantity),
		"total_price": fmt.Sprintf("%d", totalPrice),
	})); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("append activity: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("listing_id", listing.ID).
		Str("buyer", txc.Sender).
		Int64("quantity", req.Quantity).
		Int64("total_price", totalPrice).
		Msg("order fulfilled")

	return result, nil
}

// CreateBid escrows the bid amount under the bid id.
//
// TODO: add acceptBid/refundBid to drain the escrow; today no operation
// releases it and the funds stay parked.
func (s *MarketplaceServiceImpl) CreateBid(ctx context.Context, txc *domain.TxContext, req ports.CreateBidRequest) (*domain.Bid, error) {
	if req.CreditID == "" {
		return nil, apperror.Validation("creditId is required")
	}
	if req.Amount < 1 {
		return nil, apperror.Validation("bidAmount must be at least 1")
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	credit, err := tx.Credits().Get(req.CreditID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup credit: %w", err))
	}
	if credit == nil {
		return nil, apperror.NotFound("credit")
	}

	balance, err := tx.Settlement().Balance(txc.Sender)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("read bidder balance: %w", err))
	}
	if balance < req.Amount {
		return nil, apperror.ErrInsufficientFunds()
	}

	bid := &domain.Bid{
		ID:        txc.NewID("bid"),
		CreditID:  credit.ID,
		Bidder:    txc.Sender,
		Amount:    req.Amount,
		Status:    domain.BidStatusActive,
		ExpiresAt: txc.LedgerTime + domain.BidTTL,
		CreatedAt: txc.LedgerTime,
	}

	if err := tx.Settlement().SetBalance(txc.Sender, balance-req.Amount); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("debit bidder: %w", err))
	}
	if err := tx.Settlement().SetBalance(bid.EscrowKey(), req.Amount); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("fund escrow: %w", err))
	}
	if err := tx.Bids().Put(bid); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("store bid: %w", err))
	}
	if err := tx.Activity().Append(activityEntry(txc, "bid_created", bid.ID, map[string]string{
		"credit_id": credit.ID,
		"amount":    fmt.Sprintf("%d", req.Amount),
	})); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("append activity: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("bid_id", bid.ID).
		Str("credit_id", credit.ID).
		Int64("amount", req.Amount).
		Msg("bid created, funds escrowed")

	return bid, nil
}
