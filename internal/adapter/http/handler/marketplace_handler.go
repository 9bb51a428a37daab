package handler

import (
	"carbon-credit-ledger/internal/adapter/http/dto"
	"carbon-credit-ledger/internal/core/ports"
	"carbon-credit-ledger/pkg/apperror"
	"carbon-credit-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// MarketplaceHandler handles marketplace endpoints.
type MarketplaceHandler struct {
	marketSvc ports.MarketplaceService
}

// NewMarketplaceHandler creates a new MarketplaceHandler.
func NewMarketplaceHandler(marketSvc ports.MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{marketSvc: marketSvc}
}

// CreateListing handles POST /api/v1/marketplace/listings.
func (h *MarketplaceHandler) CreateListing(c *gin.Context) {
	txc, ok := txContext(c)
	if !ok {
		return
	}

	var req dto.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	listing, err := h.marketSvc.CreateListing(c.Request.Context(), txc, ports.CreateListingRequest{
		CreditID:     req.CreditID,
		Quantity:     req.Quantity,
		PricePerUnit: req.PricePerUnit,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, listing)
}

// CancelListing handles POST /api/v1/marketplace/listings/cancel.
func (h *MarketplaceHandler) CancelListing(c *gin.Context) {
	txc, ok := txContext(c)
	if !ok {
		return
	}

	var req dto.CancelListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	listing, err := h.marketSvc.CancelListing(c.Request.Context(), txc, req.ListingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, listing)
}

// FulfillOrder handles POST /api/v1/marketplace/orders.
func (h *MarketplaceHandler) FulfillOrder(c *gin.Context) {
	txc, ok := txContext(c)
	if !ok {
		return
	}

	var req dto.FulfillOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.marketSvc.FulfillOrder(c.Request.Context(), txc, ports.FulfillOrderRequest{
		ListingID: req.ListingID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FulfillOrderResponse{
		Listing:    result.Listing,
		Credit:     result.Credit,
		Child:      result.Child,
		Trade:      result.Trade,
		TotalPrice: result.TotalPrice,
	})
}

// CreateBid handles POST /api/v1/marketplace/bids.
func (h *MarketplaceHandler) CreateBid(c *gin.Context) {
	txc, ok := txContext(c)
	if !ok {
		return
	}

	var req dto.CreateBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	bid, err := h.marketSvc.CreateBid(c.Request.Context(), txc, ports.CreateBidRequest{
		CreditID: req.CreditID,
		Amount:   req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, bid)
}
