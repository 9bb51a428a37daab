package handler

import (
	"carbon-credit-ledger/internal/adapter/http/dto"
	"carbon-credit-ledger/internal/core/domain"
	"carbon-credit-ledger/internal/core/ports"
	"carbon-credit-ledger/pkg/apperror"
	"carbon-credit-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// RetirementHandler handles retirement ledger endpoints.
type RetirementHandler struct {
	retirementSvc ports.RetirementService
}

// NewRetirementHandler creates a new RetirementHandler.
func NewRetirementHandler(retirementSvc ports.RetirementService) *RetirementHandler {
	return &RetirementHandler{retirementSvc: retirementSvc}
}

// Retire handles POST /api/v1/retirement/retire.
func (h *RetirementHandler) Retire(c *gin.Context) {
	txc, ok := txContext(c)
	if !ok {
		return
	}

	var req dto.RetireCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	retirement, err := h.retirementSvc.RetireCredits(c.Request.Context(), txc, ports.RetireCreditsRequest{
		CreditIDs:          req.CreditIDs,
		Quantities:         req.Quantities,
		BeneficiaryName:    req.BeneficiaryName,
		BeneficiaryAddress: req.BeneficiaryAddress,
		Message:            req.Message,
		Purpose:            domain.RetirementPurpose(req.Purpose),
		Details:            req.Details,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, retirement)
}

// GenerateCertificate handles POST /api/v1/retirement/certificates.
func (h *RetirementHandler) GenerateCertificate(c *gin.Context) {
	txc, ok := txContext(c)
	if !ok {
		return
	}

	var req dto.GenerateCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	cert, err := h.retirementSvc.GenerateCertificate(c.Request.Context(), txc, req.RetirementID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.CertificateResponse{
		Certificate:     cert,
		VerificationURL: h.retirementSvc.VerificationURL(cert.ID),
	})
}
