package handler

import (
	"context"

	"carbon-credit-ledger/internal/adapter/http/dto"
	"carbon-credit-ledger/internal/core/domain"
	"carbon-credit-ledger/internal/core/ports"
	"carbon-credit-ledger/pkg/apperror"
	"carbon-credit-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// VerificationHandler handles verification engine endpoints.
type VerificationHandler struct {
	verificationSvc ports.VerificationService
}

// NewVerificationHandler creates a new VerificationHandler.
func NewVerificationHandler(verificationSvc ports.VerificationService) *VerificationHandler {
	return &VerificationHandler{verificationSvc: verificationSvc}
}

// AddVerifier handles POST /api/v1/verification/verifiers.
func (h *VerificationHandler) AddVerifier(c *gin.Context) {
	txc, ok := txContext(c)
	if !ok {
		return
	}

	var req dto.AddVerifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	verifier, err := h.verificationSvc.AddVerifier(c.Request.Context(), txc, ports.AddVerifierRequest{
		Address: req.Address,
		Name:    req.Name,
		Type:    domain.VerifierType(req.Type),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, verifier)
}

// RemoveVerifier handles POST /api/v1/verification/verifiers/remove.
func (h *VerificationHandler) RemoveVerifier(c *gin.Context) {
	txc, ok := txContext(c)
	if !ok {
		return
	}

	var req dto.RemoveVerifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	verifier, err := h.verificationSvc.RemoveVerifier(c.Request.Context(), txc, req.Address)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, verifier)
}

// Submit handles POST /api/v1/verification/submissions.
func (h *VerificationHandler) Submit(c *gin.Context) {
	txc, ok := txContext(c)
	if !ok {
		return
	}

	var req dto.SubmitVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req.Data)

	verification, err := h.verificationSvc.SubmitVerification(c.Request.Context(), txc, ports.SubmitVerificationRequest{
		CreditID: req.CreditID,
		Data: domain.VerificationData{
			Methodology:  req.Data.Methodology,
			Findings:     req.Data.Findings,
			EvidenceHash: req.Data.EvidenceHash,
			Score:        req.Data.Score,
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, verification)
}

// Approve handles POST /api/v1/verification/approve.
func (h *VerificationHandler) Approve(c *gin.Context) {
	h.review(c, h.verificationSvc.ApproveVerification)
}

// Reject handles POST /api/v1/verification/reject.
func (h *VerificationHandler) Reject(c *gin.Context) {
	h.review(c, h.verificationSvc.RejectVerification)
}

func (h *VerificationHandler) review(c *gin.Context, decide func(ctx context.Context, txc *domain.TxContext, req ports.ReviewRequest) (*domain.Verification, error)) {
	txc, ok := txContext(c)
	if !ok {
		return
	}

	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	verification, err := decide(c.Request.Context(), txc, ports.ReviewRequest{
		VerificationID: req.VerificationID,
		Reason:         req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, verification)
}

// Vote handles POST /api/v1/verification/votes.
func (h *VerificationHandler) Vote(c *gin.Context) {
	txc, ok := txContext(c)
	if !ok {
		return
	}

	var req dto.CommunityVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	verification, err := h.verificationSvc.SubmitCommunityVote(c.Request.Context(), txc, ports.CommunityVoteRequest{
		VerificationID: req.VerificationID,
		Vote:           domain.VoteChoice(req.Vote),
		Comment:        req.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, verification)
}
