package handler

import (
	"carbon-credit-ledger/internal/adapter/http/dto"
	"carbon-credit-ledger/internal/adapter/http/middleware"
	"carbon-credit-ledger/internal/core/domain"
	"carbon-credit-ledger/internal/core/ports"
	"carbon-credit-ledger/pkg/apperror"
	"carbon-credit-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// RegistryHandler handles credit registry endpoints.
type RegistryHandler struct {
	registrySvc ports.RegistryService
}

// NewRegistryHandler creates a new RegistryHandler.
func NewRegistryHandler(registrySvc ports.RegistryService) *RegistryHandler {
	return &RegistryHandler{registrySvc: registrySvc}
}

// txContext pulls the host call context or fails the request.
func txContext(c *gin.Context) (*domain.TxContext, bool) {
	txc, ok := middleware.GetTxContext(c)
	if !ok {
		response.Error(c, apperror.Validation("missing ledger transaction context"))
		return nil, false
	}
	return txc, true
}

// Issue handles POST /api/v1/registry/issue.
func (h *RegistryHandler) Issue(c *gin.Context) {
	txc, ok := txContext(c)
	if !ok {
		return
	}

	var req dto.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	credit, err := h.registrySvc.Issue(c.Request.Context(), txc, ports.IssueRequest{
		CreditID:  req.CreditID,
		ProjectID: req.ProjectID,
		Amount:    req.Amount,
		Vintage:   req.Vintage,
		Standard:  req.Standard,
		Metadata:  req.Metadata.ToDomain(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, credit)
}

// RegisterProject handles POST /api/v1/registry/projects.
func (h *RegistryHandler) RegisterProject(c *gin.Context) {
	txc, ok := txContext(c)
	if !ok {
		return
	}

	var req dto.RegisterProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	project, err := h.registrySvc.RegisterProject(c.Request.Context(), txc, ports.RegisterProjectRequest{
		ProjectID: req.ProjectID,
		Name:      req.Name,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, project)
}
