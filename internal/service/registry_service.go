package service

import (
	"context"
	"fmt"

	"carbon-credit-ledger/internal/core/domain"
	"carbon-credit-ledger/internal/core/ports"
	"carbon-credit-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// RegistryServiceImpl implements ports.RegistryService.
type RegistryServiceImpl struct {
	ledger ports.Ledger
	log    zerolog.Logger
}

// NewRegistryService creates a new RegistryServiceImpl.
func NewRegistryService(ledger ports.Ledger, log zerolog.Logger) *RegistryServiceImpl {
	return &RegistryServiceImpl{ledger: ledger, log: log}
}

// Issue mints a new carbon credit owned by the issuing sender.
func (s *RegistryServiceImpl) Issue(ctx context.Context, txc *domain.TxContext, req ports.IssueRequest) (*domain.CarbonCredit, error) {
	if !lenBetween(req.CreditID, 1, 64) {
		return nil, apperror.Validation("creditId must be 1-64 characters")
	}
	if !lenBetween(req.ProjectID, 1, 64) {
		return nil, apperror.Validation("projectId must be 1-64 characters")
	}
	if req.Amount < 1 {
		return nil, apperror.Validation("amount must be at least 1")
	}
	if req.Vintage < 1 {
		return nil, apperror.Validation("vintage year is required")
	}
	if !lenBetween(req.Standard, 1, 32) {
		return nil, apperror.Validation("standard must be 1-32 characters")
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	existing, err := tx.Credits().Get(req.CreditID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup credit: %w", err))
	}
	if existing != nil {
		return nil, apperror.Conflict(fmt.Sprintf("credit %s already exists", req.CreditID))
	}

	credit := &domain.CarbonCredit{
		ID:                 req.CreditID,
		ProjectID:          req.ProjectID,
		Amount:             req.Amount,
		Reserved:           0,
		RetiredAmount:      0,
		Owner:              txc.Sender,
		Status:             domain.CreditStatusActive,
		VerificationStatus: domain.CreditVerificationUnverified,
		Vintage:            req.Vintage,
		Standard:           req.Standard,
		Metadata:           req.Metadata,
		CreatedAt:          txc.LedgerTime,
	}
	credit.AppendHistory(historyEntry(txc, "issuance", fmt.Sprintf("issued %d tonnes", req.Amount)))

	if err := tx.Credits().Put(credit); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("store credit: %w", err))
	}

	// Project totals are tracked only when the project record exists.
	project, err := tx.Projects().Get(req.ProjectID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup project: %w", err))
	}
	if project != nil {
		project.TotalIssued += req.Amount
		project.CreditCount++
		if err := tx.Projects().Put(project); err != nil {
			return nil, apperror.ErrStorage(fmt.Errorf("update project: %w", err))
		}
	}

	if err := tx.Activity().Append(activityEntry(txc, "credit_issued", credit.ID, map[string]string{
		"project_id": req.ProjectID,
		"amount":     fmt.Sprintf("%d", req.Amount),
	})); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("append activity: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("credit_id", credit.ID).
		Str("project_id", credit.ProjectID).
		Int64("amount", credit.Amount).
		Str("issuer", credit.Owner).
		Msg("credit issued")

	return credit, nil
}

// RegisterProject creates a project record for issuance tracking. Admin only.
func (s *RegistryServiceImpl) RegisterProject(ctx context.Context, txc *domain.TxContext, req ports.RegisterProjectRequest) (*domain.Project, error) {
	if !lenBetween(req.ProjectID, 1, 64) {
		return nil, apperror.Validation("projectId must be 1-64 characters")
	}
	if req.Name == "" {
		return nil, apperror.Validation("project name is required")
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := requireAdmin(tx, txc); err != nil {
		return nil, err
	}

	existing, err := tx.Projects().Get(req.ProjectID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup project: %w", err))
	}
	if existing != nil {
		return nil, apperror.Conflict(fmt.Sprintf("project %s already exists", req.ProjectID))
	}

	project := &domain.Project{
		ID:        req.ProjectID,
		Name:      req.Name,
		CreatedAt: txc.LedgerTime,
	}
	if err := tx.Projects().Put(project); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("store project: %w", err))
	}

	if err := tx.Activity().Append(activityEntry(txc, "project_registered", project.ID, nil)); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("append activity: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("project_id", project.ID).Msg("project registered")

	return project, nil
}
