package service

import (
	"context"
	"fmt"

	"carbon-credit-ledger/internal/core/domain"
	"carbon-credit-ledger/internal/core/ports"
	"carbon-credit-ledger/pkg/apperror"
	"carbon-credit-ledger/pkg/canonical"

	"github.com/rs/zerolog"
)

// RetirementServiceImpl implements ports.RetirementService.
type RetirementServiceImpl struct {
	ledger  ports.Ledger
	baseURL string
	log     zerolog.Logger
}

// NewRetirementService creates a new RetirementServiceImpl. baseURL is the
// public prefix for certificate verification links.
func NewRetirementService(ledger ports.Ledger, baseURL string, log zerolog.Logger) *RetirementServiceImpl {
	return &RetirementServiceImpl{ledger: ledger, baseURL: baseURL, log: log}
}

// RetireCredits permanently removes quantities from circulation across a
// batch of credits. The batch is all-or-nothing: every credit is validated
// against pre-state before any is written, and the same credit appearing
// twice in the batch has its quantities summed for that validation.
func (s *RetirementServiceImpl) RetireCredits(ctx context.Context, txc *domain.TxContext, req ports.RetireCreditsRequest) (*domain.Retirement, error) {
	if len(req.CreditIDs) == 0 {
		return nil, apperror.Validation("at least one credit is required")
	}
	if len(req.CreditIDs) != len(req.Quantities) {
		return nil, apperror.Validation("creditIds and quantities must have equal length")
	}
	for i, q := range req.Quantities {
		if q < 1 {
			return nil, apperror.Validation(fmt.Sprintf("quantity for %s must be at least 1", req.CreditIDs[i]))
		}
	}
	if req.BeneficiaryName == "" {
		return nil, apperror.Validation("beneficiaryName is required")
	}
	if !req.Purpose.Valid() {
		return nil, apperror.Validation("unknown retirement purpose")
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Validation pass over pre-state. requested aggregates quantities per
	// credit id so a duplicated id cannot double-spend remaining capacity.
	credits := make(map[string]*domain.CarbonCredit, len(req.CreditIDs))
	requested := make(map[string]int64, len(req.CreditIDs))
	for i, id := range req.CreditIDs {
		credit, ok := credits[id]
		if !ok {
			credit, err = tx.Credits().Get(id)
			if err != nil {
				return nil, apperror.ErrStorage(fmt.Errorf("lookup credit: %w", err))
			}
			if credit == nil {
				return nil, apperror.NotFound("credit")
			}
			credits[id] = credit
		}
		if credit.Owner != txc.Sender {
			return nil, apperror.Unauthorized(fmt.Sprintf("sender does not own credit %s", id))
		}
		if credit.IsRetired() {
			return nil, apperror.ErrCreditRetired(id)
		}
		requested[id] += req.Quantities[i]
		if requested[id] > credit.RemainingAmount() {
			return nil, apperror.InvalidState(fmt.Sprintf(
				"credit %s has only %d tonnes remaining", id, credit.RemainingAmount()))
		}
	}

	retirement := &domain.Retirement{
		ID:                 txc.NewID("retirement"),
		Retiree:            txc.Sender,
		BeneficiaryName:    req.BeneficiaryName,
		BeneficiaryAddress: req.BeneficiaryAddress,
		Message:            req.Message,
		Purpose:            req.Purpose,
		Details:            req.Details,
		Status:             domain.RetirementStatusCompleted,
		TransactionIDs:     []string{txc.TxID},
		CreatedAt:          txc.LedgerTime,
	}

	// Apply pass. Snapshots follow the request order with one entry per
	// line item, against the already-validated aggregates.
	for i, id := range req.CreditIDs {
		credit := credits[id]
		qty := req.Quantities[i]

		// Status flips only on a first-and-only full retirement. A credit
		// drained across several partial retirements keeps status=active
		// with zero remaining capacity.
		credit.RetiredAmount += qty
		if qty == credit.Amount {
			credit.Status = domain.CreditStatusRetired
		}
		credit.AppendHistory(historyEntry(txc, "retirement",
			fmt.Sprintf("retired %d tonnes for %s", qty, req.BeneficiaryName)))

		retirement.Credits = append(retirement.Credits, domain.RetiredCreditSnapshot{
			CreditID:  credit.ID,
			Quantity:  qty,
			Vintage:   credit.Vintage,
			Standard:  credit.Standard,
			ProjectID: credit.ProjectID,
			Country:   credit.Metadata.Country,
		})
		retirement.TotalCO2Tonnes += qty
	}
	for _, credit := range credits {
		if err := tx.Credits().Put(credit); err != nil {
			return nil, apperror.ErrStorage(fmt.Errorf("update credit: %w", err))
		}
	}

	if err := tx.Retirements().Put(retirement); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("store retirement: %w", err))
	}
	if err := tx.Activity().Append(activityEntry(txc, "credits_retired", retirement.ID, map[string]string{
		"total_tonnes": fmt.Sprintf("%d", retirement.TotalCO2Tonnes),
		"purpose":      string(req.Purpose),
	})); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("append activity: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("retirement_id", retirement.ID).
		Int64("total_tonnes", retirement.TotalCO2Tonnes).
		Str("retiree", retirement.Retiree).
		Msg("credits retired")

	return retirement, nil
}

// GenerateCertificate issues the one certificate for a completed retirement.
// The content hash is a sha256 digest over the canonical form of the frozen
// retirement snapshot, so replays and independent nodes derive the same hash.
func (s *RetirementServiceImpl) GenerateCertificate(ctx context.Context, txc *domain.TxContext, retirementID string) (*domain.Certificate, error) {
	if retirementID == "" {
		return nil, apperror.Validation("retirementId is required")
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	retirement, err := tx.Retirements().Get(retirementID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup retirement: %w", err))
	}
	if retirement == nil {
		return nil, apperror.NotFound("retirement")
	}
	if !retirement.CanRequestCertificate(txc.Sender) {
		return nil, apperror.Unauthorized("only the retiree or the beneficiary may request the certificate")
	}
	if retirement.HasCertificate() {
		return nil, apperror.ErrCertificateExists()
	}

	snapshot := map[string]interface{}{
		"retirement_id":    retirement.ID,
		"retiree":          retirement.Retiree,
		"beneficiary_name": retirement.BeneficiaryName,
		"purpose":          string(retirement.Purpose),
		"total_co2_tonnes": retirement.TotalCO2Tonnes,
		"credits":          retirement.Credits,
		"retired_at":       retirement.CreatedAt,
	}
	hash, err := canonical.Digest(snapshot)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash certificate snapshot: %w", err))
	}

	cert := &domain.Certificate{
		ID:           txc.NewID("certificate"),
		RetirementID: retirement.ID,
		ContentHash:  hash,
		Snapshot:     snapshot,
		CreatedBy:    txc.Sender,
		CreatedAt:    txc.LedgerTime,
	}

	retirement.CertificateID = &cert.ID
	retirement.CertificateHash = hash
	retirement.CertificateTime = txc.LedgerTime
	retirement.TransactionIDs = append(retirement.TransactionIDs, txc.TxID)

	if err := tx.Certificates().Put(cert); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("store certificate: %w", err))
	}
	if err := tx.Retirements().Put(retirement); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update retirement: %w", err))
	}
	if err := tx.Activity().Append(activityEntry(txc, "certificate_issued", cert.ID, map[string]string{
		"retirement_id": retirement.ID,
	})); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("append activity: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("certificate_id", cert.ID).
		Str("retirement_id", retirement.ID).
		Str("hash", hash).
		Msg("certificate issued")

	return cert, nil
}

// VerificationURL builds the public link for checking a certificate.
func (s *RetirementServiceImpl) VerificationURL(certificateID string) string {
	return fmt.Sprintf("%s/%s/verify", s.baseURL, certificateID)
}
