package service

import (
	"context"
	"fmt"
	"math"

	"carbon-credit-ledger/internal/core/domain"
	"carbon-credit-ledger/internal/core/ports"
	"carbon-credit-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// duplicateProximityDegrees is the straight-line coordinate distance under
// which two geolocated credits are flagged as potential duplicates
// (0.01 degrees, roughly 1 km).
const duplicateProximityDegrees = 0.01

// VerificationServiceImpl implements ports.VerificationService.
type VerificationServiceImpl struct {
	ledger ports.Ledger
	log    zerolog.Logger
}

// NewVerificationService creates a new VerificationServiceImpl.
func NewVerificationService(ledger ports.Ledger, log zerolog.Logger) *VerificationServiceImpl {
	return &VerificationServiceImpl{ledger: ledger, log: log}
}

// AddVerifier registers a verification principal. Admin only.
func (s *VerificationServiceImpl) AddVerifier(ctx context.Context, txc *domain.TxContext, req ports.AddVerifierRequest) (*domain.Verifier, error) {
	if req.Address == "" {
		return nil, apperror.Validation("verifierAddress is required")
	}
	if req.Name == "" {
		return nil, apperror.Validation("verifierName is required")
	}
	if !req.Type.Valid() {
		return nil, apperror.Validation("verifierType must be traditional, community or algorithmic")
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := requireAdmin(tx, txc); err != nil {
		return nil, err
	}

	existing, err := tx.Verifiers().Get(req.Address)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup verifier: %w", err))
	}
	if existing != nil {
		return nil, apperror.Conflict(fmt.Sprintf("verifier %s already registered", req.Address))
	}

	verifier := &domain.Verifier{
		Address:      req.Address,
		Name:         req.Name,
		Type:         req.Type,
		Status:       domain.VerifierStatusActive,
		RegisteredAt: txc.LedgerTime,
	}
	if err := tx.Verifiers().Put(verifier); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("store verifier: %w", err))
	}
	if err := tx.Activity().Append(activityEntry(txc, "verifier_added", verifier.Address, map[string]string{
		"type": string(req.Type),
	})); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("append activity: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("address", verifier.Address).Str("type", string(verifier.Type)).Msg("verifier added")

	return verifier, nil
}

// RemoveVerifier deactivates a verifier. Admin only; the record stays for audit.
func (s *VerificationServiceImpl) RemoveVerifier(ctx context.Context, txc *domain.TxContext, address string) (*domain.Verifier, error) {
	if address == "" {
		return nil, apperror.Validation("verifierAddress is required")
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := requireAdmin(tx, txc); err != nil {
		return nil, err
	}

	verifier, err := tx.Verifiers().Get(address)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup verifier: %w", err))
	}
	if verifier == nil {
		return nil, apperror.NotFound("verifier")
	}
	if !verifier.IsActive() {
		return nil, apperror.InvalidState("verifier is already inactive")
	}

	verifier.Status = domain.VerifierStatusInactive
	if err := tx.Verifiers().Put(verifier); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update verifier: %w", err))
	}
	if err := tx.Activity().Append(activityEntry(txc, "verifier_removed", verifier.Address, nil)); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("append activity: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("address", verifier.Address).Msg("verifier removed")

	return verifier, nil
}

// SubmitVerification opens a pending verification for a credit. Submissions
// by traditional or community verifiers also run the algorithmic duplicate
// scan immediately.
func (s *VerificationServiceImpl) SubmitVerification(ctx context.Context, txc *domain.TxContext, req ports.SubmitVerificationRequest) (*domain.Verification, error) {
	if req.CreditID == "" {
		return nil, apperror.Validation("creditId is required")
	}
	if req.Data.Methodology == "" || req.Data.Findings == "" || req.Data.EvidenceHash == "" {
		return nil, apperror.Validation("verificationData requires methodology, findings and evidenceHash")
	}
	if req.Data.Score < 0 || req.Data.Score > 100 {
		return nil, apperror.Validation("score must be between 0 and 100")
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	verifier, err := tx.Verifiers().Get(txc.Sender)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup verifier: %w", err))
	}
	if verifier == nil || !verifier.IsActive() {
		return nil, apperror.ErrVerifierNotActive()
	}

	credit, err := tx.Credits().Get(req.CreditID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup credit: %w", err))
	}
	if credit == nil {
		return nil, apperror.NotFound("credit")
	}

	verification := &domain.Verification{
		ID:       txc.NewID("verification"),
		CreditID: credit.ID,
		Verifier: domain.VerifierSnapshot{
			Address: verifier.Address,
			Name:    verifier.Name,
			Type:    verifier.Type,
		},
		Data:      req.Data,
		Status:    domain.VerificationPending,
		CreatedAt: txc.LedgerTime,
	}
	verification.AppendHistory(historyEntry(txc, "submission",
		fmt.Sprintf("submitted by %s (%s)", verifier.Name, verifier.Type)))

	if verifier.Type.TriggersDuplicateCheck() {
		check, err := s.runDuplicateScan(tx, credit, txc.LedgerTime)
		if err != nil {
			return nil, err
		}
		verification.AlgorithmicCheck = check
		verification.AppendHistory(historyEntry(txc, "algorithmic_check",
			fmt.Sprintf("recommendation %s, %d potential duplicates", check.Recommendation, len(check.DuplicateIDs))))
	}

	credit.VerificationStatus = domain.CreditVerificationInProcess
	credit.AppendHistory(historyEntry(txc, "verification_submitted", verification.ID))

	if err := tx.Verifications().Put(verification); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("store verification: %w", err))
	}
	if err := tx.Credits().Put(credit); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update credit: %w", err))
	}
	if err := tx.Activity().Append(activityEntry(txc, "verification_submitted", verification.ID, map[string]string{
		"credit_id": credit.ID,
	})); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("append activity: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("verification_id", verification.ID).
		Str("credit_id", credit.ID).
		Str("verifier", verifier.Address).
		Msg("verification submitted")

	return verification, nil
}

// runDuplicateScan flags other geolocated credits whose coordinates lie
// within duplicateProximityDegrees of the subject credit.
func (s *VerificationServiceImpl) runDuplicateScan(tx ports.StateTx, subject *domain.CarbonCredit, ledgerTime int64) (*domain.AlgorithmicCheck, error) {
	check := &domain.AlgorithmicCheck{
		Recommendation: domain.RecommendApprove,
		CheckedAt:      ledgerTime,
	}
	loc := subject.Metadata.Location
	if loc == nil {
		return check, nil
	}

	all, err := tx.Credits().List()
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("scan credits: %w", err))
	}
	for _, other := range all {
		if other.ID == subject.ID || other.Metadata.Location == nil {
			continue
		}
		dLat := other.Metadata.Location.Lat - loc.Lat
		dLon := other.Metadata.Location.Lon - loc.Lon
		if math.Sqrt(dLat*dLat+dLon*dLon) <= duplicateProximityDegrees {
			check.DuplicateIDs = append(check.DuplicateIDs, other.ID)
		}
	}
	if len(check.DuplicateIDs) > 0 {
		check.Recommendation = domain.RecommendReview
	}
	return check, nil
}

// ApproveVerification resolves a pending verification as approved.
func (s *VerificationServiceImpl) ApproveVerification(ctx context.Context, txc *domain.TxContext, req ports.ReviewRequest) (*domain.Verification, error) {
	return s.review(ctx, txc, req, domain.VerificationApproved)
}

// RejectVerification resolves a pending verification as rejected.
func (s *VerificationServiceImpl) RejectVerification(ctx context.Context, txc *domain.TxContext, req ports.ReviewRequest) (*domain.Verification, error) {
	return s.review(ctx, txc, req, domain.VerificationRejected)
}

func (s *VerificationServiceImpl) review(ctx context.Context, txc *domain.TxContext, req ports.ReviewRequest, outcome domain.VerificationState) (*domain.Verification, error) {
	if req.VerificationID == "" {
		return nil, apperror.Validation("verificationId is required")
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// The actor must be a governance admin or an active traditional verifier.
	cfg, err := tx.Governance().Get()
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load governance config: %w", err))
	}
	isAdmin := cfg != nil && cfg.IsAdmin(txc.Sender)

	var actingVerifier *domain.Verifier
	if !isAdmin {
		actingVerifier, err = tx.Verifiers().Get(txc.Sender)
		if err != nil {
			return nil, apperror.ErrStorage(fmt.Errorf("lookup verifier: %w", err))
		}
		if actingVerifier == nil || !actingVerifier.IsActive() || !actingVerifier.Type.CanApprove() {
			return nil, apperror.Unauthorized("actor must be a governance admin or an active traditional verifier")
		}
	}

	verification, err := tx.Verifications().Get(req.VerificationID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup verification: %w", err))
	}
	if verification == nil {
		return nil, apperror.NotFound("verification")
	}
	if !verification.IsPending() {
		return nil, apperror.InvalidState(fmt.Sprintf("verification is %s", verification.Status))
	}

	credit, err := tx.Credits().Get(verification.CreditID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup credit: %w", err))
	}
	if credit == nil {
		return nil, apperror.NotFound("credit")
	}

	action := "approved"
	if outcome == domain.VerificationRejected {
		action = "rejected"
	}

	verification.Status = outcome
	verification.AppendHistory(historyEntry(txc, action, req.Reason))

	credit.VerificationStatus = outcome.CreditStatusFor()
	credit.AppendHistory(historyEntry(txc, "verification_"+action, verification.ID))

	if actingVerifier != nil {
		actingVerifier.VerificationCount++
		if err := tx.Verifiers().Put(actingVerifier); err != nil {
			return nil, apperror.ErrStorage(fmt.Errorf("update verifier: %w", err))
		}
	}
	if err := tx.Verifications().Put(verification); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update verification: %w", err))
	}
	if err := tx.Credits().Put(credit); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update credit: %w", err))
	}
	if err := tx.Activity().Append(activityEntry(txc, "verification_"+action, verification.ID, map[string]string{
		"credit_id": credit.ID,
		"reason":    req.Reason,
	})); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("append activity: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("verification_id", verification.ID).
		Str("outcome", string(outcome)).
		Str("actor", txc.Sender).
		Msg("verification reviewed")

	return verification, nil
}

// SubmitCommunityVote casts one vote per principal and evaluates, in order,
// majority resolution then flag escalation. The governance thresholds are
// loaded inside this call's transaction scope, never from ambient state.
func (s *VerificationServiceImpl) SubmitCommunityVote(ctx context.Context, txc *domain.TxContext, req ports.CommunityVoteRequest) (*domain.Verification, error) {
	if req.VerificationID == "" {
		return nil, apperror.Validation("verificationId is required")
	}
	if !req.Vote.Valid() {
		return nil, apperror.Validation("vote must be approve, reject or flag")
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cfg, err := tx.Governance().Get()
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load governance config: %w", err))
	}
	if cfg == nil {
		return nil, apperror.InvalidState("governance configuration is not initialized")
	}

	verification, err := tx.Verifications().Get(req.VerificationID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lookup verification: %w", err))
	}
	if verification == nil {
		return nil, apperror.NotFound("verification")
	}
	if !verification.IsPending() {
		return nil, apperror.InvalidState(fmt.Sprintf("verification is %s", verification.Status))
	}
	if verification.CommunityVotes.HasVoted(txc.Sender) {
		return nil, apperror.ErrDuplicateVote()
	}

	votes := &verification.CommunityVotes
	switch req.Vote {
	case domain.VoteApprove:
		votes.Approve++
	case domain.VoteReject:
		votes.Reject++
	case domain.VoteFlag:
		votes.Flag++
	}
	votes.Voters = append(votes.Voters, txc.Sender)
	votes.Records = append(votes.Records, domain.VoteRecord{
		Voter:   txc.Sender,
		Choice:  req.Vote,
		Comment: req.Comment,
		Time:    txc.LedgerTime,
	})
	verification.AppendHistory(historyEntry(txc, "community_vote", string(req.Vote)))

	// 1. Majority resolution once approve+reject crosses the threshold.
	// A tie leaves the verification pending.
	if votes.Approve+votes.Reject >= cfg.CommunityVoteThreshold {
		switch {
		case votes.Approve > votes.Reject:
			verification.Status = domain.VerificationCommunityApproved
		case votes.Reject > votes.Approve:
			verification.Status = domain.VerificationCommunityRejected
		}
		if !verification.IsPending() {
			verification.AppendHistory(historyEntry(txc, "community_resolved",
				fmt.Sprintf("%d approve / %d reject", votes.Approve, votes.Reject)))
		}
	}

	// 2. Flag escalation, independent of majority resolution, applies only
	// while the verification is still pending.
	if votes.Flag >= cfg.FlagThreshold && verification.IsPending() {
		verification.Status = domain.VerificationFlaggedForReview
		verification.AppendHistory(historyEntry(txc, "flagged_for_review",
			fmt.Sprintf("%d flags", votes.Flag)))
	}

	if !verification.IsPending() {
		credit, err := tx.Credits().Get(verification.CreditID)
		if err != nil {
			return nil, apperror.ErrStorage(fmt.Errorf("lookup credit: %w", err))
		}
		if credit == nil {
			return nil, apperror.NotFound("credit")
		}
		credit.VerificationStatus = verification.Status.CreditStatusFor()
		credit.AppendHistory(historyEntry(txc, "verification_"+string(verification.Status), verification.ID))
		if err := tx.Credits().Put(credit); err != nil {
			return nil, apperror.ErrStorage(fmt.Errorf("update credit: %w", err))
		}
	}

	if err := tx.Verifications().Put(verification); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update verification: %w", err))
	}
	if err := tx.Activity().Append(activityEntry(txc, "community_vote", verification.ID, map[string]string{
		"vote":   string(req.Vote),
		"status": string(verification.Status),
	})); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("append activity: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("verification_id", verification.ID).
		Str("vote", string(req.Vote)).
		Str("status", string(verification.Status)).
		Msg("community vote recorded")

	return verification, nil
}
