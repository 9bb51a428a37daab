package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCarbonCredit_CheckReservation(t *testing.T) {
	c := &CarbonCredit{Amount: 100, Reserved: 40, RetiredAmount: 30}
	assert.True(t, c.CheckReservation())
	assert.Equal(t, int64(70), c.RemainingAmount())

	c.Reserved = 80
	assert.False(t, c.CheckReservation())
}

func TestVerifierType_Capabilities(t *testing.T) {
	assert.True(t, VerifierTypeTraditional.CanApprove())
	assert.False(t, VerifierTypeCommunity.CanApprove())
	assert.False(t, VerifierTypeAlgorithmic.CanApprove())

	assert.True(t, VerifierTypeCommunity.CanVote())
	assert.False(t, VerifierTypeTraditional.CanVote())

	assert.True(t, VerifierTypeTraditional.TriggersDuplicateCheck())
	assert.True(t, VerifierTypeCommunity.TriggersDuplicateCheck())
	assert.False(t, VerifierTypeAlgorithmic.TriggersDuplicateCheck())

	assert.False(t, VerifierType("auditor").Valid())
}

func TestVerificationState_CreditStatusFor(t *testing.T) {
	assert.Equal(t, CreditVerificationVerified, VerificationApproved.CreditStatusFor())
	assert.Equal(t, CreditVerificationCommunityVerified, VerificationCommunityApproved.CreditStatusFor())
	assert.Equal(t, CreditVerificationCommunityRejected, VerificationCommunityRejected.CreditStatusFor())
	assert.Equal(t, CreditVerificationFlagged, VerificationFlaggedForReview.CreditStatusFor())
	assert.Equal(t, CreditVerificationInProcess, VerificationPending.CreditStatusFor())
}

func TestCommunityVotes_HasVoted(t *testing.T) {
	v := &CommunityVotes{Voters: []string{"alice", "bob"}}
	assert.True(t, v.HasVoted("alice"))
	assert.False(t, v.HasVoted("carol"))
}

func TestRetirement_CanRequestCertificate(t *testing.T) {
	r := &Retirement{Retiree: "alice", BeneficiaryAddress: "acme-wallet"}
	assert.True(t, r.CanRequestCertificate("alice"))
	assert.True(t, r.CanRequestCertificate("acme-wallet"))
	assert.False(t, r.CanRequestCertificate("mallory"))

	// Empty beneficiary address must not match an empty principal.
	r2 := &Retirement{Retiree: "alice"}
	assert.False(t, r2.CanRequestCertificate(""))
}

func TestRetirementPurpose_Valid(t *testing.T) {
	assert.True(t, PurposeCarbonNeutralCompany.Valid())
	assert.True(t, PurposeOther.Valid())
	assert.False(t, RetirementPurpose("greenwashing").Valid())
}

func TestTxContext_NewID_Deterministic(t *testing.T) {
	a := NewTxContext("alice", "tx-1", 1000)
	b := NewTxContext("alice", "tx-1", 1000)

	assert.Equal(t, a.NewID("credit"), b.NewID("credit"))
	assert.Equal(t, a.NewID("credit"), b.NewID("credit")) // second draw matches too

	c := NewTxContext("alice", "tx-2", 1000)
	assert.NotEqual(t, NewTxContext("alice", "tx-1", 1000).NewID("credit"), c.NewID("credit"))
}

func TestBid_EscrowKey(t *testing.T) {
	b := &Bid{ID: "bid-1"}
	assert.Equal(t, "escrow:bid-1", b.EscrowKey())
}
