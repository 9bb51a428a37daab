package domain

// VerificationState is the state machine over a submitted verification.
// pending -> {approved, rejected, community_approved, community_rejected,
// flagged_for_review}. flagged_for_review is reachable only from pending and
// is terminal within this module: it routes to manual traditional re-review.
type VerificationState string

const (
	VerificationPending           VerificationState = "pending"
	VerificationApproved          VerificationState = "approved"
	VerificationRejected          VerificationState = "rejected"
	VerificationCommunityApproved VerificationState = "community_approved"
	VerificationCommunityRejected VerificationState = "community_rejected"
	VerificationFlaggedForReview  VerificationState = "flagged_for_review"
)

// CreditStatusFor maps a verification outcome onto the credit record.
func (s VerificationState) CreditStatusFor() CreditVerificationStatus {
	switch s {
	case VerificationApproved:
		return CreditVerificationVerified
	case VerificationRejected:
		return CreditVerificationRejected
	case VerificationCommunityApproved:
		return CreditVerificationCommunityVerified
	case VerificationCommunityRejected:
		return CreditVerificationCommunityRejected
	case VerificationFlaggedForReview:
		return CreditVerificationFlagged
	default:
		return CreditVerificationInProcess
	}
}

// VoteChoice is one community vote option.
type VoteChoice string

const (
	VoteApprove VoteChoice = "approve"
	VoteReject  VoteChoice = "reject"
	VoteFlag    VoteChoice = "flag"
)

// Valid reports whether c is a known vote option.
func (c VoteChoice) Valid() bool {
	return c == VoteApprove || c == VoteReject || c == VoteFlag
}

// VerificationData is the evidence supplied with a submission.
type VerificationData struct {
	Methodology  string `json:"methodology"`
	Findings     string `json:"findings"`
	EvidenceHash string `json:"evidence_hash"`
	Score        int    `json:"score"` // 0-100
}

// VoteRecord is one cast community vote.
type VoteRecord struct {
	Voter   string     `json:"voter"`
	Choice  VoteChoice `json:"choice"`
	Comment string     `json:"comment,omitempty"`
	Time    int64      `json:"time"`
}

// CommunityVotes tallies the crowd-sourced review of a verification.
type CommunityVotes struct {
	Approve int          `json:"approve"`
	Reject  int          `json:"reject"`
	Flag    int          `json:"flag"`
	Voters  []string     `json:"voters"`
	Records []VoteRecord `json:"records"`
}

// HasVoted reports whether principal already appears in Voters.
func (v *CommunityVotes) HasVoted(principal string) bool {
	for _, voter := range v.Voters {
		if voter == principal {
			return true
		}
	}
	return false
}

// AlgorithmicRecommendation is the outcome of the duplicate proximity scan.
type AlgorithmicRecommendation string

const (
	RecommendApprove AlgorithmicRecommendation = "approve"
	RecommendReview  AlgorithmicRecommendation = "review"
)

// AlgorithmicCheck records the duplicate scan result on a verification.
type AlgorithmicCheck struct {
	Recommendation AlgorithmicRecommendation `json:"recommendation"`
	DuplicateIDs   []string                  `json:"duplicate_ids,omitempty"`
	CheckedAt      int64                     `json:"checked_at"`
}

// VerifierSnapshot freezes the acting verifier's identity at submission time.
type VerifierSnapshot struct {
	Address string       `json:"address"`
	Name    string       `json:"name"`
	Type    VerifierType `json:"type"`
}

// Verification is one multi-tier review of a credit.
type Verification struct {
	ID               string            `json:"id"`
	CreditID         string            `json:"credit_id"`
	Verifier         VerifierSnapshot  `json:"verifier"`
	Data             VerificationData  `json:"data"`
	Status           VerificationState `json:"status"`
	CommunityVotes   CommunityVotes    `json:"community_votes"`
	AlgorithmicCheck *AlgorithmicCheck `json:"algorithmic_check,omitempty"`
	History          []HistoryEntry    `json:"history"` // Ordered event log
	CreatedAt        int64             `json:"created_at"`
}

// IsPending reports whether the verification can still transition.
func (v *Verification) IsPending() bool {
	return v.Status == VerificationPending
}

// AppendHistory adds an event to the verification's ordered log.
func (v *Verification) AppendHistory(e HistoryEntry) {
	v.History = append(v.History, e)
}
