package domain

// VerifierType is a tagged variant of the three verification tiers.
type VerifierType string

const (
	VerifierTypeTraditional VerifierType = "traditional"
	VerifierTypeCommunity   VerifierType = "community"
	VerifierTypeAlgorithmic VerifierType = "algorithmic"
)

// Valid reports whether t is one of the known tiers.
func (t VerifierType) Valid() bool {
	switch t {
	case VerifierTypeTraditional, VerifierTypeCommunity, VerifierTypeAlgorithmic:
		return true
	}
	return false
}

// CanApprove reports whether this tier may directly approve or reject a
// pending verification. Only traditional verifiers hold that capability.
func (t VerifierType) CanApprove() bool {
	return t == VerifierTypeTraditional
}

// CanVote reports whether this tier participates in community voting.
func (t VerifierType) CanVote() bool {
	return t == VerifierTypeCommunity
}

// TriggersDuplicateCheck reports whether a submission by this tier runs the
// algorithmic duplicate scan immediately.
func (t VerifierType) TriggersDuplicateCheck() bool {
	return t == VerifierTypeTraditional || t == VerifierTypeCommunity
}

// VerifierStatus represents registration state; removal is a soft state.
type VerifierStatus string

const (
	VerifierStatusActive   VerifierStatus = "active"
	VerifierStatusInactive VerifierStatus = "inactive"
)

// Verifier is a registered verification principal.
type Verifier struct {
	Address           string         `json:"address"`
	Name              string         `json:"name"`
	Type              VerifierType   `json:"type"`
	Status            VerifierStatus `json:"status"`
	VerificationCount int64          `json:"verification_count"`
	RegisteredAt      int64          `json:"registered_at"`
}

// IsActive reports whether the verifier may act.
func (v *Verifier) IsActive() bool {
	return v.Status == VerifierStatusActive
}
