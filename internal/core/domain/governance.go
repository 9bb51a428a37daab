package domain

// GovernanceConfig is the on-ledger governance record. It is loaded
// explicitly inside any call that depends on it; operations never assume an
// ambient copy.
type GovernanceConfig struct {
	Admins                 []string `json:"admins"`
	CommunityVoteThreshold int      `json:"community_vote_threshold"`
	FlagThreshold          int      `json:"flag_threshold"`
}

// IsAdmin reports whether principal is a governance admin.
func (g *GovernanceConfig) IsAdmin(principal string) bool {
	for _, a := range g.Admins {
		if a == principal {
			return true
		}
	}
	return false
}
