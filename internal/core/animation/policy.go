package animation

import "fmt"

// Policy governs what happens when a window holds more comments than allowed.
type Policy string

const (
	// PolicyKeep never evicts.
	PolicyKeep Policy = "keep"
	// PolicyDiscard silently removes the oldest excess comments when a new
	// one arrives. No relay message is ever sent for them.
	PolicyDiscard Policy = "discard"
	// PolicyCancel cancels the oldest excess animations. A comment that had
	// already crossed the window's left edge keeps its relay.
	PolicyCancel Policy = "cancel"
)

// DefaultPolicy is used when the configuration leaves the policy empty.
const DefaultPolicy = PolicyCancel

// ParsePolicy accepts the policy names plus "" and "default".
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyKeep, PolicyDiscard, PolicyCancel:
		return Policy(s), nil
	case "", "default":
		return DefaultPolicy, nil
	default:
		return "", fmt.Errorf("unknown over-limit policy %q", s)
	}
}

// Excess returns how many of count visible comments must be evicted under
// limit. A limit of zero or less means unlimited.
func (p Policy) Excess(count, limit int) int {
	if p == PolicyKeep || limit <= 0 {
		return 0
	}
	return max(count-limit, 0)
}

// RelayOnEvict reports whether an evicted comment still takes part in the
// relay chain. crossed is true once its leading edge passed the left edge.
func (p Policy) RelayOnEvict(crossed bool) bool {
	switch p {
	case PolicyDiscard:
		return false
	default:
		return crossed
	}
}

// Next cycles keep → discard → cancel → keep.
func (p Policy) Next() Policy {
	switch p {
	case PolicyKeep:
		return PolicyDiscard
	case PolicyDiscard:
		return PolicyCancel
	default:
		return PolicyKeep
	}
}
