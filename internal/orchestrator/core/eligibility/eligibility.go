package eligibility

import (
	"github.com/proof-of-inference/avs-backend/pkg/types"
)

// DefaultMinTrustScore is the policy default for the reputation gate
const DefaultMinTrustScore uint64 = 100

// Rejection reasons, one per rule, surfaced verbatim to the caller
const (
	ReasonRecordNotFound = "record not found"
	ReasonRequestExpired = "request expired"
	ReasonLowTrustScore  = "requester trust score below minimum"
	ReasonModelInactive  = "model not registered"
)

// Policy holds the tunable eligibility thresholds
type Policy struct {
	MinTrustScore uint64
}

// DefaultPolicy returns the default eligibility policy
func DefaultPolicy() Policy {
	return Policy{MinTrustScore: DefaultMinTrustScore}
}

// Evaluate applies the eligibility rules in fixed order and reports the first
// failing rule. Pure function: no clock, no network, no side effects — the
// expiry decision is made by the caller when it builds the context.
func Evaluate(ctx types.EligibilityContext, policy Policy) (bool, string) {
	if !ctx.RecordExists {
		return false, ReasonRecordNotFound
	}
	if ctx.IsExpired {
		return false, ReasonRequestExpired
	}
	if ctx.RequesterTrustScore < policy.MinTrustScore {
		return false, ReasonLowTrustScore
	}
	if !ctx.ModelIsActive {
		return false, ReasonModelInactive
	}
	return true, ""
}
