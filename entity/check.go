package entity

import (
	"net/http"

	"keygate/lib/validate"
)

// RedeemOutcome is the store-level result of a conditional redemption.
type RedeemOutcome string

const (
	OutcomeRedeemed    RedeemOutcome = "redeemed"     // this call moved the key to used
	OutcomeNotFound    RedeemOutcome = "not_found"    // no key with that value
	OutcomeAlreadyUsed RedeemOutcome = "already_used" // key exists but was consumed before or concurrently
)

// Reasons reported to callers in CheckResult when a check fails.
const (
	ReasonNotFound    = "not_found"
	ReasonAlreadyUsed = "already_used"
)

// KeyStats holds store counters for the admin surface.
type KeyStats struct {
	Issued   int64 `json:"issued"`
	Redeemed int64 `json:"redeemed"`
}

func (s KeyStats) Unused() int64 {
	return s.Issued - s.Redeemed
}

// CheckRequest is the body of a POST key check. The query-parameter form of
// the endpoint fills the same fields from the URL.
type CheckRequest struct {
	Key    string `json:"key" validate:"required"`
	Device string `json:"device" validate:"omitempty"`
}

func (c *CheckRequest) Bind(_ *http.Request) error {
	return validate.Struct(c)
}

// CheckResult is the caller-facing outcome of a redemption attempt.
// Reason is set only when Valid is false; ConsumedAt only on success.
type CheckResult struct {
	Valid      bool   `json:"valid"`
	Reason     string `json:"reason,omitempty"`
	ConsumedAt string `json:"consumed_at,omitempty"`
}
