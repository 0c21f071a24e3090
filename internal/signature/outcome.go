package signature

import (
	"oss-callback/internal/common/errors"
)

// Outcome is the terminal classification of one callback.
type Outcome int

const (
	// Verified means the signature matched and the callback is trusted.
	Verified Outcome = iota
	// Rejected means the callback was well formed but could not be trusted.
	Rejected
	// Malformed means the callback was missing or carried undecodable inputs.
	Malformed
)

func (o Outcome) String() string {
	switch o {
	case Verified:
		return "verified"
	case Rejected:
		return "rejected"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Result pairs an Outcome with the reason handed back to the provider.
type Result struct {
	Outcome Outcome
	Reason  string
}

// Classify maps a pipeline error onto an Outcome. A nil error is Verified.
func Classify(err error) Result {
	if err == nil {
		return Result{Outcome: Verified}
	}

	reason := errors.PublicMessage(err, "Failed: internal error")
	switch errors.GetType(err) {
	case errors.ErrTypeMissingHeader, errors.ErrTypeMalformedSignature, errors.ErrTypeMalformedRequest:
		return Result{Outcome: Malformed, Reason: reason}
	default:
		return Result{Outcome: Rejected, Reason: reason}
	}
}
