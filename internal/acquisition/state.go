package acquisition

import "time"

// State is a step of one acquisition.
type State int

const (
	Idle State = iota
	Requesting
	Parsing
	Validating
	Accepted
	Retrying
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Parsing:
		return "parsing"
	case Validating:
		return "validating"
	case Accepted:
		return "accepted"
	case Retrying:
		return "retrying"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Reason classifies why an attempt did not produce an accepted plan.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonRateLimited Reason = "rate_limited"
	ReasonTransient   Reason = "transient"
	ReasonProvider    Reason = "provider_error"
	ReasonMalformed   Reason = "malformed"
	ReasonStructure   Reason = "invalid_structure"
	ReasonCalories    Reason = "calorie_tolerance"
	ReasonCanceled    Reason = "canceled"
)

// Attempt is the telemetry of one provider call and what followed it.
// State is where the attempt stopped, Outcome what the engine did next.
type Attempt struct {
	Number   int
	State    State
	Outcome  State
	Reason   Reason
	Err      error
	Duration time.Duration
	Backoff  time.Duration
}

// Result is the metrics label of the attempt.
func (a Attempt) Result() string {
	if a.Reason == ReasonNone {
		return Accepted.String()
	}
	return string(a.Reason)
}
