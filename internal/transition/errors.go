package transition

import "errors"

// Sentinel error kinds for the transition package. Mid-flight command
// failures, failsafe trips, timeouts, and cancellation are all
// distinguished by wrapping one of these with context via
// fmt.Errorf("%w: ...", ...).
var (
	ErrOffboardRejected  = errors.New("offboard start rejected after retries")
	ErrCommandFailure    = errors.New("autopilot command failure")
	ErrFailsafeViolation = errors.New("failsafe violation")
	ErrTimeout           = errors.New("transition timeout")
	ErrCancelled         = errors.New("transition cancelled")
)
