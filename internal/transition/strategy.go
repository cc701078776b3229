// Package transition implements the tailsitter transition state machine:
// the multi-phase arm/climb/ramp/monitor program, the manager that
// selects and drives it, and the post-transition and abort actions that
// terminate it. This is the core the rest of the module's packages
// (config, telemetry, autopilot) exist to support.
package transition

import "context"

// Result is the terminal status a Strategy's Execute or Abort returns.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// Strategy is the capability set a transition program exposes: execute
// it to completion, or abort it from outside. No exceptions escape
// either method -- every failure path resolves to a Result.
type Strategy interface {
	Execute(ctx context.Context) Result
	Abort(ctx context.Context) Result
}
