// Package autopilot defines the command surface the transition core
// consumes: a capability set covering arm/takeoff, offboard setpoints,
// mode transitions, and mission control. The surface's wire protocol and
// session management are someone else's concern -- this package only
// names the interface and ships a serial byte-transport plus a
// simulated adapter for tests, mirroring how a failsafe layer in this
// lineage consumes a flight-controller interface rather than talking to
// MAVLink directly.
package autopilot

import "context"

// MissionItem is an opaque waypoint entry as returned by DownloadMission.
// The transition core only inspects the list length and index validity
// when resuming a mission; item fields beyond that are the
// mission-planning layer's concern.
type MissionItem struct {
	Index   int
	Latitude  float64
	Longitude float64
	AltitudeM float64
}

// CommandSurface is every autopilot operation the transition core issues.
// Every method must be called while holding the caller's command lock --
// this package does not enforce that itself since the lock is owned by
// the transition session, not the surface.
type CommandSurface interface {
	Arm(ctx context.Context) error
	SetTakeoffAltitude(ctx context.Context, altitudeM float64) error
	Takeoff(ctx context.Context) error

	// SetBodyVelocity publishes a body-frame velocity setpoint. vz follows
	// the positive-down convention: ascend is negative vz.
	SetBodyVelocity(ctx context.Context, vx, vy, vz, yawspeedDeg float64) error

	// SetNEDVelocity publishes a NED-frame velocity setpoint with a fixed
	// yaw heading in degrees.
	SetNEDVelocity(ctx context.Context, vn, ve, vd, yawDeg float64) error

	// SetAttitude publishes roll/pitch/yaw in degrees and thrust in [0,1].
	SetAttitude(ctx context.Context, rollDeg, pitchDeg, yawDeg, thrust float64) error

	OffboardStart(ctx context.Context) error
	OffboardStop(ctx context.Context) error

	TransitionToFixedwing(ctx context.Context) error
	TransitionToMulticopter(ctx context.Context) error

	Hold(ctx context.Context) error
	ReturnToLaunch(ctx context.Context) error

	DownloadMission(ctx context.Context) ([]MissionItem, error)
	SetCurrentMissionItem(ctx context.Context, index int) error
	StartMission(ctx context.Context) error
}
