// Package telemetry maintains a process-wide cache of the latest value of
// each telemetry stream the transition core consumes: battery, fixed-wing
// metrics, attitude Euler angles, and NED position+velocity. It is the Go
// counterpart of the Python original's TelemetryHandler, restructured
// around one writer goroutine per stream and a lock-free snapshot read,
// following the per-slot state pattern used throughout this flight-control
// stack's sensor-handling packages.
package telemetry

import "time"

// BatterySample is the latest battery reading. Fields default to their
// zero value (0.0) when never populated; callers that care about presence
// check Sample.HasBattery.
type BatterySample struct {
	Voltage          float64
	RemainingPercent float64
}

// FixedWingSample is the latest fixed-wing flight metrics reading.
// ThrottlePercentage is a fraction in [0, 1], not a percent.
type FixedWingSample struct {
	AirspeedMS         float64
	ThrottlePercentage float64
	ClimbRateMS        float64
}

// AttitudeSample is the latest Euler-angle attitude reading, in degrees.
type AttitudeSample struct {
	RollDeg     float64
	PitchDeg    float64
	YawDeg      float64
	TimestampUs int64
}

// PositionVelocityNEDSample is the latest NED-frame position and velocity.
// DownM is positive downward; altitude = -DownM.
type PositionVelocityNEDSample struct {
	NorthM float64
	EastM  float64
	DownM  float64
	VNMS   float64
	VEMS   float64
	VDMS   float64
}

// Sample is a consistent per-field snapshot of all four streams. HasX
// reports whether that slot has ever received a value; StaleX reports
// whether the subscriber feeding that slot has since died (its source
// channel closed or failed to open), so the value is frozen rather than
// live. A field with HasX true and StaleX true is last-known-good data,
// not a current reading -- callers that gate safety decisions on a field
// must treat a stale value the same as one that was never populated.
type Sample struct {
	Battery      BatterySample
	HasBattery   bool
	StaleBattery bool

	FixedWing      FixedWingSample
	HasFixedWing   bool
	StaleFixedWing bool

	Attitude      AttitudeSample
	HasAttitude   bool
	StaleAttitude bool

	PositionVelocityNED      PositionVelocityNEDSample
	HasPositionVelocityNED   bool
	StalePositionVelocityNED bool

	CapturedAt time.Time
}

// AltitudeM returns -DownM, the NED-to-altitude convention, or 0 if
// position has never been populated or its feed has gone stale.
func (s Sample) AltitudeM() float64 {
	if !s.HasPositionVelocityNED || s.StalePositionVelocityNED {
		return 0.0
	}
	return -s.PositionVelocityNED.DownM
}
