// Package config loads and validates the transition controller's
// run configuration. A Config is built once at startup and treated as
// immutable for the lifetime of a run.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PostTransitionAction names the action taken once airspeed transition
// succeeds.
type PostTransitionAction string

const (
	ActionContinueCurrentHeading PostTransitionAction = "continue_current_heading"
	ActionHold                   PostTransitionAction = "hold"
	ActionReturnToLaunch         PostTransitionAction = "return_to_launch"
	ActionStartMissionFromWaypoint PostTransitionAction = "start_mission_from_waypoint"
)

// LaunchYawSentinel is the value of TransitionYawAngle that means "use the
// yaw captured at arm" instead of a fixed heading.
const LaunchYawSentinel = -1.0

// Config holds every tunable of the tailsitter pitch-program transition.
// yaml tags use the same snake_case keys an operator's
// transition_parameters.yaml would carry.
type Config struct {
	SafetyLock    bool `yaml:"safety_lock"`
	EnableTakeoff bool `yaml:"enable_takeoff"`

	InitialTakeoffHeight float64 `yaml:"initial_takeoff_height"`
	InitialClimbHeight   float64 `yaml:"initial_climb_height"`
	InitialClimbRate     float64 `yaml:"initial_climb_rate"`

	TransitionBaseAltitude float64 `yaml:"transition_base_altitude"`
	SecondaryClimbRate     float64 `yaml:"secondary_climb_rate"`
	TransitionYawAngle     float64 `yaml:"transition_yaw_angle"`

	MaxThrottle       float64 `yaml:"max_throttle"`
	MaxTiltPitch       float64 `yaml:"max_tilt_pitch"`
	ThrottleRampTime   float64 `yaml:"throttle_ramp_time"`
	ForwardTransitionTime float64 `yaml:"forward_transition_time"`

	OverTiltEnabled bool    `yaml:"over_tilt_enabled"`
	MaxAllowedTilt  float64 `yaml:"max_allowed_tilt"`

	CycleInterval       time.Duration `yaml:"-"`
	CycleIntervalSeconds float64      `yaml:"cycle_interval"`

	TransitionAirSpeed float64       `yaml:"transition_air_speed"`
	TransitionTimeout  time.Duration `yaml:"-"`
	TransitionTimeoutSeconds float64 `yaml:"transition_timeout"`

	MaxRollFailsafe            float64 `yaml:"max_roll_failsafe"`
	MaxPitchFailsafe           float64 `yaml:"max_pitch_failsafe"`
	MaxAltitudeFailsafe        float64 `yaml:"max_altitude_failsafe"`
	AltitudeFailsafeThreshold  float64 `yaml:"altitude_failsafe_threshold"`
	AltitudeLossLimit          float64 `yaml:"altitude_loss_limit"`
	ClimbRateFailsafeThreshold float64 `yaml:"climb_rate_failsafe_threshold"`

	AccelerationFactor   float64       `yaml:"acceleration_factor"`
	AccelerationDuration time.Duration `yaml:"-"`
	AccelerationDurationSeconds float64 `yaml:"acceleration_duration"`

	FailsafeMulticopterTransition bool `yaml:"failsafe_multicopter_transition"`

	PostTransitionAction PostTransitionAction `yaml:"post_transition_action"`
	StartWaypointIndex   int                  `yaml:"start_waypoint_index"`
}

// Default returns the tailsitter pitch program's documented defaults.
func Default() *Config {
	cfg := defaultConfig()
	cfg.resolveDurations()
	return cfg
}

func defaultConfig() *Config {
	return &Config{
		SafetyLock:    true,
		EnableTakeoff: true,

		InitialTakeoffHeight: 3.0,
		InitialClimbHeight:   5.0,
		InitialClimbRate:     2.0,

		TransitionBaseAltitude: 10.0,
		SecondaryClimbRate:     1.0,
		TransitionYawAngle:     LaunchYawSentinel,

		MaxThrottle:           0.8,
		MaxTiltPitch:          80.0,
		ThrottleRampTime:      5.0,
		ForwardTransitionTime: 15.0,

		OverTiltEnabled: false,
		MaxAllowedTilt:  110.0,

		CycleIntervalSeconds: 0.1,

		TransitionAirSpeed:       20.0,
		TransitionTimeoutSeconds: 120.0,

		MaxRollFailsafe:            30.0,
		MaxPitchFailsafe:           130.0,
		MaxAltitudeFailsafe:        200.0,
		AltitudeFailsafeThreshold:  10.0,
		AltitudeLossLimit:          20.0,
		ClimbRateFailsafeThreshold: 0.3,

		AccelerationFactor:          1.0,
		AccelerationDurationSeconds: 0.5,

		FailsafeMulticopterTransition: true,

		PostTransitionAction: ActionReturnToLaunch,
		StartWaypointIndex:   2,
	}
}

// Load reads a YAML file at path over a Default() configuration, so any
// field the file omits keeps its default, and validates the result.
// Returns a wrapped ErrConfig on any failure to read, parse, or validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrConfig, path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrConfig, path, err)
	}

	cfg.resolveDurations()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	return cfg, nil
}

// resolveDurations converts the YAML-facing *Seconds float64 fields into
// the time.Duration fields the rest of the package operates on.
func (c *Config) resolveDurations() {
	c.CycleInterval = durationFromSeconds(c.CycleIntervalSeconds)
	c.TransitionTimeout = durationFromSeconds(c.TransitionTimeoutSeconds)
	c.AccelerationDuration = durationFromSeconds(c.AccelerationDurationSeconds)
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Validate enforces the documented bounds and the known enum values.
func (c *Config) Validate() error {
	if c.CycleIntervalSeconds < 0.05 || c.CycleIntervalSeconds > 0.5 {
		return fmt.Errorf("cycle_interval must be within [0.05, 0.5]s, got %.3f", c.CycleIntervalSeconds)
	}
	if c.MaxThrottle <= 0 || c.MaxThrottle > 1 {
		return fmt.Errorf("max_throttle must be within (0, 1], got %.3f", c.MaxThrottle)
	}
	if c.TransitionAirSpeed <= 0 {
		return fmt.Errorf("transition_air_speed must be positive, got %.3f", c.TransitionAirSpeed)
	}
	if c.StartWaypointIndex < 0 {
		return fmt.Errorf("start_waypoint_index must be >= 0, got %d", c.StartWaypointIndex)
	}
	switch c.PostTransitionAction {
	case ActionContinueCurrentHeading, ActionHold, ActionReturnToLaunch, ActionStartMissionFromWaypoint:
	default:
		return fmt.Errorf("unknown post_transition_action: %q", c.PostTransitionAction)
	}
	return nil
}

// EffectiveYaw resolves the transition_yaw_angle sentinel against the yaw
// captured at arm.
func (c *Config) EffectiveYaw(launchYaw float64) float64 {
	if c.TransitionYawAngle == LaunchYawSentinel {
		return launchYaw
	}
	return c.TransitionYawAngle
}
