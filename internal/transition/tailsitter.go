package transition

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/asgard/vtol-transition/internal/autopilot"
	"github.com/asgard/vtol-transition/internal/config"
	"github.com/asgard/vtol-transition/internal/telemetry"
)

const (
	offboardMaxAttempts = 3
	offboardRetryDelay  = 2 * time.Second
	stabilizeSleep      = 5 * time.Second
	abortCommandBudget  = 5 * time.Second
)

// phase duration defaults above back NewTailsitterPitchProgram's field
// initialization; kept as named consts rather than inline literals so a
// reader can find the stabilize-sleep and offboard-retry numbers in one
// place.

// TailsitterPitchProgram is the only transition strategy this codebase
// names: arm and climb in two stages, then fork a throttle/tilt ramp
// against a failsafe monitor, and hand off to a configured
// post-transition action on success. Recombines this stack's
// ordered-failsafe monitor loop and command-run loop idioms around the
// tailsitter's phase ordering.
type TailsitterPitchProgram struct {
	Config  *config.Config
	Surface autopilot.CommandSurface
	Cache   *telemetry.Cache
	Logger  *logrus.Logger

	// StabilizeDelay, OffboardRetryDelay, and AbortCommandBudget carry the
	// documented real-world durations (5s, 2s, a bounded abort window).
	// They are fields rather than consts so tests can shrink them and run
	// the state machine in milliseconds instead of real time.
	StabilizeDelay      time.Duration
	OffboardRetryDelay  time.Duration
	AbortCommandBudget  time.Duration

	// cmdLock serializes every command issuance across phases and across
	// the ramp/monitor fork: the autopilot link is process-wide and only
	// one command may be in flight on it at a time.
	cmdLock sync.Mutex
}

// NewTailsitterPitchProgram builds a program with the documented
// phase-1/phase-2 durations. Tests that need to run in milliseconds
// construct the struct directly and override StabilizeDelay /
// OffboardRetryDelay / AbortCommandBudget instead.
func NewTailsitterPitchProgram(cfg *config.Config, surface autopilot.CommandSurface, cache *telemetry.Cache, logger *logrus.Logger) *TailsitterPitchProgram {
	return &TailsitterPitchProgram{
		Config:             cfg,
		Surface:            surface,
		Cache:              cache,
		Logger:             logger,
		StabilizeDelay:     stabilizeSleep,
		OffboardRetryDelay: offboardRetryDelay,
		AbortCommandBudget: abortCommandBudget,
	}
}

var _ Strategy = (*TailsitterPitchProgram)(nil)

func (t *TailsitterPitchProgram) command(ctx context.Context, fn func() error) error {
	t.cmdLock.Lock()
	defer t.cmdLock.Unlock()
	return fn()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Execute runs the tailsitter pitch program start to finish, returning
// a terminal ResultSuccess or ResultFailure. No error ever escapes this
// method.
func (t *TailsitterPitchProgram) Execute(ctx context.Context) Result {
	if t.Config.SafetyLock {
		t.Logger.Info("safety_lock engaged, skipping transition")
		return ResultSuccess
	}

	sess := newSession()

	phases := []func(context.Context, *session) error{
		t.armAndTakeoff,
		t.offboardEntry,
		t.climbBody,
		t.climbNED,
	}

	for _, phase := range phases {
		if err := phase(ctx, sess); err != nil {
			t.Logger.WithError(err).Error("transition phase failed, aborting")
			return t.executeAbort()
		}
	}

	result, err := t.rampAndMonitor(ctx, sess)
	if err != nil {
		t.Logger.WithError(err).Warn("ramp/monitor ended without success")
	}

	if result == ResultSuccess {
		return t.postTransition(ctx, sess)
	}

	return t.executeAbort()
}

// Abort runs the strategy-level recovery sequence on demand, for an
// external supervisor that wants to cut a transition short. It shares
// implementation with the internal failure path (executeAbort).
func (t *TailsitterPitchProgram) Abort(ctx context.Context) Result {
	return t.executeAbort()
}

// executeAbort issues the best-effort recovery sequence against a fresh,
// bounded context so a caller's own cancelled context (the common reason
// abort is running in the first place) can't also block the cleanup
// commands themselves.
func (t *TailsitterPitchProgram) executeAbort() Result {
	ctx, cancel := context.WithTimeout(context.Background(), t.AbortCommandBudget)
	defer cancel()
	return t.runAbort(ctx)
}

// runAbort issues the recovery sequence on a failsafe trip or timeout:
// best-effort, each step independent. A failed step is logged and does
// not prevent the remaining steps.
func (t *TailsitterPitchProgram) runAbort(ctx context.Context) Result {
	if t.Config.FailsafeMulticopterTransition {
		if err := t.command(ctx, func() error { return t.Surface.TransitionToMulticopter(ctx) }); err != nil {
			t.Logger.WithError(err).Error("transition_to_multicopter failed during abort")
		}
	}

	if err := t.command(ctx, func() error { return t.Surface.OffboardStop(ctx) }); err != nil {
		t.Logger.WithError(err).Error("offboard_stop failed during abort")
	}

	if err := t.command(ctx, func() error { return t.Surface.ReturnToLaunch(ctx) }); err != nil {
		t.Logger.WithError(err).Error("return_to_launch failed during abort")
	}

	return ResultFailure
}

// armAndTakeoff is Phase 1.
func (t *TailsitterPitchProgram) armAndTakeoff(ctx context.Context, sess *session) error {
	if t.Config.EnableTakeoff {
		err := t.command(ctx, func() error {
			if err := t.Surface.Arm(ctx); err != nil {
				return err
			}
			if err := t.Surface.SetTakeoffAltitude(ctx, t.Config.InitialTakeoffHeight); err != nil {
				return err
			}
			return t.Surface.Takeoff(ctx)
		})
		if err != nil {
			return fmt.Errorf("%w: arm/takeoff: %v", ErrCommandFailure, err)
		}
	} else {
		t.Logger.Info("enable_takeoff=false, assuming already airborne")
	}

	snap := t.Cache.Snapshot()
	if snap.HasAttitude && !snap.StaleAttitude {
		sess.launchYawAngle = snap.Attitude.YawDeg
	} else {
		t.Logger.Debug("launch yaw unavailable at arm, defaulting to 0.0")
		sess.launchYawAngle = 0.0
	}
	t.Logger.WithField("launch_yaw_angle", sess.launchYawAngle).Info("arm and takeoff complete")

	if err := sleepCtx(ctx, t.StabilizeDelay); err != nil {
		return fmt.Errorf("%w: post-takeoff stabilize: %v", ErrCancelled, err)
	}
	return nil
}

// offboardEntry is Phase 2: publish a zero setpoint, then retry
// offboard-start up to offboardMaxAttempts times.
func (t *TailsitterPitchProgram) offboardEntry(ctx context.Context, sess *session) error {
	err := t.command(ctx, func() error { return t.Surface.SetBodyVelocity(ctx, 0, 0, 0, 0) })
	if err != nil {
		return fmt.Errorf("%w: zero setpoint before offboard start: %v", ErrCommandFailure, err)
	}

	var lastErr error
	for attempt := 1; attempt <= offboardMaxAttempts; attempt++ {
		lastErr = t.command(ctx, func() error { return t.Surface.OffboardStart(ctx) })
		if lastErr == nil {
			return nil
		}
		t.Logger.WithError(lastErr).WithField("attempt", attempt).Warn("offboard_start rejected")
		if attempt < offboardMaxAttempts {
			if err := sleepCtx(ctx, t.OffboardRetryDelay); err != nil {
				return fmt.Errorf("%w: offboard retry wait: %v", ErrCancelled, err)
			}
		}
	}
	return fmt.Errorf("%w: %d attempts, last error: %v", ErrOffboardRejected, offboardMaxAttempts, lastErr)
}

// climbBody is Phase 3: body-frame ascent to initial_climb_height.
func (t *TailsitterPitchProgram) climbBody(ctx context.Context, sess *session) error {
	ticker := time.NewTicker(t.Config.CycleInterval)
	defer ticker.Stop()

	for {
		if t.Cache.Snapshot().AltitudeM() >= t.Config.InitialClimbHeight {
			return nil
		}

		err := t.command(ctx, func() error {
			return t.Surface.SetBodyVelocity(ctx, 0, 0, -t.Config.InitialClimbRate, 0)
		})
		if err != nil {
			return fmt.Errorf("%w: body climb setpoint: %v", ErrCommandFailure, err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("%w: body climb: %v", ErrCancelled, ctx.Err())
		}
	}
}

// climbNED is Phase 4: NED-frame ascent to transition_base_altitude, held
// at the effective transition yaw.
func (t *TailsitterPitchProgram) climbNED(ctx context.Context, sess *session) error {
	yaw := t.Config.EffectiveYaw(sess.launchYawAngle)

	ticker := time.NewTicker(t.Config.CycleInterval)
	defer ticker.Stop()

	for {
		if t.Cache.Snapshot().AltitudeM() >= t.Config.TransitionBaseAltitude {
			return nil
		}

		err := t.command(ctx, func() error {
			return t.Surface.SetNEDVelocity(ctx, 0, 0, -t.Config.SecondaryClimbRate, yaw)
		})
		if err != nil {
			return fmt.Errorf("%w: NED climb setpoint: %v", ErrCommandFailure, err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("%w: NED climb: %v", ErrCancelled, ctx.Err())
		}
	}
}

// rampAndMonitor is Phase 5: fork the ramping and monitoring tasks and
// join on whichever reaches a terminal condition first.
func (t *TailsitterPitchProgram) rampAndMonitor(ctx context.Context, sess *session) (Result, error) {
	rampCtx, cancelRamp := context.WithCancel(ctx)
	defer cancelRamp()
	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	defer cancelMonitor()

	rampDone := make(chan error, 1)
	monitorDone := make(chan monitorOutcome, 1)

	go func() { rampDone <- t.ramp(rampCtx, sess) }()
	go func() { monitorDone <- t.monitor(monitorCtx, sess) }()

	select {
	case outcome := <-monitorDone:
		cancelRamp()
		if rampErr := <-rampDone; rampErr != nil {
			t.Logger.WithError(rampErr).Warn("ramping task exited with error after monitor decided")
		}
		return outcome.result, outcome.err

	case rampErr := <-rampDone:
		if rampErr == nil {
			// ramp only returns nil once monitor has decided or ctx ended.
			outcome := <-monitorDone
			return outcome.result, outcome.err
		}
		sess.abortRequested.Set()
		cancelMonitor()
		<-monitorDone
		return ResultFailure, rampErr

	case <-ctx.Done():
		cancelRamp()
		cancelMonitor()
		<-rampDone
		<-monitorDone
		return ResultFailure, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	}
}

type monitorOutcome struct {
	result Result
	err    error
}

// ramp is the throttle/tilt ramping task that runs concurrently with
// monitor during the forward transition.
func (t *TailsitterPitchProgram) ramp(ctx context.Context, sess *session) error {
	snap := t.Cache.Snapshot()
	throttle := 0.7
	if snap.HasFixedWing && !snap.StaleFixedWing {
		throttle = snap.FixedWing.ThrottlePercentage
	} else {
		t.Logger.Debug("throttle telemetry unavailable at ramp entry, defaulting to 0.7")
	}

	sess.fwdTransitionStartTime = time.Now()
	sess.ramplingStarted.Set()

	cycleSeconds := t.Config.CycleInterval.Seconds()
	throttleStep := (t.Config.MaxThrottle - throttle) / (t.Config.ThrottleRampTime / cycleSeconds)
	tiltStep := -t.Config.MaxTiltPitch / (t.Config.ForwardTransitionTime / cycleSeconds)

	tilt := 0.0
	yaw := t.Config.EffectiveYaw(sess.launchYawAngle)

	ticker := time.NewTicker(t.Config.CycleInterval)
	defer ticker.Stop()

	for {
		if sess.transitionAchieved.IsSet() || sess.abortRequested.IsSet() {
			return nil
		}

		throttle += throttleStep
		if throttle > t.Config.MaxThrottle {
			throttle = t.Config.MaxThrottle
		}

		switch {
		case tilt > -t.Config.MaxTiltPitch:
			tilt += tiltStep
			if tilt < -t.Config.MaxTiltPitch {
				tilt = -t.Config.MaxTiltPitch
			}
		case t.Config.OverTiltEnabled:
			tilt += tiltStep
			if tilt < -t.Config.MaxAllowedTilt {
				tilt = -t.Config.MaxAllowedTilt
			}
			throttle = t.Config.MaxThrottle
		}

		err := t.command(ctx, func() error { return t.Surface.SetAttitude(ctx, 0, tilt, yaw, throttle) })
		if err != nil {
			t.Logger.WithError(err).Error("ramp attitude setpoint failed")
			return fmt.Errorf("%w: ramp attitude setpoint: %v", ErrCommandFailure, err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}
	}
}

// monitor runs concurrently with ramp during the forward transition,
// evaluating the ordered failsafe predicates and the success predicate
// every cycle.
func (t *TailsitterPitchProgram) monitor(ctx context.Context, sess *session) monitorOutcome {
	select {
	case <-sess.ramplingStarted.Done():
	case <-ctx.Done():
		return monitorOutcome{ResultFailure, fmt.Errorf("%w: waiting for ramp start: %v", ErrCancelled, ctx.Err())}
	}

	ticker := time.NewTicker(t.Config.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return monitorOutcome{ResultFailure, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())}
		}

		snap := t.Cache.Snapshot()
		altitude := snap.AltitudeM()
		if altitude > sess.peakAltitude {
			sess.peakAltitude = altitude
		}
		altitudeLoss := sess.peakAltitude - altitude

		// A stale feed (subscriber died, channel closed) is treated the same
		// as a field that was never populated: the failsafe evaluator sees
		// the zero value rather than a frozen last reading, so a dead
		// attitude or fixed-wing stream can't silently mask a real
		// excursion by pinning these inputs at their last good value.
		var roll, pitch, airspeed, climbRate float64
		if snap.HasAttitude && !snap.StaleAttitude {
			roll, pitch = snap.Attitude.RollDeg, snap.Attitude.PitchDeg
		}
		if snap.HasFixedWing && !snap.StaleFixedWing {
			airspeed, climbRate = snap.FixedWing.AirspeedMS, snap.FixedWing.ClimbRateMS
		}
		elapsed := time.Since(sess.fwdTransitionStartTime)

		t.Logger.WithFields(logrus.Fields{
			"altitude": altitude, "airspeed": airspeed, "climb_rate": climbRate,
			"pitch": pitch, "roll": roll, "elapsed_s": elapsed.Seconds(),
		}).Debug("monitor cycle")

		if name, tripped := t.evaluateFailsafes(roll, pitch, altitude, altitudeLoss, climbRate); tripped {
			sess.abortRequested.Set()
			t.Logger.WithField("failsafe", name).Warn("failsafe tripped")
			return monitorOutcome{ResultFailure, fmt.Errorf("%w: %s", ErrFailsafeViolation, name)}
		}

		if airspeed >= t.Config.TransitionAirSpeed {
			sess.transitionAchieved.Set()
			return monitorOutcome{ResultSuccess, nil}
		}

		if elapsed > t.Config.TransitionTimeout {
			sess.abortRequested.Set()
			return monitorOutcome{ResultFailure, fmt.Errorf("%w: elapsed %s", ErrTimeout, elapsed)}
		}
	}
}

// evaluateFailsafes checks the non-timeout failsafe predicates in
// priority order and returns the first that trips. Timeout is checked
// separately by the caller, after the success predicate, so a transition
// that completes on its very last cycle is never failed on a technicality.
func (t *TailsitterPitchProgram) evaluateFailsafes(roll, pitch, altitude, altitudeLoss, climbRate float64) (string, bool) {
	cfg := t.Config
	switch {
	case math.Abs(roll) > cfg.MaxRollFailsafe:
		return "max_roll_failsafe", true
	case altitude > cfg.MaxAltitudeFailsafe:
		return "max_altitude_failsafe", true
	case math.Abs(pitch) > cfg.MaxPitchFailsafe:
		return "max_pitch_failsafe", true
	case altitudeLoss > cfg.AltitudeLossLimit:
		return "altitude_loss_limit", true
	case altitude < cfg.AltitudeFailsafeThreshold:
		return "altitude_failsafe_threshold", true
	case climbRate < cfg.ClimbRateFailsafeThreshold:
		return "climb_rate_failsafe_threshold", true
	default:
		return "", false
	}
}

// postTransition runs the sequence after a successful airspeed
// transition: accelerate, stop offboard, hand off to fixed-wing mode,
// then the configured post-transition action.
func (t *TailsitterPitchProgram) postTransition(ctx context.Context, sess *session) Result {
	snap := t.Cache.Snapshot()
	horizontalSpeed := t.Config.TransitionAirSpeed
	if snap.HasPositionVelocityNED && !snap.StalePositionVelocityNED {
		horizontalSpeed = math.Hypot(snap.PositionVelocityNED.VNMS, snap.PositionVelocityNED.VEMS)
	}

	err := t.command(ctx, func() error {
		return t.Surface.SetBodyVelocity(ctx, horizontalSpeed*t.Config.AccelerationFactor, 0, 0, 0)
	})
	if err != nil {
		t.Logger.WithError(err).Error("post-transition acceleration setpoint failed")
	}

	if err := sleepCtx(ctx, t.Config.AccelerationDuration); err != nil {
		t.Logger.WithError(err).Warn("post-transition acceleration hold interrupted")
	}

	if err := t.command(ctx, func() error { return t.Surface.OffboardStop(ctx) }); err != nil {
		t.Logger.WithError(err).Error("offboard_stop failed during post-transition")
	}

	if err := t.command(ctx, func() error { return t.Surface.TransitionToFixedwing(ctx) }); err != nil {
		t.Logger.WithError(err).Error("transition_to_fixedwing failed")
		t.rtlFallback(ctx)
		return ResultFailure
	}

	if err := t.dispatchPostAction(ctx, sess, snap); err != nil {
		t.Logger.WithError(err).Error("post-transition action failed, falling back to return-to-launch")
		t.rtlFallback(ctx)
	}

	return ResultSuccess
}

func (t *TailsitterPitchProgram) rtlFallback(ctx context.Context) {
	if err := t.command(ctx, func() error { return t.Surface.ReturnToLaunch(ctx) }); err != nil {
		t.Logger.WithError(err).Error("return-to-launch fallback failed")
	}
}
