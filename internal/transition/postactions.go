package transition

import (
	"context"
	"fmt"

	"github.com/asgard/vtol-transition/internal/autopilot"
	"github.com/asgard/vtol-transition/internal/config"
	"github.com/asgard/vtol-transition/internal/telemetry"
)

// dispatchPostAction runs the configured post_transition_action. A
// returned error means the whole action failed to complete; the caller
// (postTransition) treats that as grounds for an RTL fallback.
func (t *TailsitterPitchProgram) dispatchPostAction(ctx context.Context, sess *session, snap telemetry.Sample) error {
	switch t.Config.PostTransitionAction {
	case config.ActionContinueCurrentHeading:
		return t.continueCurrentHeading(ctx, sess, snap)
	case config.ActionHold:
		if err := t.command(ctx, func() error { return t.Surface.Hold(ctx) }); err != nil {
			return fmt.Errorf("%w: hold: %v", ErrCommandFailure, err)
		}
		return nil
	case config.ActionReturnToLaunch:
		if err := t.command(ctx, func() error { return t.Surface.ReturnToLaunch(ctx) }); err != nil {
			return fmt.Errorf("%w: return_to_launch: %v", ErrCommandFailure, err)
		}
		return nil
	case config.ActionStartMissionFromWaypoint:
		return t.startMissionFromWaypoint(ctx)
	default:
		return fmt.Errorf("%w: unknown post_transition_action %q", ErrCommandFailure, t.Config.PostTransitionAction)
	}
}

func (t *TailsitterPitchProgram) continueCurrentHeading(ctx context.Context, sess *session, snap telemetry.Sample) error {
	err := t.command(ctx, func() error { return t.Surface.OffboardStart(ctx) })
	if err != nil {
		return fmt.Errorf("%w: re-entering offboard: %v", ErrCommandFailure, err)
	}

	yaw := t.Config.EffectiveYaw(sess.launchYawAngle)
	err = t.command(ctx, func() error {
		return t.Surface.SetNEDVelocity(ctx, snap.PositionVelocityNED.VNMS, snap.PositionVelocityNED.VEMS, 0, yaw)
	})
	if err != nil {
		return fmt.Errorf("%w: continue_current_heading setpoint: %v", ErrCommandFailure, err)
	}
	return nil
}

// startMissionFromWaypoint resumes the autopilot's own mission starting at
// StartWaypointIndex. Every sub-step is attempted and logged independently,
// so a failed download or an out-of-range index does not prevent the later
// steps from being tried.
func (t *TailsitterPitchProgram) startMissionFromWaypoint(ctx context.Context) error {
	var firstErr error

	downloaded, err := t.downloadMission(ctx)
	if err != nil {
		t.Logger.WithError(err).Error("download_mission failed")
		firstErr = fmt.Errorf("%w: download_mission: %v", ErrCommandFailure, err)
	} else if idx := t.Config.StartWaypointIndex; idx < 0 || idx >= len(downloaded) {
		t.Logger.WithField("start_waypoint_index", idx).Error("start_waypoint_index out of range")
		if firstErr == nil {
			firstErr = fmt.Errorf("%w: start_waypoint_index %d out of range [0,%d)", ErrCommandFailure, idx, len(downloaded))
		}
	}

	if err := t.command(ctx, func() error {
		return t.Surface.SetCurrentMissionItem(ctx, t.Config.StartWaypointIndex)
	}); err != nil {
		t.Logger.WithError(err).Error("set_current_mission_item failed")
		if firstErr == nil {
			firstErr = fmt.Errorf("%w: set_current_mission_item: %v", ErrCommandFailure, err)
		}
	}

	if err := t.command(ctx, func() error { return t.Surface.StartMission(ctx) }); err != nil {
		t.Logger.WithError(err).Error("start_mission failed")
		if firstErr == nil {
			firstErr = fmt.Errorf("%w: start_mission: %v", ErrCommandFailure, err)
		}
	}

	return firstErr
}

func (t *TailsitterPitchProgram) downloadMission(ctx context.Context) ([]autopilot.MissionItem, error) {
	t.cmdLock.Lock()
	defer t.cmdLock.Unlock()
	return t.Surface.DownloadMission(ctx)
}
