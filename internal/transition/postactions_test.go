package transition

import (
	"context"
	"errors"
	"testing"

	"github.com/asgard/vtol-transition/internal/autopilot"
	"github.com/asgard/vtol-transition/internal/config"
	"github.com/asgard/vtol-transition/internal/telemetry"
)

func newProgramForActions(surface *autopilot.Simulated) *TailsitterPitchProgram {
	return &TailsitterPitchProgram{
		Config:  config.Default(),
		Surface: surface,
		Logger:  testLogger(),
	}
}

func TestContinueCurrentHeadingUsesCachedVelocityAndEffectiveYaw(t *testing.T) {
	surface := autopilot.NewSimulated()
	prog := newProgramForActions(surface)
	sess := newSession()
	sess.launchYawAngle = 77

	snap := telemetry.Sample{
		PositionVelocityNED:    telemetry.PositionVelocityNEDSample{VNMS: 12, VEMS: -4},
		HasPositionVelocityNED: true,
	}

	if err := prog.continueCurrentHeading(context.Background(), sess, snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmds := surface.Commands()
	if !containsKind(cmds, "offboard_start") {
		t.Fatal("expected offboard re-entry")
	}
	idx := indexOfKind(cmds, "set_velocity_ned")
	if idx == -1 {
		t.Fatal("expected a set_velocity_ned command")
	}
	args := cmds[idx].Args
	if args[0] != 12 || args[1] != -4 {
		t.Errorf("expected cached velocity (12,-4), got (%v,%v)", args[0], args[1])
	}
	if args[3] != 77 {
		t.Errorf("expected effective yaw to fall back to launch yaw 77, got %v", args[3])
	}
}

func TestStartMissionFromWaypointAttemptsAllStepsDespiteDownloadFailure(t *testing.T) {
	surface := autopilot.NewSimulated()
	surface.Fails["download_mission"] = autopilot.FailAlways(errors.New("link down"))

	prog := newProgramForActions(surface)
	prog.Config.StartWaypointIndex = 1

	err := prog.startMissionFromWaypoint(context.Background())
	if err == nil {
		t.Fatal("expected an error when download_mission fails")
	}
	if !errors.Is(err, ErrCommandFailure) {
		t.Errorf("expected ErrCommandFailure, got %v", err)
	}

	cmds := surface.Commands()
	if !containsKind(cmds, "set_current_mission_item") {
		t.Error("set_current_mission_item should still be attempted after download failure")
	}
	if !containsKind(cmds, "start_mission") {
		t.Error("start_mission should still be attempted after download failure")
	}
}

func TestStartMissionFromWaypointRejectsOutOfRangeIndexButStillStarts(t *testing.T) {
	surface := autopilot.NewSimulated()
	surface.SetMissionItems([]autopilot.MissionItem{{Index: 0}, {Index: 1}})

	prog := newProgramForActions(surface)
	prog.Config.StartWaypointIndex = 5

	err := prog.startMissionFromWaypoint(context.Background())
	if !errors.Is(err, ErrCommandFailure) {
		t.Fatalf("expected ErrCommandFailure for out-of-range index, got %v", err)
	}

	cmds := surface.Commands()
	if !containsKind(cmds, "start_mission") {
		t.Error("start_mission should still be attempted despite an invalid index")
	}
}

func TestStartMissionFromWaypointSucceeds(t *testing.T) {
	surface := autopilot.NewSimulated()
	surface.SetMissionItems([]autopilot.MissionItem{{Index: 0}, {Index: 1}, {Index: 2}})

	prog := newProgramForActions(surface)
	prog.Config.StartWaypointIndex = 2

	if err := prog.startMissionFromWaypoint(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDispatchPostActionUnknownActionIsCommandFailure(t *testing.T) {
	surface := autopilot.NewSimulated()
	prog := newProgramForActions(surface)
	prog.Config.PostTransitionAction = "not_a_real_action"

	err := prog.dispatchPostAction(context.Background(), newSession(), telemetry.Sample{})
	if !errors.Is(err, ErrCommandFailure) {
		t.Fatalf("expected ErrCommandFailure, got %v", err)
	}
}
