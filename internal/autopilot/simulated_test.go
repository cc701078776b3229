package autopilot

import (
	"context"
	"errors"
	"testing"
)

func TestSimulatedRecordsCommandsInOrder(t *testing.T) {
	s := NewSimulated()
	ctx := context.Background()

	if err := s.Arm(ctx); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	if err := s.SetTakeoffAltitude(ctx, 3.0); err != nil {
		t.Fatalf("SetTakeoffAltitude: %v", err)
	}
	if err := s.Takeoff(ctx); err != nil {
		t.Fatalf("Takeoff: %v", err)
	}

	cmds := s.Commands()
	if len(cmds) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(cmds))
	}
	if cmds[0].Kind != "arm" || cmds[1].Kind != "set_takeoff_altitude" || cmds[2].Kind != "takeoff" {
		t.Fatalf("unexpected command order: %+v", cmds)
	}
	if cmds[1].Args[0] != 3.0 {
		t.Errorf("expected takeoff altitude arg 3.0, got %v", cmds[1].Args[0])
	}
	if !s.IsArmed() {
		t.Error("expected IsArmed true after Arm succeeds")
	}
}

func TestSimulatedFailAlwaysRejectsEveryCall(t *testing.T) {
	s := NewSimulated()
	want := errors.New("no link")
	s.Fails["offboard_start"] = FailAlways(want)

	for i := 0; i < 3; i++ {
		if err := s.OffboardStart(context.Background()); !errors.Is(err, want) {
			t.Fatalf("attempt %d: expected %v, got %v", i, want, err)
		}
	}
	if len(s.Commands()) != 0 {
		t.Error("a failed command should not be recorded")
	}
}

func TestSimulatedFailFirstNThenSucceeds(t *testing.T) {
	s := NewSimulated()
	want := errors.New("transient")
	s.Fails["offboard_start"] = FailFirstN(2, want)

	if err := s.OffboardStart(context.Background()); !errors.Is(err, want) {
		t.Fatalf("attempt 1: expected failure, got %v", err)
	}
	if err := s.OffboardStart(context.Background()); !errors.Is(err, want) {
		t.Fatalf("attempt 2: expected failure, got %v", err)
	}
	if err := s.OffboardStart(context.Background()); err != nil {
		t.Fatalf("attempt 3: expected success, got %v", err)
	}

	cmds := s.Commands()
	if len(cmds) != 1 || cmds[0].Kind != "offboard_start" {
		t.Fatalf("expected exactly one recorded offboard_start, got %+v", cmds)
	}
}

func TestSimulatedDownloadMissionReturnsSeededItems(t *testing.T) {
	s := NewSimulated()
	s.SetMissionItems([]MissionItem{{Index: 0}, {Index: 1}, {Index: 2}})

	items, err := s.DownloadMission(context.Background())
	if err != nil {
		t.Fatalf("DownloadMission: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 mission items, got %d", len(items))
	}
}
