package autopilot

import (
	"context"
	"fmt"
	"sync"
)

// Command is one recorded invocation against a Simulated surface, used
// by tests to assert the exact command sequence a transition program
// issues (e.g. the arm/takeoff/offboard/ramp/handoff order).
type Command struct {
	Kind string
	Args []float64
}

// Simulated is an in-process CommandSurface with no real autopilot behind
// it, playing the same role a "connected in simulation mode" flag plays
// against a real link. Every call succeeds and is recorded unless a Fails
// hook for that kind returns an error; such a call is counted but not
// recorded.
type Simulated struct {
	mu       sync.Mutex
	commands []Command

	// Fails, when non-nil for a command kind, is called before recording
	// the command; a non-nil return aborts the call with that error. Used
	// to script failure scenarios (offboard retry exhaustion, mid-flight
	// command failure) without a real autopilot.
	Fails map[string]func(callNumber int) error

	callCounts map[string]int

	missionItems []MissionItem

	armed           bool
	offboardActive  bool
	currentMission  int
}

// NewSimulated creates a Simulated surface with no scripted failures.
func NewSimulated() *Simulated {
	return &Simulated{
		Fails:      make(map[string]func(int) error),
		callCounts: make(map[string]int),
	}
}

// Commands returns a copy of every command recorded so far, in issue order.
func (s *Simulated) Commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// SetMissionItems seeds the mission DownloadMission returns.
func (s *Simulated) SetMissionItems(items []MissionItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missionItems = items
}

func (s *Simulated) record(kind string, args ...float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCounts[kind]++
	n := s.callCounts[kind]

	if fail, ok := s.Fails[kind]; ok && fail != nil {
		if err := fail(n); err != nil {
			return err
		}
	}

	s.commands = append(s.commands, Command{Kind: kind, Args: args})
	return nil
}

func (s *Simulated) Arm(ctx context.Context) error {
	if err := s.record("arm"); err != nil {
		return err
	}
	s.mu.Lock()
	s.armed = true
	s.mu.Unlock()
	return nil
}

func (s *Simulated) SetTakeoffAltitude(ctx context.Context, altitudeM float64) error {
	return s.record("set_takeoff_altitude", altitudeM)
}

func (s *Simulated) Takeoff(ctx context.Context) error {
	return s.record("takeoff")
}

func (s *Simulated) SetBodyVelocity(ctx context.Context, vx, vy, vz, yawspeedDeg float64) error {
	return s.record("set_velocity_body", vx, vy, vz, yawspeedDeg)
}

func (s *Simulated) SetNEDVelocity(ctx context.Context, vn, ve, vd, yawDeg float64) error {
	return s.record("set_velocity_ned", vn, ve, vd, yawDeg)
}

func (s *Simulated) SetAttitude(ctx context.Context, rollDeg, pitchDeg, yawDeg, thrust float64) error {
	return s.record("set_attitude", rollDeg, pitchDeg, yawDeg, thrust)
}

func (s *Simulated) OffboardStart(ctx context.Context) error {
	if err := s.record("offboard_start"); err != nil {
		return err
	}
	s.mu.Lock()
	s.offboardActive = true
	s.mu.Unlock()
	return nil
}

func (s *Simulated) OffboardStop(ctx context.Context) error {
	if err := s.record("offboard_stop"); err != nil {
		return err
	}
	s.mu.Lock()
	s.offboardActive = false
	s.mu.Unlock()
	return nil
}

func (s *Simulated) TransitionToFixedwing(ctx context.Context) error {
	return s.record("transition_to_fixedwing")
}

func (s *Simulated) TransitionToMulticopter(ctx context.Context) error {
	return s.record("transition_to_multicopter")
}

func (s *Simulated) Hold(ctx context.Context) error {
	return s.record("hold")
}

func (s *Simulated) ReturnToLaunch(ctx context.Context) error {
	return s.record("return_to_launch")
}

func (s *Simulated) DownloadMission(ctx context.Context) ([]MissionItem, error) {
	if err := s.record("download_mission"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MissionItem, len(s.missionItems))
	copy(out, s.missionItems)
	return out, nil
}

func (s *Simulated) SetCurrentMissionItem(ctx context.Context, index int) error {
	if err := s.record("set_current_mission_item", float64(index)); err != nil {
		return err
	}
	s.mu.Lock()
	s.currentMission = index
	s.mu.Unlock()
	return nil
}

func (s *Simulated) StartMission(ctx context.Context) error {
	return s.record("start_mission")
}

// IsArmed reports whether Arm has succeeded without a subsequent failure
// path resetting it. Present for tests that assert on surface state
// rather than the command log.
func (s *Simulated) IsArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

var _ CommandSurface = (*Simulated)(nil)

// FailAlways returns a Fails hook that fails every call with err.
func FailAlways(err error) func(int) error {
	return func(int) error { return err }
}

// FailFirstN returns a Fails hook that fails the first n calls and then
// succeeds, used to script "succeeds on retry" scenarios.
func FailFirstN(n int, err error) func(int) error {
	return func(callNumber int) error {
		if callNumber <= n {
			return err
		}
		return nil
	}
}

// ErrSimulatedCommand is a convenience sentinel for scripted failures that
// don't need a more specific error.
var ErrSimulatedCommand = fmt.Errorf("simulated command failure")
