package transition

import (
	"testing"

	"github.com/asgard/vtol-transition/internal/config"
)

// TestFailsafePriorityOrdering exercises the failsafe priority rule:
// when multiple predicates are simultaneously true, the one earlier in
// evaluateFailsafes's ordering wins.
func TestFailsafePriorityOrdering(t *testing.T) {
	prog := &TailsitterPitchProgram{Config: config.Default()}
	cfg := prog.Config

	tests := []struct {
		name         string
		roll, pitch  float64
		altitude     float64
		altitudeLoss float64
		climbRate    float64
		want         string
		wantTripped  bool
	}{
		{
			name: "roll wins over everything else",
			roll: cfg.MaxRollFailsafe + 5, pitch: cfg.MaxPitchFailsafe + 5,
			altitude: cfg.MaxAltitudeFailsafe + 5, altitudeLoss: cfg.AltitudeLossLimit + 5,
			climbRate: cfg.ClimbRateFailsafeThreshold - 1,
			want:      "max_roll_failsafe", wantTripped: true,
		},
		{
			name: "altitude ceiling wins over pitch and lower predicates",
			roll: 0, pitch: cfg.MaxPitchFailsafe + 5,
			altitude: cfg.MaxAltitudeFailsafe + 5, altitudeLoss: cfg.AltitudeLossLimit + 5,
			climbRate: cfg.ClimbRateFailsafeThreshold - 1,
			want:      "max_altitude_failsafe", wantTripped: true,
		},
		{
			name: "pitch wins over altitude_loss and below",
			roll: 0, pitch: cfg.MaxPitchFailsafe + 5,
			altitude: 50, altitudeLoss: cfg.AltitudeLossLimit + 5,
			climbRate: cfg.ClimbRateFailsafeThreshold - 1,
			want:      "max_pitch_failsafe", wantTripped: true,
		},
		{
			name: "nothing tripped when all within envelope",
			roll: 0, pitch: 0,
			altitude: 50, altitudeLoss: 0,
			climbRate: cfg.ClimbRateFailsafeThreshold + 1,
			want:      "", wantTripped: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, tripped := prog.evaluateFailsafes(tt.roll, tt.pitch, tt.altitude, tt.altitudeLoss, tt.climbRate)
			if tripped != tt.wantTripped || name != tt.want {
				t.Errorf("got (%q, %v), want (%q, %v)", name, tripped, tt.want, tt.wantTripped)
			}
		})
	}
}
