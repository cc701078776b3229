package transition

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/asgard/vtol-transition/internal/autopilot"
	"github.com/asgard/vtol-transition/internal/config"
	"github.com/asgard/vtol-transition/internal/telemetry"
)

// fakeTelemetrySource is a telemetry.Source backed by channels the test
// writes to directly, the same shape as the cache package's own test
// double but independent of it (telemetry's is unexported to its package).
type fakeTelemetrySource struct {
	battery     chan telemetry.BatterySample
	fixedWing   chan telemetry.FixedWingSample
	attitude    chan telemetry.AttitudeSample
	positionNED chan telemetry.PositionVelocityNEDSample
}

func newFakeTelemetrySource() *fakeTelemetrySource {
	return &fakeTelemetrySource{
		battery:     make(chan telemetry.BatterySample, 16),
		fixedWing:   make(chan telemetry.FixedWingSample, 16),
		attitude:    make(chan telemetry.AttitudeSample, 16),
		positionNED: make(chan telemetry.PositionVelocityNEDSample, 16),
	}
}

func (f *fakeTelemetrySource) Battery(ctx context.Context) (<-chan telemetry.BatterySample, error) {
	return f.battery, nil
}

func (f *fakeTelemetrySource) FixedWing(ctx context.Context) (<-chan telemetry.FixedWingSample, error) {
	return f.fixedWing, nil
}

func (f *fakeTelemetrySource) Attitude(ctx context.Context) (<-chan telemetry.AttitudeSample, error) {
	return f.attitude, nil
}

func (f *fakeTelemetrySource) PositionVelocityNED(ctx context.Context) (<-chan telemetry.PositionVelocityNEDSample, error) {
	return f.positionNED, nil
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.DebugLevel)
	return l
}

// newTestCache starts a cache against source and arranges for it to stop
// at test cleanup.
func newTestCache(t *testing.T, source *fakeTelemetrySource) *telemetry.Cache {
	t.Helper()
	cache := telemetry.NewCache(source, testLogger())
	cache.Start(context.Background())
	t.Cleanup(cache.Stop)
	return cache
}

// fastConfig returns a Default config with every real-time wait shrunk so
// a full Execute runs in milliseconds instead of this design's literal
// seconds.
func fastConfig() *config.Config {
	cfg := config.Default()
	cfg.SafetyLock = false
	cfg.CycleInterval = 5 * time.Millisecond
	cfg.TransitionTimeout = 2 * time.Second
	cfg.AccelerationDuration = 10 * time.Millisecond
	cfg.ThrottleRampTime = 0.05
	cfg.ForwardTransitionTime = 0.05
	return cfg
}

// fastProgram builds a TailsitterPitchProgram with millisecond-scale
// phase-1/phase-2 delays so tests don't pay this design's literal 5s/2s.
func fastProgram(cfg *config.Config, surface *autopilot.Simulated, cache *telemetry.Cache) *TailsitterPitchProgram {
	return &TailsitterPitchProgram{
		Config:             cfg,
		Surface:            surface,
		Cache:              cache,
		Logger:             testLogger(),
		StabilizeDelay:     2 * time.Millisecond,
		OffboardRetryDelay: 2 * time.Millisecond,
		AbortCommandBudget: 200 * time.Millisecond,
	}
}
