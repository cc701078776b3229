package telemetry

import (
	"context"
	"time"
)

// SimulatedSource is a synthetic Source for dry runs and demos: it
// publishes a slowly climbing, wings-level flight profile on each stream
// at interval, the way autopilot.Simulated stands in for a real command
// link. It is not a flight dynamics model -- just enough signal for the
// transition core's phase thresholds and failsafes to exercise their
// normal paths without a real autopilot attached.
type SimulatedSource struct {
	Interval time.Duration

	climbRateMS float64
}

// NewSimulatedSource returns a SimulatedSource climbing at climbRateMS,
// publishing a sample every interval.
func NewSimulatedSource(interval time.Duration, climbRateMS float64) *SimulatedSource {
	return &SimulatedSource{Interval: interval, climbRateMS: climbRateMS}
}

func (s *SimulatedSource) interval() time.Duration {
	if s.Interval <= 0 {
		return 100 * time.Millisecond
	}
	return s.Interval
}

func (s *SimulatedSource) Battery(ctx context.Context) (<-chan BatterySample, error) {
	out := make(chan BatterySample)
	go func() {
		defer close(out)
		remaining := 100.0
		ticker := time.NewTicker(s.interval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if remaining > 0 {
					remaining -= 0.01
				}
				select {
				case out <- BatterySample{Voltage: 22.2, RemainingPercent: remaining}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *SimulatedSource) FixedWing(ctx context.Context) (<-chan FixedWingSample, error) {
	out := make(chan FixedWingSample)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.interval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sample := FixedWingSample{
					AirspeedMS:         0,
					ThrottlePercentage: 0,
					ClimbRateMS:        s.climbRateMS,
				}
				select {
				case out <- sample:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *SimulatedSource) Attitude(ctx context.Context) (<-chan AttitudeSample, error) {
	out := make(chan AttitudeSample)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.interval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				sample := AttitudeSample{TimestampUs: t.UnixMicro()}
				select {
				case out <- sample:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *SimulatedSource) PositionVelocityNED(ctx context.Context) (<-chan PositionVelocityNEDSample, error) {
	out := make(chan PositionVelocityNEDSample)
	go func() {
		defer close(out)
		down := 0.0
		ticker := time.NewTicker(s.interval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				down -= s.climbRateMS * s.interval().Seconds()
				sample := PositionVelocityNEDSample{DownM: down, VDMS: -s.climbRateMS}
				select {
				case out <- sample:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
