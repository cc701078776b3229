package telemetry

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Source is the telemetry producer the cache subscribes to: one channel
// per stream, each independently subscribed and independently failable.
// A production Source wraps the autopilot session's telemetry streams; a
// test Source can be backed by channels the test writes to directly.
type Source interface {
	Battery(ctx context.Context) (<-chan BatterySample, error)
	FixedWing(ctx context.Context) (<-chan FixedWingSample, error)
	Attitude(ctx context.Context) (<-chan AttitudeSample, error)
	PositionVelocityNED(ctx context.Context) (<-chan PositionVelocityNEDSample, error)
}

// slot holds one stream's latest value behind an atomic pointer so reads
// never tear against a concurrent write and never block a writer.
type slot struct {
	value atomic.Value // holds *taggedSample
}

// taggedSample wraps one slot's latest value with whether it has ever
// been populated and whether the subscriber writing it has since died.
// stale is set on channel close or a failed initial subscription and stays
// set for the rest of that Start; only a subscriber launched by a later
// Start (after Stop) can store a fresh, non-stale value into the slot.
type taggedSample[T any] struct {
	value T
	has   bool
	stale bool
}

func (s *slot) store(v any) {
	s.value.Store(v)
}

func (s *slot) load() any {
	return s.value.Load()
}

// markStale flags a slot's subscriber as dead, keeping whatever value it
// last held (or the zero value, if it never received one) so a reader can
// tell frozen data from a live reading without losing the last-known-good
// value entirely.
func markStale[T any](s *slot) {
	if cur, ok := s.load().(*taggedSample[T]); ok {
		s.store(&taggedSample[T]{value: cur.value, has: cur.has, stale: true})
		return
	}
	s.store(&taggedSample[T]{stale: true})
}

// Cache is the process-wide latest-value store for the four telemetry
// streams the transition core reads. One subscriber goroutine owns each
// of the four slots; a single Snapshot composes a read of all four
// without requiring any cross-slot lock.
type Cache struct {
	battery    slot
	fixedWing  slot
	attitude   slot
	positionNED slot

	source Source
	logger *logrus.Logger

	mu      sync.Mutex // guards start/stop lifecycle only
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	stopped bool
}

// NewCache creates a cache that will read from source once Start is
// called.
func NewCache(source Source, logger *logrus.Logger) *Cache {
	c := &Cache{source: source, logger: logger}
	c.battery.store(&taggedSample[BatterySample]{})
	c.fixedWing.store(&taggedSample[FixedWingSample]{})
	c.attitude.store(&taggedSample[AttitudeSample]{})
	c.positionNED.store(&taggedSample[PositionVelocityNEDSample]{})
	return c
}

// Start launches the four subscriber goroutines. Calling Start after Stop
// is safe and starts a fresh set of subscribers against a fresh context.
func (c *Cache) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started && !c.stopped {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.started = true
	c.stopped = false

	c.wg.Add(4)
	go c.runBattery(runCtx)
	go c.runFixedWing(runCtx)
	go c.runAttitude(runCtx)
	go c.runPositionNED(runCtx)
}

// Stop cancels all subscribers and waits for them to exit. Calling Stop
// twice is a no-op on the second call.
func (c *Cache) Stop() {
	c.mu.Lock()
	if c.stopped || c.cancel == nil {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	c.wg.Wait()
}

// Snapshot composes a consistent per-field read of all four slots. The
// return is not atomic across slots -- a writer may update PositionNED
// between this reading Attitude and PositionNED -- but each individual
// field is the value from a single, non-torn write.
func (c *Cache) Snapshot() Sample {
	var out Sample

	if b, ok := c.battery.load().(*taggedSample[BatterySample]); ok {
		out.Battery, out.HasBattery, out.StaleBattery = b.value, b.has, b.stale
	}
	if f, ok := c.fixedWing.load().(*taggedSample[FixedWingSample]); ok {
		out.FixedWing, out.HasFixedWing, out.StaleFixedWing = f.value, f.has, f.stale
	}
	if a, ok := c.attitude.load().(*taggedSample[AttitudeSample]); ok {
		out.Attitude, out.HasAttitude, out.StaleAttitude = a.value, a.has, a.stale
	}
	if p, ok := c.positionNED.load().(*taggedSample[PositionVelocityNEDSample]); ok {
		out.PositionVelocityNED, out.HasPositionVelocityNED, out.StalePositionVelocityNED = p.value, p.has, p.stale
	}

	return out
}

func (c *Cache) runBattery(ctx context.Context) {
	defer c.wg.Done()
	ch, err := c.source.Battery(ctx)
	if err != nil {
		c.logger.WithError(err).Error("battery telemetry subscription failed")
		markStale[BatterySample](&c.battery)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-ch:
			if !ok {
				c.logger.Warn("battery telemetry stream closed, marking slot stale")
				markStale[BatterySample](&c.battery)
				return
			}
			c.battery.store(&taggedSample[BatterySample]{value: v, has: true})
		}
	}
}

func (c *Cache) runFixedWing(ctx context.Context) {
	defer c.wg.Done()
	ch, err := c.source.FixedWing(ctx)
	if err != nil {
		c.logger.WithError(err).Error("fixed-wing telemetry subscription failed")
		markStale[FixedWingSample](&c.fixedWing)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-ch:
			if !ok {
				c.logger.Warn("fixed-wing telemetry stream closed, marking slot stale")
				markStale[FixedWingSample](&c.fixedWing)
				return
			}
			c.fixedWing.store(&taggedSample[FixedWingSample]{value: v, has: true})
		}
	}
}

func (c *Cache) runAttitude(ctx context.Context) {
	defer c.wg.Done()
	ch, err := c.source.Attitude(ctx)
	if err != nil {
		c.logger.WithError(err).Error("attitude telemetry subscription failed")
		markStale[AttitudeSample](&c.attitude)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-ch:
			if !ok {
				c.logger.Warn("attitude telemetry stream closed, marking slot stale")
				markStale[AttitudeSample](&c.attitude)
				return
			}
			c.attitude.store(&taggedSample[AttitudeSample]{value: v, has: true})
		}
	}
}

func (c *Cache) runPositionNED(ctx context.Context) {
	defer c.wg.Done()
	ch, err := c.source.PositionVelocityNED(ctx)
	if err != nil {
		c.logger.WithError(err).Error("position/velocity NED telemetry subscription failed")
		markStale[PositionVelocityNEDSample](&c.positionNED)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-ch:
			if !ok {
				c.logger.Warn("position/velocity NED telemetry stream closed, marking slot stale")
				markStale[PositionVelocityNEDSample](&c.positionNED)
				return
			}
			c.positionNED.store(&taggedSample[PositionVelocityNEDSample]{value: v, has: true})
		}
	}
}
