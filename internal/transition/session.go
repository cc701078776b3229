package transition

import (
	"sync"
	"time"
)

// event is a single-producer, many-consumer one-shot signal: exactly one
// setter ever calls Set, any number of goroutines may wait on Done or poll
// IsSet. A sync.Once-guarded channel close is Go's native broadcast
// primitive for this.
type event struct {
	once sync.Once
	ch   chan struct{}
}

func newEvent() *event {
	return &event{ch: make(chan struct{})}
}

// Set signals the event. Safe to call more than once; only the first call
// has any effect.
func (e *event) Set() {
	e.once.Do(func() { close(e.ch) })
}

// Done returns a channel closed once Set has been called.
func (e *event) Done() <-chan struct{} {
	return e.ch
}

// IsSet reports whether Set has been called, without blocking.
func (e *event) IsSet() bool {
	select {
	case <-e.ch:
		return true
	default:
		return false
	}
}

// session is the per-execution state of one transition attempt: fields
// owned by that attempt, discarded at its end. peakAltitude is mutated
// only by the monitoring task, so it carries no lock of its own --
// ramping never reads or writes it.
type session struct {
	launchYawAngle         float64
	fwdTransitionStartTime time.Time
	peakAltitude           float64

	ramplingStarted    *event
	transitionAchieved *event
	abortRequested     *event
}

func newSession() *session {
	return &session{
		ramplingStarted:    newEvent(),
		transitionAchieved: newEvent(),
		abortRequested:     newEvent(),
	}
}
