package autopilot

import (
	"context"
	"fmt"
)

// AwaitConnected blocks until the external connection supervisor signals
// "connected" on signal, or ctx is cancelled. The wait is a one-shot
// channel receive rather than a polling loop, since the supervisor owns
// the polling logic, not this core.
func AwaitConnected(ctx context.Context, signal <-chan struct{}) error {
	select {
	case <-signal:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for autopilot connection: %v", ErrConnection, ctx.Err())
	}
}
