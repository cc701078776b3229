package autopilot

import "errors"

// ErrConnection is wrapped by any failure to reach "connected" before a
// transition attempt begins.
var ErrConnection = errors.New("autopilot connection error")
