package config

import "errors"

// ErrConfig is the sentinel wrapped by every configuration failure:
// unreadable file, malformed YAML, or a semantically invalid value.
// The CLI maps it to exit code 1.
var ErrConfig = errors.New("config error")
