package transition

import (
	"context"

	"github.com/sirupsen/logrus"
)

// DefaultStrategyName is the strategy the manager falls back to when a
// configured name is unrecognized.
const DefaultStrategyName = "tailsitter_pitch_program"

// Manager selects a named Strategy at construction and drives it. It is
// a thin passthrough: the terminal status it returns is the strategy's,
// verbatim.
type Manager struct {
	active Strategy
	logger *logrus.Logger
}

// NewManager resolves name against strategies, defaulting to
// DefaultStrategyName with a logged warning if name is unrecognized.
// strategies must contain an entry for DefaultStrategyName.
func NewManager(logger *logrus.Logger, strategies map[string]Strategy, name string) *Manager {
	strategy, ok := strategies[name]
	if !ok {
		logger.WithField("strategy", name).Warn("unknown transition strategy, defaulting to tailsitter_pitch_program")
		strategy = strategies[DefaultStrategyName]
	}
	return &Manager{active: strategy, logger: logger}
}

func (m *Manager) Execute(ctx context.Context) Result {
	return m.active.Execute(ctx)
}

func (m *Manager) Abort(ctx context.Context) Result {
	return m.active.Abort(ctx)
}
