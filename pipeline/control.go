package pipeline

import (
	"context"
	"log/slog"
)

// Controller copies every value from the control queue into the gate.
type Controller struct {
	id      string
	control <-chan bool
	gate    *Gate
	core    *int
	logger  *slog.Logger
}

func (c *Controller) Run(ctx context.Context) {
	if c.core != nil {
		if err := pinThread(*c.core); err != nil {
			c.logger.Warn("control loop not pinned", slog.Int("core", *c.core), slog.Any("error", err))
		}
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("control loop context cancelled")
			return

		case enabled, ok := <-c.control:
			if !ok {
				c.logger.Info("control queue closed")
				return
			}
			c.gate.Set(enabled)
			RecordGate(c.id, enabled)
			c.logger.Debug("gate set", slog.Bool("enabled", enabled))
		}
	}
}
