// Package httpapi exposes the resection engine over HTTP with fiber.
package httpapi

import (
	"github.com/pspoerri/fosfix/internal/logging"
	"github.com/pspoerri/fosfix/internal/observability"
	"github.com/pspoerri/fosfix/internal/resection"
)

// Dependencies holds everything the handlers need.
type Dependencies struct {
	Engine  *resection.Engine
	Metrics *observability.Collector // optional
	Logger  logging.Logger
	Version string
}

func (d *Dependencies) logger() logging.Logger {
	if d.Logger == nil {
		return logging.Noop()
	}
	return d.Logger
}
