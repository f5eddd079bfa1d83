package capture

import (
	"time"

	"github.com/luma/natscope/sink"
	"go.uber.org/zap"
)

type Options struct {
	// Host to listen on for mirrored streams
	Host string

	// Port to listen on
	Port int

	// Reuseport binds listeners with SO_REUSEPORT so several can share the
	// port. When false a single stdlib listener is used instead.
	Reuseport bool

	// Trace logs every decoded frame. This is only useful in local debugging
	Trace bool

	NumListeners int

	// MaxIdle bounds how long an abandoned connection keeps its decode
	// state before Reap reclaims it. Zero disables reaping.
	MaxIdle time.Duration

	Sink sink.Sink

	Log *zap.Logger
}
