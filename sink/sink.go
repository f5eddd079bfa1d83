package sink

import (
	"context"
	"time"

	"github.com/luma/natscope/protocol"
)

// Entry is one decoded frame tagged with the connection it came from and
// when it was captured.
type Entry struct {
	Conn       string
	Frame      protocol.Frame
	CapturedAt time.Time
}

// Sink receives decoded frames from the capture layer. Implementations must
// be safe for concurrent Record calls, one goroutine per connection.
type Sink interface {
	Record(ctx context.Context, entry *Entry) error
	Recent(n int) []*Entry
	Summary() ([]byte, error)

	ListenToUpdates() <-chan *Entry

	Close() error
}
