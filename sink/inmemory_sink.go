package sink

import (
	"context"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const DefaultCapacity = 1024

// InmemorySink keeps the most recent entries in a bounded ring and maintains
// a JSON summary document of per-verb and per-connection counters. The
// summary is what the admin endpoint serves.
type InmemorySink struct {
	mu sync.Mutex

	summary []byte

	capacity int
	entries  []*Entry

	updateChans []chan *Entry

	// stop will be closed when Close() is called
	stop chan struct{}
}

func NewInmemorySink(capacity int) *InmemorySink {
	if capacity < 1 {
		capacity = DefaultCapacity
	}

	return &InmemorySink{
		summary:     []byte(""),
		capacity:    capacity,
		entries:     make([]*Entry, 0, capacity),
		updateChans: make([]chan *Entry, 0),
		stop:        make(chan struct{}),
	}
}

func (s *InmemorySink) Close() error {
	if s.isRunning() {
		close(s.stop)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, updateChan := range s.updateChans {
		close(updateChan)
	}
	s.updateChans = nil

	return nil
}

func (s *InmemorySink) Record(ctx context.Context, entry *Entry) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == s.capacity {
		copy(s.entries, s.entries[1:])
		s.entries = s.entries[:s.capacity-1]
	}
	s.entries = append(s.entries, entry)

	if err = s.count(entry); err != nil {
		return err
	}

	if s.isRunning() {
		for _, updateChan := range s.updateChans {
			select {
			case updateChan <- entry:
			default:
				// A listener that stopped draining loses updates;
				// capture must not stall on it.
			}
		}
	}

	return nil
}

// count bumps the summary counters for one entry.
func (s *InmemorySink) count(entry *Entry) (err error) {
	meta := entry.Frame.GetMeta()
	verb := pathEscape(string(entry.Frame.GetVerb()))
	conn := pathEscape(entry.Conn)

	bump := func(path string, delta int64) {
		if err != nil {
			return
		}

		current := gjson.GetBytes(s.summary, path).Int()
		s.summary, err = sjson.SetBytes(s.summary, path, current+delta)
	}

	bump("frames.total", 1)
	bump("frames.byVerb."+verb, 1)
	bump("connections."+conn+".frames", 1)
	bump("connections."+conn+".bytes", meta.End-meta.Start)

	if meta.Truncated {
		bump("frames.truncated", 1)
	}

	return err
}

func (s *InmemorySink) Recent(n int) []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}

	recent := make([]*Entry, n)
	copy(recent, s.entries[len(s.entries)-n:])

	return recent
}

func (s *InmemorySink) Summary() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.summary) == 0 {
		return []byte("{}"), nil
	}

	summary := make([]byte, len(s.summary))
	copy(summary, s.summary)

	return summary, nil
}

func (s *InmemorySink) ListenToUpdates() <-chan *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	updateChan := make(chan *Entry, 255)
	s.updateChans = append(s.updateChans, updateChan)

	return updateChan
}

// isRunning returns true if Close has not been called
func (s *InmemorySink) isRunning() bool {
	select {
	case <-s.stop:
		return false

	default:
		return true
	}
}

// pathEscape neutralizes the characters sjson/gjson treat as path syntax,
// so connection keys like "tcp/10.0.0.1:4222" stay single path segments.
func pathEscape(segment string) string {
	replacer := strings.NewReplacer(
		".", "\\.",
		"*", "\\*",
		"?", "\\?",
		"|", "\\|",
		"#", "\\#",
		"@", "\\@",
	)

	return replacer.Replace(segment)
}

var _ Sink = (*InmemorySink)(nil)
