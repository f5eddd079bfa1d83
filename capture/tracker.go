package capture

import (
	"sync"
	"time"

	"github.com/luma/natscope/protocol"
)

// Session is the decode state for one connection: a protocol.Decoder plus
// activity bookkeeping. Bytes must arrive in stream order; a session is fed
// from a single goroutine at a time.
type Session struct {
	key ConnKey

	mu       sync.Mutex
	decoder  *protocol.Decoder
	lastSeen time.Time
	closed   bool

	frames int64
	bytes  int64
}

func newSession(key ConnKey) *Session {
	return &Session{
		key:      key,
		decoder:  protocol.NewDecoder(),
		lastSeen: time.Now(),
	}
}

func (s *Session) Key() ConnKey {
	return s.key
}

// Feed appends a newly captured chunk and returns the frames it completed.
func (s *Session) Feed(chunk []byte) []protocol.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.lastSeen = time.Now()
	s.bytes += int64(len(chunk))

	frames := s.decoder.Decode(chunk)
	s.frames += int64(len(frames))

	return frames
}

// Close ends the session's stream, returning any partial frame the decoder
// was still holding. Closing twice is harmless.
func (s *Session) Close() []protocol.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	frames := s.decoder.Flush()
	s.frames += int64(len(frames))

	return frames
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastSeen
}

// Stats reports how many frames and raw bytes the session has seen.
func (s *Session) Stats() (frames, bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.frames, s.bytes
}

// Tracker owns one Session per connection key. Different connections decode
// independently, so callers may feed different keys from different
// goroutines; bytes for a single key must still arrive in order.
type Tracker struct {
	mu       sync.Mutex
	sessions map[ConnKey]*Session
}

func NewTracker() *Tracker {
	return &Tracker{
		sessions: make(map[ConnKey]*Session),
	}
}

// Session returns the session for key, creating it on first sight.
func (t *Tracker) Session(key ConnKey) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, ok := t.sessions[key]
	if !ok {
		session = newSession(key)
		t.sessions[key] = session
	}

	return session
}

// Feed routes a chunk to its connection's session.
func (t *Tracker) Feed(key ConnKey, chunk []byte) []protocol.Frame {
	return t.Session(key).Feed(chunk)
}

// CloseConn flushes and forgets a connection, returning any truncated tail
// frame so the caller can report it rather than drop it.
func (t *Tracker) CloseConn(key ConnKey) []protocol.Frame {
	t.mu.Lock()
	session, ok := t.sessions[key]
	delete(t.sessions, key)
	t.mu.Unlock()

	if !ok {
		return nil
	}

	return session.Close()
}

// Reap flushes every session idle for longer than maxIdle, reclaiming
// abandoned decode state. It returns the flushed frames keyed by session.
func (t *Tracker) Reap(maxIdle time.Duration) map[ConnKey][]protocol.Frame {
	cutoff := time.Now().Add(-maxIdle)

	t.mu.Lock()
	idle := make([]*Session, 0)
	for key, session := range t.sessions {
		if session.LastSeen().Before(cutoff) {
			idle = append(idle, session)
			delete(t.sessions, key)
		}
	}
	t.mu.Unlock()

	if len(idle) == 0 {
		return nil
	}

	flushed := make(map[ConnKey][]protocol.Frame, len(idle))
	for _, session := range idle {
		flushed[session.Key()] = session.Close()
	}

	return flushed
}

// Len reports how many live sessions the tracker holds.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.sessions)
}
