package capture

import (
	"context"
	"errors"
	"io"
	"net"
	"runtime"
	"strconv"
	"sync"
	"time"

	reuseport "github.com/kavu/go_reuseport"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/natscope/protocol"
	"github.com/luma/natscope/sink"
)

const readBufferSize = 4096

// Tap ingests mirrored NATS byte streams over TCP and feeds them through
// per-connection decoders into a Sink. It never writes to the connections
// it accepts; it is a listener for captured traffic, not a protocol peer.
type Tap struct {
	cancel     context.CancelFunc
	stopWaiter sync.WaitGroup

	addr string

	numListeners int
	reuseport    bool
	listeners    []*tapListener

	tracker *Tracker
	sink    sink.Sink

	maxIdle time.Duration

	log   *zap.Logger
	trace bool
}

func NewTap(options Options) *Tap {
	numListeners := options.NumListeners

	if numListeners < 1 {
		numListeners = runtime.NumCPU()
	}
	if !options.Reuseport {
		// Only SO_REUSEPORT lets several listeners share one port.
		numListeners = 1
	}

	return &Tap{
		addr:         net.JoinHostPort(options.Host, strconv.Itoa(options.Port)),
		numListeners: numListeners,
		reuseport:    options.Reuseport,
		listeners:    make([]*tapListener, 0, numListeners),
		tracker:      NewTracker(),
		sink:         options.Sink,
		maxIdle:      options.MaxIdle,
		trace:        options.Trace,
		log:          options.Log,
	}
}

func (t *Tap) Tracker() *Tracker {
	return t.tracker
}

func (t *Tap) Sink() sink.Sink {
	return t.sink
}

func (t *Tap) Start(parentCtx context.Context) error {
	ctx, cancel := context.WithCancel(parentCtx)
	t.cancel = cancel

	t.log.Info("Starting tap listeners", zap.Int("count", t.numListeners))

	for i := 0; i < t.numListeners; i++ {
		t.startListener(ctx, t.addr)
	}

	if t.maxIdle > 0 {
		t.stopWaiter.Add(1)
		go func() {
			defer t.stopWaiter.Done()
			t.reapLoop(ctx)
		}()
	}

	return nil
}

func (t *Tap) startListener(ctx context.Context, addr string) {
	t.stopWaiter.Add(1)
	listener := newTapListener(
		ctx,
		addr,
		t.reuseport,
		t.tracker,
		t.sink,
		t.trace,
		t.log.Named("listener").With(zap.Int("listener", len(t.listeners))),
	)

	t.listeners = append(t.listeners, listener)

	go func() {
		defer t.stopWaiter.Done()

		if err := listener.Listen(); err != nil {
			t.log.Error("Failed to listen", zap.Error(err))
		}
	}()
}

// reapLoop periodically reclaims decode state for connections that went
// quiet without closing. Flushed partial frames still reach the sink.
func (t *Tap) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(t.maxIdle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			for key, frames := range t.tracker.Reap(t.maxIdle) {
				t.log.Info("Reaped idle connection",
					zap.String("conn", key.String()),
					zap.Int("flushedFrames", len(frames)))

				recordFrames(ctx, t.sink, key, frames, t.log)
			}
		}
	}
}

// Close stops all listeners and flushes every tracked connection.
func (t *Tap) Close() error {
	t.log.Info("Stopping tap")
	t.cancel()

	var err error
	for _, listener := range t.listeners {
		err = multierr.Append(err, listener.Close())
	}

	t.stopWaiter.Wait()

	// Anything still tracked ended without a clean close; flush it so
	// partial frames are reported, not dropped.
	for key, frames := range t.tracker.Reap(0) {
		recordFrames(context.Background(), t.sink, key, frames, t.log)
	}

	t.log.Info("Tap stopped")

	return err
}

type tapListener struct {
	ctx context.Context

	addr string
	log  *zap.Logger

	mu          sync.Mutex
	activeConns map[*tapConn]struct{}

	tracker   *Tracker
	sink      sink.Sink
	trace     bool
	reuseport bool
}

func newTapListener(
	ctx context.Context,
	addr string,
	useReuseport bool,
	tracker *Tracker,
	s sink.Sink,
	trace bool,
	log *zap.Logger,
) *tapListener {
	return &tapListener{
		ctx:         ctx,
		addr:        addr,
		reuseport:   useReuseport,
		activeConns: make(map[*tapConn]struct{}),
		tracker:     tracker,
		sink:        s,
		trace:       trace,
		log:         log,
	}
}

func (l *tapListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	for conn := range l.activeConns {
		err = multierr.Append(err, conn.Close())
		delete(l.activeConns, conn)
	}

	return err
}

func (l *tapListener) Listen() error {
	var (
		listener net.Listener
		err      error
	)

	if l.reuseport {
		listener, err = reuseport.Listen("tcp", l.addr)
	} else {
		listener, err = net.Listen("tcp", l.addr)
	}
	if err != nil {
		return err
	}

	defer listener.Close()

	var loopWaiter sync.WaitGroup

	go func() {
		<-l.ctx.Done()

		if err := listener.Close(); err != nil {
			l.log.Warn("Tap listener did not close cleanly", zap.Error(err))
		}
	}()

	for {
		select {
		case <-l.ctx.Done():
			l.log.Info("Stopped accepting new connections")
			loopWaiter.Wait()
			l.log.Info("Listener stopped")
			return nil

		default:
			conn, err := listener.Accept()
			if err != nil {
				netOpError := new(net.OpError)

				if errors.As(err, &netOpError) && netOpError.Unwrap().Error() == "use of closed network connection" {
					// The listener was closed while we were waiting
					// for new connections, that's fine.
					loopWaiter.Wait()
					return nil
				}

				return err
			}

			tapConn := newTapConn(l.ctx, conn, l.tracker, l.sink, l.trace, l.log.Named("conn"))
			l.addConn(tapConn)

			loopWaiter.Add(1)
			go func() {
				defer loopWaiter.Done()
				defer l.removeConn(tapConn)
				tapConn.ReadLoop()
			}()
		}
	}
}

func (l *tapListener) addConn(conn *tapConn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.activeConns[conn] = struct{}{}
}

func (l *tapListener) removeConn(conn *tapConn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.activeConns, conn)
}

type tapConn struct {
	ctx    context.Context
	cancel context.CancelFunc

	conn net.Conn
	key  ConnKey

	tracker *Tracker
	sink    sink.Sink
	trace   bool

	log *zap.Logger
}

func newTapConn(
	parentCtx context.Context,
	conn net.Conn,
	tracker *Tracker,
	s sink.Sink,
	trace bool,
	log *zap.Logger,
) *tapConn {
	ctx, cancel := context.WithCancel(parentCtx)
	key := KeyFromAddrs("tcp", conn.RemoteAddr(), conn.LocalAddr())

	return &tapConn{
		ctx:     ctx,
		cancel:  cancel,
		conn:    conn,
		key:     key,
		tracker: tracker,
		sink:    s,
		trace:   trace,
		log:     log.With(zap.String("conn", key.String())),
	}
}

func (c *tapConn) Close() error {
	c.cancel()
	return c.conn.Close()
}

// ReadLoop pulls captured bytes off the wire and through the decoder until
// the stream ends. Connection close flushes the session so a frame cut off
// mid-payload is reported as truncated instead of vanishing.
func (c *tapConn) ReadLoop() {
	defer func() {
		for _, frame := range c.tracker.CloseConn(c.key) {
			c.record(frame)
		}

		c.conn.Close()
		c.log.Info("Capture read loop exited")
	}()

	buf := make([]byte, readBufferSize)

	for {
		select {
		case <-c.ctx.Done():
			return

		default:
			n, err := c.conn.Read(buf)
			if n > 0 {
				for _, frame := range c.tracker.Feed(c.key, buf[:n]) {
					c.record(frame)
				}
			}

			if err != nil {
				if !errors.Is(err, io.EOF) && c.ctx.Err() == nil {
					c.log.Warn("Capture read failed", zap.Error(err))
				}

				return
			}
		}
	}
}

func (c *tapConn) record(frame protocol.Frame) {
	if c.trace {
		c.log.Info("Decoded frame",
			zap.String("verb", string(frame.GetVerb())),
			zap.Int64("start", frame.GetMeta().Start),
			zap.Int64("end", frame.GetMeta().End))
	}

	entry := &sink.Entry{
		Conn:       c.key.String(),
		Frame:      frame,
		CapturedAt: time.Now(),
	}

	if err := c.sink.Record(c.ctx, entry); err != nil {
		c.log.Warn("Failed to record frame", zap.Error(err))
	}
}

func recordFrames(
	ctx context.Context,
	s sink.Sink,
	key ConnKey,
	frames []protocol.Frame,
	log *zap.Logger,
) {
	for _, frame := range frames {
		entry := &sink.Entry{
			Conn:       key.String(),
			Frame:      frame,
			CapturedAt: time.Now(),
		}

		if err := s.Record(ctx, entry); err != nil {
			log.Warn("Failed to record flushed frame",
				zap.String("conn", key.String()),
				zap.Error(err))
		}
	}
}
