package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/luma/natscope/protocol"
)

const DefaultChunkSize = 1024

var ErrNotConnected = errors.New("Replayer is not connected to a tap")

// Replayer feeds a recorded NATS byte stream into a tap over TCP, so the
// decoders can be exercised without live traffic. Chunking is deliberate:
// replaying in small pieces recreates the mid-frame splits real captures
// produce.
type Replayer struct {
	conn net.Conn

	// ChunkSize bounds how many bytes go out per write.
	ChunkSize int

	// Delay is an optional pause between chunks, to pace a replay.
	Delay time.Duration

	log *zap.Logger
}

func NewReplayer(log *zap.Logger) *Replayer {
	return &Replayer{
		ChunkSize: DefaultChunkSize,
		log:       log,
	}
}

func (r *Replayer) Connect(ctx context.Context, addr string) error {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	r.conn = conn
	r.log.Info("Connected to tap", zap.String("addr", addr))

	return nil
}

func (r *Replayer) Close() error {
	if r.conn == nil {
		return nil
	}

	return r.conn.Close()
}

// Replay streams everything from src to the tap in ChunkSize pieces,
// returning the byte count sent.
func (r *Replayer) Replay(ctx context.Context, src io.Reader) (int64, error) {
	if r.conn == nil {
		return 0, ErrNotConnected
	}

	chunkSize := r.ChunkSize
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}

	var sent int64
	buf := make([]byte, chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		n, err := src.Read(buf)
		if n > 0 {
			written, werr := r.conn.Write(buf[:n])
			sent += int64(written)
			if werr != nil {
				return sent, werr
			}

			if r.Delay > 0 {
				select {
				case <-ctx.Done():
					return sent, ctx.Err()
				case <-time.After(r.Delay):
				}
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return sent, nil
			}

			return sent, err
		}
	}
}

// ReplayFrames renders frames back to wire form and sends them.
func (r *Replayer) ReplayFrames(ctx context.Context, frames []protocol.Frame) (int64, error) {
	if r.conn == nil {
		return 0, ErrNotConnected
	}

	var wire []byte
	for _, frame := range frames {
		wire = protocol.AppendFrame(wire, frame)
	}

	return r.Replay(ctx, bytes.NewReader(wire))
}
