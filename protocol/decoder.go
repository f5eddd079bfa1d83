package protocol

import (
	"bytes"
	"fmt"
)

var crlf = []byte("\r\n")

type decodeState int

const (
	// awaitingCommandLine scans buffered bytes for the next `\r\n`.
	awaitingCommandLine decodeState = iota

	// awaitingPayload consumes exactly the byte count the previous command
	// line declared, plus the trailing terminator.
	awaitingPayload
)

// Decoder is the per-connection state machine. It owns the unconsumed tail
// of the stream between calls so that frames split across chunks decode the
// same as frames delivered whole. One Decoder per connection, fed in strict
// arrival order; it never blocks, it just returns fewer frames.
type Decoder struct {
	buf    []byte
	offset int64
	state  decodeState

	pending     Frame
	pendingSpec payloadSpec
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Buffered reports how many unconsumed bytes the decoder is holding.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Offset reports how many stream bytes the decoder has been fed in total,
// consumed or not.
func (d *Decoder) Offset() int64 {
	return d.offset + int64(len(d.buf))
}

// Decode appends a newly arrived chunk and returns every frame that
// completes. An empty result is NeedMoreData: the buffered bytes end
// mid-frame, and the caller should come back with the next chunk.
func (d *Decoder) Decode(chunk []byte) []Frame {
	d.buf = append(d.buf, chunk...)

	var frames []Frame

	for {
		switch d.state {
		case awaitingCommandLine:
			end := bytes.Index(d.buf, crlf)
			if end < 0 {
				return frames
			}

			start := d.offset
			line := d.buf[:end]
			frame, spec := buildFrame(line, Tokenize(line))
			d.consume(end + len(crlf))

			if spec != nil {
				frame.metaRef().Start = start
				d.pending = frame
				d.pendingSpec = *spec
				d.state = awaitingPayload
				continue
			}

			meta := frame.metaRef()
			meta.Start = start
			meta.End = d.offset
			frames = append(frames, frame)

		case awaitingPayload:
			need := d.pendingSpec.total + len(crlf)
			if len(d.buf) < need {
				return frames
			}

			payload := append([]byte(nil), d.buf[:d.pendingSpec.total]...)
			terminator := d.buf[d.pendingSpec.total:need]

			frame := d.pending
			if !bytes.Equal(terminator, crlf) {
				frame.metaRef().Note = fmt.Sprintf(
					"payload not followed by CRLF (got %q)", terminator)
			}

			d.consume(need)

			attachPayload(frame, d.pendingSpec, payload)
			frame.metaRef().End = d.offset
			frames = append(frames, frame)

			d.pending = nil
			d.state = awaitingCommandLine
		}
	}
}

// Flush ends the stream. Any pending partial frame comes out marked
// truncated with whatever bytes were available; nothing is fabricated and
// nothing is silently dropped.
func (d *Decoder) Flush() []Frame {
	var frames []Frame

	switch d.state {
	case awaitingPayload:
		frame := d.pending
		available := append([]byte(nil), d.buf...)
		if len(available) > d.pendingSpec.total {
			available = available[:d.pendingSpec.total]
		}

		meta := frame.metaRef()
		meta.Truncated = true
		meta.End = d.offset + int64(len(available))
		meta.Note = fmt.Sprintf("stream ended with %d of %d declared payload bytes",
			len(available), d.pendingSpec.total)

		attachPartialPayload(frame, d.pendingSpec, available)
		frames = append(frames, frame)

	case awaitingCommandLine:
		if len(d.buf) > 0 {
			frame := unknownFrame(d.buf, "stream ended mid-line")
			frame.meta.Start = d.offset
			frame.meta.End = d.offset + int64(len(d.buf))
			frame.meta.Truncated = true
			frames = append(frames, frame)
		}
	}

	d.buf = nil
	d.pending = nil
	d.state = awaitingCommandLine

	return frames
}

func (d *Decoder) consume(n int) {
	d.buf = d.buf[n:]
	d.offset += int64(n)

	if len(d.buf) == 0 {
		// Drop the backing array so retained chunks do not pin memory.
		d.buf = nil
	}
}

// attachPayload routes a fully consumed payload into its frame. H-verbs
// split off the declared header block first; everything else classifies
// the whole span.
func attachPayload(frame Frame, spec payloadSpec, payload []byte) {
	switch f := frame.(type) {
	case *PubFrame:
		f.Payload = ClassifyPayload(payload)

	case *MsgFrame:
		f.Payload = ClassifyPayload(payload)

	case *HpubFrame:
		f.Headers = ParseHeaderBlock(payload[:spec.header])
		f.Payload = ClassifyPayload(payload[spec.header:])

	case *HmsgFrame:
		f.Headers = ParseHeaderBlock(payload[:spec.header])
		f.Payload = ClassifyPayload(payload[spec.header:])
	}
}

// attachPartialPayload stores what arrived of a truncated payload without
// classification. The header block is still parsed when all of it made it.
func attachPartialPayload(frame Frame, spec payloadSpec, available []byte) {
	switch f := frame.(type) {
	case *PubFrame:
		f.Payload = &Payload{Raw: available}

	case *MsgFrame:
		f.Payload = &Payload{Raw: available}

	case *HpubFrame:
		if len(available) >= spec.header {
			f.Headers = ParseHeaderBlock(available[:spec.header])
			f.Payload = &Payload{Raw: available[spec.header:]}
		} else {
			f.Payload = &Payload{Raw: available}
		}

	case *HmsgFrame:
		if len(available) >= spec.header {
			f.Headers = ParseHeaderBlock(available[:spec.header])
			f.Payload = &Payload{Raw: available[spec.header:]}
		} else {
			f.Payload = &Payload{Raw: available}
		}
	}
}
