package protocol

import (
	"fmt"
	"io"
	"sort"
	"strconv"
)

var Terminal = []byte("\r\n")

// AppendFrame renders a frame back into its wire form, appending to dst.
// Header blocks are re-serialized from the parsed form, so a frame whose
// header block was malformed on the wire will not round-trip byte for byte.
// Unknown frames reproduce their raw line verbatim.
func AppendFrame(dst []byte, frame Frame) []byte {
	switch f := frame.(type) {
	case *InfoFrame:
		return appendOptionsLine(dst, "INFO", f.Options)

	case *ConnectFrame:
		return appendOptionsLine(dst, "CONNECT", f.Options)

	case *PubFrame:
		dst = append(dst, "PUB "...)
		dst = append(dst, f.Subject...)
		if f.ReplyTo != "" {
			dst = append(dst, ' ')
			dst = append(dst, f.ReplyTo...)
		}
		dst = append(dst, ' ')
		dst = strconv.AppendInt(dst, int64(len(rawBytes(f.Payload))), 10)
		dst = append(dst, Terminal...)
		dst = append(dst, rawBytes(f.Payload)...)
		return append(dst, Terminal...)

	case *MsgFrame:
		dst = append(dst, "MSG "...)
		dst = append(dst, f.Subject...)
		dst = append(dst, ' ')
		dst = append(dst, f.Sid...)
		if f.ReplyTo != "" {
			dst = append(dst, ' ')
			dst = append(dst, f.ReplyTo...)
		}
		dst = append(dst, ' ')
		dst = strconv.AppendInt(dst, int64(len(rawBytes(f.Payload))), 10)
		dst = append(dst, Terminal...)
		dst = append(dst, rawBytes(f.Payload)...)
		return append(dst, Terminal...)

	case *HpubFrame:
		headers := appendHeaderBlock(nil, f.Headers)
		payload := rawBytes(f.Payload)

		dst = append(dst, "HPUB "...)
		dst = append(dst, f.Subject...)
		if f.ReplyTo != "" {
			dst = append(dst, ' ')
			dst = append(dst, f.ReplyTo...)
		}
		dst = append(dst, ' ')
		dst = strconv.AppendInt(dst, int64(len(headers)), 10)
		dst = append(dst, ' ')
		dst = strconv.AppendInt(dst, int64(len(headers)+len(payload)), 10)
		dst = append(dst, Terminal...)
		dst = append(dst, headers...)
		dst = append(dst, payload...)
		return append(dst, Terminal...)

	case *HmsgFrame:
		headers := appendHeaderBlock(nil, f.Headers)
		payload := rawBytes(f.Payload)

		dst = append(dst, "HMSG "...)
		dst = append(dst, f.Subject...)
		dst = append(dst, ' ')
		dst = append(dst, f.Sid...)
		if f.ReplyTo != "" {
			dst = append(dst, ' ')
			dst = append(dst, f.ReplyTo...)
		}
		dst = append(dst, ' ')
		dst = strconv.AppendInt(dst, int64(len(headers)), 10)
		dst = append(dst, ' ')
		dst = strconv.AppendInt(dst, int64(len(headers)+len(payload)), 10)
		dst = append(dst, Terminal...)
		dst = append(dst, headers...)
		dst = append(dst, payload...)
		return append(dst, Terminal...)

	case *SubFrame:
		dst = append(dst, "SUB "...)
		dst = append(dst, f.Subject...)
		if f.QueueGroup != "" {
			dst = append(dst, ' ')
			dst = append(dst, f.QueueGroup...)
		}
		dst = append(dst, ' ')
		dst = append(dst, f.Sid...)
		return append(dst, Terminal...)

	case *UnsubFrame:
		dst = append(dst, "UNSUB "...)
		dst = append(dst, f.Sid...)
		if f.HasMaxMsgs {
			dst = append(dst, ' ')
			dst = strconv.AppendInt(dst, int64(f.MaxMsgs), 10)
		}
		return append(dst, Terminal...)

	case *PingFrame:
		return append(dst, "PING\r\n"...)

	case *PongFrame:
		return append(dst, "PONG\r\n"...)

	case *OkFrame:
		return append(dst, "+OK\r\n"...)

	case *ErrFrame:
		dst = append(dst, "-ERR "...)
		dst = append(dst, f.ErrorText...)
		return append(dst, Terminal...)

	case *UnknownFrame:
		dst = append(dst, f.Raw...)
		return append(dst, Terminal...)
	}

	return dst
}

// WriteFrame writes a frame's wire form to w.
func WriteFrame(w io.Writer, frame Frame) error {
	if _, err := w.Write(AppendFrame(nil, frame)); err != nil {
		return fmt.Errorf("Failed to write %s frame: %w", frame.GetVerb(), err)
	}

	return nil
}

func appendOptionsLine(dst []byte, verb string, options *Payload) []byte {
	dst = append(dst, verb...)
	if options != nil && len(options.Raw) > 0 {
		dst = append(dst, ' ')
		dst = append(dst, options.Raw...)
	}

	return append(dst, Terminal...)
}

func appendHeaderBlock(dst []byte, hb *HeaderBlock) []byte {
	status := "NATS/1.0"
	if hb != nil && hb.Status != "" {
		status = hb.Status
	}

	dst = append(dst, status...)
	dst = append(dst, Terminal...)

	if hb != nil {
		// Fields is a map, so impose a stable name order on output.
		names := make([]string, 0, len(hb.Fields))
		for name := range hb.Fields {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			for _, value := range hb.Fields[name] {
				dst = append(dst, name...)
				dst = append(dst, ": "...)
				dst = append(dst, value...)
				dst = append(dst, Terminal...)
			}
		}
	}

	return append(dst, Terminal...)
}

func rawBytes(p *Payload) []byte {
	if p == nil {
		return nil
	}

	return p.Raw
}
