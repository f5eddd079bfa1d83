package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrBadArity          = errors.New("Command has the wrong number of tokens for its verb")
	ErrBadSizeToken      = errors.New("Command declares a byte count that is not a number")
	ErrBadSizeValue      = errors.New("Command declares a byte count outside the decodable range")
	ErrHeaderExceedsSize = errors.New("Command declares more header bytes than total bytes")
)

// maxDeclaredSize caps the byte counts a command line may declare. A count
// beyond it cannot come from a real client and would wrap the consumption
// arithmetic once the line terminator is added.
const maxDeclaredSize = 1 << 30

// payloadSpec describes the byte-counted body a command line declared.
// total is what the decoder must consume from the stream before the trailing
// terminator; header is the leading portion forming a header block (0 for
// verbs without one).
type payloadSpec struct {
	total  int
	header int
}

// buildFrame turns one tokenized command line into a Frame, and reports the
// payload the stream owes for it, if any. It never fails: a recognized verb
// with a bad token count, or a size token that is not a number, degrades to
// an UnknownFrame annotated with what went wrong, and the stream continues
// at the next line.
func buildFrame(line []byte, tokens [][]byte) (Frame, *payloadSpec) {
	if len(tokens) == 0 {
		return unknownFrame(line, "blank command line"), nil
	}

	verb, ok := Verbs[string(tokens[0])]
	if !ok {
		return unknownFrame(line, fmt.Sprintf("unrecognized verb %q", tokens[0])), nil
	}

	n := len(tokens)

	switch verb {
	case INFO, CONNECT:
		// The options document rides on the command line itself, so there
		// is no byte-counted payload to wait for.
		var options *Payload
		if rest := restOfLine(line, tokens[0]); len(rest) > 0 {
			options = ClassifyPayload(rest)
		}

		if verb == INFO {
			return &InfoFrame{Options: options}, nil
		}

		return &ConnectFrame{Options: options}, nil

	case PUB:
		// PUB <subject> [reply-to] <#bytes>
		if n != 3 && n != 4 {
			return arityFrame(line, verb, n), nil
		}

		size, err := parseSize(tokens[n-1])
		if err != nil {
			return sizeFrame(line, verb, tokens[n-1], err), nil
		}

		frame := &PubFrame{Subject: string(tokens[1]), PayloadSize: size}
		if n == 4 {
			frame.ReplyTo = string(tokens[2])
		}

		return frame, &payloadSpec{total: size}

	case HPUB:
		// HPUB <subject> [reply-to] <#header bytes> <#total bytes>
		if n != 4 && n != 5 {
			return arityFrame(line, verb, n), nil
		}

		headerSize, err1 := parseSize(tokens[n-2])
		totalSize, err2 := parseSize(tokens[n-1])
		if err1 != nil {
			return sizeFrame(line, verb, tokens[n-2], err1), nil
		}
		if err2 != nil {
			return sizeFrame(line, verb, tokens[n-1], err2), nil
		}
		if headerSize > totalSize {
			return unknownFrame(line, fmt.Sprintf("%s: %v", verb, ErrHeaderExceedsSize)), nil
		}

		frame := &HpubFrame{
			Subject:    string(tokens[1]),
			HeaderSize: headerSize,
			TotalSize:  totalSize,
		}
		if n == 5 {
			frame.ReplyTo = string(tokens[2])
		}

		return frame, &payloadSpec{total: totalSize, header: headerSize}

	case SUB:
		// SUB <subject> [queue group] <sid>
		if n != 3 && n != 4 {
			return arityFrame(line, verb, n), nil
		}

		frame := &SubFrame{Subject: string(tokens[1])}
		if n == 4 {
			frame.QueueGroup = string(tokens[2])
			frame.Sid = string(tokens[3])
		} else {
			frame.Sid = string(tokens[2])
		}

		return frame, nil

	case UNSUB:
		// UNSUB <sid> [max_msgs]
		if n != 2 && n != 3 {
			return arityFrame(line, verb, n), nil
		}

		frame := &UnsubFrame{Sid: string(tokens[1])}
		if n == 3 {
			maxMsgs, err := strconv.Atoi(string(tokens[2]))
			if err != nil {
				return sizeFrame(line, verb, tokens[2], ErrBadSizeToken), nil
			}

			frame.MaxMsgs = maxMsgs
			frame.HasMaxMsgs = true
		}

		return frame, nil

	case MSG:
		// MSG <subject> <sid> [reply-to] <#bytes>
		if n < 4 || n > 6 {
			return arityFrame(line, verb, n), nil
		}

		size, err := parseSize(tokens[n-1])
		if err != nil {
			return sizeFrame(line, verb, tokens[n-1], err), nil
		}

		frame := &MsgFrame{
			Subject:     string(tokens[1]),
			Sid:         string(tokens[2]),
			PayloadSize: size,
		}
		if n >= 5 {
			frame.ReplyTo = string(tokens[3])
		}

		return frame, &payloadSpec{total: size}

	case HMSG:
		// HMSG <subject> <sid> [reply-to] <#header bytes> <#total bytes>
		if n < 5 || n > 7 {
			return arityFrame(line, verb, n), nil
		}

		headerSize, err1 := parseSize(tokens[n-2])
		totalSize, err2 := parseSize(tokens[n-1])
		if err1 != nil {
			return sizeFrame(line, verb, tokens[n-2], err1), nil
		}
		if err2 != nil {
			return sizeFrame(line, verb, tokens[n-1], err2), nil
		}
		if headerSize > totalSize {
			return unknownFrame(line, fmt.Sprintf("%s: %v", verb, ErrHeaderExceedsSize)), nil
		}

		frame := &HmsgFrame{
			Subject:    string(tokens[1]),
			Sid:        string(tokens[2]),
			HeaderSize: headerSize,
			TotalSize:  totalSize,
		}
		if n >= 6 {
			frame.ReplyTo = string(tokens[3])
		}

		return frame, &payloadSpec{total: totalSize, header: headerSize}

	case PING, PONG, OK:
		if n != 1 {
			return arityFrame(line, verb, n), nil
		}

		switch verb {
		case PING:
			return &PingFrame{}, nil
		case PONG:
			return &PongFrame{}, nil
		default:
			return &OkFrame{}, nil
		}

	case ERR:
		// -ERR <error message>; the message is everything after the verb
		// and one space, kept verbatim (quotes included).
		return &ErrFrame{ErrorText: string(restOfLine(line, tokens[0]))}, nil
	}

	return unknownFrame(line, fmt.Sprintf("unrecognized verb %q", tokens[0])), nil
}

// restOfLine returns the line content after the verb and a single separator
// character, without re-tokenizing it.
func restOfLine(line, verb []byte) []byte {
	rest := bytes.TrimLeft(line, " \t")
	rest = rest[len(verb):]
	if len(rest) > 0 && (rest[0] == ' ' || rest[0] == '\t') {
		rest = rest[1:]
	}

	return rest
}

func unknownFrame(line []byte, note string) *UnknownFrame {
	return &UnknownFrame{
		meta: Meta{Note: note},
		Raw:  append([]byte(nil), line...),
	}
}

func arityFrame(line []byte, verb Verb, n int) *UnknownFrame {
	return unknownFrame(line, fmt.Sprintf("%s with %d tokens: %v", verb, n, ErrBadArity))
}

// parseSize parses a declared byte count. The stream cannot owe fewer than
// zero bytes, so negative counts are rejected along with non-numeric ones.
func parseSize(token []byte) (int, error) {
	size, err := strconv.Atoi(string(token))
	if err != nil {
		return 0, ErrBadSizeToken
	}
	if size < 0 || size > maxDeclaredSize {
		return 0, ErrBadSizeValue
	}

	return size, nil
}

func sizeFrame(line []byte, verb Verb, token []byte, err error) *UnknownFrame {
	return unknownFrame(line, fmt.Sprintf("%s size token %q: %v", verb, token, err))
}
