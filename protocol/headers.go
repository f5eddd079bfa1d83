package protocol

import "bytes"

// HeaderBlock is the parsed form of an H-verb header section.
type HeaderBlock struct {
	// Status is the first line of the block, e.g. "NATS/1.0" or
	// "NATS/1.0 503 No Responders". It is never a name/value pair.
	Status string

	// Fields maps a case-sensitive header name to its values in arrival
	// order. A present name always has at least one value.
	Fields map[string][]string
}

// ParseHeaderBlock decodes a header block. The first line is kept whole as
// the status line. Every further line splits on its first colon; a value
// loses one leading space if it has one. Lines without a colon are skipped
// rather than failing the block.
func ParseHeaderBlock(block []byte) *HeaderBlock {
	hb := &HeaderBlock{Fields: make(map[string][]string)}

	lines := bytes.Split(block, crlf)
	if len(lines) == 0 {
		return hb
	}

	hb.Status = string(lines[0])

	for _, line := range lines[1:] {
		if len(line) == 0 {
			continue
		}

		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			// Not a header line, skip it
			continue
		}

		name := string(line[:colon])
		value := line[colon+1:]
		if len(value) > 0 && value[0] == ' ' {
			value = value[1:]
		}

		hb.Fields[name] = append(hb.Fields[name], string(value))
	}

	return hb
}

// Get returns the first value for name, or "" when absent.
func (hb *HeaderBlock) Get(name string) string {
	if values, ok := hb.Fields[name]; ok {
		return values[0]
	}

	return ""
}

// Values returns every value recorded for name, in arrival order.
func (hb *HeaderBlock) Values(name string) []string {
	return hb.Fields[name]
}
