package protocol

// This package implements decoding of the NATS client wire protocol as seen
// on a captured TCP byte stream. It is a passive decoder: it never speaks the
// protocol, it only reconstructs what a client and server said to each other.
//
// The decoder aims to be
//
// - correct for binary payloads (payload bytes are never scanned for delimiters)
// - incremental (a frame may arrive split across any number of chunks)
// - best-effort (malformed input degrades to annotated frames, never a dead stream)
//
// === Wire format
//
// - lines are `\r\n` delimited
// - a command is a single line starting with a case-sensitive verb
// - verbs that carry a payload declare its byte count on the command line;
//   the payload follows the line and is itself followed by one final `\r\n`
//
// The recognized verbs are
//
// - `INFO`/`CONNECT` - JSON options on the same line, not byte-counted
// - `PUB`/`MSG`      - `<subject> [reply-to] <#bytes>` then `<#bytes>` of payload
// - `HPUB`/`HMSG`    - as above plus `<#header bytes> <#total bytes>`; the first
//                      `<#header bytes>` of the payload form a header block
// - `SUB`            - `<subject> [queue group] <sid>`
// - `UNSUB`          - `<sid> [max_msgs]`
// - `PING`/`PONG`/`+OK` - bare keywords
// - `-ERR`           - the rest of the line is a human readable message
//
// Anything else decodes to an Unknown frame carrying the raw line.
//
// === Header blocks
//
// An H-verb payload opens with a header block
//
//   ```
//   NATS/1.0[ <status> <text>]\r\n
//   Name: Value\r\n
//   ...
//   \r\n
//   ```
//
// The first line is a status/version line, not a name/value pair. Repeated
// names keep every value in arrival order. Lines without a colon are skipped.
//
// === Incremental decoding
//
// A Decoder holds the unconsumed tail of the stream between calls. Feeding it
// a chunk yields every frame that completes; an empty result means the buffered
// bytes end mid-frame and more input is needed. That is the only suspension
// point. Command lines are found by scanning for `\r\n`; payload bytes are
// consumed by the declared count, because a payload may itself contain `\r\n`.
//
// One Decoder belongs to exactly one connection and must see that connection's
// bytes in arrival order. Decoders for different connections are independent
// and safe to drive from different goroutines.
