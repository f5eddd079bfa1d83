package protocol

type Verb string

const (
	INFO    Verb = "INFO"
	CONNECT Verb = "CONNECT"
	PUB     Verb = "PUB"
	HPUB    Verb = "HPUB"
	SUB     Verb = "SUB"
	UNSUB   Verb = "UNSUB"
	MSG     Verb = "MSG"
	HMSG    Verb = "HMSG"
	PING    Verb = "PING"
	PONG    Verb = "PONG"
	OK      Verb = "+OK"
	ERR     Verb = "-ERR"

	// UNKNOWN tags frames whose first token matched no verb, or whose
	// token count was outside the verb's valid range.
	UNKNOWN Verb = "UNKNOWN"
)

// Verbs is the recognized set, keyed by the exact case-sensitive keyword.
var Verbs = map[string]Verb{
	"INFO":    INFO,
	"CONNECT": CONNECT,
	"PUB":     PUB,
	"HPUB":    HPUB,
	"SUB":     SUB,
	"UNSUB":   UNSUB,
	"MSG":     MSG,
	"HMSG":    HMSG,
	"PING":    PING,
	"PONG":    PONG,
	"+OK":     OK,
	"-ERR":    ERR,
}
