package protocol

import "fmt"

// Meta is the bookkeeping every decoded frame carries: where it sat in the
// stream, whether the stream ended before the frame did, and any diagnostic
// the decoder attached along the way.
type Meta struct {
	// Start and End are the absolute byte offsets the frame spanned,
	// half-open [Start, End), terminators included.
	Start int64
	End   int64

	// Truncated marks a frame flushed at connection close with fewer
	// payload bytes than its command line declared.
	Truncated bool

	// Note carries a human readable diagnostic for malformed input.
	Note string
}

type Frame interface {
	GetVerb() Verb
	GetMeta() Meta

	// metaRef lets the decoder stamp offsets and diagnostics while the
	// frame is still under construction. Outside this package a frame is
	// immutable.
	metaRef() *Meta
}

type InfoFrame struct {
	meta    Meta
	Options *Payload
}

func (f *InfoFrame) GetVerb() Verb  { return INFO }
func (f *InfoFrame) GetMeta() Meta  { return f.meta }
func (f *InfoFrame) metaRef() *Meta { return &f.meta }

func (f *InfoFrame) String() string {
	return fmt.Sprintf("INFO options=%s", f.Options.Summary())
}

type ConnectFrame struct {
	meta    Meta
	Options *Payload
}

func (f *ConnectFrame) GetVerb() Verb  { return CONNECT }
func (f *ConnectFrame) GetMeta() Meta  { return f.meta }
func (f *ConnectFrame) metaRef() *Meta { return &f.meta }

func (f *ConnectFrame) String() string {
	return fmt.Sprintf("CONNECT options=%s", f.Options.Summary())
}

type PubFrame struct {
	meta        Meta
	Subject     string
	ReplyTo     string
	PayloadSize int
	Payload     *Payload
}

func (f *PubFrame) GetVerb() Verb  { return PUB }
func (f *PubFrame) GetMeta() Meta  { return f.meta }
func (f *PubFrame) metaRef() *Meta { return &f.meta }

func (f *PubFrame) String() string {
	return fmt.Sprintf("PUB subject=%s replyTo=%s bytes=%d", f.Subject, f.ReplyTo, f.PayloadSize)
}

type HpubFrame struct {
	meta       Meta
	Subject    string
	ReplyTo    string
	HeaderSize int
	TotalSize  int
	Headers    *HeaderBlock
	Payload    *Payload
}

func (f *HpubFrame) GetVerb() Verb  { return HPUB }
func (f *HpubFrame) GetMeta() Meta  { return f.meta }
func (f *HpubFrame) metaRef() *Meta { return &f.meta }

func (f *HpubFrame) String() string {
	return fmt.Sprintf("HPUB subject=%s replyTo=%s headerBytes=%d totalBytes=%d",
		f.Subject, f.ReplyTo, f.HeaderSize, f.TotalSize)
}

type SubFrame struct {
	meta       Meta
	Subject    string
	QueueGroup string
	Sid        string
}

func (f *SubFrame) GetVerb() Verb  { return SUB }
func (f *SubFrame) GetMeta() Meta  { return f.meta }
func (f *SubFrame) metaRef() *Meta { return &f.meta }

func (f *SubFrame) String() string {
	return fmt.Sprintf("SUB subject=%s queueGroup=%s sid=%s", f.Subject, f.QueueGroup, f.Sid)
}

type UnsubFrame struct {
	meta       Meta
	Sid        string
	MaxMsgs    int
	HasMaxMsgs bool
}

func (f *UnsubFrame) GetVerb() Verb  { return UNSUB }
func (f *UnsubFrame) GetMeta() Meta  { return f.meta }
func (f *UnsubFrame) metaRef() *Meta { return &f.meta }

func (f *UnsubFrame) String() string {
	if f.HasMaxMsgs {
		return fmt.Sprintf("UNSUB sid=%s maxMsgs=%d", f.Sid, f.MaxMsgs)
	}
	return fmt.Sprintf("UNSUB sid=%s", f.Sid)
}

type MsgFrame struct {
	meta        Meta
	Subject     string
	Sid         string
	ReplyTo     string
	PayloadSize int
	Payload     *Payload
}

func (f *MsgFrame) GetVerb() Verb  { return MSG }
func (f *MsgFrame) GetMeta() Meta  { return f.meta }
func (f *MsgFrame) metaRef() *Meta { return &f.meta }

func (f *MsgFrame) String() string {
	return fmt.Sprintf("MSG subject=%s sid=%s replyTo=%s bytes=%d",
		f.Subject, f.Sid, f.ReplyTo, f.PayloadSize)
}

type HmsgFrame struct {
	meta       Meta
	Subject    string
	Sid        string
	ReplyTo    string
	HeaderSize int
	TotalSize  int
	Headers    *HeaderBlock
	Payload    *Payload
}

func (f *HmsgFrame) GetVerb() Verb  { return HMSG }
func (f *HmsgFrame) GetMeta() Meta  { return f.meta }
func (f *HmsgFrame) metaRef() *Meta { return &f.meta }

func (f *HmsgFrame) String() string {
	return fmt.Sprintf("HMSG subject=%s sid=%s replyTo=%s headerBytes=%d totalBytes=%d",
		f.Subject, f.Sid, f.ReplyTo, f.HeaderSize, f.TotalSize)
}

type PingFrame struct {
	meta Meta
}

func (f *PingFrame) GetVerb() Verb  { return PING }
func (f *PingFrame) GetMeta() Meta  { return f.meta }
func (f *PingFrame) metaRef() *Meta { return &f.meta }
func (f *PingFrame) String() string { return "PING" }

type PongFrame struct {
	meta Meta
}

func (f *PongFrame) GetVerb() Verb  { return PONG }
func (f *PongFrame) GetMeta() Meta  { return f.meta }
func (f *PongFrame) metaRef() *Meta { return &f.meta }
func (f *PongFrame) String() string { return "PONG" }

type OkFrame struct {
	meta Meta
}

func (f *OkFrame) GetVerb() Verb  { return OK }
func (f *OkFrame) GetMeta() Meta  { return f.meta }
func (f *OkFrame) metaRef() *Meta { return &f.meta }
func (f *OkFrame) String() string { return "+OK" }

type ErrFrame struct {
	meta      Meta
	ErrorText string
}

func (f *ErrFrame) GetVerb() Verb  { return ERR }
func (f *ErrFrame) GetMeta() Meta  { return f.meta }
func (f *ErrFrame) metaRef() *Meta { return &f.meta }

func (f *ErrFrame) String() string {
	return fmt.Sprintf("-ERR %s", f.ErrorText)
}

// UnknownFrame preserves input the decoder could not make sense of: an
// unrecognized verb, a recognized verb with the wrong token count, or a
// partial line flushed at connection close. Raw holds the line verbatim.
type UnknownFrame struct {
	meta Meta
	Raw  []byte
}

func (f *UnknownFrame) GetVerb() Verb  { return UNKNOWN }
func (f *UnknownFrame) GetMeta() Meta  { return f.meta }
func (f *UnknownFrame) metaRef() *Meta { return &f.meta }

func (f *UnknownFrame) String() string {
	return fmt.Sprintf("UNKNOWN raw=%q note=%q", f.Raw, f.meta.Note)
}

var _ Frame = (*InfoFrame)(nil)
var _ Frame = (*ConnectFrame)(nil)
var _ Frame = (*PubFrame)(nil)
var _ Frame = (*HpubFrame)(nil)
var _ Frame = (*SubFrame)(nil)
var _ Frame = (*UnsubFrame)(nil)
var _ Frame = (*MsgFrame)(nil)
var _ Frame = (*HmsgFrame)(nil)
var _ Frame = (*PingFrame)(nil)
var _ Frame = (*PongFrame)(nil)
var _ Frame = (*OkFrame)(nil)
var _ Frame = (*ErrFrame)(nil)
var _ Frame = (*UnknownFrame)(nil)
