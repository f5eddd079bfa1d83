package protocol_test

import (
	"bytes"
	"strconv"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/natscope/protocol"
)

var _ = Describe("AppendFrame", func() {
	roundTrip := func(wire string) {
		frames := decodeAll([]byte(wire))
		Expect(frames).To(HaveLen(1))

		var buf bytes.Buffer
		Expect(protocol.WriteFrame(&buf, frames[0])).To(Succeed())
		Expect(buf.String()).To(Equal(wire))
	}

	It("round-trips command-only frames", func() {
		roundTrip("PING\r\n")
		roundTrip("PONG\r\n")
		roundTrip("+OK\r\n")
		roundTrip("-ERR 'Stale Connection'\r\n")
		roundTrip("SUB foo.bar g1 5\r\n")
		roundTrip("UNSUB 17 20\r\n")
	})

	It("round-trips payload frames, binary content included", func() {
		roundTrip("PUB foo 7\r\nabc\r\nde\r\n")
		roundTrip("MSG foo 42 _INBOX.9 5\r\nworld\r\n")
	})

	It("round-trips INFO with its options line", func() {
		roundTrip(`INFO {"server_id":"abc"}` + "\r\n")
	})

	It("re-serializes header frames from the parsed block", func() {
		headers := "NATS/1.0\r\nA: 1\r\nA: 2\r\n\r\n"
		wire := []byte("HPUB subj " +
			strconv.Itoa(len(headers)) + " " + strconv.Itoa(len(headers)+2) + "\r\n" +
			headers + "hi\r\n")

		frames := decodeAll(wire)
		Expect(frames).To(HaveLen(1))
		Expect(protocol.AppendFrame(nil, frames[0])).To(Equal(wire))
	})
})
