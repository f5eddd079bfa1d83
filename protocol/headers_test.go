package protocol_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/natscope/protocol"
)

var _ = Describe("ParseHeaderBlock", func() {
	It("keeps the status line whole", func() {
		hb := protocol.ParseHeaderBlock([]byte("NATS/1.0 503 No Responders\r\n\r\n"))
		Expect(hb.Status).To(Equal("NATS/1.0 503 No Responders"))
		Expect(hb.Fields).To(BeEmpty())
	})

	It("splits each field on its first colon only", func() {
		hb := protocol.ParseHeaderBlock([]byte("NATS/1.0\r\nNats-Msg-Id: a:b:c\r\n\r\n"))
		Expect(hb.Get("Nats-Msg-Id")).To(Equal("a:b:c"))
	})

	It("trims exactly one leading space from a value", func() {
		hb := protocol.ParseHeaderBlock([]byte("NATS/1.0\r\nA: x\r\nB:  y\r\nC:z\r\n\r\n"))
		Expect(hb.Get("A")).To(Equal("x"))
		Expect(hb.Get("B")).To(Equal(" y"))
		Expect(hb.Get("C")).To(Equal("z"))
	})

	It("preserves repeated names in arrival order", func() {
		hb := protocol.ParseHeaderBlock([]byte("NATS/1.0\r\nX: 1\r\nX: 2\r\nX: 3\r\n\r\n"))
		Expect(hb.Values("X")).To(Equal([]string{"1", "2", "3"}))
	})

	It("skips lines without a colon instead of failing", func() {
		hb := protocol.ParseHeaderBlock([]byte("NATS/1.0\r\nnot a header\r\nA: ok\r\n\r\n"))
		Expect(hb.Get("A")).To(Equal("ok"))
		Expect(hb.Fields).To(HaveLen(1))
	})

	It("treats header names case-sensitively", func() {
		hb := protocol.ParseHeaderBlock([]byte("NATS/1.0\r\nx: lower\r\nX: upper\r\n\r\n"))
		Expect(hb.Get("x")).To(Equal("lower"))
		Expect(hb.Get("X")).To(Equal("upper"))
	})

	It("returns the zero value for an absent name", func() {
		hb := protocol.ParseHeaderBlock([]byte("NATS/1.0\r\n\r\n"))
		Expect(hb.Get("Missing")).To(Equal(""))
		Expect(hb.Values("Missing")).To(BeNil())
	})
})
