package protocol_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/natscope/protocol"
)

var _ = Describe("ClassifyPayload", func() {
	It("leaves non-JSON bytes alone with no decode attempt", func() {
		p := protocol.ClassifyPayload([]byte("plain text"))
		Expect(p.Raw).To(Equal([]byte("plain text")))
		Expect(p.IsJSON()).To(BeFalse())
		Expect(p.DecodeErr).To(Equal(""))
	})

	It("decodes an object, preserving member order", func() {
		p := protocol.ClassifyPayload([]byte(`{"b":1,"a":2}`))
		Expect(p.IsJSON()).To(BeTrue())
		Expect(p.JSON.Kind).To(Equal(protocol.JSONObject))
		Expect(p.JSON.Fields).To(HaveLen(2))
		Expect(p.JSON.Fields[0].Name).To(Equal("b"))
		Expect(p.JSON.Fields[1].Name).To(Equal("a"))
	})

	It("decodes arrays and nested values", func() {
		p := protocol.ClassifyPayload([]byte(`[1,"two",null,{"ok":true}]`))
		Expect(p.IsJSON()).To(BeTrue())
		Expect(p.JSON.Kind).To(Equal(protocol.JSONArray))
		Expect(p.JSON.Items).To(HaveLen(4))
		Expect(p.JSON.Items[0].Kind).To(Equal(protocol.JSONNumber))
		Expect(p.JSON.Items[0].Number).To(Equal(float64(1)))
		Expect(p.JSON.Items[1].Kind).To(Equal(protocol.JSONString))
		Expect(p.JSON.Items[1].Str).To(Equal("two"))
		Expect(p.JSON.Items[2].Kind).To(Equal(protocol.JSONNull))
		Expect(p.JSON.Items[3].Lookup("ok").Bool).To(BeTrue())
	})

	It("skips leading whitespace before classifying", func() {
		p := protocol.ClassifyPayload([]byte("  \t{\"a\":1}"))
		Expect(p.IsJSON()).To(BeTrue())
	})

	It("keeps the original bytes and a complaint when JSON-shaped input fails", func() {
		raw := []byte(`{"answer":}`)
		p := protocol.ClassifyPayload(raw)
		Expect(p.IsJSON()).To(BeFalse())
		Expect(p.Raw).To(Equal(raw))
		Expect(p.DecodeErr).To(ContainSubstring("invalid JSON"))
	})

	It("does not treat a bare number as a JSON candidate", func() {
		p := protocol.ClassifyPayload([]byte("12345"))
		Expect(p.IsJSON()).To(BeFalse())
		Expect(p.DecodeErr).To(Equal(""))
	})

	It("handles the empty span", func() {
		p := protocol.ClassifyPayload(nil)
		Expect(p.IsJSON()).To(BeFalse())
		Expect(p.Raw).To(BeEmpty())
	})
})
