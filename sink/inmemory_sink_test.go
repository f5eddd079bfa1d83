package sink_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/tidwall/gjson"

	"github.com/luma/natscope/protocol"
	"github.com/luma/natscope/sink"
)

func entryFor(conn, wire string) *sink.Entry {
	d := protocol.NewDecoder()
	frames := d.Decode([]byte(wire))
	Expect(frames).To(HaveLen(1))

	return &sink.Entry{
		Conn:       conn,
		Frame:      frames[0],
		CapturedAt: time.Now(),
	}
}

var _ = Describe("sink / InmemorySink", func() {
	Describe("Close()", func() {
		It("does not panic when closed twice", func() {
			s := sink.NewInmemorySink(8)
			defer s.Close()

			Expect(func() { s.Close() }).NotTo(Panic())
			Expect(func() { s.Close() }).NotTo(Panic())
		})
	})

	It("an empty sink summarises to {}", func() {
		s := sink.NewInmemorySink(8)
		defer s.Close()

		summary, err := s.Summary()
		Expect(err).To(Succeed())
		Expect(string(summary)).To(Equal(`{}`))
	})

	Describe("Record()", func() {
		It("counts frames by verb and by connection", func() {
			s := sink.NewInmemorySink(8)
			defer s.Close()

			conn := "tcp/10.0.0.1:51000-10.0.0.2:4222"
			ctx := context.Background()

			Expect(s.Record(ctx, entryFor(conn, "PING\r\n"))).To(Succeed())
			Expect(s.Record(ctx, entryFor(conn, "PING\r\n"))).To(Succeed())
			Expect(s.Record(ctx, entryFor(conn, "PUB foo 5\r\nhello\r\n"))).To(Succeed())

			summary, err := s.Summary()
			Expect(err).To(Succeed())

			Expect(gjson.GetBytes(summary, "frames.total").Int()).To(Equal(int64(3)))
			Expect(gjson.GetBytes(summary, "frames.byVerb.PING").Int()).To(Equal(int64(2)))
			Expect(gjson.GetBytes(summary, "frames.byVerb.PUB").Int()).To(Equal(int64(1)))

			conns := gjson.GetBytes(summary, "connections")
			Expect(conns.Map()).To(HaveLen(1))
			conns.ForEach(func(_, counters gjson.Result) bool {
				Expect(counters.Get("frames").Int()).To(Equal(int64(3)))
				return true
			})
		})

		It("keeps only the most recent entries", func() {
			s := sink.NewInmemorySink(2)
			defer s.Close()

			ctx := context.Background()
			for i := 0; i < 5; i++ {
				wire := fmt.Sprintf("SUB subj.%d %d\r\n", i, i)
				Expect(s.Record(ctx, entryFor("c", wire))).To(Succeed())
			}

			recent := s.Recent(0)
			Expect(recent).To(HaveLen(2))
			Expect(recent[0].Frame.(*protocol.SubFrame).Sid).To(Equal("3"))
			Expect(recent[1].Frame.(*protocol.SubFrame).Sid).To(Equal("4"))
		})

		It("sends on the update channel when entries are recorded", func() {
			s := sink.NewInmemorySink(8)
			defer s.Close()

			updateChan := s.ListenToUpdates()

			entry := entryFor("c", "PONG\r\n")
			Expect(s.Record(context.Background(), entry)).To(Succeed())

			update, ok := <-updateChan
			Expect(ok).To(BeTrue())
			Expect(update).To(Equal(entry))
		})
	})
})
