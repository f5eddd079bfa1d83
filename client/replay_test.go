package client_test

import (
	"bytes"
	"context"
	"io/ioutil"
	"net"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/luma/natscope/client"
	"github.com/luma/natscope/protocol"
)

// acceptOne returns everything written to the next accepted connection.
func acceptOne(listener net.Listener) <-chan []byte {
	received := make(chan []byte, 1)

	go func() {
		defer GinkgoRecover()

		conn, err := listener.Accept()
		Expect(err).To(Succeed())
		defer conn.Close()

		data, err := ioutil.ReadAll(conn)
		Expect(err).To(Succeed())
		received <- data
	}()

	return received
}

var _ = Describe("Replayer", func() {
	It("refuses to replay before connecting", func() {
		replayer := client.NewReplayer(zap.NewNop())
		_, err := replayer.Replay(context.Background(), bytes.NewReader([]byte("PING\r\n")))
		Expect(err).To(MatchError(client.ErrNotConnected))
	})

	It("streams a capture in chunks without altering it", func() {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).To(Succeed())
		defer listener.Close()

		received := acceptOne(listener)

		replayer := client.NewReplayer(zap.NewNop())
		replayer.ChunkSize = 3

		ctx := context.Background()
		Expect(replayer.Connect(ctx, listener.Addr().String())).To(Succeed())

		capture := []byte("PUB foo 5\r\nhello\r\nPING\r\n")
		sent, err := replayer.Replay(ctx, bytes.NewReader(capture))
		Expect(err).To(Succeed())
		Expect(sent).To(Equal(int64(len(capture))))
		Expect(replayer.Close()).To(Succeed())

		Expect(<-received).To(Equal(capture))
	})

	It("renders frames back to wire form", func() {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).To(Succeed())
		defer listener.Close()

		received := acceptOne(listener)

		replayer := client.NewReplayer(zap.NewNop())

		ctx := context.Background()
		Expect(replayer.Connect(ctx, listener.Addr().String())).To(Succeed())

		frames := protocol.NewDecoder().Decode([]byte("SUB foo.bar 5\r\n"))
		Expect(frames).To(HaveLen(1))

		_, err = replayer.ReplayFrames(ctx, frames)
		Expect(err).To(Succeed())
		Expect(replayer.Close()).To(Succeed())

		Expect(<-received).To(Equal([]byte("SUB foo.bar 5\r\n")))
	})
})
