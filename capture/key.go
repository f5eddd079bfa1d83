package capture

import (
	"fmt"
	"net"
	"strconv"
)

// ConnKey identifies one captured connection by its transport 5-tuple.
// All decode state is partitioned by this key.
type ConnKey struct {
	Proto   string
	SrcIP   string
	SrcPort int
	DstIP   string
	DstPort int
}

func (k ConnKey) String() string {
	return fmt.Sprintf("%s/%s:%d-%s:%d", k.Proto, k.SrcIP, k.SrcPort, k.DstIP, k.DstPort)
}

// KeyFromAddrs builds a ConnKey from a connection's endpoint addresses,
// source first.
func KeyFromAddrs(proto string, src, dst net.Addr) ConnKey {
	srcIP, srcPort := splitAddr(src)
	dstIP, dstPort := splitAddr(dst)

	return ConnKey{
		Proto:   proto,
		SrcIP:   srcIP,
		SrcPort: srcPort,
		DstIP:   dstIP,
		DstPort: dstPort,
	}
}

func splitAddr(addr net.Addr) (string, int) {
	if addr == nil {
		return "", 0
	}

	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), 0
	}

	port, _ := strconv.Atoi(portStr)

	return host, port
}
