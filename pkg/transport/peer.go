package transport

import (
	"net"
	"sync"
	"time"
)

// PeerState mirrors the subset of ENet peer states the core actually reads
// (spec §9: "the transport get_peer exposes many fields the core never
// reads; implement only what the core consumes").
type PeerState int

const (
	PeerConnecting PeerState = iota
	PeerConnected
	PeerDisconnecting
	PeerDisconnected
)

// PeerInfo is the read-only snapshot exposed to callers via Host.PeerInfo.
type PeerInfo struct {
	ID            uint32
	Addr          *net.UDPAddr
	State         PeerState
	RTTMillis     int64
	PacketsSent   uint64
	PacketsLost   uint64
	BytesSent     uint64
	BytesReceived uint64
}

// pendingPacket is an in-flight reliable send awaiting acknowledgement.
type pendingPacket struct {
	seq       uint32
	channel   byte
	data      []byte
	sentAt    time.Time
	attempts  int
}

// peer is the host's internal bookkeeping for one connection. Its mutable
// fields are guarded by the peer's own mu; the owning Host's mu guards only
// the peer table that holds it.
type peer struct {
	id    uint32
	addr  *net.UDPAddr
	state PeerState

	nextSeq      uint32
	lastSeenSeq  map[byte]uint32 // highest in-order seq seen per channel, for dedup
	pending      map[uint32]*pendingPacket
	disconnectAt time.Time // non-zero once a graceful/later disconnect is scheduled

	rtt           time.Duration
	packetsSent   uint64
	packetsLost   uint64
	bytesSent     uint64
	bytesReceived uint64

	mu sync.Mutex
}

func newPeer(id uint32, addr *net.UDPAddr) *peer {
	return &peer{
		id:          id,
		addr:        addr,
		state:       PeerConnecting,
		lastSeenSeq: make(map[byte]uint32),
		pending:     make(map[uint32]*pendingPacket),
	}
}

func (p *peer) info() PeerInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PeerInfo{
		ID:            p.id,
		Addr:          p.addr,
		State:         p.state,
		RTTMillis:     p.rtt.Milliseconds(),
		PacketsSent:   p.packetsSent,
		PacketsLost:   p.packetsLost,
		BytesSent:     p.bytesSent,
		BytesReceived: p.bytesReceived,
	}
}
