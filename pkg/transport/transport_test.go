package transport

import (
	"encoding/binary"
	"hash/crc32"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustHost(t *testing.T, cfg Config) *Host {
	t.Helper()
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:0"
	}
	if cfg.PeerLimit == 0 {
		cfg.PeerLimit = 4
	}
	if cfg.ChannelLimit == 0 {
		cfg.ChannelLimit = 2
	}
	h, err := NewHost(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

// dialClient spins up a second Host and has it send a raw connect frame to
// serverAddr, exercising the same reliability layer as a real client would.
func dialClient(t *testing.T, serverAddr string) *Host {
	t.Helper()
	c := mustHost(t, Config{})

	remote, err := net.ResolveUDPAddr("udp", serverAddr)
	require.NoError(t, err)
	require.NoError(t, c.conn.SetWriteDeadline(time.Now().Add(time.Second)))

	frame := make([]byte, frameHeaderSize)
	frame[0] = flagConnect
	_, err = c.conn.WriteToUDP(frame, remote)
	require.NoError(t, err)
	return c
}

func TestConnectProducesEventOnServer(t *testing.T) {
	server := mustHost(t, Config{})
	client := dialClient(t, server.conn.LocalAddr().String())

	ev, ok := server.Service(time.Second)
	require.True(t, ok)
	require.Equal(t, EventConnect, ev.Kind)
	require.NotZero(t, ev.PeerID)

	// client also receives the peer-id assignment connect echo
	ev2, ok := client.Service(time.Second)
	require.True(t, ok)
	require.Equal(t, EventConnect, ev2.Kind)
}

func TestSendAndReceiveRoundTrip(t *testing.T) {
	server := mustHost(t, Config{})
	client := dialClient(t, server.conn.LocalAddr().String())

	ev, ok := server.Service(time.Second)
	require.True(t, ok)
	peerID := ev.PeerID
	_, _ = client.Service(time.Second) // drain the connect echo

	require.NoError(t, server.Send(peerID, []byte("hello"), 0))

	recv, ok := client.Service(time.Second)
	require.True(t, ok)
	require.Equal(t, EventReceive, recv.Kind)
	require.Equal(t, []byte("hello"), recv.Payload)
}

func TestSendWithCompressionAndChecksumRoundTrips(t *testing.T) {
	cfg := Config{Compress: true, Checksum: true}
	server := mustHost(t, cfg)
	client := dialClientWithCfg(t, server.conn.LocalAddr().String(), cfg)

	ev, ok := server.Service(time.Second)
	require.True(t, ok)
	peerID := ev.PeerID
	_, _ = client.Service(time.Second)

	payload := []byte("the quick brown fox jumps over the lazy dog, repeatedly, for compressibility")
	require.NoError(t, server.Send(peerID, payload, 1))

	recv, ok := client.Service(time.Second)
	require.True(t, ok)
	require.Equal(t, EventReceive, recv.Kind)
	require.Equal(t, payload, recv.Payload)
}

func TestDisconnectRemovesPeer(t *testing.T) {
	server := mustHost(t, Config{})
	_ = dialClient(t, server.conn.LocalAddr().String())

	ev, ok := server.Service(time.Second)
	require.True(t, ok)
	peerID := ev.PeerID

	require.NoError(t, server.DisconnectNow(peerID))
	_, found := server.PeerInfo(peerID)
	require.False(t, found)
}

func TestPeerLimitRejectsExtraConnections(t *testing.T) {
	server := mustHost(t, Config{PeerLimit: 1, ChannelLimit: 1})

	_ = dialClient(t, server.conn.LocalAddr().String())
	ev, ok := server.Service(time.Second)
	require.True(t, ok)
	require.Equal(t, EventConnect, ev.Kind)

	_ = dialClient(t, server.conn.LocalAddr().String())
	_, ok = server.Service(150 * time.Millisecond)
	require.False(t, ok)
}

func dialClientWithCfg(t *testing.T, serverAddr string, cfg Config) *Host {
	t.Helper()
	c := mustHost(t, cfg)

	remote, err := net.ResolveUDPAddr("udp", serverAddr)
	require.NoError(t, err)
	require.NoError(t, c.conn.SetWriteDeadline(time.Now().Add(time.Second)))

	frame := make([]byte, frameHeaderSize)
	frame[0] = flagConnect
	if cfg.Checksum {
		sum := crc32.ChecksumIEEE(frame)
		frame = append(frame, make([]byte, checksumSize)...)
		binary.LittleEndian.PutUint32(frame[frameHeaderSize:], sum)
	}
	_, err = c.conn.WriteToUDP(frame, remote)
	require.NoError(t, err)
	return c
}
