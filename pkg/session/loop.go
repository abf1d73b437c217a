package session

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/StoreStation/tilehaven/pkg/chat"
	"github.com/StoreStation/tilehaven/pkg/protocol"
	"github.com/StoreStation/tilehaven/pkg/transport"
)

// serviceTimeout bounds each Service poll (spec §4.6: "blocking up to ~1
// ms"). yieldDuration is the brief pause taken when no event arrived.
const (
	serviceTimeout = time.Millisecond
	yieldDuration  = time.Millisecond
)

// Run drives the single-threaded event loop until ctx is cancelled or Stop
// is called (spec §4.6, strict poll order: admin drain, transport service,
// NPC tick, yield).
func (c *Core) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		default:
		}

		c.drainAdmin()

		ev, ok := c.transport.Service(serviceTimeout)
		if ok {
			c.handleEvent(ev)
		}

		c.tickNpcs(time.Now())

		if !ok {
			time.Sleep(yieldDuration)
		}
	}
}

func (c *Core) handleEvent(ev transport.Event) {
	switch ev.Kind {
	case transport.EventConnect:
		c.sessions[ev.PeerID] = &Session{PeerID: ev.PeerID, State: StateUnknown}
	case transport.EventReceive:
		c.handlePayload(ev.PeerID, ev.Payload)
	case transport.EventDisconnect:
		c.handleDisconnectEvent(ev.PeerID)
	}
}

// handlePayload reads the leading type marker (spec §4.6.1) and dispatches
// to the text or binary handler.
func (c *Core) handlePayload(peerID uint32, payload []byte) {
	if len(payload) < 4 {
		return
	}
	marker := binary.LittleEndian.Uint32(payload[:4])
	switch marker {
	case 2, 3:
		c.handleText(peerID, string(payload[4:]))
	case 4, 10:
		pkt, err := protocol.Decode(payload)
		if err != nil {
			return
		}
		c.handleGamePacket(peerID, pkt)
	}
}

// handleDisconnectEvent reaps session state for a peer that dropped off
// the transport, announcing its departure to co-occupants.
func (c *Core) handleDisconnectEvent(peerID uint32) {
	s, ok := c.sessions[peerID]
	if !ok {
		return
	}
	if s.WorldName != "" {
		c.broadcastWorldFiltered(s.WorldName, chat.OnRemove(s.NetID), int64(peerID), true)
	}
	if s.Name != "" {
		delete(c.byName, s.Name)
	}
	delete(c.sessions, peerID)
}
