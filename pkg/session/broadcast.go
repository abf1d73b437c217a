package session

import (
	"github.com/StoreStation/tilehaven/pkg/chat"
	"github.com/StoreStation/tilehaven/pkg/protocol"
)

// textChannel and packetChannel are the transport channels used for
// key|value text payloads and binary GamePackets respectively. Channel 0
// is reliable ordered, used for everything the spec treats as a game
// event.
const (
	textChannel   byte = 0
	packetChannel byte = 0
)

// sendTo delivers msg to a single session, silently dropping it if the
// peer has since disappeared (spec §5 "Any send to a disappeared peer is
// silently dropped").
func (c *Core) sendTo(s *Session, msg *chat.Message) {
	_ = c.transport.Send(s.PeerID, []byte(msg.String()), textChannel)
}

// sendPacketTo delivers a binary GamePacket to a single session.
func (c *Core) sendPacketTo(s *Session, pkt *protocol.GamePacket) {
	data, err := pkt.Encode()
	if err != nil {
		return
	}
	_ = c.transport.Send(s.PeerID, data, packetChannel)
}

// broadcastWorld implements the broadcast primitive (spec §4.6.5): every
// peer whose current world equals worldName receives msg. sender is the
// originating peer id (-1 if none); it is always exempt from its own
// hidden-players filter (spec §4.6.5: "a peer that has hidden others
// still receives their own events"). broadcastWorldFiltered's
// excludeSender additionally drops the sender from delivery entirely, for
// events like movement that are rebroadcast to everyone but the mover.
func (c *Core) broadcastWorld(worldName string, msg *chat.Message, sender int64) {
	c.broadcastWorldFiltered(worldName, msg, sender, false)
}

func (c *Core) broadcastWorldFiltered(worldName string, msg *chat.Message, sender int64, excludeSender bool) {
	payload := []byte(msg.String())
	for _, s := range c.sessions {
		if !c.shouldReceive(s, worldName, sender, excludeSender) {
			continue
		}
		_ = c.transport.Send(s.PeerID, payload, textChannel)
	}
}

// broadcastPacketWorld is broadcastWorldFiltered for binary GamePackets.
func (c *Core) broadcastPacketWorld(worldName string, pkt *protocol.GamePacket, sender int64, excludeSender bool) {
	data, err := pkt.Encode()
	if err != nil {
		return
	}
	for _, s := range c.sessions {
		if !c.shouldReceive(s, worldName, sender, excludeSender) {
			continue
		}
		_ = c.transport.Send(s.PeerID, data, packetChannel)
	}
}

// shouldReceive applies co-location, sender-exclusion, and hidden-players
// rules (spec §4.6.5).
func (c *Core) shouldReceive(s *Session, worldName string, sender int64, excludeSender bool) bool {
	if s.WorldName != worldName {
		return false
	}
	isSender := sender >= 0 && int64(s.PeerID) == sender
	if excludeSender && isSender {
		return false
	}
	if s.HiddenPlayers && !isSender {
		return false
	}
	return true
}

// coOccupants returns every other session currently in the same world as
// s.
func (c *Core) coOccupants(s *Session) []*Session {
	var out []*Session
	for _, other := range c.sessions {
		if other.PeerID == s.PeerID {
			continue
		}
		if other.WorldName == s.WorldName {
			out = append(out, other)
		}
	}
	return out
}
