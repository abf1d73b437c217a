package session

import (
	"strconv"

	"github.com/StoreStation/tilehaven/pkg/chat"
	"github.com/StoreStation/tilehaven/pkg/protocol"
	"github.com/StoreStation/tilehaven/pkg/world"
)

// swingFlags are the peer_state bits that indicate a punch/swing against an
// NPC (spec §4.6.4: "bits 0x100, 0x800, or 0x4000").
const swingFlags = 0x100 | 0x800 | 0x4000

// npcHitRange is the axis-aligned distance within which a swing damages an
// NPC (spec §4.6.4: "within 50 pixels on both axes").
const npcHitRange = 50

// npcSwingDamage is the fixed damage a swing deals to an NPC (spec §4.6.4:
// "subtract 5 from NPC health").
const npcSwingDamage = 5

// handleGamePacket dispatches a decoded binary packet to its handler (spec
// §4.6.1 "Type 4/10").
func (c *Core) handleGamePacket(peerID uint32, pkt *protocol.GamePacket) {
	s, ok := c.sessions[peerID]
	if !ok || s.WorldName == "" {
		return
	}

	switch pkt.PacketType {
	case protocol.PacketMove:
		c.handleMove(s, pkt)
	case protocol.PacketTileChange:
		c.handleTileChangePacket(s, pkt)
	case protocol.PacketEquip:
		c.handleEquip(s, pkt)
	case protocol.PacketDoorOrQuit:
		c.handleDoorOrQuit(s, pkt)
	}
}

// handleMove applies a movement update: record position, rebroadcast to
// co-located peers, then resolve any NPC swing damage (spec §4.6.4).
func (c *Core) handleMove(s *Session, pkt *protocol.GamePacket) {
	s.X, s.Y = pkt.PosX, pkt.PosY
	s.NetID = int32(s.PeerID)

	out := &protocol.GamePacket{
		PacketType: protocol.PacketMove,
		NetID:      s.NetID,
		PosX:       s.X,
		PosY:       s.Y,
		SpeedX:     pkt.SpeedX,
		SpeedY:     pkt.SpeedY,
		PeerState:  pkt.PeerState,
	}
	c.broadcastPacketWorld(s.WorldName, out, int64(s.PeerID), true)

	if pkt.PeerState&swingFlags == 0 {
		return
	}
	c.applyNpcSwing(s)
}

// applyNpcSwing damages every live NPC within range of s's current position
// (spec §4.6.4).
func (c *Core) applyNpcSwing(s *Session) {
	w, ok := c.worlds[s.WorldName]
	if !ok {
		return
	}

	for _, npc := range w.Npcs() {
		if abs32(npc.X-s.X) > npcHitRange || abs32(npc.Y-s.Y) > npcHitRange {
			continue
		}

		npc.Health -= npcSwingDamage
		npc.Name = "Boss `4(" + strconv.Itoa(int(npc.Health)) + "/" + strconv.Itoa(int(npc.MaxHealth)) + ")`"

		c.broadcastWorld(s.WorldName, chat.OnNameChanged(npc.NetID, npc.Name), -1)
		c.broadcastPacketWorld(s.WorldName, &protocol.GamePacket{
			PacketType: protocol.PacketVisualEffect,
			ID:         6,
			Count:      5,
			NetID:      npc.NetID,
		}, -1, false)
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// handleDoorOrQuit removes s from its world, at a door tile (packet type 7)
// or unconditionally for quit/quit_to_exit (spec §4.6.4).
func (c *Core) handleDoorOrQuit(s *Session, pkt *protocol.GamePacket) {
	tileX, tileY := int(s.X)/world.TileSize, int(s.Y)/world.TileSize
	w, ok := c.worlds[s.WorldName]
	if ok && w.Tile(tileX, tileY).FG != spawnTileID {
		return
	}
	c.leaveWorld(s)
}

// handleQuitAction is the text-action equivalent of handleDoorOrQuit,
// always leaving regardless of the peer's current tile (spec §4.6.4:
// "quit/quit_to_exit is the same without the door check").
func (c *Core) handleQuitAction(s *Session) {
	c.leaveWorld(s)
}

func (c *Core) leaveWorld(s *Session) {
	if s.WorldName == "" {
		return
	}
	c.broadcastWorldFiltered(s.WorldName, chat.OnRemove(s.NetID), int64(s.PeerID), true)
	s.WorldName = ""
	s.State = StateAtWorldSelect
	c.sendTo(s, chat.New("OnRequestWorldSelectMenu"))
}
