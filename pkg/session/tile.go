package session

import (
	"strconv"

	"github.com/StoreStation/tilehaven/pkg/chat"
	"github.com/StoreStation/tilehaven/pkg/player"
	"github.com/StoreStation/tilehaven/pkg/protocol"
	"github.com/StoreStation/tilehaven/pkg/world"
)

// bypassOwnership are item ids allowed to act on a tile regardless of world
// ownership (spec §4.6.4: "fist, pick, door, bedrock — ids 18, 32, 6, 8").
var bypassOwnership = map[int32]struct{}{18: {}, 32: {}, 6: {}, 8: {}}

// handleTileChangePacket is a binary packet type 3 with punch_x != -1: a
// tile interaction (spec §4.6.4).
func (c *Core) handleTileChangePacket(s *Session, pkt *protocol.GamePacket) {
	if pkt.PunchX == -1 {
		return
	}

	heldItem := pkt.ID
	if heldItem == 0 {
		heldItem = 18
	}

	tileX := int(pkt.PunchX) / world.TileSize
	tileY := int(pkt.PunchY) / world.TileSize

	c.sendPunchEffects(s, heldItem)

	if _, bypass := bypassOwnership[heldItem]; !bypass && s.Player.SlotCount(heldItem) == 0 {
		return
	}

	w, ok := c.worlds[s.WorldName]
	if !ok {
		return
	}

	outcome := world.HandleTileChange(w, c.catalog, tileX, tileY, heldItem, s.Name, int32(s.PeerID))
	c.broadcastTileOutcome(s, pkt, outcome, false)
	c.applyPunchRadius(s, pkt, w, tileX, tileY)
}

// sendPunchEffects broadcasts the particle/audio punch visual for heldItem,
// sourced from s's current position rather than the targeted tile (spec
// §4.6.4).
func (c *Core) sendPunchEffects(s *Session, heldItem int32) {
	cfg := c.catalog.Get(heldItem)
	if len(cfg.PunchOptions) == 0 {
		return
	}
	m := chat.New("OnPunchEffect").
		Set("netID", strconv.Itoa(int(s.NetID))).
		Set("posXY", strconv.Itoa(int(s.X))+"|"+strconv.Itoa(int(s.Y)))
	for k, v := range cfg.PunchOptions {
		m.Set(k, v)
	}
	c.broadcastWorld(s.WorldName, m, -1)
}

// broadcastTileOutcome announces the state-machine result of a tile
// interaction and awards farming XP (spec §4.6.4). secondary marks an
// outcome produced by the punch-radius step rather than the primary punch,
// which the level-up announcement formats differently (spec §9).
func (c *Core) broadcastTileOutcome(s *Session, pkt *protocol.GamePacket, outcome world.Outcome, secondary bool) {
	switch outcome.Kind {
	case world.Damaged:
		c.broadcastPacketWorld(s.WorldName, &protocol.GamePacket{
			PacketType: protocol.PacketVisualEffect,
			ID:         6,
			Count:      float32(outcome.Hits),
			NetID:      s.NetID,
			PosX:       float32(pkt.PunchX),
			PosY:       float32(pkt.PunchY),
		}, -1, false)

	case world.BrokeFG, world.BrokeBG:
		c.broadcastPacketWorld(s.WorldName, &protocol.GamePacket{
			PacketType: protocol.PacketVisualEffect,
			ID:         6,
			Count:      float32(outcome.Hits),
			NetID:      s.NetID,
			PosX:       float32(pkt.PunchX),
			PosY:       float32(pkt.PunchY),
		}, -1, false)
		c.broadcastPacketWorld(s.WorldName, pkt, -1, false)
		c.awardFarmXP(s, outcome.ID, secondary)

	case world.PlacedFG, world.PlacedBG:
		s.Player.AddSlot(int32(outcome.ID), -1)
		c.persistPlayer(s.Player)
		c.broadcastPacketWorld(s.WorldName, pkt, -1, false)
		c.sendTo(s, chat.New("OnRefreshItemData").
			Set("itemID", strconv.Itoa(int(outcome.ID))).
			Set("count", strconv.Itoa(int(s.Player.SlotCount(int32(outcome.ID))))))
	}
}

// awardFarmXP credits farmer XP for breaking a farmable block and handles
// the level-up announcement. The primary punch path announces with a talk
// bubble; the punch-radius path uses a plain console line instead — both
// are intentional (spec §9 "Preserve both paths").
func (c *Core) awardFarmXP(s *Session, brokenID uint16, secondary bool) {
	xp, ok := player.FarmXP(int32(brokenID))
	if !ok {
		return
	}
	p := s.Player
	p.FarmerXP += xp

	if p.FarmerLvl < 200 && p.FarmerXP >= player.RequiredXP(p.FarmerLvl) {
		p.FarmerXP = 0
		p.FarmerLvl++
		c.broadcastPacketWorld(s.WorldName, &protocol.GamePacket{
			PacketType: protocol.PacketVisualEffect,
			ID:         1,
			NetID:      s.NetID,
			PosX:       s.X,
			PosY:       s.Y,
		}, -1, false)

		title, hasTitle := player.MilestoneTitle(p.FarmerLvl)
		suffix := ""
		if hasTitle {
			suffix = " (" + title + ")"
		}

		if secondary {
			c.broadcastWorld(s.WorldName, chat.ConsoleMessage(
				s.Name+" reached farmer level "+strconv.Itoa(int(p.FarmerLvl))+suffix+"."), -1)
		} else {
			c.broadcastWorld(s.WorldName, chat.TalkBubble(s.NetID,
				s.Name+" leveled up to farmer level "+strconv.Itoa(int(p.FarmerLvl))+suffix+"!"), -1)
		}
	}

	c.persistPlayer(p)
}

// applyPunchRadius steps outward from the punched tile applying the hand
// item's secondary punch_effect, if any (spec §4.6.4 "punch radius
// effects").
func (c *Core) applyPunchRadius(s *Session, pkt *protocol.GamePacket, w *world.World, tileX, tileY int) {
	heldItem := pkt.ID
	if heldItem == 0 {
		heldItem = 18
	}
	equipCfg := c.catalog.Get(s.Player.Equipped[5])
	if equipCfg.PunchEffect == nil {
		return
	}

	dx := 1
	if pkt.PeerState&0x10 != 0 {
		dx = -1
	}

	for step := 1; step <= equipCfg.PunchEffect.Range; step++ {
		x := tileX + dx*step
		if !world.InBounds(x, tileY) {
			break
		}
		t := w.Tile(x, tileY)
		target := t.FG
		if target == 0 {
			target = t.BG
		}
		if target == 0 || !equipCfg.PunchEffect.Allows(int32(target)) {
			// A gap (or non-target tile) blocks further propagation rather
			// than being skipped over (spec §8 scenario 5: "the gap blocks
			// propagation").
			break
		}

		outcome := world.HandleTileChange(w, c.catalog, x, tileY, heldItem, s.Name, int32(s.PeerID))
		radiusPkt := &protocol.GamePacket{
			PacketType: protocol.PacketTileChange,
			NetID:      s.NetID,
			ID:         int32(target),
			PunchX:     int32(x * world.TileSize),
			PunchY:     int32(tileY * world.TileSize),
		}
		c.broadcastTileOutcome(s, radiusPkt, outcome, true)
	}
}
