package session

import (
	"time"

	"github.com/StoreStation/tilehaven/pkg/chat"
	"github.com/StoreStation/tilehaven/pkg/protocol"
	"github.com/StoreStation/tilehaven/pkg/world"
)

// tickNpcs advances every occupied world's NPCs by one tick and broadcasts
// the results (spec §4.6.6).
func (c *Core) tickNpcs(now time.Time) {
	for name, w := range c.worlds {
		if !c.hasOccupants(name) {
			continue
		}

		moves, deaths := world.TickNpcs(w, now.Unix(), c.rng)
		for _, mv := range moves {
			c.broadcastPacketWorld(name, &protocol.GamePacket{
				PacketType: protocol.PacketMove,
				NetID:      mv.NetID,
				PosX:       mv.X,
				PosY:       mv.Y,
			}, -1, false)
		}
		for _, d := range deaths {
			c.sendNpcDeath(name, d)
		}
	}
}

func (c *Core) hasOccupants(worldName string) bool {
	for _, s := range c.sessions {
		if s.WorldName == worldName {
			return true
		}
	}
	return false
}

func (c *Core) sendNpcDeath(worldName string, d world.NpcDeath) {
	for _, pos := range d.Particles {
		c.broadcastPacketWorld(worldName, &protocol.GamePacket{
			PacketType: protocol.PacketVisualEffect,
			ID:         1,
			NetID:      d.NetID,
			PosX:       pos[0],
			PosY:       pos[1],
		}, -1, false)
	}
	c.broadcastWorld(worldName, chat.ConsoleMessage("BOSS DEFEATED"), -1)
	c.broadcastWorld(worldName, chat.OnRemove(d.NetID), -1)
}
