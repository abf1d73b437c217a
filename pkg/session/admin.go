package session

import (
	"github.com/StoreStation/tilehaven/pkg/chat"
	"github.com/StoreStation/tilehaven/pkg/world"
)

// AdminKind discriminates the admin console's command set (spec §6).
type AdminKind int

const (
	AdminGiveItem AdminKind = iota
	AdminSetLevel
	AdminAddXP
	AdminSpawnBoss
)

// AdminCommand is a typed message from the developer console (spec §4.6
// step 1, §6).
type AdminCommand struct {
	Kind AdminKind

	// GiveItem
	Name   string
	ItemID int32
	Amount int32

	// SetLevel
	Level int32

	// AddXP
	XP int64

	// SpawnBoss
	World  string
	Health int32
}

// drainAdmin processes every currently-queued admin command without
// blocking (spec §4.6 step 1: "non-blocking drain").
func (c *Core) drainAdmin() {
	for {
		select {
		case cmd := <-c.admin:
			c.handleAdmin(cmd)
		default:
			return
		}
	}
}

func (c *Core) handleAdmin(cmd AdminCommand) {
	switch cmd.Kind {
	case AdminGiveItem:
		c.adminGiveItem(cmd)
	case AdminSetLevel:
		c.adminSetLevel(cmd)
	case AdminAddXP:
		c.adminAddXP(cmd)
	case AdminSpawnBoss:
		c.adminSpawnBoss(cmd)
	}
}

func (c *Core) adminGiveItem(cmd AdminCommand) {
	s, ok := c.sessionByNameFold(cmd.Name)
	if !ok || s.Player == nil {
		return
	}
	s.Player.AddSlot(cmd.ItemID, cmd.Amount)
	c.persistPlayer(s.Player)
	c.sendTo(s, chat.ConsoleMessage("You received an item."))
}

func (c *Core) adminSetLevel(cmd AdminCommand) {
	s, ok := c.sessionByNameFold(cmd.Name)
	if !ok || s.Player == nil {
		return
	}
	s.Player.Level = cmd.Level
	c.persistPlayer(s.Player)
	c.sendTo(s, chat.ConsoleMessage("Your level was changed by an admin."))
}

func (c *Core) adminAddXP(cmd AdminCommand) {
	s, ok := c.sessionByNameFold(cmd.Name)
	if !ok || s.Player == nil {
		return
	}
	s.Player.XP += cmd.XP
	c.persistPlayer(s.Player)
	c.sendTo(s, chat.ConsoleMessage("You received XP."))
}

// bossNetIDBase is the floor for generated NPC net ids (spec §3: "net_id
// (unique within world, ≥1000)").
const bossNetIDBase = 1000

func (c *Core) adminSpawnBoss(cmd AdminCommand) {
	w := c.worldFor(cmd.World)
	netID := int32(bossNetIDBase + len(w.Npcs()))
	npc := &world.Npc{
		NetID:     netID,
		Name:      "Boss",
		X:         float32(world.Width * world.TileSize / 2),
		Y:         float32(world.Height * world.TileSize / 2),
		Health:    cmd.Health,
		MaxHealth: cmd.Health,
	}
	w.AddNpc(npc)
	c.broadcastWorld(upper(cmd.World), chat.ConsoleMessage("A boss has appeared!"), -1)
}
