package session

import (
	"fmt"
	"strings"

	"github.com/StoreStation/tilehaven/pkg/chat"
	"github.com/StoreStation/tilehaven/pkg/player"
)

// handleInput runs the action `input` (spec §4.6.3): a leading `/`
// dispatches to the command layer, otherwise broadcasts a talk bubble and
// console echo to the session's world.
func (c *Core) handleInput(s *Session, values map[string]string) {
	text := values["text"]
	if strings.HasPrefix(text, "/") {
		chat.Dispatch(&cmdCtx{core: c, session: s}, text)
		return
	}

	// broadcastWorld already delivers to s itself (shouldReceive only
	// excludes the sender when excludeSender is set); a separate sendTo
	// here would double-deliver both lines to the speaker.
	c.broadcastWorld(s.WorldName, chat.TalkBubble(s.NetID, text), int64(s.PeerID))
	c.broadcastWorld(s.WorldName, chat.ConsoleMessage(s.Name+": "+text), int64(s.PeerID))
}

// cmdCtx adapts a Core/Session pair to chat.CommandContext (spec §4.7).
type cmdCtx struct {
	core    *Core
	session *Session
}

func (x *cmdCtx) SenderName() string { return x.session.Name }

func (x *cmdCtx) Reply(msg *chat.Message) { x.core.sendTo(x.session, msg) }

func (x *cmdCtx) Stats() string {
	p := x.session.Player
	return fmt.Sprintf("Level %d, %d gems, %d XP", p.Level, p.Gems, p.XP)
}

func (x *cmdCtx) Status() string {
	p := x.session.Player
	return fmt.Sprintf("Farmer %d, Miner %d, Adventurer %d",
		p.FarmerLvl, p.MinerLvl, p.AdventurerLvl)
}

func (x *cmdCtx) HidePlayers() {
	s := x.session
	if s.HiddenPlayers {
		return
	}
	s.HiddenPlayers = true
	for _, other := range x.core.coOccupants(s) {
		x.core.sendTo(s, chat.OnRemove(other.NetID))
	}
}

func (x *cmdCtx) ShowPlayers() {
	s := x.session
	if !s.HiddenPlayers {
		return
	}
	s.HiddenPlayers = false
	for _, other := range x.core.coOccupants(s) {
		x.core.sendTo(s, spawnMessage(other, false))
	}
}

func (x *cmdCtx) SetNick(nick string) error {
	if nick == "" {
		return fmt.Errorf("nickname cannot be empty")
	}
	x.session.Name = nick
	x.core.byName[nick] = x.session.PeerID
	x.core.persistPlayer(x.session.Player)
	x.core.broadcastWorld(x.session.WorldName, chat.OnNameChanged(x.session.NetID, nick), -1)
	return nil
}

func (x *cmdCtx) Roles() string {
	return "Role: " + x.session.Player.Role
}

func (x *cmdCtx) FarmerStatus() string {
	p := x.session.Player
	if title, ok := player.MilestoneTitle(p.FarmerLvl); ok {
		return fmt.Sprintf("Farmer level %d, %s (%d/%d xp)", p.FarmerLvl, title, p.FarmerXP, player.RequiredXP(p.FarmerLvl))
	}
	return fmt.Sprintf("Farmer level %d (%d/%d xp)", p.FarmerLvl, p.FarmerXP, player.RequiredXP(p.FarmerLvl))
}
