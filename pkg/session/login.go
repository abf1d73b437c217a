package session

import (
	"encoding/base64"
	"net/url"
	"strconv"

	"github.com/StoreStation/tilehaven/pkg/chat"
	"github.com/StoreStation/tilehaven/pkg/player"
	"github.com/StoreStation/tilehaven/pkg/protocol"
	"github.com/StoreStation/tilehaven/pkg/store"
	"github.com/StoreStation/tilehaven/pkg/world"
)

// handleText is the entry point for type 2/3 (text/action) payloads (spec
// §4.6.1): extract the action and dispatch to the matching handler.
func (c *Core) handleText(peerID uint32, raw string) {
	action, values := chat.Parse(raw)
	s, ok := c.sessions[peerID]
	if !ok {
		return
	}

	switch action {
	case "protocol":
		c.handleProtocolAction(s, values)
	case "tankIDName":
		c.handleTankIDName(s, values)
	case "enter_game":
		c.handleEnterGame(s)
	case "join_request":
		c.handleJoinRequest(s, values)
	case "input":
		c.handleInput(s, values)
	case "wrench":
		c.handleWrench(s, values)
	case "setSkin":
		c.handleSetSkin(s, values)
	case "dialog_return":
		c.handleDialogReturn(s, values)
	case "quit", "quit_to_exit":
		c.handleQuitAction(s)
	case "RefreshItemData":
		c.handleRefreshItemData(s)
	}
}

// handleRefreshItemData answers a client's request to reconfirm the loaded
// item catalog, reporting the definition count it has available (spec §9
// action enumeration: "RefreshItemData").
func (c *Core) handleRefreshItemData(s *Session) {
	c.sendTo(s, chat.New("OnRefreshItemData").Set("count", strconv.Itoa(c.catalog.Count())))
}

// loginFields is the resolved (name, ltoken, discord_id) triple priority
// (spec §4.6.2): parsed ltoken fields override the raw body fields.
type loginFields struct {
	name      string
	ltoken    string
	discordID string
}

// resolveLogin applies the ltoken-overrides-body priority rule.
func resolveLogin(values map[string]string) loginFields {
	f := loginFields{
		name:      values["tankIDName"],
		ltoken:    values["ltoken"],
		discordID: values["discord_id"],
	}
	if f.ltoken == "" {
		return f
	}
	decoded, err := base64.StdEncoding.DecodeString(f.ltoken)
	if err != nil {
		return f
	}
	q, err := url.ParseQuery(string(decoded))
	if err != nil {
		return f
	}
	if v := q.Get("growId"); v != "" {
		f.name = v
	}
	if v := q.Get("_token"); v != "" {
		f.ltoken = v
	}
	return f
}

// handleProtocolAction answers the first-connection handshake: instruct the
// client to redirect to the authoritative game port, then schedule a
// disconnect (spec §4.6.2).
func (c *Core) handleProtocolAction(s *Session, values map[string]string) {
	s.State = StateHandshaking

	c.sendTo(s, chat.New("SetHasGrowID").Set("hasGrowID", "1"))
	c.sendTo(s, chat.New("OnSendToServer").
		Set("port", "17091").
		Set("token", "1").
		Set("user", "1").
		Set("uuid", "0"))

	_ = c.transport.DisconnectLater(s.PeerID)
}

// handleTankIDName runs the second-connection login (spec §4.6.2 steps 1-3).
func (c *Core) handleTankIDName(s *Session, values map[string]string) {
	fields := resolveLogin(values)

	p, err := c.loadOrCreatePlayer(fields)
	if err != nil || p == nil {
		c.sendTo(s, chat.ErrorConsoleMessage("Login failed."))
		_ = c.transport.DisconnectNow(s.PeerID)
		return
	}

	c.kickExisting(p.Name)

	ensureDefaultSlots(p)
	if fields.ltoken != "" && p.LToken != fields.ltoken {
		p.LToken = fields.ltoken
	}
	c.persistPlayer(p)

	s.Name = p.Name
	s.Player = p
	s.NetID = int32(s.PeerID)
	s.State = StateAuthenticated
	c.byName[p.Name] = s.PeerID

	c.sendLoginSequence(s)
}

// loadOrCreatePlayer implements the priority rule from spec §4.6.2: a
// discord_id match loads or creates a discord-linked player; otherwise fall
// back to a direct ltoken/name lookup.
func (c *Core) loadOrCreatePlayer(fields loginFields) (*player.Player, error) {
	if c.dbStore != nil && fields.discordID != "" {
		if p, found, err := store.LoadPlayerByDiscordID(c.dbStore, fields.discordID); err != nil {
			return nil, err
		} else if found {
			return p, nil
		}
		if fields.name != "" {
			p := player.New(fields.name)
			p.DiscordID = fields.discordID
			p.LToken = fields.ltoken
			return p, nil
		}
	}

	name := fields.name
	if name == "" {
		name = fields.ltoken
	}
	if name == "" {
		return nil, nil
	}

	if c.dbStore != nil {
		if p, found, err := store.LoadPlayer(c.dbStore, name); err != nil {
			return nil, err
		} else if found {
			return p, nil
		}
	}
	return player.New(name), nil
}

// ensureDefaultSlots grants the starting fist and pick if either is
// missing (spec §4.6.2 step 2).
func ensureDefaultSlots(p *player.Player) {
	for _, d := range player.DefaultSlots {
		if p.SlotCount(d.ItemID) == 0 {
			p.AddSlot(d.ItemID, d.Count)
		}
	}
}

// kickExisting reaps any live session already logged in as name (spec
// §4.6.2 step 1).
func (c *Core) kickExisting(name string) {
	peerID, ok := c.byName[name]
	if !ok {
		return
	}
	existing, ok := c.sessions[peerID]
	if !ok {
		delete(c.byName, name)
		return
	}

	if existing.WorldName != "" {
		c.broadcastWorldFiltered(existing.WorldName, chat.OnRemove(existing.NetID), int64(existing.PeerID), true)
	}
	c.sendTo(existing, chat.ConsoleMessage("Logged in from another location."))
	_ = c.transport.DisconnectNow(existing.PeerID)

	delete(c.sessions, existing.PeerID)
	delete(c.byName, name)
}

// sendLoginSequence sends the fixed post-login packet sequence (spec
// §4.6.2 step 3).
func (c *Core) sendLoginSequence(s *Session) {
	c.sendTo(s, chat.New("OnSuperMainStartAcceptLogonHrdxs47254722215a").
		Set("GameVersion", "4.48").
		Set("RTENDMARKERBS1001", ""))

	c.sendTo(s, chat.New("OnShowFTUEButton").Set("show", "0"))
	c.sendTo(s, chat.New("SetDataVersion").Set("version", "15"))
}

// handleEnterGame sends the welcome/world-select sequence (spec §4.6.2
// "enter_game").
func (c *Core) handleEnterGame(s *Session) {
	s.State = StateAtWorldSelect
	c.sendTo(s, chat.ConsoleMessage("Welcome to the game!"))
	c.sendTo(s, chat.New("OnRequestWorldSelectMenu"))
}

// spawnTileID is the main-door foreground item id used to locate the spawn
// point (spec §4.6.2 "join_request").
const spawnTileID = 6

// defaultSpawnX and defaultSpawnY are the fallback pixel spawn point when no
// door tile can be found.
const (
	defaultSpawnX = 1000
	defaultSpawnY = 1000
)

// spawnPoint returns the pixel coordinates of the first door tile in w, or
// the fallback default.
func spawnPoint(w *world.World) (float32, float32) {
	for y := 0; y < world.Height; y++ {
		for x := 0; x < world.Width; x++ {
			if w.Tile(x, y).FG == spawnTileID {
				return float32(x * world.TileSize), float32(y * world.TileSize)
			}
		}
	}
	return defaultSpawnX, defaultSpawnY
}

// handleJoinRequest loads-or-creates the named world and spawns s into it
// (spec §4.6.2 "join_request").
func (c *Core) handleJoinRequest(s *Session, values map[string]string) {
	name := upper(values["name"])
	if name == "" {
		return
	}

	w := c.worldFor(name)
	s.WorldName = name
	s.X, s.Y = spawnPoint(w)

	blob, err := world.ToBytes(w, c.actionTypeOf)
	if err == nil {
		c.sendTo(s, chat.New("OnRequestWorldSelectMenu").Set("mapSize", strconv.Itoa(len(blob))))
	}

	s.State = StateInWorld
	c.spawnInto(s, w)
}

// actionTypeOf resolves a foreground item id's catalog action_type, the
// lookup world.ToBytes needs for its per-tile trailer.
func (c *Core) actionTypeOf(id uint16) byte {
	return c.catalog.Get(int32(id)).ActionType
}

// spawnInto sends the OnSpawn/OnSetClothing/SetCharacterState sequence for
// s joining w, to both s and its new co-occupants (spec §4.6.2 step "For
// each").
func (c *Core) spawnInto(s *Session, w *world.World) {
	s.Player.PunchID = c.computePunchID(s.Player)

	c.sendTo(s, spawnMessage(s, true))
	for _, other := range c.coOccupants(s) {
		c.sendTo(other, spawnMessage(s, false))
		c.sendTo(s, spawnMessage(other, false))
		c.sendClothingAndState(s, other)
		c.sendClothingAndState(other, s)
	}
	c.sendClothingAndState(s, s)
}

// spawnMessage builds the OnSpawn payload for who, local indicating whether
// it is addressed to who itself.
func spawnMessage(who *Session, local bool) *chat.Message {
	m := chat.New("OnSpawn").
		Set("netID", strconv.Itoa(int(who.NetID))).
		Set("name", who.Name).
		Set("posXY", strconv.Itoa(int(who.X))+"|"+strconv.Itoa(int(who.Y)))
	if local {
		m.Set("type", "local")
	}
	return m
}

// sendClothingAndState sends recipient the OnSetClothing and
// SetCharacterState packets describing subject (spec §4.6.2 step "For
// each").
func (c *Core) sendClothingAndState(recipient, subject *Session) {
	clothing := chat.New("OnSetClothing").
		Set("netID", strconv.Itoa(int(subject.NetID))).
		Set("skinColor", strconv.FormatUint(uint64(subject.Player.SkinColor), 10))
	for i, itemID := range subject.Player.Equipped {
		clothing.Set("equip"+strconv.Itoa(i), strconv.Itoa(int(itemID)))
	}
	c.sendTo(recipient, clothing)

	packetType := uint32(0x14) | uint32(subject.Player.PunchID)<<8 | uint32(0x80)<<16 | uint32(0x80)<<24
	pkt := &protocol.GamePacket{
		PacketType: int32(packetType),
		NetID:      subject.NetID,
		PosX:       subject.X,
		PosY:       subject.Y,
		SpeedX:     250,
		SpeedY:     1000,
		Count:      125,
	}
	c.sendPacketTo(recipient, pkt)
}

// computePunchID derives the hand-item visual effect used for the punch
// animation (spec §4.6.2: "visual_effect of equip slot 5 if nonzero;
// otherwise the first nonzero visual_effect among all equipped items;
// otherwise 0").
func (c *Core) computePunchID(p *player.Player) int32 {
	if len(p.Equipped) > 5 && p.Equipped[5] != 0 {
		if vfx := c.catalog.Get(p.Equipped[5]).VisualEffect; vfx != 0 {
			return int32(vfx)
		}
	}
	for _, itemID := range p.Equipped {
		if itemID == 0 {
			continue
		}
		if vfx := c.catalog.Get(itemID).VisualEffect; vfx != 0 {
			return int32(vfx)
		}
	}
	return 0
}
