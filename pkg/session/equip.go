package session

import (
	"strconv"

	"github.com/StoreStation/tilehaven/pkg/chat"
	"github.com/StoreStation/tilehaven/pkg/protocol"
)

// handleEquip is a binary packet type 10: toggle the clothing slot for the
// held item (spec §4.6.3).
func (c *Core) handleEquip(s *Session, pkt *protocol.GamePacket) {
	itemID := pkt.ID
	if s.Player.SlotCount(itemID) == 0 {
		return
	}
	clothingType, ok := c.catalog.GetClothingType(itemID)
	if !ok {
		return
	}

	if s.Player.Equipped[clothingType] == itemID {
		s.Player.Equipped[clothingType] = 0
	} else {
		s.Player.Equipped[clothingType] = itemID
	}
	c.persistPlayer(s.Player)

	c.broadcastWorld(s.WorldName, equipClothingMessage(s), -1)
	c.sendTo(s, chat.New("OnEquipNewItem").Set("itemID", strconv.Itoa(int(itemID))))
}

// equipClothingMessage builds the OnSetClothing payload describing s's
// current equip state (spec §4.6.3 "rebroadcast clothing").
func equipClothingMessage(s *Session) *chat.Message {
	m := chat.New("OnSetClothing").
		Set("netID", strconv.Itoa(int(s.NetID))).
		Set("skinColor", strconv.FormatUint(uint64(s.Player.SkinColor), 10))
	for i, itemID := range s.Player.Equipped {
		m.Set("equip"+strconv.Itoa(i), strconv.Itoa(int(itemID)))
	}
	return m
}

// handleSetSkin applies the setSkin action and its dialog_return{setSkin}
// counterpart: both set the packed skin color and rebroadcast clothing
// (spec §4.6.3).
func (c *Core) handleSetSkin(s *Session, values map[string]string) {
	color, err := strconv.ParseUint(values["color"], 10, 32)
	if err != nil {
		return
	}
	s.Player.SkinColor = uint32(color)
	c.persistPlayer(s.Player)
	c.broadcastWorld(s.WorldName, equipClothingMessage(s), -1)
}

// handleDialogReturn dispatches dialog_return actions: setSkin reuses
// handleSetSkin; role_menu re-sends the role menu for the clicked tab
// (spec §4.6.3).
func (c *Core) handleDialogReturn(s *Session, values map[string]string) {
	switch values["dialog_name"] {
	case "setSkin":
		c.handleSetSkin(s, values)
	case "role_menu":
		c.sendTo(s, chat.New("OnRoleMenu").Set("tab", values["buttonClicked"]))
	}
}

// handleWrench opens a profile dialog: self's own editable profile, or a
// read-only profile for a named target (spec §4.6.3).
func (c *Core) handleWrench(s *Session, values map[string]string) {
	netID, err := strconv.Atoi(values["netid"])
	if err == nil && int32(netID) == s.NetID {
		c.sendTo(s, chat.New("OnDialogRequest").Set("dialog_name", "profile_self"))
		return
	}

	target, ok := c.sessionByName(values["name"])
	if !ok {
		return
	}
	c.sendTo(s, chat.New("OnDialogRequest").
		Set("dialog_name", "profile_readonly").
		Set("name", target.Name))
}
