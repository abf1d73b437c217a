// Package player holds the Player data model, its XP curve, and milestone
// titles (spec.md §3, §6 "XP curve").
package player

// Slot is one inventory entry. Slots with Count==0 are elided on
// persistence (spec §3).
type Slot struct {
	ItemID int32
	Count  int32
}

// EquipSlots is the fixed equipment length (spec invariant 3).
const EquipSlots = 10

// Default starting inventory for new players: fist (18) and pick (32)
// (spec §3).
var DefaultSlots = []Slot{{ItemID: 18, Count: 1}, {ItemID: 32, Count: 1}}

// Player is the per-account progression and inventory record, keyed by
// case-exact name (spec §3).
type Player struct {
	Name    string
	Role    string
	Gems    int64
	Level   int32
	XP      int64
	Slots   []Slot
	Equipped [EquipSlots]int32

	DiscordID       string
	DiscordUsername string
	Email           string
	LToken          string
	SkinColor       uint32

	FarmerLvl     int32
	FarmerXP      int64
	MinerLvl      int32
	MinerXP       int64
	AdventurerLvl int32
	AdventurerXP  int64

	PunchID int32
}

// New returns a fresh player named name with the default starting
// inventory (spec §3's "new players receive slot entries (18,1) and
// (32,1)").
func New(name string) *Player {
	slots := make([]Slot, len(DefaultSlots))
	copy(slots, DefaultSlots)
	return &Player{
		Name:      name,
		FarmerLvl: 1,
		MinerLvl:  1,
		AdventurerLvl: 1,
		Slots:     slots,
	}
}

// SlotCount returns the player's current count of itemID, or 0 if absent.
func (p *Player) SlotCount(itemID int32) int32 {
	for _, s := range p.Slots {
		if s.ItemID == itemID {
			return s.Count
		}
	}
	return 0
}

// AddSlot adjusts the quantity of itemID by delta, creating a new slot
// entry if needed and removing it once its count reaches zero (spec §3:
// "slots with count==0 are elided on persistence" — elided eagerly here
// too, so in-memory and persisted shape always match).
func (p *Player) AddSlot(itemID int32, delta int32) {
	for i := range p.Slots {
		if p.Slots[i].ItemID == itemID {
			p.Slots[i].Count += delta
			if p.Slots[i].Count <= 0 {
				p.Slots = append(p.Slots[:i], p.Slots[i+1:]...)
			}
			return
		}
	}
	if delta > 0 {
		p.Slots = append(p.Slots, Slot{ItemID: itemID, Count: delta})
	}
}

// RequiredXP returns the XP needed to advance from lvl to lvl+1 (spec §6:
// "required(lvl) = 150·lvl² + 500·lvl").
func RequiredXP(lvl int32) int64 {
	l := int64(lvl)
	return 150*l*l + 500*l
}

// milestoneTitles maps each milestone level to its display title. The
// original data this spec was distilled from names these; the numbers
// are arbitrary flavor text, preserved verbatim.
var milestoneTitles = map[int32]string{
	1:   "Newcomer",
	10:  "Settler",
	25:  "Digger",
	50:  "Delver",
	75:  "Excavator",
	100: "Tunneler",
	150: "Foreman",
	200: "Legend",
}

// MilestoneTitle returns the title for lvl if lvl is a milestone level.
func MilestoneTitle(lvl int32) (string, bool) {
	t, ok := milestoneTitles[lvl]
	return t, ok
}

// farmXP maps a farmable block's item id to the farmer XP it grants when
// broken (spec §4.6.4: "table: id 2 → 1 xp, id 880 → 3 xp").
var farmXP = map[int32]int64{
	2:   1,
	880: 3,
}

// FarmXP returns the farmer XP granted for breaking itemID, if any.
func FarmXP(itemID int32) (int64, bool) {
	xp, ok := farmXP[itemID]
	return xp, ok
}
