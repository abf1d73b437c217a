package session

import (
	"testing"

	"github.com/StoreStation/tilehaven/pkg/catalog"
	"github.com/StoreStation/tilehaven/pkg/player"
	"github.com/StoreStation/tilehaven/pkg/protocol"
	"github.com/StoreStation/tilehaven/pkg/transport"
	"github.com/StoreStation/tilehaven/pkg/world"
	"github.com/stretchr/testify/require"
)

func testCatalog() *catalog.Catalog {
	return catalog.NewFromConfigs([]catalog.ItemConfig{
		{ID: 18, Name: "Fist"},
		{ID: 32, Name: "Pick"},
		{ID: 2, Name: "Dirt Seed", HitsToBreak: 1},
		{ID: 6, Name: "Door"},
		{ID: 8, Name: "Support"},
	})
}

func testCore(t *testing.T) *Core {
	t.Helper()
	h, err := transport.NewHost(transport.Config{Address: "127.0.0.1:0"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return New(Config{Transport: h, Catalog: testCatalog()})
}

func TestHandleTileChangePacketBreaksFarmableAndAwardsXP(t *testing.T) {
	c := testCore(t)
	w := world.New("START")
	tile := w.Tile(1, 1)
	tile.FG = 2
	w.SetTile(1, 1, tile)
	c.worlds["START"] = w

	p := player.New("Alice")
	p.AddSlot(2, 1)
	s := &Session{PeerID: 1, NetID: 1, Name: "Alice", Player: p, WorldName: "START"}
	c.sessions[1] = s

	pkt := &protocol.GamePacket{
		PacketType: protocol.PacketTileChange,
		ID:         18,
		PunchX:     int32(1 * world.TileSize),
		PunchY:     int32(1 * world.TileSize),
	}
	c.handleTileChangePacket(s, pkt)

	require.Equal(t, uint16(0), w.Tile(1, 1).FG, "the farmable tile should be broken")
	require.Equal(t, int64(1), p.FarmerXP)
}

func TestHandleTileChangePacketRejectsIgnoresMissingPunchX(t *testing.T) {
	c := testCore(t)
	w := world.New("START")
	c.worlds["START"] = w
	p := player.New("Bob")
	s := &Session{PeerID: 1, NetID: 1, Name: "Bob", Player: p, WorldName: "START"}
	c.sessions[1] = s

	pkt := &protocol.GamePacket{PacketType: protocol.PacketTileChange, PunchX: -1}
	c.handleTileChangePacket(s, pkt) // must not panic; PunchX == -1 means "not a tile interaction"
}

// TestApplyPunchRadiusStopsAtGap reproduces the radius part of spec §8
// scenario 5 (the primary punch itself is not exercised here): a punch
// effect with range=3 and targets={880} breaks two in-range secondary
// tiles, but a gap (fg==0) blocks propagation before the next matching tile
// is ever reached.
func TestApplyPunchRadiusStopsAtGap(t *testing.T) {
	cat := catalog.NewFromConfigs([]catalog.ItemConfig{
		{ID: 18, Name: "Fist"},
		{ID: 880, Name: "Wheat", HitsToBreak: 1},
		{ID: 1068, Name: "Scythe", ActionType: 20, ClothingType: 5, PunchEffect: &catalog.PunchEffect{
			Range:          3,
			AllowedTargets: map[int32]struct{}{880: {}},
		}},
	})
	h, err := transport.NewHost(transport.Config{Address: "127.0.0.1:0"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	c := New(Config{Transport: h, Catalog: cat})

	w := world.New("BETA")
	for _, x := range []int{15, 16, 18} {
		t := w.Tile(x, 20)
		t.FG = 880
		w.SetTile(x, 20, t)
	}
	// x=17 is left empty: the gap.
	c.worlds["BETA"] = w

	p := player.New("Erin")
	p.Equipped[5] = 1068
	s := &Session{PeerID: 1, NetID: 1, Name: "Erin", Player: p, WorldName: "BETA"}
	c.sessions[1] = s

	pkt := &protocol.GamePacket{
		PacketType: protocol.PacketTileChange,
		ID:         18,
		PunchX:     int32(14 * world.TileSize),
		PunchY:     int32(20 * world.TileSize),
		PeerState:  0, // clear bit 0x10 => direction is right
	}
	c.applyPunchRadius(s, pkt, w, 14, 20)

	require.Equal(t, uint16(0), w.Tile(15, 20).FG, "x=15 is within range and should break")
	require.Equal(t, uint16(0), w.Tile(16, 20).FG, "x=16 is within range and should break")
	require.Equal(t, uint16(880), w.Tile(18, 20).FG, "x=18 is beyond the gap and must be untouched")
}

func TestHandleEquipTogglesClothingSlot(t *testing.T) {
	cat := catalog.NewFromConfigs([]catalog.ItemConfig{
		{ID: 500, ActionType: 20, ClothingType: 3},
	})
	h, err := transport.NewHost(transport.Config{Address: "127.0.0.1:0"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	c := New(Config{Transport: h, Catalog: cat})

	p := player.New("Carl")
	p.AddSlot(500, 1)
	s := &Session{PeerID: 1, NetID: 1, Name: "Carl", Player: p, WorldName: "START"}
	c.sessions[1] = s

	c.handleEquip(s, &protocol.GamePacket{PacketType: protocol.PacketEquip, ID: 500})
	require.Equal(t, int32(500), p.Equipped[3])

	c.handleEquip(s, &protocol.GamePacket{PacketType: protocol.PacketEquip, ID: 500})
	require.Equal(t, int32(0), p.Equipped[3], "equipping the same item again toggles it off")
}

func TestKickExistingRemovesStaleSession(t *testing.T) {
	c := testCore(t)
	p := player.New("Dana")
	old := &Session{PeerID: 1, NetID: 1, Name: "Dana", Player: p, WorldName: "START"}
	c.sessions[1] = old
	c.byName["Dana"] = 1

	c.kickExisting("Dana")

	_, ok := c.sessions[1]
	require.False(t, ok)
	_, ok = c.byName["Dana"]
	require.False(t, ok)
}
