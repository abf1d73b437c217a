package world

import (
	"testing"

	"github.com/StoreStation/tilehaven/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogWith(items ...catalog.ItemConfig) *catalog.Catalog {
	return catalog.NewFromConfigs(items)
}

func TestHandleTileChangeRejectsOutOfBounds(t *testing.T) {
	w := New("hello")
	cat := catalogWith()
	out := HandleTileChange(w, cat, -1, 0, itemFist, "alice", 1)
	assert.Equal(t, NoChange, out.Kind, "out-of-range damage is observable as NoChange (spec §8 boundary behaviors)")
}

func TestHandleTileChangeClaimsOwnerOnFirstAction(t *testing.T) {
	w := New("hello")
	cat := catalogWith()
	HandleTileChange(w, cat, 5, 5, itemPick, "alice", 1)
	assert.Equal(t, "alice", w.OwnerName)
}

func TestHandleTileChangeRejectsNonOwner(t *testing.T) {
	w := New("hello")
	cat := catalogWith()
	HandleTileChange(w, cat, 5, 5, itemPick, "alice", 1)
	out := HandleTileChange(w, cat, 5, 5, itemFist, "bob", 2)
	assert.Equal(t, NoChange, out.Kind, "a non-owner's interaction is observable as NoChange (spec §7 authorization)")
}

func TestHandleTileChangePickIsNoOp(t *testing.T) {
	w := New("hello")
	cat := catalogWith()
	out := HandleTileChange(w, cat, 5, 5, itemPick, "alice", 1)
	assert.Equal(t, NoChange, out.Kind)
}

func TestHandleTileChangeFistOnIndestructibleIsNoOp(t *testing.T) {
	w := New("hello")
	cat := catalogWith()
	w.SetTile(5, 5, Tile{FG: 6})
	out := HandleTileChange(w, cat, 5, 5, itemFist, "alice", 1)
	assert.Equal(t, NoChange, out.Kind)
}

func TestHandleTileChangeFistOnUnbreakableFGRejects(t *testing.T) {
	w := New("hello")
	cat := catalogWith(catalog.ItemConfig{ID: 999, HitsToBreak: 0})
	w.SetTile(5, 5, Tile{FG: 999})
	out := HandleTileChange(w, cat, 5, 5, itemFist, "alice", 1)
	assert.Equal(t, NoChange, out.Kind, "unbreakable id must be NoChange, never register Damaged")
}

func TestHandleTileChangePlaceForegroundOnEmptyTile(t *testing.T) {
	w := New("hello")
	cat := catalogWith(catalog.ItemConfig{ID: 6})
	out := HandleTileChange(w, cat, 5, 5, 6, "alice", 1)
	require.Equal(t, PlacedFG, out.Kind)
	assert.Equal(t, uint16(6), w.Tile(5, 5).FG)
	assert.Equal(t, "EXIT", w.Tile(5, 5).Label)
}

func TestHandleTileChangePlaceForegroundRejectsOccupiedTile(t *testing.T) {
	w := New("hello")
	cat := catalogWith(catalog.ItemConfig{ID: 6})
	w.SetTile(5, 5, Tile{FG: 2})
	out := HandleTileChange(w, cat, 5, 5, 6, "alice", 1)
	assert.Equal(t, NoChange, out.Kind)
}

func TestHandleTileChangePlaceBackgroundOnEmptyBG(t *testing.T) {
	w := New("hello")
	cat := catalogWith(catalog.ItemConfig{ID: 14, ActionType: 1})
	out := HandleTileChange(w, cat, 5, 5, 14, "alice", 1)
	require.Equal(t, PlacedBG, out.Kind)
	assert.Equal(t, uint16(14), w.Tile(5, 5).BG)
}

func TestDamageAccumulatesThenBreaksForeground(t *testing.T) {
	w := New("hello")
	cat := catalogWith(catalog.ItemConfig{ID: 2, HitsToBreak: 2})
	w.SetTile(5, 5, Tile{FG: 2})

	out := HandleTileChange(w, cat, 5, 5, itemFist, "alice", 1)
	require.Equal(t, Damaged, out.Kind)
	assert.Equal(t, byte(1), out.Hits)
	assert.Equal(t, uint16(2), w.Tile(5, 5).FG)

	out = HandleTileChange(w, cat, 5, 5, itemFist, "alice", 1)
	require.Equal(t, BrokeFG, out.Kind)
	assert.Equal(t, uint16(2), out.ID)
	assert.Equal(t, byte(2), out.Hits)
	assert.Zero(t, w.Tile(5, 5).FG)
	assert.Zero(t, w.Tile(5, 5).Hits)
}

func TestDamageFallsThroughToBackgroundWhenForegroundEmpty(t *testing.T) {
	w := New("hello")
	cat := catalogWith(catalog.ItemConfig{ID: 14, HitsToBreak: 1, ActionType: 1})
	w.SetTile(5, 5, Tile{BG: 14})

	out := HandleTileChange(w, cat, 5, 5, itemFist, "alice", 1)
	require.Equal(t, BrokeBG, out.Kind)
	assert.Zero(t, w.Tile(5, 5).BG)
}

func TestDamageOnEmptyTileIsNoOp(t *testing.T) {
	w := New("hello")
	cat := catalogWith()
	out := HandleTileChange(w, cat, 5, 5, itemFist, "alice", 1)
	assert.Equal(t, NoChange, out.Kind)
}
