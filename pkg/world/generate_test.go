package world

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLeavesShallowTilesEmpty(t *testing.T) {
	w := New("hello")
	Generate(w, rand.New(rand.NewSource(1)))

	for y := 0; y < 37; y++ {
		for x := 0; x < Width; x++ {
			tile := w.Tile(x, y)
			assert.Zero(t, tile.FG, "x=%d y=%d", x, y)
			assert.Zero(t, tile.BG, "x=%d y=%d", x, y)
		}
	}
}

func TestGenerateSetsCaveBackgroundBelowY37(t *testing.T) {
	w := New("hello")
	Generate(w, rand.New(rand.NewSource(1)))

	for y := 37; y < Height; y++ {
		tile := w.Tile(0, y)
		assert.Equal(t, uint16(itemCaveBackground), tile.BG, "y=%d", y)
	}
}

func TestGenerateBedrockBelowY54(t *testing.T) {
	w := New("hello")
	Generate(w, rand.New(rand.NewSource(1)))

	for y := 54; y < Height; y++ {
		tile := w.Tile(3, y)
		assert.Equal(t, uint16(itemBedrock), tile.FG, "y=%d", y)
	}
}

func TestGeneratePlacesOneDoorInRange(t *testing.T) {
	w := New("hello")
	Generate(w, rand.New(rand.NewSource(7)))

	found := 0
	doorX := -1
	for x := 0; x < Width; x++ {
		if w.Tile(x, 36).FG == itemMainDoor {
			found++
			doorX = x
		}
	}
	require.Equal(t, 1, found)
	assert.GreaterOrEqual(t, doorX, 2)
	assert.Less(t, doorX, 98)
	assert.Equal(t, "EXIT", w.Tile(doorX, 36).Label)
	assert.Equal(t, uint16(itemDoorSupport), w.Tile(doorX, 37).FG)
}
