package world

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickNpcsRemovesDeadAndReportsParticles(t *testing.T) {
	w := New("w")
	w.AddNpc(&Npc{NetID: 1000, Health: 0, X: 100, Y: 200})

	moves, deaths := TickNpcs(w, 10, rand.New(rand.NewSource(1)))
	assert.Empty(t, moves)
	require.Len(t, deaths, 1)
	assert.Equal(t, int32(1000), deaths[0].NetID)
	assert.Empty(t, w.Npcs())
}

func TestTickNpcsMovesOnIntervalAndClamps(t *testing.T) {
	w := New("w")
	w.AddNpc(&Npc{NetID: 1001, Health: 10, X: 0, Y: 0, LastJump: 0})

	moves, deaths := TickNpcs(w, 5, rand.New(rand.NewSource(2)))
	assert.Empty(t, deaths)
	require.Len(t, moves, 1)
	assert.GreaterOrEqual(t, moves[0].X, float32(0))
	assert.LessOrEqual(t, moves[0].X, float32(Width*TileSize))
}

func TestTickNpcsSkipsMoveBeforeInterval(t *testing.T) {
	w := New("w")
	w.AddNpc(&Npc{NetID: 1002, Health: 10, X: 50, Y: 50, LastJump: 9})

	moves, _ := TickNpcs(w, 10, rand.New(rand.NewSource(3)))
	assert.Empty(t, moves)
	assert.Len(t, w.Npcs(), 1)
}
