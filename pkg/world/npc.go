package world

import "math/rand"

// TileSize is the pixel width/height of one tile, used to convert NPC
// movement and world bounds between tile and pixel space.
const TileSize = 32

// tickInterval is the wall-clock spacing between NPC movement decisions
// (spec §4.6.6: "every 2 seconds of wall-clock").
const tickInterval = 2

// NpcMove is a position update the caller should broadcast as a type-0
// packet.
type NpcMove struct {
	NetID int32
	X, Y  float32
}

// NpcDeath is a dead NPC the caller should announce and remove.
type NpcDeath struct {
	NetID     int32
	Particles [2][2]float32 // two burst positions, offset ±10px from the corpse
}

// TickNpcs advances every occupant NPC by one tick (spec §4.6.6). now is the
// current wall-clock time in epoch seconds; rng drives both the movement
// direction and the particle offsets. Dead NPCs are removed from w's NPC
// list before returning.
func TickNpcs(w *World, now int64, rng *rand.Rand) (moves []NpcMove, deaths []NpcDeath) {
	w.mu.Lock()
	defer w.mu.Unlock()

	alive := w.npcs[:0]
	for _, npc := range w.npcs {
		if npc.Health <= 0 {
			deaths = append(deaths, NpcDeath{
				NetID: npc.NetID,
				Particles: [2][2]float32{
					{npc.X + randOffset(rng), npc.Y + randOffset(rng)},
					{npc.X + randOffset(rng), npc.Y + randOffset(rng)},
				},
			})
			continue
		}

		if now-npc.LastJump >= tickInterval {
			switch rng.Intn(4) {
			case 0:
				npc.X -= TileSize
			case 1:
				npc.X += TileSize
				// cases 2, 3: no-op
			}
			npc.X = clampFloat(npc.X, 0, Width*TileSize)
			npc.LastJump = now
			moves = append(moves, NpcMove{NetID: npc.NetID, X: npc.X, Y: npc.Y})
		}

		alive = append(alive, npc)
	}
	w.npcs = alive

	return moves, deaths
}

func randOffset(rng *rand.Rand) float32 {
	return float32(rng.Intn(21) - 10) // uniform in [-10,10]
}

func clampFloat(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
