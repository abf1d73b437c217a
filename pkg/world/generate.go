package world

import "math/rand"

// generation item ids (spec §4.4).
const (
	itemCaveBackground = 14
	itemDirt           = 2
	itemRock           = 4
	itemLavaOre        = 10
	itemBedrock        = 8
	itemMainDoor       = 6
	itemDoorSupport    = 8
)

// Generate lays out fresh terrain into w using rng for the probabilistic
// choices (spec §4.4). Y grows downward; y<37 stays empty.
func Generate(w *World, rng *rand.Rand) {
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if y < 37 {
				continue
			}

			t := Tile{BG: itemCaveBackground}
			switch {
			case y >= 38 && y < 50:
				if rng.Float64() < 1.0/38.0 {
					t.FG = itemLavaOre
				} else {
					t.FG = itemDirt
				}
			case y >= 50 && y < 54:
				if rng.Float64() < 3.0/8.0 {
					t.FG = itemRock
				} else {
					t.FG = itemDirt
				}
			case y >= 54:
				t.FG = itemBedrock
			} // y == 37 exactly: cave background only, no fg band claims it
			w.SetTile(x, y, t)
		}
	}

	doorX := 2 + rng.Intn(98-2)
	door := w.Tile(doorX, 36)
	door.FG = itemMainDoor
	door.Label = "EXIT"
	w.SetTile(doorX, 36, door)

	below := w.Tile(doorX, 37)
	below.FG = itemDoorSupport
	w.SetTile(doorX, 37, below)
}
