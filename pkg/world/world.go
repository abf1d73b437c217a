// Package world implements the tile-grid world model: generation, the
// tile-change state machine, and wire/durable serialization (spec.md §4.4,
// component C4).
package world

import "sync"

// Width and Height are fixed for every world (spec §3).
const (
	Width  = 100
	Height = 60
)

// Tile is one cell of a world's grid.
type Tile struct {
	FG     uint16
	BG     uint16
	Hits   byte
	State3 byte
	State4 byte
	Label  string
	// LastTick is seconds since epoch, set by anything that ticks the tile
	// (currently unused by the state machine itself, carried for parity
	// with the persisted row shape).
	LastTick int64
}

// Npc is an in-memory-only mob (spec §3): never persisted.
type Npc struct {
	NetID     int32
	Name      string
	X, Y      float32
	Health    int32
	MaxHealth int32
	TargetX   float32
	State     byte
	LastJump  int64
}

// World is a resident tile grid plus its npcs and ownership (spec §3).
type World struct {
	mu sync.RWMutex

	Name      string
	tiles     []Tile
	OwnerName string
	Owner     int32
	npcs      []*Npc
}

// New builds an empty (all-zero) world of fixed dimensions named name.
// Callers generate terrain into it separately via Generate.
func New(name string) *World {
	return &World{
		Name:  name,
		tiles: make([]Tile, Width*Height),
	}
}

// Index converts a tile coordinate to its flat offset (spec invariant 1).
func Index(x, y int) int {
	return y*Width + x
}

// InBounds reports whether (x,y) is a valid tile coordinate.
func InBounds(x, y int) bool {
	return x >= 0 && x < Width && y >= 0 && y < Height
}

// Tile returns a copy of the tile at (x,y). Panics on out-of-bounds
// coordinates; callers must check InBounds first, as the state machine
// does.
func (w *World) Tile(x, y int) Tile {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tiles[Index(x, y)]
}

// SetTile overwrites the tile at (x,y).
func (w *World) SetTile(x, y int, t Tile) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tiles[Index(x, y)] = t
}

// TileCount returns the total number of tiles (Width*Height).
func (w *World) TileCount() int {
	return len(w.tiles)
}

// ClaimOwner sets OwnerName if it is currently empty (spec invariant 2).
// Returns true if the claim happened (i.e. the world was previously
// unowned).
func (w *World) ClaimOwner(actorName string, actorID int32) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.OwnerName != "" {
		return false
	}
	w.OwnerName = actorName
	w.Owner = actorID
	return true
}

// IsOwner reports whether actorName matches the current owner, or whether
// the world is unowned (in which case anyone may act — the caller is
// expected to call ClaimOwner first).
func (w *World) IsOwner(actorName string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.OwnerName == "" || w.OwnerName == actorName
}

// AddNpc appends npc to the world's NPC list.
func (w *World) AddNpc(npc *Npc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.npcs = append(w.npcs, npc)
}

// Npcs returns a snapshot slice of the world's current npcs.
func (w *World) Npcs() []*Npc {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Npc, len(w.npcs))
	copy(out, w.npcs)
	return out
}
