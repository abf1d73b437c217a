package world

import "github.com/StoreStation/tilehaven/pkg/catalog"

// held item ids with special tile-change behavior (spec §4.4 step 4-5).
const (
	itemFist = 18
	itemPick = 32
)

// indestructible foreground ids: the main door and bedrock never break
// under the fist, regardless of their catalog entry (spec §4.4 Damage).
var indestructibleFG = map[uint16]struct{}{
	6: {},
	8: {},
}

// OutcomeKind discriminates the tile-change result shapes.
type OutcomeKind int

const (
	NoChange OutcomeKind = iota
	Damaged
	BrokeFG
	BrokeBG
	PlacedFG
	PlacedBG
)

// Outcome is the result of HandleTileChange.
type Outcome struct {
	Kind OutcomeKind
	ID   uint16
	Hits byte
}

// HandleTileChange applies a punch/place action at (x,y) held by heldItem,
// acting on behalf of actorName (spec §4.4). actorID is used only to record
// world ownership alongside the name.
func HandleTileChange(w *World, cat *catalog.Catalog, x, y int, heldItem int32, actorName string, actorID int32) Outcome {
	if !InBounds(x, y) {
		return Outcome{Kind: NoChange}
	}

	w.ClaimOwner(actorName, actorID)
	if !w.IsOwner(actorName) {
		return Outcome{Kind: NoChange}
	}

	if heldItem == itemFist {
		return damage(w, cat, x, y)
	}
	if heldItem == itemPick {
		return Outcome{Kind: NoChange}
	}

	return place(w, cat, x, y, uint16(heldItem))
}

func place(w *World, cat *catalog.Catalog, x, y int, id uint16) Outcome {
	cfg := cat.Get(int32(id))
	t := w.Tile(x, y)

	if cfg.IsBackground {
		if t.BG != 0 {
			return Outcome{Kind: NoChange}
		}
		t.BG = id
		t.Hits = 0
		w.SetTile(x, y, t)
		return Outcome{Kind: PlacedBG, ID: id}
	}

	if t.FG != 0 {
		return Outcome{Kind: NoChange}
	}
	t.FG = id
	t.Hits = 0
	if id == 6 || id == 12 {
		t.Label = "EXIT"
	}
	w.SetTile(x, y, t)
	return Outcome{Kind: PlacedFG, ID: id}
}

func damage(w *World, cat *catalog.Catalog, x, y int) Outcome {
	t := w.Tile(x, y)

	if t.FG != 0 {
		if _, indestructible := indestructibleFG[t.FG]; indestructible {
			return Outcome{Kind: NoChange}
		}
		cfg := cat.Get(int32(t.FG))
		// hits_to_break=0 would satisfy hits>=hits_to_break on the very
		// first increment, but is_breakable is false whenever
		// hits_to_break==0 (invariant 6), so the reject below always wins
		// first; a would-be Damaged(hits=1) is never externally observed.
		if !cfg.IsBreakable {
			return Outcome{Kind: NoChange}
		}
		t.Hits++
		if t.Hits >= cfg.HitsToBreak {
			priorID, priorHits := t.FG, t.Hits
			t.FG, t.Hits, t.Label = 0, 0, ""
			w.SetTile(x, y, t)
			return Outcome{Kind: BrokeFG, ID: priorID, Hits: priorHits}
		}
		w.SetTile(x, y, t)
		return Outcome{Kind: Damaged, ID: t.FG, Hits: t.Hits}
	}

	if t.BG != 0 {
		cfg := cat.Get(int32(t.BG))
		if !cfg.IsBreakable {
			return Outcome{Kind: NoChange}
		}
		t.Hits++
		if t.Hits >= cfg.HitsToBreak {
			priorID, priorHits := t.BG, t.Hits
			t.BG, t.Hits = 0, 0
			w.SetTile(x, y, t)
			return Outcome{Kind: BrokeBG, ID: priorID, Hits: priorHits}
		}
		w.SetTile(x, y, t)
		return Outcome{Kind: Damaged, ID: t.BG, Hits: t.Hits}
	}

	return Outcome{Kind: NoChange}
}
