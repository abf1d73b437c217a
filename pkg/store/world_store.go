package store

import (
	"database/sql"
	"fmt"

	"github.com/StoreStation/tilehaven/pkg/world"
)

// SaveWorldTx writes w's compressed durable blob within tx (spec §4.5
// "World write").
func SaveWorldTx(tx *sql.Tx, w *world.World) error {
	blob, err := world.CompressDurable(w)
	if err != nil {
		return fmt.Errorf("compressing world %s: %w", w.Name, err)
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO worlds (name, owner_name, owner, data) VALUES (?,?,?,?)`,
		w.Name, w.OwnerName, w.Owner, blob)
	if err != nil {
		return fmt.Errorf("upserting worlds row for %s: %w", w.Name, err)
	}
	return nil
}

// LoadWorld reads and decompresses a world row. Returns found=false if no
// row exists for name.
func LoadWorld(s *Store, name string) (w *world.World, found bool, err error) {
	var blob []byte
	row := s.Worlds.QueryRow(`SELECT data FROM worlds WHERE name = ?`, name)
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("loading worlds row for %s: %w", name, err)
	}
	w, err = world.DecompressDurable(blob)
	if err != nil {
		return nil, false, fmt.Errorf("decompressing world %s: %w", name, err)
	}
	return w, true, nil
}
