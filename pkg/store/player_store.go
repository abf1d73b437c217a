package store

import (
	"database/sql"
	"fmt"

	"github.com/StoreStation/tilehaven/pkg/player"
)

// SavePlayerTx writes p within tx (spec §4.5 "Player write"): INSERT OR
// REPLACE the peers row, then replace slots and equip wholesale.
func SavePlayerTx(tx *sql.Tx, p *player.Player) error {
	_, err := tx.Exec(`INSERT OR REPLACE INTO peers
		(name, role, gems, level, xp, discord_id, discord_username, email, ltoken,
		 skin_color, farmer_lvl, farmer_xp, miner_lvl, miner_xp, adventurer_lvl,
		 adventurer_xp, punch_id)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.Name, p.Role, p.Gems, p.Level, p.XP, p.DiscordID, p.DiscordUsername,
		p.Email, p.LToken, p.SkinColor, p.FarmerLvl, p.FarmerXP, p.MinerLvl,
		p.MinerXP, p.AdventurerLvl, p.AdventurerXP, p.PunchID)
	if err != nil {
		return fmt.Errorf("upserting peers row for %s: %w", p.Name, err)
	}

	if _, err := tx.Exec(`DELETE FROM slots WHERE player_name = ?`, p.Name); err != nil {
		return fmt.Errorf("clearing slots for %s: %w", p.Name, err)
	}
	for _, s := range p.Slots {
		if s.Count <= 0 {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO slots (player_name, item_id, count) VALUES (?,?,?)`,
			p.Name, s.ItemID, s.Count); err != nil {
			return fmt.Errorf("inserting slot %d for %s: %w", s.ItemID, p.Name, err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM equip WHERE player_name = ?`, p.Name); err != nil {
		return fmt.Errorf("clearing equip for %s: %w", p.Name, err)
	}
	for idx, itemID := range p.Equipped {
		if itemID == 0 {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO equip (player_name, slot_index, item_id) VALUES (?,?,?)`,
			p.Name, idx, itemID); err != nil {
			return fmt.Errorf("inserting equip slot %d for %s: %w", idx, p.Name, err)
		}
	}

	return nil
}

// LoadPlayer reads a player row plus its slots and equip rows. Returns
// found=false if no row exists for name.
func LoadPlayer(s *Store, name string) (p *player.Player, found bool, err error) {
	row := s.Peers.QueryRow(`SELECT name, role, gems, level, xp, discord_id, discord_username,
		email, ltoken, skin_color, farmer_lvl, farmer_xp, miner_lvl, miner_xp,
		adventurer_lvl, adventurer_xp, punch_id FROM peers WHERE name = ?`, name)

	p = &player.Player{}
	if err := row.Scan(&p.Name, &p.Role, &p.Gems, &p.Level, &p.XP, &p.DiscordID,
		&p.DiscordUsername, &p.Email, &p.LToken, &p.SkinColor, &p.FarmerLvl,
		&p.FarmerXP, &p.MinerLvl, &p.MinerXP, &p.AdventurerLvl, &p.AdventurerXP,
		&p.PunchID); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("loading peers row for %s: %w", name, err)
	}

	rows, err := s.Peers.Query(`SELECT item_id, count FROM slots WHERE player_name = ?`, name)
	if err != nil {
		return nil, false, fmt.Errorf("loading slots for %s: %w", name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var slot player.Slot
		if err := rows.Scan(&slot.ItemID, &slot.Count); err != nil {
			return nil, false, fmt.Errorf("scanning slot for %s: %w", name, err)
		}
		p.Slots = append(p.Slots, slot)
	}

	equipRows, err := s.Peers.Query(`SELECT slot_index, item_id FROM equip WHERE player_name = ?`, name)
	if err != nil {
		return nil, false, fmt.Errorf("loading equip for %s: %w", name, err)
	}
	defer equipRows.Close()
	for equipRows.Next() {
		var idx int
		var itemID int32
		if err := equipRows.Scan(&idx, &itemID); err != nil {
			return nil, false, fmt.Errorf("scanning equip for %s: %w", name, err)
		}
		if idx >= 0 && idx < player.EquipSlots {
			p.Equipped[idx] = itemID
		}
	}

	return p, true, nil
}

// LoadPlayerByDiscordID resolves a player by their linked Discord id
// (spec §4.6.2 login priority rules).
func LoadPlayerByDiscordID(s *Store, discordID string) (p *player.Player, found bool, err error) {
	var name string
	row := s.Peers.QueryRow(`SELECT name FROM peers WHERE discord_id = ?`, discordID)
	if err := row.Scan(&name); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("resolving discord id %s: %w", discordID, err)
	}
	return LoadPlayer(s, name)
}
