package store

import (
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// peersSchema creates the peers.db tables (spec §6: "peers.db (tables
// peers, slots, equip)").
var peersSchema = []string{
	`CREATE TABLE IF NOT EXISTS peers (
		name TEXT PRIMARY KEY,
		role TEXT NOT NULL DEFAULT '',
		gems INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1,
		xp INTEGER NOT NULL DEFAULT 0,
		discord_id TEXT NOT NULL DEFAULT '',
		discord_username TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		ltoken TEXT NOT NULL DEFAULT '',
		skin_color INTEGER NOT NULL DEFAULT 0,
		farmer_lvl INTEGER NOT NULL DEFAULT 1,
		farmer_xp INTEGER NOT NULL DEFAULT 0,
		miner_lvl INTEGER NOT NULL DEFAULT 1,
		miner_xp INTEGER NOT NULL DEFAULT 0,
		adventurer_lvl INTEGER NOT NULL DEFAULT 1,
		adventurer_xp INTEGER NOT NULL DEFAULT 0,
		punch_id INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS slots (
		player_name TEXT NOT NULL,
		item_id INTEGER NOT NULL,
		count INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_slots_player ON slots(player_name)`,
	`CREATE TABLE IF NOT EXISTS equip (
		player_name TEXT NOT NULL,
		slot_index INTEGER NOT NULL,
		item_id INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_equip_player ON equip(player_name)`,
}

// worldsSchema creates the worlds.db table (spec §6: "worlds.db (table
// worlds(name PK, owner_name, owner, data BLOB))").
var worldsSchema = []string{
	`CREATE TABLE IF NOT EXISTS worlds (
		name TEXT PRIMARY KEY,
		owner_name TEXT NOT NULL DEFAULT '',
		owner INTEGER NOT NULL DEFAULT 0,
		data BLOB NOT NULL
	)`,
}

// tolerantColumns lists ALTER TABLE ADD COLUMN statements applied on every
// open; failures (column already exists) are ignored (spec §6: "tolerant
// ALTER TABLE ADD COLUMN migrations"). New columns get added here instead
// of bumping a migration version.
var tolerantColumns = []string{
	`ALTER TABLE peers ADD COLUMN punch_id INTEGER NOT NULL DEFAULT 0`,
}

func applySchema(db *sql.DB, statements []string) error {
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("applying schema statement %q: %w", stmt, err)
		}
	}
	for _, stmt := range tolerantColumns {
		if _, err := db.Exec(stmt); err != nil {
			logrus.WithError(err).Debug("tolerant column migration skipped (likely already applied)")
		}
	}
	return nil
}

func openSQLite(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging %s: %w", path, err)
	}
	return db, nil
}
