// Package store is the persistence layer: two SQLite databases (peers,
// worlds) plus a single background batching worker that owns both handles
// (spec.md §4.5, §6, component C5).
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store owns the two database handles the worker writes through.
type Store struct {
	Peers  *sql.DB
	Worlds *sql.DB
}

// Open opens (creating if absent) the peers and worlds SQLite files in WAL
// mode with synchronous NORMAL, and applies schema/migrations.
func Open(peersPath, worldsPath string) (*Store, error) {
	peers, err := openSQLite(peersPath)
	if err != nil {
		return nil, err
	}
	if err := applySchema(peers, peersSchema); err != nil {
		peers.Close()
		return nil, fmt.Errorf("peers schema: %w", err)
	}

	worlds, err := openSQLite(worldsPath)
	if err != nil {
		peers.Close()
		return nil, err
	}
	if err := applySchema(worlds, worldsSchema); err != nil {
		peers.Close()
		worlds.Close()
		return nil, fmt.Errorf("worlds schema: %w", err)
	}

	return &Store{Peers: peers, Worlds: worlds}, nil
}

// Close closes both database handles.
func (s *Store) Close() error {
	err1 := s.Peers.Close()
	err2 := s.Worlds.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
