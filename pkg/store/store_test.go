package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/StoreStation/tilehaven/pkg/player"
	"github.com/StoreStation/tilehaven/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "peers.db"), filepath.Join(dir, "worlds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenAppliesSchema(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Peers.Exec(`INSERT INTO peers (name) VALUES ('probe')`)
	assert.NoError(t, err)
	_, err = s.Worlds.Exec(`INSERT INTO worlds (name, data) VALUES ('probe', x'00')`)
	assert.NoError(t, err)
}

func TestSaveAndLoadPlayerRoundTrip(t *testing.T) {
	s := openTestStore(t)
	p := player.New("grow")
	p.Gems = 500
	p.Level = 3
	p.AddSlot(2, 10)
	p.Equipped[5] = 1068

	tx, err := s.Peers.Begin()
	require.NoError(t, err)
	require.NoError(t, SavePlayerTx(tx, p))
	require.NoError(t, tx.Commit())

	got, found, err := LoadPlayer(s, "grow")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, p.Gems, got.Gems)
	assert.Equal(t, p.Level, got.Level)
	assert.Equal(t, int32(10), got.SlotCount(2))
	assert.Equal(t, int32(1068), got.Equipped[5])
}

func TestLoadPlayerMissingReturnsNotFound(t *testing.T) {
	s := openTestStore(t)
	_, found, err := LoadPlayer(s, "nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSavePlayerElidesZeroCountSlots(t *testing.T) {
	s := openTestStore(t)
	p := player.New("grow")
	p.AddSlot(14, 1)
	p.AddSlot(14, -1) // drops back to zero, elided in-memory already

	tx, err := s.Peers.Begin()
	require.NoError(t, err)
	require.NoError(t, SavePlayerTx(tx, p))
	require.NoError(t, tx.Commit())

	got, _, err := LoadPlayer(s, "grow")
	require.NoError(t, err)
	assert.Zero(t, got.SlotCount(14))
}

func TestSaveAndLoadWorldRoundTrip(t *testing.T) {
	s := openTestStore(t)
	w := world.New("ALPHA")
	w.ClaimOwner("grow", 7)
	w.SetTile(1, 1, world.Tile{FG: 6, Label: "EXIT"})

	tx, err := s.Worlds.Begin()
	require.NoError(t, err)
	require.NoError(t, SaveWorldTx(tx, w))
	require.NoError(t, tx.Commit())

	got, found, err := LoadWorld(s, "ALPHA")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "grow", got.OwnerName)
	assert.Equal(t, w.Tile(1, 1), got.Tile(1, 1))
}

func TestWorkerFlushesOnTicker(t *testing.T) {
	s := openTestStore(t)
	w := NewWorker(s)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	w.UpdatePlayer(player.New("tickerplayer"))
	time.Sleep(flushInterval + 100*time.Millisecond)
	cancel()

	_, found, err := LoadPlayer(s, "tickerplayer")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestWorkerFlushesOnCloseBeforeInterval(t *testing.T) {
	s := openTestStore(t)
	w := NewWorker(s)

	ctx := context.Background()
	go w.Run(ctx)

	w.UpdatePlayer(player.New("closeplayer"))
	w.Close()
	w.Wait()

	_, found, err := LoadPlayer(s, "closeplayer")
	require.NoError(t, err)
	assert.True(t, found)
}
