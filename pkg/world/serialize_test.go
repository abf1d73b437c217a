package world

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noActionTypes(uint16) byte { return 0 }

func TestToBytesHeaderAndTileCount(t *testing.T) {
	w := New("myworld")
	data, err := ToBytes(w, noActionTypes)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(data), 2+4+2+len("myworld")+4+4+4+5)
	assert.Equal(t, uint16(0x14), binary.LittleEndian.Uint16(data[0:2]))
	assert.Equal(t, uint32(0x40), binary.LittleEndian.Uint32(data[2:6]))

	nameLen := binary.LittleEndian.Uint16(data[6:8])
	assert.Equal(t, uint16(len("myworld")), nameLen)
	assert.Equal(t, "myworld", string(data[8:8+nameLen]))

	off := 8 + int(nameLen)
	assert.Equal(t, uint32(Width), binary.LittleEndian.Uint32(data[off:off+4]))
	assert.Equal(t, uint32(Height), binary.LittleEndian.Uint32(data[off+4:off+8]))
	assert.Equal(t, uint32(Width*Height), binary.LittleEndian.Uint32(data[off+8:off+12]))
}

func TestToBytesSetsExtraDataBitForSignActionType(t *testing.T) {
	w := New("w")
	w.SetTile(0, 0, Tile{FG: 500, Label: "hi"})
	actionTypes := func(id uint16) byte {
		if id == 500 {
			return 2 // sign
		}
		return 0
	}
	data, err := ToBytes(w, actionTypes)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	w := New("roundtrip")
	w.ClaimOwner("alice", 42)
	w.SetTile(1, 1, Tile{FG: 6, BG: 14, Hits: 1, Label: "EXIT"})

	data, err := Marshal(w)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, w.Name, got.Name)
	assert.Equal(t, "alice", got.OwnerName)
	assert.Equal(t, int32(42), got.Owner)
	assert.Equal(t, w.Tile(1, 1), got.Tile(1, 1))
}

func TestCompressDecompressDurableRoundTrip(t *testing.T) {
	w := New("compressed")
	w.SetTile(2, 2, Tile{FG: 4, Hits: 1})

	blob, err := CompressDurable(w)
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	got, err := DecompressDurable(blob)
	require.NoError(t, err)
	assert.Equal(t, w.Tile(2, 2), got.Tile(2, 2))
}

func TestUnmarshalRejectsWrongVersion(t *testing.T) {
	data := []byte{0xFF, 0xFF}
	_, err := Unmarshal(data)
	assert.Error(t, err)
}
