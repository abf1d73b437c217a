package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketRoundTrip(t *testing.T) {
	p := &GamePacket{
		PacketType: PacketMove,
		NetID:      7,
		UID:        1,
		PeerState:  0x100,
		Count:      125,
		ID:         18,
		PosX:       320,
		PosY:       640,
		SpeedX:     250,
		SpeedY:     1000,
		Idk:        0,
		PunchX:     -1,
		PunchY:     -1,
	}

	data, err := p.Encode()
	require.NoError(t, err)
	assert.Len(t, data, minPacketSize) // no variants -> exactly the fixed record

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, p.PacketType, got.PacketType)
	assert.Equal(t, p.NetID, got.NetID)
	assert.Equal(t, p.PosX, got.PosX)
	assert.Equal(t, p.PunchX, got.PunchX)
	assert.Empty(t, got.Variants)
}

func TestPacketRoundTripWithVariants(t *testing.T) {
	var b VariantBuilder
	b.Int32(42).String("hello").Float2(1, 2).Float3(1, 2, 3).Uint32(9).Float(3.5)

	p := &GamePacket{PacketType: PacketTileChange, Variants: b.Build()}
	data, err := p.Encode()
	require.NoError(t, err)
	assert.Greater(t, len(data), minPacketSize)

	got, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, got.Variants, 6)
	assert.Equal(t, byte(0), got.Variants[0].Index)
	assert.Equal(t, int32(42), got.Variants[0].I32)
	assert.Equal(t, "hello", got.Variants[1].Str)
	assert.Equal(t, [2]float32{1, 2}, got.Variants[2].F2)
	assert.Equal(t, [3]float32{1, 2, 3}, got.Variants[3].F3)
	assert.Equal(t, uint32(9), got.Variants[4].U32)
	assert.Equal(t, float32(3.5), got.Variants[5].F)
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	_, err := Decode(make([]byte, 10))
	assert.Error(t, err)
}

func TestDecodeRejectsWrongMarker(t *testing.T) {
	data := make([]byte, minPacketSize)
	data[0] = 99 // not 4 or 10
	_, err := Decode(data)
	assert.Error(t, err)
}

func TestDecodeAcceptsLegacyMarker(t *testing.T) {
	p := &GamePacket{PacketType: PacketMove}
	data, err := p.Encode()
	require.NoError(t, err)
	data[0] = byte(legacyTypeMarker)
	_, err = Decode(data)
	assert.NoError(t, err)
}
