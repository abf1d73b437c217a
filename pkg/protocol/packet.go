// Package protocol implements the fixed-size game packet and tagged variant
// list wire codec (spec.md §4.2, component C2). It is a pure library: no
// goroutines, no shared state, consumed only by the session core.
package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// TypeMarker is the sentinel first field of every GamePacket.
const TypeMarker int32 = 4

// legacyTypeMarker is the other value Decode accepts in the first field
// (spec §4.2: "first i32 is 4 or 10").
const legacyTypeMarker int32 = 10

// minPacketSize is the fixed 56-byte record plus the u32 trailing length.
const minPacketSize = 60

// Packet type discriminants the session core dispatches on (spec §4.6.2-§4.6.4).
const (
	PacketMove         int32 = 0
	PacketTileChange   int32 = 3
	PacketVisualEffect int32 = 8
	PacketDisconnect   int32 = 9
	PacketEquip        int32 = 10
	PacketDoorOrQuit   int32 = 7
)

// GamePacket is the fixed-size binary game packet (spec §4.2).
type GamePacket struct {
	PacketType int32
	NetID      int32
	UID        int32
	PeerState  int32
	Count      float32
	ID         int32
	PosX       float32
	PosY       float32
	SpeedX     float32
	SpeedY     float32
	Idk        int32
	PunchX     int32
	PunchY     int32

	Variants []Variant
}

// Encode serializes p to its wire form.
func (p *GamePacket) Encode() ([]byte, error) {
	var buf bytes.Buffer
	fields := []any{
		TypeMarker,
		p.PacketType,
		p.NetID,
		p.UID,
		p.PeerState,
		p.Count,
		p.ID,
		p.PosX,
		p.PosY,
		p.SpeedX,
		p.SpeedY,
		p.Idk,
		p.PunchX,
		p.PunchY,
	}
	for _, f := range fields {
		if err := binary.Write(&buf, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}

	if len(p.Variants) == 0 {
		if err := binary.Write(&buf, binary.LittleEndian, uint32(0)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	var variantBuf bytes.Buffer
	if err := EncodeVariants(&variantBuf, p.Variants); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(variantBuf.Len())); err != nil {
		return nil, err
	}
	buf.Write(variantBuf.Bytes())
	return buf.Bytes(), nil
}

// Decode parses a GamePacket from data. Buffers shorter than 60 bytes, or
// whose first i32 isn't 4 or 10, are rejected outright (spec §4.2).
func Decode(data []byte) (*GamePacket, error) {
	if len(data) < minPacketSize {
		return nil, fmt.Errorf("packet too short: %d bytes", len(data))
	}

	r := bytes.NewReader(data)
	var marker int32
	if err := binary.Read(r, binary.LittleEndian, &marker); err != nil {
		return nil, err
	}
	if marker != TypeMarker && marker != legacyTypeMarker {
		return nil, fmt.Errorf("unexpected type marker: %d", marker)
	}

	p := &GamePacket{}
	fields := []any{
		&p.PacketType, &p.NetID, &p.UID, &p.PeerState, &p.Count, &p.ID,
		&p.PosX, &p.PosY, &p.SpeedX, &p.SpeedY, &p.Idk, &p.PunchX, &p.PunchY,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, fmt.Errorf("reading fixed fields: %w", err)
		}
	}

	var trailingLen uint32
	if err := binary.Read(r, binary.LittleEndian, &trailingLen); err != nil {
		return nil, err
	}
	if trailingLen == 0 {
		return p, nil
	}
	if int(trailingLen) > r.Len() {
		return nil, fmt.Errorf("trailing length %d exceeds remaining buffer %d", trailingLen, r.Len())
	}

	trailing := make([]byte, trailingLen)
	if _, err := r.Read(trailing); err != nil {
		return nil, err
	}
	variants, err := DecodeVariants(trailing)
	if err != nil {
		return nil, fmt.Errorf("decoding variants: %w", err)
	}
	p.Variants = variants
	return p, nil
}
