package world

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/s2"
)

// action types that carry an extra-data trailer in the wire format
// (spec §4.4 to_bytes table).
var extraDataActionTypes = map[byte]struct{}{
	2: {}, 3: {}, 10: {}, 13: {}, 19: {}, 26: {}, 33: {}, 34: {},
}

func hasExtraData(actionType byte) bool {
	_, ok := extraDataActionTypes[actionType]
	return ok
}

// ToBytes serializes w into the client wire format (spec §4.4 "Wire
// serialization to clients"). actionTypeOf resolves a foreground item id's
// catalog action_type, needed to pick the per-tile trailer.
func ToBytes(w *World, actionTypeOf func(fgID uint16) byte) ([]byte, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint16(0x14)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(0x40)); err != nil {
		return nil, err
	}
	if err := writeString(&buf, w.Name); err != nil {
		return nil, err
	}
	for _, v := range []uint32{Width, Height, uint32(len(w.tiles))} {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	buf.Write(make([]byte, 5)) // pad

	for _, t := range w.tiles {
		actionType := actionTypeOf(t.FG)
		extra := hasExtraData(actionType)
		flags := uint16(t.State3) | uint16(t.State4)<<8
		if extra {
			flags |= 1
		}

		for _, v := range []uint16{t.FG, t.BG, 0, flags} {
			if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
				return nil, err
			}
		}

		if extra {
			if err := writeExtraData(&buf, actionType, t.Label); err != nil {
				return nil, err
			}
		}

		buf.Write(make([]byte, 12))
		for _, v := range []int32{0, 0} {
			if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
				return nil, err
			}
		}
		if err := binary.Write(&buf, binary.LittleEndian, uint16(41)); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.LittleEndian, uint16(0)); err != nil {
			return nil, err
		}
		for _, v := range []uint32{0, 0} {
			if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
				return nil, err
			}
		}
	}

	return buf.Bytes(), nil
}

func writeExtraData(buf *bytes.Buffer, actionType byte, label string) error {
	switch actionType {
	case 2, 26, 13:
		buf.WriteByte(0x01)
		if err := writeString(buf, label); err != nil {
			return err
		}
		buf.WriteByte(0)
	case 10:
		buf.WriteByte(0x02)
		if err := writeString(buf, label); err != nil {
			return err
		}
		return binary.Write(buf, binary.LittleEndian, int32(-1))
	case 3:
		buf.WriteByte(0x03)
		buf.WriteByte(0)
		for _, v := range []uint32{0, 0} {
			if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
				return err
			}
		}
		buf.Write(make([]byte, 8))
	case 19:
		buf.WriteByte(0x04)
		if err := binary.Write(buf, binary.LittleEndian, uint32(0)); err != nil {
			return err
		}
		buf.WriteByte(0)
	case 33, 34:
		buf.WriteByte(0)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

// durable format version. Bumped whenever the on-disk tile layout changes.
const durableVersion uint16 = 1

// Marshal produces the self-describing, uncompressed durable encoding of w
// (spec §4.4 "Durable serialization" — the caller compresses the result
// before writing it to storage).
func Marshal(w *World) ([]byte, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, durableVersion); err != nil {
		return nil, err
	}
	if err := writeString(&buf, w.Name); err != nil {
		return nil, err
	}
	if err := writeString(&buf, w.OwnerName); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, w.Owner); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(w.tiles))); err != nil {
		return nil, err
	}
	for _, t := range w.tiles {
		for _, v := range []uint16{t.FG, t.BG} {
			if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
				return nil, err
			}
		}
		buf.WriteByte(t.Hits)
		buf.WriteByte(t.State3)
		buf.WriteByte(t.State4)
		if err := writeString(&buf, t.Label); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.LittleEndian, t.LastTick); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Unmarshal reverses Marshal into name/ownerName/ownerID/tiles, building a
// fresh World.
func Unmarshal(data []byte) (*World, error) {
	r := bytes.NewReader(data)

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != durableVersion {
		return nil, fmt.Errorf("unsupported durable world version %d", version)
	}

	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	ownerName, err := readString(r)
	if err != nil {
		return nil, err
	}
	var ownerID int32
	if err := binary.Read(r, binary.LittleEndian, &ownerID); err != nil {
		return nil, err
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}

	w := &World{Name: name, OwnerName: ownerName, Owner: ownerID, tiles: make([]Tile, count)}
	for i := range w.tiles {
		var fg, bg uint16
		if err := binary.Read(r, binary.LittleEndian, &fg); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &bg); err != nil {
			return nil, err
		}
		var hits, s3, s4 byte
		for _, p := range []*byte{&hits, &s3, &s4} {
			if err := binary.Read(r, binary.LittleEndian, p); err != nil {
				return nil, err
			}
		}
		label, err := readString(r)
		if err != nil {
			return nil, err
		}
		var lastTick int64
		if err := binary.Read(r, binary.LittleEndian, &lastTick); err != nil {
			return nil, err
		}
		w.tiles[i] = Tile{FG: fg, BG: bg, Hits: hits, State3: s3, State4: s4, Label: label, LastTick: lastTick}
	}
	return w, nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := r.Read(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// CompressDurable marshals w and compresses it at S2's "better" level, the
// mid-level general-purpose dictionary-free tradeoff spec §4.4 calls for.
func CompressDurable(w *World) ([]byte, error) {
	raw, err := Marshal(w)
	if err != nil {
		return nil, err
	}
	return s2.EncodeBetter(nil, raw), nil
}

// DecompressDurable reverses CompressDurable.
func DecompressDurable(blob []byte) (*World, error) {
	raw, err := s2.Decode(nil, blob)
	if err != nil {
		return nil, fmt.Errorf("decompressing world blob: %w", err)
	}
	return Unmarshal(raw)
}
