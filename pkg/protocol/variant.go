package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// VariantTag identifies the payload shape of one entry in a variant list
// (spec.md §4.2).
type VariantTag byte

const (
	VariantFloat  VariantTag = 0x01
	VariantString VariantTag = 0x02
	VariantFloat2 VariantTag = 0x03
	VariantFloat3 VariantTag = 0x04
	VariantUint32 VariantTag = 0x05
	VariantInt32  VariantTag = 0x09
)

// Variant is one tagged, index-ordered entry in a GamePacket's variant list.
type Variant struct {
	Index byte
	Tag   VariantTag

	F   float32
	Str string
	F2  [2]float32
	F3  [3]float32
	U32 uint32
	I32 int32
}

// VariantBuilder accumulates variants in construction order, assigning each
// one's Index as the running count — mirrors how the client-facing "variant
// list" events are built throughout the session core (OnSpawn, OnSetClothing,
// SetHasGrowID, ...).
type VariantBuilder struct {
	variants []Variant
}

func (b *VariantBuilder) next() byte {
	return byte(len(b.variants))
}

// Float appends a 32-bit float variant.
func (b *VariantBuilder) Float(v float32) *VariantBuilder {
	b.variants = append(b.variants, Variant{Index: b.next(), Tag: VariantFloat, F: v})
	return b
}

// String appends a length-prefixed string variant.
func (b *VariantBuilder) String(v string) *VariantBuilder {
	b.variants = append(b.variants, Variant{Index: b.next(), Tag: VariantString, Str: v})
	return b
}

// Float2 appends a two-float variant.
func (b *VariantBuilder) Float2(x, y float32) *VariantBuilder {
	b.variants = append(b.variants, Variant{Index: b.next(), Tag: VariantFloat2, F2: [2]float32{x, y}})
	return b
}

// Float3 appends a three-float variant.
func (b *VariantBuilder) Float3(x, y, z float32) *VariantBuilder {
	b.variants = append(b.variants, Variant{Index: b.next(), Tag: VariantFloat3, F3: [3]float32{x, y, z}})
	return b
}

// Uint32 appends an unsigned 32-bit integer variant.
func (b *VariantBuilder) Uint32(v uint32) *VariantBuilder {
	b.variants = append(b.variants, Variant{Index: b.next(), Tag: VariantUint32, U32: v})
	return b
}

// Int32 appends a signed 32-bit integer variant.
func (b *VariantBuilder) Int32(v int32) *VariantBuilder {
	b.variants = append(b.variants, Variant{Index: b.next(), Tag: VariantInt32, I32: v})
	return b
}

// Build returns the accumulated variant list.
func (b *VariantBuilder) Build() []Variant {
	return b.variants
}

// EncodeVariants writes variant_count followed by each variant's
// index/tag/payload. An empty list still writes a zero count byte; callers
// that want "no trailing section at all" should check len(variants) == 0
// before calling (GamePacket.Encode does this).
func EncodeVariants(w *bytes.Buffer, variants []Variant) error {
	if len(variants) > 255 {
		return fmt.Errorf("too many variants: %d", len(variants))
	}
	w.WriteByte(byte(len(variants)))
	for _, v := range variants {
		w.WriteByte(v.Index)
		w.WriteByte(byte(v.Tag))
		switch v.Tag {
		case VariantFloat:
			if err := binary.Write(w, binary.LittleEndian, v.F); err != nil {
				return err
			}
		case VariantString:
			if err := binary.Write(w, binary.LittleEndian, int32(len(v.Str))); err != nil {
				return err
			}
			w.WriteString(v.Str)
		case VariantFloat2:
			if err := binary.Write(w, binary.LittleEndian, v.F2); err != nil {
				return err
			}
		case VariantFloat3:
			if err := binary.Write(w, binary.LittleEndian, v.F3); err != nil {
				return err
			}
		case VariantUint32:
			if err := binary.Write(w, binary.LittleEndian, v.U32); err != nil {
				return err
			}
		case VariantInt32:
			if err := binary.Write(w, binary.LittleEndian, v.I32); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown variant tag: 0x%02x", v.Tag)
		}
	}
	return nil
}

// DecodeVariants parses a variant_count + variants buffer (the trailing
// section once the u32 trailing length has been consumed).
func DecodeVariants(data []byte) ([]Variant, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r := bytes.NewReader(data)
	countByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	variants := make([]Variant, 0, countByte)
	for i := 0; i < int(countByte); i++ {
		idx, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("variant %d index: %w", i, err)
		}
		tagByte, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("variant %d tag: %w", i, err)
		}
		v := Variant{Index: idx, Tag: VariantTag(tagByte)}
		switch v.Tag {
		case VariantFloat:
			if err := binary.Read(r, binary.LittleEndian, &v.F); err != nil {
				return nil, err
			}
		case VariantString:
			var length int32
			if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
				return nil, err
			}
			if length < 0 || length > int32(r.Len()) {
				return nil, fmt.Errorf("variant %d: string length out of range: %d", i, length)
			}
			buf := make([]byte, length)
			if _, err := r.Read(buf); err != nil {
				return nil, err
			}
			v.Str = string(buf)
		case VariantFloat2:
			if err := binary.Read(r, binary.LittleEndian, &v.F2); err != nil {
				return nil, err
			}
		case VariantFloat3:
			if err := binary.Read(r, binary.LittleEndian, &v.F3); err != nil {
				return nil, err
			}
		case VariantUint32:
			if err := binary.Read(r, binary.LittleEndian, &v.U32); err != nil {
				return nil, err
			}
		case VariantInt32:
			if err := binary.Read(r, binary.LittleEndian, &v.I32); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("variant %d: unknown tag 0x%02x", i, v.Tag)
		}
		variants = append(variants, v)
	}
	return variants, nil
}
