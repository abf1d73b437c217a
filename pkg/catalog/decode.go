package catalog

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// xorKey is the repeating 16-byte name-obfuscation key. The key index for
// byte i of the name is (item_id + i) mod 16 — part of the wire contract,
// preserved verbatim from original_source/src/database/items_decoder.rs.
const xorKey = "PBG892FXX982ABC*"

// Load reads the binary item-definitions file at path and populates c.
// If the file is missing, c falls back to a minimal built-in catalog
// (spec §4.1 failure policy) and Load returns nil.
func Load(c *Catalog, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.WithField("path", path).Warn("items file missing, seeding minimal catalog")
			c.seedMinimal()
			return nil
		}
		return fmt.Errorf("opening items file: %w", err)
	}
	defer f.Close()

	r := &reader{r: f}

	version, err := r.u16()
	if err != nil {
		return fmt.Errorf("reading version: %w", err)
	}
	count, err := r.u32()
	if err != nil {
		return fmt.Errorf("reading count: %w", err)
	}

	for i := uint32(0); i < count; i++ {
		cfg, err := decodeRecord(r, version)
		if err != nil {
			return fmt.Errorf("decoding record %d: %w", i, err)
		}
		c.set(cfg)
	}

	logrus.WithFields(logrus.Fields{"version": version, "count": count}).Info("loaded item catalog")
	return nil
}

// reader sequentially decodes the little-endian item-definition layout.
type reader struct {
	r io.Reader
}

func (r *reader) byte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (r *reader) u16() (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func (r *reader) u32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (r *reader) skip(n int) error {
	if n <= 0 {
		return nil
	}
	_, err := io.CopyN(io.Discard, r.r, int64(n))
	return err
}

// str reads a u16-length-prefixed string with no decoding applied.
func (r *reader) str() (string, error) {
	n, err := r.u16()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// xorStr reads a u16-length-prefixed string and reverses the repeating-key
// XOR mask applied to item names, keyed by item_id.
func (r *reader) xorStr(itemID int32) (string, error) {
	n, err := r.u16()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return "", err
	}
	for i := range buf {
		keyIdx := (int(itemID) + i) % len(xorKey)
		buf[i] ^= xorKey[keyIdx]
	}
	return string(buf), nil
}

// decodeRecord reads one item-definition record at the given file version.
func decodeRecord(r *reader, version uint16) (ItemConfig, error) {
	var cfg ItemConfig

	id, err := r.u32()
	if err != nil {
		return cfg, err
	}
	cfg.ID = int32(id)

	// editable_type, item_category, action_type, hit_sound_type
	if _, err := r.byte(); err != nil {
		return cfg, err
	}
	if _, err := r.byte(); err != nil {
		return cfg, err
	}
	actionType, err := r.byte()
	if err != nil {
		return cfg, err
	}
	cfg.ActionType = actionType
	if _, err := r.byte(); err != nil {
		return cfg, err
	}

	name, err := r.xorStr(cfg.ID)
	if err != nil {
		return cfg, err
	}
	cfg.Name = name

	if _, err := r.str(); err != nil { // texture
		return cfg, err
	}
	if _, err := r.u32(); err != nil { // texture_hash
		return cfg, err
	}
	visualEffect, err := r.byte()
	if err != nil {
		return cfg, err
	}
	cfg.VisualEffect = visualEffect
	if _, err := r.u32(); err != nil { // val1
		return cfg, err
	}
	// texture_x/y/spread_type/is_stripey_wallpaper/collision_type
	if err := r.skip(5); err != nil {
		return cfg, err
	}

	rawBreakHits, err := r.byte()
	if err != nil {
		return cfg, err
	}
	if rawBreakHits != 0 && rawBreakHits%6 == 0 {
		cfg.HitsToBreak = rawBreakHits / 6
	} else {
		cfg.HitsToBreak = rawBreakHits
	}

	if _, err := r.u32(); err != nil { // drop_chance
		return cfg, err
	}
	clothingType, err := r.byte()
	if err != nil {
		return cfg, err
	}
	cfg.ClothingType = clothingType
	if _, err := r.u16(); err != nil { // rarity
		return cfg, err
	}
	if _, err := r.byte(); err != nil { // max_amount
		return cfg, err
	}
	if _, err := r.str(); err != nil { // extra_file
		return cfg, err
	}
	if _, err := r.u32(); err != nil { // extra_file_hash
		return cfg, err
	}
	if _, err := r.u32(); err != nil { // audio_volume
		return cfg, err
	}
	for i := 0; i < 4; i++ { // pet name/prefix/suffix/ability
		if _, err := r.str(); err != nil {
			return cfg, err
		}
	}
	if err := r.skip(12); err != nil { // seed/tree/color fields
		return cfg, err
	}
	if _, err := r.u32(); err != nil { // ingredients
		return cfg, err
	}
	if _, err := r.u32(); err != nil { // grow_time
		return cfg, err
	}
	if _, err := r.u16(); err != nil { // val2
		return cfg, err
	}
	rayman, err := r.u16()
	if err != nil {
		return cfg, err
	}
	cfg.Rayman = rayman
	for i := 0; i < 3; i++ { // extra_options, texture2, extra_options2
		if _, err := r.str(); err != nil {
			return cfg, err
		}
	}
	if err := r.skip(80); err != nil { // reserved
		return cfg, err
	}

	if err := decodeTrailers(r, version, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// decodeTrailers consumes the version-gated trailing fields in order, per
// spec §4.1. All must be consumed even when their values aren't retained,
// to keep the reader aligned on the next record.
func decodeTrailers(r *reader, version uint16, cfg *ItemConfig) error {
	if version >= 11 {
		opts, err := r.str()
		if err != nil {
			return err
		}
		cfg.PunchOptions = parsePunchOptions(opts)
	}
	if version >= 12 {
		if err := r.skip(13); err != nil {
			return err
		}
	}
	if version >= 13 {
		if err := r.skip(4); err != nil {
			return err
		}
	}
	if version >= 14 {
		if err := r.skip(4); err != nil {
			return err
		}
	}
	if version >= 15 {
		if err := r.skip(25); err != nil {
			return err
		}
		if _, err := r.str(); err != nil {
			return err
		}
	}
	if version >= 16 {
		if _, err := r.str(); err != nil {
			return err
		}
	}
	if version >= 17 {
		if err := r.skip(4); err != nil {
			return err
		}
	}
	if version >= 18 {
		if err := r.skip(4); err != nil {
			return err
		}
	}
	if version >= 19 {
		if err := r.skip(9); err != nil {
			return err
		}
	}
	if version >= 21 {
		if err := r.skip(2); err != nil {
			return err
		}
	}
	if version >= 22 {
		if _, err := r.str(); err != nil {
			return err
		}
	}
	if version >= 24 {
		if err := r.skip(5); err != nil {
			return err
		}
	}
	return nil
}

// parsePunchOptions parses the semicolon-separated key:value pairs recognized
// by spec §3 ("op_particle2:<int>", "op_audio:<path>"); unrecognized pairs
// are kept verbatim so callers can still inspect them.
func parsePunchOptions(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}
		out[kv[0]] = kv[1]
	}
	return out
}

// ParticleID returns the op_particle2 value from a record's punch options,
// if present.
func ParticleID(opts map[string]string) (int, bool) {
	v, ok := opts["op_particle2"]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// AudioPath returns the op_audio value from a record's punch options, if
// present.
func AudioPath(opts map[string]string) (string, bool) {
	v, ok := opts["op_audio"]
	return v, ok
}
