// Package saves persists cartridge battery RAM (plus the MBC3 RTC tail,
// when present) to a ".sav" file next to the ROM, and full save states to
// a brotli-compressed ".state" file. Grounded on the teacher's
// pkg/emulator/saves.go Save/NewSave/LoadSave/Close shape, extended with
// an advisory file lock so two processes can't clobber the same battery
// file, and with the RTC tail format real Game Boy emulators append.
package saves

import (
	"fmt"
	"os"
	"time"

	"github.com/google/brotli/go/cbrotli"
)

// rtcTailSize is the 48-byte little-endian RTC tail format (eight
// uint32 register words: S, M, H, DL, DH, then latched S, M, H; an
// 8-byte unix timestamp of last save; 8 zero bytes) many emulators
// append after raw battery RAM for MBC3 cartridges with a clock.
const rtcTailSize = 48

// Battery is an open cartridge RAM save file.
type Battery struct {
	path string
	f    *os.File
	lock *flock
}

// Open opens (or creates) the ".sav" file for path, taking an advisory
// lock so a second instance pointed at the same ROM can't corrupt it.
func Open(path string, ramSize int, hasRTC bool) (*Battery, error) {
	size := ramSize
	if hasRTC {
		size += rtcTailSize
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("saves: open %s: %w", path, err)
	}

	lk, err := lockFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("saves: %s is locked by another process: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		lk.Unlock()
		f.Close()
		return nil, err
	}
	if info.Size() < int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			lk.Unlock()
			f.Close()
			return nil, err
		}
	}

	return &Battery{path: path, f: f, lock: lk}, nil
}

// Read loads ram bytes (and, if hasRTC, the 48-byte RTC tail) from the
// file into buffers owned by the caller.
func (b *Battery) Read(ram []byte, rtcTail []byte) error {
	if _, err := b.f.ReadAt(ram, 0); err != nil {
		return fmt.Errorf("saves: read ram: %w", err)
	}
	if rtcTail != nil {
		if _, err := b.f.ReadAt(rtcTail, int64(len(ram))); err != nil {
			return fmt.Errorf("saves: read rtc tail: %w", err)
		}
	}
	return nil
}

// Write flushes ram (and the RTC tail, if non-nil) back to disk.
func (b *Battery) Write(ram []byte, rtcTail []byte) error {
	if _, err := b.f.WriteAt(ram, 0); err != nil {
		return fmt.Errorf("saves: write ram: %w", err)
	}
	if rtcTail != nil {
		if _, err := b.f.WriteAt(rtcTail, int64(len(ram))); err != nil {
			return fmt.Errorf("saves: write rtc tail: %w", err)
		}
	}
	return b.f.Sync()
}

// Close releases the lock and closes the underlying file.
func (b *Battery) Close() error {
	b.lock.Unlock()
	return b.f.Close()
}

// EncodeRTCTail packs the eight RTC register words (five live, three
// latched, all 32-bit little-endian) followed by the current unix time
// as a 64-bit little-endian value into the fixed 48-byte tail; the last
// 8 bytes are zero.
func EncodeRTCTail(s, m, h, dl, dh, latchedS, latchedM, latchedH uint32) []byte {
	out := make([]byte, rtcTailSize)
	regs := []uint32{s, m, h, dl, dh, latchedS, latchedM, latchedH}
	for i, r := range regs {
		putUint32LE(out[i*4:], r)
	}
	now := uint64(time.Now().Unix())
	for i := 0; i < 8; i++ {
		out[32+i] = byte(now >> (8 * i))
	}
	return out
}

// DecodeRTCTail returns the eight register words EncodeRTCTail packed;
// the save timestamp is not returned.
func DecodeRTCTail(tail []byte) (s, m, h, dl, dh, latchedS, latchedM, latchedH uint32) {
	regs := make([]uint32, 8)
	for i := range regs {
		regs[i] = uint32LE(tail[i*4:])
	}
	return regs[0], regs[1], regs[2], regs[3], regs[4], regs[5], regs[6], regs[7]
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func uint32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// WriteState brotli-compresses a raw save-state snapshot and writes it to
// path. Full states are large (VRAM, all RAM banks, both palette RAM
// sets) and compress well, the same rationale the teacher's frame/audio
// streaming applies brotli for in pkg/display/web/player.go.
func WriteState(path string, raw []byte) error {
	compressed, err := cbrotli.Encode(raw, cbrotli.WriterOptions{Quality: 9})
	if err != nil {
		return fmt.Errorf("saves: brotli encode: %w", err)
	}
	return os.WriteFile(path, compressed, 0644)
}

// ReadState reads and decompresses a save state written by WriteState.
func ReadState(path string) ([]byte, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("saves: read %s: %w", path, err)
	}
	raw, err := cbrotli.Decode(compressed)
	if err != nil {
		return nil, fmt.Errorf("saves: brotli decode: %w", err)
	}
	return raw, nil
}
