package engine

import (
	"bytes"
	"encoding/binary"
	"hash/fnv"

	"github.com/pkg/errors"
)

const (
	// CurrentVersion is the only VLBC format version this loader accepts.
	CurrentVersion byte = 1

	// MaxPoolEntries and MaxCodeSize are the loader's configured ceilings.
	MaxPoolEntries = 65535
	MaxCodeSize    = 16 * 1024 * 1024
)

var vlbcMagic = [4]byte{'V', 'L', 'B', 'C'}

// poolEntry is one interned string: its bytes plus the FNV-1a-32 hash the
// interning step precomputes. The loader fills the hash in too, so a
// Module produced by Load and one produced by the Assembler are
// indistinguishable to anything reading the pool's Bytes()/Hash().
type poolEntry struct {
	bytes []byte
	hash  uint32
}

// StringPool is the constant-string pool shared by the loader (which fills
// it in while parsing a VLBC image) and the Assembler (which grows it on
// demand while interning literals and identifiers). A pool index doubles
// as both string storage and, via the VM's globals vector, the symbol
// table.
type StringPool struct {
	entries []poolEntry
	// buckets maps hash -> candidate indices, so interning does a
	// hash-bucket scan plus byte comparison instead of relying on Go's
	// built-in map[string] equality alone.
	buckets map[uint32][]uint32
}

// NewStringPool returns an empty pool ready for interning.
func NewStringPool() *StringPool {
	return &StringPool{buckets: make(map[uint32][]uint32)}
}

func fnv1a32(b []byte) uint32 {
	h := fnv.New32a()
	h.Write(b)
	return h.Sum32()
}

// Intern inserts s if not already present and returns its pool index.
// Duplicate strings — literal or bare identifier — return the existing
// index.
func (p *StringPool) Intern(s []byte) (uint32, error) {
	h := fnv1a32(s)
	for _, idx := range p.buckets[h] {
		if bytes.Equal(p.entries[idx].bytes, s) {
			return idx, nil
		}
	}

	if len(p.entries) >= MaxPoolEntries {
		return 0, ErrTooManyStrings
	}

	idx := uint32(len(p.entries))
	cp := make([]byte, len(s))
	copy(cp, s)
	p.entries = append(p.entries, poolEntry{bytes: cp, hash: h})
	p.buckets[h] = append(p.buckets[h], idx)
	return idx, nil
}

// Len returns the number of interned strings — also the number of global
// slots a Context sizes itself to at attach time.
func (p *StringPool) Len() uint32 { return uint32(len(p.entries)) }

// Bytes returns the raw content of pool entry idx.
func (p *StringPool) Bytes(idx uint32) ([]byte, bool) {
	if idx >= uint32(len(p.entries)) {
		return nil, false
	}
	return p.entries[idx].bytes, true
}

// Hash returns the precomputed FNV-1a-32 hash of pool entry idx.
func (p *StringPool) Hash(idx uint32) (uint32, bool) {
	if idx >= uint32(len(p.entries)) {
		return 0, false
	}
	return p.entries[idx].hash, true
}

// AppendRaw appends s as a new pool entry at the next positional index,
// without deduplicating against existing entries. Load uses this: the
// wire format declares an ordered sequence of string_count entries, each
// indexed by its own position, and a loaded image with two identical
// entries at different positions must keep both positions addressable.
// Intern's dedup-on-insert is for the Assembler, which is free to collapse
// repeated literals/identifiers as it builds a pool from scratch.
func (p *StringPool) AppendRaw(s []byte) (uint32, error) {
	if len(p.entries) >= MaxPoolEntries {
		return 0, ErrTooManyStrings
	}

	idx := uint32(len(p.entries))
	h := fnv1a32(s)
	cp := make([]byte, len(s))
	copy(cp, s)
	p.entries = append(p.entries, poolEntry{bytes: cp, hash: h})
	p.buckets[h] = append(p.buckets[h], idx)
	return idx, nil
}

// IndexOf returns the index of s if it is already interned, without
// inserting it.
func (p *StringPool) IndexOf(s []byte) (uint32, bool) {
	h := fnv1a32(s)
	for _, idx := range p.buckets[h] {
		if bytes.Equal(p.entries[idx].bytes, s) {
			return idx, true
		}
	}
	return 0, false
}

// Module is the immutable bundle a Load produces: a validated code buffer
// plus the string pool it references.
type Module struct {
	Version byte
	Pool    *StringPool
	Code    []byte
}

// Load parses a byte slice into a Module, enforcing the VLBC byte layout
// and its size bounds. The returned Module owns a private copy of code —
// it never aliases data after Load returns.
func Load(data []byte) (*Module, error) {
	if len(data) < 4 {
		return nil, errors.Wrap(ErrTruncated, "magic")
	}
	if !bytes.Equal(data[:4], vlbcMagic[:]) {
		return nil, ErrMagicMismatch
	}

	if len(data) < 5 {
		return nil, errors.Wrap(ErrTruncated, "version")
	}
	version := data[4]
	if version != CurrentVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "got %d, want %d", version, CurrentVersion)
	}

	offset := 5
	if len(data) < offset+4 {
		return nil, errors.Wrap(ErrTruncated, "string_count")
	}
	stringCount := binary.LittleEndian.Uint32(data[offset:])
	offset += 4

	if stringCount > MaxPoolEntries {
		return nil, ErrTooManyStrings
	}

	pool := NewStringPool()
	for i := uint32(0); i < stringCount; i++ {
		if len(data) < offset+4 {
			return nil, errors.Wrapf(ErrTruncated, "string %d length", i)
		}
		length := binary.LittleEndian.Uint32(data[offset:])
		offset += 4

		if uint64(offset)+uint64(length) > uint64(len(data)) {
			return nil, errors.Wrapf(ErrTruncated, "string %d body", i)
		}

		if _, err := pool.AppendRaw(data[offset : offset+int(length)]); err != nil {
			return nil, err
		}
		offset += int(length)
	}

	if len(data) < offset+4 {
		return nil, errors.Wrap(ErrTruncated, "code_size")
	}
	codeSize := binary.LittleEndian.Uint32(data[offset:])
	offset += 4

	if codeSize > MaxCodeSize {
		return nil, ErrCodeTooLarge
	}
	if uint64(offset)+uint64(codeSize) > uint64(len(data)) {
		return nil, errors.Wrap(ErrTruncated, "code body")
	}

	code := make([]byte, codeSize)
	copy(code, data[offset:offset+int(codeSize)])

	if err := ValidateCode(code, pool.Len()); err != nil {
		return nil, err
	}

	return &Module{Version: version, Pool: pool, Code: code}, nil
}

// Emit serializes a pool and a code buffer into a complete VLBC image,
// concatenating header, pool entries, code_size and code bytes in that
// order. The Assembler and any test asserting the assemble/disassemble
// round-trip invariant both funnel through this one function.
func Emit(pool *StringPool, code []byte) ([]byte, error) {
	if pool.Len() > MaxPoolEntries {
		return nil, ErrTooManyStrings
	}
	if len(code) > MaxCodeSize {
		return nil, ErrCodeTooLarge
	}

	var buf bytes.Buffer
	buf.Write(vlbcMagic[:])
	buf.WriteByte(CurrentVersion)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], pool.Len())
	buf.Write(u32[:])

	for i := uint32(0); i < pool.Len(); i++ {
		entryBytes, _ := pool.Bytes(i)
		binary.LittleEndian.PutUint32(u32[:], uint32(len(entryBytes)))
		buf.Write(u32[:])
		buf.Write(entryBytes)
	}

	binary.LittleEndian.PutUint32(u32[:], uint32(len(code)))
	buf.Write(u32[:])
	buf.Write(code)

	return buf.Bytes(), nil
}
