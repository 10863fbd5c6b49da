package wasi_snapshot_preview1

import (
	"encoding/binary"
	"os"

	"github.com/moonbitlang/wasm5go/internal/memory"
)

func isNotExist(err error) bool  { return os.IsNotExist(err) }
func isExist(err error) bool     { return os.IsExist(err) }
func isPermission(err error) bool { return os.IsPermission(err) }

// writeU32/writeU64/readU32/readU64 adapt memory.Memory's width-specific
// accessors to the raw little-endian layouts the WASI ABI specifies.

func writeU32(mem *memory.Memory, addr uint64, v uint32) bool { return mem.Write32(addr, v) }
func writeU64(mem *memory.Memory, addr uint64, v uint64) bool { return mem.Write64(addr, v) }

func readU32(mem *memory.Memory, addr uint64) (uint32, bool) { return mem.Read32(addr) }
func readU64(mem *memory.Memory, addr uint64) (uint64, bool) { return mem.Read64(addr) }

func writeBytes(mem *memory.Memory, addr uint64, b []byte) bool {
	dst := mem.Bytes()
	if addr+uint64(len(b)) > uint64(len(dst)) {
		return false
	}
	copy(dst[addr:], b)
	return true
}

func readBytes(mem *memory.Memory, addr uint64, n int) ([]byte, bool) {
	src := mem.Bytes()
	if addr+uint64(n) > uint64(len(src)) {
		return nil, false
	}
	out := make([]byte, n)
	copy(out, src[addr:addr+uint64(n)])
	return out, true
}

// Filetype constants, WASI-snapshot-preview1 numeric values.
const (
	filetypeUnknown         = 0
	filetypeBlockDevice     = 1
	filetypeCharacterDevice = 2
	filetypeDirectory       = 3
	filetypeRegularFile     = 4
	filetypeSocketDgram     = 5
	filetypeSocketStream    = 6
	filetypeSymbolicLink    = 7
)

// fdstatBytes lays out a 24-byte fdstat struct: fs_filetype (u8 @0),
// padding, fs_flags (u16 @2), padding, fs_rights_base (u64 @8),
// fs_rights_inheriting (u64 @16) — the canonical WASI byte-exact layout
// SPEC_FULL.md §4.I requires.
func fdstatBytes(filetype uint8, flags uint16, rightsBase, rightsInheriting uint64) []byte {
	b := make([]byte, 24)
	b[0] = filetype
	binary.LittleEndian.PutUint16(b[2:4], flags)
	binary.LittleEndian.PutUint64(b[8:16], rightsBase)
	binary.LittleEndian.PutUint64(b[16:24], rightsInheriting)
	return b
}

// filestatBytes lays out the 64-byte filestat struct: dev(u64@0),
// ino(u64@8), filetype(u8@16), nlink(u64@24), size(u64@32), atim(u64@40),
// mtim(u64@48), ctim(u64@56).
func filestatBytes(dev, ino uint64, filetype uint8, nlink, size uint64, atim, mtim, ctim uint64) []byte {
	b := make([]byte, 64)
	binary.LittleEndian.PutUint64(b[0:8], dev)
	binary.LittleEndian.PutUint64(b[8:16], ino)
	b[16] = filetype
	binary.LittleEndian.PutUint64(b[24:32], nlink)
	binary.LittleEndian.PutUint64(b[32:40], size)
	binary.LittleEndian.PutUint64(b[40:48], atim)
	binary.LittleEndian.PutUint64(b[48:56], mtim)
	binary.LittleEndian.PutUint64(b[56:64], ctim)
	return b
}

// prestatDirBytes lays out a prestat tagged union for the "dir" case:
// tag (u8 @0, 0 = preopentype dir), padding, pr_name_len (u32 @4).
func prestatDirBytes(nameLen uint32) []byte {
	b := make([]byte, 8)
	b[0] = 0
	binary.LittleEndian.PutUint32(b[4:8], nameLen)
	return b
}

// iovec is one WASI iovec/ciovec: buf pointer (u32) then buf length (u32).
type iovec struct {
	Buf    uint32
	BufLen uint32
}

func readIOVecs(mem *memory.Memory, iovsAddr uint64, iovsLen uint32) ([]iovec, bool) {
	out := make([]iovec, iovsLen)
	for i := range out {
		addr := iovsAddr + uint64(i)*8
		buf, ok := readU32(mem, addr)
		if !ok {
			return nil, false
		}
		bufLen, ok := readU32(mem, addr+4)
		if !ok {
			return nil, false
		}
		out[i] = iovec{Buf: buf, BufLen: bufLen}
	}
	return out, true
}
