package wasi_snapshot_preview1

import (
	"io"
	"os"

	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
)

func (s *State) lookup(fd uint32) (*fdEntry, bool) {
	e, ok := s.fds[fd]
	return e, ok
}

func statToFiletype(fi os.FileInfo) uint8 {
	switch {
	case fi.IsDir():
		return filetypeDirectory
	case fi.Mode()&os.ModeSymlink != 0:
		return filetypeSymbolicLink
	case fi.Mode()&os.ModeCharDevice != 0:
		return filetypeCharacterDevice
	default:
		return filetypeRegularFile
	}
}

// fdRead(fd, iovs, iovs_len, result_nread: pointer) -> errno.
func (s *State) fdRead(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	e, ok := s.lookup(wasmval.AsU32(args[0]))
	if !ok {
		return one(ErrnoBadf)
	}
	mem := memOf(ctx)
	iovs, ok := readIOVecs(mem, uint64(wasmval.AsU32(args[1])), wasmval.AsU32(args[2]))
	if !ok {
		return one(ErrnoFault)
	}
	var total uint32
	for _, v := range iovs {
		if v.BufLen == 0 {
			continue
		}
		buf := make([]byte, v.BufLen)
		n, err := e.file.Read(buf)
		if n > 0 {
			if !writeBytes(mem, uint64(v.Buf), buf[:n]) {
				return one(ErrnoFault)
			}
			total += uint32(n)
		}
		if err != nil {
			break
		}
	}
	if !writeU32(mem, uint64(wasmval.AsU32(args[3])), total) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}

// fdWrite(fd, iovs, iovs_len, result_nwritten: pointer) -> errno.
func (s *State) fdWrite(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	e, ok := s.lookup(wasmval.AsU32(args[0]))
	if !ok {
		return one(ErrnoBadf)
	}
	mem := memOf(ctx)
	iovs, ok := readIOVecs(mem, uint64(wasmval.AsU32(args[1])), wasmval.AsU32(args[2]))
	if !ok {
		return one(ErrnoFault)
	}
	var total uint32
	for _, v := range iovs {
		if v.BufLen == 0 {
			continue
		}
		b, ok := readBytes(mem, uint64(v.Buf), int(v.BufLen))
		if !ok {
			return one(ErrnoFault)
		}
		n, err := e.file.Write(b)
		total += uint32(n)
		if err != nil {
			return one(errnoFromOsError(err))
		}
	}
	if !writeU32(mem, uint64(wasmval.AsU32(args[3])), total) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}

// fdClose(fd) -> errno.
func (s *State) fdClose(_ *module.Context, args []wasmval.Slot) []wasmval.Slot {
	fd := wasmval.AsU32(args[0])
	e, ok := s.lookup(fd)
	if !ok {
		return one(ErrnoBadf)
	}
	delete(s.fds, fd)
	if fd <= 2 {
		return one(ErrnoSuccess)
	}
	if err := e.file.Close(); err != nil {
		return one(errnoFromOsError(err))
	}
	return one(ErrnoSuccess)
}

// fdSeek(fd, offset: i64, whence: u8, result_newoffset: pointer) -> errno.
func (s *State) fdSeek(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	e, ok := s.lookup(wasmval.AsU32(args[0]))
	if !ok {
		return one(ErrnoBadf)
	}
	offset := wasmval.AsI64(args[1])
	whence := wasmval.AsU32(args[2])
	var w int
	switch whence {
	case 0:
		w = io.SeekStart
	case 1:
		w = io.SeekCurrent
	case 2:
		w = io.SeekEnd
	default:
		return one(ErrnoInval)
	}
	newOff, err := e.file.Seek(offset, w)
	if err != nil {
		return one(errnoFromOsError(err))
	}
	if !writeU64(memOf(ctx), uint64(wasmval.AsU32(args[3])), uint64(newOff)) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}

// fdTell(fd, result_offset: pointer) -> errno.
func (s *State) fdTell(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	e, ok := s.lookup(wasmval.AsU32(args[0]))
	if !ok {
		return one(ErrnoBadf)
	}
	off, err := e.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return one(errnoFromOsError(err))
	}
	if !writeU64(memOf(ctx), uint64(wasmval.AsU32(args[1])), uint64(off)) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}

// fdPread(fd, iovs, iovs_len, offset: i64, result_nread: pointer) -> errno.
func (s *State) fdPread(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	e, ok := s.lookup(wasmval.AsU32(args[0]))
	if !ok {
		return one(ErrnoBadf)
	}
	mem := memOf(ctx)
	iovs, ok := readIOVecs(mem, uint64(wasmval.AsU32(args[1])), wasmval.AsU32(args[2]))
	if !ok {
		return one(ErrnoFault)
	}
	offset := wasmval.AsI64(args[3])
	var total uint32
	for _, v := range iovs {
		if v.BufLen == 0 {
			continue
		}
		buf := make([]byte, v.BufLen)
		n, err := e.file.ReadAt(buf, offset+int64(total))
		if n > 0 {
			if !writeBytes(mem, uint64(v.Buf), buf[:n]) {
				return one(ErrnoFault)
			}
			total += uint32(n)
		}
		if err != nil {
			break
		}
	}
	if !writeU32(mem, uint64(wasmval.AsU32(args[4])), total) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}

// fdPwrite(fd, iovs, iovs_len, offset: i64, result_nwritten: pointer) -> errno.
func (s *State) fdPwrite(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	e, ok := s.lookup(wasmval.AsU32(args[0]))
	if !ok {
		return one(ErrnoBadf)
	}
	mem := memOf(ctx)
	iovs, ok := readIOVecs(mem, uint64(wasmval.AsU32(args[1])), wasmval.AsU32(args[2]))
	if !ok {
		return one(ErrnoFault)
	}
	offset := wasmval.AsI64(args[3])
	var total uint32
	for _, v := range iovs {
		if v.BufLen == 0 {
			continue
		}
		b, ok := readBytes(mem, uint64(v.Buf), int(v.BufLen))
		if !ok {
			return one(ErrnoFault)
		}
		n, err := e.file.WriteAt(b, offset+int64(total))
		total += uint32(n)
		if err != nil {
			return one(errnoFromOsError(err))
		}
	}
	if !writeU32(mem, uint64(wasmval.AsU32(args[4])), total) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}

// fdPrestatGet(fd, result_prestat: pointer) -> errno. Only preopened
// directory fds have a prestat; everything else is ErrnoBadf.
func (s *State) fdPrestatGet(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	e, ok := s.lookup(wasmval.AsU32(args[0]))
	if !ok || !e.isPreopen {
		return one(ErrnoBadf)
	}
	b := prestatDirBytes(uint32(len(e.preopenPath)))
	if !writeBytes(memOf(ctx), uint64(wasmval.AsU32(args[1])), b) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}

// fdPrestatDirName(fd, path: pointer, path_len: u32) -> errno.
func (s *State) fdPrestatDirName(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	e, ok := s.lookup(wasmval.AsU32(args[0]))
	if !ok || !e.isPreopen {
		return one(ErrnoBadf)
	}
	pathLen := wasmval.AsU32(args[2])
	name := e.preopenPath
	if int(pathLen) < len(name) {
		return one(ErrnoNametoolong)
	}
	if !writeBytes(memOf(ctx), uint64(wasmval.AsU32(args[1])), []byte(name)) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}

func (s *State) fdstatFor(e *fdEntry) []byte {
	fi, err := e.file.Stat()
	ft := uint8(filetypeRegularFile)
	if err == nil {
		ft = statToFiletype(fi)
	}
	return fdstatBytes(ft, 0, ^uint64(0), ^uint64(0))
}

// fdFdstatGet(fd, result_fdstat: pointer) -> errno.
func (s *State) fdFdstatGet(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	e, ok := s.lookup(wasmval.AsU32(args[0]))
	if !ok {
		return one(ErrnoBadf)
	}
	if !writeBytes(memOf(ctx), uint64(wasmval.AsU32(args[1])), s.fdstatFor(e)) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}

// fdFdstatSetFlags(fd, flags: u16) -> errno. Flag mutation isn't modeled
// against *os.File; accepted as a no-op for any open fd.
func (s *State) fdFdstatSetFlags(_ *module.Context, args []wasmval.Slot) []wasmval.Slot {
	if _, ok := s.lookup(wasmval.AsU32(args[0])); !ok {
		return one(ErrnoBadf)
	}
	return one(ErrnoSuccess)
}

// fdFdstatSetRights(fd, rights_base, rights_inheriting: u64) -> errno.
// Rights are advisory only in this engine; accepted as a no-op.
func (s *State) fdFdstatSetRights(_ *module.Context, args []wasmval.Slot) []wasmval.Slot {
	if _, ok := s.lookup(wasmval.AsU32(args[0])); !ok {
		return one(ErrnoBadf)
	}
	return one(ErrnoSuccess)
}

// fdFilestatGet(fd, result_filestat: pointer) -> errno.
func (s *State) fdFilestatGet(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	e, ok := s.lookup(wasmval.AsU32(args[0]))
	if !ok {
		return one(ErrnoBadf)
	}
	fi, err := e.file.Stat()
	if err != nil {
		return one(errnoFromOsError(err))
	}
	mtime := uint64(fi.ModTime().UnixNano())
	b := filestatBytes(0, 0, statToFiletype(fi), 1, uint64(fi.Size()), mtime, mtime, mtime)
	if !writeBytes(memOf(ctx), uint64(wasmval.AsU32(args[1])), b) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}

// fdFilestatSetSize(fd, size: u64) -> errno.
func (s *State) fdFilestatSetSize(_ *module.Context, args []wasmval.Slot) []wasmval.Slot {
	e, ok := s.lookup(wasmval.AsU32(args[0]))
	if !ok {
		return one(ErrnoBadf)
	}
	if err := e.file.Truncate(int64(wasmval.AsU64(args[1]))); err != nil {
		return one(errnoFromOsError(err))
	}
	return one(ErrnoSuccess)
}

// fdFilestatSetTimes(fd, atim, mtim: u64, fst_flags: u16) -> errno. Not
// modeled against the host filesystem clock; accepted as a no-op.
func (s *State) fdFilestatSetTimes(_ *module.Context, args []wasmval.Slot) []wasmval.Slot {
	if _, ok := s.lookup(wasmval.AsU32(args[0])); !ok {
		return one(ErrnoBadf)
	}
	return one(ErrnoSuccess)
}

// fdSync(fd) -> errno.
func (s *State) fdSync(_ *module.Context, args []wasmval.Slot) []wasmval.Slot {
	e, ok := s.lookup(wasmval.AsU32(args[0]))
	if !ok {
		return one(ErrnoBadf)
	}
	if err := e.file.Sync(); err != nil {
		return one(errnoFromOsError(err))
	}
	return one(ErrnoSuccess)
}

// fdDatasync(fd) -> errno. Go has no fdatasync; fd_sync is the closest
// equivalent the standard library offers.
func (s *State) fdDatasync(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	return s.fdSync(ctx, args)
}

// fdReaddir(fd, buf, buf_len, cookie: u64, result_bufused: pointer) -> errno.
// Directory entries are rendered as a flat, non-resumable listing: cookie
// is ignored beyond treating non-zero as "already exhausted", matching
// this engine's single-shot readdir simplification.
func (s *State) fdReaddir(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	e, ok := s.lookup(wasmval.AsU32(args[0]))
	if !ok {
		return one(ErrnoBadf)
	}
	mem := memOf(ctx)
	bufPtr := uint64(wasmval.AsU32(args[1]))
	bufLen := wasmval.AsU32(args[2])
	cookie := wasmval.AsU64(args[3])
	resultPtr := uint64(wasmval.AsU32(args[4]))
	if cookie != 0 {
		if !writeU32(mem, resultPtr, 0) {
			return one(ErrnoFault)
		}
		return one(ErrnoSuccess)
	}
	names, err := e.file.Readdirnames(-1)
	if err != nil {
		return one(errnoFromOsError(err))
	}
	var out []byte
	for i, name := range names {
		entry := make([]byte, 24+len(name))
		nextCookie := uint64(i + 1)
		for b := 0; b < 8; b++ {
			entry[b] = byte(nextCookie >> (8 * b))
		}
		for b := 0; b < 4; b++ {
			entry[16+b] = byte(uint32(len(name)) >> (8 * b))
		}
		entry[20] = filetypeRegularFile
		copy(entry[24:], name)
		out = append(out, entry...)
	}
	if uint32(len(out)) > bufLen {
		out = out[:bufLen]
	}
	if !writeBytes(mem, bufPtr, out) {
		return one(ErrnoFault)
	}
	if !writeU32(mem, resultPtr, uint32(len(out))) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}

// fdRenumber(fd, to: u32) -> errno. Atomically moves fd onto the to slot,
// closing whatever previously occupied it unless that is stdin, stdout or
// stderr (fds 0-2), which are replaced without being closed.
func (s *State) fdRenumber(_ *module.Context, args []wasmval.Slot) []wasmval.Slot {
	from := wasmval.AsU32(args[0])
	to := wasmval.AsU32(args[1])
	e, ok := s.lookup(from)
	if !ok {
		return one(ErrnoBadf)
	}
	if old, ok := s.lookup(to); ok && to > 2 {
		_ = old.file.Close()
	}
	s.fds[to] = e
	delete(s.fds, from)
	return one(ErrnoSuccess)
}

// fdAdvise(fd, offset, len: u64, advice: u8) -> errno. No host-level
// readahead hint is applied; accepted as a no-op.
func (s *State) fdAdvise(_ *module.Context, args []wasmval.Slot) []wasmval.Slot {
	if _, ok := s.lookup(wasmval.AsU32(args[0])); !ok {
		return one(ErrnoBadf)
	}
	return one(ErrnoSuccess)
}

// fdAllocate(fd, offset, len: u64) -> errno. Implemented by extending the
// file to offset+len when that is larger than its current size.
func (s *State) fdAllocate(_ *module.Context, args []wasmval.Slot) []wasmval.Slot {
	e, ok := s.lookup(wasmval.AsU32(args[0]))
	if !ok {
		return one(ErrnoBadf)
	}
	want := int64(wasmval.AsU64(args[1]) + wasmval.AsU64(args[2]))
	fi, err := e.file.Stat()
	if err != nil {
		return one(errnoFromOsError(err))
	}
	if fi.Size() < want {
		if err := e.file.Truncate(want); err != nil {
			return one(errnoFromOsError(err))
		}
	}
	return one(ErrnoSuccess)
}
