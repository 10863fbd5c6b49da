package wasi_snapshot_preview1

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
)

// resolvePath joins a preopened directory's host path with a guest
// relative path, rejecting escapes via "..".
func (s *State) resolvePath(dirfd uint32, mem []byte, pathPtr uint64, pathLen uint32) (string, Errno) {
	e, ok := s.lookup(dirfd)
	if !ok || !e.isPreopen {
		return "", ErrnoBadf
	}
	if pathPtr+uint64(pathLen) > uint64(len(mem)) {
		return "", ErrnoFault
	}
	rel := string(mem[pathPtr : pathPtr+uint64(pathLen)])
	joined := filepath.Join(e.preopenPath, rel)
	if rel2, err := filepath.Rel(e.preopenPath, joined); err != nil || rel2 == ".." || strings.HasPrefix(rel2, "../") {
		return "", ErrnoPerm
	}
	return joined, ErrnoSuccess
}

// pathOpen(fd, dirflags, path, path_len, oflags, rights_base,
// rights_inheriting: u64, fdflags: u16, result_fd: pointer) -> errno.
func (s *State) pathOpen(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	mem := memOf(ctx)
	path, errno := s.resolvePath(wasmval.AsU32(args[0]), mem.Bytes(), uint64(wasmval.AsU32(args[2])), wasmval.AsU32(args[3]))
	if errno != ErrnoSuccess {
		return one(errno)
	}
	oflags := wasmval.AsU32(args[4])
	const (
		oflagsCreat    = 1 << 0
		oflagsDirectory = 1 << 1
		oflagsExcl     = 1 << 2
		oflagsTrunc    = 1 << 3
	)
	flags := os.O_RDWR
	if oflags&oflagsCreat != 0 {
		flags |= os.O_CREATE
	}
	if oflags&oflagsExcl != 0 {
		flags |= os.O_EXCL
	}
	if oflags&oflagsTrunc != 0 {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return one(errnoFromOsError(err))
	}
	if oflags&oflagsDirectory != 0 {
		if fi, statErr := f.Stat(); statErr == nil && !fi.IsDir() {
			f.Close()
			return one(ErrnoNotdir)
		}
	}
	fd := s.alloc(f)
	if !writeU32(mem, uint64(wasmval.AsU32(args[8])), fd) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}

// pathFilestatGet(fd, flags, path, path_len, result_filestat: pointer) -> errno.
func (s *State) pathFilestatGet(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	mem := memOf(ctx)
	path, errno := s.resolvePath(wasmval.AsU32(args[0]), mem.Bytes(), uint64(wasmval.AsU32(args[2])), wasmval.AsU32(args[3]))
	if errno != ErrnoSuccess {
		return one(errno)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return one(errnoFromOsError(err))
	}
	mtime := uint64(fi.ModTime().UnixNano())
	b := filestatBytes(0, 0, statToFiletype(fi), 1, uint64(fi.Size()), mtime, mtime, mtime)
	if !writeBytes(mem, uint64(wasmval.AsU32(args[4])), b) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}

// pathFilestatSetTimes(fd, flags, path, path_len, atim, mtim: u64,
// fst_flags: u16) -> errno. Accepted as a no-op; this engine does not
// model explicit atime/mtime overrides.
func (s *State) pathFilestatSetTimes(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	_, errno := s.resolvePath(wasmval.AsU32(args[0]), memOf(ctx).Bytes(), uint64(wasmval.AsU32(args[2])), wasmval.AsU32(args[3]))
	if errno != ErrnoSuccess {
		return one(errno)
	}
	return one(ErrnoSuccess)
}

// pathCreateDirectory(fd, path, path_len) -> errno.
func (s *State) pathCreateDirectory(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	path, errno := s.resolvePath(wasmval.AsU32(args[0]), memOf(ctx).Bytes(), uint64(wasmval.AsU32(args[1])), wasmval.AsU32(args[2]))
	if errno != ErrnoSuccess {
		return one(errno)
	}
	if err := os.Mkdir(path, 0755); err != nil {
		return one(errnoFromOsError(err))
	}
	return one(ErrnoSuccess)
}

// pathRemoveDirectory(fd, path, path_len) -> errno.
func (s *State) pathRemoveDirectory(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	path, errno := s.resolvePath(wasmval.AsU32(args[0]), memOf(ctx).Bytes(), uint64(wasmval.AsU32(args[1])), wasmval.AsU32(args[2]))
	if errno != ErrnoSuccess {
		return one(errno)
	}
	if err := os.Remove(path); err != nil {
		return one(errnoFromOsError(err))
	}
	return one(ErrnoSuccess)
}

// pathUnlinkFile(fd, path, path_len) -> errno.
func (s *State) pathUnlinkFile(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	path, errno := s.resolvePath(wasmval.AsU32(args[0]), memOf(ctx).Bytes(), uint64(wasmval.AsU32(args[1])), wasmval.AsU32(args[2]))
	if errno != ErrnoSuccess {
		return one(errno)
	}
	if err := os.Remove(path); err != nil {
		return one(errnoFromOsError(err))
	}
	return one(ErrnoSuccess)
}

// pathRename(fd, old_path, old_path_len, new_fd, new_path, new_path_len) -> errno.
func (s *State) pathRename(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	mem := memOf(ctx)
	oldPath, errno := s.resolvePath(wasmval.AsU32(args[0]), mem.Bytes(), uint64(wasmval.AsU32(args[1])), wasmval.AsU32(args[2]))
	if errno != ErrnoSuccess {
		return one(errno)
	}
	newPath, errno := s.resolvePath(wasmval.AsU32(args[3]), mem.Bytes(), uint64(wasmval.AsU32(args[4])), wasmval.AsU32(args[5]))
	if errno != ErrnoSuccess {
		return one(errno)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return one(errnoFromOsError(err))
	}
	return one(ErrnoSuccess)
}

// pathLink(old_fd, old_flags, old_path, old_path_len, new_fd, new_path,
// new_path_len) -> errno.
func (s *State) pathLink(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	mem := memOf(ctx)
	oldPath, errno := s.resolvePath(wasmval.AsU32(args[0]), mem.Bytes(), uint64(wasmval.AsU32(args[2])), wasmval.AsU32(args[3]))
	if errno != ErrnoSuccess {
		return one(errno)
	}
	newPath, errno := s.resolvePath(wasmval.AsU32(args[4]), mem.Bytes(), uint64(wasmval.AsU32(args[5])), wasmval.AsU32(args[6]))
	if errno != ErrnoSuccess {
		return one(errno)
	}
	if err := os.Link(oldPath, newPath); err != nil {
		return one(errnoFromOsError(err))
	}
	return one(ErrnoSuccess)
}

// pathReadlink(fd, path, path_len, buf, buf_len, result_bufused: pointer) -> errno.
func (s *State) pathReadlink(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	mem := memOf(ctx)
	path, errno := s.resolvePath(wasmval.AsU32(args[0]), mem.Bytes(), uint64(wasmval.AsU32(args[1])), wasmval.AsU32(args[2]))
	if errno != ErrnoSuccess {
		return one(errno)
	}
	target, err := os.Readlink(path)
	if err != nil {
		return one(errnoFromOsError(err))
	}
	b := []byte(target)
	bufLen := wasmval.AsU32(args[4])
	if uint32(len(b)) > bufLen {
		b = b[:bufLen]
	}
	if !writeBytes(mem, uint64(wasmval.AsU32(args[3])), b) {
		return one(ErrnoFault)
	}
	if !writeU32(mem, uint64(wasmval.AsU32(args[5])), uint32(len(b))) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}

// pathSymlink(old_path, old_path_len, fd, new_path, new_path_len) -> errno.
func (s *State) pathSymlink(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	mem := memOf(ctx)
	oldTarget, ok := readBytes(mem, uint64(wasmval.AsU32(args[0])), int(wasmval.AsU32(args[1])))
	if !ok {
		return one(ErrnoFault)
	}
	newPath, errno := s.resolvePath(wasmval.AsU32(args[2]), mem.Bytes(), uint64(wasmval.AsU32(args[3])), wasmval.AsU32(args[4]))
	if errno != ErrnoSuccess {
		return one(errno)
	}
	if err := os.Symlink(string(oldTarget), newPath); err != nil {
		return one(errnoFromOsError(err))
	}
	return one(ErrnoSuccess)
}
