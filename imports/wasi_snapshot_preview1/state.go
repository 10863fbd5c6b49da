package wasi_snapshot_preview1

import (
	"os"
	"time"

	"github.com/moonbitlang/wasm5go/internal/memory"
	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
)

// Handler ids bound into module.Context.Handlers at runtime-context
// construction. The exact numeric assignment is this engine's own
// bookkeeping (SPEC_FULL.md §4.I only fixes the named surface, loosely
// describing the range as "8..47"); what matters is that the compiler
// and this table agree, which they do by construction since both come
// from Handlers().
const (
	HandlerArgsGet Errno = 8 + iota
	HandlerArgsSizesGet
	HandlerEnvironGet
	HandlerEnvironSizesGet
	HandlerFdRead
	HandlerFdWrite
	HandlerFdClose
	HandlerFdSeek
	HandlerFdTell
	HandlerFdPread
	HandlerFdPwrite
	HandlerFdPrestatGet
	HandlerFdPrestatDirName
	HandlerFdFdstatGet
	HandlerFdFdstatSetFlags
	HandlerFdFdstatSetRights
	HandlerFdFilestatGet
	HandlerFdFilestatSetSize
	HandlerFdFilestatSetTimes
	HandlerFdSync
	HandlerFdDatasync
	HandlerFdReaddir
	HandlerFdRenumber
	HandlerFdAdvise
	HandlerFdAllocate
	HandlerPathOpen
	HandlerPathFilestatGet
	HandlerPathFilestatSetTimes
	HandlerPathCreateDirectory
	HandlerPathRemoveDirectory
	HandlerPathUnlinkFile
	HandlerPathRename
	HandlerPathLink
	HandlerPathReadlink
	HandlerPathSymlink
	HandlerClockTimeGet
	HandlerClockResGet
	HandlerRandomGet
	HandlerSchedYield
	HandlerProcExit
	HandlerProcRaise
)

// fdEntry is one open file in the dynamic fd table (SPEC_FULL.md §4.I).
type fdEntry struct {
	file        *os.File
	isPreopen   bool
	preopenPath string
}

// State is the per-instance WASI state: preopens, the dynamic fd table,
// args/env, and the sticky proc_exit flag. It is not part of
// module.Context (which stays engine-core); a runtime context's
// module.Context.Handlers is wired to bound methods on a State at
// instantiation time.
type State struct {
	Args []string
	Env  []string

	fds    map[uint32]*fdEntry
	nextFd uint32

	start time.Time

	Exited   bool
	ExitCode uint32
}

// NewState constructs a State with stdio on fds 0-2 and the given
// directories preopened starting at fd 3, matching the WASI convention
// SPEC_FULL.md §4.I documents.
func NewState(args, env []string, preopenDirs []string) *State {
	s := &State{
		Args:  args,
		Env:   env,
		fds:   map[uint32]*fdEntry{},
		start: time.Now(),
	}
	s.fds[0] = &fdEntry{file: os.Stdin}
	s.fds[1] = &fdEntry{file: os.Stdout}
	s.fds[2] = &fdEntry{file: os.Stderr}
	s.nextFd = 3
	for _, dir := range preopenDirs {
		f, err := os.Open(dir)
		if err != nil {
			continue
		}
		s.fds[s.nextFd] = &fdEntry{file: f, isPreopen: true, preopenPath: dir}
		s.nextFd++
	}
	return s
}

func (s *State) alloc(f *os.File) uint32 {
	fd := s.nextFd
	s.nextFd++
	s.fds[fd] = &fdEntry{file: f}
	return fd
}

// Handlers returns the handler-id → module.HostFunc table to install on
// a module.Context's Handlers map.
func (s *State) Handlers() map[int]module.HostFunc {
	return map[int]module.HostFunc{
		int(HandlerArgsGet):             s.argsGet,
		int(HandlerArgsSizesGet):        s.argsSizesGet,
		int(HandlerEnvironGet):          s.environGet,
		int(HandlerEnvironSizesGet):     s.environSizesGet,
		int(HandlerFdRead):              s.fdRead,
		int(HandlerFdWrite):             s.fdWrite,
		int(HandlerFdClose):             s.fdClose,
		int(HandlerFdSeek):              s.fdSeek,
		int(HandlerFdTell):              s.fdTell,
		int(HandlerFdPread):             s.fdPread,
		int(HandlerFdPwrite):            s.fdPwrite,
		int(HandlerFdPrestatGet):        s.fdPrestatGet,
		int(HandlerFdPrestatDirName):    s.fdPrestatDirName,
		int(HandlerFdFdstatGet):         s.fdFdstatGet,
		int(HandlerFdFdstatSetFlags):    s.fdFdstatSetFlags,
		int(HandlerFdFdstatSetRights):   s.fdFdstatSetRights,
		int(HandlerFdFilestatGet):       s.fdFilestatGet,
		int(HandlerFdFilestatSetSize):   s.fdFilestatSetSize,
		int(HandlerFdFilestatSetTimes):  s.fdFilestatSetTimes,
		int(HandlerFdSync):              s.fdSync,
		int(HandlerFdDatasync):          s.fdDatasync,
		int(HandlerFdReaddir):           s.fdReaddir,
		int(HandlerFdRenumber):          s.fdRenumber,
		int(HandlerFdAdvise):            s.fdAdvise,
		int(HandlerFdAllocate):          s.fdAllocate,
		int(HandlerPathOpen):            s.pathOpen,
		int(HandlerPathFilestatGet):     s.pathFilestatGet,
		int(HandlerPathFilestatSetTimes): s.pathFilestatSetTimes,
		int(HandlerPathCreateDirectory): s.pathCreateDirectory,
		int(HandlerPathRemoveDirectory): s.pathRemoveDirectory,
		int(HandlerPathUnlinkFile):      s.pathUnlinkFile,
		int(HandlerPathRename):          s.pathRename,
		int(HandlerPathLink):            s.pathLink,
		int(HandlerPathReadlink):        s.pathReadlink,
		int(HandlerPathSymlink):         s.pathSymlink,
		int(HandlerClockTimeGet):        s.clockTimeGet,
		int(HandlerClockResGet):         s.clockResGet,
		int(HandlerRandomGet):           s.randomGet,
		int(HandlerSchedYield):          s.schedYield,
		int(HandlerProcExit):            s.procExit,
		int(HandlerProcRaise):           s.procRaise,
	}
}

// one wraps a single errno result the way every WASI call returns: all
// out-parameters travel through memory, so the wasm-level return value
// is always exactly one i32 errno.
func one(errno Errno) []wasmval.Slot { return []wasmval.Slot{wasmval.FromU32(errno)} }

func memOf(ctx *module.Context) *memory.Memory { return ctx.Memory }
