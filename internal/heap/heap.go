// Package heap implements the engine's tracing garbage collector for
// managed arrays and structs that live outside linear memory. See
// SPEC_FULL.md §4.B.
package heap

import "github.com/moonbitlang/wasm5go/internal/wasmval"

// ObjType distinguishes the two managed object shapes.
type ObjType uint8

const (
	// ObjTypeArray is a managed array: a length plus a flexible tail of
	// value slots.
	ObjTypeArray ObjType = iota
	// ObjTypeStruct is a managed struct: a field count plus a flexible
	// tail of value slots.
	ObjTypeStruct
)

// Object is one managed heap allocation. mark/age are GC bookkeeping;
// handle is the stable identity stored inside value slots in place of a
// raw pointer (see SPEC_FULL.md glossary "Handle").
type Object struct {
	handle  uint64
	TypeIdx uint32
	Kind    ObjType
	Length  int // element count (array) or field count (struct)
	Slots   []wasmval.Slot

	mark bool
	age  uint32
	next *Object
}

// Handle returns the stable identity of o, suitable for storing in a value
// slot via wasmval.FromU64 and recovering an *Object via Heap.Lookup.
func (o *Object) Handle() uint64 { return o.handle }

const (
	initialThreshold = 256
	// occupancyDoubleNum/occupancyDoubleDen is the fraction of the pointer
	// set that, once exceeded after a sweep, doubles gcThreshold.
	occupancyDoubleNum = 4 // i.e. more than half full
	occupancyDoubleDen = 8
)

// Heap is a mark-sweep collector, one per standalone Context (NewContext)
// or one shared by every Context of a Registry.
// It is not goroutine-safe; the single-threaded cooperative model in
// SPEC_FULL.md §5 means no lock is required.
type Heap struct {
	live     *Object // singly linked list of live objects
	set      *pointerSet
	byHandle map[uint64]*Object

	nextHandle  uint64
	allocCount  int
	gcThreshold int

	// roots
	stackRanges []stackRange
	globalRoots [][]wasmval.Slot

	// gcDisabled is the conservative fail-safe: once pointer-set growth
	// fails, further collections are skipped so a half-built mark phase
	// never frees a reachable object. Subsequent allocations still
	// succeed; they are simply never reclaimed.
	gcDisabled bool
}

type stackRange struct {
	slots []wasmval.Slot
}

// New constructs an empty Heap with the default allocation threshold.
func New() *Heap {
	return &Heap{
		set:         newPointerSet(),
		byHandle:    map[uint64]*Object{},
		gcThreshold: initialThreshold,
	}
}

// AllocArray allocates a zero-initialised managed array of the given
// length. It may trigger a collection first; it returns nil on exhaustion
// (the pointer set failed to grow), which the calling opcode translates
// into a trap.
func (h *Heap) AllocArray(typeIdx uint32, length int) *Object {
	return h.alloc(typeIdx, ObjTypeArray, length)
}

// AllocStruct allocates a zero-initialised managed struct with fieldCount
// fields. See AllocArray.
func (h *Heap) AllocStruct(typeIdx uint32, fieldCount int) *Object {
	return h.alloc(typeIdx, ObjTypeStruct, fieldCount)
}

func (h *Heap) alloc(typeIdx uint32, kind ObjType, n int) *Object {
	if n < 0 {
		n = 0
	}
	if h.allocCount >= h.gcThreshold && !h.gcDisabled {
		h.Collect()
	}
	h.nextHandle++
	obj := &Object{
		handle:  h.nextHandle,
		TypeIdx: typeIdx,
		Kind:    kind,
		Length:  n,
		Slots:   make([]wasmval.Slot, n),
		next:    h.live,
	}
	if !h.set.add(obj.handle) {
		// Pointer-set growth failed: conservative fail-safe disables GC
		// from now on rather than risk sweeping a half-registered graph.
		h.gcDisabled = true
		h.nextHandle--
		return nil
	}
	h.live = obj
	h.byHandle[obj.handle] = obj
	h.allocCount++
	return obj
}

// Lookup returns the live object with the given handle, or nil.
func (h *Heap) Lookup(handle uint64) *Object { return h.byHandle[handle] }

// IsManaged reports whether value looks like the handle of a currently
// live managed object: non-null, not a tagged funcref, and present in the
// pointer set. This is the cheap O(1) test the mark phase and the
// conservative root scan both use.
func (h *Heap) IsManaged(value wasmval.Slot) bool {
	if wasmval.IsNullRef(value) || wasmval.IsFuncref(value) {
		return false
	}
	return h.set.contains(value)
}

// PushStack registers a scoped GC root: the operand-stack range for one
// active top-level invocation. Call PopStack before returning.
func (h *Heap) PushStack(slots []wasmval.Slot) {
	h.stackRanges = append(h.stackRanges, stackRange{slots: slots})
}

// PopStack unregisters the most recently pushed stack range.
func (h *Heap) PopStack() {
	if n := len(h.stackRanges); n > 0 {
		h.stackRanges = h.stackRanges[:n-1]
	}
}

// SetGlobalsRoot registers a module's globals slice as the Heap's sole
// globals root, replacing any previously registered ones. Use this for a
// standalone instance with its own private Heap.
func (h *Heap) SetGlobalsRoot(globals []wasmval.Slot) { h.globalRoots = [][]wasmval.Slot{globals} }

// AddGlobalsRoot registers an additional module's globals slice as a GC
// root without disturbing previously registered ones. A Heap shared
// across a link group (see Registry) calls this once per linked
// instance, so the mark phase sees every instance's current globals
// live, not a snapshot frozen at link time.
func (h *Heap) AddGlobalsRoot(globals []wasmval.Slot) {
	h.globalRoots = append(h.globalRoots, globals)
}

// Collect runs a full stop-the-world mark-sweep: mark from roots with an
// explicit worklist (never host-stack recursion, so arbitrarily large
// object graphs cannot overflow), then sweep unmarked objects. If the
// pointer set is still more than half full after the sweep, gcThreshold
// doubles (SPEC_FULL.md §4.B).
func (h *Heap) Collect() {
	if h.gcDisabled {
		return
	}
	for o := h.live; o != nil; o = o.next {
		o.mark = false
	}

	var worklist []*Object
	mark := func(v wasmval.Slot) {
		if !h.IsManaged(v) {
			return
		}
		obj := h.byHandle[v]
		if obj == nil || obj.mark {
			return
		}
		obj.mark = true
		worklist = append(worklist, obj)
	}

	for _, r := range h.stackRanges {
		for _, v := range r.slots {
			mark(v)
		}
	}
	for _, root := range h.globalRoots {
		for _, v := range root {
			mark(v)
		}
	}
	for len(worklist) > 0 {
		obj := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, v := range obj.Slots {
			mark(v)
		}
	}

	var kept *Object
	liveCount := 0
	for o := h.live; o != nil; {
		next := o.next
		if o.mark {
			o.next = kept
			kept = o
			liveCount++
		} else {
			h.set.remove(o.handle)
			delete(h.byHandle, o.handle)
		}
		o = next
	}
	h.live = kept
	h.allocCount = 0

	if h.set.count*occupancyDoubleDen > h.set.capacity()*occupancyDoubleNum {
		h.gcThreshold *= 2
	}
}

// Len returns the number of currently live objects, for tests.
func (h *Heap) Len() int {
	n := 0
	for o := h.live; o != nil; o = o.next {
		n++
	}
	return n
}
