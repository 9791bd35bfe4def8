// heap.go — the tracing garbage collector.
//
// WHAT THIS MODULE DOES
// =====================
// Every heap-resident record of the engine — objects (object.go), environment
// records and binding cells (env.go) — is owned by a Heap. Script Values hold
// non-owning handles; nothing outside the Heap frees anything. Reclamation is
// mark-and-sweep: starting from the root set, Trace is called on every
// reachable record, and everything left unmarked is unlinked, finalized, and
// counted as freed. Reference cycles (closures capturing objects that hold
// those same closures, prototype loops) are reclaimed like anything else.
//
// TRACE CONTRACT
// --------------
// A Collectible must visit, through Trace, EVERY reference it holds: property
// values, getters/setters, array elements, the prototype link, a function's
// captured environment, an environment's binding cells and parent. A missed
// edge makes the collector free live data; collector correctness is entirely
// the Trace implementations' responsibility.
//
// ROOTS & SAFE POINTS
// -------------------
// Roots are (a) root providers registered by the interpreter — the global
// object and the evaluator's active environment/value stacks — and (b)
// explicitly pinned records, used by native code that holds a handle across
// operations that may allocate. Collection never runs in the middle of an
// expression: the evaluator calls maybeCollect only at statement boundaries,
// where its shadow stacks describe liveness exactly. Hosts may also call
// Collect directly between evaluations.
//
// The collector is stop-the-world relative to the single evaluation thread
// and makes no finalization-order or promptness guarantees: Finalize runs at
// some collection after unreachability, possibly never (if the program ends
// first).
package volt

// Collectible is implemented by every heap-resident record.
type Collectible interface {
	// Trace visits every Collectible this record references.
	Trace(visit func(Collectible))
	// Finalize runs once when the record is swept. It must not resurrect
	// references or allocate.
	Finalize()
	header() *gcHeader
}

// gcHeader is embedded by heap-resident types; it links the record into the
// heap's allocation list and carries the mark bit.
type gcHeader struct {
	gcNext Collectible
	marked bool
}

func (h *gcHeader) header() *gcHeader { return h }

// HeapStats reports collector activity. Freed is the total number of records
// reclaimed over the heap's lifetime; tests use it to observe that cyclic
// garbage actually dies.
type HeapStats struct {
	Allocated   uint64 // records ever adopted
	Freed       uint64 // records ever swept
	Live        int    // records currently on the allocation list
	Collections uint64 // completed mark/sweep cycles
}

// Heap owns all engine-allocated records and decides when to collect.
type Heap struct {
	head      Collectible
	live      int
	threshold int

	providers []func(visit func(Collectible))
	pinned    map[Collectible]int

	stats HeapStats
}

// Collection is first considered once this many records are live; the
// threshold then adapts to the surviving population.
const gcInitialThreshold = 256

func NewHeap() *Heap {
	return &Heap{
		threshold: gcInitialThreshold,
		pinned:    map[Collectible]int{},
	}
}

// adopt links a freshly constructed record into the allocation list. All
// constructors in object.go/env.go call this; records never enter the heap
// any other way.
func (h *Heap) adopt(c Collectible) {
	c.header().gcNext = h.head
	h.head = c
	h.live++
	h.stats.Allocated++
}

// AddRootProvider registers a callback enumerating a set of roots. Providers
// are invoked on every collection; the interpreter registers one covering the
// global object and its evaluation stacks.
func (h *Heap) AddRootProvider(f func(visit func(Collectible))) {
	h.providers = append(h.providers, f)
}

// Pin marks a record as a root until a matching Unpin. Pins nest. Native code
// must pin any handle it keeps across a call back into the evaluator.
func (h *Heap) Pin(c Collectible) {
	if c != nil {
		h.pinned[c]++
	}
}

// Unpin releases one level of pinning.
func (h *Heap) Unpin(c Collectible) {
	if c == nil {
		return
	}
	if n := h.pinned[c]; n <= 1 {
		delete(h.pinned, c)
	} else {
		h.pinned[c] = n - 1
	}
}

// maybeCollect runs a collection if the live population crossed the adaptive
// threshold. Called by the evaluator at statement-boundary safe points.
func (h *Heap) maybeCollect() {
	if h.live >= h.threshold {
		h.Collect()
	}
}

// Collect performs one full stop-the-world mark/sweep cycle.
func (h *Heap) Collect() {
	// Mark phase: flood-fill from the root set. The visit closure doubles as
	// the recursion step handed to every Trace implementation; an explicit
	// work list keeps deep object graphs from overflowing the Go stack.
	var work []Collectible
	visit := func(c Collectible) {
		if c == nil {
			return
		}
		hd := c.header()
		if !hd.marked {
			hd.marked = true
			work = append(work, c)
		}
	}
	for _, p := range h.providers {
		p(visit)
	}
	for c := range h.pinned {
		visit(c)
	}
	for len(work) > 0 {
		c := work[len(work)-1]
		work = work[:len(work)-1]
		c.Trace(visit)
	}

	// Sweep phase: unlink unmarked records, finalize them, and clear mark
	// bits on survivors for the next cycle.
	var prev Collectible
	cur := h.head
	for cur != nil {
		hd := cur.header()
		next := hd.gcNext
		if hd.marked {
			hd.marked = false
			prev = cur
		} else {
			if prev == nil {
				h.head = next
			} else {
				prev.header().gcNext = next
			}
			hd.gcNext = nil
			cur.Finalize()
			h.live--
			h.stats.Freed++
		}
		cur = next
	}

	h.stats.Collections++

	// Adapt: leave headroom proportional to the surviving population.
	h.threshold = h.live * 2
	if h.threshold < gcInitialThreshold {
		h.threshold = gcInitialThreshold
	}
}

// Stats returns a snapshot of collector counters.
func (h *Heap) Stats() HeapStats {
	s := h.stats
	s.Live = h.live
	return s
}
