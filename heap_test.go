package volt

import (
	"testing"
)

func Test_Heap_Reclaims_Unreachable_Objects(t *testing.T) {
	ip := NewInterpreter()
	mustEvalPersistent(t, ip, `var keep = { a: 1 };`)
	before := ip.Heap().Stats()

	mustEvalPersistent(t, ip, `
		(function() {
			for (var i = 0; i < 50; i++) {
				var o = { idx: i, payload: [1, 2, 3] };
			}
		})();
	`)
	ip.Collect()
	after := ip.Heap().Stats()

	if after.Freed <= before.Freed {
		t.Fatalf("expected garbage to be freed, stats before=%+v after=%+v", before, after)
	}
	// Reachable data survives.
	wantNum(t, mustEvalPersistent(t, ip, `keep.a;`), 1)
}

func Test_Heap_Reclaims_Reference_Cycles(t *testing.T) {
	ip := NewInterpreter()
	mustEvalPersistent(t, ip, `
		(function() {
			var a = {};
			var b = { peer: a };
			a.peer = b;
			a.self = a;
		})();
	`)
	freedBefore := ip.Heap().Stats().Freed
	ip.Collect()
	freedAfter := ip.Heap().Stats().Freed
	if freedAfter < freedBefore+2 {
		t.Fatalf("cycle not reclaimed: freed %d -> %d", freedBefore, freedAfter)
	}
}

func Test_Heap_Closure_Environment_Cycle(t *testing.T) {
	// A closure captures an environment that holds the closure itself.
	ip := NewInterpreter()
	mustEvalPersistent(t, ip, `
		(function() {
			var self;
			self = function() { return self; };
		})();
	`)
	freedBefore := ip.Heap().Stats().Freed
	ip.Collect()
	if ip.Heap().Stats().Freed <= freedBefore {
		t.Fatal("closure/environment cycle not reclaimed")
	}
}

func Test_Heap_Live_Count_Is_Stable_Across_Collections(t *testing.T) {
	ip := NewInterpreter()
	ip.Collect()
	base := ip.Heap().Stats().Live
	ip.Collect()
	ip.Collect()
	if got := ip.Heap().Stats().Live; got != base {
		t.Fatalf("repeated collection changed live count: %d -> %d", base, got)
	}
}

func Test_Heap_Pin_Keeps_Object_Alive(t *testing.T) {
	ip := NewInterpreter()
	o := ip.NewObject()
	ip.Heap().Pin(o)
	o.SetOwn("tag", Str("pinned"))

	ip.Collect()
	if p, ok := o.getOwn("tag"); !ok || p.Value.strVal() != "pinned" {
		t.Fatal("pinned object lost its state after collection")
	}

	ip.Heap().Unpin(o)
	freedBefore := ip.Heap().Stats().Freed
	ip.Collect()
	if ip.Heap().Stats().Freed <= freedBefore {
		t.Fatal("unpinned unreachable object was not reclaimed")
	}
}

func Test_Heap_Stats_Counters_Accumulate(t *testing.T) {
	ip := NewInterpreter()
	st := ip.Heap().Stats()
	if st.Allocated == 0 {
		t.Fatal("builtin setup should have allocated objects")
	}
	if st.Allocated < uint64(st.Live) {
		t.Fatalf("allocated %d < live %d", st.Allocated, st.Live)
	}
	ip.Collect()
	if got := ip.Heap().Stats().Collections; got == 0 {
		t.Fatal("collection counter did not advance")
	}
}

func Test_Heap_GC_Builtin_Reports_Stats(t *testing.T) {
	ip := NewInterpreter()
	wantBool(t, mustEvalPersistent(t, ip, `
		var s = gc();
		typeof s.live === "number" && typeof s.freed === "number" &&
			typeof s.allocated === "number" && s.allocated > 0;
	`), true)
}

func Test_Heap_Values_Survive_Stress(t *testing.T) {
	// Enough churn to trigger automatic collections mid-evaluation; live
	// data referenced from the running program must never be swept.
	ip := NewInterpreter()
	v := mustEvalPersistent(t, ip, `
		var rows = [];
		for (var i = 0; i < 200; i++) {
			rows.push({ id: i, square: i * i });
			var junk = { big: [i, i + 1, i + 2] };
		}
		rows[199].square;
	`)
	wantNum(t, v, 199*199)
}

func Test_Heap_Program_Result_Survives_Collections(t *testing.T) {
	// The pending completion value has no script-reachable reference, so
	// it must be rooted while later statements allocate enough to force
	// collections.
	ip := NewInterpreter()
	v, err := ip.EvalSource(`
		({x: 42});
		var i = 0;
		while (i < 2000) {
			var junk = { n: i, pad: [i, i, i] };
			i = i + 1;
		}
	`)
	if err != nil {
		t.Fatal(err)
	}
	if v.Tag != VTObj {
		t.Fatalf("want object result, got %s", PrintValue(v))
	}
	p, ok := v.Obj().getOwn("x")
	if !ok || p.Value.numVal() != 42 {
		t.Fatal("result object was swept while later statements ran")
	}
	if st := ip.heap.Stats(); st.Collections == 0 {
		t.Fatal("loop did not trigger a collection; raise the iteration count")
	}
}
