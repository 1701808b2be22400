package tempo

import (
	"math"
	"testing"
	"time"
)

// countingAnimator wraps an Engine and counts constructions.
type countingAnimator struct {
	eng   *Engine
	calls int
}

func (c *countingAnimator) Animate(p Params, targets []Target) *Animation {
	c.calls++
	return c.eng.Animate(p, targets)
}

func (c *countingAnimator) Remove(a *Animation) {
	c.eng.Remove(a)
}

func scaleParams() Params {
	return Params{
		Properties: map[string]Keyframes{"scale": To(1.5)},
		Duration:   100 * ms,
		Easing:     "linear",
		Autoplay:   true,
	}
}

// --- Construction gating ---

func TestBridgeConstructsExactlyOnce(t *testing.T) {
	for _, n := range []int{1, 2, 10, 100} {
		ca := &countingAnimator{eng: NewEngine()}
		b := NewBridge(ca, scaleParams(), Fields{"scale": 1})
		constructed := 0
		for i := 0; i < n; i++ {
			if b.Tick() {
				constructed++
			}
			ca.eng.Advance(ms)
		}
		if ca.calls != 1 || constructed != 1 {
			t.Errorf("%d ticks: Animate called %d times, Tick reported %d, want 1 and 1", n, ca.calls, constructed)
		}
	}
}

func TestBridgeNotConstructedBeforeTick(t *testing.T) {
	ca := &countingAnimator{eng: NewEngine()}
	b := NewBridge(ca, scaleParams(), Fields{"scale": 1})

	v, a := b.Bind(scaleParams())
	if a != nil || b.Animation() != nil || b.Constructed() {
		t.Error("animation should not exist before the first tick")
	}
	if v["scale"] != 1 {
		t.Errorf("snapshot = %v, want scale 1", v)
	}
	if ca.calls != 0 {
		t.Errorf("Animate called %d times, want 0", ca.calls)
	}
}

func TestBridgeDefersUntilTargetResolves(t *testing.T) {
	ca := &countingAnimator{eng: NewEngine()}
	ref := &Ref[*mesh]{}
	p := Params{
		Targets:    ref,
		Properties: map[string]Keyframes{"rotX": To(4)},
		Duration:   time.Second,
		Easing:     "linear",
		Autoplay:   true,
	}
	b := NewBridge[Fields](ca, p)

	const k = 3
	for i := 0; i < k; i++ {
		if b.Tick() {
			t.Fatalf("tick %d constructed against an unresolved target", i+1)
		}
	}
	if ca.calls != 0 || b.deferrals != k {
		t.Fatalf("calls = %d deferrals = %d, want 0 and %d", ca.calls, b.deferrals, k)
	}

	ref.Current = &mesh{}
	if !b.Tick() {
		t.Fatal("tick after the target resolved should construct")
	}
	for i := 0; i < 5; i++ {
		b.Tick()
	}
	if ca.calls != 1 {
		t.Errorf("Animate called %d times, want 1", ca.calls)
	}

	ca.eng.Advance(500 * ms)
	if !near(ref.Current.RotX, 2) {
		t.Errorf("RotX = %v, want 2", ref.Current.RotX)
	}
}

func TestBridgeRedundantTickInSameFrame(t *testing.T) {
	ca := &countingAnimator{eng: NewEngine()}
	b := NewBridge(ca, scaleParams(), Fields{"scale": 1})

	b.Tick()
	b.Tick()
	ca.eng.Advance(50 * ms)
	b.Tick()

	if ca.calls != 1 {
		t.Errorf("Animate called %d times, want 1", ca.calls)
	}
	version := b.Cell().Version()
	snap, _ := b.Snapshot()

	// The engine's tick callback firing again for the same tick must not
	// publish a second snapshot.
	b.publish(b.Animation())
	if b.Cell().Version() != version || version != 1 {
		t.Errorf("version %d -> %d; want a single publish", version, b.Cell().Version())
	}
	again, _ := b.Snapshot()
	if !same(snap, again) {
		t.Error("snapshot identity changed without an engine tick")
	}
}

// --- Snapshots ---

func TestBridgeObjectSnapshot(t *testing.T) {
	eng := NewEngine()
	seed := Fields{"scale": 1}
	b := NewBridge(eng, scaleParams(), seed)

	before, ok := b.Snapshot()
	if !ok || before["scale"] != 1 {
		t.Fatalf("snapshot before tick = %v, %v; want scale 1", before, ok)
	}

	b.Tick()
	eng.Advance(100 * ms)

	after, _ := b.Snapshot()
	if after["scale"] != 1.5 {
		t.Errorf("snapshot after tick = %v, want scale 1.5", after)
	}
	if same(before, after) {
		t.Error("published snapshot should be a new map")
	}
	if seed["scale"] != 1 {
		t.Errorf("default state was mutated: %v", seed)
	}
	if same(Fields(after), b.mirrorTgt) {
		t.Error("the mirror itself must never be published")
	}
}

func TestBridgeSnapshotIdentityChangesEveryTick(t *testing.T) {
	eng := NewEngine()
	b := NewBridge(eng, scaleParams(), Fields{"scale": 1})
	b.Tick()

	prev, _ := b.Snapshot()
	for i := 0; i < 4; i++ {
		eng.Advance(10 * ms)
		cur, _ := b.Snapshot()
		if same(prev, cur) {
			t.Fatalf("tick %d published the previous reference", i+1)
		}
		prev = cur
	}
	if b.Cell().Version() != 4 {
		t.Errorf("version = %d, want 4", b.Cell().Version())
	}
}

func TestBridgeWithoutDefaultState(t *testing.T) {
	eng := NewEngine()
	target := Fields{"scale": 1}
	p := scaleParams()
	p.Targets = target
	b := NewBridge[Fields](eng, p)

	if v, ok := b.Snapshot(); ok || v != nil {
		t.Errorf("snapshot before tick = %v, %v; want nil, false", v, ok)
	}
	b.Tick()
	eng.Advance(50 * ms)
	if v, ok := b.Snapshot(); ok || v != nil {
		t.Errorf("snapshot after tick = %v, %v; want nil, false", v, ok)
	}
	if !near(target["scale"], 1.25) {
		t.Errorf("caller target scale = %v, want 1.25", target["scale"])
	}
	targets, _ := b.Targets()
	if len(targets) != 1 {
		t.Errorf("targets = %d, want only the caller target", len(targets))
	}
}

func TestBridgeScalarSnapshot(t *testing.T) {
	eng := NewEngine()
	p := Params{
		Properties: map[string]Keyframes{"value": To(10)},
		Duration:   100 * ms,
		Easing:     "linear",
		Autoplay:   true,
	}
	b := NewBridge(eng, p, 0.0)
	b.Tick()

	eng.Advance(50 * ms)
	if v, _ := b.Snapshot(); !near(v, 5) {
		t.Errorf("snapshot = %v, want 5", v)
	}
	eng.Advance(50 * ms)
	if v, _ := b.Snapshot(); v != 10 {
		t.Errorf("snapshot = %v, want 10", v)
	}
}

func TestBridgeScalarEqualValueDoesNotPropagate(t *testing.T) {
	eng := NewEngine()
	p := Params{
		Properties: map[string]Keyframes{"value": To(3)},
		Duration:   100 * ms,
		Easing:     "linear",
		Autoplay:   true,
		Loop:       LoopForever,
	}
	updates := 0
	p.Update = func(*Animation) { updates++ }
	b := NewBridge(eng, p, 3.0)
	b.Tick()
	for i := 0; i < 5; i++ {
		eng.Advance(10 * ms)
		b.Tick()
	}
	if b.Cell().Version() != 0 {
		t.Errorf("version = %d, want 0 for an unchanged number", b.Cell().Version())
	}
	if updates != 5 {
		t.Errorf("caller Update calls = %d, want one per engine tick", updates)
	}
}

type scaleState struct {
	Scale float64
}

func TestBridgeStructPointerSnapshot(t *testing.T) {
	eng := NewEngine()
	seed := &scaleState{Scale: 1}
	b := NewBridge(eng, scaleParams(), seed)
	b.Tick()

	eng.Advance(50 * ms)
	first, _ := b.Snapshot()
	eng.Advance(50 * ms)
	second, _ := b.Snapshot()

	if first == seed || second == seed || first == second {
		t.Error("every tick should publish a new pointer")
	}
	if first == b.current() || second == b.current() {
		t.Error("the mirror pointer must never be published")
	}
	if !near(first.Scale, 1.25) || second.Scale != 1.5 {
		t.Errorf("scales = %v, %v; want 1.25, 1.5", first.Scale, second.Scale)
	}
	if seed.Scale != 1 {
		t.Errorf("default state was mutated: %v", seed.Scale)
	}
}

func TestBridgeSnapshotDecidedByDynamicType(t *testing.T) {
	eng := NewEngine()
	var seed any = Fields{"scale": 1}
	b := NewBridge(eng, scaleParams(), seed)
	b.Tick()

	eng.Advance(50 * ms)
	first, _ := b.Snapshot()
	eng.Advance(10 * ms)
	second, _ := b.Snapshot()

	f1, ok1 := first.(Fields)
	f2, ok2 := second.(Fields)
	if !ok1 || !ok2 {
		t.Fatalf("snapshots are %T and %T, want Fields", first, second)
	}
	if same(f1, f2) {
		t.Error("map held in an interface should still be copied per tick")
	}
}

func TestBridgeInterfaceStateKinds(t *testing.T) {
	scaleOf := func(v any) float64 {
		switch v := v.(type) {
		case Fields:
			return v["scale"]
		case float64:
			return v
		case scaleState:
			return v.Scale
		case *scaleState:
			return v.Scale
		}
		return math.NaN()
	}
	ptrSeed := &scaleState{Scale: 1}
	tests := []struct {
		name string
		seed any
	}{
		{"map", Fields{"scale": 1}},
		{"float64", 1.0},
		{"struct value", scaleState{Scale: 1}},
		{"struct pointer", ptrSeed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := NewEngine()
			b := NewBridge[any](eng, scaleParams(), tt.seed)
			b.Tick()
			eng.Advance(50 * ms)

			snap, ok := b.Snapshot()
			if !ok {
				t.Fatal("snapshot should be available")
			}
			if got := scaleOf(snap); !near(got, 1.25) {
				t.Errorf("snapshot scale = %v, want 1.25", got)
			}
			if got := scaleOf(tt.seed); got != 1 {
				t.Errorf("default state was mutated: %v", got)
			}
			if snap == any(ptrSeed) {
				t.Error("struct pointer snapshot should be a new pointer")
			}
		})
	}
}

func TestBridgeRejectsUnanimatableState(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a string default state")
		}
	}()
	NewBridge(NewEngine(), scaleParams(), "scale")
}

// --- Tick callback ordering ---

func TestBridgePublishesBeforeCallerUpdate(t *testing.T) {
	eng := NewEngine()
	var b *Bridge[Fields]
	var seen []float64
	var mirrored []float64
	calls := 0

	p := scaleParams()
	p.Update = func(a *Animation) {
		calls++
		snap, _ := b.Snapshot()
		seen = append(seen, snap["scale"])
		mirrored = append(mirrored, b.current()["scale"])
		if a != b.Animation() {
			t.Error("caller Update should receive the engine's own argument")
		}
	}
	b = NewBridge(eng, p, Fields{"scale": 1})
	b.Tick()

	eng.Advance(25 * ms)
	eng.Advance(25 * ms)

	if calls != 2 {
		t.Fatalf("caller Update calls = %d, want 2", calls)
	}
	for i := range seen {
		if seen[i] != mirrored[i] {
			t.Errorf("tick %d: callback saw snapshot %v, mirror is %v", i+1, seen[i], mirrored[i])
		}
	}
}

func TestBridgeLifecycleCallbacksPassThrough(t *testing.T) {
	eng := NewEngine()
	var began, completed int
	p := scaleParams()
	p.Begin = func(*Animation) { began++ }
	p.Complete = func(*Animation) { completed++ }
	var events []EventType

	b := NewBridge(eng, p, Fields{"scale": 1})
	b.notify = func(et EventType, _ *Animation) { events = append(events, et) }
	b.Tick()
	eng.Advance(100 * ms)

	if began != 1 || completed != 1 {
		t.Errorf("began = %d completed = %d, want 1 and 1", began, completed)
	}
	want := []EventType{EventConstructed, EventBegan, EventLoopBegan, EventCompleted}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, events[i], want[i])
		}
	}
}

// --- Target memoization ---

// countingResolver counts how often a composition asked it for its target.
type countingResolver struct {
	target Target
	calls  int
}

func (r *countingResolver) Resolve() (Target, bool) {
	r.calls++
	if r.target == nil {
		return nil, false
	}
	return r.target, true
}

func TestBridgeTargetsMemoizedOnIdentity(t *testing.T) {
	eng := NewEngine()
	cr := &countingResolver{target: Fields{"scale": 2}}
	p := scaleParams()
	p.Targets = []any{cr}
	b := NewBridge(eng, p, Fields{"scale": 1})

	first, _ := b.Targets()
	q := p
	q.Duration = 5 * time.Second // unrelated change
	b.SetParams(q)
	second, _ := b.Targets()
	if cr.calls != 1 {
		t.Errorf("compositions = %d, want 1 when only unrelated params change", cr.calls)
	}
	if &first[0] != &second[0] {
		t.Error("memoized target list should be reused")
	}
	if !same(first[0], b.mirrorTgt) {
		t.Error("mirror should be the first target")
	}

	q.Targets = []any{cr} // new identity
	b.SetParams(q)
	b.Targets()
	if cr.calls != 2 {
		t.Errorf("compositions = %d, want 2 after Targets identity changed", cr.calls)
	}
}

func TestBridgeUnresolvedCompositionIsRetried(t *testing.T) {
	cr := &countingResolver{}
	p := scaleParams()
	p.Targets = cr
	b := NewBridge(NewEngine(), p, Fields{"scale": 1})

	b.Tick()
	b.Tick()
	if cr.calls != 2 {
		t.Errorf("compositions = %d, want a retry per tick while unresolved", cr.calls)
	}
	cr.target = Fields{"scale": 0}
	b.Tick()
	b.Tick()
	if cr.calls != 3 {
		t.Errorf("compositions = %d, want 3", cr.calls)
	}
}

// --- Control calls and release ---

func TestBridgeControlCallsDoNotReconstruct(t *testing.T) {
	ca := &countingAnimator{eng: NewEngine()}
	b := NewBridge(ca, scaleParams(), Fields{"scale": 1})
	b.Tick()
	a := b.Animation()

	ca.eng.Advance(50 * ms)
	a.Play()
	a.Reverse()
	ca.eng.Advance(10 * ms)
	a.Reverse()
	a.Restart()
	b.Tick()

	if ca.calls != 1 || b.Animation() != a {
		t.Errorf("calls = %d, animation replaced = %v; want 1 and false", ca.calls, b.Animation() != a)
	}
	if a.CurrentTime() != 0 || a.Began() {
		t.Errorf("after Restart: time = %v began = %v", a.CurrentTime(), a.Began())
	}
	ca.eng.Advance(50 * ms)
	if snap, _ := b.Snapshot(); !near(snap["scale"], 1.25) {
		t.Errorf("snapshot = %v, want scale 1.25", snap)
	}
}

func TestBridgeReleaseStopsPublishing(t *testing.T) {
	ca := &countingAnimator{eng: NewEngine()}
	userCalls := 0
	p := scaleParams()
	p.Update = func(*Animation) { userCalls++ }
	b := NewBridge(ca, p, Fields{"scale": 1})
	b.Tick()
	ca.eng.Advance(10 * ms)

	b.Release()
	b.Release() // idempotent
	version := b.Cell().Version()

	ca.eng.Advance(10 * ms)
	// A stale callback invocation after release must be a no-op.
	b.Animation().params.Update(b.Animation())

	if b.Cell().Version() != version {
		t.Error("released bridge published a snapshot")
	}
	if userCalls != 1 {
		t.Errorf("caller Update calls = %d, want 1", userCalls)
	}
	if ca.eng.Len() != 0 {
		t.Errorf("engine still holds %d animations", ca.eng.Len())
	}
	if b.Tick() || ca.calls != 1 {
		t.Error("released bridge must not construct again")
	}
}

func TestBridgeReleaseOnFinishingTickSilencesLaterCallbacks(t *testing.T) {
	eng := NewEngine()
	var b *Bridge[Fields]
	released := false
	var loopCompletes, completes int
	p := scaleParams()
	p.Update = func(a *Animation) {
		if a.Progress() >= 1 {
			b.Release()
			released = true
		}
	}
	p.LoopComplete = func(*Animation) {
		if released {
			loopCompletes++
		}
	}
	p.Complete = func(*Animation) {
		if released {
			completes++
		}
	}
	b = NewBridge(eng, p, Fields{"scale": 1})
	b.Tick()
	eng.Advance(50 * ms)
	eng.Advance(50 * ms)

	if !released {
		t.Fatal("Update should have seen the finishing tick")
	}
	if loopCompletes != 0 || completes != 0 {
		t.Errorf("after release: LoopComplete = %d, Complete = %d; want 0 and 0", loopCompletes, completes)
	}
}

func TestBridgePublishesControlWritesOnNextTick(t *testing.T) {
	eng := NewEngine()
	b := NewBridge(eng, scaleParams(), Fields{"scale": 1})
	b.Tick()
	eng.Advance(50 * ms)
	a := b.Animation()

	a.Pause()
	a.Seek(80 * ms)
	if snap, _ := b.Snapshot(); !near(snap["scale"], 1.25) {
		t.Fatalf("snapshot = %v before the next frame, want scale 1.25", snap)
	}
	version := b.Cell().Version()

	b.Tick()
	if snap, _ := b.Snapshot(); !near(snap["scale"], 1.4) {
		t.Errorf("snapshot = %v after Seek, want scale 1.4", snap)
	}
	b.Tick()
	if b.Cell().Version() != version+1 {
		t.Errorf("version = %d, want exactly one publish for the seek", b.Cell().Version())
	}

	a.Restart()
	b.Tick()
	if snap, _ := b.Snapshot(); snap["scale"] != 1 {
		t.Errorf("snapshot = %v after Restart, want scale 1", snap)
	}
}

func TestBridgeReleaseBeforeConstruction(t *testing.T) {
	ca := &countingAnimator{eng: NewEngine()}
	b := NewBridge(ca, scaleParams(), Fields{"scale": 1})
	b.Release()
	if b.Tick() || ca.calls != 0 {
		t.Error("released bridge must never construct")
	}
}
