package tempo

import (
	"fmt"
	"reflect"
)

// bridgeState is the construction state of a Bridge.
type bridgeState uint8

const (
	bridgeUnconstructed bridgeState = iota
	bridgeConstructing
	bridgeConstructed
	bridgeReleased
)

func (s bridgeState) String() string {
	switch s {
	case bridgeUnconstructed:
		return "unconstructed"
	case bridgeConstructing:
		return "constructing"
	case bridgeConstructed:
		return "constructed"
	case bridgeReleased:
		return "released"
	}
	return fmt.Sprintf("bridgeState(%d)", int(s))
}

// Bridge connects an Animator, which mutates plain fields on its own
// schedule, to a Cell that only propagates distinct values.
//
// A bridge creates its Animation lazily: Tick is called every frame and
// constructs the animation the first time all caller targets resolve. After
// that Tick does nothing. The bridge optionally owns a mirror, a private copy
// of the default state that the animation mutates in place. After every
// engine tick the bridge publishes a snapshot of the mirror to its cell and
// only then calls Params.Update. Values written outside an engine tick, by
// Seek or Reset, are published by the next Tick.
//
// Snapshots of maps and struct pointers are fresh copies, so every published
// tick is a distinct reference. Numbers and struct values are published as
// plain values and equal values do not propagate. The choice is made on each
// tick from the mirror's dynamic type.
type Bridge[T any] struct {
	animator Animator
	params   Params
	cell     *Cell[T]

	hasMirror bool
	mirror    reflect.Value // addressable; holds the dynamic value when T is an interface
	mirrorTgt Target

	state bridgeState
	anim  *Animation

	targets    []Target
	targetsKey any
	composed   bool
	deferrals  int
	lastWrite  uint64

	notify func(EventType, *Animation)
}

// NewBridge creates a bridge. With no defaultState the bridge has no mirror
// and Snapshot reports false forever. With a defaultState the cell starts
// out holding it and the mirror is allocated once as a copy of it.
//
// NewBridge panics if the default state is not a map[string]float64 kind,
// a struct, a struct pointer or a number.
func NewBridge[T any](animator Animator, params Params, defaultState ...T) *Bridge[T] {
	b := &Bridge[T]{animator: animator, params: params}
	if len(defaultState) == 0 {
		var zero T
		b.cell = NewCell(zero)
		return b
	}
	seed := defaultState[0]
	b.cell = NewCell(seed)
	if isNil(any(seed)) {
		return b
	}
	m := cloneState(seed)
	b.mirror = mirrorSlot(&m)
	b.mirrorTgt = mirrorTarget(b.mirror)
	b.hasMirror = true
	return b
}

// SetParams replaces the params used by a construction that has not happened
// yet. The target list is recomposed only if the identity of p.Targets
// differs from the one it was composed from.
func (b *Bridge[T]) SetParams(p Params) {
	b.params = p
}

// Bind is the per-render entry point: it records p and returns the current
// snapshot and the animation, which is nil until constructed.
func (b *Bridge[T]) Bind(p Params) (T, *Animation) {
	b.SetParams(p)
	v, _ := b.Snapshot()
	return v, b.anim
}

// Snapshot returns the last published value. Before the first engine tick
// this is the default state. Without a mirror it returns the zero value and
// false.
func (b *Bridge[T]) Snapshot() (T, bool) {
	if !b.hasMirror {
		var zero T
		return zero, false
	}
	return b.cell.Read(), true
}

// Cell returns the cell snapshots are published to.
func (b *Bridge[T]) Cell() *Cell[T] {
	return b.cell
}

// Animation returns the constructed animation, or nil.
func (b *Bridge[T]) Animation() *Animation {
	return b.anim
}

// Constructed reports whether the animation exists.
func (b *Bridge[T]) Constructed() bool {
	return b.state == bridgeConstructed
}

// Targets returns the composed target list: the mirror (if any) followed by
// the caller targets. The list is memoized on the identity of
// Params.Targets; unresolved compositions are not memoized so they are
// retried.
func (b *Bridge[T]) Targets() ([]Target, error) {
	if b.composed && same(b.targetsKey, b.params.Targets) {
		return b.targets, nil
	}
	list, err := ComposeTargets(b.mirrorTgt, b.params.Targets)
	if err != nil {
		return nil, err
	}
	b.targets = list
	b.targetsKey = b.params.Targets
	b.composed = true
	return list, nil
}

// Tick is the construction gate, called once per scheduler frame. It
// constructs the animation if there is none and every caller target
// resolves, and reports whether it did. Calling Tick any number of times
// constructs at most once. Once constructed, Tick publishes values that
// control calls wrote since the last snapshot.
func (b *Bridge[T]) Tick() bool {
	if b.state == bridgeConstructed {
		b.publish(b.anim)
		return false
	}
	if b.state != bridgeUnconstructed {
		return false
	}
	targets, err := b.Targets()
	if err != nil {
		b.deferrals++
		if b.deferrals == 1 && b.notify != nil {
			b.notify(EventDeferred, nil)
		}
		return false
	}

	// Anything that reaches Tick while the animator runs sees a non-zero
	// state and returns above.
	b.state = bridgeConstructing
	p := b.params
	user := p.Update
	p.Update = func(a *Animation) {
		if !b.publish(a) {
			return
		}
		if user != nil {
			user(a)
		}
	}
	b.wrapLifecycle(&p)
	b.anim = b.animator.Animate(p, targets)
	b.state = bridgeConstructed
	if b.notify != nil {
		b.notify(EventConstructed, b.anim)
	}
	return true
}

func (b *Bridge[T]) wrapLifecycle(p *Params) {
	wrap := func(fn func(*Animation), t EventType) func(*Animation) {
		return func(a *Animation) {
			if b.state == bridgeReleased {
				return
			}
			if b.notify != nil {
				b.notify(t, a)
			}
			if fn != nil {
				fn(a)
			}
		}
	}
	p.Begin = wrap(p.Begin, EventBegan)
	p.LoopBegin = wrap(p.LoopBegin, EventLoopBegan)
	p.Complete = wrap(p.Complete, EventCompleted)
	if fn := p.LoopComplete; fn != nil {
		p.LoopComplete = func(a *Animation) {
			if b.state != bridgeReleased {
				fn(a)
			}
		}
	}
}

// publish writes a snapshot of the values a last wrote into its targets. It
// returns false when the bridge is released; callbacks must not run then.
func (b *Bridge[T]) publish(a *Animation) bool {
	if b.state == bridgeReleased {
		return false
	}
	if a.writes == b.lastWrite {
		return true
	}
	b.lastWrite = a.writes
	if !b.hasMirror {
		return true
	}
	b.cell.Write(cloneState(b.current()))
	return true
}

// current returns the mirror's value as a T.
func (b *Bridge[T]) current() T {
	return b.mirror.Interface().(T)
}

// Release stops and drops the animation and disposes the cell. It is called
// when the owning call site goes away; later engine ticks are no-ops.
func (b *Bridge[T]) Release() {
	if b.state == bridgeReleased {
		return
	}
	b.state = bridgeReleased
	if b.anim != nil {
		b.anim.Pause()
		if r, ok := b.animator.(interface{ Remove(*Animation) }); ok {
			r.Remove(b.anim)
		}
	}
	b.cell.Dispose()
	if b.notify != nil {
		b.notify(EventReleased, b.anim)
	}
}

// cloneState copies v for publication. Maps and struct pointers are copied
// one level deep into a new reference. Anything else is returned as is.
func cloneState[T any](v T) T {
	rv := reflect.ValueOf(&v).Elem()
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return v
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out.Interface().(T)
	case reflect.Pointer:
		if rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return v
		}
		out := reflect.New(rv.Elem().Type())
		out.Elem().Set(rv.Elem())
		return out.Interface().(T)
	}
	return v
}

var fieldsType = reflect.TypeOf(Fields(nil))

// mirrorSlot returns the addressable value the animator writes to. A value
// held in an interface is not addressable, so it is copied into a new slot of
// its dynamic type.
func mirrorSlot[T any](box *T) reflect.Value {
	rv := reflect.ValueOf(box).Elem()
	if rv.Kind() != reflect.Interface {
		return rv
	}
	v := reflect.New(rv.Elem().Type()).Elem()
	v.Set(rv.Elem())
	return v
}

// mirrorTarget wraps the mirror slot as a Target for the animator.
func mirrorTarget(rv reflect.Value) Target {
	switch {
	case rv.Kind() == reflect.Map && rv.Type().ConvertibleTo(fieldsType):
		return rv.Convert(fieldsType).Interface().(Fields)
	case rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Struct:
		return Reflect(rv.Interface())
	case rv.Kind() == reflect.Struct && rv.CanAddr():
		return Reflect(rv.Addr().Interface())
	case isNumberKind(rv.Kind()) && rv.CanSet():
		return scalarTarget{v: rv}
	}
	panic(fmt.Sprintf("tempo: cannot animate default state of type %s", rv.Type()))
}
