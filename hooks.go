package tempo

import (
	"fmt"
	"time"
)

// slot returns the hook state at the component's cursor, creating it with
// init on the first render. A hook of a different kind at the same position
// means the render function called hooks conditionally; that panics.
func slot[S any](c *Component, kind string, init func() *S) *S {
	if !c.rendering {
		panic(fmt.Sprintf("tempo: %s called outside the render of component %q", kind, c.Name))
	}
	i := c.cursor
	c.cursor++
	if i < len(c.slots) {
		s, ok := c.slots[i].(*S)
		if !ok {
			panic(fmt.Sprintf("tempo: hook %d of component %q was %T, now %s; hooks must run in the same order every render",
				i, c.Name, c.slots[i], kind))
		}
		return s
	}
	if c.renders > 0 {
		panic(hookOrderMessage(c, c.cursor, i))
	}
	s := init()
	c.slots = append(c.slots, s)
	return s
}

func hookOrderMessage(c *Component, got, want int) string {
	return fmt.Sprintf("tempo: component %q called %d hooks, previous render called %d; hooks must run in the same order every render",
		c.Name, got, want)
}

func (c *Component) addCleanup(fn func()) {
	c.cleanups = append(c.cleanups, fn)
}

// UseRef returns a Ref that survives re-renders. initial is used only on the
// first render.
func UseRef[T any](c *Component, initial T) *Ref[T] {
	return slot(c, "UseRef", func() *Ref[T] {
		return &Ref[T]{Current: initial}
	})
}

type stateSlot[T any] struct {
	cell *Cell[T]
}

// UseState returns a Cell owned by the component. A propagated write marks
// the component for re-render in the next Update. The cell is disposed on
// unmount.
func UseState[T any](c *Component, initial T) *Cell[T] {
	s := slot(c, "UseState", func() *stateSlot[T] {
		cell := NewCell(initial)
		cell.Subscribe(c.Invalidate)
		c.addCleanup(cell.Dispose)
		return &stateSlot[T]{cell: cell}
	})
	return s.cell
}

type memoSlot[T any] struct {
	value T
	deps  []any
}

// UseMemo returns fn's result, recomputing only when a dep differs from the
// previous render. Deps are compared by identity for maps, pointers, slices,
// funcs and chans and with == otherwise, so passing a freshly built slice or
// map literal recomputes every render.
func UseMemo[T any](c *Component, fn func() T, deps ...any) T {
	s := slot(c, "UseMemo", func() *memoSlot[T] {
		return &memoSlot[T]{value: fn(), deps: deps}
	})
	if !sameDeps(s.deps, deps) {
		s.value = fn()
		s.deps = deps
	}
	return s.value
}

func sameDeps(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !same(a[i], b[i]) {
			return false
		}
	}
	return true
}

type frameKey struct {
	component uint32
	slot      int
}

type frameSlot struct {
	key frameKey
}

// UseFrame registers fn to run once per scheduler frame while the component
// is mounted. Re-rendering replaces the registered callback instead of adding
// another one.
func UseFrame(c *Component, fn FrameFunc) {
	s := slot(c, "UseFrame", func() *frameSlot {
		return &frameSlot{key: frameKey{component: c.ID, slot: c.cursor - 1}}
	})
	unregister := c.rt.scheduler.Register(s.key, fn)
	if c.renders == 0 {
		c.addCleanup(unregister)
	}
}

type cleanupSlot struct {
	fn func()
}

// UseCleanup runs fn when the component unmounts. The fn from the latest
// render is the one that runs.
func UseCleanup(c *Component, fn func()) {
	s := slot(c, "UseCleanup", func() *cleanupSlot {
		cs := &cleanupSlot{}
		c.addCleanup(func() {
			if cs.fn != nil {
				cs.fn()
			}
		})
		return cs
	})
	s.fn = fn
}

type animeSlot[T any] struct {
	bridge *Bridge[T]
}

// UseAnime is the frame-synchronized animation hook. It returns the latest
// snapshot of the animated state and the animation, which stays nil until
// the first frame after mount in which every target in params resolves.
//
// With a defaultState the hook owns a copy of it as an extra first target
// and re-renders the component whenever a new snapshot is published. Without
// one the snapshot is always the zero value.
//
// params.Targets must keep the same identity across renders (a Ref, a
// pointer, or a slice created once); a new slice every render recomposes the
// target list every frame until the animation exists.
func UseAnime[T any](c *Component, params Params, defaultState ...T) (T, *Animation) {
	s := slot(c, "UseAnime", func() *animeSlot[T] {
		b := NewBridge[T](c.rt.engine, params, defaultState...)
		b.Cell().Subscribe(c.Invalidate)
		b.notify = func(t EventType, a *Animation) {
			c.rt.emit(c, t, b.params.Name, a)
		}
		return &animeSlot[T]{bridge: b}
	})
	b := s.bridge
	UseFrame(c, func(time.Duration) { b.Tick() })
	UseCleanup(c, b.Release)
	return b.Bind(params)
}

// UseAnimeRef is UseAnime for call sites without mirrored state; it returns
// only the animation.
func UseAnimeRef(c *Component, params Params) *Animation {
	_, a := UseAnime[struct{}](c, params)
	return a
}
