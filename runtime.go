package tempo

import (
	"time"
)

// RenderFunc renders a component. It runs on mount and again in any frame
// in which one of the component's cells propagated a write. Hooks must be
// called in the same order on every render.
type RenderFunc func(c *Component)

// componentIDCounter is a plain counter (no atomic; tempo is single-threaded).
var componentIDCounter uint32

func nextComponentID() uint32 {
	componentIDCounter++
	return componentIDCounter
}

// Component is one mounted render function and its hook state. The hook
// slots are the stable, render-independent storage for everything a render
// needs to keep: refs, cells, memos, frame registrations and bridges.
type Component struct {
	ID   uint32
	Name string

	rt       *Runtime
	render   RenderFunc
	slots    []any
	cursor   int
	cleanups []func()

	dirty     bool
	mounted   bool
	pending   bool // mounted deferred; first render waits for the next Update
	rendering bool
	renders   int
}

// Runtime is the top-level object that owns the frame scheduler, the
// animation engine and the mounted components.
type Runtime struct {
	scheduler *Scheduler
	engine    *Engine
	store     EntityStore
	debug     bool

	components []*Component
	named      map[string]*Animation
	testRunner *TestRunner
	renderBuf  []*Component
}

// NewRuntime creates a runtime with an empty scheduler and an engine that
// ticks once per frame.
func NewRuntime() *Runtime {
	return &Runtime{
		scheduler: NewScheduler(),
		engine:    NewEngine(),
		named:     make(map[string]*Animation),
	}
}

// Scheduler returns the frame scheduler. Register on it directly for
// per-frame work that does not belong to a component.
func (r *Runtime) Scheduler() *Scheduler {
	return r.scheduler
}

// Engine returns the animation engine. Set Engine().Step to decouple the
// engine cadence from the frame rate.
func (r *Runtime) Engine() *Engine {
	return r.engine
}

// Frame returns the number of frames run so far.
func (r *Runtime) Frame() uint64 {
	return r.scheduler.Frame()
}

// SetEntityStore sets the optional ECS bridge.
func (r *Runtime) SetEntityStore(store EntityStore) {
	r.store = store
}

// SetDebugMode enables or disables debug mode. When enabled, use of
// unmounted components panics, lifecycle events and per-frame timing stats
// are logged to stderr.
func (r *Runtime) SetDebugMode(enabled bool) {
	r.debug = enabled
	globalDebug = enabled
}

// SetTestRunner attaches a TestRunner. Its step method is called at the
// start of every Update.
func (r *Runtime) SetTestRunner(runner *TestRunner) {
	r.testRunner = runner
}

// Animation returns the constructed animation registered under name by a
// bridge whose Params.Name is set.
func (r *Runtime) Animation(name string) *Animation {
	return r.named[name]
}

// Mount creates a component and renders it once. The initial render never
// runs frame callbacks, so animations bound in it are constructed on the
// next Update at the earliest.
func (r *Runtime) Mount(name string, render RenderFunc) *Component {
	c := r.newComponent(name, render)
	c.renderNow()
	return c
}

// MountDeferred creates a component whose first render happens at the start
// of the next Update instead of now. Use it for content that must not exist
// before the host loop is running.
func (r *Runtime) MountDeferred(name string, render RenderFunc) *Component {
	c := r.newComponent(name, render)
	c.pending = true
	return c
}

func (r *Runtime) newComponent(name string, render RenderFunc) *Component {
	c := &Component{
		ID:      nextComponentID(),
		Name:    name,
		rt:      r,
		render:  render,
		mounted: true,
	}
	r.components = append(r.components, c)
	return c
}

// Components returns the mounted components in mount order. The returned
// slice MUST NOT be mutated.
func (r *Runtime) Components() []*Component {
	return r.components
}

// Update runs one frame: test runner step, pending first renders, frame
// callbacks, engine ticks, then re-renders of components whose cells changed.
// Each component renders at most once per Update; writes made while
// rendering are picked up next frame.
func (r *Runtime) Update(dt time.Duration) {
	var stats debugStats
	var t0 time.Time

	if r.testRunner != nil {
		r.testRunner.step(r)
	}
	for _, c := range r.components {
		if c.pending {
			c.pending = false
			c.renderNow()
		}
	}

	if r.debug {
		t0 = time.Now()
	}

	r.scheduler.Tick(dt)

	if r.debug {
		stats.schedulerDur = time.Since(t0)
		stats.frameFuncs = r.scheduler.Len()
		t0 = time.Now()
	}

	ticks := r.engine.Advance(dt)

	if r.debug {
		stats.engineDur = time.Since(t0)
		stats.engineTicks = ticks
		stats.animations = r.engine.Len()
		t0 = time.Now()
	}

	renders := r.flush()

	if r.debug {
		stats.renderDur = time.Since(t0)
		stats.renders = renders
		stats.frame = r.scheduler.Frame()
		r.debugLog(stats)
	}
}

// flush renders every dirty component once, in mount order.
func (r *Runtime) flush() int {
	r.renderBuf = r.renderBuf[:0]
	for _, c := range r.components {
		if c.dirty && c.mounted && !c.pending {
			r.renderBuf = append(r.renderBuf, c)
		}
	}
	n := 0
	for _, c := range r.renderBuf {
		if c.mounted {
			c.renderNow()
			n++
		}
	}
	return n
}

func (r *Runtime) remove(c *Component) {
	for i, o := range r.components {
		if o == c {
			r.components = append(r.components[:i], r.components[i+1:]...)
			return
		}
	}
}

// emit forwards a lifecycle event to the store and the debug log and keeps
// the named-animation registry current.
func (r *Runtime) emit(c *Component, t EventType, name string, a *Animation) {
	e := AnimationEvent{
		Type:        t,
		Name:        name,
		ComponentID: c.ID,
		Frame:       r.scheduler.Frame(),
	}
	if a != nil {
		e.Progress = a.Progress()
	}
	if name != "" {
		switch t {
		case EventConstructed:
			r.named[name] = a
		case EventReleased:
			if r.named[name] == a {
				delete(r.named, name)
			}
		}
	}
	r.debugEvent(c, e)
	if r.store != nil {
		r.store.EmitEvent(e)
	}
}

// renderNow runs the render function with a fresh hook cursor.
func (c *Component) renderNow() {
	if c.rt.debug {
		debugCheckUnmounted(c, "render")
	}
	c.dirty = false
	c.cursor = 0
	c.rendering = true
	c.render(c)
	c.rendering = false
	if c.renders > 0 && c.cursor != len(c.slots) {
		panic(hookOrderMessage(c, c.cursor, len(c.slots)))
	}
	c.renders++
	if c.rt.debug {
		debugCheckHookCount(c)
	}
}

// Invalidate schedules a re-render in the next Update.
func (c *Component) Invalidate() {
	if c.mounted {
		c.dirty = true
	}
}

// Mounted reports whether the component is still mounted.
func (c *Component) Mounted() bool {
	return c.mounted
}

// Renders returns how many times the component has rendered.
func (c *Component) Renders() int {
	return c.renders
}

// Runtime returns the runtime the component is mounted in.
func (c *Component) Runtime() *Runtime {
	return c.rt
}

// Unmount runs the component's cleanups in reverse order and removes it
// from the runtime. Bridges are released, frame callbacks unregistered and
// cells disposed. Calling Unmount again does nothing.
func (c *Component) Unmount() {
	if !c.mounted {
		return
	}
	c.mounted = false
	c.dirty = false
	for i := len(c.cleanups) - 1; i >= 0; i-- {
		c.cleanups[i]()
	}
	c.cleanups = nil
	c.rt.remove(c)
}
