package tempo

import "time"

// maxSubsteps bounds the catch-up work of one Advance call. Time beyond it is
// dropped rather than ticked.
const maxSubsteps = 16

// Animator constructs animations. *Engine is the implementation; tests wrap
// it to observe construction.
type Animator interface {
	Animate(p Params, targets []Target) *Animation
}

// Engine owns animations and ticks them on its own cadence. With Step zero
// every Advance is one tick; otherwise Advance accumulates time and ticks
// once per whole Step, so an engine can tick several times per frame or once
// every few frames.
//
// There is no global engine. The Runtime owns one; standalone users call
// Advance themselves.
type Engine struct {
	Step time.Duration

	anims []*Animation
	acc   time.Duration
	dirty bool
}

// NewEngine creates an engine that ticks once per Advance.
func NewEngine() *Engine {
	return &Engine{}
}

// Animate creates an animation over targets and registers it. Start values
// are read from the targets now. Nothing is written until the first tick.
func (e *Engine) Animate(p Params, targets []Target) *Animation {
	a := newAnimation(e, p, targets)
	e.anims = append(e.anims, a)
	return a
}

// Remove stops a and drops it from the engine. Removed animations never tick
// again.
func (e *Engine) Remove(a *Animation) {
	if a == nil || a.removed {
		return
	}
	a.removed = true
	a.paused = true
	e.dirty = true
}

// Len returns the number of registered animations.
func (e *Engine) Len() int {
	n := 0
	for _, a := range e.anims {
		if !a.removed {
			n++
		}
	}
	return n
}

// Advance moves engine time forward by dt and returns the number of ticks
// run.
func (e *Engine) Advance(dt time.Duration) int {
	if e.Step <= 0 {
		e.tickAll(dt)
		return 1
	}
	e.acc += dt
	n := 0
	for e.acc >= e.Step && n < maxSubsteps {
		e.tickAll(e.Step)
		e.acc -= e.Step
		n++
	}
	if n == maxSubsteps {
		e.acc = 0
	}
	return n
}

func (e *Engine) tickAll(dt time.Duration) {
	// Animations created by callbacks during this tick start next tick.
	n := len(e.anims)
	for i := 0; i < n; i++ {
		e.anims[i].tick(dt)
	}
	if e.dirty {
		e.compact()
	}
}

func (e *Engine) compact() {
	live := e.anims[:0]
	for _, a := range e.anims {
		if !a.removed {
			live = append(live, a)
		}
	}
	for i := len(live); i < len(e.anims); i++ {
		e.anims[i] = nil
	}
	e.anims = live
	e.dirty = false
}
