package tempo

import (
	"fmt"
	"os"
	"time"
)

// debugStats holds per-frame timing and counters.
// Only populated when Runtime.debug is true.
type debugStats struct {
	frame        uint64
	schedulerDur time.Duration
	engineDur    time.Duration
	renderDur    time.Duration
	engineTicks  int
	renders      int
	frameFuncs   int
	animations   int
}

// globalDebug mirrors the most recently set Runtime debug flag so that code
// without a Runtime pointer (easing lookup, bridges) can check it cheaply.
// Only valid with a single Runtime; multiple Runtimes with differing debug
// modes reflect whichever called SetDebugMode last.
var globalDebug bool

func debugf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "[tempo] "+format+"\n", args...)
}

// debugLog prints timing and counters to stderr.
func (r *Runtime) debugLog(stats debugStats) {
	if !r.debug {
		return
	}
	total := stats.schedulerDur + stats.engineDur + stats.renderDur
	debugf("frame %d | scheduler: %v | engine: %v | render: %v | total: %v",
		stats.frame, stats.schedulerDur, stats.engineDur, stats.renderDur, total)
	debugf("frame funcs: %d | engine ticks: %d | animations: %d | renders: %d",
		stats.frameFuncs, stats.engineTicks, stats.animations, stats.renders)
}

// debugEvent prints one bridge lifecycle event.
func (r *Runtime) debugEvent(c *Component, e AnimationEvent) {
	if !r.debug {
		return
	}
	name := e.Name
	if name == "" {
		name = "(unnamed)"
	}
	debugf("%s: animation %s of component %q (ID %d) at frame %d",
		e.Type, name, c.Name, c.ID, e.Frame)
}

// debugCheckUnmounted panics with a descriptive message when an unmounted
// component is rendered or used to create hooks.
func debugCheckUnmounted(c *Component, op string) {
	if !c.mounted {
		panic(fmt.Sprintf("tempo debug: %s on unmounted component %q (ID was %d)", op, c.Name, c.ID))
	}
}

// debugMaxHooks warns on stderr if a component uses more hooks than this.
const debugMaxHooks = 256

func debugCheckHookCount(c *Component) {
	if len(c.slots) > debugMaxHooks {
		debugf("warning: component %q uses %d hooks (threshold %d)", c.Name, len(c.slots), debugMaxHooks)
	}
}
