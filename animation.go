package tempo

import (
	"sort"
	"time"

	"github.com/tanema/gween"
)

// segment is one keyframe of one channel, positioned on the channel's
// timeline.
type segment struct {
	start  time.Duration // offset from the end of Params.Delay to the keyframe delay
	delay  time.Duration
	length time.Duration
	to     float64
	tween  *gween.Tween
}

// channel animates one property of one target.
type channel struct {
	target   Target
	name     string
	from     float64
	segments []segment
	span     time.Duration
}

// value returns the channel value at p, measured from the end of the
// animation delay.
func (ch *channel) value(p time.Duration) float64 {
	v := ch.from
	for i := range ch.segments {
		s := &ch.segments[i]
		begin := s.start + s.delay
		if p < begin {
			break
		}
		if p >= begin+s.length || s.length <= 0 {
			v = s.to
			continue
		}
		cur, _ := s.tween.Set(float32((p - begin).Seconds()))
		v = float64(cur)
		break
	}
	return v
}

// Animation is one running instance created by an Engine. It owns a set of
// gween tweens, one per keyframe per target property, and writes their values
// into the targets on every engine tick.
//
// Animation is not safe for concurrent use.
type Animation struct {
	params   Params
	engine   *Engine
	channels []channel

	iterDur    time.Duration
	iterations int // 0 means forever

	time      time.Duration
	iteration int // iteration seen by the last tick, -1 before the first
	ticks     uint64
	writes    uint64 // bumped each time values are written to the targets

	paused    bool
	began     bool
	completed bool
	reversed  bool
	removed   bool
}

func newAnimation(e *Engine, p Params, targets []Target) *Animation {
	a := &Animation{
		params:     p,
		engine:     e,
		iterations: p.iterations(),
		iteration:  -1,
		paused:     !p.Autoplay,
	}

	names := make([]string, 0, len(p.Properties))
	for name := range p.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var span time.Duration
	for _, t := range targets {
		for _, name := range names {
			ch, ok := buildChannel(&p, t, name, p.Properties[name])
			if !ok {
				continue
			}
			span = max(span, ch.span)
			a.channels = append(a.channels, ch)
		}
	}
	a.iterDur = p.Delay + span + p.EndDelay
	a.time = a.startTime()
	return a
}

func buildChannel(p *Params, t Target, name string, kfs Keyframes) (channel, bool) {
	start, ok := t.Get(name)
	if !ok || len(kfs) == 0 {
		return channel{}, false
	}
	ch := channel{target: t, name: name, from: start}
	if kfs[0].From != nil {
		ch.from = *kfs[0].From
	}
	share := p.duration() / time.Duration(len(kfs))

	prev := ch.from
	var offset time.Duration
	for i, kf := range kfs {
		from := prev
		if i > 0 && kf.From != nil {
			from = *kf.From
		}
		length := kf.Duration
		if length <= 0 {
			length = share
		}
		easing := kf.Easing
		if easing == "" {
			easing = p.Easing
		}
		seg := segment{
			start:  offset,
			delay:  kf.Delay,
			length: length,
			to:     kf.Value,
			tween:  gween.New(float32(from), float32(kf.Value), float32(length.Seconds()), resolveEasing(easing)),
		}
		ch.segments = append(ch.segments, seg)
		offset += kf.Delay + length
		prev = kf.Value
	}
	ch.span = offset
	return ch, true
}

func (a *Animation) startTime() time.Duration {
	if a.reversed && a.iterations > 0 {
		return a.total()
	}
	return 0
}

// total returns the full timeline length, or -1 when looping forever.
func (a *Animation) total() time.Duration {
	if a.iterations == 0 {
		return -1
	}
	return a.iterDur * time.Duration(a.iterations)
}

// position splits the current time into an iteration index and the local
// time inside it, after applying the direction.
func (a *Animation) position() (int, time.Duration) {
	if a.iterDur <= 0 {
		return 0, 0
	}
	iter := int(a.time / a.iterDur)
	local := a.time - time.Duration(iter)*a.iterDur
	if total := a.total(); total >= 0 && a.time >= total {
		iter = a.iterations - 1
		local = a.iterDur
	}
	switch a.params.Direction {
	case DirectionReverse:
		local = a.iterDur - local
	case DirectionAlternate:
		if iter%2 == 1 {
			local = a.iterDur - local
		}
	}
	return iter, local
}

func (a *Animation) apply() int {
	a.writes++
	iter, local := a.position()
	p := local - a.params.Delay
	for i := range a.channels {
		ch := &a.channels[i]
		ch.target.Set(ch.name, ch.value(p))
	}
	return iter
}

// tick advances the animation by one engine step.
func (a *Animation) tick(dt time.Duration) {
	if a.paused || a.removed {
		return
	}
	a.ticks++
	if a.reversed {
		a.time -= dt
	} else {
		a.time += dt
	}

	finished := false
	if a.time <= 0 && a.reversed {
		a.time = 0
		finished = true
	}
	if total := a.total(); total >= 0 && a.time >= total && !a.reversed {
		a.time = total
		finished = true
	}

	iter := a.apply()
	cb := &a.params

	if !a.began && (a.reversed || a.time >= cb.Delay) {
		a.began = true
		if cb.Begin != nil {
			cb.Begin(a)
		}
	}
	if iter != a.iteration {
		if a.iteration >= 0 && cb.LoopComplete != nil {
			cb.LoopComplete(a)
		}
		a.iteration = iter
		if cb.LoopBegin != nil {
			cb.LoopBegin(a)
		}
	}
	if cb.Update != nil {
		cb.Update(a)
	}
	if finished {
		a.paused = true
		a.completed = true
		if cb.LoopComplete != nil {
			cb.LoopComplete(a)
		}
		if cb.Complete != nil {
			cb.Complete(a)
		}
	}
}

// Play resumes a paused animation. A completed animation starts over.
func (a *Animation) Play() {
	if !a.paused {
		return
	}
	if a.completed {
		a.Reset()
	}
	a.paused = false
}

// Pause stops time without resetting progress.
func (a *Animation) Pause() {
	a.paused = true
}

// Reverse flips the playback direction from the current position. It does
// not change whether the animation is paused.
func (a *Animation) Reverse() {
	a.reversed = !a.reversed
	a.completed = false
}

// Restart resets to the start of the timeline and plays.
func (a *Animation) Restart() {
	a.Reset()
	a.paused = false
}

// Reset moves to the start of the timeline (the end when reversed), writes
// the start values into the targets and pauses. No callbacks fire.
func (a *Animation) Reset() {
	a.time = a.startTime()
	a.iteration = -1
	a.began = false
	a.completed = false
	a.paused = true
	a.apply()
}

// Seek jumps to d on the timeline and writes the values for that moment.
// No callbacks fire.
func (a *Animation) Seek(d time.Duration) {
	if d < 0 {
		d = 0
	}
	if total := a.total(); total >= 0 && d > total {
		d = total
	}
	a.time = d
	a.apply()
}

// Began reports whether the delay has elapsed in the current run.
func (a *Animation) Began() bool { return a.began }

// Completed reports whether the last iteration has ended.
func (a *Animation) Completed() bool { return a.completed }

// Paused reports whether the animation is paused.
func (a *Animation) Paused() bool { return a.paused }

// Reversed reports whether playback runs backwards.
func (a *Animation) Reversed() bool { return a.reversed }

// Name returns Params.Name.
func (a *Animation) Name() string { return a.params.Name }

// CurrentTime returns the position on the full timeline.
func (a *Animation) CurrentTime() time.Duration { return a.time }

// Duration returns the length of one iteration including delays.
func (a *Animation) Duration() time.Duration { return a.iterDur }

// TickCount returns the number of engine ticks the animation has played.
func (a *Animation) TickCount() uint64 { return a.ticks }

// Progress returns how far through the timeline the animation is, in [0, 1].
// Animations that loop forever report progress through the current
// iteration.
func (a *Animation) Progress() float64 {
	if a.iterDur <= 0 {
		return 1
	}
	total := a.total()
	if total < 0 {
		return float64(a.time%a.iterDur) / float64(a.iterDur)
	}
	return float64(a.time) / float64(total)
}
