package tempo

import (
	"fmt"
	"time"
)

// Direction selects how each loop iteration runs through the timeline.
type Direction uint8

const (
	DirectionNormal    Direction = iota // start to end every iteration
	DirectionReverse                    // end to start every iteration
	DirectionAlternate                  // start to end, then end to start, and so on
)

// String returns the anime.js name of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionNormal:
		return "normal"
	case DirectionReverse:
		return "reverse"
	case DirectionAlternate:
		return "alternate"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection maps an anime.js direction name. The empty string is
// DirectionNormal.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "normal":
		return DirectionNormal, nil
	case "reverse":
		return DirectionReverse, nil
	case "alternate":
		return DirectionAlternate, nil
	}
	return 0, fmt.Errorf("tempo: unknown direction %q", s)
}

// LoopForever makes an animation repeat until paused or removed.
const LoopForever = -1

// DefaultDuration is used when Params.Duration is zero.
const DefaultDuration = time.Second

// Keyframe is one step of a property's timeline. Zero Duration takes an equal
// share of Params.Duration; empty Easing inherits Params.Easing.
type Keyframe struct {
	Value    float64
	From     *float64 // explicit start; nil starts from the previous value
	Easing   string
	Duration time.Duration
	Delay    time.Duration
}

// Keyframes is the ordered timeline of one property.
type Keyframes []Keyframe

// To animates from the target's current value to v.
func To(v float64) Keyframes {
	return Keyframes{{Value: v}}
}

// FromTo animates from an explicit start value to v.
func FromTo(from, to float64) Keyframes {
	return Keyframes{{Value: to, From: &from}}
}

// Through animates through each value in turn, splitting the duration
// equally.
func Through(values ...float64) Keyframes {
	kf := make(Keyframes, len(values))
	for i, v := range values {
		kf[i].Value = v
	}
	return kf
}

// Params describes one animation. A Params value is read when the animation
// is constructed; later changes do not affect a running Animation.
type Params struct {
	// Name identifies the animation in debug output, lifecycle events and
	// test scripts. Optional.
	Name string

	// Targets is what the animation mutates: nil, a single target (anything
	// AsTarget accepts, including a *Ref), a []Target or a []any.
	Targets any

	// Properties maps a field name to its keyframes.
	Properties map[string]Keyframes

	Duration  time.Duration
	Delay     time.Duration
	EndDelay  time.Duration
	Easing    string
	Direction Direction
	Loop      int // 0 or 1 runs once, n runs n times, LoopForever repeats
	Autoplay  bool

	Begin        func(a *Animation) // once per run, when the delay has elapsed
	Update       func(a *Animation) // every engine tick while playing
	LoopBegin    func(a *Animation) // at the start of every iteration
	LoopComplete func(a *Animation) // at the end of every iteration
	Complete     func(a *Animation) // once, when the last iteration ends
}

func (p *Params) iterations() int {
	switch {
	case p.Loop < 0:
		return 0
	case p.Loop == 0:
		return 1
	}
	return p.Loop
}

func (p *Params) duration() time.Duration {
	if p.Duration <= 0 {
		return DefaultDuration
	}
	return p.Duration
}
