package tempo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/harmonica"
	"github.com/tanema/gween/ease"
)

// ErrUnknownEasing is returned by ParseEasing for names it cannot map.
var ErrUnknownEasing = errors.New("tempo: unknown easing")

// DefaultEasing is used when neither a keyframe nor its Params name one.
const DefaultEasing = "easeOutElastic"

// easings maps anime.js style names to gween curves.
var easings = map[string]ease.TweenFunc{
	"linear": ease.Linear,

	"easeInQuad":    ease.InQuad,
	"easeOutQuad":   ease.OutQuad,
	"easeInOutQuad": ease.InOutQuad,
	"easeOutInQuad": ease.OutInQuad,

	"easeInCubic":    ease.InCubic,
	"easeOutCubic":   ease.OutCubic,
	"easeInOutCubic": ease.InOutCubic,
	"easeOutInCubic": ease.OutInCubic,

	"easeInQuart":    ease.InQuart,
	"easeOutQuart":   ease.OutQuart,
	"easeInOutQuart": ease.InOutQuart,
	"easeOutInQuart": ease.OutInQuart,

	"easeInQuint":    ease.InQuint,
	"easeOutQuint":   ease.OutQuint,
	"easeInOutQuint": ease.InOutQuint,
	"easeOutInQuint": ease.OutInQuint,

	"easeInSine":    ease.InSine,
	"easeOutSine":   ease.OutSine,
	"easeInOutSine": ease.InOutSine,
	"easeOutInSine": ease.OutInSine,

	"easeInExpo":    ease.InExpo,
	"easeOutExpo":   ease.OutExpo,
	"easeInOutExpo": ease.InOutExpo,
	"easeOutInExpo": ease.OutInExpo,

	"easeInCirc":    ease.InCirc,
	"easeOutCirc":   ease.OutCirc,
	"easeInOutCirc": ease.InOutCirc,
	"easeOutInCirc": ease.OutInCirc,

	"easeInBack":    ease.InBack,
	"easeOutBack":   ease.OutBack,
	"easeInOutBack": ease.InOutBack,
	"easeOutInBack": ease.OutInBack,

	"easeInElastic":    ease.InElastic,
	"easeOutElastic":   ease.OutElastic,
	"easeInOutElastic": ease.InOutElastic,
	"easeOutInElastic": ease.OutInElastic,

	"easeInBounce":    ease.InBounce,
	"easeOutBounce":   ease.OutBounce,
	"easeInOutBounce": ease.InOutBounce,
	"easeOutInBounce": ease.OutInBounce,
}

// parsed caches curves built from parameterized names like spring(...).
var parsed = map[string]ease.TweenFunc{}

// ParseEasing resolves an easing name. Besides the fixed names it accepts
// "spring(mass, stiffness, damping, velocity)" and "steps(n)". Arguments on a
// fixed name, as in "easeOutElastic(1, .5)", are accepted and ignored.
func ParseEasing(name string) (ease.TweenFunc, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultEasing
	}
	if fn, ok := easings[name]; ok {
		return fn, nil
	}
	if fn, ok := parsed[name]; ok {
		return fn, nil
	}

	base, args, err := splitCall(name)
	if err != nil {
		return nil, fmt.Errorf("easing %q: %w", name, err)
	}
	var fn ease.TweenFunc
	switch base {
	case "spring":
		p := [4]float64{1, 100, 10, 0}
		copy(p[:], args)
		if p[0] <= 0 || p[1] <= 0 {
			return nil, fmt.Errorf("easing %q: mass and stiffness must be positive", name)
		}
		fn = springCurve(p[0], p[1], p[2], p[3])
	case "steps":
		n := 10.0
		if len(args) > 0 {
			n = args[0]
		}
		if n < 1 {
			return nil, fmt.Errorf("easing %q: steps must be at least 1", name)
		}
		fn = stepsCurve(int(n))
	default:
		f, ok := easings[base]
		if !ok {
			return nil, fmt.Errorf("easing %q: %w", name, ErrUnknownEasing)
		}
		fn = f
	}
	parsed[name] = fn
	return fn, nil
}

// splitCall splits "name(a, b)" into its name and numeric arguments.
func splitCall(s string) (string, []float64, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, nil, nil
	}
	if !strings.HasSuffix(s, ")") {
		return "", nil, ErrUnknownEasing
	}
	base := strings.TrimSpace(s[:open])
	inner := strings.TrimSpace(s[open+1 : len(s)-1])
	if inner == "" {
		return base, nil, nil
	}
	parts := strings.Split(inner, ",")
	args := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return "", nil, fmt.Errorf("argument %q: %w", p, err)
		}
		args = append(args, v)
	}
	return base, args, nil
}

const (
	springFPS        = 60
	springMaxSamples = 60 * springFPS
	springRestDelta  = 1e-3
)

// springCurve simulates a damped spring from 0 to 1 with harmonica until it
// settles, then stretches the settle time over the keyframe duration.
func springCurve(mass, stiffness, damping, velocity float64) ease.TweenFunc {
	omega := math.Sqrt(stiffness / mass)
	zeta := damping / (2 * math.Sqrt(stiffness*mass))
	spring := harmonica.NewSpring(harmonica.FPS(springFPS), omega, zeta)

	samples := []float64{0}
	pos, vel := 0.0, velocity
	for i := 0; i < springMaxSamples; i++ {
		pos, vel = spring.Update(pos, vel, 1)
		samples = append(samples, pos)
		if math.Abs(1-pos) < springRestDelta && math.Abs(vel) < springRestDelta {
			break
		}
	}
	samples[len(samples)-1] = 1

	return func(t, b, c, d float32) float32 {
		if d <= 0 {
			return b + c
		}
		p := float64(t / d)
		if p <= 0 {
			return b
		}
		if p >= 1 {
			return b + c
		}
		f := p * float64(len(samples)-1)
		i := int(f)
		frac := f - float64(i)
		v := samples[i] + (samples[i+1]-samples[i])*frac
		return b + c*float32(v)
	}
}

func stepsCurve(n int) ease.TweenFunc {
	return func(t, b, c, d float32) float32 {
		if d <= 0 {
			return b + c
		}
		p := math.Max(float64(t/d), 1e-6)
		p = math.Min(p, 1)
		return b + c*float32(math.Ceil(p*float64(n))/float64(n))
	}
}

// resolveEasing is ParseEasing with the runtime fallback: unknown names use
// DefaultEasing.
func resolveEasing(name string) ease.TweenFunc {
	fn, err := ParseEasing(name)
	if err != nil {
		if globalDebug {
			debugf("%v; falling back to %s", err, DefaultEasing)
		}
		return easings[DefaultEasing]
	}
	return fn
}
