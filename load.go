package tempo

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ParamsSpec is the YAML form of Params. Durations use Go syntax ("1.5s",
// "300ms"). Each property accepts a number (end value), a [from, to] pair or
// a list of keyframe maps:
//
//	name: light
//	duration: 10s
//	easing: easeInOutQuad
//	direction: alternate
//	loop: true
//	properties:
//	  x: -5
//	  y: [5, -5]
//	  z:
//	    - {value: 0, duration: 2s}
//	    - {value: -5, easing: linear}
//
// Callbacks and targets cannot be expressed in YAML; set them on the Params
// returned by Params.
type ParamsSpec struct {
	Name       string               `yaml:"name"`
	Duration   time.Duration        `yaml:"duration"`
	Delay      time.Duration        `yaml:"delay"`
	EndDelay   time.Duration        `yaml:"endDelay"`
	Easing     string               `yaml:"easing"`
	Direction  string               `yaml:"direction"`
	Loop       yaml.Node            `yaml:"loop"`
	Autoplay   *bool                `yaml:"autoplay"`
	Properties map[string]yaml.Node `yaml:"properties"`
}

type keyframeSpec struct {
	Value    float64       `yaml:"value"`
	From     *float64      `yaml:"from"`
	Easing   string        `yaml:"easing"`
	Duration time.Duration `yaml:"duration"`
	Delay    time.Duration `yaml:"delay"`
}

// LoadParams parses one YAML animation document.
func LoadParams(data []byte) (Params, error) {
	var spec ParamsSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return Params{}, fmt.Errorf("parse params: %w", err)
	}
	return spec.Params()
}

// Params validates s and converts it. Autoplay defaults to true, as
// in anime.js.
func (s *ParamsSpec) Params() (Params, error) {
	p := Params{
		Name:       s.Name,
		Duration:   s.Duration,
		Delay:      s.Delay,
		EndDelay:   s.EndDelay,
		Easing:     s.Easing,
		Autoplay:   true,
		Properties: make(map[string]Keyframes, len(s.Properties)),
	}
	if s.Autoplay != nil {
		p.Autoplay = *s.Autoplay
	}
	if s.Easing != "" {
		if _, err := ParseEasing(s.Easing); err != nil {
			return Params{}, fmt.Errorf("params %s: %w", s.Name, err)
		}
	}
	dir, err := ParseDirection(s.Direction)
	if err != nil {
		return Params{}, fmt.Errorf("params %s: %w", s.Name, err)
	}
	p.Direction = dir

	if p.Loop, err = decodeLoop(&s.Loop); err != nil {
		return Params{}, fmt.Errorf("params %s: %w", s.Name, err)
	}

	for name, node := range s.Properties {
		kf, err := decodeKeyframes(&node)
		if err != nil {
			return Params{}, fmt.Errorf("params %s: property %s: %w", s.Name, name, err)
		}
		p.Properties[name] = kf
	}
	return p, nil
}

// decodeLoop accepts true (forever), false (once) or an iteration count.
func decodeLoop(n *yaml.Node) (int, error) {
	if n.Kind == 0 {
		return 0, nil
	}
	var b bool
	if err := n.Decode(&b); err == nil {
		if b {
			return LoopForever, nil
		}
		return 0, nil
	}
	var count int
	if err := n.Decode(&count); err != nil {
		return 0, fmt.Errorf("loop: want bool or count: %w", err)
	}
	if count < 0 {
		return LoopForever, nil
	}
	return count, nil
}

func decodeKeyframes(n *yaml.Node) (Keyframes, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return To(v), nil
	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			return nil, fmt.Errorf("no keyframes")
		}
		if n.Content[0].Kind == yaml.ScalarNode {
			var pair []float64
			if err := n.Decode(&pair); err != nil {
				return nil, err
			}
			if len(pair) != 2 {
				return nil, fmt.Errorf("want [from, to], got %d values", len(pair))
			}
			return FromTo(pair[0], pair[1]), nil
		}
		var specs []keyframeSpec
		if err := n.Decode(&specs); err != nil {
			return nil, err
		}
		kf := make(Keyframes, len(specs))
		for i, ks := range specs {
			if ks.Easing != "" {
				if _, err := ParseEasing(ks.Easing); err != nil {
					return nil, fmt.Errorf("keyframe %d: %w", i, err)
				}
			}
			kf[i] = Keyframe{
				Value:    ks.Value,
				From:     ks.From,
				Easing:   ks.Easing,
				Duration: ks.Duration,
				Delay:    ks.Delay,
			}
		}
		return kf, nil
	}
	return nil, fmt.Errorf("want number, [from, to] or keyframe list")
}
