package tempo

import (
	"encoding/json"
	"fmt"
	"time"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action    string  `json:"action"`
	Animation string  `json:"animation,omitempty"`
	Frames    int     `json:"frames,omitempty"`
	Ms        float64 `json:"ms,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

var testActions = map[string]bool{
	"wait":    true,
	"play":    true,
	"pause":   true,
	"reverse": true,
	"restart": true,
	"seek":    true,
}

// TestRunner drives named animations frame by frame from a script, for
// automated checks of animation state. Attach to a Runtime via
// SetTestRunner.
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool
	missed    []string
}

// LoadTestScript parses a JSON test script and returns a TestRunner ready
// to be attached to a Runtime via SetTestRunner.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		if !testActions[st.Action] {
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
		if st.Action != "wait" && st.Animation == "" {
			return nil, fmt.Errorf("parse test script: step %d: %s needs an animation", i, st.Action)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// Missed returns the names of animations that were not constructed when a
// step addressed them. Those steps are skipped.
func (r *TestRunner) Missed() []string {
	return r.missed
}

// step advances the test runner by one frame. Called from Runtime.Update.
func (r *TestRunner) step(rt *Runtime) {
	if r.done {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	if st.Action == "wait" {
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	} else if a := rt.Animation(st.Animation); a == nil {
		r.missed = append(r.missed, st.Animation)
	} else {
		switch st.Action {
		case "play":
			a.Play()
		case "pause":
			a.Pause()
		case "reverse":
			a.Reverse()
		case "restart":
			a.Restart()
		case "seek":
			a.Seek(time.Duration(st.Ms * float64(time.Millisecond)))
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}
