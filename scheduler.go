package tempo

import "time"

// FrameFunc is called once per scheduler frame with the frame's time step.
type FrameFunc func(dt time.Duration)

type frameEntry struct {
	key any
	fn  FrameFunc
}

// Scheduler runs per-frame callbacks in registration order. Callbacks are
// keyed: registering again under a key that is already present replaces the
// callback in place instead of adding a second one, so a component can
// re-register on every render without piling up duplicates.
type Scheduler struct {
	entries []frameEntry
	index   map[any]int
	frame   uint64
	ticking bool
	pending []frameEntry
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{index: make(map[any]int)}
}

// Register installs fn under key and returns a function that removes it.
// key must be comparable. Callbacks added while a frame is running first run
// on the next frame.
func (s *Scheduler) Register(key any, fn FrameFunc) func() {
	if fn == nil {
		return func() {}
	}
	if i, ok := s.index[key]; ok {
		s.entries[i].fn = fn
	} else if s.ticking {
		s.replacePending(key, fn)
	} else {
		s.index[key] = len(s.entries)
		s.entries = append(s.entries, frameEntry{key: key, fn: fn})
	}
	return func() { s.unregister(key) }
}

func (s *Scheduler) replacePending(key any, fn FrameFunc) {
	for i := range s.pending {
		if s.pending[i].key == key {
			s.pending[i].fn = fn
			return
		}
	}
	s.pending = append(s.pending, frameEntry{key: key, fn: fn})
}

func (s *Scheduler) unregister(key any) {
	for i := range s.pending {
		if s.pending[i].key == key {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
	i, ok := s.index[key]
	if !ok {
		return
	}
	if s.ticking {
		// Tombstone; compacted after the frame so indices stay valid.
		s.entries[i].fn = nil
		delete(s.index, key)
		return
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	delete(s.index, key)
	for j := i; j < len(s.entries); j++ {
		s.index[s.entries[j].key] = j
	}
}

// Tick runs one frame.
func (s *Scheduler) Tick(dt time.Duration) {
	s.frame++
	s.ticking = true
	for i := 0; i < len(s.entries); i++ {
		if fn := s.entries[i].fn; fn != nil {
			fn(dt)
		}
	}
	s.ticking = false
	s.compact()
}

func (s *Scheduler) compact() {
	live := s.entries[:0]
	for _, e := range s.entries {
		if e.fn != nil {
			live = append(live, e)
		}
	}
	for i := len(live); i < len(s.entries); i++ {
		s.entries[i] = frameEntry{}
	}
	s.entries = live
	s.entries = append(s.entries, s.pending...)
	s.pending = s.pending[:0]
	clear(s.index)
	for i, e := range s.entries {
		s.index[e.key] = i
	}
}

// Frame returns the number of frames run so far.
func (s *Scheduler) Frame() uint64 {
	return s.frame
}

// Len returns the number of registered callbacks.
func (s *Scheduler) Len() int {
	return len(s.index) + len(s.pending)
}
