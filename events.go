package tempo

import "fmt"

// EventType identifies a lifecycle event of a bridged animation.
type EventType uint8

const (
	EventConstructed EventType = iota // the animation was created
	EventDeferred                     // construction waited for an unresolved target (first time only)
	EventBegan                        // the animation delay elapsed
	EventLoopBegan                    // an iteration started
	EventCompleted                    // the last iteration ended
	EventReleased                     // the owning call site went away
)

// String returns a lower-case name for the event type.
func (t EventType) String() string {
	switch t {
	case EventConstructed:
		return "constructed"
	case EventDeferred:
		return "deferred"
	case EventBegan:
		return "began"
	case EventLoopBegan:
		return "loop-began"
	case EventCompleted:
		return "completed"
	case EventReleased:
		return "released"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// AnimationEvent describes one lifecycle event for an EntityStore.
type AnimationEvent struct {
	Type        EventType
	Name        string // Params.Name of the animation
	ComponentID uint32
	Frame       uint64  // scheduler frame the event happened in
	Progress    float64 // animation progress, 0 when there is no animation yet
}

// EntityStore is the interface for optional ECS integration. When set on a
// Runtime, bridge lifecycle events are forwarded to it.
type EntityStore interface {
	EmitEvent(event AnimationEvent)
}
