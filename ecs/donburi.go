package ecs

import (
	"github.com/phanxgames/tempo"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// AnimationEventType is the Donburi event type for tempo animation events.
// Subscribe to this in your ECS systems to react to animations starting,
// looping and finishing.
var AnimationEventType = events.NewEventType[tempo.AnimationEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Animation events are published to AnimationEventType and can be
// consumed with events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) tempo.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event tempo.AnimationEvent) {
	AnimationEventType.Publish(s.world, event)
}
