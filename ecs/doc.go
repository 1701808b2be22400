// Package ecs provides ECS adapters for tempo's animation lifecycle events.
//
// The primary adapter is [NewDonburiStore], which forwards tempo animation
// events (constructed, deferred, began, loop began, completed, released)
// into a [Donburi] world as typed events. Subscribe to [AnimationEventType]
// in your ECS systems to receive them.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	rt.SetEntityStore(store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
