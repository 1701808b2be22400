// Package tempo runs anime.js style tweens inside a small reactive component
// runtime for [Ebitengine].
//
// Two execution models meet here. The animation [Engine] mutates plain
// numeric fields in place on its own cadence. Components re-render only when
// a [Cell] they own receives a new, distinct value. [UseAnime] bridges the
// two: it constructs its [Animation] exactly once, on the first frame after
// mount in which every target resolves, and after each engine tick publishes
// a fresh snapshot of the animated state.
//
// # Quick start
//
//	rt := tempo.NewRuntime()
//	rt.Mount("box", func(c *tempo.Component) {
//		state, anim := tempo.UseAnime(c, tempo.Params{
//			Properties: map[string]tempo.Keyframes{"scale": tempo.To(1.5)},
//			Duration:   time.Second,
//			Easing:     "easeInOutSine",
//			Autoplay:   true,
//		}, tempo.Fields{"scale": 1})
//		box.Scale = state["scale"]
//		box.Anim = anim // nil until the first frame
//	})
//	tempo.Run(rt, draw, tempo.RunConfig{Title: "Boxes", Width: 800, Height: 600})
//
// For full control, call [Runtime.Update] from your own ebiten.Game, or wrap
// the runtime with [NewGame].
//
// # Targets
//
// An animation mutates [Target]s: [Fields] maps, struct pointers (exported
// numeric fields, matched case-insensitively) and [Ref]s that resolve later.
// A target that does not resolve yet postpones construction to a later
// frame; it is never animated as nil.
//
// # Snapshots
//
// The state passed to UseAnime is copied once into a private mirror that
// the engine mutates. Maps and struct pointers are published as new copies
// every tick; numbers and struct values are published as values, so equal
// values do not cause a re-render.
//
// [Ebitengine]: https://ebitengine.org
package tempo
