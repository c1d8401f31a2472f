// Package viewer is the interactive state machine behind every render
// surface.
//
// # Dispatch
//
// All user input is expressed as typed [Action] values consumed by a single
// update function, [Viewer.Update]. An update mutates the filter state,
// recomputes the visible subgraph when filters changed (stopping the old
// simulation and starting a fresh one), applies interaction state, and then
// refreshes every attached [Surface] exactly once with a new [Frame].
//
//	v := viewer.New(g, viewer.Options{}, surface)
//	_ = v.Update(viewer.ToggleSource{Source: "external"})
//	_ = v.Update(viewer.HoverNode{Node: "topic:graphs"})
//
// [Viewer.Tick] advances the simulation and any focus transition; it
// refreshes the surfaces only when something moved.
//
// # Info Panel
//
// Hovering a node or group shows transient [Info]; clicking pins it. A pinned
// panel is only dismissed by [CloseInfo] or [ClickBackground]; hovering other
// elements does not replace it.
//
// # Concurrency
//
// A Viewer is owned by one goroutine. [Loop] provides that goroutine: it
// consumes actions from a channel, ticks on a [time.Ticker], and publishes
// the latest frame for concurrent readers through [Loop.Snapshot].
//
// # Error State
//
// [NewFailed] creates a viewer for a dataset that could not be loaded. Its
// frames carry the error and no graph; input is ignored.
package viewer
