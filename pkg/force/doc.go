// Package force implements a stepped force-directed layout simulation.
//
// # Overview
//
// A [Simulation] assigns positions to the nodes of a visible subgraph by
// relaxing them under several forces:
//
//   - [LinkForce] pulls linked nodes toward a target distance
//   - [ManyBody] makes every pair of nodes repel
//   - [Collide] keeps nodes from overlapping
//   - [Center] moves the centre of mass to the canvas centre
//   - [PositionX] and [PositionY] pull each node weakly toward the centre
//
// # Energy
//
// The simulation carries an energy parameter alpha. It starts at 1 and decays
// toward alphaTarget on every tick:
//
//	alpha += (alphaTarget - alpha) * alphaDecay
//
// Once alpha drops below alphaMin the run cools: [Simulation.Step] stops
// advancing, the end callbacks fire once, and nothing is emitted until the run
// is perturbed by [Simulation.Restart] or [Simulation.Reheat]. A drag raises
// alphaTarget so the run stays warm while a node is held.
//
// # Pinning
//
// A pinned node ([Node.Pin]) is placed at its pin with zero velocity after
// every tick, whatever the forces computed. [Node.Unpin] returns it to free
// simulation.
//
// # Lifecycle
//
// Simulations are never reused across node sets. When the visible subgraph
// changes the caller stops the old run and creates a new one:
//
//	old.Stop()
//	sim := force.FromView(view, cfg)
//
// [Simulation.Stop] is idempotent. After it returns, ticks are no-ops and no
// callback fires, so a tick scheduled against a discarded run cannot touch
// anything.
//
// # Determinism
//
// Initial positions follow a phyllotaxis spiral around the canvas centre.
// Coincident nodes are separated by a tiny jiggle drawn from a PCG generator
// seeded from [Config.Seed], so two runs with the same seed produce the same
// layout.
//
// # Concurrency
//
// A Simulation is not safe for concurrent use; it is owned by a single
// goroutine (see the viewer loop).
package force
