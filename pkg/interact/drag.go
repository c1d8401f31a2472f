package interact

import (
	"errors"

	"github.com/matzehuels/contribnet/pkg/force"
)

// Drag transition errors.
var (
	ErrNotDragging     = errors.New("no drag in progress")
	ErrAlreadyDragging = errors.New("drag already in progress")
	ErrUnknownNode     = errors.New("node not in simulation")
)

// Drag is the per-node drag state machine: idle -> dragging -> idle.
// The zero value is idle.
type Drag struct {
	node *force.Node
}

// Active reports whether a node is being dragged.
func (d *Drag) Active() bool { return d.node != nil }

// NodeID returns the dragged node, or "".
func (d *Drag) NodeID() string {
	if d.node == nil {
		return ""
	}
	return d.node.ID
}

// Start pins the node where it is and keeps the run warm so its neighbours
// follow. A cooled run is restarted.
func (d *Drag) Start(sim *force.Simulation, id string) error {
	if d.node != nil {
		return ErrAlreadyDragging
	}
	n, ok := sim.Node(id)
	if !ok {
		return ErrUnknownNode
	}
	n.Pin(n.X, n.Y)
	sim.SetAlphaTarget(force.DragAlphaTarget)
	sim.Restart()
	d.node = n
	return nil
}

// Move updates the pin of the dragged node to a simulation position.
func (d *Drag) Move(x, y float64) error {
	if d.node == nil {
		return ErrNotDragging
	}
	d.node.Pin(x, y)
	return nil
}

// End releases the node back to the forces and lets the run cool.
func (d *Drag) End(sim *force.Simulation) error {
	if d.node == nil {
		return ErrNotDragging
	}
	d.node.Unpin()
	sim.SetAlphaTarget(0)
	d.node = nil
	return nil
}

// Reset forgets the drag without touching any simulation. It is used when
// the simulation the drag belonged to was discarded.
func (d *Drag) Reset() { d.node = nil }
