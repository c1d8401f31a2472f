package force

import (
	"math"

	"github.com/matzehuels/contribnet/pkg/graph"
)

// Point is a position in simulation coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a simulated body. Index is its position in the simulation's node
// slice.
type Node struct {
	ID    string
	Kind  graph.Kind
	Index int

	X, Y   float64
	VX, VY float64

	pin *Point
}

// NewNode returns a node without a position. [New] places it on the initial
// spiral.
func NewNode(id string, kind graph.Kind) *Node {
	return &Node{ID: id, Kind: kind, X: math.NaN(), Y: math.NaN()}
}

// Pos returns the current position.
func (n *Node) Pos() Point { return Point{n.X, n.Y} }

// Pin holds the node at (x, y) until [Node.Unpin].
func (n *Node) Pin(x, y float64) { n.pin = &Point{x, y} }

// Unpin releases the node back to the forces.
func (n *Node) Unpin() { n.pin = nil }

// Pinned returns the pin, if any.
func (n *Node) Pinned() (Point, bool) {
	if n.pin == nil {
		return Point{}, false
	}
	return *n.pin, true
}

// Link connects two simulated nodes.
type Link struct {
	Source *Node
	Target *Node
	Index  int
}
