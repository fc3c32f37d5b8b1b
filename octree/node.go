package octree

import (
	"github.com/golang/geo/r3"

	"go.viam.com/potree/spatialmath"
)

// Node is a cell of the sampling octree. While a node is a leaf its points are buffered
// in a flat store. Once split, the points it keeps at its own level of detail live in an
// 8x8 grid: the outer index is the child octant of the point relative to this node and
// the inner index is the point's octant relative to that child cell.
type Node struct {
	name             Name
	spacing          float64
	squaredSpacing   float64
	bounds           spatialmath.Bounds
	maxPointsPerLeaf int

	children [8]*Node
	store    []r3.Vector
	grid     *[8][8][]r3.Vector

	byteOffset uint64
	byteSize   uint64
}

func newNode(name Name, spacing float64, bounds spatialmath.Bounds, maxPointsPerLeaf int) *Node {
	return &Node{
		name:             name,
		spacing:          spacing,
		squaredSpacing:   spacing * spacing,
		bounds:           bounds,
		maxPointsPerLeaf: maxPointsPerLeaf,
	}
}

// Name returns the path name of the node.
func (n *Node) Name() Name {
	return n.name
}

// Level returns the depth of the node, zero for the root.
func (n *Node) Level() int {
	return n.name.Level()
}

// Spacing returns the minimum distance enforced between points kept at this node.
func (n *Node) Spacing() float64 {
	return n.spacing
}

// Bounds returns the cube cell of the node.
func (n *Node) Bounds() spatialmath.Bounds {
	return n.bounds
}

// Child returns the child in the given octant, or nil if it does not exist.
func (n *Node) Child(octant int) *Node {
	return n.children[octant]
}

// Children returns the eight child slots, absent children are nil.
func (n *Node) Children() [8]*Node {
	return n.children
}

// ChildMask returns a bitmask with bit i set iff the child in octant i exists.
func (n *Node) ChildMask() uint8 {
	var mask uint8
	for i, child := range n.children {
		if child != nil {
			mask |= 1 << i
		}
	}
	return mask
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	for _, child := range n.children {
		if child != nil {
			return false
		}
	}
	return true
}

// Points returns the points stored directly in this node. For a split node they are
// ordered by outer then inner grid index.
func (n *Node) Points() []r3.Vector {
	if n.IsLeaf() {
		return n.store
	}
	points := make([]r3.Vector, 0, n.NumPoints())
	for outer := range n.grid {
		for inner := range n.grid[outer] {
			points = append(points, n.grid[outer][inner]...)
		}
	}
	return points
}

// NumPoints returns the number of points stored directly in this node.
func (n *Node) NumPoints() int {
	if n.IsLeaf() {
		return len(n.store)
	}
	var count int
	for outer := range n.grid {
		for inner := range n.grid[outer] {
			count += len(n.grid[outer][inner])
		}
	}
	return count
}

// ByteRange returns the size and offset of the node's points in the point-data file.
// It is zero until the node has been serialized.
func (n *Node) ByteRange() (size, offset uint64) {
	return n.byteSize, n.byteOffset
}

// SetByteRange records where the node's points were written. Only the serializer calls it.
func (n *Node) SetByteRange(size, offset uint64) {
	n.byteSize = size
	n.byteOffset = offset
}

// add inserts p into the subtree rooted at n.
func (n *Node) add(p r3.Vector) {
	for node := n; node != nil; {
		node = node.insert(p)
	}
}

// insert keeps p at this node or returns the child it has to be pushed down to.
func (n *Node) insert(p r3.Vector) *Node {
	if n.IsLeaf() {
		n.store = append(n.store, p)
		// a single buffered point can never be decimated, so splitting it would only
		// leave an empty child behind
		if len(n.store) >= n.maxPointsPerLeaf && len(n.store) > 1 {
			n.split(n.bounds.OctantOf(p))
		}
		return nil
	}

	outer := n.bounds.OctantOf(p)
	inner := n.bounds.Octant(outer).OctantOf(p)
	cell := &n.grid[outer][inner]
	for _, q := range *cell {
		if withinDistance(q, p, n.squaredSpacing) {
			if n.children[outer] == nil {
				n.children[outer] = n.newChild(outer)
			}
			return n.children[outer]
		}
	}
	*cell = append(*cell, p)
	return nil
}

// split turns a leaf into an inner node. One child is created eagerly in the given
// octant and every buffered point is inserted again, in order, through the grid.
func (n *Node) split(octant int) {
	n.children[octant] = n.newChild(octant)
	n.grid = new([8][8][]r3.Vector)
	buffered := n.store
	n.store = nil
	for _, p := range buffered {
		n.add(p)
	}
}

func (n *Node) newChild(octant int) *Node {
	return newNode(n.name.Child(octant), n.spacing/2, n.bounds.Octant(octant), n.maxPointsPerLeaf)
}

// withinDistance reports whether a and b are strictly closer than the given squared distance.
func withinDistance(a, b r3.Vector, squaredDistance float64) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return dx*dx+dy*dy+dz*dz < squaredDistance
}
