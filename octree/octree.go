// Package octree implements a sampling octree that turns an unordered point cloud into a
// level of detail hierarchy. Every node keeps a spatially decimated sample of the points
// that reach it and pushes points that are too close to an already kept sample down to
// its children, whose minimum spacing is half of their parent's.
package octree

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/potree/logging"
	"go.viam.com/potree/spatialmath"
)

// DiagonalFraction divides the space diagonal of the cubic bounds to obtain the spacing
// of the root node. It determines the output layout and must not change.
const DiagonalFraction = 200.0

// ErrEmptyInput is returned when an octree is requested for zero points.
var ErrEmptyInput = errors.New("cannot build an octree from zero points")

// Octree is a sampling octree built once from a point set. It is read-only after Build
// returns.
type Octree struct {
	bounds           spatialmath.Bounds
	cubicBounds      spatialmath.Bounds
	spacing          float64
	scale            float64
	size             int
	maxPointsPerLeaf int
	root             *Node
}

// Build inserts every point, in order, into a new octree whose root cell is the cubic
// bounds of the points. The result depends on the input order.
func Build(points []r3.Vector, maxPointsPerLeaf int, logger logging.Logger) (*Octree, error) {
	if len(points) == 0 {
		return nil, ErrEmptyInput
	}
	if maxPointsPerLeaf < 1 {
		return nil, errors.Errorf("invalid max points per leaf node (%d)", maxPointsPerLeaf)
	}

	bounds, err := spatialmath.BoundsOf(points)
	if err != nil {
		return nil, err
	}
	cubicBounds := bounds.Cubic()
	diagonal := cubicBounds.Diagonal()
	spacing := diagonal / DiagonalFraction

	octree := &Octree{
		bounds:           bounds,
		cubicBounds:      cubicBounds,
		spacing:          spacing,
		scale:            ScaleFor(diagonal),
		size:             len(points),
		maxPointsPerLeaf: maxPointsPerLeaf,
		root:             newNode(RootName, spacing, cubicBounds, maxPointsPerLeaf),
	}
	logger.Debugw("building octree",
		"points", len(points), "bounds", bounds.String(), "spacing", spacing, "scale", octree.scale)

	for _, p := range points {
		octree.root.add(p)
	}
	return octree, nil
}

// ScaleFor returns the quantization step used for a cloud whose cubic bounds have the
// given diagonal length.
func ScaleFor(diagonal float64) float64 {
	switch {
	case diagonal > 1_000_000:
		return 0.01
	case diagonal > 1:
		return 0.001
	default:
		return 0.0001
	}
}

// Root returns the root node.
func (octree *Octree) Root() *Node {
	return octree.root
}

// Bounds returns the tight bounds of the input points.
func (octree *Octree) Bounds() spatialmath.Bounds {
	return octree.bounds
}

// CubicBounds returns the cube cell of the root node.
func (octree *Octree) CubicBounds() spatialmath.Bounds {
	return octree.cubicBounds
}

// Spacing returns the spacing of the root node.
func (octree *Octree) Spacing() float64 {
	return octree.spacing
}

// Scale returns the quantization step for serialized coordinates.
func (octree *Octree) Scale() float64 {
	return octree.scale
}

// Size returns the number of input points.
func (octree *Octree) Size() int {
	return octree.size
}

// MaxPointsPerLeaf returns the number of buffered points that makes a leaf split.
func (octree *Octree) MaxPointsPerLeaf() int {
	return octree.maxPointsPerLeaf
}

// Walk visits every node in depth first pre-order, children in octant order. Walking
// stops as soon as fn returns false. It uses an explicit stack so that very deep trees
// are safe to visit.
func (octree *Octree) Walk(fn func(n *Node) bool) {
	stack := []*Node{octree.root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(node) {
			return
		}
		for i := len(node.children) - 1; i >= 0; i-- {
			if child := node.children[i]; child != nil {
				stack = append(stack, child)
			}
		}
	}
}

// Stats summarizes the shape of the tree.
type Stats struct {
	Nodes     int
	LeafNodes int
	Depth     int
	Points    int
}

// Stats walks the tree and returns its node count, leaf count, maximum level and the
// total number of directly stored points.
func (octree *Octree) Stats() Stats {
	var stats Stats
	octree.Walk(func(n *Node) bool {
		stats.Nodes++
		if n.IsLeaf() {
			stats.LeafNodes++
		}
		if n.Level() > stats.Depth {
			stats.Depth = n.Level()
		}
		stats.Points += n.NumPoints()
		return true
	})
	return stats
}
