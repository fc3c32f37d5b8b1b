package octree

import (
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"

	"go.viam.com/potree/logging"
)

// randomCloud returns count points uniformly distributed in [0,sx)x[0,sy)x[0,sz).
func randomCloud(seed int64, count int, sx, sy, sz float64) []r3.Vector {
	rnd := rand.New(rand.NewSource(seed))
	points := make([]r3.Vector, 0, count)
	for i := 0; i < count; i++ {
		points = append(points, r3.Vector{X: rnd.Float64() * sx, Y: rnd.Float64() * sy, Z: rnd.Float64() * sz})
	}
	return points
}

// validateNode checks the storage invariants of every node and returns the number of
// points stored directly in the subtree.
func validateNode(t *testing.T, n *Node) int {
	t.Helper()

	if n.IsLeaf() {
		test.That(t, n.grid, test.ShouldBeNil)
		test.That(t, n.NumPoints(), test.ShouldEqual, len(n.store))
	} else {
		test.That(t, n.store, test.ShouldBeEmpty)
		test.That(t, n.grid, test.ShouldNotBeNil)
		var inGrid int
		for outer := range n.grid {
			for inner := range n.grid[outer] {
				for _, p := range n.grid[outer][inner] {
					test.That(t, n.bounds.OctantOf(p), test.ShouldEqual, outer)
					test.That(t, n.bounds.Octant(outer).OctantOf(p), test.ShouldEqual, inner)
				}
				inGrid += len(n.grid[outer][inner])
			}
		}
		test.That(t, n.NumPoints(), test.ShouldEqual, inGrid)
	}
	test.That(t, n.Points(), test.ShouldHaveLength, n.NumPoints())
	for _, p := range n.Points() {
		test.That(t, n.bounds.Contains(p), test.ShouldBeTrue)
	}

	total := n.NumPoints()
	for i, child := range n.children {
		if child == nil {
			continue
		}
		test.That(t, child.name, test.ShouldResemble, n.name.Child(i))
		test.That(t, child.spacing, test.ShouldEqual, n.spacing/2)
		test.That(t, child.bounds, test.ShouldResemble, n.bounds.Octant(i))
		total += validateNode(t, child)
	}
	return total
}

func TestBuild(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("empty input", func(t *testing.T) {
		_, err := Build(nil, 10, logger)
		test.That(t, err, test.ShouldEqual, ErrEmptyInput)
	})

	t.Run("invalid leaf limit", func(t *testing.T) {
		_, err := Build([]r3.Vector{{}}, 0, logger)
		test.That(t, err, test.ShouldBeError, "invalid max points per leaf node (0)")
	})

	t.Run("derived values", func(t *testing.T) {
		points := []r3.Vector{{X: 1, Y: 1, Z: 1}, {X: 101, Y: 51, Z: 11}}
		tree, err := Build(points, 10, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, tree.Size(), test.ShouldEqual, 2)
		test.That(t, tree.Bounds().Min, test.ShouldResemble, r3.Vector{X: 1, Y: 1, Z: 1})
		test.That(t, tree.Bounds().Max, test.ShouldResemble, r3.Vector{X: 101, Y: 51, Z: 11})
		test.That(t, tree.CubicBounds().Max, test.ShouldResemble, r3.Vector{X: 101, Y: 101, Z: 101})
		test.That(t, tree.Spacing(), test.ShouldAlmostEqual, tree.CubicBounds().Diagonal()/DiagonalFraction)
		test.That(t, tree.Scale(), test.ShouldEqual, 0.001)
		test.That(t, tree.Root().Bounds(), test.ShouldResemble, tree.CubicBounds())
		test.That(t, tree.MaxPointsPerLeaf(), test.ShouldEqual, 10)
	})
}

func TestScaleFor(t *testing.T) {
	test.That(t, ScaleFor(2_000_000), test.ShouldEqual, 0.01)
	test.That(t, ScaleFor(1_000_000), test.ShouldEqual, 0.001)
	test.That(t, ScaleFor(1.5), test.ShouldEqual, 0.001)
	test.That(t, ScaleFor(1), test.ShouldEqual, 0.0001)
	test.That(t, ScaleFor(0), test.ShouldEqual, 0.0001)
}

func TestSplit(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("split creates a single eager child", func(t *testing.T) {
		tree, err := Build([]r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 10, Y: 10, Z: 10}}, 2, logger)
		test.That(t, err, test.ShouldBeNil)

		root := tree.Root()
		test.That(t, root.IsLeaf(), test.ShouldBeFalse)
		test.That(t, root.NumPoints(), test.ShouldEqual, 2)
		test.That(t, root.ChildMask(), test.ShouldEqual, uint8(1<<7))
		test.That(t, root.Child(7).IsLeaf(), test.ShouldBeTrue)
		test.That(t, root.Child(7).NumPoints(), test.ShouldEqual, 0)
		test.That(t, root.Child(7).Name().String(), test.ShouldEqual, "r7")
		test.That(t, root.Points(), test.ShouldResemble, []r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 10, Y: 10, Z: 10}})
	})

	t.Run("close points are pushed down", func(t *testing.T) {
		points := []r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 10, Y: 10, Z: 10}, {X: 0.01, Y: 0, Z: 0}}
		tree, err := Build(points, 2, logger)
		test.That(t, err, test.ShouldBeNil)

		root := tree.Root()
		test.That(t, root.NumPoints(), test.ShouldEqual, 2)
		test.That(t, root.ChildMask(), test.ShouldEqual, uint8(1<<0|1<<7))
		test.That(t, root.Child(0).Points(), test.ShouldResemble, []r3.Vector{{X: 0.01, Y: 0, Z: 0}})
		test.That(t, root.Child(0).Spacing(), test.ShouldEqual, root.Spacing()/2)
	})

	t.Run("single buffered point never splits", func(t *testing.T) {
		tree, err := Build([]r3.Vector{{X: 3, Y: 4, Z: 5}}, 1, logger)
		test.That(t, err, test.ShouldBeNil)
		root := tree.Root()
		test.That(t, root.Name().String(), test.ShouldEqual, "r")
		test.That(t, root.Level(), test.ShouldEqual, 0)
		test.That(t, root.IsLeaf(), test.ShouldBeTrue)
		test.That(t, root.NumPoints(), test.ShouldEqual, 1)
	})

	t.Run("leaf limit of one splits on the second point", func(t *testing.T) {
		tree, err := Build([]r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 1}}, 1, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, tree.Root().IsLeaf(), test.ShouldBeFalse)
		test.That(t, tree.Root().NumPoints(), test.ShouldEqual, 2)
	})

	t.Run("duplicates terminate", func(t *testing.T) {
		points := make([]r3.Vector, 50)
		for i := range points {
			points[i] = r3.Vector{X: 1, Y: 1, Z: 1}
		}
		points = append(points, r3.Vector{X: 2, Y: 2, Z: 2})
		tree, err := Build(points, 4, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, validateNode(t, tree.Root()), test.ShouldEqual, len(points))
	})
}

func TestWithinDistance(t *testing.T) {
	a := r3.Vector{X: 0, Y: 0, Z: 0}
	test.That(t, withinDistance(a, r3.Vector{X: 1}, 1), test.ShouldBeFalse)
	test.That(t, withinDistance(a, r3.Vector{X: 0.5}, 1), test.ShouldBeTrue)
	test.That(t, withinDistance(a, r3.Vector{X: 0.6, Y: 0.8}, 1), test.ShouldBeFalse)
}

func TestUniformCloud(t *testing.T) {
	points := randomCloud(1, 10_000, 100, 100, 10)
	tree, err := Build(points, 1000, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	test.That(t, tree.Root().IsLeaf(), test.ShouldBeFalse)
	test.That(t, validateNode(t, tree.Root()), test.ShouldEqual, 10_000)

	var recovered int
	tree.Walk(func(n *Node) bool {
		recovered += len(n.Points())
		return true
	})
	test.That(t, recovered, test.ShouldEqual, 10_000)

	stats := tree.Stats()
	test.That(t, stats.Points, test.ShouldEqual, 10_000)
	test.That(t, stats.Depth, test.ShouldBeGreaterThan, 0)
	test.That(t, stats.LeafNodes, test.ShouldBeLessThan, stats.Nodes)
}

// A lattice whose spacing is far larger than the root spacing never triggers distance
// rejection, so every point stays in the root.
func TestSparseLatticeStaysShallow(t *testing.T) {
	const steps = 20
	points := make([]r3.Vector, 0, steps*steps*steps)
	for i := 0; i < steps; i++ {
		for j := 0; j < steps; j++ {
			for k := 0; k < steps; k++ {
				points = append(points, r3.Vector{
					X: float64(i) * 75 / (steps - 1),
					Y: float64(j) * 75 / (steps - 1),
					Z: float64(k) * 75 / (steps - 1),
				})
			}
		}
	}
	tree, err := Build(points, 1000, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	stats := tree.Stats()
	test.That(t, stats.Depth, test.ShouldBeLessThanOrEqualTo, 1)
	test.That(t, tree.Root().NumPoints(), test.ShouldEqual, len(points))
	test.That(t, validateNode(t, tree.Root()), test.ShouldEqual, len(points))
}

func TestBuildIsDeterministic(t *testing.T) {
	points := randomCloud(7, 5000, 50, 20, 30)
	snapshot := func() map[string][]r3.Vector {
		tree, err := Build(points, 200, logging.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)
		nodes := map[string][]r3.Vector{}
		tree.Walk(func(n *Node) bool {
			nodes[n.Name().String()] = n.Points()
			return true
		})
		return nodes
	}
	first, second := snapshot(), snapshot()
	test.That(t, cmp.Diff(first, second), test.ShouldBeEmpty)
}

func TestWalkStops(t *testing.T) {
	tree, err := Build(randomCloud(3, 2000, 10, 10, 10), 100, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	var visited []string
	tree.Walk(func(n *Node) bool {
		visited = append(visited, n.Name().String())
		return len(visited) < 3
	})
	test.That(t, visited, test.ShouldHaveLength, 3)
	test.That(t, visited[0], test.ShouldEqual, "r")
}
