// Package spatialmath defines axis-aligned bounding box arithmetic used to subdivide
// point clouds into octants.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Octant bits. A set bit selects the upper half along that axis.
const (
	OctantX = 0b100
	OctantY = 0b010
	OctantZ = 0b001
)

// Bounds is an axis-aligned box described by its lower and upper corners. Its extents
// are always derived from the corners so they cannot drift out of sync.
type Bounds struct {
	Min r3.Vector
	Max r3.Vector
}

// NewBounds returns the box spanned by the two given corners. The corners are ordered
// component-wise so the resulting extents are never negative.
func NewBounds(a, b r3.Vector) Bounds {
	return Bounds{
		Min: r3.Vector{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)},
		Max: r3.Vector{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)},
	}
}

// BoundsOf returns the tightest box containing every given point.
func BoundsOf(points []r3.Vector) (Bounds, error) {
	if len(points) == 0 {
		return Bounds{}, errors.New("cannot compute bounds of zero points")
	}
	lower, upper := points[0], points[0]
	for _, p := range points[1:] {
		lower = r3.Vector{X: math.Min(lower.X, p.X), Y: math.Min(lower.Y, p.Y), Z: math.Min(lower.Z, p.Z)}
		upper = r3.Vector{X: math.Max(upper.X, p.X), Y: math.Max(upper.Y, p.Y), Z: math.Max(upper.Z, p.Z)}
	}
	return Bounds{Min: lower, Max: upper}, nil
}

// Size returns the extent of the box along each axis.
func (b Bounds) Size() r3.Vector {
	return b.Max.Sub(b.Min).Abs()
}

// Center returns the midpoint of the box.
func (b Bounds) Center() r3.Vector {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Diagonal returns the length of the space diagonal of the box.
func (b Bounds) Diagonal() float64 {
	return b.Size().Norm()
}

// Cubic returns a box anchored at the same lower corner whose three extents all equal
// the largest extent of b.
func (b Bounds) Cubic() Bounds {
	size := b.Size()
	maxSize := floats.Max([]float64{size.X, size.Y, size.Z})
	return Bounds{
		Min: b.Min,
		Max: b.Min.Add(r3.Vector{X: maxSize, Y: maxSize, Z: maxSize}),
	}
}

// Contains reports whether p lies inside the box, boundary included.
func (b Bounds) Contains(p r3.Vector) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// OctantOf returns the 3-bit octant code of p relative to the midpoint of the box. A
// coordinate strictly below the midpoint selects the lower half on that axis.
func (b Bounds) OctantOf(p r3.Vector) int {
	mid := b.Center()
	var index int
	if p.X >= mid.X {
		index |= OctantX
	}
	if p.Y >= mid.Y {
		index |= OctantY
	}
	if p.Z >= mid.Z {
		index |= OctantZ
	}
	return index
}

// Octant returns the child cell with the given 3-bit code, computed by bisecting each
// axis at the midpoint. The eight child cells tile b exactly.
func (b Bounds) Octant(index int) Bounds {
	mid := b.Center()
	child := Bounds{Min: b.Min, Max: mid}
	if index&OctantX != 0 {
		child.Min.X, child.Max.X = mid.X, b.Max.X
	}
	if index&OctantY != 0 {
		child.Min.Y, child.Max.Y = mid.Y, b.Max.Y
	}
	if index&OctantZ != 0 {
		child.Min.Z, child.Max.Z = mid.Z, b.Max.Z
	}
	return child
}

// String returns a human readable representation of the box.
func (b Bounds) String() string {
	return fmt.Sprintf("bounds from %v to %v", b.Min, b.Max)
}
