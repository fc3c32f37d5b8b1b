// Package pointcloud reads unordered point clouds from the file formats a conversion
// accepts as input.
//
// A PointCloud keeps its points in the order they were read: the sampling octree built
// from them depends on that order.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/potree/spatialmath"
)

// This value is what we use to validate a point's value is within float64 precision.
const (
	maxPreciseFloat64 = float64(9007199254740992)
	minPreciseFloat64 = float64(-9007199254740992)
)

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns meta data for an empty cloud.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge updates the meta data with a new point.
func (meta *MetaData) Merge(v r3.Vector) {
	meta.MinX = math.Min(meta.MinX, v.X)
	meta.MinY = math.Min(meta.MinY, v.Y)
	meta.MinZ = math.Min(meta.MinZ, v.Z)
	meta.MaxX = math.Max(meta.MaxX, v.X)
	meta.MaxY = math.Max(meta.MaxY, v.Y)
	meta.MaxZ = math.Max(meta.MaxZ, v.Z)
}

// Bounds returns the axis aligned box spanned by the merged points.
func (meta MetaData) Bounds() spatialmath.Bounds {
	return spatialmath.NewBounds(
		r3.Vector{X: meta.MinX, Y: meta.MinY, Z: meta.MinZ},
		r3.Vector{X: meta.MaxX, Y: meta.MaxY, Z: meta.MaxZ},
	)
}

// PointCloud is an ordered collection of points.
type PointCloud interface {
	// Size returns the number of points in the cloud.
	Size() int

	// MetaData returns meta data
	MetaData() MetaData

	// Set appends the given point to the cloud.
	Set(p r3.Vector) error

	// Iterate calls fn for every point in insertion order. If fn returns false,
	// iteration stops after fn returns.
	Iterate(fn func(p r3.Vector) bool)

	// Points returns the points in insertion order.
	Points() []r3.Vector
}

// basicPointCloud is the slice backed implementation of PointCloud.
type basicPointCloud struct {
	points []r3.Vector
	meta   MetaData
}

// New returns an empty PointCloud.
func New() PointCloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty PointCloud with room for size points.
func NewWithPrealloc(size int) PointCloud {
	return &basicPointCloud{
		points: make([]r3.Vector, 0, size),
		meta:   NewMetaData(),
	}
}

func (cloud *basicPointCloud) Size() int {
	return len(cloud.points)
}

func (cloud *basicPointCloud) MetaData() MetaData {
	return cloud.meta
}

// Set validates that the point can be precisely stored before appending it.
func (cloud *basicPointCloud) Set(p r3.Vector) error {
	if err := validatePrecision(p); err != nil {
		return err
	}
	cloud.points = append(cloud.points, p)
	cloud.meta.Merge(p)
	return nil
}

func (cloud *basicPointCloud) Iterate(fn func(p r3.Vector) bool) {
	for _, p := range cloud.points {
		if !fn(p) {
			return
		}
	}
}

func (cloud *basicPointCloud) Points() []r3.Vector {
	return cloud.points
}

func validatePrecision(p r3.Vector) error {
	for _, c := range []struct {
		name  string
		value float64
	}{{"x", p.X}, {"y", p.Y}, {"z", p.Z}} {
		if math.IsNaN(c.value) {
			return errors.Errorf("%s component is not a number", c.name)
		}
		if c.value < minPreciseFloat64 || c.value > maxPreciseFloat64 {
			return errors.Errorf("%s component (%f) is not within [%f,%f], which is the range of float64 precision",
				c.name, c.value, minPreciseFloat64, maxPreciseFloat64)
		}
	}
	return nil
}
