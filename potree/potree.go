// Package potree serializes a sampling octree into the three artifacts of a streamable
// point cloud: the point-data file, the chunked hierarchy index over the tree, and a
// metadata document describing both.
//
// Point data is written in generations: a breadth first wave of nodes is written
// together until the next wave would start at a name length that is a multiple of
// TraversalStepSize, at which point every child subtree is written on its own. The
// hierarchy groups nodes into chunks spanning HierarchyStepSize levels; nodes on a chunk
// boundary are written as proxies that point at the chunk continuing their subtree.
package potree

// Layout constants. They determine the byte layout of the output and must stay stable.
const (
	// BytesPerPoint is the size of a point record: three little endian int32 coordinates.
	BytesPerPoint = 12
	// BytesPerHierarchyNode is the size of a hierarchy record:
	// type(1) + childMask(1) + numPoints(4) + targetOffset(8) + targetSize(8).
	BytesPerHierarchyNode = 1 + 1 + 4 + 8 + 8
	// HierarchyStepSize is the number of levels below a chunk root kept in that chunk.
	HierarchyStepSize = 4
	// TraversalStepSize is the name length period at which the point writer switches
	// from writing waves of siblings to writing subtrees one at a time.
	TraversalStepSize = 5
)

// Output file names.
const (
	OctreeFileName    = "octree.bin"
	HierarchyFileName = "hierarchy.bin"
	MetadataFileName  = "metadata.json"
)
