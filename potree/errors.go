package potree

import (
	"fmt"

	"go.viam.com/potree/octree"
)

// ErrEmptyInput is returned when a conversion is requested for zero points.
var ErrEmptyInput = octree.ErrEmptyInput

// Artifact identifies one of the files produced by a conversion.
type Artifact int

// The artifacts of a conversion.
const (
	PointDataArtifact Artifact = iota
	HierarchyArtifact
	MetadataArtifact
)

func (a Artifact) String() string {
	switch a {
	case PointDataArtifact:
		return "point data"
	case HierarchyArtifact:
		return "hierarchy"
	case MetadataArtifact:
		return "metadata"
	default:
		return fmt.Sprintf("artifact(%d)", int(a))
	}
}

// WriteError is returned when an artifact cannot be created or written.
type WriteError struct {
	Artifact Artifact
	Path     string
	Err      error
}

func (e *WriteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("error writing %s: %v", e.Artifact, e.Err)
	}
	return fmt.Sprintf("error writing %s to %q: %v", e.Artifact, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error.
func (e *WriteError) Cause() error {
	return e.Err
}

// SerializationError is returned when the metadata cannot be encoded.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("error serializing metadata: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *SerializationError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error.
func (e *SerializationError) Cause() error {
	return e.Err
}

// HierarchyConsistencyError is returned when the hierarchy encoder finds a node the point
// writer never recorded. It means the two disagree about the traversal and is a bug, not
// a recoverable condition.
type HierarchyConsistencyError struct {
	Name octree.Name
}

func (e *HierarchyConsistencyError) Error() string {
	return fmt.Sprintf("no byte range recorded for node %s", e.Name)
}
