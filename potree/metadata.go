package potree

import (
	"encoding/json"
	"io"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	"go.viam.com/potree/octree"
)

// FormatVersion is the version of the output format.
const FormatVersion = "2.0"

var supportedVersions = mustConstraint(">= 2.0, < 3.0")

func mustConstraint(c string) *semver.Constraints {
	constraints, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraints
}

// Encoding is the encoding of the point-data file.
type Encoding string

// Supported encodings. Only EncodingDefault is implemented.
const (
	EncodingDefault Encoding = "DEFAULT"
	EncodingBrotli  Encoding = "BROTLI"
)

// HierarchyInfo tells a client how to start reading the hierarchy file.
type HierarchyInfo struct {
	FirstChunkSize uint64 `json:"firstChunkSize"`
	StepSize       int    `json:"stepSize"`
	Depth          int    `json:"depth"`
}

// BoundingBox is the cube cell of the root node.
type BoundingBox struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// Attribute describes one per-point attribute in a point record.
type Attribute struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Size        int       `json:"size"`
	NumElements int       `json:"numElements"`
	ElementSize int       `json:"elementSize"`
	Type        string    `json:"type"`
	Min         []float64 `json:"min"`
	Max         []float64 `json:"max"`
}

// Metadata describes a converted point cloud.
type Metadata struct {
	Version     string        `json:"version"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Points      uint64        `json:"points"`
	Projection  string        `json:"projection"`
	Hierarchy   HierarchyInfo `json:"hierarchy"`
	Offset      [3]float64    `json:"offset"`
	Scale       [3]float64    `json:"scale"`
	Spacing     float64       `json:"spacing"`
	BoundingBox BoundingBox   `json:"boundingBox"`
	Encoding    Encoding      `json:"encoding"`
	Attributes  []Attribute   `json:"attributes"`
}

// PositionAttribute returns the descriptor of the quantized position attribute. Its
// range is the tight bounds of the tree.
func PositionAttribute(tree *octree.Octree) Attribute {
	bounds := tree.Bounds()
	return Attribute{
		Name:        "position",
		Size:        BytesPerPoint,
		NumElements: 3,
		ElementSize: 4,
		Type:        "int32",
		Min:         []float64{bounds.Min.X, bounds.Min.Y, bounds.Min.Z},
		Max:         []float64{bounds.Max.X, bounds.Max.Y, bounds.Max.Z},
	}
}

// NewMetadata assembles the metadata of a converted tree. The offset is the quantization
// origin used by the point writer and the bounding box is the root cell.
func NewMetadata(tree *octree.Octree, hierarchy *Hierarchy, opts Options) *Metadata {
	origin := tree.Bounds().Min
	cube := tree.CubicBounds()
	scale := tree.Scale()
	encoding := opts.Encoding
	if encoding == "" {
		encoding = EncodingDefault
	}
	return &Metadata{
		Version:     FormatVersion,
		Name:        opts.Name,
		Description: opts.Description,
		Points:      uint64(tree.Size()),
		Projection:  opts.Projection,
		Hierarchy: HierarchyInfo{
			FirstChunkSize: hierarchy.FirstChunkSize,
			StepSize:       hierarchy.StepSize,
			Depth:          hierarchy.Depth,
		},
		Offset:  [3]float64{origin.X, origin.Y, origin.Z},
		Scale:   [3]float64{scale, scale, scale},
		Spacing: tree.Spacing(),
		BoundingBox: BoundingBox{
			Min: [3]float64{cube.Min.X, cube.Min.Y, cube.Min.Z},
			Max: [3]float64{cube.Max.X, cube.Max.Y, cube.Max.Z},
		},
		Encoding:   encoding,
		Attributes: []Attribute{PositionAttribute(tree)},
	}
}

// Validate checks that the metadata describes data this package can read.
func (md *Metadata) Validate() error {
	version, err := semver.NewVersion(md.Version)
	if err != nil {
		return errors.Wrapf(err, "invalid version %q", md.Version)
	}
	if !supportedVersions.Check(version) {
		return errors.Errorf("unsupported version %q", md.Version)
	}
	if md.Encoding != EncodingDefault {
		return errors.Errorf("unsupported encoding %q", md.Encoding)
	}
	for i, s := range md.Scale {
		if s <= 0 {
			return errors.Errorf("invalid scale %v on axis %d", s, i)
		}
	}
	if md.Hierarchy.FirstChunkSize%BytesPerHierarchyNode != 0 {
		return errors.Errorf("invalid first chunk size (%d)", md.Hierarchy.FirstChunkSize)
	}
	return nil
}

// Marshal encodes the metadata as indented JSON.
func (md *Metadata) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(md, "", "\t")
	if err != nil {
		return nil, &SerializationError{Err: err}
	}
	return data, nil
}

// ReadMetadata decodes and validates a metadata document.
func ReadMetadata(r io.Reader) (*Metadata, error) {
	var md Metadata
	if err := json.NewDecoder(r).Decode(&md); err != nil {
		return nil, errors.Wrap(err, "failed to decode metadata from json")
	}
	if err := md.Validate(); err != nil {
		return nil, err
	}
	return &md, nil
}
