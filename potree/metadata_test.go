package potree

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"
)

func TestNewMetadata(t *testing.T) {
	points := []r3.Vector{{X: 1, Y: 2, Z: 3}, {X: 11, Y: 4, Z: 5}, {X: 6, Y: 7, Z: 4}}
	tree := buildTree(t, points, 20000)
	_, hierarchy := encodeTree(t, tree)

	md := NewMetadata(tree, hierarchy, Options{
		Name:             "scan",
		Description:      "a small scan",
		Projection:       "EPSG:4978",
		MaxPointsPerLeaf: 20000,
	})
	test.That(t, md.Version, test.ShouldEqual, FormatVersion)
	test.That(t, md.Name, test.ShouldEqual, "scan")
	test.That(t, md.Description, test.ShouldEqual, "a small scan")
	test.That(t, md.Projection, test.ShouldEqual, "EPSG:4978")
	test.That(t, md.Points, test.ShouldEqual, uint64(3))
	test.That(t, md.Encoding, test.ShouldEqual, EncodingDefault)
	test.That(t, md.Offset, test.ShouldResemble, [3]float64{1, 2, 3})
	test.That(t, md.Scale, test.ShouldResemble, [3]float64{0.001, 0.001, 0.001})
	test.That(t, md.Spacing, test.ShouldEqual, tree.Spacing())
	test.That(t, md.BoundingBox, test.ShouldResemble, BoundingBox{Min: [3]float64{1, 2, 3}, Max: [3]float64{11, 12, 13}})
	test.That(t, md.Hierarchy, test.ShouldResemble, HierarchyInfo{
		FirstChunkSize: BytesPerHierarchyNode,
		StepSize:       HierarchyStepSize,
		Depth:          0,
	})
	test.That(t, md.Attributes, test.ShouldHaveLength, 1)
	test.That(t, md.Attributes[0].Name, test.ShouldEqual, "position")
	test.That(t, md.Attributes[0].Min, test.ShouldResemble, []float64{1, 2, 3})
	test.That(t, md.Attributes[0].Max, test.ShouldResemble, []float64{11, 7, 5})
	test.That(t, md.Validate(), test.ShouldBeNil)
}

func TestMetadataJSON(t *testing.T) {
	tree := buildTree(t, randomCloud(7, 1000, 3), 100)
	_, hierarchy := encodeTree(t, tree)
	md := NewMetadata(tree, hierarchy, Options{Name: "cloud", MaxPointsPerLeaf: 100})

	data, err := md.Marshal()
	test.That(t, err, test.ShouldBeNil)

	var doc map[string]interface{}
	test.That(t, json.Unmarshal(data, &doc), test.ShouldBeNil)
	for _, key := range []string{
		"version", "name", "description", "points", "projection", "hierarchy",
		"offset", "scale", "spacing", "boundingBox", "encoding", "attributes",
	} {
		_, ok := doc[key]
		test.That(t, ok, test.ShouldBeTrue)
	}
	test.That(t, doc["hierarchy"], test.ShouldContainKey, "firstChunkSize")
	test.That(t, doc["hierarchy"], test.ShouldContainKey, "stepSize")

	decoded, err := ReadMetadata(bytes.NewReader(data))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cmp.Diff(md, decoded), test.ShouldBeEmpty)
}

func TestMetadataValidate(t *testing.T) {
	tree := buildTree(t, randomCloud(8, 10, 1), 100)
	_, hierarchy := encodeTree(t, tree)
	valid := func() *Metadata {
		return NewMetadata(tree, hierarchy, Options{MaxPointsPerLeaf: 100})
	}

	md := valid()
	md.Version = "3.0"
	test.That(t, md.Validate(), test.ShouldBeError, `unsupported version "3.0"`)

	md = valid()
	md.Version = "two"
	test.That(t, md.Validate(), test.ShouldNotBeNil)

	md = valid()
	md.Encoding = EncodingBrotli
	test.That(t, md.Validate(), test.ShouldBeError, `unsupported encoding "BROTLI"`)

	md = valid()
	md.Scale[1] = 0
	test.That(t, md.Validate(), test.ShouldBeError, "invalid scale 0 on axis 1")

	md = valid()
	md.Hierarchy.FirstChunkSize = 23
	test.That(t, md.Validate(), test.ShouldBeError, "invalid first chunk size (23)")

	_, err := ReadMetadata(bytes.NewReader([]byte("{")))
	test.That(t, err, test.ShouldNotBeNil)
}
