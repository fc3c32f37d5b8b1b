package potree

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/potree/octree"
)

// ByteRange locates the points of one node inside the point-data file.
type ByteRange struct {
	Size   uint64
	Offset uint64
}

// ByteRanges maps every node of a written tree to the location of its points.
type ByteRanges map[octree.Name]ByteRange

// Writer writes the points of an octree as quantized 12 byte records.
type Writer struct {
	out    io.Writer
	origin r3.Vector
	scale  float64
	offset uint64
	ranges ByteRanges
	buf    [BytesPerPoint]byte
}

// NewWriter returns a writer that quantizes coordinates relative to origin in steps of scale.
func NewWriter(out io.Writer, origin r3.Vector, scale float64) *Writer {
	return &Writer{
		out:    out,
		origin: origin,
		scale:  scale,
		ranges: ByteRanges{},
	}
}

// WriteOctree writes the points of every node of tree to out and returns where each
// node's points were written. Coordinates are quantized relative to the lower corner of
// the tight bounds of the tree.
func WriteOctree(tree *octree.Octree, out io.Writer) (ByteRanges, error) {
	w := NewWriter(out, tree.Bounds().Min, tree.Scale())
	if err := w.Write(tree.Root()); err != nil {
		return nil, err
	}
	return w.Ranges(), nil
}

// Ranges returns the byte ranges recorded so far.
func (w *Writer) Ranges() ByteRanges {
	return w.ranges
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() uint64 {
	return w.offset
}

// Write writes the subtree rooted at root. Siblings are written wave by wave; when the
// first child of a wave has a name length that is a multiple of TraversalStepSize, each
// child subtree is written completely before its next sibling.
func (w *Writer) Write(root *octree.Node) error {
	waves := [][]*octree.Node{{root}}
	for len(waves) > 0 {
		wave := waves[len(waves)-1]
		waves = waves[:len(waves)-1]

		var children []*octree.Node
		for _, node := range wave {
			if err := w.writeNode(node); err != nil {
				return err
			}
			for _, child := range node.Children() {
				if child == nil {
					continue
				}
				if child.NumPoints() == 0 {
					// never written, but the hierarchy still lists it
					w.ranges[child.Name()] = ByteRange{Offset: w.offset}
					child.SetByteRange(0, w.offset)
					continue
				}
				children = append(children, child)
			}
		}
		if len(children) == 0 {
			continue
		}

		if startsGeneration(children[0].Name()) {
			// pushed in reverse so the first child is written first
			for _, child := range lo.Reverse(children) {
				waves = append(waves, []*octree.Node{child})
			}
			continue
		}
		waves = append(waves, children)
	}
	return nil
}

func startsGeneration(name octree.Name) bool {
	return name.Len() > 1 && name.Len()%TraversalStepSize == 0
}

func (w *Writer) writeNode(node *octree.Node) error {
	points := node.Points()
	size := uint64(len(points)) * BytesPerPoint
	offset := w.offset
	for _, p := range points {
		if err := w.writePoint(p); err != nil {
			return errors.Wrapf(err, "error writing points of node %s", node.Name())
		}
	}
	w.offset += size
	w.ranges[node.Name()] = ByteRange{Size: size, Offset: offset}
	node.SetByteRange(size, offset)
	return nil
}

func (w *Writer) writePoint(p r3.Vector) error {
	x, err := w.quantize(p.X, w.origin.X)
	if err != nil {
		return err
	}
	y, err := w.quantize(p.Y, w.origin.Y)
	if err != nil {
		return err
	}
	z, err := w.quantize(p.Z, w.origin.Z)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(w.buf[0:], uint32(x))
	binary.LittleEndian.PutUint32(w.buf[4:], uint32(y))
	binary.LittleEndian.PutUint32(w.buf[8:], uint32(z))
	_, err = w.out.Write(w.buf[:])
	return err
}

func (w *Writer) quantize(v, origin float64) (int32, error) {
	q := math.Round((v - origin) / w.scale)
	if q < math.MinInt32 || q > math.MaxInt32 || math.IsNaN(q) {
		return 0, errors.Errorf("coordinate %v cannot be quantized with scale %v", v, w.scale)
	}
	return int32(q), nil
}
