package potree

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ReadPoints decodes every point record from r and dequantizes it with the offset and
// scale of md.
func ReadPoints(r io.Reader, md *Metadata) ([]r3.Vector, error) {
	in := bufio.NewReader(r)
	var points []r3.Vector
	buf := make([]byte, BytesPerPoint)
	for {
		n, err := io.ReadFull(in, buf)
		if errors.Is(err, io.EOF) {
			return points, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "error reading point %d (read %d of %d bytes)", len(points), n, BytesPerPoint)
		}
		points = append(points, r3.Vector{
			X: float64(int32(binary.LittleEndian.Uint32(buf[0:])))*md.Scale[0] + md.Offset[0],
			Y: float64(int32(binary.LittleEndian.Uint32(buf[4:])))*md.Scale[1] + md.Offset[1],
			Z: float64(int32(binary.LittleEndian.Uint32(buf[8:])))*md.Scale[2] + md.Offset[2],
		})
	}
}

// ReadNodePoints decodes the points of a single node from the point-data file.
func ReadNodePoints(r io.ReaderAt, record HierarchyRecord, md *Metadata) ([]r3.Vector, error) {
	if record.Type == ProxyNode {
		return nil, errors.Errorf("node %s is a proxy and has no point data", record.Name)
	}
	if record.TargetSize%BytesPerPoint != 0 {
		return nil, errors.Errorf("invalid byte size %d for node %s", record.TargetSize, record.Name)
	}
	section := io.NewSectionReader(r, int64(record.TargetOffset), int64(record.TargetSize))
	points, err := ReadPoints(section, md)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading points of node %s", record.Name)
	}
	if uint32(len(points)) != record.NumPoints {
		return nil, errors.Errorf("node %s has %d points but %d were read", record.Name, record.NumPoints, len(points))
	}
	return points, nil
}
