package pointcloud

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// columns holds the indices of the coordinate columns of a text file.
type columns struct {
	x, y, z int
}

var defaultColumns = columns{x: 0, y: 1, z: 2}

// headerColumns resolves the coordinate columns from a header row. It returns false if
// the row is not a header, that is if its first three fields are all numbers.
func headerColumns(row []string) (columns, bool, error) {
	if len(row) < 3 {
		return columns{}, false, errors.Errorf("expected at least 3 columns but got %d", len(row))
	}
	numeric := true
	for _, field := range row[:3] {
		if _, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err != nil {
			numeric = false
			break
		}
	}
	if numeric {
		return defaultColumns, false, nil
	}

	cols := columns{x: -1, y: -1, z: -1}
	for i, field := range row {
		switch strings.ToLower(strings.TrimSpace(field)) {
		case "x":
			cols.x = i
		case "y":
			cols.y = i
		case "z":
			cols.z = i
		}
	}
	if cols.x < 0 || cols.y < 0 || cols.z < 0 {
		return columns{}, true, errors.Errorf("header %q does not name x, y and z columns", strings.Join(row, ","))
	}
	return cols, true, nil
}

func (cols columns) point(row []string) (r3.Vector, error) {
	var coords [3]float64
	for i, col := range []int{cols.x, cols.y, cols.z} {
		if col >= len(row) {
			return r3.Vector{}, errors.Errorf("missing column %d", col)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if err != nil {
			return r3.Vector{}, errors.Wrapf(err, "invalid coordinate %q", row[col])
		}
		coords[i] = v
	}
	return r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

type rowReader func() ([]string, error)

func readRows(next rowReader) (PointCloud, error) {
	pc := New()
	cols := defaultColumns
	for line := 1; ; line++ {
		row, err := next()
		if errors.Is(err, io.EOF) {
			return pc, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "error reading line %d", line)
		}
		if line == 1 {
			var isHeader bool
			cols, isHeader, err = headerColumns(row)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			if isHeader {
				continue
			}
		}
		p, err := cols.point(row)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		if err := pc.Set(p); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
	}
}

// ReadCSV reads comma separated points. An optional header row names the columns;
// columns named x, y and z are used and every other column is ignored. Without a header
// the first three columns are x, y and z.
func ReadCSV(in io.Reader) (PointCloud, error) {
	r := csv.NewReader(in)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.ReuseRecord = true
	return readRows(r.Read)
}

// ReadXYZ reads whitespace separated points, one per line, with the same column rules
// as ReadCSV.
func ReadXYZ(in io.Reader) (PointCloud, error) {
	scanner := bufio.NewScanner(in)
	return readRows(func() ([]string, error) {
		for scanner.Scan() {
			line, _, _ := strings.Cut(scanner.Text(), "#")
			if fields := strings.Fields(line); len(fields) > 0 {
				return fields, nil
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	})
}
