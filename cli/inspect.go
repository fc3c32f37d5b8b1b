package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"go.viam.com/potree/octree"
	"go.viam.com/potree/potree"
)

// hierarchySummary aggregates the records of a hierarchy file.
type hierarchySummary struct {
	chunks       int
	nodes        int
	leaves       int
	points       uint64
	nodesByLevel map[int]int
}

func summarizeHierarchy(buffer []byte, firstChunkSize uint64) (*hierarchySummary, error) {
	summary := &hierarchySummary{nodesByLevel: map[int]int{}}
	err := potree.WalkChunks(buffer, firstChunkSize, func(_ octree.Name, records []potree.HierarchyRecord) error {
		summary.chunks++
		nodes := lo.Filter(records, func(r potree.HierarchyRecord, _ int) bool {
			return r.Type != potree.ProxyNode
		})
		summary.nodes += len(nodes)
		summary.leaves += lo.CountBy(nodes, func(r potree.HierarchyRecord) bool {
			return r.Type == potree.LeafNode
		})
		summary.points += lo.SumBy(nodes, func(r potree.HierarchyRecord) uint64 {
			return uint64(r.NumPoints)
		})
		for _, r := range nodes {
			summary.nodesByLevel[r.Name.Level()]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// InspectAction is the corresponding Action for 'inspect'.
func InspectAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("expected exactly one directory")
	}
	dir := c.Args().First()

	metadata, err := os.ReadFile(filepath.Join(dir, potree.MetadataFileName))
	if err != nil {
		return err
	}
	md, err := potree.ReadMetadata(bytes.NewReader(metadata))
	if err != nil {
		return errors.Wrapf(err, "error reading metadata of %q", dir)
	}
	hierarchy, err := os.ReadFile(filepath.Join(dir, potree.HierarchyFileName))
	if err != nil {
		return err
	}
	pointData, err := os.Stat(filepath.Join(dir, potree.OctreeFileName))
	if err != nil {
		return err
	}

	summary, err := summarizeHierarchy(hierarchy, md.Hierarchy.FirstChunkSize)
	if err != nil {
		return errors.Wrapf(err, "error reading hierarchy of %q", dir)
	}

	w := c.App.Writer
	printf(w, "name:        %s", md.Name)
	printf(w, "version:     %s", md.Version)
	printf(w, "points:      %s", humanize.Comma(int64(md.Points)))
	printf(w, "spacing:     %g", md.Spacing)
	printf(w, "scale:       %g", md.Scale[0])
	printf(w, "offset:      %v", md.Offset)
	printf(w, "bounding box: %v - %v", md.BoundingBox.Min, md.BoundingBox.Max)
	printf(w, "hierarchy:   %d nodes, %d leaves, %d chunks, depth %d, %s",
		summary.nodes, summary.leaves, summary.chunks, md.Hierarchy.Depth, humanize.Bytes(uint64(len(hierarchy))))
	levels := lo.Keys(summary.nodesByLevel)
	sort.Ints(levels)
	for _, level := range levels {
		printf(w, "  level %-3d %d nodes", level, summary.nodesByLevel[level])
	}
	printf(w, "point data:  %s", humanize.Bytes(uint64(pointData.Size())))

	if summary.points != md.Points {
		warningf(w, "hierarchy holds %d points but metadata lists %d", summary.points, md.Points)
	}
	if expected := md.Points * potree.BytesPerPoint; uint64(pointData.Size()) != expected {
		warningf(w, "point data is %d bytes but %d points need %d", pointData.Size(), md.Points, expected)
	}
	return nil
}
