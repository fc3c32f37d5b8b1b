package potree

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/potree/logging"
	"go.viam.com/potree/octree"
)

// Options control a conversion.
type Options struct {
	Name             string
	Description      string
	Projection       string
	MaxPointsPerLeaf int
	Encoding         Encoding
}

// Validate ensures the options can be used for a conversion.
func (opts Options) Validate() error {
	if opts.MaxPointsPerLeaf < 1 {
		return errors.Errorf("invalid max points per leaf node (%d)", opts.MaxPointsPerLeaf)
	}
	switch opts.Encoding {
	case "", EncodingDefault:
	case EncodingBrotli:
		return errors.Errorf("encoding %q is not implemented", opts.Encoding)
	default:
		return errors.Errorf("unknown encoding %q", opts.Encoding)
	}
	return nil
}

// Result summarizes a finished conversion.
type Result struct {
	Metadata  *Metadata
	Stats     octree.Stats
	NumChunks int
}

// Output holds the three artifacts of an in-memory conversion.
type Output struct {
	Octree    []byte
	Hierarchy []byte
	Metadata  []byte
	Result    *Result
}

// ConvertToBuffers converts points and returns the artifacts in memory.
func ConvertToBuffers(points []r3.Vector, opts Options, logger logging.Logger) (*Output, error) {
	var octreeBuf bytes.Buffer
	res, hierarchy, metadata, err := convert(points, opts, &octreeBuf, logger)
	if err != nil {
		return nil, err
	}
	return &Output{
		Octree:    octreeBuf.Bytes(),
		Hierarchy: hierarchy,
		Metadata:  metadata,
		Result:    res,
	}, nil
}

// Convert converts points and writes the point-data, hierarchy and metadata files into
// dir, creating it if needed. Each artifact is first written to a temporary file in dir
// and the three are renamed into place only once all of them are complete. If any step
// fails, the temporary files are removed, files already in dir are left untouched and
// the typed error of the failing step is returned.
func Convert(points []r3.Vector, dir string, opts Options, logger logging.Logger) (res *Result, err error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrEmptyInput
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, &WriteError{Artifact: PointDataArtifact, Path: dir, Err: err}
	}

	files := []*artifactFile{
		{artifact: PointDataArtifact, path: filepath.Join(dir, OctreeFileName)},
		{artifact: HierarchyArtifact, path: filepath.Join(dir, HierarchyFileName)},
		{artifact: MetadataArtifact, path: filepath.Join(dir, MetadataFileName)},
	}
	octreeFile, hierarchyFile, metadataFile := files[0], files[1], files[2]
	for _, f := range files {
		if err := f.checkTarget(); err != nil {
			return nil, err
		}
	}
	defer func() {
		if err == nil {
			return
		}
		for _, f := range files {
			err = multierr.Combine(err, f.removeTemp())
		}
	}()

	tmp, err := octreeFile.createTemp(dir)
	if err != nil {
		return nil, err
	}
	out := bufio.NewWriter(tmp)
	res, hierarchy, metadata, err := convert(points, opts, out, logger)
	if err == nil {
		err = out.Flush()
	}
	err = multierr.Combine(err, tmp.Close())
	if err != nil {
		var we *WriteError
		var se *SerializationError
		var he *HierarchyConsistencyError
		if errors.As(err, &we) || errors.As(err, &se) || errors.As(err, &he) {
			return nil, err
		}
		return nil, octreeFile.errorf(err)
	}

	if err := hierarchyFile.write(dir, hierarchy); err != nil {
		return nil, err
	}
	if err := metadataFile.write(dir, metadata); err != nil {
		return nil, err
	}

	for _, f := range files {
		if err := f.commit(); err != nil {
			return nil, err
		}
	}

	logger.Infow("conversion finished", "dir", dir, "points", res.Metadata.Points,
		"nodes", res.Stats.Nodes, "depth", res.Stats.Depth)
	return res, nil
}

// artifactFile is an output file of Convert and the temporary file it is staged in.
type artifactFile struct {
	artifact Artifact
	path     string
	tmp      string
}

func (f *artifactFile) errorf(err error) *WriteError {
	return &WriteError{Artifact: f.artifact, Path: f.path, Err: err}
}

// checkTarget fails if the artifact's path is taken by a directory, which a rename
// cannot replace.
func (f *artifactFile) checkTarget() error {
	info, err := os.Stat(f.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return f.errorf(err)
	case info.IsDir():
		return f.errorf(errors.Errorf("%q is a directory", f.path))
	default:
		return nil
	}
}

func (f *artifactFile) createTemp(dir string) (*os.File, error) {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return nil, f.errorf(err)
	}
	f.tmp = tmp.Name()
	if err := tmp.Chmod(0o644); err != nil {
		return nil, f.errorf(multierr.Combine(err, tmp.Close()))
	}
	return tmp, nil
}

func (f *artifactFile) write(dir string, data []byte) (err error) {
	tmp, err := f.createTemp(dir)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := tmp.Close(); cerr != nil && err == nil {
			err = f.errorf(cerr)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		return f.errorf(err)
	}
	return nil
}

func (f *artifactFile) commit() error {
	if err := os.Rename(f.tmp, f.path); err != nil {
		return f.errorf(err)
	}
	f.tmp = ""
	return nil
}

func (f *artifactFile) removeTemp() error {
	if f.tmp == "" {
		return nil
	}
	if err := os.Remove(f.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	f.tmp = ""
	return nil
}

// convert builds the tree, streams the point data into octreeOut and returns the encoded
// hierarchy and metadata.
func convert(
	points []r3.Vector,
	opts Options,
	octreeOut io.Writer,
	logger logging.Logger,
) (*Result, []byte, []byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, nil, err
	}
	tree, err := octree.Build(points, opts.MaxPointsPerLeaf, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	w := NewWriter(octreeOut, tree.Bounds().Min, tree.Scale())
	if err := w.Write(tree.Root()); err != nil {
		return nil, nil, nil, &WriteError{Artifact: PointDataArtifact, Err: err}
	}
	ranges := w.Ranges()
	logger.Infow("wrote point data", "nodes", len(ranges), "size", humanize.Bytes(w.Offset()))

	hierarchy, err := EncodeHierarchy(tree, ranges)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Debugw("encoded hierarchy", "chunks", hierarchy.NumChunks, "depth", hierarchy.Depth,
		"first chunk", humanize.Bytes(hierarchy.FirstChunkSize), "size", humanize.Bytes(uint64(len(hierarchy.Buffer))))

	md := NewMetadata(tree, hierarchy, opts)
	metadata, err := md.Marshal()
	if err != nil {
		return nil, nil, nil, err
	}

	return &Result{Metadata: md, Stats: tree.Stats(), NumChunks: hierarchy.NumChunks}, hierarchy.Buffer, metadata, nil
}
