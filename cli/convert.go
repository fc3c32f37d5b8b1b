package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/potree/config"
	"go.viam.com/potree/pointcloud"
	"go.viam.com/potree/potree"
)

// ConvertAction is the corresponding Action for 'convert'.
func ConvertAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("expected exactly one input file")
	}
	input := c.Args().First()
	logger := newLogger(c)

	conf := &config.Config{}
	if path := c.String(flagConfig); path != "" {
		var err error
		if conf, err = config.Read(path, logger); err != nil {
			return errors.Wrapf(err, "error reading config %q", path)
		}
	}
	if c.IsSet(flagMaxPoints) {
		// zero would otherwise be taken as unset and replaced by the default
		n := c.Int(flagMaxPoints)
		if n < 1 {
			return config.NewValidationError("max_points_per_leaf", errors.Errorf("must be positive but is %d", n))
		}
		conf.MaxPointsPerLeaf = n
	}
	if c.IsSet(flagName) {
		conf.Name = c.String(flagName)
	}
	if c.IsSet(flagOut) {
		conf.OutputDir = c.String(flagOut)
	}
	if conf.OutputDir == "" {
		conf.OutputDir = defaultOutputDir(input)
	}
	if conf.Name == "" {
		conf.Name = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}
	if err := conf.Ensure(logger); err != nil {
		return err
	}
	config.UpdateLogLevel(logger, c.Bool(flagDebug), conf)

	cloud, err := pointcloud.NewFromFile(input, logger)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "read %s points from %s, bounds %s",
		humanize.Comma(int64(cloud.Size())), input, cloud.MetaData().Bounds())

	res, err := potree.Convert(cloud.Points(), conf.OutputDir, conf.Options(), logger)
	if err != nil {
		return err
	}

	printf(c.App.Writer, "wrote %s nodes (%d leaves, depth %d) in %d hierarchy chunks to %s",
		humanize.Comma(int64(res.Stats.Nodes)), res.Stats.LeafNodes, res.Stats.Depth, res.NumChunks, conf.OutputDir)
	for _, name := range []string{potree.OctreeFileName, potree.HierarchyFileName, potree.MetadataFileName} {
		info, err := os.Stat(filepath.Join(conf.OutputDir, name))
		if err != nil {
			return err
		}
		printf(c.App.Writer, "  %-14s %s", name, humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

// defaultOutputDir places the output next to the input file.
func defaultOutputDir(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + "_potree"
}
