// Package config defines the configuration of a conversion job.
package config

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/potree/logging"
	"go.viam.com/potree/potree"
)

// DefaultMaxPointsPerLeaf is the number of points a leaf buffers before it is split when
// a config does not set one.
const DefaultMaxPointsPerLeaf = 20000

// Config describes a conversion job.
type Config struct {
	ConfigFilePath string `json:"-"`

	Name             string `json:"name,omitempty"`
	Description      string `json:"description,omitempty"`
	Projection       string `json:"projection,omitempty"`
	MaxPointsPerLeaf int    `json:"max_points_per_leaf,omitempty"`
	Encoding         string `json:"encoding,omitempty"`
	OutputDir        string `json:"output_dir,omitempty"`
	Debug            bool   `json:"debug,omitempty"`
}

// NewValidationError returns an error specific to a failure to validate the field at
// path.
func NewValidationError(path string, err error) error {
	if path == "" {
		return err
	}
	return errors.Wrapf(err, "error validating %q", path)
}

// Ensure fills in defaults and validates the config.
func (conf *Config) Ensure(logger logging.Logger) error {
	if conf.MaxPointsPerLeaf == 0 {
		logger.Debugw("using default max points per leaf", "max_points_per_leaf", DefaultMaxPointsPerLeaf)
		conf.MaxPointsPerLeaf = DefaultMaxPointsPerLeaf
	}
	if conf.Encoding == "" {
		conf.Encoding = string(potree.EncodingDefault)
	}
	return conf.Validate("")
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.MaxPointsPerLeaf < 1 {
		return NewValidationError(fieldPath(path, "max_points_per_leaf"),
			errors.Errorf("must be positive but is %d", conf.MaxPointsPerLeaf))
	}
	switch potree.Encoding(conf.Encoding) {
	case potree.EncodingDefault:
	case potree.EncodingBrotli:
		return NewValidationError(fieldPath(path, "encoding"),
			errors.Errorf("encoding %q is not implemented", conf.Encoding))
	default:
		return NewValidationError(fieldPath(path, "encoding"),
			errors.Errorf("unknown encoding %q", conf.Encoding))
	}
	return nil
}

func fieldPath(path, field string) string {
	if path == "" {
		return field
	}
	return fmt.Sprintf("%s.%s", path, field)
}

// Options returns the conversion options described by the config.
func (conf *Config) Options() potree.Options {
	return potree.Options{
		Name:             conf.Name,
		Description:      conf.Description,
		Projection:       conf.Projection,
		MaxPointsPerLeaf: conf.MaxPointsPerLeaf,
		Encoding:         potree.Encoding(conf.Encoding),
	}
}
