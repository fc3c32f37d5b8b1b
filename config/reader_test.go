package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/potree/config"
	"go.viam.com/potree/logging"
	"go.viam.com/potree/potree"
)

func TestFromReader(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := config.FromReader("somepath", strings.NewReader(""), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "json: EOF")

	_, err = config.FromReader("somepath", strings.NewReader(`{"max_points_per_leaf": "many"}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unmarshal")

	conf, err := config.FromReader("somepath", strings.NewReader(`{}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf, test.ShouldResemble, &config.Config{
		ConfigFilePath:   "somepath",
		MaxPointsPerLeaf: config.DefaultMaxPointsPerLeaf,
		Encoding:         "DEFAULT",
	})

	conf, err = config.FromReader("somepath", strings.NewReader(`{
		"name": "scan",
		"description": "lobby",
		"projection": "EPSG:32633",
		"max_points_per_leaf": 500,
		"output_dir": "out"
	}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.OutputDir, test.ShouldEqual, "out")
	test.That(t, conf.Options(), test.ShouldResemble, potree.Options{
		Name:             "scan",
		Description:      "lobby",
		Projection:       "EPSG:32633",
		MaxPointsPerLeaf: 500,
		Encoding:         potree.EncodingDefault,
	})
	test.That(t, conf.Options().Validate(), test.ShouldBeNil)
}

func TestValidate(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := config.FromReader("somepath", strings.NewReader(`{"max_points_per_leaf": -3}`), logger)
	test.That(t, err, test.ShouldBeError, `error validating "max_points_per_leaf": must be positive but is -3`)

	_, err = config.FromReader("somepath", strings.NewReader(`{"encoding": "BROTLI"}`), logger)
	test.That(t, err, test.ShouldBeError, `error validating "encoding": encoding "BROTLI" is not implemented`)

	conf := &config.Config{MaxPointsPerLeaf: 10, Encoding: "LZ4"}
	test.That(t, conf.Validate("jobs.0"), test.ShouldBeError, `error validating "jobs.0.encoding": unknown encoding "LZ4"`)
}

func TestRead(t *testing.T) {
	logger := logging.NewTestLogger(t)
	t.Setenv("POTREE_TEST_NAME", "from-env")

	fn := filepath.Join(t.TempDir(), "config.json")
	test.That(t, os.WriteFile(fn, []byte(`{"name": "${POTREE_TEST_NAME}", "max_points_per_leaf": 64}`), 0o600),
		test.ShouldBeNil)

	conf, err := config.Read(fn, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.ConfigFilePath, test.ShouldEqual, fn)
	test.That(t, conf.Name, test.ShouldEqual, "from-env")
	test.That(t, conf.MaxPointsPerLeaf, test.ShouldEqual, 64)

	_, err = config.Read(filepath.Join(t.TempDir(), "missing.json"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}
