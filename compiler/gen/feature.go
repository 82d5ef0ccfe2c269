package gen

import (
	"os"
	"path/filepath"
)

var (
	// FeatureSnapshot stores a msgpack snapshot of the type graph and its
	// emission order in internal/graph.msgpack. The inspect command reads it.
	FeatureSnapshot = Feature{
		Name:        "snapshot",
		Stage:       Experimental,
		Default:     false,
		Description: "Stores a snapshot of the resolved type graph next to the generated package",
		cleanup: func(c *Config) error {
			return remove(filepath.Join(c.Target, SnapshotDir), SnapshotFile)
		},
	}

	// FeatureValidator generates validation methods: Validate() error on
	// records, checking that required pointer fields are set and that enum
	// fields hold declared values, and IsValid() bool on enums.
	//
	// Example:
	//
	//	cfg, err := gen.NewConfig(
	//	    gen.WithTarget("./cdm"),
	//	    gen.WithFeatures(gen.FeatureValidator),
	//	)
	FeatureValidator = Feature{
		Name:        "validator",
		Stage:       Stable,
		Default:     false,
		Description: "Generates Validate methods on records and IsValid methods on enums",
	}

	// AllFeatures holds a list of all feature-flags.
	AllFeatures = []Feature{
		FeatureSnapshot,
		FeatureValidator,
	}
)

// FeatureStage describes the stage of the codegen feature.
type FeatureStage int

const (
	_ FeatureStage = iota

	// Experimental features are in development, and actively being tested.
	Experimental

	// Alpha features are features whose initial development was finished,
	// but we expect breaking-changes to their output.
	Alpha

	// Beta features are Alpha features whose output is not expected to change.
	Beta

	// Stable features are Beta features that were running for a while.
	Stable
)

// String returns the stage name.
func (s FeatureStage) String() string {
	switch s {
	case Experimental:
		return "experimental"
	case Alpha:
		return "alpha"
	case Beta:
		return "beta"
	case Stable:
		return "stable"
	}
	return "unknown"
}

// A Feature of the cdmgen codegen.
type Feature struct {
	// Name of the feature.
	Name string

	// Stage of the feature.
	Stage FeatureStage

	// Default values indicates if this feature is enabled by default.
	Default bool

	// A Description of this feature.
	Description string

	// cleanup used to cleanup all changes when a feature-flag is removed.
	// e.g. delete files from previous codegen runs.
	cleanup func(*Config) error
}

// FeatureByName returns the feature with the given name.
func FeatureByName(name string) (Feature, bool) {
	for _, f := range AllFeatures {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// cleanupFeatures removes the artifacts of disabled features.
func cleanupFeatures(c *Config) error {
	for _, f := range AllFeatures {
		if f.cleanup == nil {
			continue
		}
		if enabled, _ := c.FeatureEnabled(f.Name); enabled {
			continue
		}
		if err := f.cleanup(c); err != nil {
			return err
		}
	}
	return nil
}

// remove file (if exists) and its dir if it's empty.
func remove(dir, file string) error {
	if err := os.Remove(filepath.Join(dir, file)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	infos, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return os.Remove(dir)
	}
	return nil
}
