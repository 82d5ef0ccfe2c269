package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/syssam/cdmgen/compiler/gen"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "CDMGEN_"

// Defaults of the file configuration.
const (
	DefaultSchemaDir = "CDM-master/schemaDocuments"
	DefaultTarget    = "output"
	DefaultDebounce  = 200 * time.Millisecond
)

// FileConfig is the configuration read from a YAML file and the
// environment. Environment variables take precedence over the file.
//
//	schema_dir: CDM-master/schemaDocuments
//	target: ./cdm
//	package: cdm
//	features: [validator, snapshot]
//	workers: 8
type FileConfig struct {
	SchemaDir string        `yaml:"schema_dir" env:"SCHEMA_DIR"`
	Target    string        `yaml:"target" env:"TARGET"`
	Package   string        `yaml:"package" env:"PACKAGE"`
	Header    string        `yaml:"header" env:"HEADER"`
	Suffix    string        `yaml:"suffix" env:"SUFFIX"`
	Features  []string      `yaml:"features" env:"FEATURES" envSeparator:","`
	Workers   int           `yaml:"workers" env:"WORKERS"`
	Validate  bool          `yaml:"validate" env:"VALIDATE"`
	Verbose   bool          `yaml:"verbose" env:"VERBOSE"`
	Debounce  time.Duration `yaml:"debounce" env:"DEBOUNCE"`
}

// DefaultFileConfig returns the configuration used when no file is given.
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		SchemaDir: DefaultSchemaDir,
		Target:    DefaultTarget,
		Debounce:  DefaultDebounce,
	}
}

// LoadConfig reads the configuration file at path, if path is not empty,
// and applies the CDMGEN_ environment overrides. The given env files are
// loaded into the environment first; without any, a ".env" file in the
// working directory is loaded when present.
func LoadConfig(path string, envFiles ...string) (*FileConfig, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("cdmgen: load env files: %w", err)
	}
	cfg := DefaultFileConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cdmgen: read config: %w", err)
		}
		if err := cfg.decode(bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("cdmgen: parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("cdmgen: parse environment: %w", err)
	}
	return cfg, nil
}

func (c *FileConfig) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Options returns the run options of the configuration.
func (c *FileConfig) Options() []Option {
	return []Option{
		WithValidation(c.Validate),
		WithDebounce(c.Debounce),
	}
}

// GenConfig builds the codegen configuration.
func (c *FileConfig) GenConfig(logger *slog.Logger) (*gen.Config, error) {
	opts := []gen.Option{gen.WithTarget(c.Target)}
	if logger != nil {
		opts = append(opts, gen.WithLogger(logger))
	}
	if c.Package != "" {
		opts = append(opts, gen.WithPackage(c.Package))
	}
	if c.Header != "" {
		opts = append(opts, gen.WithHeader(c.Header))
	}
	if c.Suffix != "" {
		opts = append(opts, gen.WithSuffix(c.Suffix))
	}
	if c.Workers > 0 {
		opts = append(opts, gen.WithWorkers(c.Workers))
	}
	var names []string
	for _, name := range c.Features {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		opts = append(opts, gen.WithFeatureNames(names...))
	}
	return gen.NewConfig(opts...)
}
