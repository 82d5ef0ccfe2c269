package compiler

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/cdmgen/compiler/gen"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, DefaultFileConfig(), cfg)
	})

	t.Run("file", func(t *testing.T) {
		path := writeFile(t, "cdmgen.yaml", `
schema_dir: schemas
target: out/models
package: models
header: "Generated. DO NOT EDIT."
suffix: .schema.json
features: [validator, snapshot]
workers: 4
validate: true
verbose: true
debounce: 50ms
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, &FileConfig{
			SchemaDir: "schemas",
			Target:    "out/models",
			Package:   "models",
			Header:    "Generated. DO NOT EDIT.",
			Suffix:    ".schema.json",
			Features:  []string{"validator", "snapshot"},
			Workers:   4,
			Validate:  true,
			Verbose:   true,
			Debounce:  50 * time.Millisecond,
		}, cfg)
	})

	t.Run("empty file", func(t *testing.T) {
		cfg, err := LoadConfig(writeFile(t, "cdmgen.yaml", ""))
		require.NoError(t, err)
		assert.Equal(t, DefaultFileConfig(), cfg)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeFile(t, "cdmgen.yaml", "target: from-file\nworkers: 2\n")
		t.Setenv("CDMGEN_TARGET", "from-env")
		t.Setenv("CDMGEN_FEATURES", "validator,snapshot")
		t.Setenv("CDMGEN_VALIDATE", "true")
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Target)
		assert.Equal(t, 2, cfg.Workers)
		assert.Equal(t, []string{"validator", "snapshot"}, cfg.Features)
		assert.True(t, cfg.Validate)
	})

	t.Run("env file", func(t *testing.T) {
		t.Cleanup(func() { os.Unsetenv("CDMGEN_PACKAGE") })
		envFile := writeFile(t, "test.env", "CDMGEN_PACKAGE=fromdotenv\n")
		cfg, err := LoadConfig("", envFile)
		require.NoError(t, err)
		assert.Equal(t, "fromdotenv", cfg.Package)
	})

	t.Run("missing env file", func(t *testing.T) {
		_, err := LoadConfig("", filepath.Join(t.TempDir(), "missing.env"))
		assert.ErrorContains(t, err, "load env files")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "cdmgen.yaml", "bogus: 1\n"))
		assert.ErrorContains(t, err, "field bogus not found")
	})

	t.Run("bad environment", func(t *testing.T) {
		t.Setenv("CDMGEN_WORKERS", "many")
		_, err := LoadConfig("")
		assert.ErrorContains(t, err, "parse environment")
	})
}

func TestFileConfigGenConfig(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	tests := []struct {
		name    string
		file    FileConfig
		check   func(*testing.T, *gen.Config)
		wantErr bool
	}{
		{
			name: "target only",
			file: FileConfig{Target: "out"},
			check: func(t *testing.T, c *gen.Config) {
				assert.Equal(t, "out", c.Target)
				assert.Same(t, logger, c.Logger)
				assert.Empty(t, c.Features)
			},
		},
		{
			name: "all fields",
			file: FileConfig{Target: "out", Package: "models", Header: "h", Suffix: ".json", Workers: 3, Features: []string{" validator ", ""}},
			check: func(t *testing.T, c *gen.Config) {
				assert.Equal(t, "models", c.Package)
				assert.Equal(t, "h", c.Header)
				assert.Equal(t, ".json", c.Suffix)
				assert.Equal(t, 3, c.Workers)
				enabled, err := c.FeatureEnabled(gen.FeatureValidator.Name)
				require.NoError(t, err)
				assert.True(t, enabled)
			},
		},
		{name: "missing target", file: FileConfig{}, wantErr: true},
		{name: "bad package", file: FileConfig{Target: "out", Package: "my-models"}, wantErr: true},
		{name: "unknown feature", file: FileConfig{Target: "out", Features: []string{"bogus"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.file.GenConfig(logger)
			if tt.wantErr {
				assert.True(t, gen.IsConfigError(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestFileConfigOptions(t *testing.T) {
	o := newOptions((&FileConfig{Validate: true, Debounce: time.Second}).Options()...)
	assert.True(t, o.validate)
	assert.Equal(t, time.Second, o.debounce)

	o = newOptions((&FileConfig{}).Options()...)
	assert.False(t, o.validate)
	assert.Equal(t, DefaultDebounce, o.debounce)
}
