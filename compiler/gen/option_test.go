package gen

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		check   func(t *testing.T, c *Config)
		wantErr bool
	}{
		{name: "header", opt: WithHeader("// hi"), check: func(t *testing.T, c *Config) { assert.Equal(t, "// hi", c.Header) }},
		{name: "package", opt: WithPackage("models"), check: func(t *testing.T, c *Config) { assert.Equal(t, "models", c.Package) }},
		{name: "empty package", opt: WithPackage(""), wantErr: true},
		{name: "invalid package", opt: WithPackage("9models"), wantErr: true},
		{name: "target", opt: WithTarget("./out"), check: func(t *testing.T, c *Config) { assert.Equal(t, "./out", c.Target) }},
		{name: "empty target", opt: WithTarget(""), wantErr: true},
		{name: "suffix", opt: WithSuffix(".json"), check: func(t *testing.T, c *Config) { assert.Equal(t, ".json", c.Suffix) }},
		{name: "features", opt: WithFeatures(FeatureValidator), check: func(t *testing.T, c *Config) {
			assert.Equal(t, []Feature{FeatureValidator}, c.Features)
		}},
		{name: "feature names", opt: WithFeatureNames("snapshot", "validator"), check: func(t *testing.T, c *Config) {
			assert.Equal(t, []Feature{FeatureSnapshot, FeatureValidator}, c.Features)
		}},
		{name: "unknown feature name", opt: WithFeatureNames("bogus"), wantErr: true},
		{name: "workers", opt: WithWorkers(4), check: func(t *testing.T, c *Config) { assert.Equal(t, 4, c.Workers) }},
		{name: "negative workers", opt: WithWorkers(-1), wantErr: true},
		{name: "logger", opt: WithLogger(slog.Default()), check: func(t *testing.T, c *Config) { assert.Same(t, slog.Default(), c.Logger) }},
		{name: "nil logger", opt: WithLogger(nil), wantErr: true},
		{name: "hooks", opt: WithHooks(func(g Generator) Generator { return g }), check: func(t *testing.T, c *Config) { assert.Len(t, c.Hooks, 1) }},
		{name: "nil generator", opt: WithGenerator(nil), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewConfig(tt.opt)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsConfigError(err))
				assert.True(t, errors.Is(err, ErrMissingConfig))
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestApply(t *testing.T) {
	t.Run("stops at first error", func(t *testing.T) {
		c := &Config{}
		err := c.Apply(WithTarget(""), WithPackage("models"))
		require.Error(t, err)
		assert.Empty(t, c.Package)
	})

	t.Run("apply all collects errors", func(t *testing.T) {
		c := &Config{}
		err := c.ApplyAll(WithTarget(""), WithPackage("models"), WithWorkers(-2))
		require.Error(t, err)
		assert.Equal(t, "models", c.Package)
		assert.Contains(t, err.Error(), "Target")
		assert.Contains(t, err.Error(), "Workers")
	})

	t.Run("must new config panics", func(t *testing.T) {
		assert.Panics(t, func() { MustNewConfig(WithTarget("")) })
		assert.NotPanics(t, func() { MustNewConfig(WithTarget("out")) })
	})
}
