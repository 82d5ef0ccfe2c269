package gen

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFeatureEnabled(t *testing.T) {
	tests := []struct {
		name     string
		features []Feature
		feature  string
		want     bool
		wantErr  bool
	}{
		{"disabled by default", nil, FeatureValidator.Name, false, false},
		{"enabled", []Feature{FeatureValidator}, FeatureValidator.Name, true, false},
		{"other feature enabled", []Feature{FeatureSnapshot}, FeatureValidator.Name, false, false},
		{"unknown feature", nil, "bogus", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Features: tt.features}
			got, err := c.FeatureEnabled(tt.feature)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigPackageName(t *testing.T) {
	assert.Equal(t, "models", (&Config{Package: "models", Target: "out"}).PackageName())
	assert.Equal(t, "cdm", (&Config{}).PackageName())
	target := filepath.Join(t.TempDir(), "entities")
	assert.Equal(t, "entities", (&Config{Target: target}).PackageName())
	assert.Equal(t, "mymodels", (&Config{Target: "out/My-Models"}).PackageName())
	assert.Equal(t, "cdm", (&Config{Target: "out/001"}).PackageName())
	assert.Equal(t, "cdm", (&Config{Target: "out/type"}).PackageName())
}

func TestConfigDefaults(t *testing.T) {
	c := &Config{}
	assert.Equal(t, DefaultHeader, c.HeaderComment())
	assert.Equal(t, runtime.GOMAXPROCS(0), c.WorkerCount())
	assert.NotNil(t, c.logger())

	c = &Config{Header: "custom", Workers: 3}
	assert.Equal(t, "custom", c.HeaderComment())
	assert.Equal(t, 3, c.WorkerCount())

	var nilConfig *Config
	assert.NotNil(t, nilConfig.logger())
}

func TestConfigWrap(t *testing.T) {
	var calls []string
	hook := func(name string) Hook {
		return func(next Generator) Generator {
			return GenerateFunc(func(ctx context.Context, g *Graph) ([]*EmitError, error) {
				calls = append(calls, name)
				return next.Generate(ctx, g)
			})
		}
	}
	c := &Config{Hooks: []Hook{hook("outer"), hook("inner")}}
	base := GenerateFunc(func(context.Context, *Graph) ([]*EmitError, error) {
		calls = append(calls, "generate")
		return nil, nil
	})
	_, err := c.Wrap(base).Generate(context.Background(), &Graph{Config: c})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "generate"}, calls)
}

func TestFeatures(t *testing.T) {
	f, ok := FeatureByName("snapshot")
	require.True(t, ok)
	assert.Equal(t, FeatureSnapshot.Name, f.Name)
	_, ok = FeatureByName("bogus")
	assert.False(t, ok)

	for _, f := range AllFeatures {
		assert.NotEmpty(t, f.Description, f.Name)
		assert.NotEqual(t, "unknown", f.Stage.String(), f.Name)
	}
	assert.Equal(t, "unknown", FeatureStage(0).String())
}
