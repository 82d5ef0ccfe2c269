package gen

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDialect declares every type as an empty struct.
type stubDialect struct {
	helper GeneratorHelper
	panics string
}

func (d *stubDialect) Name() string { return "stub" }

func (d *stubDialect) GenType(t *Type) *jen.File {
	if t.Name == d.panics {
		panic("boom")
	}
	f := d.helper.NewFile()
	f.Type().Id(t.Name).Struct()
	return f
}

// docDialect also emits a package documentation file.
type docDialect struct {
	stubDialect
}

func (d *docDialect) GenPackage() map[string]*jen.File {
	f := d.helper.NewFile()
	f.PackageComment("Package models is generated.")
	return map[string]*jen.File{"doc_package.go": f}
}

func readDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

var testDocs = map[string]string{
	"a.cdm.json": `{"definitions":{
		"Account":{"type":"object","properties":{"owner":{"$ref":"#/definitions/Owner"}}},
		"Owner":{"type":"object","properties":{"account":{"$ref":"#/definitions/Account"}}},
		"Status":{"enum":["on","off"]}}}`,
}

func TestJenniferGenerator(t *testing.T) {
	t.Run("requires a dialect", func(t *testing.T) {
		g := newGraph(t, testDocs, WithTarget(t.TempDir()))
		_, err := NewJenniferGenerator(g, g.Target).Generate(context.Background())
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})

	t.Run("one unit per named type", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "models")
		g := newGraph(t, testDocs, WithTarget(target), WithHeader("Code generated by test. DO NOT EDIT."))
		gen := NewJenniferGenerator(g, target).WithWorkers(2)
		gen.WithDialect(&stubDialect{helper: gen})
		emitErrs, err := gen.Generate(context.Background())
		require.NoError(t, err)
		assert.Empty(t, emitErrs)
		assert.Equal(t, []string{"account.go", "owner.go", "status.go"}, readDir(t, target))

		src, err := os.ReadFile(filepath.Join(target, "account.go"))
		require.NoError(t, err)
		assert.Contains(t, string(src), "// Code generated by test. DO NOT EDIT.")
		assert.Contains(t, string(src), "package models")
		assert.Contains(t, string(src), "type Account struct{}")

		m := gen.Metrics()
		assert.Equal(t, 3, m.FilesGenerated)
		assert.Positive(t, m.TotalBytes)
	})

	t.Run("idempotent output", func(t *testing.T) {
		run := func(target string) map[string]string {
			g := newGraph(t, testDocs, WithTarget(target), WithPackage("models"))
			gen := NewJenniferGenerator(g, target)
			gen.WithDialect(&stubDialect{helper: gen})
			_, err := gen.Generate(context.Background())
			require.NoError(t, err)
			out := make(map[string]string)
			for _, name := range readDir(t, target) {
				b, err := os.ReadFile(filepath.Join(target, name))
				require.NoError(t, err)
				out[name] = string(b)
			}
			return out
		}
		assert.Equal(t, run(t.TempDir()), run(t.TempDir()))
	})

	t.Run("failing unit does not stop emission", func(t *testing.T) {
		target := t.TempDir()
		g := newGraph(t, testDocs, WithTarget(target))
		gen := NewJenniferGenerator(g, target)
		gen.WithDialect(&stubDialect{helper: gen, panics: "Owner"})
		emitErrs, err := gen.Generate(context.Background())
		require.NoError(t, err)
		require.Len(t, emitErrs, 1)
		assert.Equal(t, "Owner", emitErrs[0].Name)
		assert.Equal(t, "owner.go", emitErrs[0].File)
		assert.Equal(t, "render", emitErrs[0].Phase)
		assert.ErrorIs(t, emitErrs[0], ErrGenerationFailed)
		assert.Equal(t, []string{"account.go", "status.go"}, readDir(t, target))
	})

	t.Run("unit that cannot be written", func(t *testing.T) {
		target := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(target, "owner.go"), 0o755))
		g := newGraph(t, testDocs, WithTarget(target))
		gen := NewJenniferGenerator(g, target)
		gen.WithDialect(&stubDialect{helper: gen})
		emitErrs, err := gen.Generate(context.Background())
		require.NoError(t, err)
		require.Len(t, emitErrs, 1)
		e := emitErrs[0]
		assert.Equal(t, "Owner", e.Name)
		assert.Equal(t, "owner.go", e.File)
		assert.Equal(t, "write", e.Phase)
		assert.ErrorIs(t, e, ErrGenerationFailed)
		var pathErr *os.PathError
		assert.ErrorAs(t, e, &pathErr)
		assert.Equal(t, []string{"account.go", "owner.go", "status.go"}, readDir(t, target))
		info, err := os.Stat(filepath.Join(target, "owner.go"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, 2, gen.Metrics().FilesGenerated)
	})

	t.Run("output directory cannot be created", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, nil, 0o644))
		target := filepath.Join(file, "models")
		g := newGraph(t, testDocs, WithTarget(target))
		gen := NewJenniferGenerator(g, target)
		gen.WithDialect(&stubDialect{helper: gen})
		_, err := gen.Generate(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrGenerationFailed)
	})

	t.Run("canceled context", func(t *testing.T) {
		target := t.TempDir()
		g := newGraph(t, testDocs, WithTarget(target))
		gen := NewJenniferGenerator(g, target)
		gen.WithDialect(&stubDialect{helper: gen})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := gen.Generate(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("package generator", func(t *testing.T) {
		target := t.TempDir()
		g := newGraph(t, testDocs, WithTarget(target), WithPackage("models"))
		gen := NewJenniferGenerator(g, target)
		gen.WithDialect(&docDialect{stubDialect{helper: gen}})
		emitErrs, err := gen.Generate(context.Background())
		require.NoError(t, err)
		assert.Empty(t, emitErrs)
		assert.Contains(t, readDir(t, target), "doc_package.go")
	})

	t.Run("snapshot feature and cleanup", func(t *testing.T) {
		target := t.TempDir()
		g := newGraph(t, testDocs, WithTarget(target), WithFeatures(FeatureSnapshot))
		gen := NewJenniferGenerator(g, target)
		gen.WithDialect(&stubDialect{helper: gen})
		_, err := gen.Generate(context.Background())
		require.NoError(t, err)
		path := filepath.Join(target, SnapshotDir, SnapshotFile)
		f, err := os.Open(path)
		require.NoError(t, err)
		s, err := ReadSnapshot(f)
		require.NoError(t, f.Close())
		require.NoError(t, err)
		assert.Len(t, s.Types, 3)

		g = newGraph(t, testDocs, WithTarget(target))
		gen = NewJenniferGenerator(g, target)
		gen.WithDialect(&stubDialect{helper: gen})
		_, err = gen.Generate(context.Background())
		require.NoError(t, err)
		assert.NoFileExists(t, path)
		assert.NoDirExists(t, filepath.Join(target, SnapshotDir))
	})
}

func TestGeneratorHelper(t *testing.T) {
	target := t.TempDir()
	g := newGraph(t, testDocs, WithTarget(target), WithPackage("models"), WithFeatures(FeatureValidator))
	gen := NewJenniferGenerator(g, target)

	var helper GeneratorHelper = gen
	assert.Same(t, g, helper.Graph())
	assert.Equal(t, "models", helper.Pkg())
	assert.True(t, helper.FeatureEnabled(FeatureValidator.Name))
	assert.False(t, helper.FeatureEnabled(FeatureSnapshot.Name))
	assert.True(t, helper.Cyclic("Account", "Owner"))
	assert.True(t, helper.Cyclic("Owner", "Account"))
	assert.False(t, helper.Cyclic("Account", "Status"))
	assert.False(t, helper.Cyclic("Status", "Status"))
	assert.NotNil(t, helper.NewFile())

	gen.WithPackage("other")
	assert.Equal(t, "other", gen.Pkg())
}
