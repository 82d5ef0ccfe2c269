package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/cdmgen/compiler/gen"
)

const corpus = "../../compiler/testdata/schemaDocuments"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestGenerateCommand(t *testing.T) {
	t.Run("clean corpus", func(t *testing.T) {
		dir := t.TempDir()
		doc := `{"definitions":{"Bar":{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}}}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "foo.cdm.json"), []byte(doc), 0o644))
		target := filepath.Join(t.TempDir(), "models")

		stdout, _, err := execute(t, "generate", dir, "--target", target)
		require.NoError(t, err)
		assert.Contains(t, stdout, "1 documents, 1 types, 1 files")
		b, err := os.ReadFile(filepath.Join(target, "bar.go"))
		require.NoError(t, err)
		assert.Contains(t, string(b), "package models")
	})

	t.Run("failed run", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "cdm")
		stdout, stderr, err := execute(t, "generate", corpus, "-t", target, "-f", "snapshot,validator", "-w", "2")
		assert.ErrorIs(t, err, errFailed)
		assert.Contains(t, stdout, "6 documents, 7 types, 7 files")
		assert.Contains(t, stderr, "unresolved reference")
		assert.Contains(t, stderr, "Error: generation completed with errors")
		_, err = os.Stat(filepath.Join(target, gen.SnapshotDir, gen.SnapshotFile))
		assert.NoError(t, err)
	})

	t.Run("config file", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "fromfile")
		config := filepath.Join(t.TempDir(), "cdmgen.yaml")
		require.NoError(t, os.WriteFile(config, []byte("schema_dir: "+corpus+"\ntarget: "+target+"\npackage: entities\n"), 0o644))
		_, _, err := execute(t, "generate", "--config", config)
		assert.ErrorIs(t, err, errFailed)
		b, err := os.ReadFile(filepath.Join(target, "bar.go"))
		require.NoError(t, err)
		assert.Contains(t, string(b), "package entities")
	})

	t.Run("unknown feature", func(t *testing.T) {
		_, stderr, err := execute(t, "generate", corpus, "-t", t.TempDir(), "-f", "bogus")
		assert.True(t, gen.IsConfigError(err))
		assert.Contains(t, stderr, "unknown feature")
	})

	t.Run("too many args", func(t *testing.T) {
		_, _, err := execute(t, "generate", "a", "b")
		assert.Error(t, err)
	})
}

func TestInspectCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "cdm")
	_, _, err := execute(t, "generate", corpus, "-t", target, "-f", "snapshot")
	require.ErrorIs(t, err, errFailed)
	snapshot := filepath.Join(target, gen.SnapshotDir, gen.SnapshotFile)

	t.Run("table", func(t *testing.T) {
		stdout, _, err := execute(t, "inspect", snapshot)
		require.NoError(t, err)
		assert.Contains(t, stdout, "package cdm: 7 types")
		assert.Regexp(t, `Account\s+record\s+core/account\.cdm\.json`, stdout)
		assert.Contains(t, stdout, "collisions:")
		assert.Contains(t, stdout, "order:")
	})

	t.Run("json", func(t *testing.T) {
		stdout, _, err := execute(t, "inspect", "--json", snapshot)
		require.NoError(t, err)
		var s gen.Snapshot
		require.NoError(t, json.Unmarshal([]byte(stdout), &s))
		assert.Len(t, s.Types, 7)
		assert.NotNil(t, s.Type("Owner"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := execute(t, "inspect", filepath.Join(t.TempDir(), "missing"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("requires an argument", func(t *testing.T) {
		_, _, err := execute(t, "inspect")
		assert.Error(t, err)
	})
}
