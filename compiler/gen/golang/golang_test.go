package golang

import (
	"context"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/cdmgen/compiler/gen"
	"github.com/syssam/cdmgen/compiler/load"
	"github.com/syssam/cdmgen/compiler/resolve"
)

func newGraph(t *testing.T, docs map[string]string, opts ...gen.Option) *gen.Graph {
	t.Helper()
	var parsed []*load.Document
	for id, src := range docs {
		d, err := load.Parse(load.DocumentID(id), strings.NewReader(src))
		require.NoError(t, err, id)
		parsed = append(parsed, d)
	}
	opts = append([]gen.Option{gen.WithLogger(slog.New(slog.DiscardHandler)), gen.WithPackage("models")}, opts...)
	c, err := gen.NewConfig(opts...)
	require.NoError(t, err)
	g, err := gen.NewGraph(c, resolve.Resolve(parsed, resolve.WithLogger(c.Logger)))
	require.NoError(t, err)
	return g
}

func generate(t *testing.T, docs map[string]string, opts ...gen.Option) string {
	t.Helper()
	target := t.TempDir()
	g := newGraph(t, docs, append([]gen.Option{gen.WithTarget(target)}, opts...)...)
	emitErrs, err := Generate(context.Background(), g)
	require.NoError(t, err)
	require.Empty(t, emitErrs)
	return target
}

func files(t *testing.T, dir string) []string {
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

func read(t *testing.T, dir, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(b)
}

// assertDecl matches a declaration, allowing any run of blanks where the
// pattern has a single space.
func assertDecl(t *testing.T, src, decl string) {
	t.Helper()
	parts := strings.Fields(decl)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	re := regexp.MustCompile(strings.Join(parts, `\s+`))
	assert.Regexp(t, re, src)
}

// typeCheck type-checks the generated package against the standard library.
func typeCheck(t *testing.T, dir string) {
	t.Helper()
	fset := token.NewFileSet()
	var parsed []*ast.File
	for _, name := range files(t, dir) {
		if !strings.HasSuffix(name, ".go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ParseComments)
		require.NoError(t, err, name)
		parsed = append(parsed, f)
	}
	conf := types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	_, err := conf.Check("models", fset, parsed, nil)
	require.NoError(t, err)
}

func TestGenerateExample(t *testing.T) {
	target := generate(t, map[string]string{
		"foo.cdm.json": `{"definitions":{"Bar":{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}}}`,
	})
	assert.Equal(t, []string{"bar.go"}, files(t, target))
	src := read(t, target, "bar.go")
	assert.True(t, strings.HasPrefix(src, "// Code generated by cdmgen. DO NOT EDIT."))
	assert.Contains(t, src, "// Package models contains the types generated")
	assert.Contains(t, src, "// Bar is generated from foo.cdm.json#/definitions/Bar.")
	assertDecl(t, src, "type Bar struct {")
	assertDecl(t, src, "Name string `json:\"name\"`")
	typeCheck(t, target)
}

var corpus = map[string]string{
	"core/account.cdm.json": `{"definitions":{
		"Account":{"type":"object","description":"An account.\nHolds owner data.","properties":{
			"id":{"type":"string","description":"Primary key."},
			"owner":{"$ref":"#/definitions/Owner"},
			"status":{"$ref":"#/definitions/Status"},
			"code":{"$ref":"#/definitions/Code"},
			"tags":{"type":"array","items":{"type":"string"}},
			"meta":{"type":"object"},
			"address":{"type":"object","properties":{
				"city":{"type":"string"},
				"kind":{"enum":["home","work"]}},"required":["city"]},
			"nickname":{"type":["string","null"]},
			"legacy":{"$ref":"missing.cdm.json#/definitions/Legacy"},
			"validate":{"type":"boolean"},
			"pet":{"$ref":"#/definitions/Pet"}
		},"required":["id","owner","status"]},
		"Owner":{"type":"object","properties":{
			"account":{"$ref":"#/definitions/Account"},
			"accounts":{"type":"array","items":{"$ref":"#/definitions/Account"}}},"required":["account"]},
		"Status":{"enum":["active","inactive",null]},
		"Code":{"enum":[1,2,3]},
		"Mixed":{"enum":[1,"a",true]},
		"Ratio":{"enum":[1,2.5]},
		"Pet":{"oneOf":[
			{"$ref":"#/definitions/Cat"},
			{"type":"integer"},
			{"type":"null"},
			{"type":"object","properties":{"name":{"type":"string"}}}]},
		"Cat":{"type":"object","properties":{"lives":{"type":"integer"}}},
		"Other":{"$ref":"#/definitions/Cat"},
		"Names":{"type":"array","items":{"type":"object","properties":{"first":{"type":"string"}}}},
		"Free":{"type":"object"},
		"Nothing":{"type":"null"},
		"Either":{"type":["string","number"]},
		"Tree":{"type":"array","items":{"$ref":"#/definitions/Tree"}}
	}}`,
}

func TestGenerateCorpus(t *testing.T) {
	target := generate(t, corpus)
	assert.Equal(t, []string{
		"account.go", "cat.go", "code.go", "either.go", "free.go", "mixed.go", "names.go",
		"nothing.go", "other.go", "owner.go", "pet.go", "ratio.go", "status.go", "tree.go",
	}, files(t, target))
	typeCheck(t, target)

	t.Run("record", func(t *testing.T) {
		src := read(t, target, "account.go")
		assert.Contains(t, src, "// Package models")
		assert.Contains(t, src, "// An account.\n// Holds owner data.\ntype Account struct {")
		assert.Contains(t, src, "\t// Primary key.\n")
		for _, decl := range []string{
			"ID string `json:\"id\"`",
			"Owner *Owner `json:\"owner\"`",
			"Status *Status `json:\"status\"`",
			"Code *Code `json:\"code,omitempty\"`",
			"Tags []string `json:\"tags,omitempty\"`",
			"Meta map[string]any `json:\"meta,omitempty\"`",
			"Address *Account_Address `json:\"address,omitempty\"`",
			"Nickname *string `json:\"nickname,omitempty\"`",
			"Legacy json.RawMessage `json:\"legacy,omitempty\"`",
			"Validate2 *bool `json:\"validate,omitempty\"`",
			"Pet *Pet `json:\"pet,omitempty\"`",
			"type Account_Address struct {",
			"City string `json:\"city\"`",
			"Kind *Account_Address_Kind `json:\"kind,omitempty\"`",
			"type Account_Address_Kind string",
			"Account_Address_Kind_Home Account_Address_Kind = \"home\"",
		} {
			assertDecl(t, src, decl)
		}
		assert.NotContains(t, src, "func (v *Account) Validate() error")
	})

	t.Run("cyclic reference is a pointer", func(t *testing.T) {
		src := read(t, target, "owner.go")
		assertDecl(t, src, "Account *Account `json:\"account\"`")
		assertDecl(t, src, "Accounts []Account `json:\"accounts,omitempty\"`")
		assertDecl(t, read(t, target, "tree.go"), "type Tree []Tree")
	})

	t.Run("enums", func(t *testing.T) {
		src := read(t, target, "status.go")
		assertDecl(t, src, "type Status string")
		assertDecl(t, src, "Status_Active Status = \"active\"")
		assertDecl(t, src, "Status_Inactive Status = \"inactive\"")
		assertDecl(t, src, "func (Status) Values() []Status {")
		assert.NotContains(t, src, "IsValid")

		src = read(t, target, "code.go")
		assertDecl(t, src, "type Code int64")
		assertDecl(t, src, "Code_1 Code = 1")

		src = read(t, target, "ratio.go")
		assertDecl(t, src, "type Ratio float64")
		assertDecl(t, src, "Ratio_2_5 Ratio = 2.5")

		src = read(t, target, "mixed.go")
		assertDecl(t, src, "type Mixed any")
		assertDecl(t, src, "var Mixed_Values = []Mixed{")
	})

	t.Run("union", func(t *testing.T) {
		src := read(t, target, "pet.go")
		assertDecl(t, src, "type Pet struct {")
		assertDecl(t, src, "Cat *Cat")
		assertDecl(t, src, "Integer *int64")
		assertDecl(t, src, "Option4 *Pet_Option4")
		assert.NotContains(t, src, "Null")
		assertDecl(t, src, "func (u Pet) MarshalJSON() ([]byte, error) {")
		assertDecl(t, src, "func (u *Pet) UnmarshalJSON(data []byte) error {")
		assertDecl(t, src, "type Pet_Option4 struct {")

		src = read(t, target, "either.go")
		assertDecl(t, src, "String *string")
		assertDecl(t, src, "Number *float64")
	})

	t.Run("aliases and primitives", func(t *testing.T) {
		assertDecl(t, read(t, target, "other.go"), "type Other = Cat")
		assertDecl(t, read(t, target, "free.go"), "type Free map[string]any")
		assertDecl(t, read(t, target, "nothing.go"), "type Nothing = any")
		src := read(t, target, "names.go")
		assertDecl(t, src, "type Names []Names_Item")
		assertDecl(t, src, "type Names_Item struct {")
	})
}

func TestGenerateShapes(t *testing.T) {
	target := generate(t, map[string]string{
		"shapes.cdm.json": `{
			"Chain": {"type": "array", "items": {"$ref": "#/Chain"}},
			"definitions": {
				"Bag": {"type": "object", "additionalProperties": {"$ref": "#/definitions/Item"}},
				"Item": {"type": "object", "properties": {
					"id": {"type": "string"},
					"counts": {"additionalProperties": {"type": "integer"}}
				}},
				"Literal": {"enum": [[1, 2], "x", {"a": 1}, [1, 2]]},
				"Expr": {"oneOf": [{"$ref": "#/definitions/Expr"}, {"type": "string"}]},
				"Term": {"anyOf": [{"$ref": "#/definitions/Ref"}, {"type": "integer"}]},
				"Ref": {"$ref": "#/definitions/Term"}
			}
		}`,
	}, gen.WithFeatures(gen.FeatureValidator))
	assert.Equal(t, []string{
		"bag.go", "chain.go", "expr.go", "item.go", "literal.go", "ref.go", "term.go",
	}, files(t, target))
	typeCheck(t, target)

	t.Run("root member", func(t *testing.T) {
		assertDecl(t, read(t, target, "chain.go"), "type Chain []Chain")
	})

	t.Run("maps", func(t *testing.T) {
		assertDecl(t, read(t, target, "bag.go"), "type Bag map[string]Item")
		assertDecl(t, read(t, target, "item.go"), "Counts map[string]int64 `json:\"counts,omitempty\"`")
	})

	t.Run("structured enum values", func(t *testing.T) {
		src := read(t, target, "literal.go")
		assertDecl(t, src, "type Literal any")
		assert.Regexp(t, `\[\]any\{1(\.0)?, 2(\.0)?\}`, src)
		assert.Regexp(t, `map\[string\]any\{\s*"a":\s*1(\.0)?,?\s*\}`, src)
		assert.Equal(t, 1, strings.Count(src, "[]any{"))
		assert.NotContains(t, src, "IsValid")
	})

	t.Run("self branch is not decoded", func(t *testing.T) {
		src := read(t, target, "expr.go")
		assertDecl(t, src, "Expr *Expr")
		assertDecl(t, src, "String *string")
		assert.Contains(t, src, "return json.Marshal(u.Expr)")
		assert.NotContains(t, src, "var v Expr")
		assertDecl(t, src, "var v string")
	})

	t.Run("branch reentering through an alias is not decoded", func(t *testing.T) {
		src := read(t, target, "term.go")
		assertDecl(t, src, "Ref *Ref")
		assert.NotContains(t, src, "var v Ref")
		assertDecl(t, src, "var v int64")
		assertDecl(t, read(t, target, "ref.go"), "type Ref = Term")
	})
}

func TestGenerateValidator(t *testing.T) {
	target := generate(t, corpus, gen.WithFeatures(gen.FeatureValidator))
	typeCheck(t, target)

	src := read(t, target, "account.go")
	assertDecl(t, src, "func (v *Account) Validate() error {")
	assert.Contains(t, src, `errors.New("Account: missing required field \"owner\"")`)
	assert.Contains(t, src, `errors.New("Account: missing required field \"status\"")`)
	assert.NotContains(t, src, `missing required field \"id\"`)
	assert.Contains(t, src, "v.Status != nil && !v.Status.IsValid()")
	assert.Contains(t, src, "v.Code != nil && !v.Code.IsValid()")
	assertDecl(t, src, "func (v *Account_Address) Validate() error {")
	assert.Contains(t, src, "v.Kind != nil && !v.Kind.IsValid()")

	src = read(t, target, "status.go")
	assertDecl(t, src, "func (e Status) IsValid() bool {")
	assertDecl(t, src, "case Status_Active, Status_Inactive:")

	assert.NotContains(t, read(t, target, "mixed.go"), "IsValid")
}

func TestGenerateSnapshot(t *testing.T) {
	target := generate(t, corpus, gen.WithFeatures(gen.FeatureSnapshot))
	f, err := os.Open(filepath.Join(target, gen.SnapshotDir, gen.SnapshotFile))
	require.NoError(t, err)
	defer f.Close()
	s, err := gen.ReadSnapshot(f)
	require.NoError(t, err)
	assert.Equal(t, "models", s.Package)
	assert.Len(t, s.Types, 14)
	typeCheck(t, target)
}

func TestGenerateIdempotent(t *testing.T) {
	a, b := generate(t, corpus), generate(t, corpus)
	names := files(t, a)
	require.Equal(t, names, files(t, b))
	for _, name := range names {
		assert.Equal(t, read(t, a, name), read(t, b, name), name)
	}
}

func TestGenerateHooks(t *testing.T) {
	var seen int
	hook := func(next gen.Generator) gen.Generator {
		return gen.GenerateFunc(func(ctx context.Context, g *gen.Graph) ([]*gen.EmitError, error) {
			seen = len(g.Nodes)
			return next.Generate(ctx, g)
		})
	}
	generate(t, corpus, gen.WithHooks(hook))
	assert.Equal(t, 14, seen)
}

func TestGenerateMissingTarget(t *testing.T) {
	g := newGraph(t, corpus)
	_, err := Generate(context.Background(), g)
	require.Error(t, err)
	assert.True(t, gen.IsConfigError(err))
}

func TestDialect(t *testing.T) {
	g := newGraph(t, corpus, gen.WithTarget(t.TempDir()))
	helper := gen.NewJenniferGenerator(g, g.Target)
	d := NewDialect(helper)
	assert.Equal(t, "golang", d.Name())
	f := d.GenType(g.Type("Cat"))
	require.NotNil(t, f)
	assertDecl(t, f.GoString(), "type Cat struct {")
}
